package remote

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sanametrics/fieldsync/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const testBaseURL = "http://platform.test"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Remote.BaseURL = testBaseURL
	cfg.Remote.RequestTimeout = 5 * time.Second

	httpClient := &http.Client{Transport: http.DefaultTransport}
	gock.InterceptClient(httpClient)
	t.Cleanup(gock.Off)

	return NewClient(cfg, httpClient)
}

func interviewFixture() InterviewPayload {
	return InterviewPayload{
		ClientUUID:      "0a3a4b9e-6a01-4b86-9d5e-2f1f4c9f21aa",
		SurveyID:        7,
		InterviewerName: "alice",
		ParticipantName: "bob",
		UpdatedAtLocal:  "2026-08-30T10:00:00Z",
		DeviceID:        "tablet-12",
		AppVersion:      "fieldsync-1.0",
		Answers: []AnswerPayload{
			{QuestionID: 1, AnswerText: "ten employees", SelectedChoices: []int64{}},
			{QuestionID: 2, SelectedChoices: []int64{3, 5}},
		},
	}
}

func TestSubmitInterview(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		MatchType("json").
		JSON(interviewFixture()).
		Reply(200).
		JSON(map[string]interface{}{"client_uuid": "0a3a4b9e-6a01-4b86-9d5e-2f1f4c9f21aa"})

	err := client.SubmitInterview(context.Background(), interviewFixture(), "")
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestSubmitInterviewAttachesBearerToken(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		MatchHeader("Authorization", "Bearer token-123").
		Reply(200)

	err := client.SubmitInterview(context.Background(), interviewFixture(), "token-123")
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestSubmitInterviewCapturesErrorBody(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		Reply(500).
		BodyString("server error")

	err := client.SubmitInterview(context.Background(), interviewFixture(), "")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "server error", err.Error())
}

func TestSubmitInterviewEmptyErrorBodyFallsBackToStatus(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		Reply(503)

	err := client.SubmitInterview(context.Background(), interviewFixture(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestObtainToken(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/token/").
		JSON(map[string]string{"username": "alice", "password": "s3cret"}).
		Reply(200).
		JSON(map[string]string{"access": "acc-1", "refresh": "ref-1"})

	pair, err := client.ObtainToken(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", pair.Access)
	assert.Equal(t, "ref-1", pair.Refresh)
}

func TestObtainTokenRejected(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/token/").
		Reply(401).
		BodyString(`{"detail":"No active account found"}`)

	_, err := client.ObtainToken(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active account")
}

func TestRefreshTokenKeepsRefreshWhenOmitted(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Post("/api/token/refresh/").
		Reply(200).
		JSON(map[string]string{"access": "acc-2"})

	pair, err := client.RefreshToken(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-2", pair.Access)
	assert.Equal(t, "ref-1", pair.Refresh)
}

func TestFetchSurveys(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Get("/api/surveys/").
		MatchHeader("Authorization", "Bearer token-123").
		Reply(200).
		JSON([]map[string]interface{}{
			{
				"id": 10, "title": "Market reach",
				"questions": []map[string]interface{}{
					{
						"id": 100, "text": "How did you hear about us?",
						"question_type": "single", "order": 1,
						"choices": []map[string]interface{}{
							{"id": 1000, "text": "Radio"},
						},
					},
				},
			},
		})

	surveys, err := client.FetchSurveys(context.Background(), "token-123")
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, uint(10), surveys[0].ID)
	require.Len(t, surveys[0].Questions, 1)
	assert.Equal(t, "single", surveys[0].Questions[0].QuestionType)
	require.Len(t, surveys[0].Questions[0].Choices, 1)
}

func TestFetchSurvey(t *testing.T) {
	client := newTestClient(t)

	gock.New(testBaseURL).
		Get("/api/surveys/10/").
		Reply(200).
		JSON(map[string]interface{}{"id": 10, "title": "Market reach"})

	survey, err := client.FetchSurvey(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, "Market reach", survey.Title)
}

func TestPing(t *testing.T) {
	client := newTestClient(t)

	// 401 still proves the platform is reachable.
	gock.New(testBaseURL).
		Get("/api/surveys/").
		Reply(401)

	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	client := newTestClient(t)
	// No mock registered: the transport refuses the request.
	assert.Error(t, client.Ping(context.Background()))
}
