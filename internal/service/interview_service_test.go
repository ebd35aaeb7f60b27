package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sanametrics/fieldsync/config"
	"github.com/sanametrics/fieldsync/internal/dto"
	"github.com/sanametrics/fieldsync/internal/model"
	"github.com/sanametrics/fieldsync/internal/remote"
	"github.com/sanametrics/fieldsync/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
	"gorm.io/gorm"
)

type interviewHarness struct {
	svc     InterviewService
	network *stubReachability
	repo    repository.InterviewRepository
}

func newInterviewHarness(t *testing.T) *interviewHarness {
	t.Helper()
	cfg := &config.Config{}
	cfg.Remote.BaseURL = testBaseURL
	cfg.Remote.RequestTimeout = 5 * time.Second
	cfg.Device.ID = "tablet-04"
	cfg.Device.AppVersion = "fieldsync-1.0"

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	t.Cleanup(gock.Off)

	db := openTestDB(t)
	surveyRepo := repository.NewSurveyRepository(db)
	require.NoError(t, surveyRepo.ReplaceAll([]model.Survey{
		{
			ID:    7,
			Title: "Market pulse",
			Questions: []model.Question{
				{ID: 1, SurveyID: 7, Text: "Company size?", QuestionType: model.QuestionTypeText, Position: 1},
			},
		},
	}))

	interviewRepo := repository.NewInterviewRepository(db)
	network := &stubReachability{online: true}
	client := remote.NewClient(cfg, httpClient)
	syncSvc := NewSyncService(interviewRepo, client, &stubSession{}, network, cfg)

	return &interviewHarness{
		svc:     NewInterviewService(interviewRepo, surveyRepo, syncSvc, cfg),
		network: network,
		repo:    interviewRepo,
	}
}

func (h *interviewHarness) startInterview(t *testing.T) *dto.InterviewResponse {
	t.Helper()
	resp, err := h.svc.Start(dto.StartInterviewRequest{
		SurveyID:        7,
		InterviewerName: "Nadia",
	})
	require.NoError(t, err)
	return resp
}

func strPtr(s string) *string { return &s }

func TestStartCreatesDraftWithDeviceIdentity(t *testing.T) {
	h := newInterviewHarness(t)

	resp := h.startInterview(t)

	assert.NotEmpty(t, resp.ClientUUID)
	assert.Equal(t, model.StatusDraft, resp.Status)
	assert.Equal(t, uint(7), resp.SurveyID)
	assert.Equal(t, "Nadia", resp.InterviewerName)
	assert.Equal(t, "tablet-04", resp.DeviceID)
	assert.Equal(t, "fieldsync-1.0", resp.AppVersion)
	assert.False(t, resp.UpdatedAtLocal.IsZero())
}

func TestStartRejectsUnknownSurvey(t *testing.T) {
	h := newInterviewHarness(t)

	_, err := h.svc.Start(dto.StartInterviewRequest{SurveyID: 99})
	assert.ErrorIs(t, err, ErrUnknownSurvey)
}

func TestStartGeneratesDistinctUUIDs(t *testing.T) {
	h := newInterviewHarness(t)

	first := h.startInterview(t)
	second := h.startInterview(t)
	assert.NotEqual(t, first.ClientUUID, second.ClientUUID)
}

func TestSaveDraftMergesFields(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)

	// Patch only the participant: the interviewer set at start survives.
	resp, err := h.svc.SaveDraft(started.ClientUUID, dto.SaveInterviewRequest{
		ParticipantName: strPtr("Acme Ltd"),
		Answers: &[]dto.AnswerInput{
			{QuestionID: 1, AnswerText: "ten employees"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Nadia", resp.InterviewerName)
	assert.Equal(t, "Acme Ltd", resp.ParticipantName)
	assert.Equal(t, model.StatusDraft, resp.Status)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, "ten employees", resp.Answers[0].AnswerText)
	assert.True(t, resp.UpdatedAtLocal.After(started.UpdatedAtLocal) ||
		resp.UpdatedAtLocal.Equal(started.UpdatedAtLocal))
}

func TestSaveDraftUnknownInterview(t *testing.T) {
	h := newInterviewHarness(t)

	_, err := h.svc.SaveDraft("no-such-uuid", dto.SaveInterviewRequest{
		ParticipantName: strPtr("Acme Ltd"),
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaveDraftRejectsSyncedInterview(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)
	require.NoError(t, h.repo.MarkSynced(started.ClientUUID, time.Now()))

	_, err := h.svc.SaveDraft(started.ClientUUID, dto.SaveInterviewRequest{
		ParticipantName: strPtr("Acme Ltd"),
	})
	assert.ErrorIs(t, err, ErrInterviewFinalized)
}

func TestSubmitRequiresAnswers(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)

	_, err := h.svc.Submit(context.Background(), started.ClientUUID)
	assert.ErrorIs(t, err, ErrNoAnswers)

	stored, err := h.repo.FindByClientUUID(started.ClientUUID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, stored.Status)
}

func TestSubmitPushesImmediately(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)
	_, err := h.svc.SaveDraft(started.ClientUUID, dto.SaveInterviewRequest{
		Answers: &[]dto.AnswerInput{
			{QuestionID: 1, AnswerText: "ten employees"},
		},
	})
	require.NoError(t, err)

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		BodyString(`"client_uuid":"` + started.ClientUUID + `"`).
		Reply(200)

	resp, err := h.svc.Submit(context.Background(), started.ClientUUID)
	require.NoError(t, err)

	// The sync pass ran inline, so the caller sees the final state.
	assert.Equal(t, model.StatusSynced, resp.Status)
	assert.Nil(t, resp.SyncError)
	assert.True(t, gock.IsDone())
}

func TestSubmitOfflineStaysPending(t *testing.T) {
	h := newInterviewHarness(t)
	h.network.online = false
	started := h.startInterview(t)
	_, err := h.svc.SaveDraft(started.ClientUUID, dto.SaveInterviewRequest{
		Answers: &[]dto.AnswerInput{
			{QuestionID: 1, SelectedChoices: []int64{3}},
		},
	})
	require.NoError(t, err)

	resp, err := h.svc.Submit(context.Background(), started.ClientUUID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Nil(t, resp.SyncError)
}

func TestSubmitRejectsSyncedInterview(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)
	require.NoError(t, h.repo.MarkSynced(started.ClientUUID, time.Now()))

	_, err := h.svc.Submit(context.Background(), started.ClientUUID)
	assert.ErrorIs(t, err, ErrInterviewFinalized)
}

func TestSubmitClearsPreviousSyncError(t *testing.T) {
	h := newInterviewHarness(t)
	started := h.startInterview(t)
	_, err := h.svc.SaveDraft(started.ClientUUID, dto.SaveInterviewRequest{
		Answers: &[]dto.AnswerInput{
			{QuestionID: 1, AnswerText: "ten employees"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, h.repo.MarkError(started.ClientUUID, "boom", time.Now().Add(time.Hour)))

	gock.New(testBaseURL).
		Post("/api/mobile/sync/").
		Reply(200)

	resp, err := h.svc.Submit(context.Background(), started.ClientUUID)
	require.NoError(t, err)

	// Submission resets the backoff state, so the push is not deferred.
	assert.Equal(t, model.StatusSynced, resp.Status)
	assert.Nil(t, resp.SyncError)
	assert.Zero(t, resp.SyncAttempts)
}

func TestListReturnsAllInterviews(t *testing.T) {
	h := newInterviewHarness(t)
	first := h.startInterview(t)
	second := h.startInterview(t)

	all, err := h.svc.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ClientUUID, all[0].ClientUUID)
	assert.Equal(t, second.ClientUUID, all[1].ClientUUID)

	pending, err := h.svc.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
