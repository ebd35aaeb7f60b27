// Package remote is the HTTP client for the survey platform: interview
// submission, token issuance and catalog retrieval.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sanametrics/fieldsync/config"
)

const (
	syncPath         = "/api/mobile/sync/"
	tokenPath        = "/api/token/"
	tokenRefreshPath = "/api/token/refresh/"
	surveysPath      = "/api/surveys/"
)

// maxErrorBody caps how much of a failure response is kept as sync_error.
const maxErrorBody = 2048

// AnswerPayload mirrors the platform's answer shape on the sync endpoint.
type AnswerPayload struct {
	QuestionID      uint    `json:"question_id"`
	AnswerText      string  `json:"answer_text"`
	SelectedChoices []int64 `json:"selected_choices"`
}

// InterviewPayload is one interview submission. The platform deduplicates
// on client_uuid, so resubmitting after a retry is safe.
type InterviewPayload struct {
	ClientUUID      string          `json:"client_uuid"`
	SurveyID        uint            `json:"survey_id"`
	InterviewerName string          `json:"interviewer_name"`
	ParticipantName string          `json:"participant_name"`
	UpdatedAtLocal  string          `json:"updated_at_local"`
	DeviceID        string          `json:"device_id"`
	AppVersion      string          `json:"app_version"`
	Answers         []AnswerPayload `json:"answers"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type ChoicePayload struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionPayload struct {
	ID           uint            `json:"id"`
	Text         string          `json:"text"`
	QuestionType string          `json:"question_type"`
	Order        int             `json:"order"`
	Choices      []ChoicePayload `json:"choices"`
}

type SurveyPayload struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []QuestionPayload `json:"questions"`
}

// StatusError is a non-2xx platform response. Its message is the response
// body, which is exactly what ends up recorded as an interview's sync_error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a platform client. A nil httpClient gets a default one
// bounded by the configured request timeout, so no sync call can hang a
// coordinator run indefinitely.
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Remote.RequestTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Remote.BaseURL, "/"),
		http:    httpClient,
	}
}

// SubmitInterview pushes one interview to the platform sync endpoint. The
// token is optional; anonymous submission is valid for public surveys.
func (c *Client) SubmitInterview(ctx context.Context, payload InterviewPayload, token string) error {
	resp, err := c.do(ctx, http.MethodPost, syncPath, payload, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) ObtainToken(ctx context.Context, username, password string) (*TokenPair, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, http.MethodPost, tokenPath, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &pair, nil
}

func (c *Client) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	body := map[string]string{"refresh": refresh}
	resp, err := c.do(ctx, http.MethodPost, tokenRefreshPath, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return &pair, nil
}

func (c *Client) FetchSurveys(ctx context.Context, token string) ([]SurveyPayload, error) {
	resp, err := c.do(ctx, http.MethodGet, surveysPath, nil, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var surveys []SurveyPayload
	if err := json.NewDecoder(resp.Body).Decode(&surveys); err != nil {
		return nil, fmt.Errorf("failed to decode survey list: %w", err)
	}
	return surveys, nil
}

func (c *Client) FetchSurvey(ctx context.Context, id uint, token string) (*SurveyPayload, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s%d/", surveysPath, id), nil, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var survey SurveyPayload
	if err := json.NewDecoder(resp.Body).Decode(&survey); err != nil {
		return nil, fmt.Errorf("failed to decode survey: %w", err)
	}
	return &survey, nil
}

// Ping reports reachability. Any HTTP response counts, including 401: the
// question is whether the platform answers at all, not whether we are
// authorized.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+surveysPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
}
