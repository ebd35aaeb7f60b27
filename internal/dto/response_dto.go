package dto

import (
	"time"

	"github.com/sanametrics/fieldsync/internal/model"
)

type AnswerResponse struct {
	QuestionID      uint            `json:"question_id"`
	AnswerText      string          `json:"answer_text"`
	SelectedChoices model.ChoiceIDs `json:"selected_choices"`
}

type InterviewResponse struct {
	ID              uint             `json:"id"`
	ClientUUID      string           `json:"client_uuid"`
	SurveyID        uint             `json:"survey_id"`
	InterviewerName string           `json:"interviewer_name"`
	ParticipantName string           `json:"participant_name"`
	Status          string           `json:"status"`
	SyncError       *string          `json:"sync_error"`
	UpdatedAtLocal  time.Time        `json:"updated_at_local"`
	SyncedAt        *time.Time       `json:"synced_at,omitempty"`
	DeviceID        string           `json:"device_id"`
	AppVersion      string           `json:"app_version"`
	SyncAttempts    int              `json:"sync_attempts"`
	Answers         []AnswerResponse `json:"answers"`
	CreatedAt       time.Time        `json:"created_at"`
}

type ChoiceResponse struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionResponse struct {
	ID           uint             `json:"id"`
	Text         string           `json:"text"`
	QuestionType string           `json:"question_type"`
	Position     int              `json:"order"`
	Choices      []ChoiceResponse `json:"choices"`
}

type SurveyResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []QuestionResponse `json:"questions"`
	RefreshedAt time.Time          `json:"refreshed_at"`
}

type SurveySummaryResponse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	QuestionCount int       `json:"question_count"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// SyncStatusResponse reports the outcome of the most recent sync run plus
// the live queue depth. Per-interview outcomes stay observable through the
// interview status field itself.
type SyncStatusResponse struct {
	Online       bool       `json:"online"`
	Running      bool       `json:"running"`
	PendingCount int64      `json:"pending_count"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastSynced   int        `json:"last_synced"`
	LastFailed   int        `json:"last_failed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
