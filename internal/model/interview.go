package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Interview sync lifecycle. A draft lives only on the device; submission
// re-tags it pending, and the sync pass resolves it to synced or error.
const (
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusSynced  = "synced"
	StatusError   = "error"
)

// Interview is one respondent session. ClientUUID is generated on the device
// at session start and is the idempotency key the platform deduplicates on,
// so resubmitting the same interview never creates a duplicate response.
type Interview struct {
	ID              uint              `gorm:"primarykey" json:"id"`
	ClientUUID      string            `json:"client_uuid" gorm:"size:36;uniqueIndex;not null"`
	SurveyID        uint              `json:"survey_id" gorm:"not null;index"`
	InterviewerName string            `json:"interviewer_name" gorm:"size:150"`
	ParticipantName string            `json:"participant_name" gorm:"size:150"`
	Status          string            `json:"status" gorm:"size:20;not null;default:draft;index"`
	SyncError       *string           `json:"sync_error" gorm:"type:text"`
	UpdatedAtLocal  time.Time         `json:"updated_at_local"`
	SyncedAt        *time.Time        `json:"synced_at"`
	DeviceID        string            `json:"device_id" gorm:"size:100"`
	AppVersion      string            `json:"app_version" gorm:"size:50"`
	SyncAttempts    int               `json:"sync_attempts" gorm:"not null;default:0"`
	NextAttemptAt   *time.Time        `json:"next_attempt_at"`
	Answers         []InterviewAnswer `json:"answers" gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

// InterviewAnswer holds one answer. AnswerText carries text/number answers;
// SelectedChoices carries choice ids for single/multiple questions. Exactly
// one of the two is meaningful depending on the question type.
type InterviewAnswer struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	InterviewID     uint      `json:"interview_id" gorm:"not null;index"`
	QuestionID      uint      `json:"question_id" gorm:"not null"`
	AnswerText      string    `json:"answer_text" gorm:"type:text"`
	SelectedChoices ChoiceIDs `json:"selected_choices" gorm:"type:text"`
	Position        int       `json:"position" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasContent reports whether the answer carries anything worth submitting.
func (a InterviewAnswer) HasContent() bool {
	return a.AnswerText != "" || len(a.SelectedChoices) > 0
}

// ChoiceIDs stores selected choice identifiers as a JSON array in a text
// column, keeping the store portable between SQLite and Postgres.
type ChoiceIDs []int64

func (c ChoiceIDs) Value() (driver.Value, error) {
	if c == nil {
		c = ChoiceIDs{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ChoiceIDs) Scan(value interface{}) error {
	if value == nil {
		*c = ChoiceIDs{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ChoiceIDs", value)
	}
	if len(raw) == 0 {
		*c = ChoiceIDs{}
		return nil
	}
	return json.Unmarshal(raw, c)
}
