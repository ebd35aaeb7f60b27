package model

import (
	"time"
)

// Survey is a locally cached copy of a platform survey, refreshed from the
// remote catalog so interviews can be captured fully offline. IDs are the
// platform's own identifiers, never generated locally.
type Survey struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Questions   []Question `json:"questions" gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
	RefreshedAt time.Time  `json:"refreshed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Question types mirror the platform: free text, single choice, multiple
// choice and numeric answers.
const (
	QuestionTypeText     = "text"
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
	QuestionTypeNumber   = "number"
)

type Question struct {
	ID           uint     `gorm:"primarykey" json:"id"`
	SurveyID     uint     `json:"survey_id" gorm:"not null;index"`
	Text         string   `json:"text" gorm:"size:500;not null"`
	QuestionType string   `json:"question_type" gorm:"size:10;not null;default:text"`
	Position     int      `json:"order" gorm:"column:position;not null;default:0"`
	Choices      []Choice `json:"choices" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type Choice struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"size:200;not null"`
}
