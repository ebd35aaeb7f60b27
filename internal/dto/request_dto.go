package dto

// StartInterviewRequest opens a new respondent session against a cached
// survey. The agent generates the client_uuid; callers never supply one.
type StartInterviewRequest struct {
	SurveyID        uint   `json:"survey_id" binding:"required"`
	InterviewerName string `json:"interviewer_name"`
	ParticipantName string `json:"participant_name"`
}

// AnswerInput is one answer as captured by the UI. AnswerText is used for
// text/number questions, SelectedChoices for single/multiple questions.
type AnswerInput struct {
	QuestionID      uint    `json:"question_id" binding:"required"`
	AnswerText      string  `json:"answer_text"`
	SelectedChoices []int64 `json:"selected_choices"`
}

// SaveInterviewRequest is the auto-save patch. Every field is optional;
// absent fields keep their stored value. A non-nil Answers replaces the
// whole answer set (the UI always sends the full current set).
type SaveInterviewRequest struct {
	InterviewerName *string        `json:"interviewer_name"`
	ParticipantName *string        `json:"participant_name"`
	Answers         *[]AnswerInput `json:"answers"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
