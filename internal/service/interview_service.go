package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/config"
	"github.com/sanametrics/fieldsync/internal/dto"
	"github.com/sanametrics/fieldsync/internal/model"
	"github.com/sanametrics/fieldsync/internal/repository"
	"gorm.io/gorm"
)

// Validation failures are the only user-actionable, blocking errors in the
// capture flow; everything sync-related is absorbed into the status field.
var (
	ErrNoAnswers          = errors.New("interview has no answers to submit")
	ErrInterviewFinalized = errors.New("interview already synced and can no longer be modified")
	ErrUnknownSurvey      = errors.New("survey not found in the local catalog")
)

type InterviewService interface {
	Start(req dto.StartInterviewRequest) (*dto.InterviewResponse, error)
	SaveDraft(clientUUID string, req dto.SaveInterviewRequest) (*dto.InterviewResponse, error)
	// Submit validates, re-tags the interview pending and runs a sync pass
	// before returning, so the caller immediately sees pending, synced or
	// error in the returned record.
	Submit(ctx context.Context, clientUUID string) (*dto.InterviewResponse, error)
	Get(clientUUID string) (*dto.InterviewResponse, error)
	List() ([]dto.InterviewResponse, error)
	ListPending() ([]dto.InterviewResponse, error)
}

type interviewService struct {
	interviewRepo repository.InterviewRepository
	surveyRepo    repository.SurveyRepository
	syncSvc       SyncService
	cfg           *config.Config
}

func NewInterviewService(
	interviewRepo repository.InterviewRepository,
	surveyRepo repository.SurveyRepository,
	syncSvc SyncService,
	cfg *config.Config,
) InterviewService {
	return &interviewService{
		interviewRepo: interviewRepo,
		surveyRepo:    surveyRepo,
		syncSvc:       syncSvc,
		cfg:           cfg,
	}
}

func (s *interviewService) Start(req dto.StartInterviewRequest) (*dto.InterviewResponse, error) {
	if _, err := s.surveyRepo.FindByIDWithQuestions(req.SurveyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownSurvey
		}
		return nil, fmt.Errorf("failed to look up survey %d: %w", req.SurveyID, err)
	}

	clientUUID := uuid.NewString()
	status := model.StatusDraft
	interview, err := s.interviewRepo.Upsert(clientUUID, repository.InterviewPatch{
		SurveyID:        &req.SurveyID,
		InterviewerName: &req.InterviewerName,
		ParticipantName: &req.ParticipantName,
		DeviceID:        &s.cfg.Device.ID,
		AppVersion:      &s.cfg.Device.AppVersion,
		Status:          &status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	log.Info().Str("client_uuid", clientUUID).Uint("survey_id", req.SurveyID).Msg("Interview started")
	return toInterviewResponse(interview), nil
}

func (s *interviewService) SaveDraft(clientUUID string, req dto.SaveInterviewRequest) (*dto.InterviewResponse, error) {
	existing, err := s.interviewRepo.FindByClientUUID(clientUUID)
	if err != nil {
		return nil, err
	}
	if existing.Status == model.StatusSynced {
		return nil, ErrInterviewFinalized
	}

	patch := repository.InterviewPatch{
		InterviewerName: req.InterviewerName,
		ParticipantName: req.ParticipantName,
	}
	if req.Answers != nil {
		answers := toAnswerModels(*req.Answers)
		patch.Answers = &answers
	}
	interview, err := s.interviewRepo.Upsert(clientUUID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to save interview %s: %w", clientUUID, err)
	}
	return toInterviewResponse(interview), nil
}

func (s *interviewService) Submit(ctx context.Context, clientUUID string) (*dto.InterviewResponse, error) {
	interview, err := s.interviewRepo.FindByClientUUID(clientUUID)
	if err != nil {
		return nil, err
	}
	if interview.Status == model.StatusSynced {
		return nil, ErrInterviewFinalized
	}

	hasContent := false
	for _, answer := range interview.Answers {
		if answer.HasContent() {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return nil, ErrNoAnswers
	}

	status := model.StatusPending
	if _, err := s.interviewRepo.Upsert(clientUUID, repository.InterviewPatch{
		Status:         &status,
		ResetSyncState: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to queue interview %s: %w", clientUUID, err)
	}
	log.Info().Str("client_uuid", clientUUID).Msg("Interview submitted, pushing now")

	// Push immediately; if the device is offline or the platform rejects
	// it, the interview simply stays queued with its status telling why.
	s.syncSvc.TriggerSync(ctx, false)

	refreshed, err := s.interviewRepo.FindByClientUUID(clientUUID)
	if err != nil {
		return nil, err
	}
	return toInterviewResponse(refreshed), nil
}

func (s *interviewService) Get(clientUUID string) (*dto.InterviewResponse, error) {
	interview, err := s.interviewRepo.FindByClientUUID(clientUUID)
	if err != nil {
		return nil, err
	}
	return toInterviewResponse(interview), nil
}

func (s *interviewService) List() ([]dto.InterviewResponse, error) {
	interviews, err := s.interviewRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return toInterviewResponses(interviews), nil
}

func (s *interviewService) ListPending() ([]dto.InterviewResponse, error) {
	interviews, err := s.interviewRepo.FindPending(time.Now(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending interviews: %w", err)
	}
	return toInterviewResponses(interviews), nil
}

func toAnswerModels(inputs []dto.AnswerInput) []model.InterviewAnswer {
	answers := make([]model.InterviewAnswer, 0, len(inputs))
	for _, input := range inputs {
		answers = append(answers, model.InterviewAnswer{
			QuestionID:      input.QuestionID,
			AnswerText:      input.AnswerText,
			SelectedChoices: model.ChoiceIDs(input.SelectedChoices),
		})
	}
	return answers
}

func toInterviewResponse(interview *model.Interview) *dto.InterviewResponse {
	answers := make([]dto.AnswerResponse, 0, len(interview.Answers))
	for _, answer := range interview.Answers {
		choices := answer.SelectedChoices
		if choices == nil {
			choices = model.ChoiceIDs{}
		}
		answers = append(answers, dto.AnswerResponse{
			QuestionID:      answer.QuestionID,
			AnswerText:      answer.AnswerText,
			SelectedChoices: choices,
		})
	}
	return &dto.InterviewResponse{
		ID:              interview.ID,
		ClientUUID:      interview.ClientUUID,
		SurveyID:        interview.SurveyID,
		InterviewerName: interview.InterviewerName,
		ParticipantName: interview.ParticipantName,
		Status:          interview.Status,
		SyncError:       interview.SyncError,
		UpdatedAtLocal:  interview.UpdatedAtLocal,
		SyncedAt:        interview.SyncedAt,
		DeviceID:        interview.DeviceID,
		AppVersion:      interview.AppVersion,
		SyncAttempts:    interview.SyncAttempts,
		Answers:         answers,
		CreatedAt:       interview.CreatedAt,
	}
}

func toInterviewResponses(interviews []model.Interview) []dto.InterviewResponse {
	responses := make([]dto.InterviewResponse, 0, len(interviews))
	for i := range interviews {
		responses = append(responses, *toInterviewResponse(&interviews[i]))
	}
	return responses
}
