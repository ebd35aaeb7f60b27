package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/internal/dto"
	"github.com/sanametrics/fieldsync/internal/model"
	"github.com/sanametrics/fieldsync/internal/remote"
	"github.com/sanametrics/fieldsync/internal/repository"
)

// SurveyService serves the locally cached catalog and refreshes it from the
// platform when connectivity allows. List and Get never touch the network.
type SurveyService interface {
	Refresh(ctx context.Context) ([]dto.SurveySummaryResponse, error)
	List() ([]dto.SurveySummaryResponse, error)
	Get(id uint) (*dto.SurveyResponse, error)
}

type surveyService struct {
	surveyRepo repository.SurveyRepository
	client     *remote.Client
	session    SessionService
}

func NewSurveyService(surveyRepo repository.SurveyRepository, client *remote.Client, session SessionService) SurveyService {
	return &surveyService{
		surveyRepo: surveyRepo,
		client:     client,
		session:    session,
	}
}

func (s *surveyService) Refresh(ctx context.Context) ([]dto.SurveySummaryResponse, error) {
	payloads, err := s.client.FetchSurveys(ctx, s.session.AccessToken())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch survey catalog: %w", err)
	}

	now := time.Now()
	surveys := make([]model.Survey, 0, len(payloads))
	for _, payload := range payloads {
		surveys = append(surveys, toSurveyModel(payload, now))
	}
	if err := s.surveyRepo.ReplaceAll(surveys); err != nil {
		return nil, fmt.Errorf("failed to store survey catalog: %w", err)
	}
	log.Info().Int("count", len(surveys)).Msg("Survey catalog refreshed")
	return s.List()
}

func (s *surveyService) List() ([]dto.SurveySummaryResponse, error) {
	rows, err := s.surveyRepo.FindAllWithQuestionCount()
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	summaries := make([]dto.SurveySummaryResponse, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, dto.SurveySummaryResponse{
			ID:            row.ID,
			Title:         row.Title,
			Description:   row.Description,
			QuestionCount: row.QuestionCount,
			RefreshedAt:   row.RefreshedAt,
		})
	}
	return summaries, nil
}

func (s *surveyService) Get(id uint) (*dto.SurveyResponse, error) {
	survey, err := s.surveyRepo.FindByIDWithQuestions(id)
	if err != nil {
		return nil, err
	}
	var resp dto.SurveyResponse
	if err := copier.Copy(&resp, survey); err != nil {
		log.Error().Err(err).Uint("survey_id", id).Msg("Failed to map survey to response")
		return nil, fmt.Errorf("error preparing survey response: %w", err)
	}
	return &resp, nil
}

func toSurveyModel(payload remote.SurveyPayload, refreshedAt time.Time) model.Survey {
	questions := make([]model.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		choices := make([]model.Choice, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, model.Choice{
				ID:         c.ID,
				QuestionID: q.ID,
				Text:       c.Text,
			})
		}
		questions = append(questions, model.Question{
			ID:           q.ID,
			SurveyID:     payload.ID,
			Text:         q.Text,
			QuestionType: q.QuestionType,
			Position:     q.Order,
			Choices:      choices,
		})
	}
	return model.Survey{
		ID:          payload.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Questions:   questions,
		RefreshedAt: refreshedAt,
	}
}
