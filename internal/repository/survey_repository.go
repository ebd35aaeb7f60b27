package repository

import (
	"github.com/sanametrics/fieldsync/internal/model"
	"gorm.io/gorm"
)

type SurveyWithQuestionCount struct {
	model.Survey
	QuestionCount int
}

// SurveyRepository caches the platform survey catalog locally so capture
// keeps working without connectivity.
type SurveyRepository interface {
	ReplaceAll(surveys []model.Survey) error
	FindAllWithQuestionCount() ([]SurveyWithQuestionCount, error)
	FindByIDWithQuestions(id uint) (*model.Survey, error)
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

// ReplaceAll swaps the whole catalog in one transaction. Platform ids are
// preserved so cached questions stay referenceable from interview answers.
func (r *surveyRepository) ReplaceAll(surveys []model.Survey) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Survey{}).Error; err != nil {
			return err
		}
		if len(surveys) == 0 {
			return nil
		}
		return tx.Create(&surveys).Error
	})
}

func (r *surveyRepository) FindAllWithQuestionCount() ([]SurveyWithQuestionCount, error) {
	var results []SurveyWithQuestionCount
	err := r.db.Model(&model.Survey{}).
		Select("surveys.*, (SELECT COUNT(*) FROM questions WHERE questions.survey_id = surveys.id) as question_count").
		Order("surveys.id ASC").
		Scan(&results).Error
	return results, err
}

func (r *surveyRepository) FindByIDWithQuestions(id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.position ASC")
	}).Preload("Questions.Choices").First(&survey, id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}
