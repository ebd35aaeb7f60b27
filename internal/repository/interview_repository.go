package repository

import (
	"errors"
	"time"

	"github.com/sanametrics/fieldsync/internal/model"
	"gorm.io/gorm"
)

// InterviewPatch is a partial interview: nil fields keep the stored value.
// Answers replaces the full answer set when non-nil.
type InterviewPatch struct {
	SurveyID        *uint
	InterviewerName *string
	ParticipantName *string
	DeviceID        *string
	AppVersion      *string
	Status          *string
	UpdatedAtLocal  *time.Time
	Answers         *[]model.InterviewAnswer

	// ResetSyncState clears sync_error and the retry bookkeeping, used when
	// a submission re-tags the interview pending.
	ResetSyncState bool
}

// InterviewRepository is the durable local log of interviews, keyed by
// client_uuid. It is the only shared mutable state in the agent; every
// mutation runs in its own transaction so concurrent handlers cannot
// interleave a read-modify-write.
type InterviewRepository interface {
	Upsert(clientUUID string, patch InterviewPatch) (*model.Interview, error)
	FindByClientUUID(clientUUID string) (*model.Interview, error)
	FindAll() ([]model.Interview, error)
	// FindPending returns all pending/error interviews in insertion order.
	// Unless force is set, interviews whose retry window has not elapsed
	// are left out of the batch.
	FindPending(now time.Time, force bool) ([]model.Interview, error)
	CountPending() (int64, error)
	MarkSynced(clientUUID string, at time.Time) error
	MarkError(clientUUID string, message string, nextAttempt time.Time) error
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) Upsert(clientUUID string, patch InterviewPatch) (*model.Interview, error) {
	var out model.Interview
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var interview model.Interview
		err := tx.Preload("Answers", answerOrder).Where("client_uuid = ?", clientUUID).First(&interview).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			interview = model.Interview{
				ClientUUID: clientUUID,
				Status:     model.StatusDraft,
			}
		}

		if patch.SurveyID != nil {
			interview.SurveyID = *patch.SurveyID
		}
		if patch.InterviewerName != nil {
			interview.InterviewerName = *patch.InterviewerName
		}
		if patch.ParticipantName != nil {
			interview.ParticipantName = *patch.ParticipantName
		}
		if patch.DeviceID != nil {
			interview.DeviceID = *patch.DeviceID
		}
		if patch.AppVersion != nil {
			interview.AppVersion = *patch.AppVersion
		}
		if patch.Status != nil {
			interview.Status = *patch.Status
		}
		if patch.ResetSyncState {
			interview.SyncError = nil
			interview.SyncAttempts = 0
			interview.NextAttemptAt = nil
		}
		if patch.UpdatedAtLocal != nil {
			interview.UpdatedAtLocal = *patch.UpdatedAtLocal
		} else {
			interview.UpdatedAtLocal = time.Now()
		}

		if err := tx.Omit("Answers").Save(&interview).Error; err != nil {
			return err
		}

		if patch.Answers != nil {
			if err := tx.Where("interview_id = ?", interview.ID).Delete(&model.InterviewAnswer{}).Error; err != nil {
				return err
			}
			answers := *patch.Answers
			for i := range answers {
				answers[i].ID = 0
				answers[i].InterviewID = interview.ID
				answers[i].Position = i
			}
			if len(answers) > 0 {
				if err := tx.Create(&answers).Error; err != nil {
					return err
				}
			}
			interview.Answers = answers
		}

		out = interview
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *interviewRepository) FindByClientUUID(clientUUID string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.Preload("Answers", answerOrder).Where("client_uuid = ?", clientUUID).First(&interview).Error
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

func (r *interviewRepository) FindAll() ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.Preload("Answers", answerOrder).Order("interviews.id ASC").Find(&interviews).Error
	return interviews, err
}

func (r *interviewRepository) FindPending(now time.Time, force bool) ([]model.Interview, error) {
	query := r.db.Preload("Answers", answerOrder).
		Where("status IN ?", []string{model.StatusPending, model.StatusError})
	if !force {
		query = query.Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now)
	}
	var interviews []model.Interview
	err := query.Order("interviews.id ASC").Find(&interviews).Error
	return interviews, err
}

func (r *interviewRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&model.Interview{}).
		Where("status IN ?", []string{model.StatusPending, model.StatusError}).
		Count(&count).Error
	return count, err
}

// MarkSynced is a no-op when the key does not exist.
func (r *interviewRepository) MarkSynced(clientUUID string, at time.Time) error {
	return r.db.Model(&model.Interview{}).
		Where("client_uuid = ?", clientUUID).
		Updates(map[string]interface{}{
			"status":          model.StatusSynced,
			"sync_error":      nil,
			"synced_at":       at,
			"sync_attempts":   0,
			"next_attempt_at": nil,
		}).Error
}

// MarkError records the failure detail and schedules the next retry. A
// missing key is a no-op, same as MarkSynced.
func (r *interviewRepository) MarkError(clientUUID string, message string, nextAttempt time.Time) error {
	return r.db.Model(&model.Interview{}).
		Where("client_uuid = ?", clientUUID).
		Updates(map[string]interface{}{
			"status":          model.StatusError,
			"sync_error":      message,
			"sync_attempts":   gorm.Expr("sync_attempts + 1"),
			"next_attempt_at": nextAttempt,
		}).Error
}

func answerOrder(db *gorm.DB) *gorm.DB {
	return db.Order("interview_answers.position ASC")
}
