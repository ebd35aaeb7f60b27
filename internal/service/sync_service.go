package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/config"
	"github.com/sanametrics/fieldsync/internal/model"
	"github.com/sanametrics/fieldsync/internal/remote"
	"github.com/sanametrics/fieldsync/internal/repository"
)

// SyncReport summarizes the last coordinator run for the status endpoint.
type SyncReport struct {
	RanAt  time.Time
	Synced int
	Failed int
}

// SyncService drives convergence of locally queued interviews to the
// platform. TriggerSync is fire-and-forget: it never returns an error, every
// failure is absorbed into the per-interview status field.
type SyncService interface {
	// TriggerSync is idempotent and safe to call repeatedly; overlapping
	// calls return immediately. force retries error items before their
	// backoff window has elapsed.
	TriggerSync(ctx context.Context, force bool)
	Running() bool
	LastReport() *SyncReport
}

type syncService struct {
	interviewRepo repository.InterviewRepository
	client        *remote.Client
	session       SessionService
	reachability  Reachability
	cfg           *config.Config

	running atomic.Bool

	mu         sync.Mutex
	lastReport *SyncReport
}

func NewSyncService(
	interviewRepo repository.InterviewRepository,
	client *remote.Client,
	session SessionService,
	reachability Reachability,
	cfg *config.Config,
) SyncService {
	return &syncService{
		interviewRepo: interviewRepo,
		client:        client,
		session:       session,
		reachability:  reachability,
		cfg:           cfg,
	}
}

func (s *syncService) TriggerSync(ctx context.Context, force bool) {
	if !s.running.CompareAndSwap(false, true) {
		log.Debug().Msg("Sync run already active, trigger ignored")
		return
	}
	defer s.running.Store(false)

	if !s.reachability.Online() {
		log.Debug().Msg("Device offline, sync run skipped")
		return
	}

	interviews, err := s.interviewRepo.FindPending(time.Now(), force)
	if err != nil {
		// Fail open: a broken local store means nothing to sync this run.
		log.Error().Err(err).Msg("Failed to load pending interviews, sync run skipped")
		return
	}
	if len(interviews) == 0 {
		return
	}

	log.Info().Int("count", len(interviews)).Bool("force", force).Msg("Sync run started")
	report := SyncReport{RanAt: time.Now()}
	token := s.session.AccessToken()

	// Strictly sequential: interview n+1 is not attempted until n resolved.
	for i := range interviews {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Sync run cancelled")
			break
		}
		interview := &interviews[i]
		if err := s.client.SubmitInterview(ctx, buildPayload(interview), token); err != nil {
			report.Failed++
			delay := s.backoff(interview.SyncAttempts)
			if markErr := s.interviewRepo.MarkError(interview.ClientUUID, err.Error(), time.Now().Add(delay)); markErr != nil {
				log.Error().Err(markErr).Str("client_uuid", interview.ClientUUID).Msg("Failed to record sync error")
			}
			log.Warn().Err(err).
				Str("client_uuid", interview.ClientUUID).
				Dur("retry_in", delay).
				Msg("Interview sync failed")
			continue
		}
		report.Synced++
		if markErr := s.interviewRepo.MarkSynced(interview.ClientUUID, time.Now()); markErr != nil {
			log.Error().Err(markErr).Str("client_uuid", interview.ClientUUID).Msg("Failed to record sync success")
			continue
		}
		log.Info().Str("client_uuid", interview.ClientUUID).Uint("survey_id", interview.SurveyID).Msg("Interview synced")
	}

	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()
	log.Info().Int("synced", report.Synced).Int("failed", report.Failed).Msg("Sync run finished")
}

func (s *syncService) Running() bool {
	return s.running.Load()
}

func (s *syncService) LastReport() *SyncReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport == nil {
		return nil
	}
	report := *s.lastReport
	return &report
}

// backoff doubles the retry window per recorded failure, capped so a
// long-dead interview is still retried about once an hour.
func (s *syncService) backoff(attempts int) time.Duration {
	delay := s.cfg.Sync.BackoffBase
	if delay <= 0 {
		delay = 30 * time.Second
	}
	ceiling := s.cfg.Sync.BackoffCap
	if ceiling <= 0 {
		ceiling = time.Hour
	}
	for i := 0; i < attempts && delay < ceiling; i++ {
		delay *= 2
	}
	if delay > ceiling {
		delay = ceiling
	}
	return delay
}

func buildPayload(interview *model.Interview) remote.InterviewPayload {
	answers := make([]remote.AnswerPayload, 0, len(interview.Answers))
	for _, answer := range interview.Answers {
		answers = append(answers, remote.AnswerPayload{
			QuestionID:      answer.QuestionID,
			AnswerText:      answer.AnswerText,
			SelectedChoices: []int64(answer.SelectedChoices),
		})
	}
	return remote.InterviewPayload{
		ClientUUID:      interview.ClientUUID,
		SurveyID:        interview.SurveyID,
		InterviewerName: interview.InterviewerName,
		ParticipantName: interview.ParticipantName,
		UpdatedAtLocal:  interview.UpdatedAtLocal.UTC().Format(time.RFC3339),
		DeviceID:        interview.DeviceID,
		AppVersion:      interview.AppVersion,
		Answers:         answers,
	}
}
