package service

import (
	"context"
	"fmt"
	"hunt_backend/internal/model"
	"hunt_backend/internal/repository"
	"hunt_backend/internal/util"
	"hunt_backend/pkg/logger"
	"hunt_backend/pkg/monitoring"
	"hunt_backend/pkg/tracing"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SweepLocker keeps sweeps on different instances from overlapping. A run
// refreshes its lock before every candidate and stops once Refresh fails.
type SweepLocker interface {
	TryLock(ctx context.Context) (string, bool, error)
	Refresh(ctx context.Context, token string) error
	Unlock(ctx context.Context, token string) error
}

type SweepSettings struct {
	Throttle     time.Duration
	AmbiguousMin int
	AmbiguousMax int
}

type SweepReport struct {
	Candidates int           `json:"candidates"`
	Evaluated  int           `json:"evaluated"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// SweepService re-scores answers left unscored or scored inside the
// ambiguous band, one at a time, waiting Throttle after each evaluator call
// returns before starting the next one.
type SweepService struct {
	AnswerRepo *repository.AnswerRepository
	Scorer     *Scorer
	Locker     SweepLocker

	settings atomic.Pointer[SweepSettings]
	running  atomic.Bool
}

// NewSweepService takes a nil locker for single-instance deployments.
func NewSweepService(answerRepo *repository.AnswerRepository, scorer *Scorer, locker SweepLocker, settings SweepSettings) *SweepService {
	s := &SweepService{AnswerRepo: answerRepo, Scorer: scorer, Locker: locker}
	s.Configure(settings)
	return s
}

// Configure replaces the settings used by the next run.
func (s *SweepService) Configure(settings SweepSettings) {
	s.settings.Store(&settings)
}

func (s *SweepService) Settings() SweepSettings {
	return *s.settings.Load()
}

// Candidates lists unscored answers followed by ambiguously scored ones.
func (s *SweepService) Candidates(ctx context.Context, settings SweepSettings) ([]model.AnswerRecord, error) {
	unscored, err := s.AnswerRepo.FindUnscoredPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("find unscored answers: %w", err)
	}
	ambiguous, err := s.AnswerRepo.FindAmbiguouslyScored(ctx, settings.AmbiguousMin, settings.AmbiguousMax)
	if err != nil {
		return nil, fmt.Errorf("find ambiguous answers: %w", err)
	}
	return append(unscored, ambiguous...), nil
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run performs one sweep. It returns util.ErrSweepInProgress when another
// run holds the guard. A cancelled ctx stops the run between candidates and
// the partial report is returned with the context error.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		monitoring.SweepRuns.WithLabelValues("overlapped").Inc()
		return nil, util.ErrSweepInProgress
	}
	defer s.running.Store(false)

	var token string
	if s.Locker != nil {
		var ok bool
		var err error
		token, ok, err = s.Locker.TryLock(ctx)
		if err != nil {
			monitoring.SweepRuns.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			monitoring.SweepRuns.WithLabelValues("overlapped").Inc()
			return nil, util.ErrSweepInProgress
		}
		defer func() {
			if err := s.Locker.Unlock(context.Background(), token); err != nil {
				logger.Log.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	ctx, span := tracing.Tracer.Start(ctx, "answer.sweep")
	defer span.End()

	start := time.Now()
	settings := s.Settings()
	report := &SweepReport{}

	candidates, err := s.Candidates(ctx, settings)
	if err != nil {
		monitoring.SweepRuns.WithLabelValues("failed").Inc()
		span.RecordError(err)
		return nil, err
	}
	report.Candidates = len(candidates)
	logger.Log.Info("Sweep started",
		zap.Int("candidates", len(candidates)),
		zap.Duration("throttle", settings.Throttle))

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return s.finish(report, start, span, err)
		}
		if s.Locker != nil {
			if err := s.Locker.Refresh(ctx, token); err != nil {
				logger.Log.Warn("Sweep lost its lock, stopping", zap.Error(err))
				return s.finish(report, start, span, fmt.Errorf("refresh sweep lock: %w", err))
			}
		}

		applied, err := s.Scorer.Score(ctx, &candidates[i], SourceSweep)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return s.finish(report, start, span, ctx.Err())
			}
			report.Failed++
			logger.Log.Warn("Sweep failed to evaluate answer",
				zap.String("answer_id", candidates[i].ID),
				zap.Error(err))
		case applied:
			report.Evaluated++
		default:
			report.Skipped++
		}

		if i < len(candidates)-1 {
			if err := pause(ctx, settings.Throttle); err != nil {
				return s.finish(report, start, span, err)
			}
		}
	}

	return s.finish(report, start, span, nil)
}

func (s *SweepService) finish(report *SweepReport, start time.Time, span trace.Span, err error) (*SweepReport, error) {
	report.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("sweep.candidates", report.Candidates),
		attribute.Int("sweep.evaluated", report.Evaluated),
		attribute.Int("sweep.failed", report.Failed),
	)
	monitoring.SweepEvaluated.Add(float64(report.Evaluated))

	result := "completed"
	if err != nil {
		result = "interrupted"
	}
	monitoring.SweepRuns.WithLabelValues(result).Inc()

	logger.Log.Info("Sweep finished",
		zap.String("result", result),
		zap.Int("candidates", report.Candidates),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration))
	return report, err
}
