package service

import (
	"context"
	"errors"
	"fmt"
	"hunt_backend/internal/model"
	"hunt_backend/internal/repository"
	"hunt_backend/internal/util"
	"hunt_backend/pkg/logger"
	"hunt_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// Evaluation sources, used as metric labels.
const (
	SourceEdit  = "edit"
	SourceSweep = "sweep"
)

// Scorer evaluates one answer and stores the score if the answer text has
// not changed while the evaluator was working.
type Scorer struct {
	Repo      *repository.AnswerRepository
	Evaluator Evaluator
}

func NewScorer(repo *repository.AnswerRepository, evaluator Evaluator) *Scorer {
	return &Scorer{Repo: repo, Evaluator: evaluator}
}

// Score returns applied=false without error when the answer has no text or
// the stored text moved on before the score could be written.
func (s *Scorer) Score(ctx context.Context, answer *model.AnswerRecord, source string) (bool, error) {
	if !answer.HasAnswer() {
		monitoring.EvaluationCounter.WithLabelValues(source, "skipped").Inc()
		return false, nil
	}

	score, err := s.Evaluator.Evaluate(ctx, answer.SubmittedText, answer.AcceptedVariants())
	if err != nil {
		monitoring.EvaluationCounter.WithLabelValues(source, "failed").Inc()
		if !errors.Is(err, util.ErrEvaluatorUnavailable) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", util.ErrEvaluatorUnavailable, err)
		}
		return false, fmt.Errorf("evaluate answer %s: %w", answer.ID, err)
	}
	if score < 0 || score > 100 {
		monitoring.EvaluationCounter.WithLabelValues(source, "failed").Inc()
		return false, fmt.Errorf("evaluate answer %s: %w: score %d out of range", answer.ID, util.ErrEvaluatorUnavailable, score)
	}

	applied, err := s.Repo.ApplyScore(ctx, answer.ID, answer.SubmittedText, score)
	if err != nil {
		monitoring.EvaluationCounter.WithLabelValues(source, "failed").Inc()
		return false, fmt.Errorf("store score for answer %s: %w", answer.ID, err)
	}
	if !applied {
		monitoring.EvaluationCounter.WithLabelValues(source, "stale").Inc()
		logger.Log.Info("Discarded stale score",
			zap.String("answer_id", answer.ID),
			zap.String("source", source))
		return false, nil
	}

	monitoring.EvaluationCounter.WithLabelValues(source, "applied").Inc()
	answer.EvaluationScore = score
	answer.IsCorrectFinalEvaluation = model.IsCorrectScore(score)
	logger.Log.Debug("Answer scored",
		zap.String("answer_id", answer.ID),
		zap.String("source", source),
		zap.Int("score", score))
	return true, nil
}

// ScoreByID reloads the answer first; already scored answers are left alone.
func (s *Scorer) ScoreByID(ctx context.Context, answerID, source string) (bool, error) {
	answer, err := s.Repo.FindByID(ctx, answerID)
	if err != nil {
		return false, err
	}
	if answer.IsScored() {
		return false, nil
	}
	return s.Score(ctx, answer, source)
}
