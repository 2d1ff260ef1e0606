package service

import (
	"context"
	"errors"
	"hunt_backend/internal/util"
	"hunt_backend/pkg/logger"
	"hunt_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EvaluationQueue scores edited answers in the background so the edit
// request can return before the evaluator answers.
type EvaluationQueue struct {
	scorer  *Scorer
	tasks   chan string
	workers int

	mu           sync.RWMutex
	maxAttempts  int
	retryBackoff time.Duration

	// stopMu guards stopped and the close of tasks against concurrent sends.
	stopMu  sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewEvaluationQueue(scorer *Scorer, workers, queueSize, maxAttempts int, retryBackoff time.Duration) *EvaluationQueue {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &EvaluationQueue{
		scorer:       scorer,
		tasks:        make(chan string, queueSize),
		workers:      workers,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
	}
}

// SetRetryPolicy changes the retry settings for tasks picked up afterwards.
func (q *EvaluationQueue) SetRetryPolicy(maxAttempts int, retryBackoff time.Duration) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	q.mu.Lock()
	q.maxAttempts = maxAttempts
	q.retryBackoff = retryBackoff
	q.mu.Unlock()
}

func (q *EvaluationQueue) retryPolicy() (int, time.Duration) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.maxAttempts, q.retryBackoff
}

func (q *EvaluationQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		ctx, q.cancel = context.WithCancel(ctx)
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
		logger.Log.Info("Evaluation queue started", zap.Int("workers", q.workers))
	})
}

// Enqueue schedules an answer for scoring. It never blocks; when the queue is
// full or stopped the task is dropped and the sweep picks the answer up later.
func (q *EvaluationQueue) Enqueue(answerID string) bool {
	q.stopMu.RLock()
	defer q.stopMu.RUnlock()
	if q.stopped {
		return false
	}

	monitoring.EvaluationQueueDepth.Inc()
	select {
	case q.tasks <- answerID:
		return true
	default:
		monitoring.EvaluationQueueDepth.Dec()
		logger.Log.Warn("Evaluation queue full, leaving answer for the sweep", zap.String("answer_id", answerID))
		return false
	}
}

// Stop refuses new tasks and waits for the queued ones to finish. If ctx ends
// first it cancels the workers and returns ctx's error; answers not yet
// scored stay unscored for the sweep.
func (q *EvaluationQueue) Stop(ctx context.Context) error {
	var err error
	q.stopOnce.Do(func() {
		q.Start(context.Background())

		q.stopMu.Lock()
		q.stopped = true
		close(q.tasks)
		q.stopMu.Unlock()

		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			logger.Log.Warn("Evaluation queue drain cut short, leaving pending answers for the sweep",
				zap.Int("pending", len(q.tasks)),
				zap.Error(err))
			q.cancel()
			<-done
		}
		q.cancel()
		logger.Log.Info("Evaluation queue stopped")
	})
	return err
}

func (q *EvaluationQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for answerID := range q.tasks {
		monitoring.EvaluationQueueDepth.Dec()
		if ctx.Err() != nil {
			continue
		}
		q.process(ctx, answerID)
	}
}

func (q *EvaluationQueue) process(ctx context.Context, answerID string) {
	maxAttempts, backoff := q.retryPolicy()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := q.scorer.ScoreByID(ctx, answerID, SourceEdit)
		if err == nil {
			return
		}
		if !errors.Is(err, util.ErrEvaluatorUnavailable) || attempt == maxAttempts {
			logger.Log.Warn("Answer evaluation failed, leaving it for the sweep",
				zap.String("answer_id", answerID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
}
