package repository

import (
	"context"
	"fmt"
	"hunt_backend/internal/model"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// HuntStateRepository reads the global hunt status published in Redis by the
// hunt management service.
type HuntStateRepository struct {
	Redis           *redis.Client
	PhaseKey        string
	AnswersReadyKey string
}

func NewHuntStateRepository(rdb *redis.Client, phaseKey, answersReadyKey string) *HuntStateRepository {
	return &HuntStateRepository{Redis: rdb, PhaseKey: phaseKey, AnswersReadyKey: answersReadyKey}
}

// Current returns the hunt state. Missing keys mean the hunt has not started
// and answers are not ready.
func (r *HuntStateRepository) Current(ctx context.Context) (model.HuntState, error) {
	state := model.HuntState{Phase: model.HuntNotStarted}

	vals, err := r.Redis.MGet(ctx, r.PhaseKey, r.AnswersReadyKey).Result()
	if err != nil {
		return state, err
	}

	if raw, ok := vals[0].(string); ok {
		phase, valid := model.ParseHuntPhase(raw)
		if !valid {
			return state, fmt.Errorf("unknown hunt phase %q", raw)
		}
		state.Phase = phase
	}

	if raw, ok := vals[1].(string); ok {
		ready, err := strconv.ParseBool(raw)
		if err != nil {
			return state, fmt.Errorf("invalid answers-ready flag %q: %w", raw, err)
		}
		state.AnswersReady = ready
	}

	return state, nil
}
