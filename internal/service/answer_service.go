package service

import (
	"context"
	"errors"
	"fmt"
	"hunt_backend/internal/model"
	"hunt_backend/internal/repository"
	"hunt_backend/internal/util"
	"hunt_backend/pkg/logger"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HuntStateProvider supplies the global hunt phase and answers-ready flag.
type HuntStateProvider interface {
	Current(ctx context.Context) (model.HuntState, error)
}

// EvaluationScheduler accepts answers to be scored in the background.
type EvaluationScheduler interface {
	Enqueue(answerID string) bool
}

type AnswerService struct {
	AnswerRepo   *repository.AnswerRepository
	LocationRepo *repository.LocationRepository
	Hunt         HuntStateProvider
	Scheduler    EvaluationScheduler
	EditWindow   time.Duration
	Now          func() time.Time
}

func NewAnswerService(
	answerRepo *repository.AnswerRepository,
	locationRepo *repository.LocationRepository,
	hunt HuntStateProvider,
	scheduler EvaluationScheduler,
	editWindow time.Duration,
) *AnswerService {
	return &AnswerService{
		AnswerRepo:   answerRepo,
		LocationRepo: locationRepo,
		Hunt:         hunt,
		Scheduler:    scheduler,
		EditWindow:   editWindow,
		Now:          time.Now,
	}
}

type SubmitAnswerRequest struct {
	LocationID    string `json:"locationId" binding:"required"`
	QuestionText  string `json:"question"`
	SubmittedText string `json:"answer"`
}

// AnswerStats is a participant's answer count; NumberOfCorrectAnswers is nil
// while results are hidden.
type AnswerStats struct {
	NumberOfAnswers        int64  `json:"numberOfAnswers"`
	NumberOfCorrectAnswers *int64 `json:"numberOfCorrectAnswers"`
}

// Accepted keys of an edit request. The short forms are what the hunt client sends.
var editFieldAliases = map[string]string{
	"submittedText": "submittedText",
	"answer":        "submittedText",
	"questionText":  "questionText",
	"question":      "questionText",
}

// ParseAnswerEdit validates a raw edit payload against the allow-list.
func ParseAnswerEdit(fields map[string]interface{}) (repository.AnswerEdit, error) {
	var edit repository.AnswerEdit
	if len(fields) == 0 {
		return edit, fmt.Errorf("%w: no fields to update", util.ErrInvalidInput)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		target, ok := editFieldAliases[key]
		if !ok {
			return edit, fmt.Errorf("%w: field %q cannot be updated", util.ErrInvalidInput, key)
		}
		value, ok := fields[key].(string)
		if !ok {
			return edit, fmt.Errorf("%w: field %q must be a string", util.ErrInvalidInput, key)
		}
		switch target {
		case "submittedText":
			if edit.SubmittedText != nil {
				return edit, fmt.Errorf("%w: answer given twice", util.ErrInvalidInput)
			}
			edit.SubmittedText = &value
		case "questionText":
			if edit.QuestionText != nil {
				return edit, fmt.Errorf("%w: question given twice", util.ErrInvalidInput)
			}
			edit.QuestionText = &value
		}
	}
	return edit, nil
}

// normalizeSubmittedText maps an empty answer to the no-answer sentinel.
func normalizeSubmittedText(text string) string {
	if strings.TrimSpace(text) == "" {
		return model.NoAnswerText
	}
	return text
}

func (s *AnswerService) SubmitAnswer(ctx context.Context, participantID string, req SubmitAnswerRequest) (*model.AnswerRecord, error) {
	if !model.IsValidID(participantID) {
		return nil, fmt.Errorf("%w: malformed participant id", util.ErrInvalidInput)
	}
	if !model.IsValidID(req.LocationID) {
		return nil, fmt.Errorf("%w: malformed location id", util.ErrInvalidInput)
	}

	_, err := s.AnswerRepo.FindByParticipantAndLocation(ctx, participantID, req.LocationID)
	if err == nil {
		return nil, util.ErrAnswerExists
	}
	if !errors.Is(err, util.ErrAnswerNotFound) {
		return nil, err
	}

	location, err := s.LocationRepo.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	answer := &model.AnswerRecord{
		ParticipantID:      participantID,
		LocationID:         location.ID,
		QuestionText:       req.QuestionText,
		SubmittedText:      normalizeSubmittedText(req.SubmittedText),
		AcceptedAnswerText: location.Answer,
		EvaluationScore:    model.UnscoredSentinel,
	}
	if err := s.AnswerRepo.Create(ctx, answer); err != nil {
		return nil, err
	}

	logger.Log.Info("Answer submitted",
		zap.String("answer_id", answer.ID),
		zap.String("participant_id", participantID),
		zap.String("location_id", location.ID))
	return answer, nil
}

// EditAnswer applies the participant's single edit and schedules scoring.
// It returns as soon as the edit is stored.
func (s *AnswerService) EditAnswer(ctx context.Context, participantID, answerID string, edit repository.AnswerEdit) (*model.AnswerRecord, error) {
	if !model.IsValidID(answerID) {
		return nil, fmt.Errorf("%w: malformed answer id", util.ErrInvalidInput)
	}
	if edit.SubmittedText == nil && edit.QuestionText == nil {
		return nil, fmt.Errorf("%w: no fields to update", util.ErrInvalidInput)
	}
	if edit.SubmittedText != nil {
		text := normalizeSubmittedText(*edit.SubmittedText)
		edit.SubmittedText = &text
	}

	answer, err := s.AnswerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer.ParticipantID != participantID {
		return nil, util.ErrAnswerNotFound
	}
	if answer.EditedOnce {
		return nil, util.ErrAnswerAlreadyModified
	}
	now := s.Now()
	if now.Sub(answer.CreatedAt) > s.EditWindow {
		return nil, util.ErrEditWindowClosed
	}

	ok, err := s.AnswerRepo.ConsumeEdit(ctx, answer.ID, participantID, edit)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrAnswerAlreadyModified
	}

	if edit.SubmittedText != nil {
		answer.SubmittedText = *edit.SubmittedText
	}
	if edit.QuestionText != nil {
		answer.QuestionText = *edit.QuestionText
	}
	answer.EditedOnce = true
	answer.EvaluationScore = model.UnscoredSentinel
	answer.IsCorrectFinalEvaluation = false
	answer.UpdatedAt = now

	if answer.HasAnswer() && !s.Scheduler.Enqueue(answer.ID) {
		logger.Log.Warn("Evaluation not scheduled", zap.String("answer_id", answer.ID))
	}

	logger.Log.Info("Answer edited",
		zap.String("answer_id", answer.ID),
		zap.String("participant_id", participantID))
	return answer, nil
}

// HuntState returns the current hunt state, or the hidden state when it
// cannot be read.
func (s *AnswerService) HuntState(ctx context.Context) model.HuntState {
	state, err := s.Hunt.Current(ctx)
	if err != nil {
		logger.Log.Warn("Hunt state unavailable, hiding results", zap.Error(err))
		return model.HuntState{Phase: model.HuntNotStarted}
	}
	return state
}

func (s *AnswerService) View(ctx context.Context, answer *model.AnswerRecord) AnswerView {
	return ProjectAnswer(*answer, s.HuntState(ctx))
}

func (s *AnswerService) ListOwnAnswers(ctx context.Context, participantID string) ([]AnswerView, error) {
	answers, err := s.AnswerRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	return ProjectAnswers(answers, s.HuntState(ctx)), nil
}

func (s *AnswerService) GetOwnAnswerForLocation(ctx context.Context, participantID, locationID string) (*AnswerView, error) {
	if !model.IsValidID(locationID) {
		return nil, fmt.Errorf("%w: malformed location id", util.ErrInvalidInput)
	}
	answer, err := s.AnswerRepo.FindByParticipantAndLocation(ctx, participantID, locationID)
	if err != nil {
		return nil, err
	}
	view := s.View(ctx, answer)
	return &view, nil
}

func (s *AnswerService) Stats(ctx context.Context, participantID string) (*AnswerStats, error) {
	total, correct, err := s.AnswerRepo.CountByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	stats := &AnswerStats{NumberOfAnswers: total}
	if s.HuntState(ctx).ResultsVisible() {
		stats.NumberOfCorrectAnswers = &correct
	}
	return stats, nil
}

// ListByLocation is the reviewer listing; records are returned unprojected.
func (s *AnswerService) ListByLocation(ctx context.Context, locationID string) ([]model.AnswerRecord, error) {
	if !model.IsValidID(locationID) {
		return nil, fmt.Errorf("%w: malformed location id", util.ErrInvalidInput)
	}
	return s.AnswerRepo.ListByLocation(ctx, locationID)
}

// SetValidity records a reviewer's override. It does not touch the edit lock
// or the automatic score.
func (s *AnswerService) SetValidity(ctx context.Context, answerID string, valid bool) (*model.AnswerRecord, error) {
	if !model.IsValidID(answerID) {
		return nil, fmt.Errorf("%w: malformed answer id", util.ErrInvalidInput)
	}
	answer, err := s.AnswerRepo.SetManualValidation(ctx, answerID, valid)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Answer validity set", zap.String("answer_id", answerID), zap.Bool("valid", valid))
	return answer, nil
}
