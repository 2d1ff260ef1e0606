package service

import (
	"hunt_backend/internal/model"
	"time"
)

// AnswerView is an answer as its author sees it. Evaluation fields stay nil
// until the hunt has ended and answers are marked ready.
type AnswerView struct {
	ID                       string    `json:"id"`
	ParticipantID            string    `json:"participantId"`
	LocationID               string    `json:"locationId"`
	QuestionText             string    `json:"questionText"`
	SubmittedText            string    `json:"submittedText"`
	EditedOnce               bool      `json:"editedOnce"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
	AcceptedAnswerText       *string   `json:"acceptedAnswerText,omitempty"`
	EvaluationScore          *int      `json:"evaluationScore,omitempty"`
	IsCorrectFinalEvaluation *bool     `json:"isCorrectFinalEvaluation,omitempty"`
	ManuallyValidated        *bool     `json:"manuallyValidated,omitempty"`
}

func ProjectAnswer(answer model.AnswerRecord, state model.HuntState) AnswerView {
	view := AnswerView{
		ID:            answer.ID,
		ParticipantID: answer.ParticipantID,
		LocationID:    answer.LocationID,
		QuestionText:  answer.QuestionText,
		SubmittedText: answer.SubmittedText,
		EditedOnce:    answer.EditedOnce,
		CreatedAt:     answer.CreatedAt,
		UpdatedAt:     answer.UpdatedAt,
	}
	if !state.ResultsVisible() {
		return view
	}

	accepted := answer.AcceptedAnswerText
	score := answer.EvaluationScore
	correct := answer.IsCorrectFinalEvaluation
	validated := answer.ManuallyValidated
	view.AcceptedAnswerText = &accepted
	view.EvaluationScore = &score
	view.IsCorrectFinalEvaluation = &correct
	view.ManuallyValidated = &validated
	return view
}

func ProjectAnswers(answers []model.AnswerRecord, state model.HuntState) []AnswerView {
	views := make([]AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, ProjectAnswer(a, state))
	}
	return views
}
