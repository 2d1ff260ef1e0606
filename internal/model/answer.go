package model

import "strings"

const (
	// NoAnswerText is stored when the participant skipped the question.
	NoAnswerText = " "
	// UnscoredSentinel marks a record the evaluator has not scored yet.
	UnscoredSentinel = -1
	// CorrectScoreThreshold is the lowest score counted as a correct answer.
	CorrectScoreThreshold = 80
	// AcceptedVariantSeparator joins accepted answer variants.
	AcceptedVariantSeparator = ";"
	// NoAnswerExportText replaces NoAnswerText in exports.
	NoAnswerExportText = "undefined"
)

// swagger:model AnswerRecord
type AnswerRecord struct {
	UUIDBase
	ParticipantID            string `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_participant_location" json:"participantId"`
	LocationID               string `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_participant_location;index" json:"locationId"`
	QuestionText             string `gorm:"type:text" json:"questionText"`
	SubmittedText            string `gorm:"type:text;not null" json:"submittedText"`
	AcceptedAnswerText       string `gorm:"type:text;not null" json:"acceptedAnswerText"`
	EditedOnce               bool   `gorm:"not null" json:"editedOnce"`
	EvaluationScore          int    `gorm:"not null;index" json:"evaluationScore"`
	IsCorrectFinalEvaluation bool   `gorm:"not null" json:"isCorrectFinalEvaluation"`
	ManuallyValidated        bool   `gorm:"not null" json:"manuallyValidated"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}

// AcceptedVariants splits the accepted answer snapshot into its variants.
func (a *AnswerRecord) AcceptedVariants() []string {
	return SplitVariants(a.AcceptedAnswerText)
}

func (a *AnswerRecord) IsScored() bool {
	return a.EvaluationScore != UnscoredSentinel
}

func (a *AnswerRecord) HasAnswer() bool {
	return a.SubmittedText != NoAnswerText
}

// SplitVariants splits a ;-joined accepted answer list, dropping blank entries.
func SplitVariants(text string) []string {
	parts := strings.Split(text, AcceptedVariantSeparator)
	variants := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			variants = append(variants, p)
		}
	}
	return variants
}

func IsCorrectScore(score int) bool {
	return score >= CorrectScoreThreshold
}
