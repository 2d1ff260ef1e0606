package repository

import (
	"context"
	"hunt_backend/internal/model"

	"gorm.io/gorm"
)

// ExportRow is one finalized answer joined with its participant and location.
type ExportRow struct {
	FirstName          string
	LastName           string
	Town               string
	LocationName       string
	QuestionText       string
	AcceptedAnswerText string
	SubmittedText      string
	EvaluationScore    int
}

type ExportRepository struct {
	DB *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{DB: db}
}

// ListFinalized returns answers that will not change any more: scored ones and
// those stored without an answer. Answers whose participant or location is
// gone are left out by the inner joins.
func (r *ExportRepository) ListFinalized(ctx context.Context) ([]ExportRow, error) {
	var rows []ExportRow
	err := r.DB.WithContext(ctx).
		Table("answer_records a").
		Select("u.first_name, u.last_name, u.town, l.name AS location_name, " +
			"a.question_text, a.accepted_answer_text, a.submitted_text, a.evaluation_score").
		Joins("JOIN users u ON u.id = a.participant_id").
		Joins("JOIN locations l ON l.id = a.location_id").
		Where("a.evaluation_score <> ? OR a.submitted_text = ?", model.UnscoredSentinel, model.NoAnswerText).
		Order("a.created_at asc").
		Scan(&rows).Error
	return rows, err
}
