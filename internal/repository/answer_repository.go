package repository

import (
	"context"
	"errors"
	"hunt_backend/internal/model"
	"hunt_backend/internal/util"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// AnswerEdit carries the fields a participant may change with their one edit.
// Nil fields are left untouched.
type AnswerEdit struct {
	SubmittedText *string
	QuestionText  *string
}

// UnscoredPending matches answers that were never scored successfully.
func UnscoredPending(db *gorm.DB) *gorm.DB {
	return db.Where("evaluation_score = ? AND submitted_text <> ?", model.UnscoredSentinel, model.NoAnswerText)
}

// AmbiguouslyScored matches answers whose score falls in [min, max).
func AmbiguouslyScored(min, max int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("evaluation_score >= ? AND evaluation_score < ? AND submitted_text <> ?", min, max, model.NoAnswerText)
	}
}

func (r *AnswerRepository) Create(ctx context.Context, answer *model.AnswerRecord) error {
	err := r.DB.WithContext(ctx).Create(answer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAnswerExists
	}
	return err
}

func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*model.AnswerRecord, error) {
	var answer model.AnswerRecord
	err := r.DB.WithContext(ctx).First(&answer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) FindByParticipantAndLocation(ctx context.Context, participantID, locationID string) (*model.AnswerRecord, error) {
	var answer model.AnswerRecord
	err := r.DB.WithContext(ctx).
		Where("participant_id = ? AND location_id = ?", participantID, locationID).
		First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) ListByParticipant(ctx context.Context, participantID string) ([]model.AnswerRecord, error) {
	var answers []model.AnswerRecord
	err := r.DB.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at asc").
		Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) ListByLocation(ctx context.Context, locationID string) ([]model.AnswerRecord, error) {
	var answers []model.AnswerRecord
	err := r.DB.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("created_at asc").
		Find(&answers).Error
	return answers, err
}

// CountByParticipant returns how many answers the participant has and how
// many of them were evaluated as correct.
func (r *AnswerRepository) CountByParticipant(ctx context.Context, participantID string) (total, correct int64, err error) {
	base := r.DB.WithContext(ctx).Model(&model.AnswerRecord{}).Where("participant_id = ?", participantID)
	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = base.Session(&gorm.Session{}).Where("is_correct_final_evaluation = ?", true).Count(&correct).Error
	return total, correct, err
}

// ConsumeEdit applies edit and sets edited_once in a single conditional
// update. The score is reset because it no longer matches the text. It
// reports false when the record was already edited (or is not the
// participant's), leaving the row untouched.
func (r *AnswerRepository) ConsumeEdit(ctx context.Context, id, participantID string, edit AnswerEdit) (bool, error) {
	updates := map[string]interface{}{
		"edited_once":                 true,
		"evaluation_score":            model.UnscoredSentinel,
		"is_correct_final_evaluation": false,
	}
	if edit.SubmittedText != nil {
		updates["submitted_text"] = *edit.SubmittedText
	}
	if edit.QuestionText != nil {
		updates["question_text"] = *edit.QuestionText
	}

	result := r.DB.WithContext(ctx).
		Model(&model.AnswerRecord{}).
		Where("id = ? AND participant_id = ? AND edited_once = ?", id, participantID, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ApplyScore stores score only if the record still holds scoredText, so a
// score is never attached to text it was not computed for.
func (r *AnswerRepository) ApplyScore(ctx context.Context, id, scoredText string, score int) (bool, error) {
	result := r.DB.WithContext(ctx).
		Model(&model.AnswerRecord{}).
		Where("id = ? AND submitted_text = ?", id, scoredText).
		Updates(map[string]interface{}{
			"evaluation_score":            score,
			"is_correct_final_evaluation": model.IsCorrectScore(score),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *AnswerRepository) SetManualValidation(ctx context.Context, id string, valid bool) (*model.AnswerRecord, error) {
	answer, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Model(answer).
		Update("manually_validated", valid).Error; err != nil {
		return nil, err
	}
	answer.ManuallyValidated = valid
	return answer, nil
}

func (r *AnswerRepository) FindUnscoredPending(ctx context.Context) ([]model.AnswerRecord, error) {
	var answers []model.AnswerRecord
	err := r.DB.WithContext(ctx).Scopes(UnscoredPending).Order("created_at asc").Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) FindAmbiguouslyScored(ctx context.Context, min, max int) ([]model.AnswerRecord, error) {
	var answers []model.AnswerRecord
	err := r.DB.WithContext(ctx).Scopes(AmbiguouslyScored(min, max)).Order("created_at asc").Find(&answers).Error
	return answers, err
}
