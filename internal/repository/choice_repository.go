package repository

import (
	"context"

	"github.com/lshigami/polls/internal/model"
	"gorm.io/gorm"
)

type ChoiceRepository interface {
	Create(ctx context.Context, choice *model.Choice) error
	IncrementVotes(ctx context.Context, questionID, choiceID uint) error
	Delete(ctx context.Context, id uint) error
}

type choiceRepository struct {
	db *gorm.DB
}

func NewChoiceRepository(db *gorm.DB) ChoiceRepository {
	return &choiceRepository{db: db}
}

func (r *choiceRepository) Create(ctx context.Context, choice *model.Choice) error {
	return r.db.WithContext(ctx).Create(choice).Error
}

// IncrementVotes adds one vote in a single UPDATE so concurrent voters
// never overwrite each other. Returns gorm.ErrRecordNotFound when the
// choice does not belong to the question.
func (r *choiceRepository) IncrementVotes(ctx context.Context, questionID, choiceID uint) error {
	res := r.db.WithContext(ctx).Model(&model.Choice{}).
		Where("id = ? AND question_id = ?", choiceID, questionID).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *choiceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Choice{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
