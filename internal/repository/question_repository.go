package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lshigami/polls/internal/model"
	"gorm.io/gorm"
)

// QuestionFilter narrows the admin question listing.
type QuestionFilter struct {
	Search          string
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	Offset          int
	Limit           int
}

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByIDWithChoices(ctx context.Context, id uint) (*model.Question, error)
	FindPublished(ctx context.Context, now time.Time, requireFlag bool, offset, limit int) ([]model.Question, error)
	CountPublished(ctx context.Context, now time.Time, requireFlag bool) (int64, error)
	Search(ctx context.Context, filter QuestionFilter) ([]model.Question, int64, error)
	Update(ctx context.Context, question *model.Question) error
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

// Published restricts a query to questions end users may see.
func Published(now time.Time, requireFlag bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("questions.pub_date <= ?", now)
		if requireFlag {
			db = db.Where("questions.published = ?", true)
		}
		return db
	}
}

func orderedChoices(db *gorm.DB) *gorm.DB {
	return db.Order("choices.id ASC")
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	// GORM creates the inline choices along with the question
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByIDWithChoices(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).Preload("Choices", orderedChoices).First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindPublished(ctx context.Context, now time.Time, requireFlag bool, offset, limit int) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Scopes(Published(now, requireFlag)).
		Order("questions.pub_date DESC").
		Order("questions.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) CountPublished(ctx context.Context, now time.Time, requireFlag bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Scopes(Published(now, requireFlag)).
		Count(&count).Error
	return count, err
}

func (r *questionRepository) Search(ctx context.Context, filter QuestionFilter) ([]model.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Question{})
	if filter.Search != "" {
		query = query.Where("LOWER(questions.question_text) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.PublishedAfter != nil {
		query = query.Where("questions.pub_date >= ?", filter.PublishedAfter.UTC())
	}
	if filter.PublishedBefore != nil {
		query = query.Where("questions.pub_date <= ?", filter.PublishedBefore.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	var questions []model.Question
	err := query.
		Preload("Choices", orderedChoices).
		Order("questions.pub_date DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&questions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	return questions, total, nil
}

// Update writes the editable question fields only; choices are managed
// through ChoiceRepository.
func (r *questionRepository) Update(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Model(question).
		Select("QuestionText", "PubDate", "Published", "UpdatedAt").
		Updates(question).Error
}

// Delete removes a question and every choice it owns.
func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Choice{}).Error; err != nil {
			return fmt.Errorf("delete choices of question %d: %w", id, err)
		}
		res := tx.Delete(&model.Question{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete question %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
