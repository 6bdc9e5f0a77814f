package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/model"
	"github.com/lshigami/polls/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminPageSize matches the page size of the admin change list.
const AdminPageSize = 100

type AdminPollService interface {
	ListQuestions(ctx context.Context, query dto.QuestionQueryDTO) (*dto.AdminQuestionListDTO, error)
	CreateQuestion(ctx context.Context, req dto.QuestionCreateDTO) (*dto.QuestionDTO, error)
	GetQuestion(ctx context.Context, id uint) (*dto.QuestionDTO, error)
	UpdateQuestion(ctx context.Context, id uint, req dto.QuestionUpdateDTO) (*dto.QuestionDTO, error)
	DeleteQuestion(ctx context.Context, id uint) error
	AddChoice(ctx context.Context, questionID uint, req dto.ChoiceCreateDTO) (*dto.ChoiceDTO, error)
	DeleteChoice(ctx context.Context, id uint) error
}

type adminPollService struct {
	questionRepo repository.QuestionRepository
	choiceRepo   repository.ChoiceRepository
	now          Clock
}

func NewAdminPollService(questionRepo repository.QuestionRepository, choiceRepo repository.ChoiceRepository, now Clock) AdminPollService {
	return &adminPollService{questionRepo: questionRepo, choiceRepo: choiceRepo, now: now}
}

func (s *adminPollService) ListQuestions(ctx context.Context, query dto.QuestionQueryDTO) (*dto.AdminQuestionListDTO, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}

	questions, total, err := s.questionRepo.Search(ctx, repository.QuestionFilter{
		Search:          query.Search,
		PublishedAfter:  query.PublishedAfter,
		PublishedBefore: query.PublishedBefore,
		Offset:          (page - 1) * AdminPageSize,
		Limit:           AdminPageSize,
	})
	if err != nil {
		log.Error().Err(err).Str("search", query.Search).Msg("Admin ListQuestions: repository error")
		return nil, fmt.Errorf("error listing questions: %w", err)
	}

	items, err := toQuestionDTOs(questions, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.AdminQuestionListDTO{Items: items, Total: total, Page: page, PageSize: AdminPageSize}, nil
}

func (s *adminPollService) CreateQuestion(ctx context.Context, req dto.QuestionCreateDTO) (*dto.QuestionDTO, error) {
	question := model.Question{
		QuestionText: req.QuestionText,
		Published:    req.Published,
		PubDate:      s.now(),
	}
	if req.PubDate != nil {
		question.PubDate = req.PubDate.UTC()
	}
	for _, c := range req.Choices {
		var choice model.Choice
		if err := copier.Copy(&choice, &c); err != nil {
			return nil, fmt.Errorf("error preparing choice: %w", err)
		}
		question.Choices = append(question.Choices, choice)
	}

	if err := s.questionRepo.Create(ctx, &question); err != nil {
		log.Error().Err(err).Msg("Failed to create question in database")
		return nil, fmt.Errorf("database error creating question: %w", err)
	}
	log.Info().Uint("questionID", question.ID).Int("choices", len(question.Choices)).Msg("Question created")

	return s.GetQuestion(ctx, question.ID)
}

func (s *adminPollService) GetQuestion(ctx context.Context, id uint) (*dto.QuestionDTO, error) {
	question, err := s.questionRepo.FindByIDWithChoices(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error loading question %d: %w", id, err)
	}
	return toQuestionDTO(question, s.now())
}

func (s *adminPollService) UpdateQuestion(ctx context.Context, id uint, req dto.QuestionUpdateDTO) (*dto.QuestionDTO, error) {
	question, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error loading question %d: %w", id, err)
	}

	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.PubDate != nil {
		question.PubDate = req.PubDate.UTC()
	}
	if req.Published != nil {
		question.Published = *req.Published
	}

	if err := s.questionRepo.Update(ctx, question); err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("Failed to update question")
		return nil, fmt.Errorf("database error updating question: %w", err)
	}
	return s.GetQuestion(ctx, id)
}

func (s *adminPollService) DeleteQuestion(ctx context.Context, id uint) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		log.Error().Err(err).Uint("questionID", id).Msg("Failed to delete question")
		return err
	}
	log.Info().Uint("questionID", id).Msg("Question deleted with its choices")
	return nil
}

func (s *adminPollService) AddChoice(ctx context.Context, questionID uint, req dto.ChoiceCreateDTO) (*dto.ChoiceDTO, error) {
	if _, err := s.questionRepo.FindByID(ctx, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error loading question %d: %w", questionID, err)
	}

	choice := model.Choice{QuestionID: questionID, ChoiceText: req.ChoiceText, Votes: req.Votes}
	if err := s.choiceRepo.Create(ctx, &choice); err != nil {
		log.Error().Err(err).Uint("questionID", questionID).Msg("Failed to create choice")
		return nil, fmt.Errorf("database error creating choice: %w", err)
	}

	var resp dto.ChoiceDTO
	if err := copier.Copy(&resp, &choice); err != nil {
		return nil, fmt.Errorf("error preparing choice: %w", err)
	}
	return &resp, nil
}

func (s *adminPollService) DeleteChoice(ctx context.Context, id uint) error {
	if err := s.choiceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChoiceNotFound
		}
		log.Error().Err(err).Uint("choiceID", id).Msg("Failed to delete choice")
		return err
	}
	return nil
}
