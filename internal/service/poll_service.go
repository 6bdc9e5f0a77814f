package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/model"
	"github.com/lshigami/polls/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type PollService interface {
	ListQuestions(ctx context.Context, page string) (*dto.QuestionListDTO, error)
	GetQuestion(ctx context.Context, id uint) (*dto.QuestionDTO, error)
	// Vote returns the question alongside ErrInvalidChoice so the caller
	// can re-render the voting form.
	Vote(ctx context.Context, questionID uint, choice string) (*dto.QuestionDTO, error)
	GetResults(ctx context.Context, id uint) (*dto.QuestionDTO, error)
}

type pollService struct {
	questionRepo repository.QuestionRepository
	choiceRepo   repository.ChoiceRepository
	cfg          config.Polls
	now          Clock
}

func NewPollService(questionRepo repository.QuestionRepository, choiceRepo repository.ChoiceRepository, cfg *config.Config, now Clock) PollService {
	return &pollService{
		questionRepo: questionRepo,
		choiceRepo:   choiceRepo,
		cfg:          cfg.Polls,
		now:          now,
	}
}

func (s *pollService) ListQuestions(ctx context.Context, page string) (*dto.QuestionListDTO, error) {
	now := s.now()

	total, err := s.questionRepo.CountPublished(ctx, now, s.cfg.RequirePublishedFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count published questions")
		return nil, fmt.Errorf("error counting questions: %w", err)
	}

	p, err := paginate(page, total, s.cfg.PageSize)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.FindPublished(ctx, now, s.cfg.RequirePublishedFlag, (p.Number-1)*s.cfg.PageSize, s.cfg.PageSize)
	if err != nil {
		log.Error().Err(err).Int("page", p.Number).Msg("Failed to list published questions")
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}

	items, err := toQuestionDTOs(questions, now)
	if err != nil {
		return nil, err
	}

	return &dto.QuestionListDTO{
		Questions: items,
		Stats: []component.Stat{
			{Label: "Published", Value: total},
			{Label: "Total questions", Value: int64(len(items))},
		},
		Page: p,
	}, nil
}

func (s *pollService) GetQuestion(ctx context.Context, id uint) (*dto.QuestionDTO, error) {
	question, err := s.findWithChoices(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !question.IsVisible(now, s.cfg.RequirePublishedFlag) {
		log.Info().Uint("questionID", id).Time("pubDate", question.PubDate).Msg("Detail requested for unpublished question")
		return nil, ErrNotPublished
	}
	return toQuestionDTO(question, now)
}

func (s *pollService) Vote(ctx context.Context, questionID uint, choice string) (*dto.QuestionDTO, error) {
	question, err := s.findWithChoices(ctx, questionID)
	if err != nil {
		return nil, err
	}
	resp, err := toQuestionDTO(question, s.now())
	if err != nil {
		return nil, err
	}

	choiceID, err := strconv.ParseUint(choice, 10, 32)
	if err != nil {
		return resp, ErrInvalidChoice
	}

	if err := s.choiceRepo.IncrementVotes(ctx, questionID, uint(choiceID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, ErrInvalidChoice
		}
		log.Error().Err(err).Uint("questionID", questionID).Uint64("choiceID", choiceID).Msg("Failed to record vote")
		return nil, fmt.Errorf("error recording vote: %w", err)
	}

	log.Info().Uint("questionID", questionID).Uint64("choiceID", choiceID).Msg("Vote recorded")
	return resp, nil
}

func (s *pollService) GetResults(ctx context.Context, id uint) (*dto.QuestionDTO, error) {
	question, err := s.findWithChoices(ctx, id)
	if err != nil {
		return nil, err
	}
	return toQuestionDTO(question, s.now())
}

func (s *pollService) findWithChoices(ctx context.Context, id uint) (*model.Question, error) {
	question, err := s.questionRepo.FindByIDWithChoices(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		log.Error().Err(err).Uint("questionID", id).Msg("Failed to load question")
		return nil, fmt.Errorf("error loading question %d: %w", id, err)
	}
	return question, nil
}

func toQuestionDTO(q *model.Question, now time.Time) (*dto.QuestionDTO, error) {
	var resp dto.QuestionDTO
	if err := copier.Copy(&resp, q); err != nil {
		log.Error().Err(err).Uint("questionID", q.ID).Msg("Failed to copy Question model to QuestionDTO")
		return nil, fmt.Errorf("error preparing question: %w", err)
	}
	if resp.Choices == nil {
		resp.Choices = []dto.ChoiceDTO{}
	}
	resp.WasPublishedRecently = q.WasPublishedRecently(now)
	return &resp, nil
}

func toQuestionDTOs(questions []model.Question, now time.Time) ([]dto.QuestionDTO, error) {
	items := make([]dto.QuestionDTO, 0, len(questions))
	for i := range questions {
		item, err := toQuestionDTO(&questions[i], now)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}
