package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/middleware"
	"github.com/lshigami/polls/internal/service"
	"github.com/lshigami/polls/internal/web"
	"github.com/rs/zerolog/log"
)

const (
	NoChoiceMessage     = "You didn't select a choice."
	NotAvailableMessage = "This poll is not available yet."
	noQuestionMessage   = "No question matches the given query."
)

type PollController struct {
	pollService service.PollService
	policy      string
}

func NewPollController(pollService service.PollService, cfg *config.Config) *PollController {
	return &PollController{pollService: pollService, policy: cfg.Polls.UnpublishedPolicy}
}

func questionID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("question_id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func serverError(ctx *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg(msg)
	ctx.String(http.StatusInternalServerError, "Server Error (500)")
}

// Index handles GET /polls/
func (c *PollController) Index(ctx *gin.Context) {
	list, err := c.pollService.ListQuestions(ctx.Request.Context(), ctx.Query("page"))
	if errors.Is(err, service.ErrPageNotFound) {
		web.NotFound(ctx, "Invalid page.")
		return
	}
	if err != nil {
		serverError(ctx, err, "Index: service error")
		return
	}
	web.Render(ctx, http.StatusOK, "polls/index.html", gin.H{
		"latest_question_list": list.Questions,
		"stats":                list.Stats,
		"page":                 list.Page,
	})
}

// Detail handles GET /polls/:question_id/
func (c *PollController) Detail(ctx *gin.Context) {
	id, ok := questionID(ctx)
	if !ok {
		web.NotFound(ctx, "")
		return
	}

	question, err := c.pollService.GetQuestion(ctx.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		web.NotFound(ctx, noQuestionMessage)
		return
	case errors.Is(err, service.ErrNotPublished):
		if c.policy == config.PolicyNotFound {
			web.NotFound(ctx, noQuestionMessage)
			return
		}
		middleware.AddFlash(ctx, component.LevelError, NotAvailableMessage)
		ctx.Redirect(http.StatusFound, "/polls/")
		return
	case err != nil:
		serverError(ctx, err, "Detail: service error")
		return
	}

	web.Render(ctx, http.StatusOK, "polls/detail.html", gin.H{
		"title":    question.QuestionText,
		"question": question,
	})
}

// Vote handles POST /polls/:question_id/vote/
func (c *PollController) Vote(ctx *gin.Context) {
	id, ok := questionID(ctx)
	if !ok {
		web.NotFound(ctx, "")
		return
	}

	question, err := c.pollService.Vote(ctx.Request.Context(), id, ctx.PostForm("choice"))
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		web.NotFound(ctx, noQuestionMessage)
		return
	case errors.Is(err, service.ErrInvalidChoice):
		web.Render(ctx, http.StatusOK, "polls/detail.html", gin.H{
			"title":         question.QuestionText,
			"question":      question,
			"error_message": NoChoiceMessage,
		})
		return
	case err != nil:
		serverError(ctx, err, "Vote: service error")
		return
	}

	ctx.Redirect(http.StatusFound, ResultsURL(id))
}

// ResultsURL is where a successful vote lands.
func ResultsURL(id uint) string {
	return "/polls/" + strconv.FormatUint(uint64(id), 10) + "/results/"
}

// Results handles GET /polls/:question_id/results/
func (c *PollController) Results(ctx *gin.Context) {
	id, ok := questionID(ctx)
	if !ok {
		web.NotFound(ctx, "")
		return
	}

	question, err := c.pollService.GetResults(ctx.Request.Context(), id)
	if errors.Is(err, service.ErrQuestionNotFound) {
		web.NotFound(ctx, noQuestionMessage)
		return
	}
	if err != nil {
		serverError(ctx, err, "Results: service error")
		return
	}

	web.Render(ctx, http.StatusOK, "polls/results.html", gin.H{
		"title":    question.QuestionText,
		"question": question,
	})
}

// GetResults godoc
// @Summary Get the current vote tally of a question
// @Description Returns the question text and every choice with its current vote count, read directly from the database.
// @Tags Polls
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.QuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Question ID format"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /polls/{question_id}/results [get]
func (c *PollController) GetResults(ctx *gin.Context) {
	id, ok := questionID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Question ID format"})
		return
	}

	question, err := c.pollService.GetResults(ctx.Request.Context(), id)
	if errors.Is(err, service.ErrQuestionNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("GetResults: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve results", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, question)
}
