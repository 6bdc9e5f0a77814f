package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminPollController struct {
	adminPollService service.AdminPollService
}

func NewAdminPollController(adminPollService service.AdminPollService) *AdminPollController {
	return &AdminPollController{adminPollService: adminPollService}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

func (c *AdminPollController) fail(ctx *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrQuestionNotFound), errors.Is(err, service.ErrChoiceNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg(msg)
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: msg, Details: []string{err.Error()}})
	}
}

// ListQuestions godoc
// @Summary (Admin) List questions
// @Description Lists questions newest first with text search and publish date filters, 100 per page.
// @Tags Admin - Questions
// @Produce json
// @Param search query string false "Case-insensitive substring of the question text"
// @Param published_after query string false "RFC3339 lower bound on pub_date"
// @Param published_before query string false "RFC3339 upper bound on pub_date"
// @Param page query int false "1-based page number"
// @Success 200 {object} dto.AdminQuestionListDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 403 {object} dto.ErrorResponse "Staff access required"
// @Router /admin/questions [get]
func (c *AdminPollController) ListQuestions(ctx *gin.Context) {
	var query dto.QuestionQueryDTO
	if err := ctx.ShouldBindQuery(&query); err != nil {
		log.Warn().Err(err).Msg("Admin ListQuestions: Failed to bind query")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid query parameters", Details: []string{err.Error()}})
		return
	}

	list, err := c.adminPollService.ListQuestions(ctx.Request.Context(), query)
	if err != nil {
		c.fail(ctx, err, "Failed to list questions")
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// CreateQuestion godoc
// @Summary (Admin) Create a question with its choices
// @Description Creates a question and its inline choices. pub_date defaults to now.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Param question body dto.QuestionCreateDTO true "Question with inline choices"
// @Success 201 {object} dto.QuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 403 {object} dto.ErrorResponse "Staff access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions [post]
func (c *AdminPollController) CreateQuestion(ctx *gin.Context) {
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateQuestion: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	question, err := c.adminPollService.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		c.fail(ctx, err, "Failed to create question")
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// GetQuestion godoc
// @Summary (Admin) Get a question
// @Tags Admin - Questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} dto.QuestionDTO
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{id} [get]
func (c *AdminPollController) GetQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	question, err := c.adminPollService.GetQuestion(ctx.Request.Context(), id)
	if err != nil {
		c.fail(ctx, err, "Failed to load question")
		return
	}
	ctx.JSON(http.StatusOK, question)
}

// UpdateQuestion godoc
// @Summary (Admin) Update a question
// @Description Changes question_text, pub_date and/or published. Omitted fields keep their value.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param question body dto.QuestionUpdateDTO true "Fields to change"
// @Success 200 {object} dto.QuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{id} [patch]
func (c *AdminPollController) UpdateQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.QuestionUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin UpdateQuestion: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	question, err := c.adminPollService.UpdateQuestion(ctx.Request.Context(), id, req)
	if err != nil {
		c.fail(ctx, err, "Failed to update question")
		return
	}
	ctx.JSON(http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question and its choices
// @Tags Admin - Questions
// @Param id path int true "Question ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{id} [delete]
func (c *AdminPollController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.adminPollService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		c.fail(ctx, err, "Failed to delete question")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AddChoice godoc
// @Summary (Admin) Add a choice to a question
// @Tags Admin - Choices
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param choice body dto.ChoiceCreateDTO true "Choice"
// @Success 201 {object} dto.ChoiceDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{id}/choices [post]
func (c *AdminPollController) AddChoice(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ChoiceCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin AddChoice: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	choice, err := c.adminPollService.AddChoice(ctx.Request.Context(), id, req)
	if err != nil {
		c.fail(ctx, err, "Failed to add choice")
		return
	}
	ctx.JSON(http.StatusCreated, choice)
}

// DeleteChoice godoc
// @Summary (Admin) Delete a choice
// @Tags Admin - Choices
// @Param id path int true "Choice ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Choice not found"
// @Router /admin/choices/{id} [delete]
func (c *AdminPollController) DeleteChoice(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.adminPollService.DeleteChoice(ctx.Request.Context(), id); err != nil {
		c.fail(ctx, err, "Failed to delete choice")
		return
	}
	ctx.Status(http.StatusNoContent)
}
