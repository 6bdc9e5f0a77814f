package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/controller/account"
	"github.com/lshigami/polls/internal/controller/admin"
	"github.com/lshigami/polls/internal/controller/user"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/middleware"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Controller struct {
	pollCtrl    *user.PollController
	adminCtrl   *admin.AdminPollController
	accountCtrl *account.AccountController
	db          *gorm.DB
	siteURL     string
}

func NewController(pollCtrl *user.PollController, adminCtrl *admin.AdminPollController, accountCtrl *account.AccountController, db *gorm.DB, cfg *config.Config) *Controller {
	return &Controller{
		pollCtrl:    pollCtrl,
		adminCtrl:   adminCtrl,
		accountCtrl: accountCtrl,
		db:          db,
		siteURL:     cfg.Server.SiteURL,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/polls/") })
	router.GET("/healthz", ctrl.HealthHandler)

	// HTML site
	polls := router.Group("/polls")
	{
		polls.GET("/", middleware.VerifiedEmailRequired(), ctrl.pollCtrl.Index)
		polls.GET("/:question_id/", middleware.VerifiedEmailRequired(), ctrl.pollCtrl.Detail)
		polls.GET("/:question_id/results/", ctrl.pollCtrl.Results)
		polls.POST("/:question_id/vote/", ctrl.pollCtrl.Vote)
	}

	accounts := router.Group("/accounts")
	{
		accounts.GET("/login/", ctrl.accountCtrl.LoginPage)
		accounts.POST("/login/", ctrl.accountCtrl.Login)
		accounts.POST("/logout/", ctrl.accountCtrl.Logout)
		accounts.GET("/signup/", ctrl.accountCtrl.SignupPage)
		accounts.POST("/signup/", ctrl.accountCtrl.Signup)
		accounts.GET("/confirm-email/", ctrl.accountCtrl.VerificationSent)
		accounts.GET("/confirm-email/:key", ctrl.accountCtrl.ConfirmEmail)
	}

	// JSON API
	apiV1 := router.Group("/api/v1")
	apiV1.Use(cors.New(cors.Config{
		AllowOrigins:     []string{ctrl.siteURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		apiV1.GET("/polls/:question_id/results", ctrl.pollCtrl.GetResults)

		adminGroup := apiV1.Group("/admin", middleware.StaffRequired())
		adminGroup.GET("/questions", ctrl.adminCtrl.ListQuestions)
		adminGroup.POST("/questions", ctrl.adminCtrl.CreateQuestion)
		adminGroup.GET("/questions/:id", ctrl.adminCtrl.GetQuestion)
		adminGroup.PATCH("/questions/:id", ctrl.adminCtrl.UpdateQuestion)
		adminGroup.DELETE("/questions/:id", ctrl.adminCtrl.DeleteQuestion)
		adminGroup.POST("/questions/:id/choices", ctrl.adminCtrl.AddChoice)
		adminGroup.DELETE("/choices/:id", ctrl.adminCtrl.DeleteChoice)
	}
}

// HealthHandler reports whether the service can reach its database.
func (ctrl *Controller) HealthHandler(c *gin.Context) {
	sqlDB, err := ctrl.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Message: "database unreachable", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
