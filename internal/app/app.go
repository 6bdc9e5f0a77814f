// Package app assembles the polls application with fx.
package app

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/database"
	_ "github.com/lshigami/polls/docs" // swagger spec
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/controller"
	"github.com/lshigami/polls/internal/controller/account"
	"github.com/lshigami/polls/internal/controller/admin"
	"github.com/lshigami/polls/internal/controller/user"
	"github.com/lshigami/polls/internal/logger"
	"github.com/lshigami/polls/internal/middleware"
	"github.com/lshigami/polls/internal/repository"
	"github.com/lshigami/polls/internal/service"
	"github.com/lshigami/polls/internal/web"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Core is everything except the configuration and the HTTP listener.
var Core = fx.Options(
	fx.Provide(
		database.NewDatabase,
		component.Defaults,
		web.NewTemplates,
		NewGinEngine,
	),

	// Repositories Layer
	fx.Provide(
		repository.NewQuestionRepository,
		repository.NewChoiceRepository,
		repository.NewUserRepository,
	),

	// Services Layer
	fx.Provide(
		service.NewClock,
		service.NewLogMailer,
		service.NewPollService,
		service.NewAdminPollService,
		service.NewAccountService,
	),

	// Controllers Layer
	fx.Provide(
		user.NewPollController,
		admin.NewAdminPollController,
		account.NewAccountController,
		controller.NewController,
	),

	fx.Invoke(AutoMigrateDB),
	fx.Invoke(EnsureStaffAccount),
)

// Module is the full application as run by cmd.
var Module = fx.Options(
	fx.Provide(config.NewConfig),
	fx.Invoke(InitLogger),
	Core,
	fx.Invoke(RegisterRoutesAndStartServer),
)

func NewGinEngine(cfg *config.Config, tmpl *template.Template, accounts service.AccountService) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(logger.GinFormatter))
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Sessions(cfg))
	r.Use(middleware.CurrentUser(accounts))

	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())
	r.NoRoute(func(c *gin.Context) { web.NotFound(c, "") })

	// Swagger UI
	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures routes and manages server lifecycle.
func RegisterRoutesAndStartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config, ctrl *controller.Controller) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Polls server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.Migrate(db)
}

// InitLogger applies the configured level and output format.
func InitLogger(cfg *config.Config) {
	logger.Init(cfg.LogLevel, cfg.Server.GinMode)
}

// EnsureStaffAccount runs after migrations so the users table exists.
func EnsureStaffAccount(lc fx.Lifecycle, accounts service.AccountService, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return accounts.EnsureStaff(ctx, cfg.Admin)
		},
	})
}
