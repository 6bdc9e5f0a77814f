package config

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Development secrets; refused in release mode.
const (
	devSessionSecret      = "dev-session-secret"
	devVerificationSecret = "dev-verification-secret"
)

// Detail view policies for questions whose publish date is still ahead.
const (
	PolicyRedirect = "redirect"
	PolicyNotFound = "not_found"
)

type Config struct {
	Server       Server
	Database     Database
	Session      Session
	Verification Verification
	Polls        Polls
	Admin        Admin
	LogLevel     string
}

type Server struct {
	Port    string
	GinMode string
	SiteURL string
}

type Database struct {
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string `json:"-"`
	Name     string
	SSLMode  string
	Path     string // sqlite file or DSN
}

type Session struct {
	Secret string `json:"-"`
}

type Verification struct {
	Secret string `json:"-"`
	TTL    time.Duration
}

type Polls struct {
	PageSize             int
	UnpublishedPolicy    string
	RequirePublishedFlag bool
}

// Admin holds an optional staff account created at startup.
type Admin struct {
	Username string
	Email    string
	Password string `json:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SITE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_PATH", "polls.db")
	v.SetDefault("SESSION_SECRET", devSessionSecret)
	v.SetDefault("VERIFICATION_SECRET", devVerificationSecret)
	v.SetDefault("VERIFICATION_TTL", "72h")
	v.SetDefault("POLLS_PAGE_SIZE", 10)
	v.SetDefault("POLLS_UNPUBLISHED_POLICY", PolicyRedirect)
	v.SetDefault("POLLS_REQUIRE_PUBLISHED_FLAG", false)
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	config, err := load(v)
	if err != nil {
		return nil, err
	}

	log.Info().Interface("config", config).Msg("Config loaded")
	return config, nil
}

func load(v *viper.Viper) (*Config, error) {
	var config Config

	config.LogLevel = v.GetString("LOG_LEVEL")

	config.Server.Port = v.GetString("SERVER_PORT")
	config.Server.GinMode = v.GetString("GIN_MODE")
	config.Server.SiteURL = v.GetString("SITE_URL")

	config.Database.Driver = v.GetString("DATABASE_DRIVER")
	config.Database.Host = v.GetString("DATABASE_HOST")
	config.Database.Port = v.GetString("DATABASE_PORT")
	config.Database.User = v.GetString("DATABASE_USER")
	config.Database.Password = v.GetString("DATABASE_PASSWORD")
	config.Database.Name = v.GetString("DATABASE_NAME")
	config.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	config.Database.Path = v.GetString("DATABASE_PATH")

	config.Session.Secret = v.GetString("SESSION_SECRET")
	config.Verification.Secret = v.GetString("VERIFICATION_SECRET")
	config.Verification.TTL = v.GetDuration("VERIFICATION_TTL")

	config.Polls.PageSize = v.GetInt("POLLS_PAGE_SIZE")
	config.Polls.UnpublishedPolicy = v.GetString("POLLS_UNPUBLISHED_POLICY")
	config.Polls.RequirePublishedFlag = v.GetBool("POLLS_REQUIRE_PUBLISHED_FLAG")

	config.Admin.Username = v.GetString("ADMIN_USERNAME")
	config.Admin.Email = v.GetString("ADMIN_EMAIL")
	config.Admin.Password = v.GetString("ADMIN_PASSWORD")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	switch c.Polls.UnpublishedPolicy {
	case PolicyRedirect, PolicyNotFound:
	default:
		return fmt.Errorf("unsupported POLLS_UNPUBLISHED_POLICY %q (want %s or %s)",
			c.Polls.UnpublishedPolicy, PolicyRedirect, PolicyNotFound)
	}
	if c.Polls.PageSize < 1 {
		return fmt.Errorf("POLLS_PAGE_SIZE must be positive, got %d", c.Polls.PageSize)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Verification.Secret == "" {
		return fmt.Errorf("VERIFICATION_SECRET is required")
	}
	if c.Server.GinMode == gin.ReleaseMode {
		if c.Session.Secret == devSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be set in release mode")
		}
		if c.Verification.Secret == devVerificationSecret {
			return fmt.Errorf("VERIFICATION_SECRET must be set in release mode")
		}
	}
	return nil
}
