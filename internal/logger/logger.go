package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Debug gin mode gets a
// human-readable console writer, everything else writes JSON lines.
func Init(level, ginMode string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if ginMode == gin.DebugMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GinFormatter routes gin's access log through zerolog.
func GinFormatter(param gin.LogFormatterParams) string {
	log.Info().
		Str("client_ip", param.ClientIP).
		Str("method", param.Method).
		Str("path", param.Path).
		Int("status_code", param.StatusCode).
		Dur("latency", param.Latency).
		Str("user_agent", param.Request.UserAgent()).
		Str("error_message", param.ErrorMessage).
		Str("request_id", fmt.Sprint(param.Keys["request_id"])).
		Msg("gin_request")
	return "" // gin writes whatever we return; zerolog already has it
}
