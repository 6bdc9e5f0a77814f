package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/component"
	"github.com/rs/zerolog/log"
)

const (
	SessionName   = "polls_session"
	sessionUserID = "user_id"
)

// Sessions installs a signed cookie session store.
func Sessions(cfg *config.Config) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.Server.SiteURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionName, store)
}

// LogIn binds the user to the session.
func LogIn(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, userID)
	return session.Save()
}

// LogOut forgets the session user and any pending flashes.
func LogOut(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func sessionUser(c *gin.Context) (uint, bool) {
	id, ok := sessions.Default(c).Get(sessionUserID).(uint)
	return id, ok && id != 0
}

// AddFlash queues a one-shot message for the next rendered page.
func AddFlash(c *gin.Context, level, text string) {
	session := sessions.Default(c)
	session.AddFlash(level + ":" + text)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save flash message")
	}
}

// Flashes pops every queued message.
func Flashes(c *gin.Context) []component.Message {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to clear flash messages")
	}

	messages := make([]component.Message, 0, len(raw))
	for _, f := range raw {
		s, ok := f.(string)
		if !ok {
			continue
		}
		level, text, found := strings.Cut(s, ":")
		if !found {
			level, text = component.LevelInfo, s
		}
		messages = append(messages, component.Message{Level: level, Text: text})
	}
	return messages
}
