package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	LoginURL        = "/accounts/login/"
	VerificationURL = "/accounts/confirm-email/"

	currentUserKey = "current_user"
)

// CurrentUser loads the session user, if any, into the gin context.
func CurrentUser(accounts service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionUser(c)
		if !ok {
			c.Next()
			return
		}
		user, err := accounts.GetUser(c.Request.Context(), id)
		if err != nil {
			log.Warn().Err(err).Uint("userID", id).Msg("Session refers to a missing user, logging out")
			if err := LogOut(c); err != nil {
				log.Error().Err(err).Msg("Failed to clear stale session")
			}
			c.Next()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// GetCurrentUser returns the signed-in user or nil.
func GetCurrentUser(c *gin.Context) *dto.CurrentUser {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*dto.CurrentUser)
	return user
}

// VerifiedEmailRequired lets through only signed-in users with a confirmed
// email. Anonymous users go to the login page; unverified users go to the
// email confirmation page.
func VerifiedEmailRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !user.EmailVerified {
			c.Redirect(http.StatusFound, VerificationURL)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffRequired guards the admin JSON API.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication required"})
			return
		}
		if !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Staff access required"})
			return
		}
		c.Next()
	}
}
