package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/middleware"
	"github.com/lshigami/polls/internal/service"
	"github.com/lshigami/polls/internal/web"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRedirect = "/polls/"

	ConfirmedMessage  = "You have confirmed your email address."
	InvalidKeyMessage = "This email confirmation link expired or is invalid. Please issue a new email confirmation request."
)

type AccountController struct {
	accountService service.AccountService
}

func NewAccountController(accountService service.AccountService) *AccountController {
	return &AccountController{accountService: accountService}
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultRedirect
	}
	return next
}

func serverError(ctx *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg(msg)
	ctx.String(http.StatusInternalServerError, "Server Error (500)")
}

// LoginPage handles GET /accounts/login/
func (c *AccountController) LoginPage(ctx *gin.Context) {
	if middleware.GetCurrentUser(ctx) != nil {
		ctx.Redirect(http.StatusFound, safeNext(ctx.Query("next")))
		return
	}
	web.Render(ctx, http.StatusOK, "account/login.html", gin.H{
		"title": "Sign In",
		"next":  ctx.Query("next"),
	})
}

// Login handles POST /accounts/login/
func (c *AccountController) Login(ctx *gin.Context) {
	var form dto.LoginForm
	if err := ctx.ShouldBind(&form); err != nil {
		web.Render(ctx, http.StatusOK, "account/login.html", gin.H{
			"title":         "Sign In",
			"login":         form.Login,
			"next":          form.Next,
			"error_message": "Please enter your username or email and your password.",
		})
		return
	}

	user, err := c.accountService.Authenticate(ctx.Request.Context(), form.Login, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		web.Render(ctx, http.StatusOK, "account/login.html", gin.H{
			"title":         "Sign In",
			"login":         form.Login,
			"next":          form.Next,
			"error_message": "The username and/or password you specified are not correct.",
		})
		return
	}
	if err != nil {
		serverError(ctx, err, "Login: service error")
		return
	}

	if err := middleware.LogIn(ctx, user.ID); err != nil {
		serverError(ctx, err, "Login: failed to save session")
		return
	}
	middleware.AddFlash(ctx, component.LevelSuccess, "Successfully signed in as "+user.Username+".")
	ctx.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout handles POST /accounts/logout/
func (c *AccountController) Logout(ctx *gin.Context) {
	if err := middleware.LogOut(ctx); err != nil {
		serverError(ctx, err, "Logout: failed to clear session")
		return
	}
	ctx.Redirect(http.StatusFound, middleware.LoginURL)
}

// SignupPage handles GET /accounts/signup/
func (c *AccountController) SignupPage(ctx *gin.Context) {
	web.Render(ctx, http.StatusOK, "account/signup.html", gin.H{"title": "Sign Up"})
}

// Signup handles POST /accounts/signup/
func (c *AccountController) Signup(ctx *gin.Context) {
	var form dto.SignupForm
	rerender := func(msg string) {
		web.Render(ctx, http.StatusOK, "account/signup.html", gin.H{
			"title":         "Sign Up",
			"username":      form.Username,
			"email":         form.Email,
			"error_message": msg,
		})
	}

	if err := ctx.ShouldBind(&form); err != nil {
		log.Info().Err(err).Msg("Signup: invalid form")
		rerender("Choose a username of at least 3 letters or digits, a valid email and a password of at least 8 characters.")
		return
	}

	user, err := c.accountService.Signup(ctx.Request.Context(), form)
	if errors.Is(err, service.ErrUserExists) {
		rerender("A user with that username or email already exists.")
		return
	}
	if err != nil {
		serverError(ctx, err, "Signup: service error")
		return
	}

	if err := middleware.LogIn(ctx, user.ID); err != nil {
		serverError(ctx, err, "Signup: failed to save session")
		return
	}
	ctx.Redirect(http.StatusFound, middleware.VerificationURL)
}

// VerificationSent handles GET /accounts/confirm-email/ and re-sends the
// confirmation email to a signed-in, unverified user.
func (c *AccountController) VerificationSent(ctx *gin.Context) {
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		ctx.Redirect(http.StatusFound, middleware.LoginURL)
		return
	}
	if user.EmailVerified {
		ctx.Redirect(http.StatusFound, DefaultRedirect)
		return
	}
	if err := c.accountService.SendVerification(ctx.Request.Context(), user.ID); err != nil {
		log.Warn().Err(err).Uint("userID", user.ID).Msg("Failed to re-send verification email")
	}
	web.Render(ctx, http.StatusOK, "account/verification_sent.html", gin.H{"title": "Verify Your Email Address"})
}

// ConfirmEmail handles GET /accounts/confirm-email/:key
func (c *AccountController) ConfirmEmail(ctx *gin.Context) {
	_, err := c.accountService.ConfirmEmail(ctx.Request.Context(), ctx.Param("key"))
	if errors.Is(err, service.ErrInvalidVerificationKey) {
		middleware.AddFlash(ctx, component.LevelError, InvalidKeyMessage)
		ctx.Redirect(http.StatusFound, middleware.VerificationURL)
		return
	}
	if err != nil {
		serverError(ctx, err, "ConfirmEmail: service error")
		return
	}

	middleware.AddFlash(ctx, component.LevelSuccess, ConfirmedMessage)
	if middleware.GetCurrentUser(ctx) == nil {
		ctx.Redirect(http.StatusFound, middleware.LoginURL)
		return
	}
	ctx.Redirect(http.StatusFound, DefaultRedirect)
}
