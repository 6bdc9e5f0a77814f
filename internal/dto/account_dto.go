package dto

// LoginForm is posted by the login page. Login is a username or an email.
type LoginForm struct {
	Login    string `form:"login" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type SignupForm struct {
	Username string `form:"username" binding:"required,min=3,max=150,alphanum"`
	Email    string `form:"email" binding:"required,email,max=254"`
	Password string `form:"password" binding:"required,min=8"`
}

// CurrentUser is the signed-in account as seen by templates and middleware.
type CurrentUser struct {
	ID            uint
	Username      string
	Email         string
	EmailVerified bool
	IsStaff       bool
}
