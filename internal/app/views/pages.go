package views

import (
	"github.com/a-h/templ"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

// LoginForm carries what the login page echoes back after a failed attempt.
type LoginForm struct {
	Email  string
	Banner *models.Banner
}

// SignupForm carries what the signup page echoes back after a failed attempt.
// Passwords are never echoed.
type SignupForm struct {
	FirstName string
	LastName  string
	Email     string
	UserType  models.UserType
	Terms     bool
	Banner    *models.Banner
}

func Home(user *models.UserProfile) templ.Component { return page("home", user) }

func AIServices() templ.Component { return page("ai_services", nil) }

func NotFound(path string) templ.Component { return page("not_found", path) }

// Loading is shown while the session is still being restored.
func Loading() templ.Component { return page("loading", nil) }

func Login(form LoginForm) templ.Component { return page("login", form) }

func Signup(form SignupForm) templ.Component { return page("signup", form) }

// Banner renders an inline message; a nil banner renders nothing.
func Banner(b *models.Banner) templ.Component { return page("banner", b) }

// Forbidden is the body for an action the current account type may not perform.
func Forbidden(message string) templ.Component {
	return page("banner", &models.Banner{Kind: models.BannerError, Message: message})
}
