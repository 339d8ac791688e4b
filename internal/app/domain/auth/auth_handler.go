package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/guard"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/models"
	"github.com/FACorreiaa/medilive-templui/internal/app/observability/metrics"
	"github.com/FACorreiaa/medilive-templui/internal/app/views"
)

const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid email or password"
	msgFieldsRequired      = "All required fields must be filled"
	msgInvalidAccountType  = "Please select a valid account type"
	msgPasswordMismatch    = "Passwords do not match"
	msgTermsRequired       = "You must agree to the terms and conditions"
	msgRegistrationFailed  = "Registration failed. Please try again."
	msgSessionFailed       = "We could not start your session. Please try again."
)

const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Backend is the part of the API client the auth handlers need.
type Backend interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	Signup(ctx context.Context, req client.SignupRequest) (*client.AuthResponse, error)
}

type AuthHandlers struct {
	*domain.BaseHandler
	backend Backend
	// Identical submissions in flight share one backend call.
	inflight singleflight.Group
}

func NewAuthHandlers(base *domain.BaseHandler, backend Backend) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler: base,
		backend:     backend,
	}
}

func (h *AuthHandlers) ShowLogin(c *gin.Context) {
	h.RenderPage(c, "Login - MediLive", "Login", views.Login(views.LoginForm{}))
}

func (h *AuthHandlers) ShowSignup(c *gin.Context) {
	h.RenderPage(c, "Sign Up - MediLive", "Sign Up", views.Signup(views.SignupForm{}))
}

func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	ctx := c.Request.Context()
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	h.Logger.Info("Login attempt",
		zap.String("email", email),
		zap.String("remote_addr", c.ClientIP()),
	)

	form := views.LoginForm{Email: email}
	if email == "" || password == "" {
		metrics.RecordAuth(ctx, "login", outcomeInvalid)
		h.loginFailed(c, http.StatusBadRequest, form, models.Banner{Kind: models.BannerError, Message: msgCredentialsRequired})
		return
	}

	resp, err := h.share(ctx, "login", email, password, func(ctx context.Context) (*client.AuthResponse, error) {
		return h.backend.Login(ctx, client.LoginRequest{Email: email, Password: password})
	})
	if err != nil {
		h.Logger.Warn("Login rejected", zap.String("email", email), zap.Error(err))
		metrics.RecordAuth(ctx, "login", outcomeFor(err))
		h.loginFailed(c, domain.StatusFor(err), form, models.Banner{
			Kind:        models.BannerError,
			Message:     client.MessageOr(err, msgInvalidCredentials),
			Description: "Please check your credentials and try again",
		})
		return
	}

	if err := middleware.GetStoreFromContext(c).Login(resp.AccessToken, resp.User); err != nil {
		h.Logger.Error("Failed to persist session", zap.String("email", email), zap.Error(err))
		metrics.RecordAuth(ctx, "login", outcomeError)
		h.loginFailed(c, sessionFailureStatus(err), form, models.Banner{Kind: models.BannerError, Message: msgSessionFailed})
		return
	}

	h.Logger.Info("Successful login",
		zap.String("user_id", resp.User.ID.String()),
		zap.String("user_type", string(resp.User.UserType)),
	)
	metrics.RecordAuth(ctx, "login", outcomeSuccess)
	middleware.Redirect(c, guard.DashboardPath)
}

func (h *AuthHandlers) SignupHandler(c *gin.Context) {
	ctx := c.Request.Context()
	form := views.SignupForm{
		FirstName: strings.TrimSpace(c.PostForm("firstName")),
		LastName:  strings.TrimSpace(c.PostForm("lastName")),
		Email:     strings.TrimSpace(c.PostForm("email")),
		UserType:  models.UserType(c.PostForm("userType")),
		Terms:     c.PostForm("terms") == "on" || c.PostForm("terms") == "true",
	}
	password := c.PostForm("password")
	confirm := c.PostForm("confirmPassword")

	h.Logger.Info("Registration attempt",
		zap.String("email", form.Email),
		zap.String("user_type", string(form.UserType)),
	)

	if msg := validateSignup(form, password, confirm); msg != "" {
		metrics.RecordAuth(ctx, "signup", outcomeInvalid)
		h.signupFailed(c, http.StatusBadRequest, form, models.Banner{Kind: models.BannerError, Message: msg})
		return
	}

	resp, err := h.share(ctx, "signup", form.Email, password, func(ctx context.Context) (*client.AuthResponse, error) {
		return h.backend.Signup(ctx, client.SignupRequest{
			Email:     form.Email,
			Password:  password,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			UserType:  form.UserType,
		})
	})
	if err != nil {
		h.Logger.Warn("Registration rejected", zap.String("email", form.Email), zap.Error(err))
		metrics.RecordAuth(ctx, "signup", outcomeFor(err))
		h.signupFailed(c, domain.StatusFor(err), form, models.Banner{
			Kind:    models.BannerError,
			Message: client.MessageOr(err, msgRegistrationFailed),
		})
		return
	}

	if err := middleware.GetStoreFromContext(c).Login(resp.AccessToken, resp.User); err != nil {
		h.Logger.Error("Failed to persist session", zap.String("email", form.Email), zap.Error(err))
		metrics.RecordAuth(ctx, "signup", outcomeError)
		h.signupFailed(c, sessionFailureStatus(err), form, models.Banner{Kind: models.BannerError, Message: msgSessionFailed})
		return
	}

	h.Logger.Info("Successful registration",
		zap.String("user_id", resp.User.ID.String()),
		zap.String("user_type", string(resp.User.UserType)),
	)
	metrics.RecordAuth(ctx, "signup", outcomeSuccess)
	middleware.Redirect(c, guard.DashboardPath)
}

func (h *AuthHandlers) LogoutHandler(c *gin.Context) {
	h.Logger.Info("User logout", zap.String("phase", guard.Phase(middleware.GetSessionState(c))))

	outcome := outcomeSuccess
	if store := middleware.GetStoreFromContext(c); store != nil {
		if err := store.Logout(); err != nil {
			h.Logger.Error("Failed to clear session cookie", zap.Error(err))
			outcome = outcomeError
		}
	}
	metrics.RecordAuth(c.Request.Context(), "logout", outcome)
	middleware.Redirect(c, guard.HomePath)
}

// validateSignup runs the checks that need no network call and returns the first failure.
func validateSignup(form views.SignupForm, password, confirm string) string {
	switch {
	case form.FirstName == "" || form.LastName == "" || form.Email == "" || form.UserType == "" || password == "":
		return msgFieldsRequired
	case !form.UserType.Known():
		return msgInvalidAccountType
	case password != confirm:
		return msgPasswordMismatch
	case !form.Terms:
		return msgTermsRequired
	}
	return ""
}

// share collapses concurrent identical submissions into one backend call. The call
// runs detached from any single request so one client going away does not fail the others.
func (h *AuthHandlers) share(ctx context.Context, op, email, password string, fn func(context.Context) (*client.AuthResponse, error)) (*client.AuthResponse, error) {
	sum := sha256.Sum256([]byte(password))
	key := op + ":" + strings.ToLower(email) + ":" + hex.EncodeToString(sum[:])

	v, err, shared := h.inflight.Do(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	if shared {
		h.Logger.Debug("Joined in-flight auth request", zap.String("op", op))
	}
	if err != nil {
		return nil, err
	}
	return v.(*client.AuthResponse), nil
}

func (h *AuthHandlers) loginFailed(c *gin.Context, status int, form views.LoginForm, banner models.Banner) {
	if middleware.WantsFragment(c) {
		h.RenderBanner(c, status, "#login-response", banner)
		return
	}
	form.Banner = &banner
	h.RenderPageStatus(c, status, "Login - MediLive", "Login", views.Login(form))
}

func (h *AuthHandlers) signupFailed(c *gin.Context, status int, form views.SignupForm, banner models.Banner) {
	if middleware.WantsFragment(c) {
		h.RenderBanner(c, status, "#signup-response", banner)
		return
	}
	form.Banner = &banner
	h.RenderPageStatus(c, status, "Sign Up - MediLive", "Sign Up", views.Signup(form))
}

// sessionFailureStatus blames the backend when it answered with a profile the
// session cannot keep, and this service when the cookie could not be written.
func sessionFailureStatus(err error) int {
	if errors.Is(err, models.ErrValidation) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func outcomeFor(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return outcomeInvalid
	}
	return outcomeError
}
