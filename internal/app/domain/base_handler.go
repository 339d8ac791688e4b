package domain

import (
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/models"
	"github.com/FACorreiaa/medilive-templui/internal/app/observability/metrics"
	"github.com/FACorreiaa/medilive-templui/internal/app/renderer"
	"github.com/FACorreiaa/medilive-templui/internal/app/views"
)

type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

func (h *BaseHandler) newLayoutData(c *gin.Context, title, activeNav string, content templ.Component) models.LayoutTempl {
	user := middleware.GetSessionState(c).User
	return models.LayoutTempl{
		Title:     title,
		Content:   content,
		Nav:       models.NavFor(user),
		ActiveNav: activeNav,
		User:      user,
	}
}

func (h *BaseHandler) render(c *gin.Context, status int, page string, component templ.Component) {
	start := time.Now()
	if err := renderer.New(c.Request.Context(), status, component).Render(c.Writer); err != nil {
		h.Logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
	}
	metrics.RecordRender(c.Request.Context(), page, time.Since(start).Seconds())
}

// RenderPage renders content with status 200; see RenderPageStatus.
func (h *BaseHandler) RenderPage(c *gin.Context, title, activeNav string, content templ.Component) {
	h.RenderPageStatus(c, http.StatusOK, title, activeNav, content)
}

// RenderPageStatus sends only the fragment to targeted HTMX requests and the full
// layout to everything else, boosted navigation included.
func (h *BaseHandler) RenderPageStatus(c *gin.Context, status int, title, activeNav string, content templ.Component) {
	if middleware.WantsFragment(c) {
		h.render(c, status, title, content)
		return
	}
	h.render(c, status, title, views.LayoutPage(h.newLayoutData(c, title, activeNav, content)))
}

// RenderBanner answers an HTMX form post with an inline banner swapped into target.
func (h *BaseHandler) RenderBanner(c *gin.Context, status int, target string, banner models.Banner) {
	c.Header("HX-Retarget", target)
	h.render(c, status, "banner", views.Banner(&banner))
}

// StatusFor maps a backend failure to the status this service answers with.
// Anything that is not a recognised client error is the backend's fault.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
