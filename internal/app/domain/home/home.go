package home

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/views"
)

type HomeHandlers struct {
	*domain.BaseHandler
}

func NewHomeHandlers(base *domain.BaseHandler) *HomeHandlers {
	return &HomeHandlers{BaseHandler: base}
}

// ShowHomePage renders the landing page; the calls to action depend on the session.
func (h *HomeHandlers) ShowHomePage(c *gin.Context) {
	user := middleware.GetSessionState(c).User
	h.RenderPage(c, "MediLive - Patient Care Platform", "Home", views.Home(user))
}

func (h *HomeHandlers) ShowAIServices(c *gin.Context) {
	h.RenderPage(c, "AI Services - MediLive", "AI Services", views.AIServices())
}

func (h *HomeHandlers) NotFound(c *gin.Context) {
	h.RenderPageStatus(c, http.StatusNotFound, "Not Found - MediLive", "", views.NotFound(c.Request.URL.Path))
}
