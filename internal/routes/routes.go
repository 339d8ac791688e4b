package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain/auth"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain/dashboard"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain/home"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/renderer"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/cache"
)

type AppHandlers struct {
	Home      *home.HomeHandlers
	Auth      *auth.AuthHandlers
	Dashboard *dashboard.DashboardHandlers
}

func Setup(r *gin.Engine, api *client.Client, caches *cache.CacheManager, log *zap.Logger) {
	// Setup custom templ renderer
	ginHTMLRenderer := r.HTMLRender
	r.HTMLRender = &renderer.HTMLTemplRenderer{FallbackHTMLRenderer: ginHTMLRenderer}

	setupRouter(r, setupDependencies(api, caches, log), log)
}

func setupDependencies(api *client.Client, caches *cache.CacheManager, log *zap.Logger) *AppHandlers {
	baseHandler := domain.NewBaseHandler(log)
	return &AppHandlers{
		Home:      home.NewHomeHandlers(baseHandler),
		Auth:      auth.NewAuthHandlers(baseHandler, api),
		Dashboard: dashboard.NewDashboardHandlers(baseHandler, api, caches),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, log *zap.Logger) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Logout is valid from any page and with or without a session
	r.POST("/logout", h.Auth.LogoutHandler)

	// Every page goes through the route guard
	pages := r.Group("/", middleware.RouteGuard(log))
	{
		pages.GET("/", h.Home.ShowHomePage)
		pages.GET("/index", h.Home.ShowHomePage)
		pages.GET("/ai-services", h.Home.ShowAIServices)

		pages.GET("/login", h.Auth.ShowLogin)
		pages.POST("/login", h.Auth.LoginHandler)
		pages.GET("/signup", h.Auth.ShowSignup)
		pages.POST("/signup", h.Auth.SignupHandler)
	}

	dash := pages.Group("/dashboard")
	{
		dash.GET("", h.Dashboard.ShowDashboard)
		dash.GET("/patients/:id", h.Dashboard.ShowPatient)
		dash.POST("/patients", h.Dashboard.CreatePatient)
		dash.POST("/patients/:id/vitals", h.Dashboard.AddVitals)
		dash.POST("/patients/:id/caretaker", h.Dashboard.AssignCaretaker)
		dash.POST("/patients/:id/discharge", h.Dashboard.DischargePatient)
		dash.POST("/patients/:id/delete", h.Dashboard.RemovePatient)
	}

	r.NoRoute(middleware.RouteGuard(log), h.Home.NotFound)
}
