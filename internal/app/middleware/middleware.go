package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/guard"
	"github.com/FACorreiaa/medilive-templui/internal/app/observability/metrics"
	"github.com/FACorreiaa/medilive-templui/internal/app/renderer"
	"github.com/FACorreiaa/medilive-templui/internal/app/session"
	"github.com/FACorreiaa/medilive-templui/internal/app/views"
)

// Typed context keys
type contextKey string

const (
	StoreContextKey    contextKey = "sessionStore"
	DecisionContextKey contextKey = "routeDecision"
)

const RequestIDHeader = "X-Request-Id"

// CORSMiddleware handles CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, HX-Request, HX-Boosted, HX-Target, HX-Current-URL")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HTMX is loaded from unpkg; everything else is same-origin
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"frame-ancestors 'none'"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// RequestIDMiddleware keeps an incoming X-Request-Id or mints one, and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Set(RequestIDHeader, id)
		c.Next()
	}
}

// OTELGinMiddleware starts a server span per request.
func OTELGinMiddleware(service string) gin.HandlerFunc {
	return otelgin.Middleware(service)
}

// MetricsMiddleware records the request counter and duration histogram.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// SessionMiddleware restores the visitor's session from the signed cookie. It must run
// after sessions.Sessions. Every later handler reads the same Store.
func SessionMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := session.NewStore(session.NewCookieStorage(sessions.Default(c)), logger)
		store.Hydrate()
		c.Set(string(StoreContextKey), store)
		c.Next()
	}
}

// GetStoreFromContext returns the request's session store, or nil outside SessionMiddleware.
func GetStoreFromContext(c *gin.Context) *session.Store {
	v, exists := c.Get(string(StoreContextKey))
	if !exists {
		return nil
	}
	store, ok := v.(*session.Store)
	if !ok {
		return nil
	}
	return store
}

// GetSessionState returns a snapshot of the request's session. Without a store the
// state is not hydrated, so the guard answers Loading rather than guessing.
func GetSessionState(c *gin.Context) session.State {
	if store := GetStoreFromContext(c); store != nil {
		return store.State()
	}
	return session.State{}
}

// RouteGuard asks the guard what the request may see. Redirects and the loading
// placeholder end the request here; otherwise the decision is left for the handler.
func RouteGuard(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := GetSessionState(c)
		decision := guard.Decide(st, c.Request.URL.Path)
		metrics.RecordDecision(c.Request.Context(), decision.Target.String(), guard.Phase(st))

		logger.Debug("Route decision",
			zap.String("path", c.Request.URL.Path),
			zap.String("phase", guard.Phase(st)),
			zap.Stringer("target", decision.Target),
		)

		switch {
		case decision.Target == guard.TargetRedirectLogin:
			handleAuthRedirect(c, decision.Location)
			return
		case decision.IsRedirect():
			Redirect(c, decision.Location)
			c.Abort()
			return
		case decision.Target == guard.TargetLoading:
			c.Header("Retry-After", "1")
			c.Render(http.StatusServiceUnavailable, renderer.New(c.Request.Context(), http.StatusServiceUnavailable, views.Loading()))
			c.Abort()
			return
		}

		c.Set(string(DecisionContextKey), decision)
		c.Next()
	}
}

// GetDecisionFromContext returns the guard's decision for this request.
func GetDecisionFromContext(c *gin.Context) (guard.Decision, bool) {
	v, exists := c.Get(string(DecisionContextKey))
	if !exists {
		return guard.Decision{}, false
	}
	d, ok := v.(guard.Decision)
	return d, ok
}

// handleAuthRedirect handles redirects for both regular and HTMX requests
func handleAuthRedirect(c *gin.Context, redirectURL string) {
	if IsHTMX(c) {
		// For HTMX requests, use HX-Redirect header to trigger client-side redirect
		c.Header("HX-Redirect", redirectURL)
		c.AbortWithStatus(http.StatusUnauthorized)
	} else {
		c.Redirect(redirectStatus(c), redirectURL)
		c.Abort()
	}
}

// Redirect sends the browser to url: HX-Redirect for HTMX requests, 302 after a GET and
// 303 after a form post otherwise.
func Redirect(c *gin.Context, url string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", url)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(redirectStatus(c), url)
}

func redirectStatus(c *gin.Context) int {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

// IsHTMX reports whether the request came from htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// IsBoosted reports whether htmx issued the request for an hx-boost link or form.
// Boosted responses replace the whole body, so they need the full page.
func IsBoosted(c *gin.Context) bool {
	return c.GetHeader("HX-Boosted") == "true"
}

// WantsFragment reports whether the response should be the content fragment alone:
// a targeted htmx request rather than a boosted navigation.
func WantsFragment(c *gin.Context) bool {
	return IsHTMX(c) && !IsBoosted(c)
}
