package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/cache"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/config"
	"github.com/FACorreiaa/medilive-templui/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(cfg *config.Config, api *client.Client, caches *cache.CacheManager, logger *zap.Logger) *gin.Engine {
	switch cfg.Env {
	case "test":
		gin.SetMode(gin.TestMode)
	case "development", "":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/healthz"},
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.OTELGinMiddleware(cfg.Observability.ServiceName))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(sessions.Sessions(cfg.Session.CookieName, newSessionStore(cfg.Session)))
	r.Use(middleware.SessionMiddleware(logger))

	routes.Setup(r, api, caches, logger)

	return r
}

// sessionCookieStore is gin-contrib's cookie store with the codec's max age
// reachable, so the signature check never outlives the cookie itself.
type sessionCookieStore struct {
	*gsessions.CookieStore
}

func (s *sessionCookieStore) Options(options sessions.Options) {
	s.CookieStore.Options = options.ToGorillaOptions()
}

// newSessionStore builds the signed cookie that carries the persisted session.
// The browser keeps it for sc.MaxAge and the signature stays valid for as long.
func newSessionStore(sc config.SessionConfig) sessions.Store {
	maxAge := int(sc.MaxAge.Seconds())

	cs := gsessions.NewCookieStore([]byte(sc.Secret))
	cs.MaxAge(maxAge)

	store := &sessionCookieStore{CookieStore: cs}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// zapContextFunc returns the Zap context function for logging
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get(middleware.RequestIDHeader); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		// Request bodies are never logged: they carry passwords
		if d, ok := middleware.GetDecisionFromContext(c); ok {
			fields = append(fields, zap.Stringer("route_target", d.Target))
		}

		return fields
	}
}
