package home

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	h := NewHomeHandlers(domain.NewBaseHandler(logger))

	r := gin.New()
	r.Use(sessions.Sessions("medilive_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(middleware.SessionMiddleware(logger))
	r.POST("/test/login", func(c *gin.Context) {
		user := models.UserProfile{ID: "1", FirstName: "Cara", UserType: models.UserTypeCaretaker}
		require.NoError(t, middleware.GetStoreFromContext(c).Login("tok", user))
		c.Status(http.StatusNoContent)
	})
	pages := r.Group("/", middleware.RouteGuard(logger))
	pages.GET("/", h.ShowHomePage)
	pages.GET("/index", h.ShowHomePage)
	pages.GET("/ai-services", h.ShowAIServices)
	r.NoRoute(middleware.RouteGuard(logger), h.NotFound)
	return r
}

func get(t *testing.T, r http.Handler, target string, cookies []*http.Cookie) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return w, doc
}

func TestPublicPages(t *testing.T) {
	r := newRouter(t)

	for _, path := range []string{"/", "/index"} {
		w, doc := get(t, r, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, doc.Find("#home").Length())
		assert.Equal(t, 1, doc.Find(`#home-actions a[href="/login"]`).Length())
	}

	w, doc := get(t, r, "/ai-services", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, doc.Find("#ai-services article").Length())

	w, doc = get(t, r, "/no/such/page", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, doc.Find("#not-found").Length())

	w, _ = get(t, r, "/dashboard/unknown", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestHomePage_SignedIn(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/login", nil))
	cookies := w.Result().Cookies()

	w, doc := get(t, r, "/", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, doc.Find(`#home-actions a[href="/dashboard"]`).Length())
	assert.Equal(t, 0, doc.Find(`#home-actions a[href="/login"]`).Length())
	assert.Equal(t, 1, doc.Find("#logout").Length())
}
