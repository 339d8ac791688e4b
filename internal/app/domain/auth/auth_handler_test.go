package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/apitest"
	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// MockBackend is a mock implementation of the Backend interface
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(_ context.Context, req client.LoginRequest) (*client.AuthResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.AuthResponse), args.Error(1)
}

func (m *MockBackend) Signup(_ context.Context, req client.SignupRequest) (*client.AuthResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.AuthResponse), args.Error(1)
}

func newRouter(t *testing.T, backend Backend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	h := NewAuthHandlers(domain.NewBaseHandler(logger), backend)

	r := gin.New()
	r.Use(sessions.Sessions("medilive_session", cookie.NewStore([]byte(testSecret))))
	r.Use(middleware.SessionMiddleware(logger))
	r.POST("/logout", h.LogoutHandler)

	pages := r.Group("/", middleware.RouteGuard(logger))
	pages.GET("/login", h.ShowLogin)
	pages.POST("/login", h.LoginHandler)
	pages.GET("/signup", h.ShowSignup)
	pages.POST("/signup", h.SignupHandler)
	pages.GET("/dashboard", func(c *gin.Context) {
		d, _ := middleware.GetDecisionFromContext(c)
		c.String(http.StatusOK, d.Target.String())
	})
	return r
}

func newBackend(t *testing.T) (*apitest.Backend, *client.Client) {
	b := apitest.New(t)
	return b, client.New(b.URL(), 5*time.Second, zap.NewNop())
}

type request struct {
	form    url.Values
	cookies []*http.Cookie
	htmx    bool
}

func send(r http.Handler, method, target string, req request) *httptest.ResponseRecorder {
	var body *strings.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	} else {
		body = strings.NewReader("")
	}
	httpReq := httptest.NewRequest(method, target, body)
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range req.cookies {
		httpReq.AddCookie(ck)
	}
	if req.htmx {
		httpReq.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func bannerText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return strings.TrimSpace(doc.Find(".banner-message").Text())
}

func TestLoginHandler(t *testing.T) {
	b, api := newBackend(t)
	b.AddUser("doc@medilive.io", "secret", "Greg", "House", models.UserTypeDoctor)
	r := newRouter(t, api)

	t.Run("success stores session and redirects", func(t *testing.T) {
		w := send(r, http.MethodPost, "/login", request{form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"secret"},
		}})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))

		w = send(r, http.MethodGet, "/dashboard", request{cookies: w.Result().Cookies()})
		assert.Equal(t, "DoctorDashboard", w.Body.String())
	})

	t.Run("htmx success uses HX-Redirect", func(t *testing.T) {
		w := send(r, http.MethodPost, "/login", request{htmx: true, form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"secret"},
		}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
		assert.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("wrong password shows banner and leaves session alone", func(t *testing.T) {
		w := send(r, http.MethodPost, "/login", request{htmx: true, form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"nope"},
		}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "#login-response", w.Header().Get("HX-Retarget"))
		assert.Equal(t, "Invalid email or password", bannerText(t, w))
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("full page failure echoes email", func(t *testing.T) {
		w := send(r, http.MethodPost, "/login", request{form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"nope"},
		}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
		require.NoError(t, err)
		assert.Equal(t, "doc@medilive.io", doc.Find(`#login-form input[name="email"]`).AttrOr("value", ""))
		assert.Equal(t, 1, doc.Find("nav").Length())
	})

	t.Run("missing fields never reach the backend", func(t *testing.T) {
		before := b.Calls("POST /api/auth/login")
		w := send(r, http.MethodPost, "/login", request{htmx: true, form: url.Values{"email": {"doc@medilive.io"}}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgCredentialsRequired, bannerText(t, w))
		assert.Equal(t, before, b.Calls("POST /api/auth/login"))
	})

	t.Run("backend outage", func(t *testing.T) {
		b.Fail("POST /api/auth/login", http.StatusInternalServerError)
		defer b.Fail("POST /api/auth/login", 0)
		w := send(r, http.MethodPost, "/login", request{htmx: true, form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"secret"},
		}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("signed in visitor is sent to dashboard", func(t *testing.T) {
		w := send(r, http.MethodPost, "/login", request{form: url.Values{
			"email": {"doc@medilive.io"}, "password": {"secret"},
		}})
		cookies := w.Result().Cookies()
		w = send(r, http.MethodGet, "/login", request{cookies: cookies})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})
}

func TestSignupHandler(t *testing.T) {
	b, api := newBackend(t)
	b.AddUser("taken@medilive.io", "secret", "T", "Aken", models.UserTypePatient)
	r := newRouter(t, api)

	valid := func() url.Values {
		return url.Values{
			"firstName":       {"Cara"},
			"lastName":        {"Taker"},
			"email":           {"cara@medilive.io"},
			"userType":        {"caretaker"},
			"password":        {"pw123456"},
			"confirmPassword": {"pw123456"},
			"terms":           {"on"},
		}
	}

	rejects := []struct {
		name   string
		mutate func(url.Values)
		want   string
	}{
		{"password mismatch", func(v url.Values) { v.Set("confirmPassword", "other") }, msgPasswordMismatch},
		{"terms unchecked", func(v url.Values) { v.Del("terms") }, msgTermsRequired},
		{"missing last name", func(v url.Values) { v.Del("lastName") }, msgFieldsRequired},
		{"unknown account type", func(v url.Values) { v.Set("userType", "nurse") }, msgInvalidAccountType},
	}
	for _, tc := range rejects {
		t.Run(tc.name, func(t *testing.T) {
			form := valid()
			tc.mutate(form)
			w := send(r, http.MethodPost, "/signup", request{htmx: true, form: form})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "#signup-response", w.Header().Get("HX-Retarget"))
			assert.Equal(t, tc.want, bannerText(t, w))
			assert.Equal(t, 0, b.Calls("POST /api/auth/signup"))
		})
	}

	t.Run("duplicate email shows backend message", func(t *testing.T) {
		form := valid()
		form.Set("email", "taken@medilive.io")
		w := send(r, http.MethodPost, "/signup", request{form: form})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email already registered", bannerText(t, w))

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
		require.NoError(t, err)
		assert.Equal(t, "Cara", doc.Find(`input[name="firstName"]`).AttrOr("value", ""))
		assert.Equal(t, "", doc.Find(`input[name="password"]`).AttrOr("value", ""))
	})

	t.Run("success signs in", func(t *testing.T) {
		w := send(r, http.MethodPost, "/signup", request{form: valid()})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))

		w = send(r, http.MethodGet, "/dashboard", request{cookies: w.Result().Cookies()})
		assert.Equal(t, "CaretakerDashboard", w.Body.String())
	})
}

func TestLogoutHandler(t *testing.T) {
	b, api := newBackend(t)
	b.AddUser("pat@medilive.io", "secret", "Pat", "Ient", models.UserTypePatient)
	r := newRouter(t, api)

	w := send(r, http.MethodPost, "/login", request{form: url.Values{"email": {"pat@medilive.io"}, "password": {"secret"}}})
	cookies := w.Result().Cookies()
	w = send(r, http.MethodGet, "/dashboard", request{cookies: cookies})
	require.Equal(t, "GenericDashboard", w.Body.String())

	w = send(r, http.MethodPost, "/logout", request{cookies: cookies, htmx: true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", w.Header().Get("HX-Redirect"))

	w = send(r, http.MethodGet, "/dashboard", request{cookies: w.Result().Cookies()})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// Logging out without a session is harmless.
	w = send(r, http.MethodPost, "/logout", request{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLoginHandler_CollapsesConcurrentSubmissions(t *testing.T) {
	backend := new(MockBackend)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	user := models.UserProfile{ID: "3", FirstName: "Ada", UserType: models.UserTypeDoctor}

	backend.On("Login", client.LoginRequest{Email: "doc@medilive.io", Password: "secret"}).
		Run(func(mock.Arguments) {
			entered <- struct{}{}
			<-release
		}).
		Return(&client.AuthResponse{AccessToken: "tok", User: user}, nil).
		Once()

	r := newRouter(t, backend)
	form := url.Values{"email": {"doc@medilive.io"}, "password": {"secret"}}

	const submissions = 4
	codes := make([]int, submissions)
	var wg sync.WaitGroup
	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = send(r, http.MethodPost, "/login", request{form: form}).Code
		}()
	}

	start(0)
	<-entered
	for i := 1; i < submissions; i++ {
		start(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusSeeOther, code)
	}
	backend.AssertNumberOfCalls(t, "Login", 1)
}

func TestLoginHandler_IncompleteProfileIsNotStored(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Login", client.LoginRequest{Email: "anon@medilive.io", Password: "secret"}).
		Return(&client.AuthResponse{AccessToken: "tok", User: models.UserProfile{FirstName: "A", UserType: models.UserTypePatient}}, nil)
	r := newRouter(t, backend)

	w := send(r, http.MethodPost, "/login", request{form: url.Values{
		"email": {"anon@medilive.io"}, "password": {"secret"},
	}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, msgSessionFailed, bannerText(t, w))
	assert.Empty(t, w.Result().Cookies())

	w = send(r, http.MethodGet, "/dashboard", request{cookies: w.Result().Cookies()})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	backend.AssertExpectations(t)
}

func TestSessionFailureStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, sessionFailureStatus(fmt.Errorf("bad profile: %w", models.ErrValidation)))
	assert.Equal(t, http.StatusInternalServerError, sessionFailureStatus(errors.New("cookie write failed")))
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, outcomeInvalid, outcomeFor(&client.APIError{Status: 401}))
	assert.Equal(t, outcomeError, outcomeFor(&client.APIError{Status: 503}))
}
