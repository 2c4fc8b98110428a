package interfaces_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"jobboard/config"
	"jobboard/domain"
	"jobboard/infrastructure"
	"jobboard/infrastructure/testdb"
	"jobboard/interfaces"
	"jobboard/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
	users  *service.UserService
}

func testConfig() *config.Config {
	return &config.Config{
		Web: config.WebConfig{LoginURL: "/accounts/login/", PageSize: 20},
		API: config.APIConfig{PageSize: 20, MaxPageSize: 100},
	}
}

func newServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	db := testdb.New(t)
	log := zaptest.NewLogger(t).Sugar()
	paging := service.Paging{Size: cfg.API.PageSize, Max: cfg.API.MaxPageSize}

	jobRepo := infrastructure.NewJobRepository(db)
	appRepo := infrastructure.NewApplicationRepository(db)
	catRepo := infrastructure.NewCategoryRepository(db)
	notifier := service.NewNotificationService(appRepo, infrastructure.LogMailer{Log: log}, "")

	svc := interfaces.Services{
		Jobs:         service.NewJobService(jobRepo, catRepo, nil, paging, log),
		Applications: service.NewApplicationService(appRepo, notifier, nil, paging, log),
		Categories:   service.NewCategoryService(catRepo, log),
		Users:        service.NewUserService(infrastructure.NewUserRepository(db)),
	}
	engine, err := interfaces.NewRouter(svc, cfg, log)
	require.NoError(t, err)
	return &server{t: t, db: db, engine: engine, users: svc.Users}
}

// user registers a user and returns it with its API token.
func (s *server) user(email string, staff bool) (*domain.User, string) {
	s.t.Helper()
	u, token, err := s.users.Create(context.Background(), email, staff)
	require.NoError(s.t, err)
	return u, token
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

const testCSRFToken = "0f8e2c1a-csrf-test-token"

// page requests an HTML page, authenticating with the token cookie. Forms
// carry a CSRF token matching the CSRF cookie.
func (s *server) page(method, path, token string, form url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if form != nil {
		signed := url.Values{interfaces.CSRFField: {testCSRFToken}}
		for k, v := range form {
			signed[k] = v
		}
		req = httptest.NewRequest(method, path, strings.NewReader(signed.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: interfaces.CSRFCookie, Value: testCSRFToken})
	if token != "" {
		req.AddCookie(&http.Cookie{Name: interfaces.TokenCookie, Value: token})
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// raw sends req through the engine as is.
func (s *server) raw(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
