package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/api"
	"github.com/kdufoot/kdufoot/internal/app"
	iauth "github.com/kdufoot/kdufoot/internal/auth"
	"github.com/kdufoot/kdufoot/internal/cache"
	sharedtestutil "github.com/kdufoot/kdufoot/internal/database/testutil"
	"github.com/kdufoot/kdufoot/internal/models"
	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Store  *cache.MemoryStore
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
// Quota and rate limit counters live in a memory store.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.OpenDB(t, sharedtestutil.Seed())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	env := &Env{
		T:     t,
		DB:    db,
		JWT:   jwtSvc,
		Store: cache.NewMemoryStore(nil),
	}

	cfg := &app.Config{
		Server: app.ServerConfig{
			CORS:      app.CORSConfig{AllowedOrigins: []string{"https://app.kdufoot.fr"}},
			RateLimit: app.RateLimitConfig{Requests: 1000, Window: time.Minute},
		},
		Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true}},
	}

	router, err := api.NewRouter(db, jwtSvc, cfg, env.Store)
	require.NoError(t, err)
	env.Router = router

	return env
}

// Token issues a bearer token for subject carrying scopes.
func (e *Env) Token(subject, email string, scopes ...string) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		Subject:     subject,
		Email:       email,
		Permissions: scopes,
	})
	require.NoError(e.T, err)
	return token
}

// CreateUser inserts a user on tier and returns the record with a bearer token for it.
func (e *Env) CreateUser(subject string, tier permissions.Tier) (*models.User, string) {
	e.T.Helper()

	email := subject + "@club.fr"
	user := &models.User{
		Subject:      subject,
		Email:        email,
		FirstName:    "Coach",
		Subscription: string(tier),
	}
	require.NoError(e.T, e.DB.WithContext(context.Background()).Create(user).Error)
	return user, e.Token(subject, email)
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals a raw payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
