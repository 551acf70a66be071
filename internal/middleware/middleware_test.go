package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/kdufoot/kdufoot/internal/auditctx"
	iauth "github.com/kdufoot/kdufoot/internal/auth"
	"github.com/kdufoot/kdufoot/internal/cache"
	"github.com/kdufoot/kdufoot/internal/database/testutil"
	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/services"
	"github.com/kdufoot/kdufoot/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "middleware-secret"})
	require.NoError(t, err)
	return svc
}

func bearer(t *testing.T, svc *iauth.JWTService, subject string, scopes ...string) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(iauth.AccessTokenInput{Subject: subject, Permissions: scopes})
	require.NoError(t, err)
	return "Bearer " + token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	jwt := newTestJWT(t)
	r := gin.New()
	r.GET("/secure", Auth(jwt), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		require.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
		require.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	}
}

func TestAuthStoresIdentityAndActor(t *testing.T) {
	jwt := newTestJWT(t)
	r := gin.New()

	var (
		subject string
		actor   auditctx.Actor
	)
	r.GET("/secure", RequestID(), Auth(jwt), func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		require.True(t, ok)
		subject = identity.Subject
		actor, _ = auditctx.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|coach"))
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auth0|coach", subject)
	require.Equal(t, "auth0|coach", actor.Subject)
	require.Equal(t, "req-42", actor.RequestID)
}

func newAccessFixture(t *testing.T) (*services.AccessService, *services.UserService) {
	t.Helper()

	db := testutil.OpenDB(t, testutil.Migrate())
	users, err := services.NewUserService(db, nil)
	require.NoError(t, err)
	access, err := services.NewAccessService(users, permissions.DefaultResolver())
	require.NoError(t, err)

	for subject, tier := range map[string]permissions.Tier{"auth0|free": permissions.TierFree, "auth0|ultime": permissions.TierUltime} {
		user, _, err := users.Sync(context.Background(), services.SyncUserInput{Subject: subject, Email: "x@club.fr"})
		require.NoError(t, err)
		_, err = users.SetSubscription(context.Background(), user.ID, tier)
		require.NoError(t, err)
	}
	return access, users
}

func TestRequireTierDeniesWithUpgradeDetails(t *testing.T) {
	jwt := newTestJWT(t)
	access, _ := newAccessFixture(t)

	r := gin.New()
	r.POST("/videos/batch", Auth(jwt), RequireTier(access, permissions.VideosAnalyzeBatch), func(c *gin.Context) {
		require.Equal(t, permissions.TierUltime, c.MustGet(CtxTierKey))
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/videos/batch", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|free"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	payload := decode(t, w)
	require.Equal(t, "UPGRADE_REQUIRED", payload.Error.Code)
	details := payload.Error.Details.(map[string]any)
	require.Equal(t, "Free", details["tier"])
	require.Equal(t, []any{"videos:analyze:batch"}, details["missing"])
	require.Equal(t, "Ultime", details["upgrade_to"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/videos/batch", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|ultime"))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestRequireTierUnknownUser(t *testing.T) {
	jwt := newTestJWT(t)
	access, _ := newAccessFixture(t)

	r := gin.New()
	r.GET("/x", Auth(jwt), RequireTier(access, permissions.ReadAPI), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|ghost"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "USER_NOT_FOUND", decode(t, w).Error.Code)
}

func TestRequirePermissionParam(t *testing.T) {
	jwt := newTestJWT(t)
	access, _ := newAccessFixture(t)

	r := gin.New()
	r.POST("/quotas/:permission/consume", Auth(jwt), RequirePermissionParam(access, "permission"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve := func(path, subject string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", bearer(t, jwt, subject))
		r.ServeHTTP(w, req)
		return w
	}

	w := serve("/quotas/videos:analyze:batch/consume", "auth0|free")
	require.Equal(t, http.StatusForbidden, w.Code)
	payload := decode(t, w)
	require.Equal(t, "UPGRADE_REQUIRED", payload.Error.Code)
	require.Equal(t, []any{"videos:analyze:batch"}, payload.Error.Details.(map[string]any)["missing"])

	require.Equal(t, http.StatusOK, serve("/quotas/videos:analyze:batch/consume", "auth0|ultime").Code)

	w = serve("/quotas/teleport/consume", "auth0|ultime")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "BAD_REQUEST", decode(t, w).Error.Code)
}

func TestRequireScope(t *testing.T) {
	jwt := newTestJWT(t)
	r := gin.New()
	r.PUT("/admin", Auth(jwt), RequireScope(permissions.AdminBilling), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|coach"))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, jwt, "auth0|billing", "admin:billing"))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitUsesStore(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(store, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	now = now.Add(time.Minute)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflightAndSimpleRequests(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.kdufoot.fr"}))
	r.GET("/resource", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	preflight := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/resource", nil)
	req.Header.Set("Origin", "https://app.kdufoot.fr")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	r.ServeHTTP(preflight, req)
	require.Equal(t, "https://app.kdufoot.fr", preflight.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, preflight.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	w := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Origin", "https://app.kdufoot.fr")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
	require.Equal(t, "https://app.kdufoot.fr", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(true))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.Len(t, generated, 36)
	require.Equal(t, generated, w.Body.String())
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	r.ServeHTTP(w, req)
	require.Equal(t, "client-supplied", w.Header().Get(RequestIDHeader))
}
