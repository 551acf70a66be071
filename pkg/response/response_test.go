package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kdufoot/kdufoot/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, *gin.Context, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	write(ctx)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, ctx, body
}

func TestSuccessOmitsErrorAndMeta(t *testing.T) {
	rec, _, body := render(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"tier": "Pro"})
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, map[string]any{"tier": "Pro"}, body["data"])
	require.NotContains(t, body, "error")
	require.NotContains(t, body, "meta")
}

func TestSuccessWithMeta(t *testing.T) {
	_, _, body := render(t, func(c *gin.Context) {
		SuccessWithMeta(c, http.StatusOK, []string{}, &Meta{Page: 2, PerPage: 10, Total: 0})
	})

	require.Equal(t, map[string]any{"page": float64(2), "per_page": float64(10), "total": float64(0)}, body["meta"])
}

func TestErrorCarriesCodeAndDetails(t *testing.T) {
	rec, ctx, body := render(t, func(c *gin.Context) {
		Error(c, appErrors.ErrUpgradeRequired.WithDetails(map[string]any{"upgrade_to": "Pro"}))
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, map[string]any{
		"code":    "UPGRADE_REQUIRED",
		"message": appErrors.ErrUpgradeRequired.Message,
		"details": map[string]any{"upgrade_to": "Pro"},
	}, body["error"])
	// client errors stay out of the access log
	require.Empty(t, ctx.Errors)
}

func TestErrorHidesInternalFailures(t *testing.T) {
	rec, ctx, body := render(t, func(c *gin.Context) {
		Error(c, errors.New("sql: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errInfo := body["error"].(map[string]any)
	require.Equal(t, "INTERNAL_SERVER_ERROR", errInfo["code"])
	require.NotContains(t, errInfo["message"], "sql")
	require.Len(t, ctx.Errors, 1)
}

func TestAbortStopsChain(t *testing.T) {
	_, ctx, _ := render(t, func(c *gin.Context) {
		Abort(c, appErrors.ErrUnauthorized)
	})
	require.True(t, ctx.IsAborted())
}
