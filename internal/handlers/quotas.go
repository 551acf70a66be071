package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/quota"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// QuotaHandler exposes usage counters. Reading a counter never consumes it.
type QuotaHandler struct {
	quotas *quota.Enforcer
}

func NewQuotaHandler(quotas *quota.Enforcer) *QuotaHandler {
	return &QuotaHandler{quotas: quotas}
}

// GET /api/quotas
func (h *QuotaHandler) List(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	rules := h.quotas.Rules()
	usage := make([]quota.Usage, 0, len(rules))
	for _, rule := range rules {
		status, err := h.quotas.Status(requestContext(c), subject, rule.Permission)
		if err != nil {
			response.Error(c, err)
			return
		}
		usage = append(usage, status)
	}
	response.Success(c, http.StatusOK, usage)
}

// GET /api/quotas/:permission
func (h *QuotaHandler) Status(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	perm, ok := permissionParam(c)
	if !ok {
		return
	}

	usage, err := h.quotas.Status(requestContext(c), subject, perm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, usage)
}

// POST /api/quotas/:permission/consume
// The route is gated by middleware.RequirePermissionParam, so the tier already holds the permission.
func (h *QuotaHandler) Consume(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	perm, ok := permissionParam(c)
	if !ok {
		return
	}

	usage, err := h.quotas.Consume(requestContext(c), subject, perm)
	if err != nil {
		var exceeded *quota.ExceededError
		if stderrors.As(err, &exceeded) {
			c.Header("Retry-After", exceeded.ResetsAt.UTC().Format(http.TimeFormat))
			response.Error(c, errors.ErrQuotaExceeded.WithDetails(usage).WithInternal(err))
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, usage)
}

func permissionParam(c *gin.Context) (permissions.Permission, bool) {
	perm, err := permissions.Parse(c.Param("permission"))
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return "", false
	}
	return perm, true
}
