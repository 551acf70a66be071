package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/quota"
	"github.com/kdufoot/kdufoot/internal/services"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/logger"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// AdminHandler serves the billing back office. Routes are guarded by the admin:billing scope.
type AdminHandler struct {
	users  *services.UserService
	audit  *services.AuditService
	quotas *quota.Enforcer
}

type setSubscriptionRequest struct {
	Tier string `json:"tier" validate:"required,tier"`
}

type adjustQuotaRequest struct {
	Used *int64 `json:"used" validate:"required,min=0"`
}

func NewAdminHandler(users *services.UserService, audit *services.AuditService, quotas *quota.Enforcer) *AdminHandler {
	return &AdminHandler{users: users, audit: audit, quotas: quotas}
}

// PUT /api/admin/users/:id/subscription
func (h *AdminHandler) SetSubscription(c *gin.Context) {
	var body setSubscriptionRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tier, err := permissions.ParseTier(body.Tier)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}

	user, err := h.users.SetSubscription(requestContext(c), c.Param("id"), tier)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/admin/users/:id/subscription/history
func (h *AdminHandler) SubscriptionHistory(c *gin.Context) {
	ctx := requestContext(c)
	user, err := h.users.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters: services.AuditFilters{
			Action:   services.AuditActionSubscription,
			Resource: user.ID,
		},
	}
	logs, total, err := h.audit.List(ctx, opts)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	page, perPage := opts.Bounds()
	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{Page: page, PerPage: perPage, Total: int(total)})
}

// DELETE /api/admin/users/:id/club
func (h *AdminHandler) UnlinkClub(c *gin.Context) {
	user, err := h.users.UnlinkClub(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PUT /api/admin/users/:id/quotas/:permission
func (h *AdminHandler) AdjustQuota(c *gin.Context) {
	var body adjustQuotaRequest
	if !bindAndValidate(c, &body) {
		return
	}
	h.setQuota(c, *body.Used)
}

// DELETE /api/admin/users/:id/quotas/:permission
func (h *AdminHandler) ResetQuota(c *gin.Context) {
	h.setQuota(c, 0)
}

func (h *AdminHandler) setQuota(c *gin.Context, used int64) {
	perm, ok := permissionParam(c)
	if !ok {
		return
	}

	ctx := requestContext(c)
	user, err := h.users.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	usage, err := h.quotas.Adjust(ctx, user.Subject, perm, used)
	if err != nil {
		if stderrors.Is(err, quota.ErrNoLimit) {
			response.Error(c, errors.NewBadRequest(err.Error()))
			return
		}
		response.Error(c, err)
		return
	}

	if err := h.audit.Log(ctx, services.AuditEntry{
		Action:   services.AuditActionQuota,
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"permission": perm, "used": usage.Used, "period": usage.Period},
	}); err != nil {
		logger.WithModule("admin").Warn("quota audit entry dropped", zap.Error(err))
	}

	response.Success(c, http.StatusOK, usage)
}
