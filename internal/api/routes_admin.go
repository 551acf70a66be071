package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/handlers"
	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/internal/permissions"
)

func registerAdminRoutes(api *gin.RouterGroup, handler *handlers.AdminHandler) {
	admin := api.Group("/admin", middleware.RequireScope(permissions.AdminBilling))
	{
		admin.PUT("/users/:id/subscription", handler.SetSubscription)
		admin.GET("/users/:id/subscription/history", handler.SubscriptionHistory)
		admin.DELETE("/users/:id/club", handler.UnlinkClub)
		admin.PUT("/users/:id/quotas/:permission", handler.AdjustQuota)
		admin.DELETE("/users/:id/quotas/:permission", handler.ResetQuota)
	}
}
