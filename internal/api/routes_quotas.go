package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/handlers"
	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/internal/services"
)

func registerQuotaRoutes(api *gin.RouterGroup, handler *handlers.QuotaHandler, access *services.AccessService) {
	quotas := api.Group("/quotas")
	{
		quotas.GET("", handler.List)
		quotas.GET("/:permission", handler.Status)
		quotas.POST("/:permission/consume", middleware.RequirePermissionParam(access, "permission"), handler.Consume)
	}
}
