package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/handlers"
)

func registerPlanRoutes(api *gin.RouterGroup, handler *handlers.PlanHandler) {
	api.GET("/plans", handler.List)
}
