package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/handlers"
)

func registerAccessRoutes(api *gin.RouterGroup, handler *handlers.AccessHandler) {
	access := api.Group("/access")
	{
		access.GET("/me", handler.Me)
		access.POST("/check", handler.Check)
	}
}
