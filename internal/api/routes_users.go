package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/handlers"
	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/services"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, access *services.AccessService) {
	users := api.Group("/users")
	{
		users.POST("/sync", handler.Sync)
		users.GET("/me", handler.Me)
		users.PUT("/me", handler.Update)
		users.POST("/link-club", middleware.RequireTier(access, permissions.ReadAPI), handler.LinkClub)
	}
}
