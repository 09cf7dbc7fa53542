package api

import (
	"github.com/gin-gonic/gin"

	"github.com/imigrasi-dev/wna-registry/internal/handlers"
)

func registerForeignOrganizationRoutes(api *gin.RouterGroup, handler *handlers.ForeignOrganizationHandler) {
	group := api.Group("/foreign-organizations")
	{
		group.GET("", handler.List)
		group.GET("/countries", handler.Countries)
		group.GET("/:id", handler.Get)
		group.POST("", handler.Create)
		group.PATCH("/:id", handler.Update)
		group.PATCH("/:id/status", handler.UpdateStatus)
		group.DELETE("/:id", handler.Delete)
	}
}
