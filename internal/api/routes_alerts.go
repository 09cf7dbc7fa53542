package api

import (
	"github.com/gin-gonic/gin"

	"github.com/imigrasi-dev/wna-registry/internal/handlers"
)

func registerAlertRoutes(api *gin.RouterGroup, handler *handlers.AlertHandler) {
	group := api.Group("/alerts")
	{
		group.GET("", handler.List)
		group.GET("/stream", handler.Stream)
		group.GET("/:id", handler.Get)
		group.POST("", handler.Create)
		group.POST("/scan", handler.Scan)
		group.POST("/:id/read", handler.MarkRead)
		group.POST("/:id/acknowledge", handler.Acknowledge)
		group.POST("/:id/resolve", handler.Resolve)
		group.PATCH("/:id/status", handler.UpdateStatus)
		group.DELETE("/:id", handler.Delete)
	}
}
