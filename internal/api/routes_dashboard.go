package api

import (
	"github.com/gin-gonic/gin"

	"github.com/imigrasi-dev/wna-registry/internal/handlers"
)

func registerDashboardRoutes(api *gin.RouterGroup, handler *handlers.DashboardHandler) {
	group := api.Group("/dashboard")
	{
		group.GET("", handler.Overview)
		group.GET("/summary", handler.Summary)
		group.GET("/trends", handler.MonthlyTrend)
	}
}
