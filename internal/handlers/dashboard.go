package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/services"
	"github.com/imigrasi-dev/wna-registry/pkg/response"
)

// DashboardHandler serves the aggregated dashboard panels.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(db *gorm.DB, windowDays int) (*DashboardHandler, error) {
	service, err := services.NewDashboardService(db, windowDays)
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{service: service}, nil
}

// Overview returns every dashboard panel in one payload.
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(requestContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// Summary returns the headline counters only.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// MonthlyTrend returns registration counts per calendar month.
func (h *DashboardHandler) MonthlyTrend(c *gin.Context) {
	months := parseIntQuery(c, "months", 6)
	trend, err := h.service.MonthlyTrend(requestContext(c), time.Now().UTC(), months)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, trend)
}
