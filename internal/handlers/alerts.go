package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	"github.com/imigrasi-dev/wna-registry/internal/realtime"
	"github.com/imigrasi-dev/wna-registry/internal/services"
	"github.com/imigrasi-dev/wna-registry/pkg/metrics"
	"github.com/imigrasi-dev/wna-registry/pkg/response"
)

// AlertHandler exposes HTTP endpoints for alert notifications, the manual scan
// trigger and the realtime alert stream.
type AlertHandler struct {
	service    *services.AlertService
	classifier *services.ClassifierService
	hub        *realtime.Hub
}

// NewAlertHandler constructs an alert handler.
func NewAlertHandler(db *gorm.DB, classifier *services.ClassifierService, hub *realtime.Hub) (*AlertHandler, error) {
	service, err := services.NewAlertService(db, hub)
	if err != nil {
		return nil, err
	}
	return &AlertHandler{
		service:    service,
		classifier: classifier,
		hub:        hub,
	}, nil
}

type createAlertRequest struct {
	SubjectKind string `json:"subject_kind" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
	AlertType   string `json:"alert_type" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message"`
	Severity    string `json:"severity" validate:"required"`
	DueDate     *Date  `json:"due_date"`
}

// List returns paginated alerts with optional filters.
func (h *AlertHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 25)

	filters := services.AlertFilters{
		SubjectKind: models.SubjectKind(c.Query("subject_kind")),
		SubjectID:   c.Query("subject_id"),
		AlertType:   models.AlertType(c.Query("alert_type")),
		Severity:    models.AlertSeverity(c.Query("severity")),
		Status:      models.AlertStatus(c.Query("status")),
		OpenOnly:    c.Query("open") == "true",
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if parsed, err := time.Parse(dateFormat, since); err == nil {
			filters.Since = &parsed
		}
	}
	if until := strings.TrimSpace(c.Query("until")); until != "" {
		if parsed, err := time.Parse(dateFormat, until); err == nil {
			filters.Until = &parsed
		}
	}

	alerts, total, err := h.service.List(requestContext(c), services.AlertListOptions{
		Page:     page,
		PageSize: perPage,
		Filters:  filters,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, alerts, paginationMeta(page, perPage, total))
}

// Get returns a single alert together with its resolved subject.
func (h *AlertHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	alert, err := h.service.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	subject, err := h.service.Subject(requestContext(c), alert)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"alert":   alert,
		"subject": subject,
	})
}

// Create raises an alert manually, for example a document-missing case spotted
// by an officer.
func (h *AlertHandler) Create(c *gin.Context) {
	var payload createAlertRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.CreateAlertInput{
		SubjectKind: models.SubjectKind(payload.SubjectKind),
		SubjectID:   payload.SubjectID,
		AlertType:   models.AlertType(payload.AlertType),
		Title:       payload.Title,
		Message:     payload.Message,
		Severity:    models.AlertSeverity(payload.Severity),
	}
	if payload.DueDate != nil && !payload.DueDate.IsZero() {
		input.DueDate = &payload.DueDate.Time
	}

	alert, err := h.service.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, alert)
}

// MarkRead moves an unread alert to read.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	h.applyTransition(c, h.service.MarkRead)
}

// Acknowledge advances an alert to acknowledged.
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	h.applyTransition(c, h.service.Acknowledge)
}

// Resolve moves an alert to its terminal resolved state.
func (h *AlertHandler) Resolve(c *gin.Context) {
	h.applyTransition(c, h.service.Resolve)
}

// UpdateStatus applies an arbitrary workflow transition.
func (h *AlertHandler) UpdateStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var payload updateStatusRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	alert, err := h.service.UpdateStatus(requestContext(c), id, models.AlertStatus(payload.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, alert)
}

// Delete removes an alert.
func (h *AlertHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Scan triggers a classification pass on demand and reports what it found.
func (h *AlertHandler) Scan(c *gin.Context) {
	report, err := h.classifier.Run(requestContext(c), time.Now().UTC())

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ScanRuns.WithLabelValues("manual", result).Inc()

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// Stream upgrades the connection to a WebSocket delivering alert lifecycle events.
func (h *AlertHandler) Stream(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request)
}

func (h *AlertHandler) applyTransition(c *gin.Context, fn func(ctx context.Context, id string) (*models.AlertNotification, error)) {
	id := strings.TrimSpace(c.Param("id"))

	alert, err := fn(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, alert)
}
