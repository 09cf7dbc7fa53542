package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	"github.com/imigrasi-dev/wna-registry/internal/realtime"
	apperrors "github.com/imigrasi-dev/wna-registry/pkg/errors"
	"github.com/imigrasi-dev/wna-registry/pkg/metrics"
)

// CreateAlertInput defines attributes required to raise an alert.
type CreateAlertInput struct {
	SubjectKind models.SubjectKind
	SubjectID   string
	AlertType   models.AlertType
	Title       string
	Message     string
	Severity    models.AlertSeverity
	DueDate     *time.Time
}

// AlertFilters encapsulates optional filters when querying alerts.
type AlertFilters struct {
	SubjectKind models.SubjectKind
	SubjectID   string
	AlertType   models.AlertType
	Severity    models.AlertSeverity
	Status      models.AlertStatus
	OpenOnly    bool
	Since       *time.Time
	Until       *time.Time
}

// AlertListOptions controls pagination and filtering for alert queries.
type AlertListOptions struct {
	Page     int
	PageSize int
	Filters  AlertFilters
}

// AlertSubject resolves the weak polymorphic reference of an alert. Dangling
// holds when the referenced record no longer exists; this is tolerated and
// surfaced as a data-quality flag rather than an error.
type AlertSubject struct {
	Kind         models.SubjectKind          `json:"kind"`
	National     *models.ForeignNational     `json:"foreign_national,omitempty"`
	Organization *models.ForeignOrganization `json:"foreign_organization,omitempty"`
	Dangling     bool                        `json:"dangling"`
}

// AlertService persists alert notifications and drives their status workflow.
type AlertService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewAlertService constructs an AlertService.
func NewAlertService(db *gorm.DB, hub *realtime.Hub) (*AlertService, error) {
	if db == nil {
		return nil, errors.New("alert service: db is required")
	}
	return &AlertService{db: db, hub: hub}, nil
}

// Create raises a new alert for a subject. For any alert type, at most one
// open alert per (subject kind, subject id, type) may exist. The duplicate
// check runs inside the insert transaction, and the ux_alerts_open unique
// index backs it at the database level: two scans racing past the check on a
// read-committed backend still converge, the loser's insert violates the
// index. Duplicate attempts return ErrDuplicateAlert, which callers treat as
// a no-op.
func (s *AlertService) Create(ctx context.Context, input CreateAlertInput) (*models.AlertNotification, error) {
	ctx = ensureContext(ctx)

	if !input.SubjectKind.Valid() {
		return nil, apperrors.NewBadRequest("subject_kind is not a recognised value")
	}
	if strings.TrimSpace(input.SubjectID) == "" {
		return nil, apperrors.NewBadRequest("subject_id is required")
	}
	if !input.AlertType.Valid() {
		return nil, apperrors.NewBadRequest("alert_type is not a recognised value")
	}
	if !input.Severity.Valid() {
		return nil, apperrors.NewBadRequest("severity is not a recognised value")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	alert := &models.AlertNotification{
		SubjectKind: input.SubjectKind,
		SubjectID:   strings.TrimSpace(input.SubjectID),
		AlertType:   input.AlertType,
		Title:       strings.TrimSpace(input.Title),
		Message:     strings.TrimSpace(input.Message),
		Severity:    input.Severity,
		Status:      models.AlertStatusUnread,
		DueDate:     input.DueDate,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		err := tx.Model(&models.AlertNotification{}).
			Where("subject_kind = ? AND subject_id = ? AND alert_type = ? AND status <> ?",
				alert.SubjectKind, alert.SubjectID, alert.AlertType, models.AlertStatusResolved).
			Count(&open).Error
		if err != nil {
			return fmt.Errorf("alert service: check open alerts: %w", err)
		}
		if open > 0 {
			return apperrors.ErrDuplicateAlert
		}
		return tx.Create(alert).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateAlert) || isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateAlert
		}
		return nil, fmt.Errorf("alert service: create alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.AlertType)).Inc()
	s.refreshOpenGauge(ctx)
	s.broadcast("alert.created", alert)
	return alert, nil
}

// GetByID loads a single alert.
func (s *AlertService) GetByID(ctx context.Context, id string) (*models.AlertNotification, error) {
	ctx = ensureContext(ctx)

	var alert models.AlertNotification
	err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("alert service: get alert: %w", err)
	}
	return &alert, nil
}

// List returns paginated alerts ordered by creation time descending.
func (s *AlertService) List(ctx context.Context, opts AlertListOptions) ([]models.AlertNotification, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(opts.Page, opts.PageSize, 25, 200)

	var (
		results []models.AlertNotification
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AlertNotification{})
	query = applyAlertFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("alert service: count alerts: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("alert service: list alerts: %w", err)
	}

	return results, total, nil
}

// MarkRead moves an unread alert to read.
func (s *AlertService) MarkRead(ctx context.Context, id string) (*models.AlertNotification, error) {
	return s.transition(ctx, id, func(alert *models.AlertNotification, now time.Time) error {
		return alert.MarkRead(now)
	})
}

// Acknowledge advances an alert to acknowledged, stamping acknowledged_at
// exactly once. Acknowledging twice is a no-op.
func (s *AlertService) Acknowledge(ctx context.Context, id string) (*models.AlertNotification, error) {
	return s.transition(ctx, id, func(alert *models.AlertNotification, now time.Time) error {
		return alert.Acknowledge(now)
	})
}

// Resolve moves an alert to its terminal state, stamping resolved_at exactly
// once. A resolved alert accepts no further mutation.
func (s *AlertService) Resolve(ctx context.Context, id string) (*models.AlertNotification, error) {
	return s.transition(ctx, id, func(alert *models.AlertNotification, now time.Time) error {
		return alert.Resolve(now)
	})
}

// UpdateStatus applies an arbitrary workflow transition, rejecting regressions.
func (s *AlertService) UpdateStatus(ctx context.Context, id string, status models.AlertStatus) (*models.AlertNotification, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("status is not a recognised value")
	}
	return s.transition(ctx, id, func(alert *models.AlertNotification, now time.Time) error {
		return alert.Transition(status, now)
	})
}

func (s *AlertService) transition(ctx context.Context, id string, apply func(*models.AlertNotification, time.Time) error) (*models.AlertNotification, error) {
	ctx = ensureContext(ctx)

	alert, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := alert.Status
	if err := apply(alert, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, fmt.Errorf("alert service: transition alert: %w", err)
	}
	if alert.Status == before {
		return alert, nil
	}

	updates := map[string]any{"status": alert.Status}
	if alert.AcknowledgedAt != nil {
		updates["acknowledged_at"] = *alert.AcknowledgedAt
	}
	if alert.ResolvedAt != nil {
		updates["resolved_at"] = *alert.ResolvedAt
	}
	if alert.Status == models.AlertStatusResolved {
		updates["open_marker"] = nil
	}

	if err := s.db.WithContext(ctx).Model(alert).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("alert service: persist transition: %w", err)
	}

	s.refreshOpenGauge(ctx)
	s.broadcast("alert.updated", alert)
	return alert, nil
}

// Delete removes an alert (administrative action).
func (s *AlertService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.AlertNotification{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("alert service: delete alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.refreshOpenGauge(ctx)
	s.broadcast("alert.deleted", &models.AlertNotification{BaseModel: models.BaseModel{ID: id}})
	return nil
}

// Subject resolves the alert's weak reference to its subject record. A
// missing target marks the result as dangling instead of failing.
func (s *AlertService) Subject(ctx context.Context, alert *models.AlertNotification) (*AlertSubject, error) {
	ctx = ensureContext(ctx)

	subject := &AlertSubject{Kind: alert.SubjectKind}
	switch alert.SubjectKind {
	case models.SubjectKindNational:
		var national models.ForeignNational
		err := s.db.WithContext(ctx).First(&national, "id = ?", alert.SubjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			subject.Dangling = true
			return subject, nil
		}
		if err != nil {
			return nil, fmt.Errorf("alert service: resolve national subject: %w", err)
		}
		subject.National = &national
	case models.SubjectKindOrganization:
		var org models.ForeignOrganization
		err := s.db.WithContext(ctx).First(&org, "id = ?", alert.SubjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			subject.Dangling = true
			return subject, nil
		}
		if err != nil {
			return nil, fmt.Errorf("alert service: resolve organization subject: %w", err)
		}
		subject.Organization = &org
	default:
		subject.Dangling = true
	}

	return subject, nil
}

// HasOpenAlert reports whether an unresolved alert of the given type exists
// for the subject.
func (s *AlertService) HasOpenAlert(ctx context.Context, kind models.SubjectKind, subjectID string, alertType models.AlertType) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.AlertNotification{}).
		Where("subject_kind = ? AND subject_id = ? AND alert_type = ? AND status <> ?",
			kind, subjectID, alertType, models.AlertStatusResolved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("alert service: check open alerts: %w", err)
	}
	return count > 0, nil
}

func (s *AlertService) refreshOpenGauge(ctx context.Context) {
	var open int64
	err := s.db.WithContext(ctx).Model(&models.AlertNotification{}).
		Where("status <> ?", models.AlertStatusResolved).
		Count(&open).Error
	if err == nil {
		metrics.OpenAlerts.Set(float64(open))
	}
}

func (s *AlertService) broadcast(event string, alert *models.AlertNotification) {
	if s.hub == nil {
		return
	}
	payload := realtime.Event{Event: event, AlertID: alert.ID}
	if event != "alert.deleted" {
		payload.Alert = alert
	}
	s.hub.Broadcast(payload)
}

func applyAlertFilters(query *gorm.DB, filters AlertFilters) *gorm.DB {
	if filters.SubjectKind != "" {
		query = query.Where("subject_kind = ?", filters.SubjectKind)
	}
	if filters.SubjectID != "" {
		query = query.Where("subject_id = ?", filters.SubjectID)
	}
	if filters.AlertType != "" {
		query = query.Where("alert_type = ?", filters.AlertType)
	}
	if filters.Severity != "" {
		query = query.Where("severity = ?", filters.Severity)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.OpenOnly {
		query = query.Where("status <> ?", models.AlertStatusResolved)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
