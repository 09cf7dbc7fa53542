package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	apperrors "github.com/imigrasi-dev/wna-registry/pkg/errors"
	"github.com/imigrasi-dev/wna-registry/pkg/logger"
)

// DefaultExpiryWindowDays is the look-ahead window for expiring-soon alerts.
const DefaultExpiryWindowDays = 30

const dueDateFormat = "2006-01-02"

// ScanReport summarises a single classification pass.
type ScanReport struct {
	ExpiredCorrected int `json:"expired_corrected"`
	PermitAlerts     int `json:"permit_alerts"`
	LicenseAlerts    int `json:"license_alerts"`
	OverstayAlerts   int `json:"overstay_alerts"`
}

// Total returns the number of alerts raised during the pass.
func (r ScanReport) Total() int {
	return r.PermitAlerts + r.LicenseAlerts + r.OverstayAlerts
}

// ClassifierService evaluates the subject population against the current date
// and raises alerts when a subject crosses a threshold. Every rule is
// idempotent: re-running a scan over an unchanged population creates nothing
// beyond the first pass, and a scan interrupted midway is safe to resume.
type ClassifierService struct {
	db         *gorm.DB
	alerts     *AlertService
	windowDays int
	log        *zap.Logger
}

// NewClassifierService constructs a ClassifierService. A non-positive
// windowDays falls back to DefaultExpiryWindowDays.
func NewClassifierService(db *gorm.DB, alerts *AlertService, windowDays int) (*ClassifierService, error) {
	if db == nil {
		return nil, errors.New("classifier service: db is required")
	}
	if alerts == nil {
		return nil, errors.New("classifier service: alert service is required")
	}
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	return &ClassifierService{
		db:         db,
		alerts:     alerts,
		windowDays: windowDays,
		log:        logger.WithModule("classifier"),
	}, nil
}

// WindowDays returns the configured expiring-soon look-ahead in days.
func (s *ClassifierService) WindowDays() int {
	return s.windowDays
}

// Run executes a full classification pass: status corrections for lapsed
// permits first, then expiring-soon detection, then overstay detection.
// Per-record failures are collected and reported without aborting the batch.
func (s *ClassifierService) Run(ctx context.Context, now time.Time) (ScanReport, error) {
	ctx = ensureContext(ctx)

	var (
		report ScanReport
		errs   error
	)

	corrected, err := s.ClassifyExpired(ctx, now)
	report.ExpiredCorrected = corrected
	errs = multierr.Append(errs, err)

	permits, licenses, err := s.ClassifyExpiringSoon(ctx, now)
	report.PermitAlerts = permits
	report.LicenseAlerts = licenses
	errs = multierr.Append(errs, err)

	overstays, err := s.ClassifyOverstay(ctx, now)
	report.OverstayAlerts = overstays
	errs = multierr.Append(errs, err)

	s.log.Info("classification pass finished",
		zap.Int("expired_corrected", report.ExpiredCorrected),
		zap.Int("permit_alerts", report.PermitAlerts),
		zap.Int("license_alerts", report.LicenseAlerts),
		zap.Int("overstay_alerts", report.OverstayAlerts),
	)

	return report, errs
}

// ClassifyExpired transitions active subjects whose expiry date lies strictly
// in the past to the expired status. This is a status correction only;
// overstay is an externally asserted state and is never derived here.
func (s *ClassifierService) ClassifyExpired(ctx context.Context, now time.Time) (int, error) {
	ctx = ensureContext(ctx)

	today := startOfDay(now)
	result := s.db.WithContext(ctx).
		Model(&models.ForeignNational{}).
		Where("status = ? AND permit_expiry_date < ?", models.NationalStatusActive, today).
		Update("status", models.NationalStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("classifier service: correct expired permits: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// ClassifyExpiringSoon raises one open alert per subject whose expiry date
// falls inside [now, now+windowDays], both ends inclusive. Subjects without
// an expiry date are never selected. Returns the number of permit and
// license alerts created.
func (s *ClassifierService) ClassifyExpiringSoon(ctx context.Context, now time.Time) (int, int, error) {
	ctx = ensureContext(ctx)

	windowStart := startOfDay(now)
	windowEnd := windowStart.AddDate(0, 0, s.windowDays+1) // exclusive upper bound, covers the whole final day

	var errs error

	var nationals []models.ForeignNational
	err := s.db.WithContext(ctx).
		Where("status = ? AND permit_expiry_date >= ? AND permit_expiry_date < ?",
			models.NationalStatusActive, windowStart, windowEnd).
		Order("permit_expiry_date ASC").
		Find(&nationals).Error
	if err != nil {
		return 0, 0, fmt.Errorf("classifier service: scan expiring permits: %w", err)
	}

	permits := 0
	for i := range nationals {
		national := &nationals[i]
		due := national.PermitExpiryDate
		created, err := s.raise(ctx, CreateAlertInput{
			SubjectKind: models.SubjectKindNational,
			SubjectID:   national.ID,
			AlertType:   models.AlertTypePermitExpiring,
			Title:       "Permit Expiring Soon",
			Message: fmt.Sprintf("Permit for %s expires on %s",
				national.FullName, due.Format(dueDateFormat)),
			Severity: models.SeverityHigh,
			DueDate:  &due,
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if created {
			permits++
		}
	}

	var organizations []models.ForeignOrganization
	err = s.db.WithContext(ctx).
		Where("status = ? AND license_expiry_date IS NOT NULL AND license_expiry_date >= ? AND license_expiry_date < ?",
			models.OrganizationStatusActive, windowStart, windowEnd).
		Order("license_expiry_date ASC").
		Find(&organizations).Error
	if err != nil {
		return permits, 0, multierr.Append(errs,
			fmt.Errorf("classifier service: scan expiring licenses: %w", err))
	}

	licenses := 0
	for i := range organizations {
		org := &organizations[i]
		due := *org.LicenseExpiryDate
		created, err := s.raise(ctx, CreateAlertInput{
			SubjectKind: models.SubjectKindOrganization,
			SubjectID:   org.ID,
			AlertType:   models.AlertTypeLicenseExpiring,
			Title:       "License Expiring Soon",
			Message: fmt.Sprintf("License for %s expires on %s",
				org.OrganizationName, due.Format(dueDateFormat)),
			Severity: models.SeverityMedium,
			DueDate:  &due,
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if created {
			licenses++
		}
	}

	return permits, licenses, errs
}

// ClassifyOverstay raises one open critical alert per foreign national whose
// status carries the externally asserted overstay state.
func (s *ClassifierService) ClassifyOverstay(ctx context.Context, now time.Time) (int, error) {
	ctx = ensureContext(ctx)

	var nationals []models.ForeignNational
	err := s.db.WithContext(ctx).
		Where("status = ?", models.NationalStatusOverstay).
		Find(&nationals).Error
	if err != nil {
		return 0, fmt.Errorf("classifier service: scan overstays: %w", err)
	}

	var errs error
	created := 0
	for i := range nationals {
		national := &nationals[i]
		ok, err := s.raise(ctx, CreateAlertInput{
			SubjectKind: models.SubjectKindNational,
			SubjectID:   national.ID,
			AlertType:   models.AlertTypeOverstayDetected,
			Title:       "Overstay Detected",
			Message: fmt.Sprintf("Overstay case detected for %s. Permit expired on %s",
				national.FullName, national.PermitExpiryDate.Format(dueDateFormat)),
			Severity: models.SeverityCritical,
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}

	return created, errs
}

// raise creates an alert, treating an existing open alert of the same type as
// a no-op so repeated and concurrent scans converge.
func (s *ClassifierService) raise(ctx context.Context, input CreateAlertInput) (bool, error) {
	_, err := s.alerts.Create(ctx, input)
	if errors.Is(err, apperrors.ErrDuplicateAlert) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
