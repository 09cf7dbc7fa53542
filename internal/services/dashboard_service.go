package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
)

// DashboardSummary carries the headline counters shown on the dashboard.
type DashboardSummary struct {
	TotalNationals      int64 `json:"total_foreign_nationals"`
	ActiveNationals     int64 `json:"active_foreign_nationals"`
	ExpiredPermits      int64 `json:"expired_permits"`
	OverstayCases       int64 `json:"overstay_cases"`
	TotalOrganizations  int64 `json:"total_organizations"`
	ActiveOrganizations int64 `json:"active_organizations"`
	CriticalAlerts      int64 `json:"critical_alerts"`
	HighAlerts          int64 `json:"high_alerts"`
}

// StatBucket is one row of a grouped count.
type StatBucket struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// MonthlyCount is one calendar-month bucket of the registration trend.
type MonthlyCount struct {
	Month         string `json:"month"` // YYYY-MM
	Registrations int64  `json:"registrations"`
}

// DashboardOverview bundles every dashboard panel into one payload.
type DashboardOverview struct {
	Stats           DashboardSummary           `json:"stats"`
	ExpiringPermits []models.ForeignNational   `json:"expiring_permits"`
	RecentAlerts    []models.AlertNotification `json:"recent_alerts"`
	CountryData     []StatBucket               `json:"country_data"`
	PermitTypeData  []StatBucket               `json:"permit_type_data"`
	StatusData      []StatBucket               `json:"status_data"`
	MonthlyTrends   []MonthlyCount             `json:"monthly_trends"`
}

// DashboardService computes read-only summaries over the current subject and
// alert state. Every aggregate is recomputed from storage on each call; there
// is no cache to invalidate.
type DashboardService struct {
	db         *gorm.DB
	windowDays int
}

// NewDashboardService constructs a DashboardService. The window controls the
// expiring-permits panel and matches the classifier's look-ahead.
func NewDashboardService(db *gorm.DB, windowDays int) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	return &DashboardService{db: db, windowDays: windowDays}, nil
}

// Overview assembles every dashboard panel in one pass.
func (s *DashboardService) Overview(ctx context.Context, now time.Time) (*DashboardOverview, error) {
	ctx = ensureContext(ctx)

	stats, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}

	expiring, err := s.ExpiringPermits(ctx, now, 10)
	if err != nil {
		return nil, err
	}

	recent, err := s.RecentAlerts(ctx, 10)
	if err != nil {
		return nil, err
	}

	countries, err := s.CountryDistribution(ctx, 10)
	if err != nil {
		return nil, err
	}

	permitTypes, err := s.PermitTypeDistribution(ctx)
	if err != nil {
		return nil, err
	}

	statuses, err := s.StatusDistribution(ctx)
	if err != nil {
		return nil, err
	}

	trend, err := s.MonthlyTrend(ctx, now, 6)
	if err != nil {
		return nil, err
	}

	return &DashboardOverview{
		Stats:           *stats,
		ExpiringPermits: expiring,
		RecentAlerts:    recent,
		CountryData:     countries,
		PermitTypeData:  permitTypes,
		StatusData:      statuses,
		MonthlyTrends:   trend,
	}, nil
}

// Summary computes the headline counters.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	ctx = ensureContext(ctx)

	summary := &DashboardSummary{}
	counts := []struct {
		dest  *int64
		model any
		conds []any
	}{
		{&summary.TotalNationals, &models.ForeignNational{}, nil},
		{&summary.ActiveNationals, &models.ForeignNational{}, []any{"status = ?", models.NationalStatusActive}},
		{&summary.ExpiredPermits, &models.ForeignNational{}, []any{"status = ?", models.NationalStatusExpired}},
		{&summary.OverstayCases, &models.ForeignNational{}, []any{"status = ?", models.NationalStatusOverstay}},
		{&summary.TotalOrganizations, &models.ForeignOrganization{}, nil},
		{&summary.ActiveOrganizations, &models.ForeignOrganization{}, []any{"status = ?", models.OrganizationStatusActive}},
		{&summary.CriticalAlerts, &models.AlertNotification{}, []any{"status = ? AND severity = ?", models.AlertStatusUnread, models.SeverityCritical}},
		{&summary.HighAlerts, &models.AlertNotification{}, []any{"status = ? AND severity = ?", models.AlertStatusUnread, models.SeverityHigh}},
	}

	for _, c := range counts {
		query := s.db.WithContext(ctx).Model(c.model)
		if len(c.conds) > 0 {
			query = query.Where(c.conds[0], c.conds[1:]...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("dashboard service: headline counts: %w", err)
		}
	}

	return summary, nil
}

// ExpiringPermits lists active foreign nationals whose permit expires within
// the configured window, soonest first.
func (s *DashboardService) ExpiringPermits(ctx context.Context, now time.Time, limit int) ([]models.ForeignNational, error) {
	ctx = ensureContext(ctx)

	windowStart := startOfDay(now)
	windowEnd := windowStart.AddDate(0, 0, s.windowDays+1)

	var nationals []models.ForeignNational
	err := s.db.WithContext(ctx).
		Where("status = ? AND permit_expiry_date >= ? AND permit_expiry_date < ?",
			models.NationalStatusActive, windowStart, windowEnd).
		Order("permit_expiry_date ASC").
		Limit(limit).
		Find(&nationals).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard service: expiring permits: %w", err)
	}
	return nationals, nil
}

// RecentAlerts lists the newest unread alerts.
func (s *DashboardService) RecentAlerts(ctx context.Context, limit int) ([]models.AlertNotification, error) {
	ctx = ensureContext(ctx)

	var alerts []models.AlertNotification
	err := s.db.WithContext(ctx).
		Where("status = ?", models.AlertStatusUnread).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard service: recent alerts: %w", err)
	}
	return alerts, nil
}

// CountryDistribution groups foreign nationals by country of origin. Order is
// deterministic: descending count, ties broken by country name ascending.
func (s *DashboardService) CountryDistribution(ctx context.Context, topN int) ([]StatBucket, error) {
	return s.groupNationals(ctx, "country_of_origin", topN)
}

// PermitTypeDistribution groups foreign nationals by permit type.
func (s *DashboardService) PermitTypeDistribution(ctx context.Context) ([]StatBucket, error) {
	return s.groupNationals(ctx, "permit_type", 0)
}

// StatusDistribution groups foreign nationals by lifecycle status.
func (s *DashboardService) StatusDistribution(ctx context.Context) ([]StatBucket, error) {
	return s.groupNationals(ctx, "status", 0)
}

func (s *DashboardService) groupNationals(ctx context.Context, column string, topN int) ([]StatBucket, error) {
	ctx = ensureContext(ctx)

	var buckets []StatBucket
	query := s.db.WithContext(ctx).
		Model(&models.ForeignNational{}).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order("total DESC").
		Order(column + " ASC")
	if topN > 0 {
		query = query.Limit(topN)
	}
	if err := query.Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: group by %s: %w", column, err)
	}
	return buckets, nil
}

// MonthlyTrend buckets foreign national registrations by calendar month of
// creation over the trailing N months, oldest first. Months without
// registrations appear with a zero count. Bucketing happens in Go so the
// query stays portable across sqlite, postgres and mysql.
func (s *DashboardService) MonthlyTrend(ctx context.Context, now time.Time, months int) ([]MonthlyCount, error) {
	ctx = ensureContext(ctx)

	if months <= 0 {
		months = 6
	}

	firstMonth := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)

	var createdAts []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.ForeignNational{}).
		Where("created_at >= ?", firstMonth).
		Pluck("created_at", &createdAts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard service: monthly trend: %w", err)
	}

	byMonth := make(map[string]int64, months)
	for _, createdAt := range createdAts {
		byMonth[createdAt.UTC().Format("2006-01")]++
	}

	trend := make([]MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		month := firstMonth.AddDate(0, i, 0).Format("2006-01")
		trend = append(trend, MonthlyCount{Month: month, Registrations: byMonth[month]})
	}

	return trend, nil
}
