package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaysBetweenUsesCalendarDays(t *testing.T) {
	late := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)

	// Two minutes apart on the clock, still one calendar day apart.
	require.Equal(t, 1, DaysBetween(late, early))
	require.Equal(t, -1, DaysBetween(early, late))
	require.Equal(t, 0, DaysBetween(early, early.Add(10*time.Hour)))
}

func TestDaysUntilExpirySign(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		expiry time.Time
		days   int
	}{
		{"expires in ten days", now.AddDate(0, 0, 10), 10},
		{"expires today", now.Add(3 * time.Hour), 0},
		{"expired yesterday", now.AddDate(0, 0, -1), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			national := &ForeignNational{PermitExpiryDate: tc.expiry}
			require.Equal(t, tc.days, national.DaysUntilExpiry(now))
			require.Equal(t, tc.days < 0, national.IsExpired(now))
		})
	}
}

func TestIsOverstayingRequiresAssertedStatus(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	expired := now.AddDate(0, 0, -30)

	lapsed := &ForeignNational{PermitExpiryDate: expired, Status: NationalStatusExpired}
	require.False(t, lapsed.IsOverstaying(now), "expiry alone never implies overstay")

	asserted := &ForeignNational{PermitExpiryDate: expired, Status: NationalStatusOverstay}
	require.True(t, asserted.IsOverstaying(now))

	// An overstay status with a still-valid permit is inconsistent data and
	// must not report as overstaying.
	future := &ForeignNational{PermitExpiryDate: now.AddDate(0, 0, 5), Status: NationalStatusOverstay}
	require.False(t, future.IsOverstaying(now))
}

func TestNationalStatusValid(t *testing.T) {
	for _, status := range NationalStatuses() {
		require.True(t, status.Valid())
	}
	require.False(t, NationalStatus("deported").Valid())
}
