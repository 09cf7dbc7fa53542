package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	apperrors "github.com/imigrasi-dev/wna-registry/pkg/errors"
)

func testAlertInput(subjectID string, alertType models.AlertType) CreateAlertInput {
	return CreateAlertInput{
		SubjectKind: models.SubjectKindNational,
		SubjectID:   subjectID,
		AlertType:   alertType,
		Title:       "Permit Expiring Soon",
		Message:     "Permit expires shortly",
		Severity:    models.SeverityHigh,
	}
}

func TestAlertCreateRejectsSecondOpenAlert(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "11111111-1111-4111-8111-111111111111"
	first, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusUnread, first.Status)

	_, err = svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.ErrorIs(t, err, apperrors.ErrDuplicateAlert)

	// A different alert type for the same subject is allowed.
	_, err = svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypeDocumentMissing))
	require.NoError(t, err)
}

func TestAlertCreateAllowsNewAfterResolve(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "22222222-2222-4222-8222-222222222222"
	first, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), first.ID)
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestAlertCreateValidation(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	input := testAlertInput("33333333-3333-4333-8333-333333333333", models.AlertTypePermitExpiring)
	input.Severity = models.AlertSeverity("fatal")
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	input = testAlertInput("", models.AlertTypePermitExpiring)
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestAlertWorkflowTransitions(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	alert, err := svc.Create(context.Background(), testAlertInput("44444444-4444-4444-8444-444444444444", models.AlertTypeOverstayDetected))
	require.NoError(t, err)

	read, err := svc.MarkRead(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusRead, read.Status)

	acked, err := svc.Acknowledge(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)
	firstAck := *acked.AcknowledgedAt

	// Repeated acknowledge keeps the original timestamp.
	acked, err = svc.Acknowledge(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Equal(t, firstAck.Unix(), acked.AcknowledgedAt.Unix())

	resolved, err := svc.Resolve(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Backward transitions on a resolved alert are rejected.
	_, err = svc.UpdateStatus(context.Background(), alert.ID, models.AlertStatusRead)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// Persisted state survives a reload.
	reloaded, err := svc.GetByID(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusResolved, reloaded.Status)
	require.NotNil(t, reloaded.AcknowledgedAt)
	require.NotNil(t, reloaded.ResolvedAt)
}

func TestAlertOpenUniqueIndexBacksDuplicateGuard(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "77777777-7777-4777-8777-777777777777"
	_, err = svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	// A writer that slips past the in-transaction count, as a concurrent
	// scan can on a read-committed backend, must still hit ux_alerts_open.
	rogue := models.AlertNotification{
		SubjectKind: models.SubjectKindNational,
		SubjectID:   subjectID,
		AlertType:   models.AlertTypePermitExpiring,
		Title:       "Permit Expiring Soon",
		Severity:    models.SeverityHigh,
		Status:      models.AlertStatusUnread,
	}
	err = db.Create(&rogue).Error
	require.Error(t, err)
	require.True(t, isUniqueConstraintError(err))

	_, err = svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.ErrorIs(t, err, apperrors.ErrDuplicateAlert)
}

func TestAlertResolveDisarmsOpenMarker(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "99999999-9999-4999-8999-999999999999"
	first, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	var stored models.AlertNotification
	require.NoError(t, db.First(&stored, "id = ?", first.ID).Error)
	require.NotNil(t, stored.OpenMarker)

	_, err = svc.Resolve(context.Background(), first.ID)
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, "id = ?", first.ID).Error)
	require.Nil(t, stored.OpenMarker)

	// Any number of resolved alerts may share a subject and type.
	second, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), second.ID)
	require.NoError(t, err)

	var resolved int64
	require.NoError(t, db.Model(&models.AlertNotification{}).
		Where("subject_id = ? AND alert_type = ? AND status = ?",
			subjectID, models.AlertTypePermitExpiring, models.AlertStatusResolved).
		Count(&resolved).Error)
	require.EqualValues(t, 2, resolved)
}

func TestAlertListFilters(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "55555555-5555-4555-8555-555555555555"
	open, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	other, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypeDocumentMissing))
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), other.ID)
	require.NoError(t, err)

	openOnly, total, err := svc.List(context.Background(), AlertListOptions{
		Filters: AlertFilters{OpenOnly: true},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, open.ID, openOnly[0].ID)

	bySeverity, total, err := svc.List(context.Background(), AlertListOptions{
		Filters: AlertFilters{Severity: models.SeverityHigh},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, bySeverity, 2)
}

func TestAlertSubjectResolution(t *testing.T) {
	db := openTestDB(t)

	nationals, err := NewNationalService(db)
	require.NoError(t, err)
	alerts, err := NewAlertService(db, nil)
	require.NoError(t, err)

	expiry := time.Now().UTC().AddDate(1, 0, 0)
	national := mustCreateNational(t, nationals, validNationalInput("P8000001", "PRM-8001", expiry))

	alert, err := alerts.Create(context.Background(), testAlertInput(national.ID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	subject, err := alerts.Subject(context.Background(), alert)
	require.NoError(t, err)
	require.False(t, subject.Dangling)
	require.NotNil(t, subject.National)
	require.Equal(t, national.ID, subject.National.ID)

	// Deleting the subject leaves the alert dangling rather than broken.
	require.NoError(t, nationals.Delete(context.Background(), national.ID))

	subject, err = alerts.Subject(context.Background(), alert)
	require.NoError(t, err)
	require.True(t, subject.Dangling)
	require.Nil(t, subject.National)
}

func TestHasOpenAlert(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewAlertService(db, nil)
	require.NoError(t, err)

	subjectID := "66666666-6666-4666-8666-666666666666"
	ok, err := svc.HasOpenAlert(context.Background(), models.SubjectKindNational, subjectID, models.AlertTypePermitExpiring)
	require.NoError(t, err)
	require.False(t, ok)

	alert, err := svc.Create(context.Background(), testAlertInput(subjectID, models.AlertTypePermitExpiring))
	require.NoError(t, err)

	ok, err = svc.HasOpenAlert(context.Background(), models.SubjectKindNational, subjectID, models.AlertTypePermitExpiring)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Resolve(context.Background(), alert.ID)
	require.NoError(t, err)

	ok, err = svc.HasOpenAlert(context.Background(), models.SubjectKindNational, subjectID, models.AlertTypePermitExpiring)
	require.NoError(t, err)
	require.False(t, ok)
}
