package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/database/testutil"
	"github.com/imigrasi-dev/wna-registry/internal/models"
	"github.com/imigrasi-dev/wna-registry/internal/services"
)

func newAlertTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	alerts, err := services.NewAlertService(db, nil)
	require.NoError(t, err)
	classifier, err := services.NewClassifierService(db, alerts, services.DefaultExpiryWindowDays)
	require.NoError(t, err)

	handler, err := NewAlertHandler(db, classifier, nil)
	require.NoError(t, err)

	r := gin.New()
	group := r.Group("/api/alerts")
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", handler.Create)
	group.POST("/scan", handler.Scan)
	group.POST("/:id/read", handler.MarkRead)
	group.POST("/:id/acknowledge", handler.Acknowledge)
	group.POST("/:id/resolve", handler.Resolve)
	group.PATCH("/:id/status", handler.UpdateStatus)
	group.DELETE("/:id", handler.Delete)

	return r, db
}

func alertPayload(subjectID string) map[string]any {
	return map[string]any{
		"subject_kind": "foreign_national",
		"subject_id":   subjectID,
		"alert_type":   "document_missing",
		"title":        "Document Missing",
		"message":      "Sponsorship letter not on file",
		"severity":     "medium",
	}
}

func TestAlertCreateEndpoint(t *testing.T) {
	r, db := newAlertTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alerts", alertPayload("77777777-7777-4777-8777-777777777777"))
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.AlertNotification{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAlertCreateDuplicateConflict(t *testing.T) {
	r, _ := newAlertTestRouter(t)

	subjectID := "88888888-8888-4888-8888-888888888888"
	first := doJSON(t, r, http.MethodPost, "/api/alerts", alertPayload(subjectID))
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, r, http.MethodPost, "/api/alerts", alertPayload(subjectID))
	require.Equal(t, http.StatusConflict, second.Code)
}

func TestAlertCreateRejectsBadSubjectID(t *testing.T) {
	r, _ := newAlertTestRouter(t)

	body := alertPayload("not-a-uuid")
	w := doJSON(t, r, http.MethodPost, "/api/alerts", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertWorkflowEndpoints(t *testing.T) {
	r, db := newAlertTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alerts", alertPayload("99999999-9999-4999-8999-999999999999"))
	require.Equal(t, http.StatusCreated, w.Code)

	var alert models.AlertNotification
	require.NoError(t, db.First(&alert).Error)

	w = doJSON(t, r, http.MethodPost, "/api/alerts/"+alert.ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alerts/"+alert.ID+"/acknowledge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alerts/"+alert.ID+"/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Moving a resolved alert backwards is rejected.
	w = doJSON(t, r, http.MethodPatch, "/api/alerts/"+alert.ID+"/status", map[string]any{"status": "read"})
	require.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, db.First(&alert, "id = ?", alert.ID).Error)
	require.Equal(t, models.AlertStatusResolved, alert.Status)
	require.NotNil(t, alert.AcknowledgedAt)
	require.NotNil(t, alert.ResolvedAt)
}

func TestAlertGetIncludesDanglingSubject(t *testing.T) {
	r, _ := newAlertTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alerts", alertPayload("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"))
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeResponse(t, w)
	alertData, err := json.Marshal(created.Data)
	require.NoError(t, err)
	var alert models.AlertNotification
	require.NoError(t, json.Unmarshal(alertData, &alert))

	w = doJSON(t, r, http.MethodGet, "/api/alerts/"+alert.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeResponse(t, w)
	data := payload.Data.(map[string]any)
	subject := data["subject"].(map[string]any)
	require.Equal(t, true, subject["dangling"])
}

func TestAlertScanEndpoint(t *testing.T) {
	r, db := newAlertTestRouter(t)

	expiry := time.Now().UTC().AddDate(0, 0, 15)
	national := &models.ForeignNational{
		FullName:         "Fatima Zahra",
		PassportNumber:   "M1000001",
		CountryOfOrigin:  "Morocco",
		Nationality:      "Moroccan",
		DateOfBirth:      time.Date(1995, 9, 3, 0, 0, 0, 0, time.UTC),
		Gender:           models.GenderFemale,
		PermitNumber:     "PRM-M101",
		PermitType:       models.PermitTypeStudy,
		PermitIssueDate:  expiry.AddDate(-1, 0, 0),
		PermitExpiryDate: expiry,
		ActivityType:     models.NationalActivityStudent,
		CurrentAddress:   "Jl. Dago 18, Bandung",
		Status:           models.NationalStatusActive,
	}
	require.NoError(t, db.Create(national).Error)

	w := doJSON(t, r, http.MethodPost, "/api/alerts/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeResponse(t, w)
	data := payload.Data.(map[string]any)
	require.EqualValues(t, 1, data["permit_alerts"])

	var count int64
	require.NoError(t, db.Model(&models.AlertNotification{}).
		Where("subject_id = ?", national.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
