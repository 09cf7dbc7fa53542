package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/database/testutil"
	"github.com/imigrasi-dev/wna-registry/internal/models"
)

func newOrganizationTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	handler, err := NewForeignOrganizationHandler(db)
	require.NoError(t, err)

	r := gin.New()
	group := r.Group("/api/foreign-organizations")
	group.GET("", handler.List)
	group.GET("/countries", handler.Countries)
	group.GET("/:id", handler.Get)
	group.POST("", handler.Create)
	group.PATCH("/:id", handler.Update)
	group.PATCH("/:id/status", handler.UpdateStatus)
	group.DELETE("/:id", handler.Delete)

	return r, db
}

func organizationPayload(registration string) map[string]any {
	return map[string]any{
		"organization_name":    "Andes Research Council",
		"registration_number":  registration,
		"country_of_origin":    "Peru",
		"organization_type":    "ngo",
		"legal_status":         "registered",
		"registration_date":    time.Now().UTC().AddDate(-2, 0, 0).Format("2006-01-02"),
		"license_expiry_date":  time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02"),
		"business_address":     "Jl. Thamrin 12, Jakarta",
		"contact_person":       "Lucia Fernandez",
		"contact_phone":        "+62-21-555-0123",
		"contact_email":        "office@andes.example",
		"activity_type":        "research",
		"activity_description": "Andean highland agriculture studies",
	}
}

func TestOrganizationCreateEndpoint(t *testing.T) {
	r, db := newOrganizationTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", organizationPayload("ORG-T-0001"))
	require.Equal(t, http.StatusCreated, w.Code)

	var record models.ForeignOrganization
	require.NoError(t, db.First(&record).Error)
	require.Equal(t, "ORG-T-0001", record.RegistrationNumber)
	require.NotNil(t, record.LicenseExpiryDate)
}

func TestOrganizationCreateEndpointRejectsBadEmail(t *testing.T) {
	r, _ := newOrganizationTestRouter(t)

	body := organizationPayload("ORG-T-0002")
	body["contact_email"] = "not-an-email"

	w := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeResponse(t, w)
	require.False(t, payload.Success)
	require.Contains(t, payload.Error.Message, "email")
}

func TestOrganizationDuplicateRegistrationConflict(t *testing.T) {
	r, _ := newOrganizationTestRouter(t)

	first := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", organizationPayload("ORG-T-0003"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", organizationPayload("ORG-T-0003"))
	require.Equal(t, http.StatusConflict, second.Code)
}

func TestOrganizationListEndpointWithMeta(t *testing.T) {
	r, _ := newOrganizationTestRouter(t)

	for i := 1; i <= 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/foreign-organizations",
			organizationPayload(fmt.Sprintf("ORG-T-010%d", i)))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/foreign-organizations?page=2&per_page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeResponse(t, w)
	require.NotNil(t, payload.Meta)
	require.Equal(t, 3, payload.Meta.Total)
	require.Equal(t, 2, payload.Meta.TotalPages)
}

func TestOrganizationClearLicenseExpiry(t *testing.T) {
	r, db := newOrganizationTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", organizationPayload("ORG-T-0201"))
	require.Equal(t, http.StatusCreated, w.Code)

	var record models.ForeignOrganization
	require.NoError(t, db.First(&record).Error)
	require.NotNil(t, record.LicenseExpiryDate)

	w = doJSON(t, r, http.MethodPatch, "/api/foreign-organizations/"+record.ID,
		map[string]any{"clear_license_expiry": true})
	require.Equal(t, http.StatusOK, w.Code)

	// Reload into a fresh struct: gorm leaves a reused pointer field untouched
	// when the column is NULL, which would mask the cleared value.
	var reloaded models.ForeignOrganization
	require.NoError(t, db.First(&reloaded, "id = ?", record.ID).Error)
	require.Nil(t, reloaded.LicenseExpiryDate)
}

func TestOrganizationStatusEndpoint(t *testing.T) {
	r, db := newOrganizationTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/foreign-organizations", organizationPayload("ORG-T-0301"))
	require.Equal(t, http.StatusCreated, w.Code)

	var record models.ForeignOrganization
	require.NoError(t, db.First(&record).Error)

	w = doJSON(t, r, http.MethodPatch, "/api/foreign-organizations/"+record.ID+"/status",
		map[string]any{"status": "suspended"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&record, "id = ?", record.ID).Error)
	require.Equal(t, models.OrganizationStatusSuspended, record.Status)

	w = doJSON(t, r, http.MethodPatch, "/api/foreign-organizations/"+record.ID+"/status",
		map[string]any{"status": "vaporised"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
