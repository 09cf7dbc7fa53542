package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/database/testutil"
	"github.com/imigrasi-dev/wna-registry/internal/models"
	"github.com/imigrasi-dev/wna-registry/pkg/response"
)

func newNationalTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	handler, err := NewForeignNationalHandler(db)
	require.NoError(t, err)

	r := gin.New()
	group := r.Group("/api/foreign-nationals")
	group.GET("", handler.List)
	group.GET("/countries", handler.Countries)
	group.GET("/:id", handler.Get)
	group.POST("", handler.Create)
	group.PATCH("/:id", handler.Update)
	group.PATCH("/:id/status", handler.UpdateStatus)
	group.DELETE("/:id", handler.Delete)

	return r, db
}

func nationalPayload(passport, permit string) map[string]any {
	expiry := time.Now().UTC().AddDate(1, 0, 0)
	return map[string]any{
		"full_name":          "Carlos Mendes",
		"passport_number":    passport,
		"country_of_origin":  "Brazil",
		"nationality":        "Brazilian",
		"date_of_birth":      "1988-02-20",
		"gender":             "male",
		"permit_number":      permit,
		"permit_type":        "business",
		"permit_issue_date":  time.Now().UTC().AddDate(-1, 0, 0).Format("2006-01-02"),
		"permit_expiry_date": expiry.Format("2006-01-02"),
		"activity_type":      "investor",
		"current_address":    "Jl. Kemang Raya 7, Jakarta",
		"email":              "carlos.mendes@example.com",
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestNationalCreateEndpoint(t *testing.T) {
	r, db := newNationalTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", nationalPayload("H1000001", "PRM-H101"))
	require.Equal(t, http.StatusCreated, w.Code)

	payload := decodeResponse(t, w)
	require.True(t, payload.Success)

	var count int64
	require.NoError(t, db.Model(&models.ForeignNational{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestNationalCreateEndpointRejectsMissingFields(t *testing.T) {
	r, _ := newNationalTestRouter(t)

	body := nationalPayload("H2000001", "PRM-H201")
	delete(body, "full_name")

	w := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeResponse(t, w)
	require.False(t, payload.Success)
	require.Contains(t, payload.Error.Message, "full name")
}

func TestNationalCreateEndpointRejectsInvalidExpiry(t *testing.T) {
	r, _ := newNationalTestRouter(t)

	body := nationalPayload("H3000001", "PRM-H301")
	body["permit_expiry_date"] = body["permit_issue_date"]

	w := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNationalDuplicateReturnsConflict(t *testing.T) {
	r, _ := newNationalTestRouter(t)

	first := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", nationalPayload("H4000001", "PRM-H401"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", nationalPayload("H4000001", "PRM-H402"))
	require.Equal(t, http.StatusConflict, second.Code)
}

func TestNationalListEndpointWithMeta(t *testing.T) {
	r, _ := newNationalTestRouter(t)

	for i := 1; i <= 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/foreign-nationals",
			nationalPayload(fmt.Sprintf("H500000%d", i), fmt.Sprintf("PRM-H50%d", i)))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/foreign-nationals?page=1&per_page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeResponse(t, w)
	require.NotNil(t, payload.Meta)
	require.Equal(t, 3, payload.Meta.Total)
	require.Equal(t, 2, payload.Meta.TotalPages)
}

func TestNationalGetNotFound(t *testing.T) {
	r, _ := newNationalTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/foreign-nationals/9e9e9e9e-0000-4000-8000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestNationalStatusEndpoint(t *testing.T) {
	r, db := newNationalTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/foreign-nationals", nationalPayload("H6000001", "PRM-H601"))
	require.Equal(t, http.StatusCreated, w.Code)

	var national models.ForeignNational
	require.NoError(t, db.First(&national).Error)

	w = doJSON(t, r, http.MethodPatch, "/api/foreign-nationals/"+national.ID+"/status",
		map[string]any{"status": "overstay"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&national, "id = ?", national.ID).Error)
	require.Equal(t, models.NationalStatusOverstay, national.Status)

	w = doJSON(t, r, http.MethodPatch, "/api/foreign-nationals/"+national.ID+"/status",
		map[string]any{"status": "abducted"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
