package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	"github.com/imigrasi-dev/wna-registry/internal/services"
	"github.com/imigrasi-dev/wna-registry/pkg/response"
)

// ForeignOrganizationHandler exposes HTTP endpoints for foreign organization records.
type ForeignOrganizationHandler struct {
	service *services.OrganizationService
}

// NewForeignOrganizationHandler constructs a foreign organization handler.
func NewForeignOrganizationHandler(db *gorm.DB) (*ForeignOrganizationHandler, error) {
	service, err := services.NewOrganizationService(db)
	if err != nil {
		return nil, err
	}
	return &ForeignOrganizationHandler{service: service}, nil
}

type createOrganizationRequest struct {
	OrganizationName    string         `json:"organization_name" validate:"required"`
	RegistrationNumber  string         `json:"registration_number" validate:"required"`
	CountryOfOrigin     string         `json:"country_of_origin" validate:"required"`
	OrganizationType    string         `json:"organization_type" validate:"required"`
	LegalStatus         string         `json:"legal_status" validate:"required"`
	RegistrationDate    Date           `json:"registration_date"`
	LicenseExpiryDate   *Date          `json:"license_expiry_date"`
	BusinessAddress     string         `json:"business_address" validate:"required"`
	ContactPerson       string         `json:"contact_person" validate:"required"`
	ContactPhone        string         `json:"contact_phone" validate:"required"`
	ContactEmail        string         `json:"contact_email" validate:"required,email"`
	ActivityType        string         `json:"activity_type" validate:"required"`
	ActivityDescription string         `json:"activity_description" validate:"required"`
	Status              string         `json:"status"`
	SupportingDocuments map[string]any `json:"supporting_documents"`
	Notes               string         `json:"notes"`
}

type updateOrganizationRequest struct {
	OrganizationName    *string        `json:"organization_name"`
	CountryOfOrigin     *string        `json:"country_of_origin"`
	OrganizationType    *string        `json:"organization_type"`
	LegalStatus         *string        `json:"legal_status"`
	LicenseExpiryDate   *Date          `json:"license_expiry_date"`
	ClearLicenseExpiry  bool           `json:"clear_license_expiry"`
	BusinessAddress     *string        `json:"business_address"`
	ContactPerson       *string        `json:"contact_person"`
	ContactPhone        *string        `json:"contact_phone"`
	ContactEmail        *string        `json:"contact_email" validate:"omitempty,email"`
	ActivityType        *string        `json:"activity_type"`
	ActivityDescription *string        `json:"activity_description"`
	Status              *string        `json:"status"`
	SupportingDocuments map[string]any `json:"supporting_documents"`
	Notes               *string        `json:"notes"`
}

// List returns paginated foreign organizations with optional filters.
func (h *ForeignOrganizationHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 15)

	records, total, err := h.service.List(requestContext(c), services.OrganizationListOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.OrganizationFilters{
			Search:           c.Query("search"),
			Country:          c.Query("country"),
			Status:           models.OrganizationStatus(c.Query("status")),
			OrganizationType: models.OrganizationType(c.Query("organization_type")),
			ActivityType:     models.OrganizationActivity(c.Query("activity_type")),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, records, paginationMeta(page, perPage, total))
}

// Countries lists the distinct countries of origin for filter options.
func (h *ForeignOrganizationHandler) Countries(c *gin.Context) {
	countries, err := h.service.Countries(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, countries)
}

// Get returns a single foreign organization record.
func (h *ForeignOrganizationHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	record, err := h.service.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}

// Create registers a new foreign organization.
func (h *ForeignOrganizationHandler) Create(c *gin.Context) {
	var payload createOrganizationRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.CreateOrganizationInput{
		OrganizationName:    payload.OrganizationName,
		RegistrationNumber:  payload.RegistrationNumber,
		CountryOfOrigin:     payload.CountryOfOrigin,
		OrganizationType:    models.OrganizationType(payload.OrganizationType),
		LegalStatus:         models.LegalStatus(payload.LegalStatus),
		RegistrationDate:    payload.RegistrationDate.Time,
		BusinessAddress:     payload.BusinessAddress,
		ContactPerson:       payload.ContactPerson,
		ContactPhone:        payload.ContactPhone,
		ContactEmail:        payload.ContactEmail,
		ActivityType:        models.OrganizationActivity(payload.ActivityType),
		ActivityDescription: payload.ActivityDescription,
		Status:              models.OrganizationStatus(payload.Status),
		SupportingDocuments: payload.SupportingDocuments,
		Notes:               payload.Notes,
	}
	if payload.LicenseExpiryDate != nil && !payload.LicenseExpiryDate.IsZero() {
		input.LicenseExpiryDate = &payload.LicenseExpiryDate.Time
	}

	record, err := h.service.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// Update modifies mutable fields of a foreign organization record.
func (h *ForeignOrganizationHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var payload updateOrganizationRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.UpdateOrganizationInput{
		OrganizationName:    payload.OrganizationName,
		CountryOfOrigin:     payload.CountryOfOrigin,
		ClearLicenseExpiry:  payload.ClearLicenseExpiry,
		BusinessAddress:     payload.BusinessAddress,
		ContactPerson:       payload.ContactPerson,
		ContactPhone:        payload.ContactPhone,
		ContactEmail:        payload.ContactEmail,
		ActivityDescription: payload.ActivityDescription,
		SupportingDocuments: payload.SupportingDocuments,
		Notes:               payload.Notes,
	}
	if payload.OrganizationType != nil {
		orgType := models.OrganizationType(*payload.OrganizationType)
		input.OrganizationType = &orgType
	}
	if payload.LegalStatus != nil {
		legal := models.LegalStatus(*payload.LegalStatus)
		input.LegalStatus = &legal
	}
	if payload.ActivityType != nil {
		activity := models.OrganizationActivity(*payload.ActivityType)
		input.ActivityType = &activity
	}
	if payload.Status != nil {
		status := models.OrganizationStatus(*payload.Status)
		input.Status = &status
	}
	if payload.LicenseExpiryDate != nil && !payload.LicenseExpiryDate.IsZero() {
		input.LicenseExpiryDate = &payload.LicenseExpiryDate.Time
	}

	record, err := h.service.Update(requestContext(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// UpdateStatus applies a status correction to a foreign organization record.
func (h *ForeignOrganizationHandler) UpdateStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var payload updateStatusRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	record, err := h.service.UpdateStatus(requestContext(c), id, models.OrganizationStatus(payload.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// Delete removes a foreign organization record.
func (h *ForeignOrganizationHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
