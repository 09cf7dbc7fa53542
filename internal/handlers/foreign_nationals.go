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

// ForeignNationalHandler exposes HTTP endpoints for foreign national records.
type ForeignNationalHandler struct {
	service *services.NationalService
}

// NewForeignNationalHandler constructs a foreign national handler.
func NewForeignNationalHandler(db *gorm.DB) (*ForeignNationalHandler, error) {
	service, err := services.NewNationalService(db)
	if err != nil {
		return nil, err
	}
	return &ForeignNationalHandler{service: service}, nil
}

type createNationalRequest struct {
	FullName             string         `json:"full_name" validate:"required"`
	PassportNumber       string         `json:"passport_number" validate:"required"`
	CountryOfOrigin      string         `json:"country_of_origin" validate:"required"`
	Nationality          string         `json:"nationality" validate:"required"`
	DateOfBirth          Date           `json:"date_of_birth"`
	Gender               string         `json:"gender" validate:"required"`
	PermitNumber         string         `json:"permit_number" validate:"required"`
	PermitType           string         `json:"permit_type" validate:"required"`
	PermitIssueDate      Date           `json:"permit_issue_date"`
	PermitExpiryDate     Date           `json:"permit_expiry_date"`
	ActivityType         string         `json:"activity_type" validate:"required"`
	CurrentAddress       string         `json:"current_address" validate:"required"`
	Phone                string         `json:"phone"`
	Email                string         `json:"email" validate:"omitempty,email"`
	EmployerOrganization string         `json:"employer_organization"`
	Status               string         `json:"status"`
	SupportingDocuments  map[string]any `json:"supporting_documents"`
	Notes                string         `json:"notes"`
}

type updateNationalRequest struct {
	FullName             *string        `json:"full_name"`
	CountryOfOrigin      *string        `json:"country_of_origin"`
	Nationality          *string        `json:"nationality"`
	PermitType           *string        `json:"permit_type"`
	PermitIssueDate      *Date          `json:"permit_issue_date"`
	PermitExpiryDate     *Date          `json:"permit_expiry_date"`
	ActivityType         *string        `json:"activity_type"`
	CurrentAddress       *string        `json:"current_address"`
	Phone                *string        `json:"phone"`
	Email                *string        `json:"email" validate:"omitempty,email"`
	EmployerOrganization *string        `json:"employer_organization"`
	Status               *string        `json:"status"`
	SupportingDocuments  map[string]any `json:"supporting_documents"`
	Notes                *string        `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List returns paginated foreign nationals with optional filters.
func (h *ForeignNationalHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 15)

	records, total, err := h.service.List(requestContext(c), services.NationalListOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.NationalFilters{
			Search:       c.Query("search"),
			Country:      c.Query("country"),
			Status:       models.NationalStatus(c.Query("status")),
			PermitType:   models.PermitType(c.Query("permit_type")),
			ActivityType: models.NationalActivity(c.Query("activity_type")),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, records, paginationMeta(page, perPage, total))
}

// Countries lists the distinct countries of origin for filter options.
func (h *ForeignNationalHandler) Countries(c *gin.Context) {
	countries, err := h.service.Countries(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, countries)
}

// Get returns a single foreign national record.
func (h *ForeignNationalHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	record, err := h.service.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}

// Create registers a new foreign national.
func (h *ForeignNationalHandler) Create(c *gin.Context) {
	var payload createNationalRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	record, err := h.service.Create(requestContext(c), services.CreateNationalInput{
		FullName:             payload.FullName,
		PassportNumber:       payload.PassportNumber,
		CountryOfOrigin:      payload.CountryOfOrigin,
		Nationality:          payload.Nationality,
		DateOfBirth:          payload.DateOfBirth.Time,
		Gender:               models.Gender(payload.Gender),
		PermitNumber:         payload.PermitNumber,
		PermitType:           models.PermitType(payload.PermitType),
		PermitIssueDate:      payload.PermitIssueDate.Time,
		PermitExpiryDate:     payload.PermitExpiryDate.Time,
		ActivityType:         models.NationalActivity(payload.ActivityType),
		CurrentAddress:       payload.CurrentAddress,
		Phone:                payload.Phone,
		Email:                payload.Email,
		EmployerOrganization: payload.EmployerOrganization,
		Status:               models.NationalStatus(payload.Status),
		SupportingDocuments:  payload.SupportingDocuments,
		Notes:                payload.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// Update modifies mutable fields of a foreign national record.
func (h *ForeignNationalHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var payload updateNationalRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.UpdateNationalInput{
		FullName:             payload.FullName,
		CountryOfOrigin:      payload.CountryOfOrigin,
		Nationality:          payload.Nationality,
		CurrentAddress:       payload.CurrentAddress,
		Phone:                payload.Phone,
		Email:                payload.Email,
		EmployerOrganization: payload.EmployerOrganization,
		SupportingDocuments:  payload.SupportingDocuments,
		Notes:                payload.Notes,
	}
	if payload.PermitType != nil {
		permitType := models.PermitType(*payload.PermitType)
		input.PermitType = &permitType
	}
	if payload.ActivityType != nil {
		activity := models.NationalActivity(*payload.ActivityType)
		input.ActivityType = &activity
	}
	if payload.Status != nil {
		status := models.NationalStatus(*payload.Status)
		input.Status = &status
	}
	if payload.PermitIssueDate != nil {
		input.PermitIssueDate = &payload.PermitIssueDate.Time
	}
	if payload.PermitExpiryDate != nil {
		input.PermitExpiryDate = &payload.PermitExpiryDate.Time
	}

	record, err := h.service.Update(requestContext(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// UpdateStatus applies a status correction to a foreign national record.
func (h *ForeignNationalHandler) UpdateStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var payload updateStatusRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	record, err := h.service.UpdateStatus(requestContext(c), id, models.NationalStatus(payload.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// Delete removes a foreign national record.
func (h *ForeignNationalHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func paginationMeta(page, perPage int, total int64) *response.Meta {
	if perPage <= 0 {
		perPage = 1
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
