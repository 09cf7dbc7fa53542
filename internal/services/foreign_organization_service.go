package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
	apperrors "github.com/imigrasi-dev/wna-registry/pkg/errors"
)

// CreateOrganizationInput captures the attributes required to register a foreign organization.
type CreateOrganizationInput struct {
	OrganizationName    string
	RegistrationNumber  string
	CountryOfOrigin     string
	OrganizationType    models.OrganizationType
	LegalStatus         models.LegalStatus
	RegistrationDate    time.Time
	LicenseExpiryDate   *time.Time
	BusinessAddress     string
	ContactPerson       string
	ContactPhone        string
	ContactEmail        string
	ActivityType        models.OrganizationActivity
	ActivityDescription string
	Status              models.OrganizationStatus
	SupportingDocuments map[string]any
	Notes               string
}

// UpdateOrganizationInput represents mutable foreign organization fields.
type UpdateOrganizationInput struct {
	OrganizationName    *string
	CountryOfOrigin     *string
	OrganizationType    *models.OrganizationType
	LegalStatus         *models.LegalStatus
	LicenseExpiryDate   *time.Time
	ClearLicenseExpiry  bool
	BusinessAddress     *string
	ContactPerson       *string
	ContactPhone        *string
	ContactEmail        *string
	ActivityType        *models.OrganizationActivity
	ActivityDescription *string
	Status              *models.OrganizationStatus
	SupportingDocuments map[string]any
	Notes               *string
}

// OrganizationFilters encapsulates optional filters when listing organizations.
type OrganizationFilters struct {
	Search           string
	Country          string
	Status           models.OrganizationStatus
	OrganizationType models.OrganizationType
	ActivityType     models.OrganizationActivity
}

// OrganizationListOptions controls pagination and filtering for listings.
type OrganizationListOptions struct {
	Page     int
	PageSize int
	Filters  OrganizationFilters
}

// OrganizationService manages lifecycle operations for foreign organization records.
type OrganizationService struct {
	db *gorm.DB
}

// NewOrganizationService constructs an OrganizationService.
func NewOrganizationService(db *gorm.DB) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	return &OrganizationService{db: db}, nil
}

// Create registers a new foreign organization after boundary validation.
func (s *OrganizationService) Create(ctx context.Context, input CreateOrganizationInput) (*models.ForeignOrganization, error) {
	ctx = ensureContext(ctx)

	if err := validateOrganizationInput(input, time.Now().UTC()); err != nil {
		return nil, err
	}

	org := &models.ForeignOrganization{
		OrganizationName:    strings.TrimSpace(input.OrganizationName),
		RegistrationNumber:  strings.TrimSpace(input.RegistrationNumber),
		CountryOfOrigin:     strings.TrimSpace(input.CountryOfOrigin),
		OrganizationType:    input.OrganizationType,
		LegalStatus:         input.LegalStatus,
		RegistrationDate:    input.RegistrationDate,
		LicenseExpiryDate:   input.LicenseExpiryDate,
		BusinessAddress:     strings.TrimSpace(input.BusinessAddress),
		ContactPerson:       strings.TrimSpace(input.ContactPerson),
		ContactPhone:        strings.TrimSpace(input.ContactPhone),
		ContactEmail:        strings.TrimSpace(input.ContactEmail),
		ActivityType:        input.ActivityType,
		ActivityDescription: strings.TrimSpace(input.ActivityDescription),
		Status:              input.Status,
		Notes:               strings.TrimSpace(input.Notes),
	}
	if org.Status == "" {
		org.Status = models.OrganizationStatusActive
	}

	if input.SupportingDocuments != nil {
		data, err := json.Marshal(input.SupportingDocuments)
		if err != nil {
			return nil, fmt.Errorf("organization service: marshal supporting documents: %w", err)
		}
		org.SupportingDocuments = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateRecord
		}
		return nil, fmt.Errorf("organization service: create record: %w", err)
	}

	return org, nil
}

// GetByID loads a foreign organization record.
func (s *OrganizationService) GetByID(ctx context.Context, id string) (*models.ForeignOrganization, error) {
	ctx = ensureContext(ctx)

	var org models.ForeignOrganization
	err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization service: get record: %w", err)
	}
	return &org, nil
}

// List returns paginated foreign organizations ordered by creation time descending.
func (s *OrganizationService) List(ctx context.Context, opts OrganizationListOptions) ([]models.ForeignOrganization, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(opts.Page, opts.PageSize, 15, 100)

	var (
		results []models.ForeignOrganization
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.ForeignOrganization{})
	query = applyOrganizationFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("organization service: count records: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("organization service: list records: %w", err)
	}

	return results, total, nil
}

// Countries returns the distinct countries of origin present in the registry,
// sorted ascending.
func (s *OrganizationService) Countries(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)

	var countries []string
	err := s.db.WithContext(ctx).
		Model(&models.ForeignOrganization{}).
		Distinct("country_of_origin").
		Order("country_of_origin ASC").
		Pluck("country_of_origin", &countries).Error
	if err != nil {
		return nil, fmt.Errorf("organization service: list countries: %w", err)
	}
	return countries, nil
}

// Update modifies mutable fields of a foreign organization record.
func (s *OrganizationService) Update(ctx context.Context, id string, input UpdateOrganizationInput) (*models.ForeignOrganization, error) {
	ctx = ensureContext(ctx)

	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.OrganizationName != nil {
		if name := strings.TrimSpace(*input.OrganizationName); name != "" {
			updates["organization_name"] = name
		}
	}
	if input.CountryOfOrigin != nil {
		if country := strings.TrimSpace(*input.CountryOfOrigin); country != "" {
			updates["country_of_origin"] = country
		}
	}
	if input.OrganizationType != nil {
		if !input.OrganizationType.Valid() {
			return nil, apperrors.NewBadRequest("organization_type is not a recognised value")
		}
		updates["organization_type"] = *input.OrganizationType
	}
	if input.LegalStatus != nil {
		if !input.LegalStatus.Valid() {
			return nil, apperrors.NewBadRequest("legal_status is not a recognised value")
		}
		updates["legal_status"] = *input.LegalStatus
	}
	if input.ActivityType != nil {
		if !input.ActivityType.Valid() {
			return nil, apperrors.NewBadRequest("activity_type is not a recognised value")
		}
		updates["activity_type"] = *input.ActivityType
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewBadRequest("status is not a recognised value")
		}
		updates["status"] = *input.Status
	}

	switch {
	case input.ClearLicenseExpiry:
		updates["license_expiry_date"] = nil
	case input.LicenseExpiryDate != nil:
		if !input.LicenseExpiryDate.After(org.RegistrationDate) {
			return nil, apperrors.NewBadRequest("license_expiry_date must be after registration_date")
		}
		updates["license_expiry_date"] = *input.LicenseExpiryDate
	}

	if input.BusinessAddress != nil {
		updates["business_address"] = strings.TrimSpace(*input.BusinessAddress)
	}
	if input.ContactPerson != nil {
		updates["contact_person"] = strings.TrimSpace(*input.ContactPerson)
	}
	if input.ContactPhone != nil {
		updates["contact_phone"] = strings.TrimSpace(*input.ContactPhone)
	}
	if input.ContactEmail != nil {
		updates["contact_email"] = strings.TrimSpace(*input.ContactEmail)
	}
	if input.ActivityDescription != nil {
		updates["activity_description"] = strings.TrimSpace(*input.ActivityDescription)
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.SupportingDocuments != nil {
		data, err := json.Marshal(input.SupportingDocuments)
		if err != nil {
			return nil, fmt.Errorf("organization service: marshal supporting documents: %w", err)
		}
		updates["supporting_documents"] = datatypes.JSON(data)
	}

	if len(updates) == 0 {
		return org, nil
	}

	if err := s.db.WithContext(ctx).Model(org).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("organization service: update record: %w", err)
	}

	if err := s.db.WithContext(ctx).First(org, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("organization service: reload record: %w", err)
	}
	return org, nil
}

// UpdateStatus applies a status correction to a foreign organization record.
func (s *OrganizationService) UpdateStatus(ctx context.Context, id string, status models.OrganizationStatus) (*models.ForeignOrganization, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("status is not a recognised value")
	}
	return s.Update(ctx, id, UpdateOrganizationInput{Status: &status})
}

// Delete removes a foreign organization record. Alerts referencing it remain.
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.ForeignOrganization{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("organization service: delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func validateOrganizationInput(input CreateOrganizationInput, now time.Time) error {
	switch {
	case strings.TrimSpace(input.OrganizationName) == "":
		return apperrors.NewBadRequest("organization_name is required")
	case strings.TrimSpace(input.RegistrationNumber) == "":
		return apperrors.NewBadRequest("registration_number is required")
	case strings.TrimSpace(input.CountryOfOrigin) == "":
		return apperrors.NewBadRequest("country_of_origin is required")
	case strings.TrimSpace(input.BusinessAddress) == "":
		return apperrors.NewBadRequest("business_address is required")
	case strings.TrimSpace(input.ContactPerson) == "":
		return apperrors.NewBadRequest("contact_person is required")
	case strings.TrimSpace(input.ContactPhone) == "":
		return apperrors.NewBadRequest("contact_phone is required")
	case strings.TrimSpace(input.ContactEmail) == "":
		return apperrors.NewBadRequest("contact_email is required")
	case strings.TrimSpace(input.ActivityDescription) == "":
		return apperrors.NewBadRequest("activity_description is required")
	}

	if !input.OrganizationType.Valid() {
		return apperrors.NewBadRequest("organization_type is not a recognised value")
	}
	if !input.LegalStatus.Valid() {
		return apperrors.NewBadRequest("legal_status is not a recognised value")
	}
	if !input.ActivityType.Valid() {
		return apperrors.NewBadRequest("activity_type is not a recognised value")
	}
	if input.Status != "" && !input.Status.Valid() {
		return apperrors.NewBadRequest("status is not a recognised value")
	}

	if input.RegistrationDate.IsZero() || models.DaysBetween(now, input.RegistrationDate) > 0 {
		return apperrors.NewBadRequest("registration_date must not be in the future")
	}
	if input.LicenseExpiryDate != nil && !input.LicenseExpiryDate.After(input.RegistrationDate) {
		return apperrors.NewBadRequest("license_expiry_date must be after registration_date")
	}

	return nil
}

func applyOrganizationFilters(query *gorm.DB, filters OrganizationFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"organization_name LIKE ? OR registration_number LIKE ?",
			pattern, pattern,
		)
	}
	if filters.Country != "" {
		query = query.Where("country_of_origin = ?", filters.Country)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.OrganizationType != "" {
		query = query.Where("organization_type = ?", filters.OrganizationType)
	}
	if filters.ActivityType != "" {
		query = query.Where("activity_type = ?", filters.ActivityType)
	}
	return query
}
