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

// CreateNationalInput captures the attributes required to register a foreign national.
type CreateNationalInput struct {
	FullName             string
	PassportNumber       string
	CountryOfOrigin      string
	Nationality          string
	DateOfBirth          time.Time
	Gender               models.Gender
	PermitNumber         string
	PermitType           models.PermitType
	PermitIssueDate      time.Time
	PermitExpiryDate     time.Time
	ActivityType         models.NationalActivity
	CurrentAddress       string
	Phone                string
	Email                string
	EmployerOrganization string
	Status               models.NationalStatus
	SupportingDocuments  map[string]any
	Notes                string
}

// UpdateNationalInput represents mutable foreign national fields. Nil pointers
// leave the current value untouched.
type UpdateNationalInput struct {
	FullName             *string
	CountryOfOrigin      *string
	Nationality          *string
	PermitType           *models.PermitType
	PermitIssueDate      *time.Time
	PermitExpiryDate     *time.Time
	ActivityType         *models.NationalActivity
	CurrentAddress       *string
	Phone                *string
	Email                *string
	EmployerOrganization *string
	Status               *models.NationalStatus
	SupportingDocuments  map[string]any
	Notes                *string
}

// NationalFilters encapsulates optional filters when listing foreign nationals.
type NationalFilters struct {
	Search       string
	Country      string
	Status       models.NationalStatus
	PermitType   models.PermitType
	ActivityType models.NationalActivity
}

// NationalListOptions controls pagination and filtering for listings.
type NationalListOptions struct {
	Page     int
	PageSize int
	Filters  NationalFilters
}

// NationalService manages lifecycle operations for foreign national records.
type NationalService struct {
	db *gorm.DB
}

// NewNationalService constructs a NationalService.
func NewNationalService(db *gorm.DB) (*NationalService, error) {
	if db == nil {
		return nil, errors.New("national service: db is required")
	}
	return &NationalService{db: db}, nil
}

// Create registers a new foreign national after boundary validation. The core
// classification rules may assume every stored record passed these checks.
func (s *NationalService) Create(ctx context.Context, input CreateNationalInput) (*models.ForeignNational, error) {
	ctx = ensureContext(ctx)

	if err := validateNationalInput(input, time.Now().UTC()); err != nil {
		return nil, err
	}

	national := &models.ForeignNational{
		FullName:             strings.TrimSpace(input.FullName),
		PassportNumber:       strings.TrimSpace(input.PassportNumber),
		CountryOfOrigin:      strings.TrimSpace(input.CountryOfOrigin),
		Nationality:          strings.TrimSpace(input.Nationality),
		DateOfBirth:          input.DateOfBirth,
		Gender:               input.Gender,
		PermitNumber:         strings.TrimSpace(input.PermitNumber),
		PermitType:           input.PermitType,
		PermitIssueDate:      input.PermitIssueDate,
		PermitExpiryDate:     input.PermitExpiryDate,
		ActivityType:         input.ActivityType,
		CurrentAddress:       strings.TrimSpace(input.CurrentAddress),
		Phone:                strings.TrimSpace(input.Phone),
		Email:                strings.TrimSpace(input.Email),
		EmployerOrganization: strings.TrimSpace(input.EmployerOrganization),
		Status:               input.Status,
		Notes:                strings.TrimSpace(input.Notes),
	}
	if national.Status == "" {
		national.Status = models.NationalStatusActive
	}

	if input.SupportingDocuments != nil {
		data, err := json.Marshal(input.SupportingDocuments)
		if err != nil {
			return nil, fmt.Errorf("national service: marshal supporting documents: %w", err)
		}
		national.SupportingDocuments = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(national).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateRecord
		}
		return nil, fmt.Errorf("national service: create record: %w", err)
	}

	return national, nil
}

// GetByID loads a foreign national record.
func (s *NationalService) GetByID(ctx context.Context, id string) (*models.ForeignNational, error) {
	ctx = ensureContext(ctx)

	var national models.ForeignNational
	err := s.db.WithContext(ctx).First(&national, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("national service: get record: %w", err)
	}
	return &national, nil
}

// List returns paginated foreign nationals ordered by creation time descending.
func (s *NationalService) List(ctx context.Context, opts NationalListOptions) ([]models.ForeignNational, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(opts.Page, opts.PageSize, 15, 100)

	var (
		results []models.ForeignNational
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.ForeignNational{})
	query = applyNationalFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("national service: count records: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("national service: list records: %w", err)
	}

	return results, total, nil
}

// Countries returns the distinct countries of origin present in the registry,
// sorted ascending. Used to populate listing filter options.
func (s *NationalService) Countries(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)

	var countries []string
	err := s.db.WithContext(ctx).
		Model(&models.ForeignNational{}).
		Distinct("country_of_origin").
		Order("country_of_origin ASC").
		Pluck("country_of_origin", &countries).Error
	if err != nil {
		return nil, fmt.Errorf("national service: list countries: %w", err)
	}
	return countries, nil
}

// Update modifies mutable fields of a foreign national record.
func (s *NationalService) Update(ctx context.Context, id string, input UpdateNationalInput) (*models.ForeignNational, error) {
	ctx = ensureContext(ctx)

	national, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.FullName != nil {
		if name := strings.TrimSpace(*input.FullName); name != "" {
			updates["full_name"] = name
		}
	}
	if input.CountryOfOrigin != nil {
		if country := strings.TrimSpace(*input.CountryOfOrigin); country != "" {
			updates["country_of_origin"] = country
		}
	}
	if input.Nationality != nil {
		if nationality := strings.TrimSpace(*input.Nationality); nationality != "" {
			updates["nationality"] = nationality
		}
	}
	if input.PermitType != nil {
		if !input.PermitType.Valid() {
			return nil, apperrors.NewBadRequest("permit_type is not a recognised value")
		}
		updates["permit_type"] = *input.PermitType
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

	issue := national.PermitIssueDate
	expiry := national.PermitExpiryDate
	if input.PermitIssueDate != nil {
		issue = *input.PermitIssueDate
		updates["permit_issue_date"] = issue
	}
	if input.PermitExpiryDate != nil {
		expiry = *input.PermitExpiryDate
		updates["permit_expiry_date"] = expiry
	}
	if !expiry.After(issue) {
		return nil, apperrors.NewBadRequest("permit_expiry_date must be after permit_issue_date")
	}

	if input.CurrentAddress != nil {
		updates["current_address"] = strings.TrimSpace(*input.CurrentAddress)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}
	if input.EmployerOrganization != nil {
		updates["employer_organization"] = strings.TrimSpace(*input.EmployerOrganization)
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.SupportingDocuments != nil {
		data, err := json.Marshal(input.SupportingDocuments)
		if err != nil {
			return nil, fmt.Errorf("national service: marshal supporting documents: %w", err)
		}
		updates["supporting_documents"] = datatypes.JSON(data)
	}

	if len(updates) == 0 {
		return national, nil
	}

	if err := s.db.WithContext(ctx).Model(national).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("national service: update record: %w", err)
	}

	if err := s.db.WithContext(ctx).First(national, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("national service: reload record: %w", err)
	}
	return national, nil
}

// UpdateStatus applies a status correction to a foreign national record.
func (s *NationalService) UpdateStatus(ctx context.Context, id string, status models.NationalStatus) (*models.ForeignNational, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("status is not a recognised value")
	}
	return s.Update(ctx, id, UpdateNationalInput{Status: &status})
}

// Delete removes a foreign national record. Alerts referencing the record are
// left in place; the alert reference is a weak link by design.
func (s *NationalService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.ForeignNational{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("national service: delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func validateNationalInput(input CreateNationalInput, now time.Time) error {
	switch {
	case strings.TrimSpace(input.FullName) == "":
		return apperrors.NewBadRequest("full_name is required")
	case strings.TrimSpace(input.PassportNumber) == "":
		return apperrors.NewBadRequest("passport_number is required")
	case strings.TrimSpace(input.CountryOfOrigin) == "":
		return apperrors.NewBadRequest("country_of_origin is required")
	case strings.TrimSpace(input.Nationality) == "":
		return apperrors.NewBadRequest("nationality is required")
	case strings.TrimSpace(input.PermitNumber) == "":
		return apperrors.NewBadRequest("permit_number is required")
	case strings.TrimSpace(input.CurrentAddress) == "":
		return apperrors.NewBadRequest("current_address is required")
	}

	if !input.Gender.Valid() {
		return apperrors.NewBadRequest("gender is not a recognised value")
	}
	if !input.PermitType.Valid() {
		return apperrors.NewBadRequest("permit_type is not a recognised value")
	}
	if !input.ActivityType.Valid() {
		return apperrors.NewBadRequest("activity_type is not a recognised value")
	}
	if input.Status != "" && !input.Status.Valid() {
		return apperrors.NewBadRequest("status is not a recognised value")
	}

	if input.DateOfBirth.IsZero() || !input.DateOfBirth.Before(now) {
		return apperrors.NewBadRequest("date_of_birth must be before today")
	}
	if input.PermitIssueDate.IsZero() || models.DaysBetween(now, input.PermitIssueDate) > 0 {
		return apperrors.NewBadRequest("permit_issue_date must not be in the future")
	}
	if input.PermitExpiryDate.IsZero() || !input.PermitExpiryDate.After(input.PermitIssueDate) {
		return apperrors.NewBadRequest("permit_expiry_date must be after permit_issue_date")
	}

	return nil
}

func applyNationalFilters(query *gorm.DB, filters NationalFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"full_name LIKE ? OR passport_number LIKE ? OR permit_number LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filters.Country != "" {
		query = query.Where("country_of_origin = ?", filters.Country)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.PermitType != "" {
		query = query.Where("permit_type = ?", filters.PermitType)
	}
	if filters.ActivityType != "" {
		query = query.Where("activity_type = ?", filters.ActivityType)
	}
	return query
}
