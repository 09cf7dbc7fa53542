package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/database/testutil"
	"github.com/imigrasi-dev/wna-registry/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func validNationalInput(passport, permit string, expiry time.Time) CreateNationalInput {
	return CreateNationalInput{
		FullName:         "Amara Diallo",
		PassportNumber:   passport,
		CountryOfOrigin:  "Senegal",
		Nationality:      "Senegalese",
		DateOfBirth:      time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
		Gender:           models.GenderFemale,
		PermitNumber:     permit,
		PermitType:       models.PermitTypeWork,
		PermitIssueDate:  expiry.AddDate(-2, 0, 0),
		PermitExpiryDate: expiry,
		ActivityType:     models.NationalActivityEmployee,
		CurrentAddress:   "Jl. Sudirman 12, Jakarta",
		Phone:            "+62811234567",
		Email:            "amara.diallo@example.com",
	}
}

func validOrganizationInput(registration string, licenseExpiry *time.Time) CreateOrganizationInput {
	return CreateOrganizationInput{
		OrganizationName:    "Global Relief Initiative",
		RegistrationNumber:  registration,
		CountryOfOrigin:     "Netherlands",
		OrganizationType:    models.OrganizationTypeNGO,
		LegalStatus:         models.LegalStatusRegistered,
		RegistrationDate:    time.Now().UTC().AddDate(-3, 0, 0),
		LicenseExpiryDate:   licenseExpiry,
		BusinessAddress:     "Jl. Thamrin 45, Jakarta",
		ContactPerson:       "Pieter van Dam",
		ContactPhone:        "+62215551234",
		ContactEmail:        "contact@gri.example.org",
		ActivityType:        models.OrganizationActivityHumanitarian,
		ActivityDescription: "Disaster relief coordination",
	}
}

func mustCreateNational(t *testing.T, svc *NationalService, input CreateNationalInput) *models.ForeignNational {
	t.Helper()
	national, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	return national
}
