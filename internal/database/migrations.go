package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ForeignNational{},
		&models.ForeignOrganization{},
		&models.AlertNotification{},
	)
}

// SeedData inserts a small set of development records. Records are keyed on
// their unique registration identifiers, so reseeding an existing database is
// a no-op.
func SeedData(db *gorm.DB) error {
	now := time.Now().UTC()
	date := func(offsetDays int) time.Time {
		return now.AddDate(0, 0, offsetDays)
	}

	nationals := []models.ForeignNational{
		{
			FullName:         "Elena Petrova",
			PassportNumber:   "P-RU-550211",
			CountryOfOrigin:  "Russia",
			Nationality:      "Russian",
			DateOfBirth:      time.Date(1988, time.March, 14, 0, 0, 0, 0, time.UTC),
			Gender:           models.GenderFemale,
			PermitNumber:     "KITAS-2024-0001",
			PermitType:       models.PermitTypeWork,
			PermitIssueDate:  date(-300),
			PermitExpiryDate: date(200),
			ActivityType:     models.NationalActivityEmployee,
			CurrentAddress:   "Jl. Sudirman 52, Jakarta",
			Status:           models.NationalStatusActive,
		},
		{
			FullName:         "Daniel Okafor",
			PassportNumber:   "P-NG-102934",
			CountryOfOrigin:  "Nigeria",
			Nationality:      "Nigerian",
			DateOfBirth:      time.Date(1995, time.July, 2, 0, 0, 0, 0, time.UTC),
			Gender:           models.GenderMale,
			PermitNumber:     "KITAS-2024-0002",
			PermitType:       models.PermitTypeStudy,
			PermitIssueDate:  date(-340),
			PermitExpiryDate: date(20),
			ActivityType:     models.NationalActivityStudent,
			CurrentAddress:   "Jl. Margonda Raya 18, Depok",
			Status:           models.NationalStatusActive,
		},
		{
			FullName:         "Mika Tanaka",
			PassportNumber:   "P-JP-774411",
			CountryOfOrigin:  "Japan",
			Nationality:      "Japanese",
			DateOfBirth:      time.Date(1979, time.November, 23, 0, 0, 0, 0, time.UTC),
			Gender:           models.GenderFemale,
			PermitNumber:     "KITAS-2023-0417",
			PermitType:       models.PermitTypeBusiness,
			PermitIssueDate:  date(-500),
			PermitExpiryDate: date(-40),
			ActivityType:     models.NationalActivityInvestor,
			CurrentAddress:   "Jl. Gatot Subroto 7, Jakarta",
			Status:           models.NationalStatusOverstay,
		},
	}

	for _, national := range nationals {
		err := db.Where(models.ForeignNational{PassportNumber: national.PassportNumber}).
			Attrs(national).
			FirstOrCreate(&models.ForeignNational{}).Error
		if err != nil {
			return err
		}
	}

	licenseExpiry := date(15)
	organizations := []models.ForeignOrganization{
		{
			OrganizationName:    "Global Relief Foundation",
			RegistrationNumber:  "ORG-2023-0102",
			CountryOfOrigin:     "Netherlands",
			OrganizationType:    models.OrganizationTypeNGO,
			LegalStatus:         models.LegalStatusAccredited,
			RegistrationDate:    date(-700),
			LicenseExpiryDate:   &licenseExpiry,
			BusinessAddress:     "Jl. Rasuna Said Kav. 3, Jakarta",
			ContactPerson:       "Willem de Vries",
			ContactPhone:        "+62-21-555-0182",
			ContactEmail:        "office@globalrelief.example",
			ActivityType:        models.OrganizationActivityHumanitarian,
			ActivityDescription: "Disaster relief coordination and logistics",
			Status:              models.OrganizationStatusActive,
		},
		{
			OrganizationName:    "Pacific Language Institute",
			RegistrationNumber:  "ORG-2022-0871",
			CountryOfOrigin:     "Australia",
			OrganizationType:    models.OrganizationTypeEducational,
			LegalStatus:         models.LegalStatusLicensed,
			RegistrationDate:    date(-1100),
			BusinessAddress:     "Jl. Diponegoro 41, Bandung",
			ContactPerson:       "Sarah Whitmore",
			ContactPhone:        "+62-22-555-0077",
			ContactEmail:        "admin@pli.example",
			ActivityType:        models.OrganizationActivityEducational,
			ActivityDescription: "English language courses for professionals",
			Status:              models.OrganizationStatusActive,
		},
	}

	for _, org := range organizations {
		err := db.Where(models.ForeignOrganization{RegistrationNumber: org.RegistrationNumber}).
			Attrs(org).
			FirstOrCreate(&models.ForeignOrganization{}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
