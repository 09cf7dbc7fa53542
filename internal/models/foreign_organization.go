package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrganizationStatus enumerates the lifecycle states of a foreign organization.
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusInactive  OrganizationStatus = "inactive"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusClosed    OrganizationStatus = "closed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrganizationStatusActive, OrganizationStatusInactive, OrganizationStatusSuspended, OrganizationStatusClosed:
		return true
	}
	return false
}

// OrganizationStatuses lists every valid organization status.
func OrganizationStatuses() []OrganizationStatus {
	return []OrganizationStatus{
		OrganizationStatusActive,
		OrganizationStatusInactive,
		OrganizationStatusSuspended,
		OrganizationStatusClosed,
	}
}

// OrganizationType enumerates the registered form of a foreign organization.
type OrganizationType string

const (
	OrganizationTypeCompany     OrganizationType = "company"
	OrganizationTypeNGO         OrganizationType = "ngo"
	OrganizationTypeEmbassy     OrganizationType = "embassy"
	OrganizationTypeConsulate   OrganizationType = "consulate"
	OrganizationTypeEducational OrganizationType = "educational"
	OrganizationTypeReligious   OrganizationType = "religious"
	OrganizationTypeOther       OrganizationType = "other"
)

// Valid reports whether the organization type is known.
func (o OrganizationType) Valid() bool {
	switch o {
	case OrganizationTypeCompany, OrganizationTypeNGO, OrganizationTypeEmbassy,
		OrganizationTypeConsulate, OrganizationTypeEducational, OrganizationTypeReligious,
		OrganizationTypeOther:
		return true
	}
	return false
}

// LegalStatus enumerates the legal standing of a foreign organization.
type LegalStatus string

const (
	LegalStatusRegistered LegalStatus = "registered"
	LegalStatusLicensed   LegalStatus = "licensed"
	LegalStatusAccredited LegalStatus = "accredited"
	LegalStatusTemporary  LegalStatus = "temporary"
	LegalStatusSuspended  LegalStatus = "suspended"
	LegalStatusRevoked    LegalStatus = "revoked"
)

// Valid reports whether the legal status is known.
func (l LegalStatus) Valid() bool {
	switch l {
	case LegalStatusRegistered, LegalStatusLicensed, LegalStatusAccredited,
		LegalStatusTemporary, LegalStatusSuspended, LegalStatusRevoked:
		return true
	}
	return false
}

// OrganizationActivity enumerates the declared activity of a foreign organization.
type OrganizationActivity string

const (
	OrganizationActivityCommercial   OrganizationActivity = "commercial"
	OrganizationActivityEducational  OrganizationActivity = "educational"
	OrganizationActivityHumanitarian OrganizationActivity = "humanitarian"
	OrganizationActivityDiplomatic   OrganizationActivity = "diplomatic"
	OrganizationActivityReligious    OrganizationActivity = "religious"
	OrganizationActivityResearch     OrganizationActivity = "research"
	OrganizationActivityDevelopment  OrganizationActivity = "development"
)

// Valid reports whether the activity type is known.
func (a OrganizationActivity) Valid() bool {
	switch a {
	case OrganizationActivityCommercial, OrganizationActivityEducational,
		OrganizationActivityHumanitarian, OrganizationActivityDiplomatic,
		OrganizationActivityReligious, OrganizationActivityResearch,
		OrganizationActivityDevelopment:
		return true
	}
	return false
}

// ForeignOrganization is a tracked foreign entity operating in the
// jurisdiction. The license expiry date is optional; organizations without
// one are never selected by expiry-based rules.
type ForeignOrganization struct {
	BaseModel

	OrganizationName   string           `gorm:"type:varchar(255);not null" json:"organization_name"`
	RegistrationNumber string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"registration_number"`
	CountryOfOrigin    string           `gorm:"type:varchar(100);index;not null" json:"country_of_origin"`
	OrganizationType   OrganizationType `gorm:"type:varchar(20);index;not null" json:"organization_type"`
	LegalStatus        LegalStatus      `gorm:"type:varchar(20);index;not null" json:"legal_status"`

	RegistrationDate  time.Time  `json:"registration_date"`
	LicenseExpiryDate *time.Time `gorm:"index" json:"license_expiry_date,omitempty"`

	BusinessAddress string `gorm:"type:text;not null" json:"business_address"`
	ContactPerson   string `gorm:"type:varchar(255);not null" json:"contact_person"`
	ContactPhone    string `gorm:"type:varchar(20);not null" json:"contact_phone"`
	ContactEmail    string `gorm:"type:varchar(255);not null" json:"contact_email"`

	ActivityType        OrganizationActivity `gorm:"type:varchar(20);not null" json:"activity_type"`
	ActivityDescription string               `gorm:"type:text;not null" json:"activity_description"`

	Status              OrganizationStatus `gorm:"type:varchar(20);index;default:'active'" json:"status"`
	SupportingDocuments datatypes.JSON     `json:"supporting_documents,omitempty"`
	Notes               string             `gorm:"type:text" json:"notes,omitempty"`
}

// IsLicenseExpired reports whether the license expiry date exists and lies
// strictly in the past.
func (o *ForeignOrganization) IsLicenseExpired(now time.Time) bool {
	days := o.DaysUntilLicenseExpiry(now)
	return days != nil && *days < 0
}

// DaysUntilLicenseExpiry returns the signed number of calendar days until the
// license expires, or nil when the organization has no license expiry date.
func (o *ForeignOrganization) DaysUntilLicenseExpiry(now time.Time) *int {
	if o.LicenseExpiryDate == nil {
		return nil
	}
	days := DaysBetween(now, *o.LicenseExpiryDate)
	return &days
}
