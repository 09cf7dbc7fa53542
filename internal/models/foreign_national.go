package models

import (
	"time"

	"gorm.io/datatypes"
)

// NationalStatus enumerates the lifecycle states of a foreign national record.
type NationalStatus string

const (
	NationalStatusActive    NationalStatus = "active"
	NationalStatusExpired   NationalStatus = "expired"
	NationalStatusOverstay  NationalStatus = "overstay"
	NationalStatusCancelled NationalStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s NationalStatus) Valid() bool {
	switch s {
	case NationalStatusActive, NationalStatusExpired, NationalStatusOverstay, NationalStatusCancelled:
		return true
	}
	return false
}

// NationalStatuses lists every valid foreign national status.
func NationalStatuses() []NationalStatus {
	return []NationalStatus{
		NationalStatusActive,
		NationalStatusExpired,
		NationalStatusOverstay,
		NationalStatusCancelled,
	}
}

// PermitType enumerates the stay permit categories issued to foreign nationals.
type PermitType string

const (
	PermitTypeWork       PermitType = "work"
	PermitTypeStudy      PermitType = "study"
	PermitTypeVisit      PermitType = "visit"
	PermitTypeBusiness   PermitType = "business"
	PermitTypeFamily     PermitType = "family"
	PermitTypeDiplomatic PermitType = "diplomatic"
)

// Valid reports whether the permit type is known.
func (p PermitType) Valid() bool {
	switch p {
	case PermitTypeWork, PermitTypeStudy, PermitTypeVisit, PermitTypeBusiness, PermitTypeFamily, PermitTypeDiplomatic:
		return true
	}
	return false
}

// PermitTypes lists every valid permit type.
func PermitTypes() []PermitType {
	return []PermitType{
		PermitTypeWork,
		PermitTypeStudy,
		PermitTypeVisit,
		PermitTypeBusiness,
		PermitTypeFamily,
		PermitTypeDiplomatic,
	}
}

// NationalActivity enumerates the declared activity of a foreign national.
type NationalActivity string

const (
	NationalActivityEmployee      NationalActivity = "employee"
	NationalActivityStudent       NationalActivity = "student"
	NationalActivityInvestor      NationalActivity = "investor"
	NationalActivityResearcher    NationalActivity = "researcher"
	NationalActivityDiplomat      NationalActivity = "diplomat"
	NationalActivityTourist       NationalActivity = "tourist"
	NationalActivityFamilyReunion NationalActivity = "family_reunion"
)

// Valid reports whether the activity type is known.
func (a NationalActivity) Valid() bool {
	switch a {
	case NationalActivityEmployee, NationalActivityStudent, NationalActivityInvestor,
		NationalActivityResearcher, NationalActivityDiplomat, NationalActivityTourist,
		NationalActivityFamilyReunion:
		return true
	}
	return false
}

// Gender enumerates recorded genders on travel documents.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender value is known.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ForeignNational is a tracked person holding a stay permit. The permit
// validity window runs from PermitIssueDate to PermitExpiryDate.
type ForeignNational struct {
	BaseModel

	FullName        string    `gorm:"type:varchar(255);not null" json:"full_name"`
	PassportNumber  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"passport_number"`
	CountryOfOrigin string    `gorm:"type:varchar(100);index;not null" json:"country_of_origin"`
	Nationality     string    `gorm:"type:varchar(100);not null" json:"nationality"`
	DateOfBirth     time.Time `json:"date_of_birth"`
	Gender          Gender    `gorm:"type:varchar(10);not null" json:"gender"`

	PermitNumber     string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"permit_number"`
	PermitType       PermitType       `gorm:"type:varchar(20);index;not null" json:"permit_type"`
	PermitIssueDate  time.Time        `json:"permit_issue_date"`
	PermitExpiryDate time.Time        `gorm:"index:idx_nationals_expiry_status" json:"permit_expiry_date"`
	ActivityType     NationalActivity `gorm:"type:varchar(20);not null" json:"activity_type"`

	CurrentAddress       string `gorm:"type:text;not null" json:"current_address"`
	Phone                string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email                string `gorm:"type:varchar(255)" json:"email,omitempty"`
	EmployerOrganization string `gorm:"type:varchar(255)" json:"employer_organization,omitempty"`

	Status              NationalStatus `gorm:"type:varchar(20);index:idx_nationals_expiry_status,priority:2;index;default:'active'" json:"status"`
	SupportingDocuments datatypes.JSON `json:"supporting_documents,omitempty"`
	Notes               string         `gorm:"type:text" json:"notes,omitempty"`
}

// IsExpired reports whether the permit expiry date lies strictly in the past.
func (f *ForeignNational) IsExpired(now time.Time) bool {
	return f.DaysUntilExpiry(now) < 0
}

// IsOverstaying reports whether the permit has lapsed and the record carries
// the externally asserted overstay status. Overstay is never derived from the
// expiry date alone.
func (f *ForeignNational) IsOverstaying(now time.Time) bool {
	return f.IsExpired(now) && f.Status == NationalStatusOverstay
}

// DaysUntilExpiry returns the signed number of calendar days until the permit
// expires: negative once expired, zero when expiry falls on the current day.
func (f *ForeignNational) DaysUntilExpiry(now time.Time) int {
	return DaysBetween(now, f.PermitExpiryDate)
}
