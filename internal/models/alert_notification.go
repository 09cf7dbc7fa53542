package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when an alert status change would move the
// alert backwards or mutate a resolved alert.
var ErrInvalidTransition = errors.New("alert: invalid status transition")

// SubjectKind discriminates the two subject variants an alert may reference.
type SubjectKind string

const (
	SubjectKindNational     SubjectKind = "foreign_national"
	SubjectKindOrganization SubjectKind = "foreign_organization"
)

// Valid reports whether the subject kind is known.
func (k SubjectKind) Valid() bool {
	return k == SubjectKindNational || k == SubjectKindOrganization
}

// AlertType enumerates the conditions that raise an alert.
type AlertType string

const (
	AlertTypePermitExpiring   AlertType = "permit_expiring"
	AlertTypeLicenseExpiring  AlertType = "license_expiring"
	AlertTypeOverstayDetected AlertType = "overstay_detected"
	AlertTypeDocumentMissing  AlertType = "document_missing"
	AlertTypeStatusChange     AlertType = "status_change"
)

// Valid reports whether the alert type is known.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePermitExpiring, AlertTypeLicenseExpiring, AlertTypeOverstayDetected,
		AlertTypeDocumentMissing, AlertTypeStatusChange:
		return true
	}
	return false
}

// AlertSeverity enumerates alert severities ordered low < medium < high < critical.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Valid reports whether the severity is known.
func (s AlertSeverity) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the severity in the low<medium<high<critical
// ordering, or -1 for unknown values.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// AlertStatus enumerates the linear alert workflow unread → read →
// acknowledged → resolved.
type AlertStatus string

const (
	AlertStatusUnread       AlertStatus = "unread"
	AlertStatusRead         AlertStatus = "read"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid reports whether the status is known.
func (s AlertStatus) Valid() bool {
	return s.rank() >= 0
}

func (s AlertStatus) rank() int {
	switch s {
	case AlertStatusUnread:
		return 0
	case AlertStatusRead:
		return 1
	case AlertStatusAcknowledged:
		return 2
	case AlertStatusResolved:
		return 3
	}
	return -1
}

// AlertNotification records a condition requiring attention on a subject. The
// subject reference is a weak polymorphic link: deleting the subject leaves
// the alert behind, and lookups tolerate the target being gone.
type AlertNotification struct {
	BaseModel

	SubjectKind SubjectKind `gorm:"type:varchar(32);index:idx_alerts_subject;uniqueIndex:ux_alerts_open,priority:1;not null" json:"subject_kind"`
	SubjectID   string      `gorm:"type:uuid;index:idx_alerts_subject,priority:2;uniqueIndex:ux_alerts_open,priority:2;not null" json:"subject_id"`

	AlertType AlertType     `gorm:"type:varchar(32);index;uniqueIndex:ux_alerts_open,priority:3;not null" json:"alert_type"`
	Title     string        `gorm:"type:varchar(255);not null" json:"title"`
	Message   string        `gorm:"type:text" json:"message"`
	Severity  AlertSeverity `gorm:"type:varchar(16);index:idx_alerts_status_severity,priority:2;not null" json:"severity"`
	Status    AlertStatus   `gorm:"type:varchar(16);index:idx_alerts_status_severity;default:'unread'" json:"status"`

	DueDate        *time.Time `gorm:"index" json:"due_date,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	// OpenMarker completes the ux_alerts_open unique index: true while the
	// alert is open, NULL once resolved. NULL rows never collide, so any
	// number of resolved alerts may share a subject and type while the
	// database enforces at most one open alert even under concurrent
	// writers. A predicate index cannot express this on mysql.
	OpenMarker *bool `gorm:"uniqueIndex:ux_alerts_open,priority:4" json:"-"`
}

// BeforeCreate assigns the identifier and arms the open marker for alerts
// inserted in a non-terminal state.
func (a *AlertNotification) BeforeCreate(tx *gorm.DB) error {
	if err := a.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = AlertStatusUnread
	}
	if a.OpenMarker == nil && a.Status != AlertStatusResolved {
		open := true
		a.OpenMarker = &open
	}
	return nil
}

// IsOpen reports whether the alert has not yet been resolved.
func (a *AlertNotification) IsOpen() bool {
	return a.Status != AlertStatusResolved
}

// Transition advances the alert to the requested status, stamping the
// acknowledgement and resolution timestamps exactly once. Repeating the
// current status is a no-op; moving backwards returns ErrInvalidTransition
// and leaves the alert untouched.
func (a *AlertNotification) Transition(next AlertStatus, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidTransition
	}

	current := a.Status.rank()
	target := next.rank()
	if target == current {
		return nil
	}
	if target < current {
		return ErrInvalidTransition
	}

	a.Status = next
	if next == AlertStatusAcknowledged && a.AcknowledgedAt == nil {
		ts := now
		a.AcknowledgedAt = &ts
	}
	if next == AlertStatusResolved {
		if a.ResolvedAt == nil {
			ts := now
			a.ResolvedAt = &ts
		}
		a.OpenMarker = nil
	}
	return nil
}

// MarkRead moves an unread alert to read. Already-read or later states are
// left untouched.
func (a *AlertNotification) MarkRead(now time.Time) error {
	if a.Status.rank() >= AlertStatusRead.rank() {
		return nil
	}
	return a.Transition(AlertStatusRead, now)
}

// Acknowledge stamps the acknowledgement timestamp and advances the status.
// Calling it on an already acknowledged or resolved alert is a no-op and
// never overwrites the existing timestamp.
func (a *AlertNotification) Acknowledge(now time.Time) error {
	if a.Status.rank() >= AlertStatusAcknowledged.rank() {
		return nil
	}
	return a.Transition(AlertStatusAcknowledged, now)
}

// Resolve stamps the resolution timestamp and moves the alert to its terminal
// state. Resolving an already resolved alert is a no-op.
func (a *AlertNotification) Resolve(now time.Time) error {
	if a.Status == AlertStatusResolved {
		return nil
	}
	return a.Transition(AlertStatusResolved, now)
}
