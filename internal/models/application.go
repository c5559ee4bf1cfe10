package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "PENDING"
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusApproved    ApplicationStatus = "APPROVED"
	StatusEnrolled    ApplicationStatus = "ENROLLED"
	StatusRejected    ApplicationStatus = "REJECTED"
)

// IsValid reports whether s is one of the five defined statuses.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusEnrolled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusEnrolled || s == StatusRejected
}

type GradeLevel string

const (
	GradeElementary GradeLevel = "ELEMENTARY"
	GradeJuniorHigh GradeLevel = "JUNIOR_HIGH"
	GradeSeniorHigh GradeLevel = "SENIOR_HIGH"
)

// HasStrand reports whether this grade level carries an academic track.
func (g GradeLevel) HasStrand() bool {
	return g == GradeSeniorHigh
}

type Strand string

const (
	StrandSTEM  Strand = "STEM"
	StrandABM   Strand = "ABM"
	StrandHUMSS Strand = "HUMSS"
	StrandGAS   Strand = "GAS"
	StrandTVL   Strand = "TVL"
)

type Application struct {
	ID         string            `json:"id" gorm:"primaryKey;size:32"`
	UserID     string            `json:"user_id" gorm:"not null;index;size:255"`
	GradeLevel GradeLevel        `json:"grade_level" gorm:"not null;size:20;index" validate:"required,oneof=ELEMENTARY JUNIOR_HIGH SENIOR_HIGH"`
	Strand     *Strand           `json:"strand" gorm:"size:20;index" validate:"omitempty,oneof=STEM ABM HUMSS GAS TVL"`
	Status     ApplicationStatus `json:"status" gorm:"not null;default:PENDING;size:20;index"`

	// Opaque multi-step form payload (student info, family background,
	// educational background). Never read by the lifecycle core.
	FormData datatypes.JSON `json:"form_data,omitempty" gorm:"type:jsonb"`

	// Set on first slip generation, rotated on every subsequent one.
	VerificationCode *string `json:"-" gorm:"size:16"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Application) TableName() string {
	return "applications"
}

// NewApplicationID generates an application ID with no hyphens. Verification
// slugs are split on the first hyphen, so the ID alphabet must not contain one.
func NewApplicationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// VerificationSlug derives the public lookup key for an application. The slug
// is what gets embedded in slip QR codes instead of the raw record ID.
func VerificationSlug(lastName, applicationID string) string {
	return strings.ToLower(lastName) + "-" + applicationID
}

// ParseVerificationSlug splits a slug into its claimed last name and
// application ID. The split is at the first hyphen; IDs never contain one.
func ParseVerificationSlug(slug string) (lastName, applicationID string, ok bool) {
	lastName, applicationID, ok = strings.Cut(slug, "-")
	if !ok || lastName == "" || applicationID == "" {
		return "", "", false
	}
	return lastName, applicationID, true
}
