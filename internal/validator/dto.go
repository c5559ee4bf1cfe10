package validator

import (
	"encoding/json"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// SubmitApplicationRequest carries the completed multi-step form. Field-level
// validation of the form payload happened client-side; the server keeps it
// opaque and only validates the enrollment-relevant fields.
type SubmitApplicationRequest struct {
	GradeLevel models.GradeLevel `json:"grade_level" validate:"required,grade_level"`
	Strand     *models.Strand    `json:"strand" validate:"omitempty,strand"`
	FormData   json.RawMessage   `json:"form_data" validate:"required"`
}

// UpdateStatusRequest represents a staff lifecycle transition.
type UpdateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,application_status"`
	Reason *string                  `json:"reason" validate:"omitempty,max=500"`
}

// VerifyRequest is the public slip verification claim.
type VerifyRequest struct {
	Slug             string `json:"slug" validate:"required,max=300"`
	VerificationCode string `json:"verification_code" validate:"required,max=16"`
}
