package services

import (
	"context"
	"time"

	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type SubmitApplicationRequest = validator.SubmitApplicationRequest
type UpdateStatusRequest = validator.UpdateStatusRequest
type VerifyRequest = validator.VerifyRequest

type ApplicationResponse struct {
	*models.Application
	SubmitterName string `json:"submitter_name"`
}

type ApplicationListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	Size         int                    `json:"size"`
}

// ListApplicationsRequest carries the raw admin filters. Empty or "ALL"
// means no filtering on that field.
type ListApplicationsRequest struct {
	Status     string `json:"status"`
	GradeLevel string `json:"grade_level"`
	Strand     string `json:"strand"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
}

// VerificationMetadataResponse is the staff-facing slip metadata lookup.
type VerificationMetadataResponse struct {
	ApplicationID string                   `json:"application_id"`
	Status        models.ApplicationStatus `json:"status"`
	StudentName   string                   `json:"student_name"`
	GradeLevel    models.GradeLevel        `json:"grade_level"`
	CreatedAt     time.Time                `json:"created_at"`
}

// VerifiedApplicationView is the redacted view returned to public verifiers.
// Never extend it with user or family-background fields.
type VerifiedApplicationView struct {
	ApplicationID string                   `json:"application_id"`
	Status        models.ApplicationStatus `json:"status"`
	StudentName   string                   `json:"student_name"`
	GradeLevel    models.GradeLevel        `json:"grade_level"`
	CreatedAt     time.Time                `json:"created_at"`
}

// SlipArtifact is a rendered binary document ready to stream.
type SlipArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type ApplicationService interface {
	// Applicant operations
	Submit(ctx context.Context, req *SubmitApplicationRequest, actorID string) (*ApplicationResponse, error)
	ListOwn(ctx context.Context, actorID string) ([]*ApplicationResponse, error)
	CountOwn(ctx context.Context, actorID string) (int64, error)

	// Staff operations
	List(ctx context.Context, req ListApplicationsRequest, actorID string) (*ApplicationListResponse, error)
	Transition(ctx context.Context, applicationID string, req *UpdateStatusRequest, actorID string) (*ApplicationResponse, error)
	OverrideStatus(ctx context.Context, applicationID string, req *UpdateStatusRequest, actorID string) (*ApplicationResponse, error)
	VerificationMetadata(ctx context.Context, applicationID string, actorID string) (*VerificationMetadataResponse, error)
	GetStats(ctx context.Context, actorID string) (*repositories.ApplicationStats, error)
	Export(ctx context.Context, req ListApplicationsRequest, actorID string) (*SlipArtifact, error)
}

type EnrollmentSlipService interface {
	// Generate renders the enrollment slip PDF for an application. Every call
	// rotates the stored verification code, invalidating prior slips.
	Generate(ctx context.Context, applicationID string, actorID string) (*SlipArtifact, error)

	// AdminReport renders the staff summary PDF of all applications.
	AdminReport(ctx context.Context, actorID string) (*SlipArtifact, error)
}

type VerificationService interface {
	// Verify checks a public slug+code claim and returns the redacted view.
	// Every failure mode collapses into ErrVerificationInvalid.
	Verify(ctx context.Context, req *VerifyRequest) (*VerifiedApplicationView, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Application() ApplicationService
	Slip() EnrollmentSlipService
	Verification() VerificationService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
