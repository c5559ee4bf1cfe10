package events

import (
	"context"
	"time"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// Event types published for external collaborators (notification service,
// reporting). This service only publishes; it never consumes.
const (
	EventApplicationSubmitted     = "application.submitted"
	EventApplicationStatusChanged = "application.status_changed"
	EventEnrollmentSlipIssued     = "enrollment_slip.issued"
)

// Event is the envelope every published message uses.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ApplicationSubmittedEvent is emitted when an applicant completes the form.
type ApplicationSubmittedEvent struct {
	ApplicationID string            `json:"application_id"`
	UserID        string            `json:"user_id"`
	GradeLevel    models.GradeLevel `json:"grade_level"`
	Strand        *models.Strand    `json:"strand,omitempty"`
}

// ApplicationStatusChangedEvent is emitted on every lifecycle transition.
type ApplicationStatusChangedEvent struct {
	ApplicationID string                   `json:"application_id"`
	UserID        string                   `json:"user_id"`
	FromStatus    models.ApplicationStatus `json:"from_status"`
	ToStatus      models.ApplicationStatus `json:"to_status"`
	ActorID       string                   `json:"actor_id"`
	Override      bool                     `json:"override"`
}

// EnrollmentSlipIssuedEvent is emitted after a slip PDF has been generated
// and a fresh verification code persisted. The code itself is never published.
type EnrollmentSlipIssuedEvent struct {
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
	Slug          string `json:"slug"`
}

// EventPublisher abstracts the broker so services can run without one.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}
