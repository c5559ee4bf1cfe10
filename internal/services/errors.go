package services

import (
	"errors"
	"fmt"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// Sentinel errors the handler layer maps onto HTTP responses.
var (
	// ErrUnauthorized covers both "no session" and "wrong role". The two are
	// deliberately indistinguishable to callers.
	ErrUnauthorized = errors.New("unauthorized")

	ErrApplicationNotFound = errors.New("application not found")
	ErrUserNotFound        = errors.New("user not found")

	// ErrVerificationInvalid is the single signal for every failed
	// verification claim. Which of the checks failed is never exposed.
	ErrVerificationInvalid = errors.New("invalid verification")

	// ErrTooManyAttempts throttles the public verification endpoint.
	ErrTooManyAttempts = errors.New("too many verification attempts")

	ErrValidationFailed = errors.New("validation failed")
	ErrRenderFailed     = errors.New("failed to render document")

	// ErrUpstream wraps store failures without leaking internal detail.
	ErrUpstream = errors.New("upstream store error")

	ErrApplicationCapReached = errors.New("application limit reached for role")
)

// TransitionError reports an illegal lifecycle jump.
type TransitionError struct {
	ApplicationID string
	From          models.ApplicationStatus
	To            models.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for application %s", e.From, e.To, e.ApplicationID)
}

func NewTransitionError(applicationID string, from, to models.ApplicationStatus) *TransitionError {
	return &TransitionError{ApplicationID: applicationID, From: from, To: to}
}

// IsTransitionError reports whether err is an illegal-transition failure.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// PermissionError carries context for denied operations; it unwraps to
// ErrUnauthorized so handlers collapse it into the uniform signal.
type PermissionError struct {
	ActorID   string
	Resource  string
	Operation string
	Reason    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %s may not %s %s: %s", e.ActorID, e.Operation, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrUnauthorized }

func NewPermissionError(actorID, resource, operation, reason string) *PermissionError {
	return &PermissionError{
		ActorID:   actorID,
		Resource:  resource,
		Operation: operation,
		Reason:    reason,
	}
}
