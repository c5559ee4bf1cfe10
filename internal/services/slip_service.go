package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/events"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/renderer"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

// SlipConfig carries the deployment-specific pieces of slip rendering.
type SlipConfig struct {
	// BaseURL is the public portal origin embedded in verification QR codes.
	BaseURL string
}

type enrollmentSlipService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	renderer  *renderer.Renderer
	publisher events.EventPublisher
	baseURL   string

	// One mutex per application so generate+persist+render is atomic per
	// application: a concurrent call can never stream a slip whose embedded
	// code was already superseded.
	locks sync.Map
}

func NewEnrollmentSlipService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, r *renderer.Renderer, publisher events.EventPublisher, cfg SlipConfig) EnrollmentSlipService {
	return &enrollmentSlipService{
		repo:      repo,
		db:        db,
		logger:    logger,
		renderer:  r,
		publisher: publisher,
		baseURL:   cfg.BaseURL,
	}
}

func (s *enrollmentSlipService) lockFor(applicationID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(applicationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *enrollmentSlipService) Generate(ctx context.Context, applicationID string, actorID string) (*SlipArtifact, error) {
	if actorID == "" {
		return nil, ErrUnauthorized
	}

	actor, err := s.repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	application, err := s.repo.Application().GetByIDWithUser(ctx, s.db, applicationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !actor.Role.IsStaff() && application.UserID != actor.ID {
		return nil, NewPermissionError(actorID, "application", "generate_slip", "not owner")
	}

	lock := s.lockFor(applicationID)
	lock.Lock()
	defer lock.Unlock()

	code, err := GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	// Persist before rendering. No retry here: a blind retry would rotate
	// the code a second time and orphan the slip just streamed.
	if err := s.repo.Application().RotateVerificationCode(ctx, s.db, applicationID, code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	slug := models.VerificationSlug(application.User.LastName, application.ID)
	data, err := s.renderer.EnrollmentSlip(renderer.SlipData{
		ApplicationID:    application.ID,
		StudentName:      application.User.FullName(),
		GradeLevel:       application.GradeLevel,
		Strand:           application.Strand,
		Status:           application.Status,
		CreatedAt:        application.CreatedAt,
		VerificationURL:  fmt.Sprintf("%s/verification/%s", s.baseURL, slug),
		VerificationCode: code,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	s.logger.Info("Enrollment slip generated",
		"application_id", application.ID,
		"actor_id", actorID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.EventEnrollmentSlipIssued, events.EnrollmentSlipIssuedEvent{
			ApplicationID: application.ID,
			UserID:        application.UserID,
			Slug:          slug,
		}); err != nil {
			s.logger.Error("Failed to publish event", "event_type", events.EventEnrollmentSlipIssued, "error", err)
		}
	}

	return &SlipArtifact{
		Filename:    fmt.Sprintf("%s-%s-%s.pdf", application.User.LastName, application.User.FirstName, application.ID),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *enrollmentSlipService) AdminReport(ctx context.Context, actorID string) (*SlipArtifact, error) {
	if _, err := requireStaff(ctx, s.repo.User(), actorID, "report", "generate"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Application().GetStats(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	now := time.Now()
	data, err := s.renderer.AdminReport(stats, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return &SlipArtifact{
		Filename:    fmt.Sprintf("applications-report-%s.pdf", now.Format("2006-01-02")),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
