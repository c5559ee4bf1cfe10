package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/events"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/renderer"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

// allowedTransitions is the lifecycle adjacency. Anything absent is an
// illegal jump; ENROLLED and REJECTED have no outgoing edges.
var allowedTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusPending:     {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:    {models.StatusEnrolled},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type applicationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	renderer  *renderer.Renderer
}

func NewApplicationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, r *renderer.Renderer) ApplicationService {
	return &applicationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
		renderer:  r,
	}
}

// ===== APPLICANT OPERATIONS =====

func (s *applicationService) Submit(ctx context.Context, req *SubmitApplicationRequest, actorID string) (*ApplicationResponse, error) {
	actor, err := requireRole(ctx, s.repo.User(), actorID, "application", "submit", models.RoleStudent, models.RoleParent)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateApplicationSubmit(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	count, err := s.repo.Application().CountByUser(ctx, s.db, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if count >= int64(actor.Role.ApplicationCap()) {
		return nil, ErrApplicationCapReached
	}

	application := &models.Application{
		ID:         models.NewApplicationID(),
		UserID:     actor.ID,
		GradeLevel: req.GradeLevel,
		Strand:     req.Strand,
		Status:     models.StatusPending,
		FormData:   []byte(req.FormData),
	}

	if err := s.repo.Application().Create(ctx, s.db, application); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.logger.Info("Application submitted",
		"application_id", application.ID,
		"user_id", actor.ID,
		"grade_level", application.GradeLevel)

	s.publish(ctx, events.EventApplicationSubmitted, events.ApplicationSubmittedEvent{
		ApplicationID: application.ID,
		UserID:        actor.ID,
		GradeLevel:    application.GradeLevel,
		Strand:        application.Strand,
	})

	application.User = *actor
	return s.buildResponse(application), nil
}

func (s *applicationService) ListOwn(ctx context.Context, actorID string) ([]*ApplicationResponse, error) {
	actor, err := requireRole(ctx, s.repo.User(), actorID, "application", "list_own",
		models.RoleStudent, models.RoleParent, models.RoleAdmin, models.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}

	filters := repositories.ApplicationFilters{UserID: &actor.ID, SortBy: "created_at", SortOrder: "desc"}
	applications, _, err := s.repo.Application().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out := make([]*ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		out = append(out, s.buildResponse(application))
	}
	return out, nil
}

func (s *applicationService) CountOwn(ctx context.Context, actorID string) (int64, error) {
	actor, err := requireRole(ctx, s.repo.User(), actorID, "application", "count_own",
		models.RoleStudent, models.RoleParent, models.RoleAdmin, models.RoleSuperAdmin)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.Application().CountByUser(ctx, s.db, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return count, nil
}

// ===== STAFF OPERATIONS =====

func (s *applicationService) List(ctx context.Context, req ListApplicationsRequest, actorID string) (*ApplicationListResponse, error) {
	if _, err := requireStaff(ctx, s.repo.User(), actorID, "application", "list"); err != nil {
		return nil, err
	}

	filters := buildFilters(req)
	applications, total, err := s.repo.Application().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	responses := make([]*ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		responses = append(responses, s.buildResponse(application))
	}

	return &ApplicationListResponse{
		Applications: responses,
		Total:        total,
		Page:         req.Page,
		Size:         req.Size,
	}, nil
}

func (s *applicationService) Transition(ctx context.Context, applicationID string, req *UpdateStatusRequest, actorID string) (*ApplicationResponse, error) {
	actor, err := requireStaff(ctx, s.repo.User(), actorID, "application", "transition")
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusUpdate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	return s.applyTransition(ctx, applicationID, req.Status, actor, false)
}

// OverrideStatus is the escape hatch: it skips the adjacency check and only
// requires the target to be a defined status. SUPER_ADMIN only.
func (s *applicationService) OverrideStatus(ctx context.Context, applicationID string, req *UpdateStatusRequest, actorID string) (*ApplicationResponse, error) {
	actor, err := requireRole(ctx, s.repo.User(), actorID, "application", "override_status", models.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusUpdate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	return s.applyTransition(ctx, applicationID, req.Status, actor, true)
}

func (s *applicationService) applyTransition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor *models.User, override bool) (*ApplicationResponse, error) {
	application, err := s.repo.Application().GetByIDWithUser(ctx, s.db, applicationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	from := application.Status
	if !override && !CanTransition(from, target) {
		return nil, NewTransitionError(applicationID, from, target)
	}

	if err := s.repo.Application().UpdateStatus(ctx, s.db, applicationID, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	application.Status = target

	s.logger.Info("Application status changed",
		"application_id", applicationID,
		"from", from,
		"to", target,
		"actor_id", actor.ID,
		"override", override)

	s.publish(ctx, events.EventApplicationStatusChanged, events.ApplicationStatusChangedEvent{
		ApplicationID: applicationID,
		UserID:        application.UserID,
		FromStatus:    from,
		ToStatus:      target,
		ActorID:       actor.ID,
		Override:      override,
	})

	return s.buildResponse(application), nil
}

func (s *applicationService) VerificationMetadata(ctx context.Context, applicationID string, actorID string) (*VerificationMetadataResponse, error) {
	if _, err := requireStaff(ctx, s.repo.User(), actorID, "application", "verification_metadata"); err != nil {
		return nil, err
	}

	application, err := s.repo.Application().GetByIDWithUser(ctx, s.db, applicationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &VerificationMetadataResponse{
		ApplicationID: application.ID,
		Status:        application.Status,
		StudentName:   application.User.FullName(),
		GradeLevel:    application.GradeLevel,
		CreatedAt:     application.CreatedAt,
	}, nil
}

func (s *applicationService) GetStats(ctx context.Context, actorID string) (*repositories.ApplicationStats, error) {
	if _, err := requireStaff(ctx, s.repo.User(), actorID, "application", "stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Application().GetStats(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return stats, nil
}

func (s *applicationService) Export(ctx context.Context, req ListApplicationsRequest, actorID string) (*SlipArtifact, error) {
	if _, err := requireStaff(ctx, s.repo.User(), actorID, "application", "export"); err != nil {
		return nil, err
	}

	filters := buildFilters(req)
	filters.Limit = 0 // export is unpaginated
	filters.Offset = 0

	applications, _, err := s.repo.Application().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	rows := make([]renderer.WorkbookRow, 0, len(applications))
	for _, application := range applications {
		rows = append(rows, renderer.WorkbookRow{
			ApplicationID: application.ID,
			StudentName:   application.User.FullName(),
			GradeLevel:    application.GradeLevel,
			Strand:        application.Strand,
			Status:        application.Status,
			CreatedAt:     application.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := s.renderer.ApplicationsWorkbook(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return &SlipArtifact{
		Filename:    fmt.Sprintf("applications-%s.xlsx", time.Now().Format("2006-01-02")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

// ===== HELPERS =====

func (s *applicationService) buildResponse(application *models.Application) *ApplicationResponse {
	return &ApplicationResponse{
		Application:   application,
		SubmitterName: application.User.FullName(),
	}
}

// publish sends a domain event without letting broker trouble affect the
// operation outcome.
func (s *applicationService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

// buildFilters maps "ALL"/empty filter strings onto the repository filters.
func buildFilters(req ListApplicationsRequest) repositories.ApplicationFilters {
	filters := repositories.ApplicationFilters{
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if req.Status != "" && req.Status != "ALL" {
		status := models.ApplicationStatus(req.Status)
		filters.Status = &status
	}
	if req.GradeLevel != "" && req.GradeLevel != "ALL" {
		grade := models.GradeLevel(req.GradeLevel)
		filters.GradeLevel = &grade
	}
	if req.Strand != "" && req.Strand != "ALL" {
		strand := models.Strand(req.Strand)
		filters.Strand = &strand
	}

	size := req.Size
	if size <= 0 {
		size = 50
	}
	if size > 200 {
		size = 200
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	filters.Limit = size
	filters.Offset = (page - 1) * size

	return filters
}
