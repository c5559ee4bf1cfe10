package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/svsf-edu/enrollment-service/internal/events"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/renderer"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

func newTestApplicationService(repo *mockRepository) (*applicationService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	service := &applicationService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
		publisher: publisher,
		renderer:  renderer.New("Test School", "Test Address"),
	}
	return service, publisher
}

func submitRequest(grade models.GradeLevel, strand *models.Strand) *SubmitApplicationRequest {
	return &SubmitApplicationRequest{
		GradeLevel: grade,
		Strand:     strand,
		FormData:   []byte(`{"student":{"first_name":"Ana"}}`),
	}
}

func TestApplicationService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("student submits and starts in PENDING", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		service, publisher := newTestApplicationService(repo)

		resp, err := service.Submit(ctx, submitRequest(models.GradeJuniorHigh, nil), "student-1")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Status != models.StatusPending {
			t.Errorf("Expected status PENDING, got %s", resp.Status)
		}
		if resp.ID == "" {
			t.Error("Application ID should not be empty")
		}
		for _, ch := range resp.ID {
			if ch == '-' {
				t.Error("Application ID must not contain hyphens")
			}
		}
		if resp.SubmitterName != "Ana Reyes" {
			t.Errorf("Expected submitter name 'Ana Reyes', got %q", resp.SubmitterName)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventApplicationSubmitted {
			t.Errorf("Expected one %s event, got %+v", events.EventApplicationSubmitted, published)
		}
	})

	t.Run("student cap is one application", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		service, _ := newTestApplicationService(repo)

		if _, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "student-1"); err != nil {
			t.Fatalf("First submit failed: %v", err)
		}
		_, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "student-1")
		if !errors.Is(err, ErrApplicationCapReached) {
			t.Errorf("Expected ErrApplicationCapReached, got %v", err)
		}
	})

	t.Run("parent cap is five applications", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("parent-1", "Ben", "Cruz", models.RoleParent)
		service, _ := newTestApplicationService(repo)

		for i := 0; i < 5; i++ {
			if _, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "parent-1"); err != nil {
				t.Fatalf("Submit %d failed: %v", i+1, err)
			}
		}
		_, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "parent-1")
		if !errors.Is(err, ErrApplicationCapReached) {
			t.Errorf("Expected ErrApplicationCapReached, got %v", err)
		}
	})

	t.Run("senior high requires a strand", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		service, _ := newTestApplicationService(repo)

		_, err := service.Submit(ctx, submitRequest(models.GradeSeniorHigh, nil), "student-1")
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("Expected ErrValidationFailed, got %v", err)
		}

		strand := models.StrandSTEM
		if _, err := service.Submit(ctx, submitRequest(models.GradeSeniorHigh, &strand), "student-1"); err != nil {
			t.Errorf("Submit with strand failed: %v", err)
		}
	})

	t.Run("strand rejected below senior high", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		service, _ := newTestApplicationService(repo)

		strand := models.StrandABM
		_, err := service.Submit(ctx, submitRequest(models.GradeJuniorHigh, &strand), "student-1")
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("Expected ErrValidationFailed, got %v", err)
		}
	})

	t.Run("admin may not submit", func(t *testing.T) {
		repo := newMockRepository()
		repo.addUser("admin-1", "Admin", "User", models.RoleAdmin)
		service, _ := newTestApplicationService(repo)

		_, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "admin-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown actor is unauthorized", func(t *testing.T) {
		repo := newMockRepository()
		service, _ := newTestApplicationService(repo)

		_, err := service.Submit(ctx, submitRequest(models.GradeElementary, nil), "ghost")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestCanTransition(t *testing.T) {
	statuses := []models.ApplicationStatus{
		models.StatusPending,
		models.StatusUnderReview,
		models.StatusApproved,
		models.StatusEnrolled,
		models.StatusRejected,
	}
	allowed := map[string]bool{
		"PENDING->UNDER_REVIEW":  true,
		"PENDING->REJECTED":      true,
		"UNDER_REVIEW->APPROVED": true,
		"UNDER_REVIEW->REJECTED": true,
		"APPROVED->ENROLLED":     true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			key := fmt.Sprintf("%s->%s", from, to)
			if got := CanTransition(from, to); got != allowed[key] {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, allowed[key])
			}
		}
	}
}

func TestApplicationService_Transition(t *testing.T) {
	ctx := context.Background()

	setup := func(status models.ApplicationStatus) (*applicationService, *mockRepository, *events.MockEventPublisher) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		repo.addUser("admin-1", "Admin", "User", models.RoleAdmin)
		repo.addUser("root-1", "Root", "User", models.RoleSuperAdmin)
		repo.addApplication("app-1", "student-1", models.GradeJuniorHigh, status)
		service, publisher := newTestApplicationService(repo)
		return service, repo, publisher
	}

	t.Run("legal step succeeds and publishes", func(t *testing.T) {
		service, _, publisher := setup(models.StatusPending)

		resp, err := service.Transition(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusUnderReview}, "admin-1")
		if err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if resp.Status != models.StatusUnderReview {
			t.Errorf("Expected UNDER_REVIEW, got %s", resp.Status)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventApplicationStatusChanged {
			t.Fatalf("Expected one status_changed event, got %+v", published)
		}
	})

	t.Run("illegal jump is rejected", func(t *testing.T) {
		service, repo, _ := setup(models.StatusPending)

		_, err := service.Transition(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusEnrolled}, "admin-1")
		if !IsTransitionError(err) {
			t.Fatalf("Expected TransitionError, got %v", err)
		}

		stored, _ := repo.applicationRepo.GetByID(ctx, nil, "app-1")
		if stored.Status != models.StatusPending {
			t.Errorf("Status must be unchanged after rejected transition, got %s", stored.Status)
		}
	})

	t.Run("terminal statuses have no outgoing edges", func(t *testing.T) {
		for _, terminal := range []models.ApplicationStatus{models.StatusEnrolled, models.StatusRejected} {
			service, _, _ := setup(terminal)
			_, err := service.Transition(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusUnderReview}, "admin-1")
			if !IsTransitionError(err) {
				t.Errorf("Expected TransitionError from %s, got %v", terminal, err)
			}
		}
	})

	t.Run("non-staff may not transition", func(t *testing.T) {
		service, _, _ := setup(models.StatusPending)

		_, err := service.Transition(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusUnderReview}, "student-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("missing application", func(t *testing.T) {
		service, _, _ := setup(models.StatusPending)

		_, err := service.Transition(ctx, "missing", &UpdateStatusRequest{Status: models.StatusUnderReview}, "admin-1")
		if !errors.Is(err, ErrApplicationNotFound) {
			t.Errorf("Expected ErrApplicationNotFound, got %v", err)
		}
	})

	t.Run("override skips adjacency for super admin only", func(t *testing.T) {
		service, _, _ := setup(models.StatusRejected)

		if _, err := service.OverrideStatus(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusUnderReview}, "admin-1"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Admin override should be unauthorized, got %v", err)
		}

		resp, err := service.OverrideStatus(ctx, "app-1", &UpdateStatusRequest{Status: models.StatusUnderReview}, "root-1")
		if err != nil {
			t.Fatalf("Super admin override failed: %v", err)
		}
		if resp.Status != models.StatusUnderReview {
			t.Errorf("Expected UNDER_REVIEW after override, got %s", resp.Status)
		}
	})

	t.Run("override still rejects undefined status", func(t *testing.T) {
		service, _, _ := setup(models.StatusPending)

		_, err := service.OverrideStatus(ctx, "app-1", &UpdateStatusRequest{Status: "ARCHIVED"}, "root-1")
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("Expected ErrValidationFailed, got %v", err)
		}
	})
}

func TestApplicationService_ListAndStats(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
	repo.addUser("parent-1", "Ben", "Cruz", models.RoleParent)
	repo.addUser("admin-1", "Admin", "User", models.RoleAdmin)
	repo.addApplication("app-1", "student-1", models.GradeJuniorHigh, models.StatusPending)
	repo.addApplication("app-2", "parent-1", models.GradeElementary, models.StatusApproved)
	repo.addApplication("app-3", "parent-1", models.GradeSeniorHigh, models.StatusPending)
	service, _ := newTestApplicationService(repo)

	t.Run("staff list with status filter", func(t *testing.T) {
		resp, err := service.List(ctx, ListApplicationsRequest{Status: "PENDING"}, "admin-1")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("Expected 2 pending applications, got %d", resp.Total)
		}
	})

	t.Run("ALL filter means no filter", func(t *testing.T) {
		resp, err := service.List(ctx, ListApplicationsRequest{Status: "ALL", GradeLevel: "ALL"}, "admin-1")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 3 {
			t.Errorf("Expected 3 applications, got %d", resp.Total)
		}
	})

	t.Run("non-staff may not list", func(t *testing.T) {
		if _, err := service.List(ctx, ListApplicationsRequest{}, "student-1"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("own applications only", func(t *testing.T) {
		applications, err := service.ListOwn(ctx, "parent-1")
		if err != nil {
			t.Fatalf("ListOwn failed: %v", err)
		}
		if len(applications) != 2 {
			t.Fatalf("Expected 2 applications, got %d", len(applications))
		}
		for _, application := range applications {
			if application.UserID != "parent-1" {
				t.Errorf("Foreign application leaked into own list: %s", application.ID)
			}
		}
	})

	t.Run("count own", func(t *testing.T) {
		count, err := service.CountOwn(ctx, "parent-1")
		if err != nil {
			t.Fatalf("CountOwn failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected count 2, got %d", count)
		}
	})

	t.Run("stats aggregate by status and grade", func(t *testing.T) {
		stats, err := service.GetStats(ctx, "admin-1")
		if err != nil {
			t.Fatalf("GetStats failed: %v", err)
		}
		if stats.Total != 3 {
			t.Errorf("Expected total 3, got %d", stats.Total)
		}
		if stats.ByStatus[models.StatusPending] != 2 {
			t.Errorf("Expected 2 PENDING, got %d", stats.ByStatus[models.StatusPending])
		}
		if stats.ByGradeLevel[models.GradeElementary] != 1 {
			t.Errorf("Expected 1 ELEMENTARY, got %d", stats.ByGradeLevel[models.GradeElementary])
		}
	})

	t.Run("verification metadata is staff only", func(t *testing.T) {
		if _, err := service.VerificationMetadata(ctx, "app-1", "student-1"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}

		metadata, err := service.VerificationMetadata(ctx, "app-1", "admin-1")
		if err != nil {
			t.Fatalf("VerificationMetadata failed: %v", err)
		}
		if metadata.StudentName != "Ana Reyes" {
			t.Errorf("Expected 'Ana Reyes', got %q", metadata.StudentName)
		}
	})
}

func TestApplicationService_Export(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addUser("admin-1", "Admin", "User", models.RoleAdmin)
	repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
	repo.addApplication("app-1", "student-1", models.GradeJuniorHigh, models.StatusPending)
	service, _ := newTestApplicationService(repo)

	artifact, err := service.Export(ctx, ListApplicationsRequest{}, "admin-1")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if artifact.ContentType != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type %s", artifact.ContentType)
	}
	if len(artifact.Data) == 0 {
		t.Error("Workbook should not be empty")
	}
	// xlsx files are zip archives
	if len(artifact.Data) < 2 || artifact.Data[0] != 'P' || artifact.Data[1] != 'K' {
		t.Error("Workbook should start with a zip signature")
	}

	if _, err := service.Export(ctx, ListApplicationsRequest{}, "student-1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}
