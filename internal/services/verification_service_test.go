package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/svsf-edu/enrollment-service/internal/cache"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

func newTestVerificationService(repo *mockRepository, limiter *cache.VerifyLimiter) *verificationService {
	return &verificationService{
		repo:      repo,
		logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)),
		validator: validator.New(),
		limiter:   limiter,
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("GenerateVerificationCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6 characters, got %q", code)
		}
		for _, ch := range code {
			if !strings.ContainsRune("0123456789ABCDEF", ch) {
				t.Fatalf("Unexpected character %q in code %q", ch, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("Codes should vary across generations")
	}
}

func TestVerificationService_Verify(t *testing.T) {
	ctx := context.Background()

	setup := func() (*verificationService, *mockRepository) {
		repo := newMockRepository()
		repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
		application := repo.addApplication("abc123", "student-1", models.GradeJuniorHigh, models.StatusApproved)
		code := "A1B2C3"
		application.VerificationCode = &code
		return newTestVerificationService(repo, nil), repo
	}

	t.Run("valid claim returns redacted view", func(t *testing.T) {
		service, _ := setup()

		view, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "A1B2C3"})
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if view.ApplicationID != "abc123" {
			t.Errorf("Expected application abc123, got %s", view.ApplicationID)
		}
		if view.Status != models.StatusApproved {
			t.Errorf("Expected APPROVED, got %s", view.Status)
		}
		if view.StudentName != "Ana Reyes" {
			t.Errorf("Expected 'Ana Reyes', got %q", view.StudentName)
		}
	})

	t.Run("last name match is case-insensitive", func(t *testing.T) {
		service, _ := setup()

		if _, err := service.Verify(ctx, &VerifyRequest{Slug: "REYES-abc123", VerificationCode: "A1B2C3"}); err != nil {
			t.Errorf("Uppercase slug should verify, got %v", err)
		}
	})

	t.Run("code match is exact", func(t *testing.T) {
		service, _ := setup()

		_, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "a1b2c3"})
		if !errors.Is(err, ErrVerificationInvalid) {
			t.Errorf("Lowercase code must not verify, got %v", err)
		}
	})

	t.Run("every failed component yields the same error", func(t *testing.T) {
		service, _ := setup()

		claims := []VerifyRequest{
			{Slug: "reyes-missing", VerificationCode: "A1B2C3"},  // wrong application
			{Slug: "cruz-abc123", VerificationCode: "A1B2C3"},    // wrong last name
			{Slug: "reyes-abc123", VerificationCode: "FFFFFF"},   // wrong code
			{Slug: "noslugseparator", VerificationCode: "A1B2C3"}, // malformed slug
		}
		for _, claim := range claims {
			_, err := service.Verify(ctx, &claim)
			if !errors.Is(err, ErrVerificationInvalid) {
				t.Errorf("Claim %+v: expected ErrVerificationInvalid, got %v", claim, err)
			}
		}
	})

	t.Run("application without issued code never verifies", func(t *testing.T) {
		service, repo := setup()
		repo.addApplication("nocode", "student-1", models.GradeJuniorHigh, models.StatusPending)

		_, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-nocode", VerificationCode: ""})
		if !errors.Is(err, ErrVerificationInvalid) {
			t.Errorf("Expected ErrVerificationInvalid, got %v", err)
		}
	})

	t.Run("rotation invalidates the previous code", func(t *testing.T) {
		service, repo := setup()

		if err := repo.applicationRepo.RotateVerificationCode(ctx, nil, "abc123", "D4E5F6"); err != nil {
			t.Fatalf("RotateVerificationCode failed: %v", err)
		}

		if _, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "A1B2C3"}); !errors.Is(err, ErrVerificationInvalid) {
			t.Errorf("Old code must stop verifying, got %v", err)
		}
		if _, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "D4E5F6"}); err != nil {
			t.Errorf("New code should verify, got %v", err)
		}
	})
}

func TestVerificationService_RateLimit(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := newMockRepository()
	repo.addUser("student-1", "Ana", "Reyes", models.RoleStudent)
	application := repo.addApplication("abc123", "student-1", models.GradeJuniorHigh, models.StatusApproved)
	code := "A1B2C3"
	application.VerificationCode = &code

	limiter := cache.NewVerifyLimiter(client, 3, time.Minute)
	service := newTestVerificationService(repo, limiter)

	t.Run("attempts beyond the window limit are throttled", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if _, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "WRONG1"}); !errors.Is(err, ErrVerificationInvalid) {
				t.Fatalf("Attempt %d: expected ErrVerificationInvalid, got %v", i+1, err)
			}
		}

		_, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "A1B2C3"})
		if !errors.Is(err, ErrTooManyAttempts) {
			t.Fatalf("Expected ErrTooManyAttempts, got %v", err)
		}
	})

	t.Run("window expiry readmits the slug", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)

		view, err := service.Verify(ctx, &VerifyRequest{Slug: "reyes-abc123", VerificationCode: "A1B2C3"})
		if err != nil {
			t.Fatalf("Verify after window failed: %v", err)
		}
		if view.ApplicationID != "abc123" {
			t.Errorf("Expected application abc123, got %s", view.ApplicationID)
		}
	})
}
