package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/svsf-edu/enrollment-service/internal/events"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)

	manager := NewDefaultServiceManager(nil, repo, logger, validator.New(), publisher, nil, ServiceManagerConfig{
		BaseURL:    "https://portal.example.com",
		SchoolName: "Test School",
	})

	ctx := context.Background()
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if manager.Application() == nil {
		t.Error("Application service should be available after Initialize")
	}
	if manager.Slip() == nil {
		t.Error("Slip service should be available after Initialize")
	}
	if manager.Verification() == nil {
		t.Error("Verification service should be available after Initialize")
	}

	if err := manager.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	if err := manager.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
