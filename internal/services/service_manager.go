package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/cache"
	"github.com/svsf-edu/enrollment-service/internal/events"
	"github.com/svsf-edu/enrollment-service/internal/renderer"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

// ServiceManagerConfig holds everything the services need beyond their
// injected collaborators.
type ServiceManagerConfig struct {
	// Public portal origin for verification URLs.
	BaseURL string

	// Institutional header on rendered documents.
	SchoolName    string
	SchoolAddress string
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	limiter   *cache.VerifyLimiter
	config    ServiceManagerConfig

	applicationService  ApplicationService
	slipService         EnrollmentSlipService
	verificationService VerificationService

	mu          sync.RWMutex
	initialized bool
}

func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, limiter *cache.VerifyLimiter, cfg ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		limiter:   limiter,
		config:    cfg,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}

	docRenderer := renderer.New(sm.config.SchoolName, sm.config.SchoolAddress)

	sm.applicationService = NewApplicationService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher, docRenderer)
	sm.slipService = NewEnrollmentSlipService(sm.repo, sm.db, sm.logger, docRenderer, sm.publisher, SlipConfig{BaseURL: sm.config.BaseURL})
	sm.verificationService = NewVerificationService(sm.repo, sm.db, sm.logger, sm.validator, sm.limiter)

	sm.initialized = true
	sm.logger.Info("Services initialized")
	return nil
}

func (sm *serviceManager) Application() ApplicationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.applicationService
}

func (sm *serviceManager) Slip() EnrollmentSlipService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.slipService
}

func (sm *serviceManager) Verification() VerificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.verificationService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.initialized = false
	sm.logger.Info("Services shut down")
	return nil
}
