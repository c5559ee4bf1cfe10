package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/cache"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

// verificationCodeBytes sets the code space: 3 random bytes render as 6
// uppercase hex characters, the format printed on every slip in circulation.
const verificationCodeBytes = 3

// GenerateVerificationCode mints a fresh slip code from crypto/rand.
// Regenerating for the same application replaces the old code entirely; two
// codes are never valid at once.
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, verificationCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

type verificationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	limiter   *cache.VerifyLimiter
}

func NewVerificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, limiter *cache.VerifyLimiter) VerificationService {
	return &verificationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		limiter:   limiter,
	}
}

// Verify checks the three-way claim: the application exists, the slug's last
// name matches its owner (case-insensitive), and the code matches exactly.
// All failure modes return the same ErrVerificationInvalid so a caller can't
// probe which check failed.
func (s *verificationService) Verify(ctx context.Context, req *VerifyRequest) (*VerifiedApplicationView, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, ErrVerificationInvalid
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, req.Slug)
		if err != nil {
			// A broken limiter should not take verification down with it.
			s.logger.Error("Verification limiter unavailable", "error", err)
		} else if !allowed {
			return nil, ErrTooManyAttempts
		}
	}

	claimedLastName, applicationID, ok := models.ParseVerificationSlug(req.Slug)
	if !ok {
		return nil, ErrVerificationInvalid
	}

	application, err := s.repo.Application().GetByIDWithUser(ctx, s.db, applicationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVerificationInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	nameMatches := strings.EqualFold(application.User.LastName, claimedLastName)
	codeMatches := application.VerificationCode != nil &&
		subtle.ConstantTimeCompare([]byte(*application.VerificationCode), []byte(req.VerificationCode)) == 1

	if !nameMatches || !codeMatches {
		return nil, ErrVerificationInvalid
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, req.Slug); err != nil {
			s.logger.Warn("Failed to reset verification attempts", "error", err)
		}
	}

	s.logger.Info("Enrollment slip verified", "application_id", application.ID)

	return &VerifiedApplicationView{
		ApplicationID: application.ID,
		Status:        application.Status,
		StudentName:   application.User.FullName(),
		GradeLevel:    application.GradeLevel,
		CreatedAt:     application.CreatedAt,
	}, nil
}
