package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// ApplicationFilters narrows admin listings. Nil means "ALL" for each field.
type ApplicationFilters struct {
	Status     *models.ApplicationStatus `json:"status"`
	GradeLevel *models.GradeLevel        `json:"grade_level"`
	Strand     *models.Strand            `json:"strand"`
	UserID     *string                   `json:"user_id"`
	DateFrom   *time.Time                `json:"date_from"`
	DateTo     *time.Time                `json:"date_to"`
	Limit      int                       `json:"limit"`
	Offset     int                       `json:"offset"`
	SortBy     string                    `json:"sort_by"`    // "created_at", "status", "grade_level"
	SortOrder  string                    `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type ApplicationStats struct {
	Total        int64                              `json:"total"`
	ByStatus     map[models.ApplicationStatus]int64 `json:"by_status"`
	ByGradeLevel map[models.GradeLevel]int64        `json:"by_grade_level"`
}

// ===== REPOSITORY INTERFACES =====

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, application *models.Application) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error)
	GetByIDWithUser(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error)
	Update(ctx context.Context, tx *gorm.DB, application *models.Application) error

	// UpdateStatus persists a status change only, leaving the rest of the
	// record untouched.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ApplicationStatus) error

	// RotateVerificationCode overwrites the stored code. Any previously issued
	// code stops verifying the moment this commits.
	RotateVerificationCode(ctx context.Context, tx *gorm.DB, id string, code string) error

	List(ctx context.Context, tx *gorm.DB, filters ApplicationFilters) ([]*models.Application, int64, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	GetStats(ctx context.Context, tx *gorm.DB) (*ApplicationStats, error)
}

// UserRepository covers the read surface the enrollment core needs; user
// identity is owned by the external auth provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
