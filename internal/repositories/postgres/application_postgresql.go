package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/cache"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

type ApplicationPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewApplicationPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ApplicationRepository {
	return &ApplicationPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (a *ApplicationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// applicationRecord is the cache round-trip shape for application reads. The
// verification code is excluded from the model's API JSON, so caching the
// model directly would drop the column on every read.
type applicationRecord struct {
	models.Application
	VerificationCode *string `json:"verification_code"`
}

func newApplicationRecord(application *models.Application) *applicationRecord {
	return &applicationRecord{
		Application:      *application,
		VerificationCode: application.VerificationCode,
	}
}

func (r *applicationRecord) toModel() *models.Application {
	application := r.Application
	application.VerificationCode = r.VerificationCode
	return &application
}

func (a *ApplicationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, application *models.Application) error {
	if err := a.getDB(tx).WithContext(ctx).Create(application).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	cache.InvalidateApplicationCache(ctx, a.cacheManager, application.ID, application.UserID)
	return nil
}

func (a *ApplicationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error) {
	var record applicationRecord

	err := a.cacheManager.Application.CacheOrExecute(ctx, fmt.Sprintf("id:%s", id), &record, cache.ApplicationCacheConfig.TTL, func() (interface{}, error) {
		var application models.Application
		if err := a.getDB(tx).WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get application: %w", err)
		}
		return newApplicationRecord(&application), nil
	})
	if err != nil {
		return nil, err
	}

	return record.toModel(), nil
}

func (a *ApplicationPostgreSQL) GetByIDWithUser(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error) {
	var record applicationRecord

	err := a.cacheManager.Application.CacheOrExecute(ctx, fmt.Sprintf("details:%s", id), &record, cache.ApplicationCacheConfig.TTL, func() (interface{}, error) {
		var application models.Application
		err := a.getDB(tx).WithContext(ctx).
			Preload("User").
			First(&application, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get application with user: %w", err)
		}
		return newApplicationRecord(&application), nil
	})
	if err != nil {
		return nil, err
	}

	return record.toModel(), nil
}

func (a *ApplicationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, application *models.Application) error {
	if err := a.getDB(tx).WithContext(ctx).Save(application).Error; err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	cache.InvalidateApplicationCache(ctx, a.cacheManager, application.ID, application.UserID)
	return nil
}

func (a *ApplicationPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ApplicationStatus) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update application status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeDelete(ctx, a.cacheManager.Application, fmt.Sprintf("id:%s", id), fmt.Sprintf("details:%s", id))
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Application, "list:*")
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, "applications:*")
	return nil
}

func (a *ApplicationPostgreSQL) RotateVerificationCode(ctx context.Context, tx *gorm.DB, id string, code string) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("verification_code", code)
	if result.Error != nil {
		return fmt.Errorf("failed to rotate verification code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeDelete(ctx, a.cacheManager.Application, fmt.Sprintf("id:%s", id), fmt.Sprintf("details:%s", id))
	return nil
}

func (a *ApplicationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ApplicationFilters) ([]*models.Application, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.Application{}).Preload("User")

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.GradeLevel != nil {
		query = query.Where("grade_level = ?", *filters.GradeLevel)
	}
	if filters.Strand != nil {
		query = query.Where("strand = ?", *filters.Strand)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "created_at", "status", "grade_level":
	default:
		sortBy = "created_at"
	}
	order := "desc"
	if filters.SortOrder == "asc" {
		order = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var applications []*models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}

	return applications, total, nil
}

func (a *ApplicationPostgreSQL) CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count applications by user: %w", err)
	}
	return count, nil
}

func (a *ApplicationPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.ApplicationStats, error) {
	var stats repositories.ApplicationStats

	err := a.cacheManager.Stats.CacheOrExecute(ctx, "applications:summary", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		out := &repositories.ApplicationStats{
			ByStatus:     make(map[models.ApplicationStatus]int64),
			ByGradeLevel: make(map[models.GradeLevel]int64),
		}

		db := a.getDB(tx).WithContext(ctx)

		if err := db.Model(&models.Application{}).Count(&out.Total).Error; err != nil {
			return nil, fmt.Errorf("failed to count applications: %w", err)
		}

		type statusRow struct {
			Status models.ApplicationStatus
			Count  int64
		}
		var statusRows []statusRow
		if err := db.Model(&models.Application{}).
			Select("status, count(*) as count").
			Group("status").
			Scan(&statusRows).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate by status: %w", err)
		}
		for _, row := range statusRows {
			out.ByStatus[row.Status] = row.Count
		}

		type gradeRow struct {
			GradeLevel models.GradeLevel
			Count      int64
		}
		var gradeRows []gradeRow
		if err := db.Model(&models.Application{}).
			Select("grade_level, count(*) as count").
			Group("grade_level").
			Scan(&gradeRows).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate by grade level: %w", err)
		}
		for _, row := range gradeRows {
			out.ByGradeLevel[row.GradeLevel] = row.Count
		}

		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
