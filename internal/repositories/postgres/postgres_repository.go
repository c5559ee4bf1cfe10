package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

// PostgreSQLRepository aggregates the entity repositories backed by a
// shared gorm connection and an optional redis cache.
type PostgreSQLRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
	application repositories.ApplicationRepository
	user        repositories.UserRepository
}

func NewPostgreSQLRepository(db *gorm.DB, redisClient *redis.Client) repositories.Repository {
	return &PostgreSQLRepository{
		db:          db,
		redisClient: redisClient,
		application: NewApplicationPostgreSQL(db, redisClient),
		user:        NewUserPostgreSQL(db, redisClient),
	}
}

func (r *PostgreSQLRepository) Application() repositories.ApplicationRepository {
	return r.application
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

// WithTransaction runs fn against a repository view bound to one database
// transaction.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgreSQLRepository(tx, r.redisClient))
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	return sqlDB.Close()
}
