package repositories

import "context"

// Repository aggregates the per-entity repositories behind one injected
// handle. Core services never construct their own store clients.
type Repository interface {
	Application() ApplicationRepository
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
