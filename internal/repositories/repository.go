package repositories

import "context"

// Repository aggregates every repository of the service
type Repository interface {
	Student() StudentRepository
	RewardItem() RewardItemRepository
	Activity() ActivityRepository

	// User domain, read-only and backed by the identity provider
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
