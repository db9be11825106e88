package repository

import (
	"context"

	"user-console/internal/domain"
)

// UserRepository defines persistence operations for User entities.
//
// Lookups for a missing user return an error wrapping domain.ErrUserNotFound;
// writes that collide on email return an error wrapping domain.ErrEmailRegistered.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}
