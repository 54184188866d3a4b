package repository

import (
	"context"

	"github.com/martijn/usersapi/internal/core/domain"
)

// UserRepository is the User record store. Implementations return
// domain.ErrUserNotFound for unknown or malformed ids, domain.ErrEmailExists
// on a duplicate email, and a *domain.ValidationError when the resulting
// document would break the stored-document constraints.
type UserRepository interface {
	List(ctx context.Context) ([]*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create stores the user and sets its ID.
	Create(ctx context.Context, user *domain.User) error
	// Update applies a normalized, hashed patch and returns the stored result.
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	// Delete removes the user and returns the removed document.
	Delete(ctx context.Context, id string) (*domain.User, error)
}
