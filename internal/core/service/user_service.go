package service

import (
	"context"
	"fmt"
	"time"

	"github.com/martijn/usersapi/internal/core/domain"
	"github.com/martijn/usersapi/internal/core/repository"
)

// NewUserInput carries the fields accepted when creating a user.
type NewUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Hobby     []string
	CreatedAt *time.Time
}

type UserService struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
}

func NewUserService(userRepo repository.UserRepository, hasher *PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// ListUsers returns every stored user
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser validates the input, hashes the password and stores the user
func (s *UserService) CreateUser(ctx context.Context, in NewUserInput) (*domain.User, error) {
	var createdAt time.Time
	if in.CreatedAt != nil {
		createdAt = *in.CreatedAt
	}
	user := domain.NewUser(in.FirstName, in.LastName, in.Email, "", in.Hobby, createdAt)

	verr := &domain.ValidationError{}
	if user.FirstName == "" {
		verr.Add("First name is required")
	}
	if user.LastName == "" {
		verr.Add("Last name is required")
	}
	if user.Email == "" {
		verr.Add("Email is required")
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		verr.Merge(err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial update. A supplied password is re-hashed
// before it reaches the store.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.Password != nil {
		hashed, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hashed
	}

	user, err := s.userRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user and returns the deleted record
func (s *UserService) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}

// VerifyPassword reports whether plain matches the user's stored hash
func (s *UserService) VerifyPassword(user *domain.User, plain string) bool {
	return s.hasher.Verify(plain, user.Password)
}
