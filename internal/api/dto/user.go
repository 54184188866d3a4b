package dto

import (
	"time"

	"github.com/martijn/usersapi/internal/core/domain"
)

// CreateUserRequest represents the user creation request
type CreateUserRequest struct {
	FirstName string     `json:"firstName" binding:"required"`
	LastName  string     `json:"lastName" binding:"required"`
	Email     string     `json:"email" binding:"required"`
	Password  string     `json:"password" binding:"required"`
	Hobby     []string   `json:"hobby"`
	CreatedAt *time.Time `json:"createdAt"` // Defaults to now
}

// UpdateUserRequest represents a partial user update. Omitted fields are left untouched.
type UpdateUserRequest struct {
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	Email     *string    `json:"email"`
	Password  *string    `json:"password"` // Re-hashed before storing
	Hobby     *[]string  `json:"hobby"`
	CreatedAt *time.Time `json:"createdAt"`
}

func (r UpdateUserRequest) ToPatch() domain.UserPatch {
	return domain.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Hobby:     r.Hobby,
		CreatedAt: r.CreatedAt,
	}
}

// UserResponse represents a user. The password hash is never serialized.
type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Hobby     []string  `json:"hobby"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserMessageResponse wraps a user with a status message (update and delete)
type UserMessageResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

func ToUserResponse(user *domain.User) UserResponse {
	hobby := user.Hobby
	if hobby == nil {
		hobby = []string{}
	}
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Hobby:     hobby,
		CreatedAt: user.CreatedAt,
	}
}
