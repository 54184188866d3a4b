package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/martijn/usersapi/internal/core/domain"
	"github.com/martijn/usersapi/internal/core/repository"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// userRow mirrors the user table; hobby is kept as its JSON text
type userRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Hobby     string    `db:"hobby"`
	CreatedAt time.Time `db:"created_at"`
}

func (row *userRow) toDomain() (*domain.User, error) {
	user := &domain.User{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Password:  row.Password,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Hobby), &user.Hobby); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hobby: %w", err)
	}
	if user.Hobby == nil {
		user.Hobby = []string{}
	}
	return user, nil
}

func marshalHobby(hobby []string) (string, error) {
	if hobby == nil {
		hobby = []string{}
	}
	b, err := json.Marshal(hobby)
	if err != nil {
		return "", fmt.Errorf("failed to marshal hobby: %w", err)
	}
	return string(b), nil
}

const selectUser = `
	SELECT id, first_name, last_name, email, password, hobby, created_at
	FROM user
`

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUser+` ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		user, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return findByID(ctx, r.db, id)
}

func findByID(ctx context.Context, q sqlx.QueryerContext, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	var row userRow
	err := sqlx.GetContext(ctx, q, &row, selectUser+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return row.toDomain()
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	hobbyJSON, err := marshalHobby(user.Hobby)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO user (id, first_name, last_name, email, password, hobby, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		id,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Password,
		hobbyJSON,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	if user.Hobby == nil {
		user.Hobby = []string{}
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	user.Apply(patch)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hobbyJSON, err := marshalHobby(user.Hobby)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE user
		SET first_name = ?, last_name = ?, email = ?, password = ?, hobby = ?, created_at = ?
		WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Password,
		hobbyJSON,
		user.CreatedAt,
		id,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return user, nil
}
