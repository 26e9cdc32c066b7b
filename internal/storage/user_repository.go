package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desk-reserve/backend/internal/storage/models"
)

// UserRepository provides read access to the user directory.
type UserRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new user. An empty ID is generated.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = GenerateID()
	}
	u.CreatedAt = r.Now()
	u.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO users (id, name, email, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", ErrDuplicate, u.Email)
		}
		return fmt.Errorf("%w: inserting user: %v", ErrStorage, err)
	}

	return nil
}

// GetByID retrieves a user by ID. Returns nil if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, name, email, active, created_at, updated_at FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by email. Returns nil if the user does not exist.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, name, email, active, created_at, updated_at FROM users WHERE email = ?", email)
}

// ExistsByEmail reports whether a user with the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB().QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking user email: %v", ErrStorage, err)
	}
	return exists, nil
}

// ListActive retrieves all active users ordered by name.
func (r *UserRepository) ListActive(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM users WHERE active = 1 ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active users: %v", ErrStorage, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrStorage, err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u := &models.User{}
	err := r.DB().QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying user: %v", ErrStorage, err)
	}
	return u, nil
}
