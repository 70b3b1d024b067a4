package sqlite

import (
	"database/sql"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite
type UserRepository struct {
	db *Database
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates a user or refreshes the stored profile fields
func (r *UserRepository) Upsert(user *domain.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = ?, first_name = ?, last_name = ?, updated_at = ?
	`

	now := time.Now()
	_, err := r.db.GetDB().Exec(query,
		user.ID, user.Username, user.FirstName, user.LastName, now, now,
		user.Username, user.FirstName, user.LastName, now,
	)
	if err != nil {
		return storageErr("failed to upsert user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int64) (*domain.User, error) {
	query := `
		SELECT id, username, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	user := &domain.User{}
	var lastName sql.NullString

	err := r.db.GetDB().QueryRow(query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&lastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("failed to get user", err)
	}

	if lastName.Valid {
		user.LastName = lastName.String
	}

	return user, nil
}
