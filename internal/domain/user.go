package domain

import "time"

// User represents a bot user
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Upsert(user *User) error
	GetByID(id int64) (*User, error)
}
