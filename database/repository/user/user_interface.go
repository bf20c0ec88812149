package userRepo

import (
	"context"
	"errors"

	"samayog/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user with this phone already exists")
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByPhone retrieves a user by normalized phone number.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// Create inserts a new user record. Phones are unique.
	Create(ctx context.Context, user *models.User) error
}
