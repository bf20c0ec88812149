package userRepo

import (
	"context"
	"sync"
	"time"

	"samayog/models"
)

// MemoryUserRepo implements UserRepository in process memory.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byPhone map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]models.User),
		byPhone: make(map[string]string),
	}
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byPhone[phone]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[user.Phone]; exists {
		return ErrDuplicate
	}
	if _, exists := r.byID[user.ID]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	r.byPhone[user.Phone] = user.ID
	return nil
}
