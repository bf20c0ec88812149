package session

import (
	"context"
	"errors"
	"sync"

	"samayog/models"
)

// ErrEmptyToken is returned when establishing a session without a token.
var ErrEmptyToken = errors.New("session token is empty")

// Holder is the single session capability handed to every component that
// needs the token. Writes are serialized so concurrent verify/refresh calls
// cannot interleave a partial update of token and user.
type Holder struct {
	store TokenStore

	mu   sync.Mutex
	user *models.UserProfile
}

// NewHolder wraps store. A Holder cannot exist without a store.
func NewHolder(store TokenStore) (*Holder, error) {
	if store == nil {
		return nil, errors.New("session.NewHolder: token store is required")
	}
	return &Holder{store: store}, nil
}

// Token returns the stored token, or "" when there is no session.
func (h *Holder) Token(ctx context.Context) (string, error) {
	return h.store.Get(ctx)
}

// Establish persists token and records user as the session owner.
func (h *Holder) Establish(ctx context.Context, token string, user *models.UserProfile) error {
	if token == "" {
		return ErrEmptyToken
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Set(ctx, token); err != nil {
		return err
	}
	h.user = cloneProfile(user)
	return nil
}

// Rotate replaces the token and keeps the current user.
func (h *Holder) Rotate(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Set(ctx, token)
}

// SetUser records the profile returned by a successful validation.
func (h *Holder) SetUser(user *models.UserProfile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = cloneProfile(user)
}

// User returns a copy of the session user, or nil.
func (h *Holder) User() *models.UserProfile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneProfile(h.user)
}

// Clear drops the session. The in-memory user is dropped even when the
// store fails.
func (h *Holder) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = nil
	return h.store.Clear(ctx)
}

// Snapshot returns the current session, or nil when there is none.
func (h *Holder) Snapshot(ctx context.Context) (*models.Session, error) {
	token, err := h.store.Get(ctx)
	if err != nil || token == "" {
		return nil, err
	}
	return &models.Session{Token: token, User: h.User()}, nil
}

func cloneProfile(u *models.UserProfile) *models.UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
