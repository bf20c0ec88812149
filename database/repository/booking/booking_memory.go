package bookingRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"samayog/models"
)

// MemoryBookingRepo implements BookingRepository in process memory.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string
	now      func() time.Time
}

// NewMemoryBookingRepo returns an empty repository.
func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]*models.Booking), now: time.Now}
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	now := r.now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[booking.ID] = cloneBooking(booking)
	r.order = append(r.order, booking.ID)
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *MemoryBookingRepo) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	return r.list(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (r *MemoryBookingRepo) ListByProfessional(_ context.Context, professionalID string) ([]models.Booking, error) {
	return r.list(func(b *models.Booking) bool { return b.ProfessionalID == professionalID }), nil
}

func (r *MemoryBookingRepo) list(match func(*models.Booking) bool) []models.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Booking{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if b := r.bookings[r.order[i]]; match(b) {
			out = append(out, *cloneBooking(b))
		}
	}
	return out
}

func (r *MemoryBookingRepo) SetPaymentURL(_ context.Context, id, paymentURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.PaymentURL = paymentURL
	b.UpdatedAt = r.now()
	return nil
}

func (r *MemoryBookingRepo) Cancel(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !b.CanCancel() {
		return nil, ErrTerminal
	}
	b.Status = models.BookingCancelled
	b.UpdatedAt = r.now()
	return cloneBooking(b), nil
}

func (r *MemoryBookingRepo) UpdatePayment(_ context.Context, id string, status models.PaymentStatus, transactionID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status == models.BookingCancelled {
		return nil, ErrTerminal
	}
	if !b.PaymentStatus.CanTransitionTo(status) {
		return nil, ErrIllegalTransition
	}
	b.PaymentStatus = status
	if transactionID != "" {
		b.TransactionID = transactionID
	}
	if status == models.PaymentCompleted && b.Status == models.BookingPending {
		b.Status = models.BookingConfirmed
	}
	b.UpdatedAt = r.now()
	return cloneBooking(b), nil
}

func cloneBooking(b *models.Booking) *models.Booking {
	c := *b
	if b.Professional != nil {
		p := *b.Professional
		c.Professional = &p
	}
	if b.User != nil {
		u := *b.User
		c.User = &u
	}
	return &c
}
