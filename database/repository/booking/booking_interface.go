package bookingRepo

import (
	"context"
	"errors"

	"samayog/models"
)

var (
	// ErrNotFound is returned when no booking has the given id.
	ErrNotFound = errors.New("booking not found")
	// ErrTerminal is returned when a cancelled or completed booking is asked
	// to change.
	ErrTerminal = errors.New("booking is cancelled or completed")
	// ErrIllegalTransition is returned for a payment status change other than
	// pending to completed or failed.
	ErrIllegalTransition = errors.New("illegal payment status transition")
)

// BookingRepository defines methods for booking data access. Implementations
// enforce the booking and payment transition rules atomically.
type BookingRepository interface {
	// Create inserts a new booking.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its id.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// ListByUser returns a user's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// ListByProfessional returns a professional's bookings, newest first.
	ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error)
	// SetPaymentURL records the payment handoff URL.
	SetPaymentURL(ctx context.Context, id, paymentURL string) error
	// Cancel moves a non-terminal booking to cancelled. Payment status is
	// left untouched.
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	// UpdatePayment settles a pending payment. A completed payment confirms
	// a pending booking; a cancelled booking refuses any change.
	UpdatePayment(ctx context.Context, id string, status models.PaymentStatus, transactionID string) (*models.Booking, error)
}
