package booking

import (
	"context"
	"time"

	"samayog/models"
)

// BookingService defines the booking pipeline exposed to callers.
type BookingService interface {
	Quote(req models.BookingRequest) models.PriceQuote
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error)
	GetPaymentStatus(ctx context.Context, bookingID string) (*models.PaymentStatusResponse, error)
	WaitForPayment(ctx context.Context, bookingID string, interval time.Duration) (*models.PaymentStatusResponse, error)
	ListBookings(ctx context.Context, filter ListFilter) ([]models.Booking, error)
	GetBookingDetails(ctx context.Context, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.CancelResult, error)
}

// Requester issues one API call. *gateway.Gateway satisfies it.
type Requester interface {
	Execute(ctx context.Context, endpoint, method string, body any, headers map[string]string, out any) error
}

// ListFilter selects bookings by exactly one owner.
type ListFilter struct {
	UserID         string
	ProfessionalID string
}
