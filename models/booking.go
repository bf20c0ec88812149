package models

import "time"

// ConsultationMode is the channel a consultation is delivered over.
type ConsultationMode string

const (
	ModeChat     ConsultationMode = "chat"
	ModeAudio    ConsultationMode = "audio"
	ModeVideo    ConsultationMode = "video"
	ModeInPerson ConsultationMode = "in-person"
)

// Valid reports whether m is a known consultation mode.
func (m ConsultationMode) Valid() bool {
	switch m {
	case ModeChat, ModeAudio, ModeVideo, ModeInPerson:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// PaymentStatus tracks the external payment of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// CanTransitionTo allows only pending -> completed|failed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentCompleted || next == PaymentFailed)
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// ProfessionalSummary is the denormalized professional shown next to a booking.
type ProfessionalSummary struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Expertise string `bson:"expertise" json:"expertise"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// UserSummary is the denormalized user shown next to a booking.
type UserSummary struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// Booking is a reservation of a professional's consultation.
type Booking struct {
	ID               string               `bson:"_id" json:"id"`
	ProfessionalID   string               `bson:"professional_id" json:"professionalId"`
	UserID           string               `bson:"user_id" json:"userId"`
	Service          string               `bson:"service" json:"service"`
	ConsultationMode ConsultationMode     `bson:"consultation_mode" json:"consultationMode"`
	DateTime         time.Time            `bson:"date_time" json:"dateTime"`
	DurationMinutes  int                  `bson:"duration" json:"duration"`
	Amount           int64                `bson:"amount" json:"amount"`
	Status           BookingStatus        `bson:"status" json:"status"`
	PaymentStatus    PaymentStatus        `bson:"payment_status" json:"paymentStatus"`
	TransactionID    string               `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	PaymentURL       string               `bson:"payment_url,omitempty" json:"paymentUrl,omitempty"`
	CreatedAt        time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updatedAt"`
	Professional     *ProfessionalSummary `bson:"professional,omitempty" json:"professional,omitempty"`
	User             *UserSummary         `bson:"user,omitempty" json:"user,omitempty"`
}

// CanCancel reports whether the booking may still be cancelled.
func (b *Booking) CanCancel() bool {
	return !b.Status.IsTerminal()
}

// BookingRequest is the payload for creating a booking. Amount normally comes
// from a PriceQuote.
type BookingRequest struct {
	ProfessionalID   string           `json:"professionalId"`
	UserID           string           `json:"userId"`
	Service          string           `json:"service"`
	ConsultationMode ConsultationMode `json:"consultationMode"`
	DateTime         time.Time        `json:"dateTime"`
	DurationMinutes  int              `json:"duration"`
	Amount           int64            `json:"amount"`
	PaymentMethod    string           `json:"paymentMethod,omitempty"`
}

// BookingResponse is returned by booking creation. PaymentURL is an opaque
// handoff to the external payment provider.
type BookingResponse struct {
	Success    bool   `json:"success"`
	BookingID  string `json:"bookingId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	Message    string `json:"message,omitempty"`
}

// PaymentStatusResponse reports the payment state of a booking.
type PaymentStatusResponse struct {
	Success       bool          `json:"success"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	Message       string        `json:"message,omitempty"`
}

// PaymentUpdate is the provider callback payload.
type PaymentUpdate struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

// CodeBookingTerminal is sent with a 409 when a cancelled or completed
// booking is asked to change.
const CodeBookingTerminal = "booking_terminal"

// CancelResult reports a cancellation attempt. Success is false, without an
// error, when the booking was already terminal.
type CancelResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Status  BookingStatus `json:"status,omitempty"`
}

// BookingEnvelope wraps a single booking in API responses.
type BookingEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Booking `json:"data"`
}

// BookingListEnvelope wraps a booking list in API responses.
type BookingListEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    []Booking `json:"data"`
}
