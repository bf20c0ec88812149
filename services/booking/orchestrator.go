package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"samayog/config"
	"samayog/models"
	"samayog/services/apperror"
	"samayog/utils"
)

// DefaultPollInterval is used by WaitForPayment when interval is zero.
const DefaultPollInterval = 3 * time.Second

// Orchestrator implements BookingService against the booking API. It only
// reads the session, through the requester's bearer injection.
type Orchestrator struct {
	api    Requester
	logger *zap.Logger
}

// NewOrchestrator returns an Orchestrator issuing calls through api.
func NewOrchestrator(api Requester, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{api: api, logger: utils.OrNop(logger)}
}

var _ BookingService = (*Orchestrator)(nil)

// Quote prices req with the pricing engine.
func (o *Orchestrator) Quote(req models.BookingRequest) models.PriceQuote {
	return Quote(req.Service, req.ConsultationMode, req.DurationMinutes)
}

// CreateBooking validates req and creates the booking. PaymentURL in the
// response, when set, is passed through untouched.
func (o *Orchestrator) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var resp models.BookingResponse
	if err := o.api.Execute(ctx, config.PathBookings, http.MethodPost, req, nil, &resp); err != nil {
		o.logger.Warn("booking: create failed", zap.String("professional_id", req.ProfessionalID), zap.Error(err))
		return nil, opError("Failed to create booking", err)
	}
	if !resp.Success || resp.BookingID == "" {
		msg := resp.Message
		if msg == "" {
			msg = "booking was not created"
		}
		return nil, apperror.New(apperror.Remote, "Failed to create booking: "+msg)
	}

	o.logger.Info("booking: created",
		zap.String("booking_id", resp.BookingID),
		zap.Int64("amount", req.Amount),
		zap.Bool("payment_handoff", resp.PaymentURL != ""),
	)
	return &resp, nil
}

// GetPaymentStatus returns the current payment status of a booking.
func (o *Orchestrator) GetPaymentStatus(ctx context.Context, bookingID string) (*models.PaymentStatusResponse, error) {
	if err := requireID(bookingID); err != nil {
		return nil, err
	}
	var resp models.PaymentStatusResponse
	if err := o.api.Execute(ctx, config.PaymentStatusPath(bookingID), http.MethodGet, nil, nil, &resp); err != nil {
		return nil, opError("Failed to get payment status", err)
	}
	if !resp.Status.Valid() {
		return nil, apperror.Newf(apperror.Remote, "Failed to get payment status: unknown status %q", resp.Status)
	}
	return &resp, nil
}

// WaitForPayment polls the payment status every interval until it leaves
// pending. It stops at the first failed poll; cancellation is up to ctx.
func (o *Orchestrator) WaitForPayment(ctx context.Context, bookingID string, interval time.Duration) (*models.PaymentStatusResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := o.GetPaymentStatus(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if resp.Status != models.PaymentPending {
			return resp, nil
		}
		o.logger.Debug("booking: payment pending", zap.String("booking_id", bookingID))

		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ListBookings returns the bookings of one user or one professional in
// server order.
func (o *Orchestrator) ListBookings(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	userID := strings.TrimSpace(filter.UserID)
	professionalID := strings.TrimSpace(filter.ProfessionalID)

	query := url.Values{}
	switch {
	case userID != "" && professionalID != "":
		return nil, newValidationError(CodeInvalidFilter, "Filter by either user or professional, not both")
	case userID != "":
		query.Set("userId", userID)
	case professionalID != "":
		query.Set("professionalId", professionalID)
	default:
		return nil, newValidationError(CodeInvalidFilter, "A user or professional id is required")
	}

	var env models.BookingListEnvelope
	endpoint := config.PathBookings + "?" + query.Encode()
	if err := o.api.Execute(ctx, endpoint, http.MethodGet, nil, nil, &env); err != nil {
		return nil, opError("Failed to fetch bookings", err)
	}
	if env.Data == nil {
		return []models.Booking{}, nil
	}
	return env.Data, nil
}

// GetBookingDetails fetches one booking with its professional and user.
func (o *Orchestrator) GetBookingDetails(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := requireID(bookingID); err != nil {
		return nil, err
	}
	var env models.BookingEnvelope
	if err := o.api.Execute(ctx, config.BookingPath(bookingID), http.MethodGet, nil, nil, &env); err != nil {
		return nil, opError("Failed to fetch booking details", err)
	}
	if env.Data == nil {
		return nil, apperror.New(apperror.Remote, "Failed to fetch booking details: booking not found")
	}
	return env.Data, nil
}

// CancelBooking cancels a booking. A booking that is already cancelled or
// completed yields Success=false and a nil error; no cancel call is made.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID string) (*models.CancelResult, error) {
	current, err := o.GetBookingDetails(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !current.CanCancel() {
		o.logger.Info("booking: cancel refused, booking is terminal",
			zap.String("booking_id", bookingID), zap.String("status", string(current.Status)))
		return terminalResult(current.Status), nil
	}

	var res models.CancelResult
	err = o.api.Execute(ctx, config.BookingPath(bookingID), http.MethodDelete, nil, nil, &res)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Status == http.StatusConflict && appErr.Code == models.CodeBookingTerminal {
			return &models.CancelResult{Success: false, Message: appErr.Message}, nil
		}
		return nil, opError("Failed to cancel booking", err)
	}
	if res.Message == "" && res.Success {
		res.Message = "Booking cancelled successfully"
	}
	if res.Success && res.Status == "" {
		res.Status = models.BookingCancelled
	}
	o.logger.Info("booking: cancelled", zap.String("booking_id", bookingID), zap.Bool("success", res.Success))
	return &res, nil
}

func terminalResult(status models.BookingStatus) *models.CancelResult {
	return &models.CancelResult{
		Success: false,
		Message: fmt.Sprintf("Booking is already %s and cannot be cancelled", status),
		Status:  status,
	}
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return newValidationError(CodeMissingField, "Booking id is required")
	}
	return nil
}

func validateRequest(req models.BookingRequest) error {
	required := []struct {
		name, value string
	}{
		{"professionalId", req.ProfessionalID},
		{"userId", req.UserID},
		{"service", req.Service},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return newValidationError(CodeMissingField, fmt.Sprintf("%s is required", f.name))
		}
	}
	if !req.ConsultationMode.Valid() {
		return newValidationError(CodeInvalidMode, fmt.Sprintf("Unknown consultation mode %q", req.ConsultationMode))
	}
	if req.DateTime.IsZero() {
		return newValidationError(CodeMissingField, "dateTime is required")
	}
	if req.DurationMinutes <= 0 {
		return newValidationError(CodeInvalidDuration, "Duration must be a positive number of minutes")
	}
	if req.Amount <= 0 {
		return newValidationError(CodeInvalidAmount, "Amount must be positive")
	}
	return nil
}
