package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "samayog/database/repository/booking"
	"samayog/middleware"
	"samayog/models"
	"samayog/services/booking"
	"samayog/utils"
)

// CreateBookingHandler reserves a consultation and hands back a payment link.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	logger := hb.getLogger(c)
	ctx := c.Request.Context()

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	if msg := checkBookingRequest(req); msg != "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", msg)
		return
	}
	if req.UserID != c.GetString(middleware.ContextUserID) {
		utils.JSONError(c, http.StatusForbidden, "forbidden", "Cannot book on behalf of another user")
		return
	}
	quote := booking.Quote(req.Service, req.ConsultationMode, req.DurationMinutes)
	if req.Amount != quote.Amount {
		utils.JSONError(c, http.StatusBadRequest, "amount_mismatch",
			fmt.Sprintf("Amount %d does not match the quoted price %d", req.Amount, quote.Amount))
		return
	}

	b := &models.Booking{
		ID:               uuid.NewString(),
		ProfessionalID:   req.ProfessionalID,
		UserID:           req.UserID,
		Service:          req.Service,
		ConsultationMode: req.ConsultationMode,
		DateTime:         req.DateTime.UTC(),
		DurationMinutes:  req.DurationMinutes,
		Amount:           req.Amount,
		Status:           models.BookingPending,
		PaymentStatus:    models.PaymentPending,
		Professional:     &models.ProfessionalSummary{ID: req.ProfessionalID},
	}
	if user, err := hb.Users.GetByID(ctx, req.UserID); err == nil {
		b.User = &models.UserSummary{ID: user.ID, Name: user.DisplayName(), Email: user.Email}
	}
	if err := hb.Bookings.Create(ctx, b); err != nil {
		logger.Error("Failed to create booking", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to create booking")
		return
	}

	link, err := hb.Payments.PaymentLink(ctx, b)
	if err == nil {
		err = hb.Bookings.SetPaymentURL(ctx, b.ID, link)
	}
	if err != nil {
		logger.Error("Payment link failed", zap.String("bookingId", b.ID), zap.Error(err))
		if _, cancelErr := hb.Bookings.Cancel(ctx, b.ID); cancelErr != nil {
			logger.Error("Failed to cancel unpayable booking", zap.String("bookingId", b.ID), zap.Error(cancelErr))
		}
		utils.JSONError(c, http.StatusBadGateway, "payment_unavailable", "Payment provider unavailable")
		return
	}

	if hb.Settlements != nil && hb.SettlementDelay > 0 {
		if err := hb.Settlements.ScheduleSettlement(ctx, b.ID, hb.SettlementDelay); err != nil {
			logger.Warn("Failed to schedule settlement", zap.String("bookingId", b.ID), zap.Error(err))
		}
	}

	logger.Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.String("mode", string(b.ConsultationMode)),
		zap.Int64("amount", b.Amount))
	c.JSON(http.StatusCreated, models.BookingResponse{
		Success:    true,
		BookingID:  b.ID,
		PaymentURL: link,
		Message:    "Booking created",
	})
}

// GetBookingHandler returns one booking.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	b, err := hb.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		hb.bookingError(c, err, "Failed to fetch booking")
		return
	}
	c.JSON(http.StatusOK, models.BookingEnvelope{Success: true, Data: b})
}

// ListBookingsHandler lists bookings of exactly one user or professional.
func (hb *HandlerBundle) ListBookingsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := strings.TrimSpace(c.Query("userId"))
	professionalID := strings.TrimSpace(c.Query("professionalId"))

	var (
		list []models.Booking
		err  error
	)
	switch {
	case userID != "" && professionalID != "":
		utils.JSONError(c, http.StatusBadRequest, "invalid_filter", "Filter by either userId or professionalId")
		return
	case userID != "":
		list, err = hb.Bookings.ListByUser(ctx, userID)
	case professionalID != "":
		list, err = hb.Bookings.ListByProfessional(ctx, professionalID)
	default:
		utils.JSONError(c, http.StatusBadRequest, "invalid_filter", "userId or professionalId is required")
		return
	}
	if err != nil {
		hb.bookingError(c, err, "Failed to list bookings")
		return
	}
	c.JSON(http.StatusOK, models.BookingListEnvelope{Success: true, Data: list})
}

// CancelBookingHandler cancels a booking that is still pending or confirmed.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	b, err := hb.Bookings.Cancel(ctx, id)
	if errors.Is(err, bookingRepo.ErrTerminal) {
		msg := "Booking can no longer be cancelled"
		if current, getErr := hb.Bookings.GetByID(ctx, id); getErr == nil {
			msg = fmt.Sprintf("Booking is already %s and cannot be cancelled", current.Status)
		}
		utils.JSONError(c, http.StatusConflict, models.CodeBookingTerminal, msg)
		return
	}
	if err != nil {
		hb.bookingError(c, err, "Failed to cancel booking")
		return
	}
	hb.getLogger(c).Info("Booking cancelled", zap.String("bookingId", id))
	c.JSON(http.StatusOK, models.CancelResult{
		Success: true,
		Message: "Booking cancelled successfully",
		Status:  b.Status,
	})
}

// PaymentStatusHandler reports the payment state of a booking.
func (hb *HandlerBundle) PaymentStatusHandler(c *gin.Context) {
	b, err := hb.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		hb.bookingError(c, err, "Failed to fetch payment status")
		return
	}
	c.JSON(http.StatusOK, models.PaymentStatusResponse{
		Success:       true,
		Status:        b.PaymentStatus,
		TransactionID: b.TransactionID,
	})
}

// PaymentCallbackHandler applies a provider's payment outcome.
func (hb *HandlerBundle) PaymentCallbackHandler(c *gin.Context) {
	var req models.PaymentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	if req.Status != models.PaymentCompleted && req.Status != models.PaymentFailed {
		utils.JSONError(c, http.StatusBadRequest, "invalid_status", "Status must be completed or failed")
		return
	}

	b, err := hb.Bookings.UpdatePayment(c.Request.Context(), c.Param("id"), req.Status, req.TransactionID)
	switch {
	case errors.Is(err, bookingRepo.ErrTerminal):
		utils.JSONError(c, http.StatusConflict, models.CodeBookingTerminal, "Booking is cancelled")
		return
	case errors.Is(err, bookingRepo.ErrIllegalTransition):
		utils.JSONError(c, http.StatusConflict, "payment_settled", "Payment is already settled")
		return
	case err != nil:
		hb.bookingError(c, err, "Failed to update payment")
		return
	}
	hb.getLogger(c).Info("Payment updated",
		zap.String("bookingId", b.ID),
		zap.String("paymentStatus", string(b.PaymentStatus)))
	c.JSON(http.StatusOK, models.BookingEnvelope{Success: true, Data: b})
}

func (hb *HandlerBundle) bookingError(c *gin.Context, err error, msg string) {
	if errors.Is(err, bookingRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "booking_not_found", "Booking not found")
		return
	}
	hb.getLogger(c).Error(msg, zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, "internal", msg)
}

func checkBookingRequest(req models.BookingRequest) string {
	switch {
	case strings.TrimSpace(req.ProfessionalID) == "":
		return "professionalId is required"
	case strings.TrimSpace(req.UserID) == "":
		return "userId is required"
	case strings.TrimSpace(req.Service) == "":
		return "service is required"
	case !req.ConsultationMode.Valid():
		return fmt.Sprintf("Unknown consultation mode %q", req.ConsultationMode)
	case req.DateTime.IsZero():
		return "dateTime is required"
	case req.DurationMinutes <= 0:
		return "Duration must be a positive number of minutes"
	case req.Amount <= 0:
		return "Amount must be positive"
	}
	return ""
}
