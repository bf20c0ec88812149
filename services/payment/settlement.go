package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "samayog/database/repository/booking"
	"samayog/models"
	"samayog/utils"
)

// Settlement completes the payment of a booking on behalf of the provider.
type Settlement struct {
	repo   bookingRepo.BookingRepository
	logger *zap.Logger
}

func NewSettlement(repo bookingRepo.BookingRepository, logger *zap.Logger) *Settlement {
	return &Settlement{repo: repo, logger: utils.OrNop(logger)}
}

// Settle marks the payment completed. Bookings cancelled or already settled
// in the meantime are left untouched and reported as success so the task is
// not retried.
func (s *Settlement) Settle(ctx context.Context, bookingID string) error {
	txID := "txn_" + uuid.NewString()
	b, err := s.repo.UpdatePayment(ctx, bookingID, models.PaymentCompleted, txID)
	switch {
	case err == nil:
		s.logger.Info("Payment settled",
			zap.String("bookingId", bookingID),
			zap.String("transactionId", txID),
			zap.String("status", string(b.Status)))
		return nil
	case errors.Is(err, bookingRepo.ErrTerminal), errors.Is(err, bookingRepo.ErrIllegalTransition):
		s.logger.Info("Skipping settlement", zap.String("bookingId", bookingID), zap.Error(err))
		return nil
	default:
		return err
	}
}
