package handlers

import (
	"time"

	"go.uber.org/zap"

	"samayog/database/repository"
	"samayog/middleware"
	"samayog/services/payment"
	"samayog/services/tasks"
	"samayog/utils"
)

// HandlerBundle holds the dependencies of every sandbox endpoint.
type HandlerBundle struct {
	Logger *zap.Logger

	Users    repository.UserRepository
	Bookings repository.BookingRepository

	OTPs       utils.OTPStore
	OTPLimiter *middleware.RateLimiter
	// IPLimiter throttles every route per client IP when set.
	IPLimiter *middleware.RateLimiter
	Tokens     *utils.TokenIssuer
	Revoked    utils.RevocationList

	Payments        payment.LinkProvider
	Settlements     tasks.Scheduler
	SettlementDelay time.Duration

	Views  utils.ViewCounter
	Health *utils.HealthMonitor

	// Production disables the dev OTP echo and the sentinel code.
	Production bool
}
