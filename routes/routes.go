package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"samayog/config"
	"samayog/handlers"
	"samayog/middleware"
	"samayog/utils"
)

// RegisterAuthRoutes registers the OTP, signup and session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST(config.PathSendOTP, hb.SendOTPHandler)
	r.POST(config.PathVerifyOTP, hb.VerifyOTPHandler)
	r.POST(config.PathSignup, hb.SignupHandler)

	// Protected routes (Require Authentication)
	protected := r.Group("")
	protected.Use(middleware.JWTAuthUserMiddleware(hb.Tokens, hb.Revoked, hb.Logger))
	protected.POST(config.PathLogout, hb.LogoutHandler)
	protected.POST(config.PathRefreshToken, hb.RefreshTokenHandler)
	protected.GET(config.PathUserProfile, hb.GetProfileHandler)
}

// RegisterBookingRoutes sets up the booking endpoints. The payment callback
// is called by the provider and carries no user token.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST(config.PathBookings+"/:id/payment", hb.PaymentCallbackHandler)

	bookingGroup := r.Group(config.PathBookings)
	{
		bookingGroup.Use(middleware.JWTAuthUserMiddleware(hb.Tokens, hb.Revoked, hb.Logger))
		bookingGroup.POST("", hb.CreateBookingHandler)
		bookingGroup.GET("", hb.ListBookingsHandler)
		bookingGroup.GET("/:id", hb.GetBookingHandler)
		bookingGroup.DELETE("/:id", hb.CancelBookingHandler)
		bookingGroup.GET("/:id/payment-status", hb.PaymentStatusHandler)
	}
}

// RegisterContentRoutes registers best-effort content analytics.
func RegisterContentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST(config.PathContent+"/:kind/:id/views", hb.RecordViewHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET(config.PathHealth, hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(utils.ErrorHandler(hb.Logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	if hb.IPLimiter != nil {
		r.Use(middleware.RateLimitMiddleware(hb.IPLimiter, hb.Logger))
	}

	RegisterAuthRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterContentRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}

// NewRouter returns an engine with every sandbox route registered.
func NewRouter(hb *handlers.HandlerBundle) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, hb)
	return r
}
