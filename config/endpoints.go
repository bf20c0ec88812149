package config

import (
	"net/url"
	"strings"
)

// API paths shared by the client core and the sandbox server.
const (
	PathSendOTP      = "/otp/send"
	PathVerifyOTP    = "/otp/verify"
	PathSignup       = "/signup"
	PathLogin        = "/login"
	PathLogout       = "/logout"
	PathRefreshToken = "/token/refresh"
	PathUserProfile  = "/user/profile"
	PathBookings     = "/bookings"
	PathHealth       = "/health"
	PathContent      = "/content"
)

// Endpoints resolves API paths against a base URL.
type Endpoints struct {
	BaseURL string
}

// URL returns the absolute URL for endpoint. Absolute endpoints pass through.
func (e Endpoints) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// IsAuthPath reports whether endpoint belongs to the OTP, login or signup
// flows, which must never carry a bearer token.
func IsAuthPath(endpoint string) bool {
	path := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.Contains(path, "/otp/") ||
		strings.Contains(path, PathLogin) ||
		strings.Contains(path, PathSignup)
}

// BookingPath returns /bookings/:id.
func BookingPath(id string) string {
	return PathBookings + "/" + url.PathEscape(id)
}

// PaymentStatusPath returns /bookings/:id/payment-status.
func PaymentStatusPath(id string) string {
	return BookingPath(id) + "/payment-status"
}

// PaymentCallbackPath returns /bookings/:id/payment.
func PaymentCallbackPath(id string) string {
	return BookingPath(id) + "/payment"
}

// ViewsPath returns /content/:kind/:id/views.
func ViewsPath(kind, id string) string {
	return PathContent + "/" + url.PathEscape(kind) + "/" + url.PathEscape(id) + "/views"
}
