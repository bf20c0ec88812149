package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"samayog/config"
	"samayog/database/repository"
	"samayog/handlers"
	"samayog/middleware"
	"samayog/models"
	"samayog/routes"
	"samayog/services/payment"
	"samayog/utils"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer, _ := utils.NewTokenIssuer("test-secret", time.Hour)
	repos := repository.NewMemory()
	hb := &handlers.HandlerBundle{
		Logger:     zaptest.NewLogger(t),
		Users:      repos.Users,
		Bookings:   repos.Bookings,
		OTPs:       utils.NewMemoryOTPStore(),
		OTPLimiter: middleware.NewRateLimiter(10),
		Tokens:     issuer,
		Revoked:    utils.NewMemoryRevocationList(),
		Payments:   payment.StaticLinks{},
		Views:      utils.NewMemoryViewCounter(),
	}
	srv := httptest.NewServer(routes.NewRouter(hb))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Env:        "development",
		LogLevel:   "error",
		APIBaseURL: srv.URL,
		APITimeout: 2 * time.Second,
		AuthMode:   config.AuthModeLive,
		TokenStore: config.TokenStoreMemory,
	}
	var out bytes.Buffer
	a, err := newApp(cfg, &out)
	if err != nil {
		t.Fatalf("newApp() error: %v", err)
	}
	t.Cleanup(a.close)
	return a, &out
}

func TestCLIBookingSession(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	if err := a.dispatch(ctx, "otp-send", []string{"9876543210"}); err != nil {
		t.Fatalf("otp-send error: %v", err)
	}
	var sent models.OTPResult
	json.Unmarshal(out.Bytes(), &sent) //nolint:errcheck
	out.Reset()

	if err := a.dispatch(ctx, "login", []string{"9876543210", sent.DevOTP}); err != nil {
		t.Fatalf("login error: %v", err)
	}
	out.Reset()

	err := a.dispatch(ctx, "book", []string{
		"--professional", "pro-1", "--service", "therapy",
		"--mode", "video", "--minutes", "60", "--at", "2026-11-02T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	var created models.BookingResponse
	json.Unmarshal(out.Bytes(), &created) //nolint:errcheck
	if !created.Success || created.BookingID == "" {
		t.Fatalf("book output = %s", out.String())
	}
	out.Reset()

	if err := a.dispatch(ctx, "payment", []string{created.BookingID}); err != nil {
		t.Fatalf("payment error: %v", err)
	}
	if !strings.Contains(out.String(), `"pending"`) {
		t.Errorf("payment output = %s", out.String())
	}
	out.Reset()

	if err := a.dispatch(ctx, "bookings", nil); err != nil {
		t.Fatalf("bookings error: %v", err)
	}
	var list []models.Booking
	json.Unmarshal(out.Bytes(), &list) //nolint:errcheck
	if len(list) != 1 || list[0].Amount != 1200 {
		t.Errorf("bookings = %s", out.String())
	}
	out.Reset()

	if err := a.dispatch(ctx, "cancel", []string{created.BookingID}); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	var res models.CancelResult
	json.Unmarshal(out.Bytes(), &res) //nolint:errcheck
	if !res.Success {
		t.Errorf("cancel output = %s", out.String())
	}

	if err := a.dispatch(ctx, "logout", nil); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if err := a.dispatch(ctx, "bookings", nil); err == nil {
		t.Error("bookings after logout succeeded")
	}
}

func TestCLIQuoteAndUsage(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	if err := a.dispatch(ctx, "quote", []string{"chat", "30"}); err != nil {
		t.Fatalf("quote error: %v", err)
	}
	var q models.PriceQuote
	json.Unmarshal(out.Bytes(), &q) //nolint:errcheck
	if q.Amount != 500 || q.Currency != "INR" {
		t.Errorf("quote = %s", out.String())
	}

	if err := a.dispatch(ctx, "booking", nil); !errors.Is(err, errUsage) {
		t.Errorf("booking without id error = %v, want usage", err)
	}
	if err := a.dispatch(ctx, "quote", []string{"telepathy", "30"}); err == nil {
		t.Error("quote accepted an unknown mode")
	}
	if err := a.dispatch(ctx, "frobnicate", nil); err == nil {
		t.Error("unknown command accepted")
	}
}
