package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap/zaptest"

	bookingRepo "samayog/database/repository/booking"
	"samayog/models"
)

func testBooking(id string) *models.Booking {
	return &models.Booking{
		ID:               id,
		ProfessionalID:   "pro-1",
		UserID:           "user-1",
		Service:          "therapy",
		ConsultationMode: models.ModeVideo,
		DateTime:         time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes:  60,
		Amount:           1200,
		Status:           models.BookingPending,
		PaymentStatus:    models.PaymentPending,
	}
}

func TestStaticLinks(t *testing.T) {
	link, err := StaticLinks{}.PaymentLink(context.Background(), testBooking("b-1"))
	if err != nil {
		t.Fatalf("PaymentLink() error: %v", err)
	}
	if link != defaultStaticBase+"/b-1?amount=1200" {
		t.Errorf("PaymentLink() = %q", link)
	}

	link, _ = StaticLinks{BaseURL: "http://localhost/pay"}.PaymentLink(context.Background(), testBooking("b 2"))
	if !strings.HasPrefix(link, "http://localhost/pay/b%202?") {
		t.Errorf("PaymentLink() = %q, want escaped id under custom base", link)
	}

	if _, err := (StaticLinks{}).PaymentLink(context.Background(), &models.Booking{}); err == nil {
		t.Error("PaymentLink() accepted a booking without id")
	}
}

func TestStripeCheckout(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			http.NotFound(w, r)
			return
		}
		r.ParseForm() //nolint:errcheck
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "cs_test_1",
			"object": "checkout.session",
			"url":    "https://checkout.stripe.test/c/pay/cs_test_1",
		})
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	backends := &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	provider := NewStripeCheckout("sk_test_x", "samayog://ok", "samayog://cancel", backends, zaptest.NewLogger(t))

	link, err := provider.PaymentLink(context.Background(), testBooking("b-1"))
	if err != nil {
		t.Fatalf("PaymentLink() error: %v", err)
	}
	if link != "https://checkout.stripe.test/c/pay/cs_test_1" {
		t.Errorf("PaymentLink() = %q", link)
	}
	checks := map[string]string{
		"mode":                                   "payment",
		"client_reference_id":                    "b-1",
		"metadata[booking_id]":                   "b-1",
		"line_items[0][price_data][currency]":    "inr",
		"line_items[0][price_data][unit_amount]": "120000",
	}
	for key, want := range checks {
		if got := first(form[key]); got != want {
			t.Errorf("form[%s] = %q, want %q", key, got, want)
		}
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func TestSettlement(t *testing.T) {
	ctx := context.Background()
	repo := bookingRepo.NewMemoryBookingRepo()
	settle := NewSettlement(repo, zaptest.NewLogger(t))

	open := testBooking("open")
	cancelled := testBooking("cancelled")
	repo.Create(ctx, open)        //nolint:errcheck
	repo.Create(ctx, cancelled)   //nolint:errcheck
	repo.Cancel(ctx, "cancelled") //nolint:errcheck

	if err := settle.Settle(ctx, "open"); err != nil {
		t.Fatalf("Settle(open) error: %v", err)
	}
	got, _ := repo.GetByID(ctx, "open")
	if got.PaymentStatus != models.PaymentCompleted || got.Status != models.BookingConfirmed {
		t.Errorf("settled booking = %s/%s, want confirmed/completed", got.Status, got.PaymentStatus)
	}
	if !strings.HasPrefix(got.TransactionID, "txn_") {
		t.Errorf("TransactionID = %q", got.TransactionID)
	}

	// Settling twice and settling a cancelled booking are both no-ops.
	if err := settle.Settle(ctx, "open"); err != nil {
		t.Errorf("second Settle() error: %v", err)
	}
	if err := settle.Settle(ctx, "cancelled"); err != nil {
		t.Errorf("Settle(cancelled) error: %v", err)
	}
	got, _ = repo.GetByID(ctx, "cancelled")
	if got.PaymentStatus != models.PaymentPending {
		t.Errorf("cancelled booking payment = %q, want pending", got.PaymentStatus)
	}

	if err := settle.Settle(ctx, "missing"); err == nil {
		t.Error("Settle(missing) returned nil")
	}
}
