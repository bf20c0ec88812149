package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"samayog/models"
	"samayog/utils"
)

// LinkProvider produces the opaque URL a client opens to pay for a booking.
type LinkProvider interface {
	PaymentLink(ctx context.Context, booking *models.Booking) (string, error)
}

// StaticLinks builds sandbox links without contacting any provider.
type StaticLinks struct {
	BaseURL string
}

const defaultStaticBase = "https://pay.samayog.test/checkout"

func (s StaticLinks) PaymentLink(_ context.Context, booking *models.Booking) (string, error) {
	if booking == nil || booking.ID == "" {
		return "", fmt.Errorf("payment link: booking id is required")
	}
	base := s.BaseURL
	if base == "" {
		base = defaultStaticBase
	}
	q := url.Values{}
	q.Set("amount", fmt.Sprintf("%d", booking.Amount))
	return fmt.Sprintf("%s/%s?%s", base, url.PathEscape(booking.ID), q.Encode()), nil
}

// StripeCheckout creates a Stripe Checkout session per booking.
type StripeCheckout struct {
	api        *client.API
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// NewStripeCheckout returns a provider using key. backends may be nil for the
// default Stripe endpoints.
func NewStripeCheckout(key, successURL, cancelURL string, backends *stripe.Backends, logger *zap.Logger) *StripeCheckout {
	api := &client.API{}
	api.Init(key, backends)
	return &StripeCheckout{
		api:        api,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     utils.OrNop(logger),
	}
}

func (s *StripeCheckout) PaymentLink(ctx context.Context, booking *models.Booking) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(booking.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("inr"),
					UnitAmount: stripe.Int64(utils.ToMinorUnits(booking.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s consultation (%s, %d min)",
							booking.Service, booking.ConsultationMode, booking.DurationMinutes)),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", booking.ID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout for booking %s: %w", booking.ID, err)
	}
	s.logger.Info("Created checkout session",
		zap.String("bookingId", booking.ID),
		zap.String("sessionId", sess.ID))
	return sess.URL, nil
}
