package payments

import (
	"context"
	"math"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/example/trip-quoting/internal/models"
)

// StripeClient places manual-capture holds for finalized quotes. The hold
// is captured when the trip completes and cancelled if it never starts.
type StripeClient struct{}

// NewStripeClient configures the stripe library with the given API key and
// returns nil when no key is set, so callers can skip payment wiring.
func NewStripeClient(apiKey string) *StripeClient {
	if apiKey == "" {
		return nil
	}
	stripe.Key = apiKey
	return &StripeClient{}
}

// HoldQuote creates a PaymentIntent with capture_method=manual for the
// quote amount, converted to the currency's minor unit. Returns the
// PaymentIntent ID.
func (s *StripeClient) HoldQuote(ctx context.Context, quote models.PriceQuote, customerID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(quote.EstimatedPrice)),
		Currency: stripe.String(strings.ToLower(quote.Currency)),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// Capture finalizes a previously held PaymentIntent.
func (s *StripeClient) Capture(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Capture(paymentIntentID, nil)
	return err
}

// Cancel releases the hold on a PaymentIntent.
func (s *StripeClient) Cancel(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Cancel(paymentIntentID, nil)
	return err
}

func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
