package gateway

import "context"

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
)

// RazorpayOrder is the part of a Razorpay order the booking flow reads.
// Amount is in the currency's minor unit.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*RazorpayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*RazorpayOrder, error)
}

// CheckoutParams describes a one-line Stripe Checkout Session.
type CheckoutParams struct {
	AmountMinor       int64
	Currency          string
	ProductName       string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
}

type StripeSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	PaymentStatus     string `json:"payment_status"`
	ClientReferenceID string `json:"client_reference_id"`
}

type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*StripeSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*StripeSession, error)
}
