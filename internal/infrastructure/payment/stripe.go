package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
)

var stripeTracer = otel.Tracer("physio.internal.infrastructure.payment.stripe")

// Stripe creates and reads Checkout Sessions over Stripe's form-encoded API.
type Stripe struct {
	secretKey  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logrus.Logger
	dryRun     bool

	mu       sync.Mutex
	sessions map[string]gateway.StripeSession // dry-run only
}

var _ gateway.StripeGateway = (*Stripe)(nil)

func NewStripe(secretKey string, logger *logrus.Logger) *Stripe {
	return &Stripe{
		secretKey:  secretKey,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: defaultHTTPClient(),
		logger:     logger,
		sessions:   map[string]gateway.StripeSession{},
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *Stripe) WithBaseURL(baseURL string) *Stripe {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun returns fake sessions without calling Stripe; they read back as paid.
func (s *Stripe) WithDryRun(enabled bool) *Stripe {
	s.dryRun = enabled
	return s
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p gateway.CheckoutParams) (*gateway.StripeSession, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_checkout_session")
	defer span.End()
	span.SetAttributes(
		attribute.String("physio.appointment_id", p.ClientReferenceID),
		attribute.Int64("physio.amount_minor", p.AmountMinor),
	)

	if s.dryRun {
		id := "cs_dryrun_" + uuid.NewString()[:8]
		sess := gateway.StripeSession{
			ID:                id,
			URL:               "https://checkout.stripe.com/dry-run/" + id,
			PaymentStatus:     "unpaid",
			ClientReferenceID: p.ClientReferenceID,
		}
		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"session_id": id, "appointment_id": p.ClientReferenceID}).Info("stripe dry run: checkout session not sent")
		}
		return &sess, nil
	}

	productName := p.ProductName
	if strings.TrimSpace(productName) == "" {
		productName = "Appointment Fees"
	}
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(p.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("client_reference_id", p.ClientReferenceID)
	form.Set("metadata[appointment_id]", p.ClientReferenceID)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}

	req, err := newRequest(ctx, http.MethodPost, s.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out gateway.StripeSession
	if err := doJSON(s.httpClient, req, "stripe", &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("payments: stripe response missing checkout url")
	}
	return &out, nil
}

func (s *Stripe) GetCheckoutSession(ctx context.Context, id string) (*gateway.StripeSession, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.get_checkout_session")
	defer span.End()
	span.SetAttributes(attribute.String("physio.session_id", id))

	if s.dryRun {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("payments: stripe dry run: unknown session %s", id)
		}
		sess.PaymentStatus = "paid"
		return &sess, nil
	}

	req, err := newRequest(ctx, http.MethodGet, s.baseURL+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	var out gateway.StripeSession
	if err := doJSON(s.httpClient, req, "stripe", &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}

func (s *Stripe) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Stripe-Version", s.apiVersion)
}
