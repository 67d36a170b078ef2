package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
)

// PaymentService starts gateway checkouts for appointments and flips the
// payment flag once the gateway confirms the money arrived.
type PaymentService struct {
	Appointments repo.AppointmentRepository
	Razorpay     gateway.RazorpayGateway
	Stripe       gateway.StripeGateway
	Currency     string
	Metrics      *metrics.BookingMetrics
	Logger       *logrus.Logger
}

func NewPaymentService(appts repo.AppointmentRepository, rzp gateway.RazorpayGateway, stripe gateway.StripeGateway, currency string, m *metrics.BookingMetrics, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		Appointments: appts,
		Razorpay:     rzp,
		Stripe:       stripe,
		Currency:     strings.ToUpper(currency),
		Metrics:      m,
		Logger:       logger,
	}
}

// Checkout is what the client needs to continue payment with the provider.
type Checkout struct {
	Provider   string                 `json:"provider"`
	Reference  string                 `json:"id"`
	Amount     int64                  `json:"amount"`
	Currency   string                 `json:"currency"`
	Receipt    string                 `json:"receipt"`
	SessionURL string                 `json:"session_url,omitempty"`
	Order      *gateway.RazorpayOrder `json:"order,omitempty"`
}

// CreateOrder opens a checkout with provider for the patient's appointment.
// origin is the frontend base URL Stripe redirects back to.
func (s *PaymentService) CreateOrder(ctx context.Context, provider, appointmentID, userID, origin string) (out *Checkout, err error) {
	ctx, span := bookingTracer.Start(ctx, "payment.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("physio.appointment_id", appointmentID),
		attribute.String("physio.provider", provider),
	)
	defer func() { s.Metrics.ObservePayment(provider, "create", metrics.Result(err, errorCode(err))) }()

	a, err := s.payable(ctx, appointmentID, userID)
	if err != nil {
		return nil, err
	}
	amount := a.Amount * 100

	switch provider {
	case gateway.ProviderRazorpay:
		if s.Razorpay == nil {
			return nil, fmt.Errorf("%w: razorpay not configured", ErrAdapter)
		}
		order, gerr := s.Razorpay.CreateOrder(ctx, amount, s.Currency, a.ID)
		if gerr != nil {
			span.RecordError(gerr)
			return nil, fmt.Errorf("%w: razorpay create order: %v", ErrAdapter, gerr)
		}
		out = &Checkout{Provider: provider, Reference: order.ID, Amount: order.Amount, Currency: order.Currency, Receipt: a.ID, Order: order}

	case gateway.ProviderStripe:
		if s.Stripe == nil {
			return nil, fmt.Errorf("%w: stripe not configured", ErrAdapter)
		}
		origin = strings.TrimRight(origin, "/")
		if origin == "" {
			return nil, validationf("origin is required for stripe checkout")
		}
		sess, gerr := s.Stripe.CreateCheckoutSession(ctx, gateway.CheckoutParams{
			AmountMinor:       amount,
			Currency:          strings.ToLower(s.Currency),
			ProductName:       "Appointment Fees",
			SuccessURL:        origin + "/verify?success=true&appointmentId=" + url.QueryEscape(a.ID),
			CancelURL:         origin + "/verify?success=false&appointmentId=" + url.QueryEscape(a.ID),
			ClientReferenceID: a.ID,
			CustomerEmail:     a.UserData.Email,
		})
		if gerr != nil {
			span.RecordError(gerr)
			return nil, fmt.Errorf("%w: stripe create session: %v", ErrAdapter, gerr)
		}
		out = &Checkout{Provider: provider, Reference: sess.ID, Amount: amount, Currency: s.Currency, Receipt: a.ID, SessionURL: sess.URL}

	default:
		return nil, validationf("unknown payment provider %q", provider)
	}

	if err := s.Appointments.SetPaymentRef(ctx, a.ID, provider, out.Reference); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("appointment_id", a.ID).Warn("store payment reference failed")
	}
	return out, nil
}

// VerifyRazorpay fetches the order and marks its receipt appointment paid
// when the gateway reports status "paid".
func (s *PaymentService) VerifyRazorpay(ctx context.Context, orderID, userID string) (err error) {
	ctx, span := bookingTracer.Start(ctx, "payment.verify_razorpay")
	defer span.End()
	defer func() { s.Metrics.ObservePayment(gateway.ProviderRazorpay, "verify", metrics.Result(err, errorCode(err))) }()

	if orderID == "" {
		return validationf("razorpay_order_id is required")
	}
	if s.Razorpay == nil {
		return fmt.Errorf("%w: razorpay not configured", ErrAdapter)
	}
	order, err := s.Razorpay.FetchOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: razorpay fetch order: %v", ErrAdapter, err)
	}
	if order.Status != "paid" {
		return ErrPaymentFailed
	}
	if err := s.owned(ctx, order.Receipt, userID); err != nil {
		return err
	}
	return s.MarkPaid(ctx, order.Receipt)
}

// VerifyStripe handles the redirect back from Checkout. success is the raw
// query flag; anything but "true" means the patient abandoned payment.
// The session is re-fetched so a forged redirect cannot mark it paid.
func (s *PaymentService) VerifyStripe(ctx context.Context, appointmentID, success, sessionID, userID string) (err error) {
	ctx, span := bookingTracer.Start(ctx, "payment.verify_stripe")
	defer span.End()
	defer func() { s.Metrics.ObservePayment(gateway.ProviderStripe, "verify", metrics.Result(err, errorCode(err))) }()

	if success != "true" {
		return ErrPaymentFailed
	}
	a, err := s.load(ctx, appointmentID)
	if err != nil {
		return err
	}
	if userID != "" && a.UserID != userID {
		return ErrUnauthorized
	}
	if a.Payment {
		return nil
	}
	if sessionID == "" {
		sessionID = a.PaymentRef
	}
	if sessionID == "" || s.Stripe == nil {
		return ErrPaymentFailed
	}
	sess, err := s.Stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: stripe fetch session: %v", ErrAdapter, err)
	}
	if sess.PaymentStatus != "paid" {
		return ErrPaymentFailed
	}
	if sess.ClientReferenceID != "" && sess.ClientReferenceID != a.ID {
		return ErrPaymentFailed
	}
	return s.MarkPaid(ctx, a.ID)
}

// MarkPaid sets payment=true. Callers have already confirmed with a gateway.
func (s *PaymentService) MarkPaid(ctx context.Context, appointmentID string) error {
	if err := s.Appointments.MarkPaid(ctx, appointmentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("appointment")
		}
		return fmt.Errorf("mark paid: %w", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("appointment_id", appointmentID).Info("appointment paid")
	}
	return nil
}

func (s *PaymentService) load(ctx context.Context, id string) (*entity.Appointment, error) {
	if id == "" {
		return nil, validationf("appointment id is required")
	}
	a, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("appointment", err)
	}
	return a, nil
}

func (s *PaymentService) owned(ctx context.Context, id, userID string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if userID != "" && a.UserID != userID {
		return ErrUnauthorized
	}
	return nil
}

func (s *PaymentService) payable(ctx context.Context, id, userID string) (*entity.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && a.UserID != userID {
		return nil, ErrUnauthorized
	}
	if a.Cancelled {
		return nil, ErrAlreadyCancelled
	}
	if a.Payment {
		return nil, fmt.Errorf("%w: appointment already paid", ErrConflict)
	}
	return a, nil
}
