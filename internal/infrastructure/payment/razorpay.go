package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
)

var razorpayTracer = otel.Tracer("physio.internal.infrastructure.payment.razorpay")

// Razorpay talks to the Razorpay Orders API with HTTP basic auth.
type Razorpay struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	dryRun     bool

	mu     sync.Mutex
	orders map[string]gateway.RazorpayOrder // dry-run only
}

var _ gateway.RazorpayGateway = (*Razorpay)(nil)

func NewRazorpay(keyID, keySecret string, logger *logrus.Logger) *Razorpay {
	return &Razorpay{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    "https://api.razorpay.com",
		httpClient: defaultHTTPClient(),
		logger:     logger,
		orders:     map[string]gateway.RazorpayOrder{},
	}
}

// WithBaseURL overrides the Razorpay API base URL (for testing).
func (r *Razorpay) WithBaseURL(baseURL string) *Razorpay {
	if baseURL != "" {
		r.baseURL = strings.TrimRight(baseURL, "/")
	}
	return r
}

// WithDryRun makes orders local: CreateOrder invents an id and FetchOrder
// reports every known order as paid.
func (r *Razorpay) WithDryRun(enabled bool) *Razorpay {
	r.dryRun = enabled
	return r
}

func (r *Razorpay) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.RazorpayOrder, error) {
	ctx, span := razorpayTracer.Start(ctx, "razorpay.create_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("physio.receipt", receipt),
		attribute.Int64("physio.amount_minor", amountMinor),
	)

	if r.dryRun {
		o := gateway.RazorpayOrder{
			ID:       "order_dryrun_" + uuid.NewString()[:8],
			Amount:   amountMinor,
			Currency: currency,
			Receipt:  receipt,
			Status:   "created",
		}
		r.mu.Lock()
		r.orders[o.ID] = o
		r.mu.Unlock()
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"order_id": o.ID, "receipt": receipt}).Info("razorpay dry run: order not sent")
		}
		return &o, nil
	}

	body, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}
	req, err := newRequest(ctx, http.MethodPost, r.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	var out gateway.RazorpayOrder
	if err := doJSON(r.httpClient, req, "razorpay", &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("payments: razorpay response missing order id")
	}
	return &out, nil
}

func (r *Razorpay) FetchOrder(ctx context.Context, orderID string) (*gateway.RazorpayOrder, error) {
	ctx, span := razorpayTracer.Start(ctx, "razorpay.fetch_order")
	defer span.End()
	span.SetAttributes(attribute.String("physio.order_id", orderID))

	if r.dryRun {
		r.mu.Lock()
		o, ok := r.orders[orderID]
		r.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("payments: razorpay dry run: unknown order %s", orderID)
		}
		o.Status = "paid"
		return &o, nil
	}

	req, err := newRequest(ctx, http.MethodGet, r.baseURL+"/v1/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)

	var out gateway.RazorpayOrder
	if err := doJSON(r.httpClient, req, "razorpay", &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}
