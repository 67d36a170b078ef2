package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
)

type fakeRazorpay struct {
	created []int64
	orders  map[string]*gateway.RazorpayOrder
	err     error
}

func (f *fakeRazorpay) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.RazorpayOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, amount)
	o := &gateway.RazorpayOrder{ID: "order_" + receipt, Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}
	if f.orders == nil {
		f.orders = map[string]*gateway.RazorpayOrder{}
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeRazorpay) FetchOrder(_ context.Context, id string) (*gateway.RazorpayOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

type fakeStripe struct {
	params   []gateway.CheckoutParams
	sessions map[string]*gateway.StripeSession
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, p gateway.CheckoutParams) (*gateway.StripeSession, error) {
	f.params = append(f.params, p)
	s := &gateway.StripeSession{ID: "cs_" + p.ClientReferenceID, URL: "https://checkout.stripe.com/c/pay/cs_" + p.ClientReferenceID, PaymentStatus: "unpaid", ClientReferenceID: p.ClientReferenceID}
	if f.sessions == nil {
		f.sessions = map[string]*gateway.StripeSession{}
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStripe) GetCheckoutSession(_ context.Context, id string) (*gateway.StripeSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func newPayments(t *testing.T) (*clinic, *PaymentService, *fakeRazorpay, *fakeStripe) {
	c := newClinic(t)
	c.addDoctor(t, "dr-a", "Dr. A", 500, true)
	c.addPatient(t, "p1", "Pat")
	c.addPatient(t, "p2", "Sam")
	rzp, st := &fakeRazorpay{}, &fakeStripe{}
	return c, NewPaymentService(c.store.Appointments(), rzp, st, "inr", nil, nil), rzp, st
}

func TestPayment_RazorpayFlow(t *testing.T) {
	c, svc, rzp, _ := newPayments(t)
	ctx := context.Background()
	a, err := book(c, "p1", "dr-a", "15_6_2025", "10:00 AM")
	require.NoError(t, err)

	out, err := svc.CreateOrder(ctx, gateway.ProviderRazorpay, a.ID, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, []int64{50000}, rzp.created)
	assert.Equal(t, "INR", out.Currency)
	assert.Equal(t, a.ID, out.Order.Receipt)

	stored, _ := c.store.Appointments().GetByID(ctx, a.ID)
	assert.Equal(t, out.Reference, stored.PaymentRef)
	assert.Equal(t, gateway.ProviderRazorpay, stored.PaymentProvider)

	assert.ErrorIs(t, svc.VerifyRazorpay(ctx, out.Reference, "p1"), ErrPaymentFailed)

	rzp.orders[out.Reference].Status = "paid"
	assert.ErrorIs(t, svc.VerifyRazorpay(ctx, out.Reference, "p2"), ErrUnauthorized)
	require.NoError(t, svc.VerifyRazorpay(ctx, out.Reference, "p1"))

	stored, _ = c.store.Appointments().GetByID(ctx, a.ID)
	assert.True(t, stored.Payment)

	_, err = svc.CreateOrder(ctx, gateway.ProviderRazorpay, a.ID, "p1", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPayment_StripeFlow(t *testing.T) {
	c, svc, _, st := newPayments(t)
	ctx := context.Background()
	a, err := book(c, "p1", "dr-a", "15_6_2025", "10:00 AM")
	require.NoError(t, err)

	out, err := svc.CreateOrder(ctx, gateway.ProviderStripe, a.ID, "p1", "http://localhost:5173/")
	require.NoError(t, err)
	require.Len(t, st.params, 1)
	p := st.params[0]
	assert.Equal(t, int64(50000), p.AmountMinor)
	assert.Equal(t, "inr", p.Currency)
	assert.Equal(t, "http://localhost:5173/verify?success=true&appointmentId="+a.ID, p.SuccessURL)
	assert.Equal(t, "http://localhost:5173/verify?success=false&appointmentId="+a.ID, p.CancelURL)
	assert.NotEmpty(t, out.SessionURL)

	assert.ErrorIs(t, svc.VerifyStripe(ctx, a.ID, "false", "", "p1"), ErrPaymentFailed)
	// redirect claims success but the session is unpaid
	assert.ErrorIs(t, svc.VerifyStripe(ctx, a.ID, "true", "", "p1"), ErrPaymentFailed)

	st.sessions[out.Reference].PaymentStatus = "paid"
	require.NoError(t, svc.VerifyStripe(ctx, a.ID, "true", "", "p1"))
	stored, _ := c.store.Appointments().GetByID(ctx, a.ID)
	assert.True(t, stored.Payment)

	// idempotent once paid
	require.NoError(t, svc.VerifyStripe(ctx, a.ID, "true", "", "p1"))
}

func TestPayment_Rejections(t *testing.T) {
	c, svc, rzp, _ := newPayments(t)
	ctx := context.Background()
	a, err := book(c, "p1", "dr-a", "15_6_2025", "10:00 AM")
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, gateway.ProviderRazorpay, "missing", "p1", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateOrder(ctx, gateway.ProviderRazorpay, a.ID, "p2", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateOrder(ctx, "paypal", a.ID, "p1", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(ctx, gateway.ProviderStripe, a.ID, "p1", "")
	assert.ErrorIs(t, err, ErrValidation)

	rzp.err = errors.New("502 bad gateway")
	_, err = svc.CreateOrder(ctx, gateway.ProviderRazorpay, a.ID, "p1", "")
	assert.ErrorIs(t, err, ErrAdapter)
	rzp.err = nil

	require.NoError(t, c.booking.Cancel(ctx, a.ID, c.patient("p1")))
	_, err = svc.CreateOrder(ctx, gateway.ProviderRazorpay, a.ID, "p1", "")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	assert.ErrorIs(t, svc.MarkPaid(ctx, "missing"), ErrNotFound)
}
