package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
	"github.com/oksasatya/go-physio-booking/pkg/response"
)

type PaymentHandler struct {
	Svc    *application.PaymentService
	Logger *logrus.Logger
}

func NewPaymentHandler(svc *application.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Logger: logger}
}

type verifyRazorpayRequest struct {
	OrderID string `json:"razorpay_order_id" binding:"required"`
}

type verifyStripeRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
	Success       string `json:"success" binding:"required"`
	SessionID     string `json:"sessionId"`
}

func (h *PaymentHandler) createOrder(c *gin.Context, provider string) {
	p, _ := middleware.PrincipalFrom(c)
	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	out, err := h.Svc.CreateOrder(c.Request.Context(), provider, req.AppointmentID, p.ID, c.GetHeader("Origin"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, out, "payment initiated", nil)
}

func (h *PaymentHandler) Razorpay(c *gin.Context) { h.createOrder(c, gateway.ProviderRazorpay) }
func (h *PaymentHandler) Stripe(c *gin.Context)   { h.createOrder(c, gateway.ProviderStripe) }

func (h *PaymentHandler) VerifyRazorpay(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req verifyRazorpayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Svc.VerifyRazorpay(c.Request.Context(), req.OrderID, p.ID); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "payment successful", nil)
}

func (h *PaymentHandler) VerifyStripe(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req verifyStripeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Svc.VerifyStripe(c.Request.Context(), req.AppointmentID, req.Success, req.SessionID, p.ID); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "payment successful", nil)
}
