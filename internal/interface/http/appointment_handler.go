package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
	"github.com/oksasatya/go-physio-booking/pkg/response"
)

// AppointmentHandler is mounted under each role group; the principal set by
// middleware.Auth decides scope and permissions.
type AppointmentHandler struct {
	Svc    *application.BookingService
	Logger *logrus.Logger
}

func NewAppointmentHandler(svc *application.BookingService, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc, Logger: logger}
}

type bookRequest struct {
	DocID    string `json:"docId" binding:"required"`
	SlotDate string `json:"slotDate" binding:"required,slotdate"`
	SlotTime string `json:"slotTime" binding:"required,slottime"`
}

type appointmentRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	a, err := h.Svc.Book(c.Request.Context(), application.BookInput{
		UserID: p.ID, DoctorID: req.DocID, SlotDate: req.SlotDate, SlotTime: req.SlotTime,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toAppointmentView(a), "appointment booked", nil)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var (
		list []*entity.Appointment
		err  error
	)
	switch p.Kind {
	case entity.KindPatient:
		list, err = h.Svc.ListForUser(c.Request.Context(), p.ID)
	case entity.KindDoctor:
		list, err = h.Svc.ListForDoctor(c.Request.Context(), p.ID)
	case entity.KindAdmin:
		list, err = h.Svc.ListAll(c.Request.Context())
	default:
		err = application.ErrUnauthorized
	}
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAppointmentViews(list), "appointments", map[string]any{"count": len(list)})
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Svc.Cancel(c.Request.Context(), req.AppointmentID, p); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "appointment cancelled", nil)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Svc.Complete(c.Request.Context(), req.AppointmentID, p); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "appointment completed", nil)
}
