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

type DoctorHandler struct {
	Svc    *application.DoctorService
	Logger *logrus.Logger
}

func NewDoctorHandler(svc *application.DoctorService, logger *logrus.Logger) *DoctorHandler {
	return &DoctorHandler{Svc: svc, Logger: logger}
}

type updateDoctorRequest struct {
	Fees      *int64          `json:"fees" binding:"omitempty,gt=0"`
	Address   *entity.Address `json:"address"`
	Available *bool           `json:"available"`
	About     *string         `json:"about"`
}

type dashboardView struct {
	Earnings           int64             `json:"earnings,omitempty"`
	Doctors            int               `json:"doctors,omitempty"`
	Appointments       int               `json:"appointments"`
	Patients           int               `json:"patients"`
	LatestAppointments []appointmentView `json:"latestAppointments"`
}

// List is the public doctor directory.
func (h *DoctorHandler) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDoctorViews(list, false), "doctors", map[string]any{"count": len(list)})
}

// Search GET /api/doctor/search?q=&speciality=
func (h *DoctorHandler) Search(c *gin.Context) {
	list, err := h.Svc.Search(c.Request.Context(), c.Query("q"), c.Query("speciality"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDoctorViews(list, false), "doctors", map[string]any{"count": len(list)})
}

func (h *DoctorHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "login successful", nil)
}

func (h *DoctorHandler) Profile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	d, err := h.Svc.Profile(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDoctorView(d, true), "profile", nil)
}

func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var req updateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	d, err := h.Svc.UpdateProfile(c.Request.Context(), p.ID, application.DoctorProfileInput{
		Fees: req.Fees, Address: req.Address, Available: req.Available, About: req.About,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDoctorView(d, true), "profile updated", nil)
}

func (h *DoctorHandler) ChangeAvailability(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	h.toggle(c, p.ID)
}

func (h *DoctorHandler) toggle(c *gin.Context, id string) {
	available, err := h.Svc.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"docId": id, "available": available}, "availability changed", nil)
}

func (h *DoctorHandler) Dashboard(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	d, err := h.Svc.Dashboard(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, dashboardView{
		Earnings:           d.Earnings,
		Appointments:       d.Appointments,
		Patients:           d.Patients,
		LatestAppointments: toAppointmentViews(d.LatestAppointments),
	}, "dashboard", nil)
}
