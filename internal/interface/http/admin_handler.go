package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/pkg/response"
)

type AdminHandler struct {
	Svc     *application.AdminService
	Doctors *DoctorHandler
	Logger  *logrus.Logger
}

func NewAdminHandler(svc *application.AdminService, doctors *DoctorHandler, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Doctors: doctors, Logger: logger}
}

type docIDRequest struct {
	DocID string `json:"docId" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
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

// AddDoctor POST /api/admin/add-doctor (multipart with image)
func (h *AdminHandler) AddDoctor(c *gin.Context) {
	fees, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("fees")), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"fees": "must be a whole number"})
		return
	}
	addr, err := formAddress(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"address": "must be a JSON object"})
		return
	}
	img, closeImg, err := formImage(c, "image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"image": "unreadable upload"})
		return
	}
	defer closeImg()

	d, err := h.Svc.AddDoctor(c.Request.Context(), application.AddDoctorInput{
		Name:       c.PostForm("name"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		Speciality: c.PostForm("speciality"),
		Degree:     c.PostForm("degree"),
		Experience: c.PostForm("experience"),
		About:      c.PostForm("about"),
		Fees:       fees,
		Address:    addr,
	}, img)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toDoctorView(d, true), "doctor added", nil)
}

func (h *AdminHandler) AllDoctors(c *gin.Context) {
	list, err := h.Doctors.Svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDoctorViews(list, true), "doctors", map[string]any{"count": len(list)})
}

func (h *AdminHandler) ChangeAvailability(c *gin.Context) {
	var req docIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	h.Doctors.toggle(c, req.DocID)
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.Svc.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, dashboardView{
		Doctors:            d.Doctors,
		Appointments:       d.Appointments,
		Patients:           d.Patients,
		LatestAppointments: toAppointmentViews(d.LatestAppointments),
	}, "dashboard", nil)
}
