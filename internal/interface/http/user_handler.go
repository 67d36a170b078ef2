package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
	"github.com/oksasatya/go-physio-booking/pkg/response"
)

// UserHandler serves the patient account endpoints.
type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
	}, requestMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserView(u), "registered, please check your email to verify your account", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
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

// VerifyEmail GET /api/user/verify?token=
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error[any](c, http.StatusBadRequest, "missing token", nil)
		return
	}
	res, err := h.Svc.VerifyEmail(c.Request.Context(), token, requestMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "email verified", nil)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password reset link sent to your email", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	err := h.Svc.ResetPassword(c.Request.Context(), application.ResetPasswordInput{
		Token: req.Token, NewPassword: req.NewPassword, ConfirmPassword: req.ConfirmPassword,
	}, requestMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password has been reset", nil)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.Svc.GetProfile(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile", nil)
}

// UpdateProfile POST /api/user/update-profile (multipart, optional image)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
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

	u, err := h.Svc.UpdateProfile(c.Request.Context(), p.ID, application.UpdateProfileInput{
		Name:    c.PostForm("name"),
		Phone:   c.PostForm("phone"),
		Address: addr,
		DOB:     c.PostForm("dob"),
		Gender:  c.PostForm("gender"),
	}, img)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile updated", nil)
}

func (h *UserHandler) Logout(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	if err := h.Svc.Logout(c.Request.Context(), p.ID); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
