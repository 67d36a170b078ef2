package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	handlers "github.com/oksasatya/go-physio-booking/internal/interface/http"
	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

// UserModule wires the patient routes under /api/user.
// Public: register, login, verify, forgot-password, reset-password
// Patient token: profile, appointments, payments, logout
type UserModule struct {
	Handler      *handlers.UserHandler
	Appointments *handlers.AppointmentHandler
	Payments     *handlers.PaymentHandler
	Sessions     *application.Sessions
	JWT          *helpers.JWTManager
	Redis        *redis.Client
}

func NewUserModule(h *handlers.UserHandler, appts *handlers.AppointmentHandler, pay *handlers.PaymentHandler, sessions *application.Sessions, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Appointments: appts, Payments: pay, Sessions: sessions, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/user")

	// Public with rate limiting
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil) // 10 req/min per IP
	registerLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	verifyLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetInitLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	g.POST("/register", registerLimiter, m.Handler.Register)
	g.POST("/login", loginLimiter, m.Handler.Login)
	g.GET("/verify", verifyLimiter, m.Handler.VerifyEmail)
	g.POST("/forgot-password", resetInitLimiter, m.Handler.ForgotPassword)
	g.POST("/reset-password", resetConfirmLimiter, m.Handler.ResetPassword)

	// Protected
	auth := g.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.JWT, entity.KindPatient))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByPrincipal(), nil))
	{
		auth.GET("/get-profile", m.Handler.GetProfile)
		auth.POST("/update-profile", m.Handler.UpdateProfile)
		auth.POST("/logout", m.Handler.Logout)

		auth.POST("/book-appointment", m.Appointments.Book)
		auth.GET("/appointments", m.Appointments.List)
		auth.POST("/cancel-appointment", m.Appointments.Cancel)

		auth.POST("/payment-razorpay", m.Payments.Razorpay)
		auth.POST("/verifyRazorpay", m.Payments.VerifyRazorpay)
		auth.POST("/payment-stripe", m.Payments.Stripe)
		auth.POST("/verifyStripe", m.Payments.VerifyStripe)
	}
}
