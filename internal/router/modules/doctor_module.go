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

type DoctorModule struct {
	Handler      *handlers.DoctorHandler
	Appointments *handlers.AppointmentHandler
	Sessions     *application.Sessions
	JWT          *helpers.JWTManager
	Redis        *redis.Client
}

func NewDoctorModule(h *handlers.DoctorHandler, appts *handlers.AppointmentHandler, sessions *application.Sessions, jwt *helpers.JWTManager, rdb *redis.Client) *DoctorModule {
	return &DoctorModule{Handler: h, Appointments: appts, Sessions: sessions, JWT: jwt, Redis: rdb}
}

func (m *DoctorModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/doctor")

	publicLimiter := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), nil)
	g.GET("/list", publicLimiter, m.Handler.List)
	g.GET("/search", publicLimiter, m.Handler.Search)
	g.POST("/login", middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil), m.Handler.Login)

	auth := g.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.JWT, entity.KindDoctor))
	{
		auth.GET("/appointments", m.Appointments.List)
		auth.POST("/cancel-appointment", m.Appointments.Cancel)
		auth.POST("/complete-appointment", m.Appointments.Complete)
		auth.GET("/dashboard", m.Handler.Dashboard)
		auth.GET("/profile", m.Handler.Profile)
		auth.POST("/update-profile", m.Handler.UpdateProfile)
		auth.POST("/change-availability", m.Handler.ChangeAvailability)
	}
}
