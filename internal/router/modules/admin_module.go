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

type AdminModule struct {
	Handler      *handlers.AdminHandler
	Appointments *handlers.AppointmentHandler
	Sessions     *application.Sessions
	JWT          *helpers.JWTManager
	Redis        *redis.Client
}

func NewAdminModule(h *handlers.AdminHandler, appts *handlers.AppointmentHandler, sessions *application.Sessions, jwt *helpers.JWTManager, rdb *redis.Client) *AdminModule {
	return &AdminModule{Handler: h, Appointments: appts, Sessions: sessions, JWT: jwt, Redis: rdb}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/admin")
	g.POST("/login", middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil), m.Handler.Login)

	auth := g.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.JWT, entity.KindAdmin))
	{
		auth.POST("/add-doctor", m.Handler.AddDoctor)
		auth.GET("/all-doctors", m.Handler.AllDoctors)
		auth.POST("/change-availability", m.Handler.ChangeAvailability)
		auth.GET("/appointments", m.Appointments.List)
		auth.POST("/cancel-appointment", m.Appointments.Cancel)
		auth.POST("/complete-appointment", m.Appointments.Complete)
		auth.GET("/dashboard", m.Handler.Dashboard)
	}
}
