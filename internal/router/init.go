package router

import (
	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/container"
	"github.com/oksasatya/go-physio-booking/internal/domain/gateway"
	"github.com/oksasatya/go-physio-booking/internal/infrastructure/payment"
	"github.com/oksasatya/go-physio-booking/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-physio-booking/internal/interface/http"
	"github.com/oksasatya/go-physio-booking/internal/router/modules"
	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
)

// ModuleDeps is everything the route modules need, built once from the
// container singletons.
type ModuleDeps struct {
	Sessions     *application.Sessions
	Users        *handlers.UserHandler
	Appointments *handlers.AppointmentHandler
	Payments     *handlers.PaymentHandler
	Doctors      *handlers.DoctorHandler
	Admin        *handlers.AdminHandler
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repos := container.GetRepositories()
	m := container.GetMetrics()
	jwt := container.GetJWT()
	images := container.GetImageStore()

	sessions := application.NewSessions(jwt, container.GetRedis(), logger)
	notify := &application.Notifications{
		Notifier: container.GetNotifier(),
		Brand: mailtpl.Brand{
			CompanyName: cfg.CompanyName,
			AppName:     cfg.AppName,
			SupportURL:  cfg.SupportURL,
			AppURL:      cfg.AppURL,
			Currency:    cfg.Currency,
		},
		VerifyURL: cfg.VerifyEmailURL,
		ResetURL:  cfg.ResetPasswordURL,
		Metrics:   m,
		Logger:    logger,
	}

	var index application.DoctorIndex
	if ix := search.NewDoctorIndex(container.GetES(), cfg.ESDoctorsIndex); ix != nil {
		index = ix
	}

	var rzp gateway.RazorpayGateway
	if cfg.RazorpayKeyID != "" || cfg.PaymentsDryRun {
		rzp = payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger).WithDryRun(cfg.PaymentsDryRun)
	}
	var stripe gateway.StripeGateway
	if cfg.StripeSecretKey != "" || cfg.PaymentsDryRun {
		stripe = payment.NewStripe(cfg.StripeSecretKey, logger).WithDryRun(cfg.PaymentsDryRun)
	}

	users := application.NewUserService(repos.Users, repos.Audit, jwt, sessions, images, notify, logger, cfg.ResetTTL)
	booking := application.NewBookingService(repos.Users, repos.Doctors, repos.Appointments, notify, m, logger, cfg.ClinicLocation(), cfg.CancelCutoff)
	payments := application.NewPaymentService(repos.Appointments, rzp, stripe, cfg.Currency, m, logger)
	doctors := application.NewDoctorService(repos.Doctors, repos.Appointments, sessions, index, logger)
	admin := application.NewAdminService(cfg.AdminEmail, cfg.AdminPassword, repos.Users, repos.Appointments, doctors, sessions, images, logger)

	doctorHandler := handlers.NewDoctorHandler(doctors, logger)
	return ModuleDeps{
		Sessions:     sessions,
		Users:        handlers.NewUserHandler(users, logger),
		Appointments: handlers.NewAppointmentHandler(booking, logger),
		Payments:     handlers.NewPaymentHandler(payments, logger),
		Doctors:      doctorHandler,
		Admin:        handlers.NewAdminHandler(admin, doctorHandler, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	d := buildDeps()
	jwt := container.GetJWT()
	rdb := container.GetRedis()

	r.Add(modules.NewUserModule(d.Users, d.Appointments, d.Payments, d.Sessions, jwt, rdb))
	r.Add(modules.NewDoctorModule(d.Doctors, d.Appointments, d.Sessions, jwt, rdb))
	r.Add(modules.NewAdminModule(d.Admin, d.Appointments, d.Sessions, jwt, rdb))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb, container.GetGatherer()))
	}
}
