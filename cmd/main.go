package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/go-physio-booking/config"
	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/container"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-physio-booking/internal/infrastructure/postgres"
	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
	"github.com/oksasatya/go-physio-booking/internal/router"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/mailer"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
	"github.com/oksasatya/go-physio-booking/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	// Storage
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("DB_DRIVER=memory; data is lost on restart")
		store := memory.NewStore()
		container.SetRepositories(container.Repositories{
			Users:        store.Users(),
			Doctors:      store.Doctors(),
			Appointments: store.Appointments(),
			Audit:        store.Audit(),
		})
	default:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		// Run migrations using database/sql with pgx stdlib
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
		container.SetRepositories(container.Repositories{
			Users:        pginfra.NewUserRepository(pool),
			Doctors:      pginfra.NewDoctorRepository(pool),
			Appointments: pginfra.NewAppointmentRepository(pool),
			Audit:        pginfra.NewAuditRepository(pool),
		})
	}

	// Redis (sessions, rate limits)
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		logger.WithError(err).Warn("redis not reachable; sessions will be rejected until it is")
	}
	container.SetRedis(rdb)

	// GCS for profile and doctor images
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCSUploader(helpers.NewGCSUploader(gcsClient, cfg.GCSBucket))
	} else {
		logger.Info("GCS_BUCKET not set; image uploads disabled")
	}

	// Elasticsearch for doctor search (optional)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch: %v", err)
		}
		if err := helpers.PingES(ctx, es); err != nil {
			logger.WithError(err).Warn("elasticsearch not reachable; doctor search falls back to the database")
		}
		container.SetES(es)
	}

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bm := metrics.NewBookingMetrics(promReg)
	container.SetMetrics(bm)
	container.SetGatherer(promReg)

	// Email: queue to the worker when RabbitMQ is reachable, otherwise send in-process
	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()
	container.SetNotifier(notifier)

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, map[string]time.Duration{
		string(entity.KindPatient):       cfg.PatientTTL,
		string(entity.KindDoctor):        cfg.DoctorTTL,
		string(entity.KindAdmin):         cfg.AdminTTL,
		string(entity.KindEmailVerify):   cfg.VerifyTTL,
		string(entity.KindPasswordReset): cfg.ResetTTL,
	})
	container.SetJWT(jwtManager)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.RealIP(), middleware.Metrics(bm))
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "token", "dtoken", "atoken"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	registry := router.NewRegistry(r)
	router.InitModules(registry)
	registry.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func buildNotifier(cfg *config.Config, logger *logrus.Logger) (application.Notifier, func()) {
	if cfg.RabbitMQURL != "" && cfg.RabbitMQEmailQueue != "" {
		q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err == nil {
			container.SetRabbitQueue(q)
			logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email jobs go to rabbitmq")
			return mailer.NewQueueNotifier(q, logger), q.Close
		}
		logger.WithError(err).Warn("rabbitmq unavailable; sending email in-process")
	}
	sender, err := mailer.NewSender(senderConfig(cfg), logger)
	if err != nil {
		logger.WithError(err).Warn("mail provider not configured; emails are logged only")
		sender = mailer.LogSender{Logger: logger}
	}
	return &mailer.DirectNotifier{Sender: sender}, func() {}
}

func senderConfig(cfg *config.Config) mailer.SenderConfig {
	return mailer.SenderConfig{
		Enabled:          cfg.MailSendEnabled,
		Provider:         cfg.MailProvider,
		MailgunDomain:    cfg.MailgunDomain,
		MailgunAPIKey:    cfg.MailgunAPIKey,
		MailgunSender:    cfg.MailgunSender,
		SendGridAPIKey:   cfg.SendGridAPIKey,
		SendGridFrom:     cfg.SendGridFrom,
		SendGridFromName: cfg.SendGridFromName,
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
