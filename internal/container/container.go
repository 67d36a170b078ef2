package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/config"
	"github.com/oksasatya/go-physio-booking/internal/application"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

// Repositories is the storage set picked by DB_DRIVER.
type Repositories struct {
	Users        repo.UserRepository
	Doctors      repo.DoctorRepository
	Appointments repo.AppointmentRepository
	Audit        repo.AuditRepository
}

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	repos       *Repositories

	jwtManager  *helpers.JWTManager
	gcsUploader *helpers.GCSUploader
	rabbitQueue *helpers.RabbitQueue
	esClient    *elasticsearch.Client
	notifier    application.Notifier
	bookingMet  *metrics.BookingMetrics
	gatherer    prometheus.Gatherer
)

func SetConfig(c *config.Config)     { cfg = c }
func GetConfig() *config.Config      { return cfg }
func SetLogger(l *logrus.Logger)     { logger = l }
func GetLogger() *logrus.Logger      { return logger }
func SetPGPool(p *pgxpool.Pool)      { pgPool = p }
func GetPGPool() *pgxpool.Pool       { return pgPool }
func SetRedis(r *redis.Client)       { redisClient = r }
func GetRedis() *redis.Client        { return redisClient }
func SetRepositories(r Repositories) { repos = &r }
func GetRepositories() *Repositories { return repos }
func SetJWT(m *helpers.JWTManager)   { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetGCSUploader(u *helpers.GCSUploader) { gcsUploader = u }

// GetImageStore returns nil (not a typed nil) when GCS is not configured.
func GetImageStore() application.ImageStore {
	if gcsUploader == nil {
		return nil
	}
	return gcsUploader
}

func SetRabbitQueue(q *helpers.RabbitQueue) { rabbitQueue = q }
func GetRabbitQueue() *helpers.RabbitQueue  { return rabbitQueue }
func SetES(c *elasticsearch.Client)         { esClient = c }
func GetES() *elasticsearch.Client          { return esClient }
func SetNotifier(n application.Notifier)    { notifier = n }
func GetNotifier() application.Notifier     { return notifier }
func SetMetrics(m *metrics.BookingMetrics)  { bookingMet = m }
func GetMetrics() *metrics.BookingMetrics   { return bookingMet }

func SetGatherer(g prometheus.Gatherer) { gatherer = g }
func GetGatherer() prometheus.Gatherer  { return gatherer }
