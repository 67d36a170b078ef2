package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-physio-booking/internal/interface/middleware"
)

type DebugModule struct {
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewDebugModule(rdb *redis.Client, g prometheus.Gatherer) *DebugModule {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &DebugModule{Redis: rdb, Gatherer: g}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// rate-limited per IP; scrapers on private networks bypass the limit
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	rg.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
}
