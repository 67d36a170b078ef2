package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	_, rdb := newRedis(t)
	jwt := helpers.NewJWTManager("secret", map[string]time.Duration{"patient": time.Hour, "doctor": time.Hour})
	sessions := application.NewSessions(jwt, rdb, nil)

	r := gin.New()
	r.GET("/me", Auth(sessions, jwt, entity.KindPatient), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(p.Kind)+":"+p.ID)
	})

	login, err := sessions.Issue(t.Context(), entity.KindPatient, "u1", "u1@mail.io", "Pat")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "patient:u1", w.Body.String())

	// legacy per-role header
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("token", login.Token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	// a doctor token is not a patient token
	doc, err := sessions.Issue(t.Context(), entity.KindDoctor, "d1", "d1@clinic.io", "Dr. A")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+doc.Token)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	// missing token
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)

	// a newer login replaces the session
	_, err = sessions.Issue(t.Context(), entity.KindPatient, "u1", "u1@mail.io", "Pat")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return serve(r, req)
	}

	w := do("203.0.113.7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, do("203.0.113.7").Code)

	w = do("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, do("198.51.100.1").Code)

	// window expiry resets the counter
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do("203.0.113.7").Code)
}

func TestRateLimit_FailsOpenAndAllowlist(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/metrics", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("X-Real-IP", "10.1.2.3")
		assert.Equal(t, http.StatusOK, serve(r, req).Code)
	}

	mr.Close()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequestIDAndRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RealIP())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id")+"|"+c.GetString("real_ip"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "2001:db8::1")
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	w := serve(r, req)
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id+"|2001:db8::1", w.Body.String())

	const incoming = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	w = serve(r, req)
	assert.Equal(t, incoming+"|203.0.113.1", w.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/doctor/list", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/doctor/list", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	routes := map[string]bool{}
	for _, f := range families {
		if f.GetName() != "physio_http_request_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					routes[l.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, routes["/api/doctor/list"])
	assert.True(t, routes["unmatched"])
}
