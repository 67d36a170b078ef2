package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_URL", "https://physio.example")
	t.Setenv("CANCEL_CUTOFF", "not-a-duration")
	t.Setenv("PAYMENTS_DRY_RUN", "true")
	t.Setenv("CURRENCY", "usd")

	c := Load()
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 24*time.Hour, c.CancelCutoff)
	assert.True(t, c.PaymentsDryRun)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "https://physio.example/verify", c.VerifyEmailURL)
	assert.Equal(t, "https://physio.example/reset-password", c.ResetPasswordURL)
	assert.Equal(t, time.Hour, c.VerifyTTL)
}

func TestConfig_Derived(t *testing.T) {
	c := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "physio", DBSSLMode: "disable",
		CORSAllowedOrigins: " http://a.io, ,http://b.io ",
		ElasticsearchAddrs: "http://es:9200",
		ClinicTimezone:     "Asia/Kolkata",
	}
	assert.Equal(t, "postgres://u:p@db:5432/physio?sslmode=disable", c.PostgresDSN())
	assert.Equal(t, []string{"http://a.io", "http://b.io"}, c.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, c.ESAddrs())
	assert.Equal(t, "Asia/Kolkata", c.ClinicLocation().String())

	c.ClinicTimezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, c.ClinicLocation())
}
