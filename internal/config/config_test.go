package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)
	assert.True(t, cfg.App.RunMigrations)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 8, cfg.Payroll.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Payroll.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.Payroll.StallAfter)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "168h", cfg.JWT.RefreshExpiration)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Empty(t, cfg.App.IPAllowList)
	assert.Equal(t, "09:00", cfg.Attendance.WorkStart)
	assert.Equal(t, 8*time.Hour, cfg.Attendance.FullDay)
	assert.Equal(t, time.Second, cfg.Kafka.RetryInitial)
}

func TestLoad_IPAllowList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_IP_ALLOWLIST", "10.0.0.0/8, 203.0.113.7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "203.0.113.7"}, cfg.App.IPAllowList)
}

func TestLoad_Kafka(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "payroll-runs", cfg.Kafka.PayrollTopic)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "APP_PORT", "eighty"},
		{"concurrency", "PAYROLL_CONCURRENCY", "0"},
		{"sweep interval", "PAYROLL_SWEEP_INTERVAL", "soon"},
		{"admin without password", "ADMIN_EMAIL", "admin@example.com"},
		{"allow list entry", "APP_IP_ALLOWLIST", "10.0.0.0/8,office"},
		{"work start", "ATTENDANCE_WORK_START", "9am"},
		{"timezone", "ATTENDANCE_TIMEZONE", "Mars/Olympus"},
		{"lockout", "AUTH_MAX_LOGIN_ATTEMPTS", "0"},
		{"refresh expiry", "JWT_REFRESH_EXPIRATION_TIME", "a week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, User: "ems", Password: "pw", Name: "ems", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://ems:pw@db:5433/ems?sslmode=disable", cfg.DatabaseURL())
}
