package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Kafka      KafkaConfig
	Payroll    PayrollConfig
	Auth       AuthConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	AccessExpiration  string
	RefreshExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	RunMigrations  bool
	AdminEmail     string
	AdminPassword  string
	// IPAllowList holds addresses and CIDR ranges. Empty disables the check.
	IPAllowList []string
}

// AuthConfig controls login lockout and MFA enrolment.
type AuthConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	MFAIssuer        string
}

// AttendanceConfig defines the working day used to classify attendance logs.
type AttendanceConfig struct {
	WorkStart       string // HH:MM in Location
	LateGrace       time.Duration
	FullDay         time.Duration
	Location        string
	SummaryInterval time.Duration
}

// KafkaConfig is optional. Without brokers, payroll runs are processed inline.
type KafkaConfig struct {
	Brokers       []string
	PayrollTopic  string
	ConsumerGroup string
	RetryInitial  time.Duration
	RetryMax      time.Duration
}

type PayrollConfig struct {
	Concurrency   int
	SweepInterval time.Duration
	StallAfter    time.Duration
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "ems"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	runMigrations, err := strconv.ParseBool(getEnv("RUN_MIGRATIONS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_MIGRATIONS: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		RunMigrations:  runMigrations,
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		IPAllowList:    getEnvSlice("APP_IP_ALLOWLIST", ""),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
	}

	// Auth configuration
	maxAttempts, err := strconv.Atoi(getEnv("AUTH_MAX_LOGIN_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_MAX_LOGIN_ATTEMPTS: %w", err)
	}
	lockout, err := time.ParseDuration(getEnv("AUTH_LOCKOUT_DURATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_LOCKOUT_DURATION: %w", err)
	}

	config.Auth = AuthConfig{
		MaxLoginAttempts: maxAttempts,
		LockoutDuration:  lockout,
		MFAIssuer:        getEnv("AUTH_MFA_ISSUER", "EMS"),
	}

	// Kafka configuration
	retryInitial, err := time.ParseDuration(getEnv("KAFKA_RETRY_INITIAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid KAFKA_RETRY_INITIAL: %w", err)
	}
	retryMax, err := time.ParseDuration(getEnv("KAFKA_RETRY_MAX", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid KAFKA_RETRY_MAX: %w", err)
	}

	config.Kafka = KafkaConfig{
		Brokers:       getEnvSlice("KAFKA_BROKERS", ""),
		PayrollTopic:  getEnv("KAFKA_PAYROLL_TOPIC", "payroll-runs"),
		ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "ems-payroll-worker"),
		RetryInitial:  retryInitial,
		RetryMax:      retryMax,
	}

	// Attendance configuration
	lateGrace, err := time.ParseDuration(getEnv("ATTENDANCE_LATE_GRACE", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_LATE_GRACE: %w", err)
	}
	fullDay, err := time.ParseDuration(getEnv("ATTENDANCE_FULL_DAY", "8h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_FULL_DAY: %w", err)
	}
	summaryInterval, err := time.ParseDuration(getEnv("ATTENDANCE_SUMMARY_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_SUMMARY_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		WorkStart:       getEnv("ATTENDANCE_WORK_START", "09:00"),
		LateGrace:       lateGrace,
		FullDay:         fullDay,
		Location:        getEnv("ATTENDANCE_TIMEZONE", "UTC"),
		SummaryInterval: summaryInterval,
	}

	// Payroll worker configuration
	concurrency, err := strconv.Atoi(getEnv("PAYROLL_CONCURRENCY", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CONCURRENCY: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("PAYROLL_SWEEP_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_SWEEP_INTERVAL: %w", err)
	}
	stallAfter, err := time.ParseDuration(getEnv("PAYROLL_STALL_AFTER", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_STALL_AFTER: %w", err)
	}

	config.Payroll = PayrollConfig{
		Concurrency:   concurrency,
		SweepInterval: sweepInterval,
		StallAfter:    stallAfter,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.ParseDuration(c.JWT.RefreshExpiration); err != nil {
		return fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_TIME: %w", err)
	}
	if (c.App.AdminEmail == "") != (c.App.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.Kafka.Enabled() && c.Kafka.PayrollTopic == "" {
		return fmt.Errorf("KAFKA_PAYROLL_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.Payroll.Concurrency < 1 {
		return fmt.Errorf("PAYROLL_CONCURRENCY must be at least 1")
	}
	if c.Payroll.SweepInterval <= 0 || c.Payroll.StallAfter <= 0 {
		return fmt.Errorf("PAYROLL_SWEEP_INTERVAL and PAYROLL_STALL_AFTER must be positive")
	}
	if c.Kafka.RetryInitial <= 0 || c.Kafka.RetryMax < c.Kafka.RetryInitial {
		return fmt.Errorf("KAFKA_RETRY_INITIAL must be positive and not exceed KAFKA_RETRY_MAX")
	}
	if c.Auth.MaxLoginAttempts < 1 || c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("AUTH_MAX_LOGIN_ATTEMPTS and AUTH_LOCKOUT_DURATION must be positive")
	}
	if _, err := time.Parse("15:04", c.Attendance.WorkStart); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_WORK_START: %w", err)
	}
	if _, err := time.LoadLocation(c.Attendance.Location); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	if c.Attendance.FullDay <= 0 || c.Attendance.SummaryInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_FULL_DAY and ATTENDANCE_SUMMARY_INTERVAL must be positive")
	}
	for _, entry := range c.App.IPAllowList {
		if !validAllowListEntry(entry) {
			return fmt.Errorf("invalid APP_IP_ALLOWLIST entry %q", entry)
		}
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func validAllowListEntry(entry string) bool {
	if _, err := netip.ParsePrefix(entry); err == nil {
		return true
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
