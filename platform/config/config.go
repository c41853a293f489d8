// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SessionConfig provides settings for admin session cookies and the
// bootstrap admin account.
type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionCookieSecure() bool
	GetSessionTTL() time.Duration
	GetAdminBootstrapEmail() string
	GetAdminBootstrapPassword() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetResendAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
}

// WebhookConfig provides settings for inbound webhooks and unsubscribe links.
type WebhookConfig interface {
	GetWebhookSecret() string
	GetUnsubscribeSecret() string
	GetAppBaseURL() string
}

// NotifyConfig provides settings for staff notifications.
type NotifyConfig interface {
	GetSlackWebhookURL() string
	GetStaffNotifyEmail() string
	GetAppBaseURL() string
}

// DispatcherConfig provides settings for the sequence dispatcher.
type DispatcherConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDispatchInterval() time.Duration
	GetDispatchBatchSize() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	AppBaseURL          string
	SessionCookieName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration
	AdminEmail          string
	AdminPassword       string
	EmailEnabled        bool
	ResendAPIKey        string
	EmailFromName       string
	EmailFromAddress    string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	WebhookSecret       string
	UnsubscribeSecret   string
	SlackWebhookURL     string
	StaffNotifyEmail    string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	DispatchInterval    time.Duration
	DispatchBatchSize   int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }

// SessionConfig implementation
func (c *Config) GetSessionCookieName() string      { return c.SessionCookieName }
func (c *Config) GetSessionCookieSecure() bool      { return c.SessionCookieSecure }
func (c *Config) GetSessionTTL() time.Duration      { return c.SessionTTL }
func (c *Config) GetAdminBootstrapEmail() string    { return c.AdminEmail }
func (c *Config) GetAdminBootstrapPassword() string { return c.AdminPassword }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetResendAPIKey() string     { return c.ResendAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }

// WebhookConfig implementation
func (c *Config) GetWebhookSecret() string     { return c.WebhookSecret }
func (c *Config) GetUnsubscribeSecret() string { return c.UnsubscribeSecret }
func (c *Config) GetAppBaseURL() string        { return c.AppBaseURL }

// NotifyConfig implementation
func (c *Config) GetSlackWebhookURL() string  { return c.SlackWebhookURL }
func (c *Config) GetStaffNotifyEmail() string { return c.StaffNotifyEmail }

// DispatcherConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetDispatchInterval() time.Duration { return c.DispatchInterval }
func (c *Config) GetDispatchBatchSize() int          { return c.DispatchBatchSize }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	resendAPIKey := getEnv("RESEND_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	sessionCookieSecure := strings.EqualFold(getEnv("SESSION_COOKIE_SECURE", ""), "true")
	if getEnv("SESSION_COOKIE_SECURE", "") == "" {
		sessionCookieSecure = strings.EqualFold(getEnv("APP_ENV", "development"), "production")
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:3000"),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "funnel_session"),
		SessionCookieSecure: sessionCookieSecure,
		SessionTTL:          mustDuration(getEnv("SESSION_TTL", "168h")),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		EmailEnabled:        emailEnabled && (resendAPIKey != "" || smtpHost != ""),
		ResendAPIKey:        resendAPIKey,
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Partner Program"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		SMTPHost:            smtpHost,
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		WebhookSecret:       getEnv("WEBHOOK_SECRET", ""),
		UnsubscribeSecret:   getEnv("UNSUBSCRIBE_SECRET", ""),
		SlackWebhookURL:     getEnv("SLACK_WEBHOOK_URL", ""),
		StaffNotifyEmail:    getEnv("STAFF_NOTIFY_EMAIL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DispatchInterval:    mustDuration(getEnv("DISPATCH_INTERVAL", "30s")),
		DispatchBatchSize:   mustInt(getEnv("DISPATCH_BATCH_SIZE", "50")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.UnsubscribeSecret == "" {
		return nil, fmt.Errorf("UNSUBSCRIBE_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
