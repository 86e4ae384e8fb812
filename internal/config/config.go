package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	OTPTTL         time.Duration
	OTPMaxAttempts int
	DevEcho        bool

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AllowedOrigins []string

	RateLimitWindow time.Duration
	StartPerWindow  int
	VerifyPerWindow int

	SMSProvider      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	GoogleClientID string

	LogLevel string
}

const (
	defaultOTPTTLSeconds    = 300
	defaultOTPMaxAttempts   = 5
	defaultAccessTTLSeconds = 3600
	defaultRefreshTTLDays   = 30
	defaultPort             = "8080"

	defaultRateLimitWindowSeconds = 600
	defaultStartPerWindow         = 10
	defaultVerifyPerWindow        = 20

	smsProviderTwilio = "twilio"
	smsProviderLog    = "log"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             envOr("PORT", defaultPort),
		OTPTTL:           time.Duration(envInt("OTP_TTL_SECONDS", defaultOTPTTLSeconds)) * time.Second,
		OTPMaxAttempts:   envInt("OTP_MAX_ATTEMPTS", defaultOTPMaxAttempts),
		DevEcho:          strings.EqualFold(os.Getenv("SMS_DEV_ECHO"), "true"),
		AccessTokenTTL:   time.Duration(envInt("ACCESS_TOKEN_TTL_SECONDS", defaultAccessTTLSeconds)) * time.Second,
		RefreshTokenTTL:  time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", defaultRefreshTTLDays)) * 24 * time.Hour,
		AllowedOrigins:   parseAllowedOrigins(os.Getenv("ALLOWED_ORIGINS")),
		RateLimitWindow:  time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", defaultRateLimitWindowSeconds)) * time.Second,
		StartPerWindow:   envInt("START_RATE_LIMIT", defaultStartPerWindow),
		VerifyPerWindow:  envInt("VERIFY_RATE_LIMIT", defaultVerifyPerWindow),
		SMSProvider:      envOr("SMS_PROVIDER", smsProviderLog),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if cfg.OTPTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL_SECONDS must be positive")
	}
	if cfg.OTPMaxAttempts <= 0 {
		return nil, fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if cfg.StartPerWindow <= 0 || cfg.VerifyPerWindow <= 0 {
		return nil, fmt.Errorf("START_RATE_LIMIT and VERIFY_RATE_LIMIT must be positive")
	}

	switch cfg.SMSProvider {
	case smsProviderLog:
	case smsProviderTwilio:
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
			return nil, fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM are required when SMS_PROVIDER=twilio")
		}
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.SMSProvider)
	}

	return cfg, nil
}

// parseAllowedOrigins splits a comma-separated origin list; empty or "*" means any.
func parseAllowedOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
