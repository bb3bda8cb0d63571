package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL      = "15m"
	defaultRefreshTTL        = "720h"
	defaultPaymentWindow     = "15m"
	defaultSweepInterval     = "60s"
	defaultVerifyCodeTTL     = "5m"
	defaultResetCodeTTL      = "10m"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultVerifyCodePepper  = "change-me-verification-pepper"
	defaultGatewaySecret     = "change-me-gateway-secret"
	defaultGatewayBaseURL    = "https://sandbox.gateway.example/pay"
	defaultGatewayCurrency   = "VND"
	defaultGatewayLocale     = "vn"
	defaultGatewayOrderType  = "other"
	defaultGatewayReturnPath = "/api/v1/payments/return"
)

// RuntimeConfig holds everything the process reads from the environment.
type RuntimeConfig struct {
	AppEnv      string
	DatabaseURL string
	ListenAddr  string

	JWTSecret    string
	JWTAccessTTL time.Duration
	RefreshTTL   time.Duration

	// PaymentWindow is how long a pending booking may stay unpaid before
	// the sweeper cancels it.
	PaymentWindow time.Duration
	SweepInterval time.Duration

	VerificationCodePepper string
	VerifyCodeTTL          time.Duration
	ResetCodeTTL           time.Duration

	GatewayMerchantCode string
	GatewaySecret       string
	GatewayBaseURL      string
	GatewayReturnURL    string
	GatewayCurrency     string
	GatewayLocale       string
	GatewayOrderType    string
}

func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "stayhub.db"))
	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", ":8080"))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.VerificationCodePepper = strings.TrimSpace(getEnv("VERIFICATION_CODE_PEPPER", defaultVerifyCodePepper))

	cfg.GatewayMerchantCode = strings.TrimSpace(os.Getenv("GATEWAY_MERCHANT_CODE"))
	cfg.GatewaySecret = strings.TrimSpace(getEnv("GATEWAY_SECRET", defaultGatewaySecret))
	cfg.GatewayBaseURL = strings.TrimSpace(getEnv("GATEWAY_BASE_URL", defaultGatewayBaseURL))
	cfg.GatewayReturnURL = strings.TrimSpace(getEnv("GATEWAY_RETURN_URL", defaultGatewayReturnPath))
	cfg.GatewayCurrency = strings.TrimSpace(getEnv("GATEWAY_CURRENCY", defaultGatewayCurrency))
	cfg.GatewayLocale = strings.TrimSpace(getEnv("GATEWAY_LOCALE", defaultGatewayLocale))
	cfg.GatewayOrderType = strings.TrimSpace(getEnv("GATEWAY_ORDER_TYPE", defaultGatewayOrderType))

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.PaymentWindow, err = parseDurationEnv("PAYMENT_WINDOW", defaultPaymentWindow); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.VerifyCodeTTL, err = parseDurationEnv("VERIFY_CODE_TTL", defaultVerifyCodeTTL); err != nil {
		return nil, err
	}
	if cfg.ResetCodeTTL, err = parseDurationEnv("RESET_CODE_TTL", defaultResetCodeTTL); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *RuntimeConfig) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= cfg.JWTAccessTTL {
		return fmt.Errorf("REFRESH_TTL must exceed JWT_ACCESS_TTL")
	}
	if cfg.PaymentWindow <= 0 {
		return fmt.Errorf("PAYMENT_WINDOW must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if cfg.VerifyCodeTTL <= 0 || cfg.ResetCodeTTL <= 0 {
		return fmt.Errorf("VERIFY_CODE_TTL and RESET_CODE_TTL must be > 0")
	}
	if cfg.GatewayBaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.GatewaySecret, defaultGatewaySecret) {
			return fmt.Errorf("in prod/release GATEWAY_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.VerificationCodePepper, defaultVerifyCodePepper) {
			return fmt.Errorf("in prod/release VERIFICATION_CODE_PEPPER must be set and not default")
		}
		if cfg.GatewayMerchantCode == "" {
			return fmt.Errorf("in prod/release GATEWAY_MERCHANT_CODE must be set")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
