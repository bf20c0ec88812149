package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth modes select the session backend once at startup.
const (
	AuthModeLive = "live"
	AuthModeMock = "mock"
)

// Token store kinds.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Client core.
	APIBaseURL         string        `mapstructure:"API_BASE_URL"`
	APITimeout         time.Duration `mapstructure:"API_TIMEOUT"`
	AuthMode           string        `mapstructure:"AUTH_MODE"`
	TokenStore         string        `mapstructure:"TOKEN_STORE"`
	TokenFile          string        `mapstructure:"TOKEN_FILE"`
	StartupMinDuration time.Duration `mapstructure:"STARTUP_MIN_DURATION"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisTokenDB  int    `mapstructure:"REDIS_TOKEN_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Sandbox API server.
	SandboxPort       string        `mapstructure:"SANDBOX_PORT"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	MongoURL          string        `mapstructure:"MONGO_URL"`
	MongoDB           string        `mapstructure:"MONGO_DB"`
	StripeKey         string        `mapstructure:"STRIPE_KEY"`
	PaymentSuccessURL string        `mapstructure:"PAYMENT_SUCCESS_URL"`
	PaymentCancelURL  string        `mapstructure:"PAYMENT_CANCEL_URL"`
	SettlementDelay   time.Duration `mapstructure:"SETTLEMENT_DELAY"`
	OTPPerMinute      int           `mapstructure:"OTP_PER_MINUTE"`
	// RequestsPerMinute caps sandbox requests per client IP; 0 disables it.
	RequestsPerMinute int           `mapstructure:"REQUESTS_PER_MINUTE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("AUTH_MODE", AuthModeLive)
	v.SetDefault("TOKEN_STORE", TokenStoreFile)
	v.SetDefault("TOKEN_FILE", "")
	v.SetDefault("STARTUP_MIN_DURATION", "2s")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_TOKEN_DB", 0)
	v.SetDefault("REDIS_OTP_DB", 2)
	v.SetDefault("REDIS_QUEUE_DB", 3)

	v.SetDefault("SANDBOX_PORT", "8080")
	v.SetDefault("JWT_SECRET", "samayog-sandbox")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("MONGO_URL", "")
	v.SetDefault("MONGO_DB", "samayog")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("PAYMENT_SUCCESS_URL", "samayog://payment/success")
	v.SetDefault("PAYMENT_CANCEL_URL", "samayog://payment/cancel")
	v.SetDefault("SETTLEMENT_DELAY", "5s")
	v.SetDefault("OTP_PER_MINUTE", 3)
	v.SetDefault("REQUESTS_PER_MINUTE", 120)
}

// Load reads configuration from an optional config.yaml, a .env file and the
// process environment, in increasing order of precedence.
func Load(paths ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var invalid []string
	if strings.TrimSpace(c.APIBaseURL) == "" {
		invalid = append(invalid, "API_BASE_URL")
	}
	if c.APITimeout <= 0 {
		invalid = append(invalid, "API_TIMEOUT")
	}
	switch c.AuthMode {
	case AuthModeLive, AuthModeMock:
	default:
		invalid = append(invalid, "AUTH_MODE")
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreMemory:
	case TokenStoreRedis:
		if c.RedisAddr == "" {
			invalid = append(invalid, "REDIS_ADDR")
		}
	default:
		invalid = append(invalid, "TOKEN_STORE")
	}
	if c.StartupMinDuration < 0 {
		invalid = append(invalid, "STARTUP_MIN_DURATION")
	}
	if c.TokenTTL <= 0 {
		invalid = append(invalid, "TOKEN_TTL")
	}
	if c.SettlementDelay < 0 {
		invalid = append(invalid, "SETTLEMENT_DELAY")
	}
	if c.OTPPerMinute <= 0 {
		invalid = append(invalid, "OTP_PER_MINUTE")
	}
	if c.RequestsPerMinute < 0 {
		invalid = append(invalid, "REQUESTS_PER_MINUTE")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid values for %s", strings.Join(invalid, ", "))
	}
	return nil
}

// IsProduction checks if the environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenFilePath returns the configured token file, defaulting to ~/.samayog/token.
func (c *Config) TokenFilePath() (string, error) {
	if c.TokenFile != "" {
		return c.TokenFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".samayog", "token"), nil
}
