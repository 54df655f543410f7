package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	APIBaseURL         string        `mapstructure:"API_BASE_URL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RemoteCallTimeout  time.Duration `mapstructure:"REMOTE_CALL_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestBodySize int64         `mapstructure:"MAX_REQUEST_BODY_SIZE"`

	ShippingFee    string        `mapstructure:"SHIPPING_FEE"`
	RedirectTarget string        `mapstructure:"REDIRECT_TARGET"`
	RedirectDelay  time.Duration `mapstructure:"REDIRECT_DELAY"`

	// CHECKOUT_ITEMS_BUDGET bounds the per-item calls that follow order creation.
	CheckoutItemsBudget time.Duration `mapstructure:"CHECKOUT_ITEMS_BUDGET"`

	BreakerMaxFailures uint32        `mapstructure:"BREAKER_MAX_FAILURES"`
	BreakerOpenTimeout time.Duration `mapstructure:"BREAKER_OPEN_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	OutboxTopic  string `mapstructure:"OUTBOX_TOPIC"`
}

var defaults = map[string]any{
	"HTTP_PORT":             "8080",
	"LOG_LEVEL":             "info",
	"API_BASE_URL":          "https://antaresapi-production-006d.up.railway.app/api",
	"REQUEST_TIMEOUT":       30 * time.Second,
	"REMOTE_CALL_TIMEOUT":   5 * time.Second,
	"SHUTDOWN_TIMEOUT":      10 * time.Second,
	"MAX_REQUEST_BODY_SIZE": 1 << 20, // 1MB
	"SHIPPING_FEE":          "10000",
	"REDIRECT_TARGET":       "/",
	"REDIRECT_DELAY":        5 * time.Second,
	"CHECKOUT_ITEMS_BUDGET": 20 * time.Second,
	"BREAKER_MAX_FAILURES":  5,
	"BREAKER_OPEN_TIMEOUT":  30 * time.Second,
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"DB_HOST":               "localhost",
	"DB_PORT":               5432,
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "postgres",
	"DB_NAME":               "ecommerce",
	"MIGRATIONS_PATH":       "./internal/repository/migrations",
	"KAFKA_BROKERS":         "localhost:9092",
	"OUTBOX_TOPIC":          "order-placed",
}

// Load reads configuration from the environment, optionally overlaid on an env-format file.
// A missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_FEE %q: %w", c.ShippingFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative, got %s", c.ShippingFee)
	}
	if c.RemoteCallTimeout <= 0 {
		return errors.New("REMOTE_CALL_TIMEOUT must be positive")
	}
	if c.RedirectDelay < 0 {
		return errors.New("REDIRECT_DELAY must not be negative")
	}
	if c.CheckoutItemsBudget <= 0 {
		return errors.New("CHECKOUT_ITEMS_BUDGET must be positive")
	}
	return nil
}

// WriteTimeout covers the slowest checkout: order creation within REQUEST_TIMEOUT, then the
// per-item budget, plus a margin for completion and writing the response.
func (c *Config) WriteTimeout() time.Duration {
	return c.RequestTimeout + c.CheckoutItemsBudget + writeMargin
}

const writeMargin = 5 * time.Second

// ShippingFeeAmount returns the validated shipping fee.
func (c *Config) ShippingFeeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.ShippingFee)
}

func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
