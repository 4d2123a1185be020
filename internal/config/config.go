// Package config loads process configuration from the environment and an
// optional config file named by CONFIG_FILE (.env, yaml or json).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendDynamo = "dynamo"
)

type Config struct {
	RunLocal     bool   `mapstructure:"RUN_LOCAL"`
	HTTPAddr     string `mapstructure:"HTTP_ADDR"`
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	AWSRegion           string `mapstructure:"AWS_REGION"`
	AWSEndpointOverride string `mapstructure:"AWS_ENDPOINT_OVERRIDE"`
	CartTable           string `mapstructure:"CART_TABLE"`
	OrdersTable         string `mapstructure:"ORDERS_TABLE"`
	CountersTable       string `mapstructure:"COUNTERS_TABLE"`
	SubmissionsTable    string `mapstructure:"SUBMISSIONS_TABLE"`
	IdempotencyTable    string `mapstructure:"IDEMPOTENCY_TABLE"`
	OrdersQueueURL      string `mapstructure:"ORDERS_QUEUE_URL"`
	MetricsNamespace    string `mapstructure:"METRICS_NAMESPACE"`

	RedisAddr    string        `mapstructure:"REDIS_ADDR"` // empty disables the cart cache
	CartCacheTTL time.Duration `mapstructure:"CART_CACHE_TTL"`

	TaxRate        string        `mapstructure:"TAX_RATE"`
	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"RUN_LOCAL":             false,
	"HTTP_ADDR":             ":8080",
	"STORE_BACKEND":         BackendMemory,
	"AWS_REGION":            "",
	"AWS_ENDPOINT_OVERRIDE": "",
	"CART_TABLE":            "",
	"ORDERS_TABLE":          "",
	"COUNTERS_TABLE":        "",
	"SUBMISSIONS_TABLE":     "",
	"IDEMPOTENCY_TABLE":     "",
	"ORDERS_QUEUE_URL":      "",
	"METRICS_NAMESPACE":     "Nexssio/Storefront",
	"REDIS_ADDR":            "",
	"CART_CACHE_TTL":        "10m",
	"TAX_RATE":              "0.10",
	"IDEMPOTENCY_TTL":       "48h",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"CONFIG_FILE":           "",
}

// Load reads configuration. Environment variables override file values,
// which override defaults.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory:
	case BackendDynamo:
		for name, val := range map[string]string{
			"CART_TABLE":        c.CartTable,
			"ORDERS_TABLE":      c.OrdersTable,
			"COUNTERS_TABLE":    c.CountersTable,
			"SUBMISSIONS_TABLE": c.SubmissionsTable,
			"IDEMPOTENCY_TABLE": c.IdempotencyTable,
		} {
			if val == "" {
				errs = append(errs, fmt.Errorf("%s is required for the dynamo backend", name))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendDynamo, c.StoreBackend))
	}

	if rate, err := decimal.NewFromString(c.TaxRate); err != nil {
		errs = append(errs, fmt.Errorf("TAX_RATE: %w", err))
	} else if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", c.TaxRate))
	}

	if c.CartCacheTTL <= 0 {
		errs = append(errs, errors.New("CART_CACHE_TTL must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Tax returns the validated tax rate.
func (c *Config) Tax() decimal.Decimal {
	return decimal.RequireFromString(c.TaxRate)
}
