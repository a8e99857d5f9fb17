package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Environment    string `default:"production" usage:"Runtime environment: development enables verbose error bodies"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	PasswordPepper string `usage:"Pepper appended to passwords before hashing (SHOP_PASSWORD_PEPPER)" flag:"password-pepper"`
	Token          TokenConfig
	Fees           FeesConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// TokenConfig controls bearer-token session lifetime.
type TokenConfig struct {
	TTL time.Duration `default:"720h" usage:"Session token lifetime"`
}

// FeesConfig holds the flat amounts added to every order at placement.
type FeesConfig struct {
	Tax      string `default:"0" usage:"Flat tax amount added per order"`
	Shipping string `default:"0" usage:"Flat shipping amount added per order"`
}

// TaxAmount parses the configured tax fee.
func (f FeesConfig) TaxAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(f.Tax)
}

// ShippingAmount parses the configured shipping fee.
func (f FeesConfig) ShippingAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(f.Shipping)
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Verbose reports whether error responses should carry debug detail.
func (c *Config) Verbose() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if _, err := cfg.Fees.TaxAmount(); err != nil {
		return nil, errors.Wrap(err, "parse tax fee")
	}
	if _, err := cfg.Fees.ShippingAmount(); err != nil {
		return nil, errors.Wrap(err, "parse shipping fee")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the SHOP_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
