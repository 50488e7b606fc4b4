package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/gemini"
	"github.com/xenking/kasir/internal/handler"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (KASIR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; empty runs on the seeded in-memory store" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Store        StoreConfig
	Gemini       GeminiConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StoreConfig describes the shop and its pricing rules.
type StoreConfig struct {
	Name           string `default:"Gemini Mart & Cafe" usage:"Store name"`
	Address        string `default:"Jl. Merdeka No. 123, Jakarta" usage:"Store address"`
	Phone          string `default:"021-5551234" usage:"Store phone"`
	Currency       string `default:"IDR" usage:"ISO currency code"`
	TaxRate        string `default:"11" usage:"Flat tax rate in percent" flag:"tax-rate"`
	PromoThreshold string `default:"50000" usage:"Grand total that unlocks the add-on promo" flag:"promo-threshold"`
}

// GeminiConfig controls the business insight model.
type GeminiConfig struct {
	APIKey  string `usage:"Gemini API key (KASIR_GEMINI_API_KEY or GEMINI_API_KEY)" flag:"gemini-api-key"`
	BaseURL string `default:"https://generativelanguage.googleapis.com/v1beta" usage:"Gemini API base URL"`
	Model   string `default:"gemini-2.0-flash" usage:"Gemini model name"`
}

// RateLimitConfig controls the per-client rate limiter.
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KASIR",
		Files:     []string{"config.yaml", "/etc/kasir/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if _, err := cfg.Cart(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the KASIR_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Cart returns the pricing rules for new carts.
func (c *Config) Cart() (cart.Config, error) {
	tax, err := decimal.NewFromString(c.Store.TaxRate)
	if err != nil {
		return cart.Config{}, errors.Wrapf(err, "parse tax rate %q", c.Store.TaxRate)
	}
	if tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(100)) {
		return cart.Config{}, errors.Errorf("tax rate %s outside [0, 100]", tax)
	}
	threshold, err := decimal.NewFromString(c.Store.PromoThreshold)
	if err != nil {
		return cart.Config{}, errors.Wrapf(err, "parse promo threshold %q", c.Store.PromoThreshold)
	}
	if threshold.IsNegative() {
		return cart.Config{}, errors.Errorf("promo threshold %s is negative", threshold)
	}
	return cart.Config{TaxRate: tax, PromoThreshold: threshold}, nil
}

// Handler returns the HTTP handler configuration.
func (c *Config) Handler(rules cart.Config) handler.Config {
	return handler.Config{
		Store: handler.Store{
			Name:           c.Store.Name,
			Address:        c.Store.Address,
			Phone:          c.Store.Phone,
			Currency:       c.Store.Currency,
			TaxRate:        rules.TaxRate,
			PromoThreshold: rules.PromoThreshold,
		},
		ImageBaseURL: c.ImageBaseURL,
	}
}

// GeminiClient returns the client settings for the insight model.
func (c *Config) GeminiClient() gemini.Config {
	return gemini.Config{
		APIKey:  c.Gemini.APIKey,
		BaseURL: c.Gemini.BaseURL,
		Model:   c.Gemini.Model,
	}
}
