package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (WORKSHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string        `env:"DATABASE_URL" usage:"PostgreSQL connection URL (WORKSHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TaxRate        string        `env:"TAX_RATE" default:"" usage:"VAT percentage used when the settings table has no vat_rate" flag:"tax-rate"`
	SessionTTL     time.Duration `env:"SESSION_TTL" default:"2h" usage:"Idle time after which an open sale is discarded" flag:"session-ttl"`
	CatalogRefresh time.Duration `env:"CATALOG_REFRESH" default:"1m" usage:"Interval between catalog filter rebuilds" flag:"catalog-refresh"`
	Throttle       int           `default:"256" usage:"Maximum in-flight API requests"`
	Receipt        ReceiptConfig
	Graceful       GracefulConfig
}

// ReceiptConfig controls the thermal receipt sink.
type ReceiptConfig struct {
	Header string `default:"WORKSHOP" usage:"First line printed on every receipt"`
	Dir    string `default:"" usage:"Directory receipts are written to; empty logs them instead"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads an optional .env file, then configuration from environment
// variables, YAML config files and the command-line args, and applies
// platform-specific defaults.
func LoadConfig(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "WORKSHOP",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/workshop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set WORKSHOP_DATABASE_URL or DATABASE_URL")
	}
	if c.CatalogRefresh <= 0 {
		return errors.Errorf("catalog refresh interval must be positive, got %s", c.CatalogRefresh)
	}
	if c.Throttle <= 0 {
		return errors.Errorf("throttle must be positive, got %d", c.Throttle)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's WORKSHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
