package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	// Backend
	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:4000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`

	// Embedding runtime
	EmbeddingRuntimeURL string `envconfig:"EMBEDDING_RUNTIME_URL" default:"http://localhost:8600"`
	EmbeddingDim        int    `envconfig:"EMBEDDING_DIM" default:"192"`

	// Credential storage
	StoreType      string `envconfig:"STORE_TYPE" default:"bolt"`
	StorePath      string `envconfig:"STORE_PATH" default:"credential.db"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisNamespace string `envconfig:"REDIS_NAMESPACE" default:"veriface"`

	// Device identity
	DeviceFingerprint string `envconfig:"DEVICE_FINGERPRINT" required:"true"`
	InstallSecret     string `envconfig:"INSTALL_SECRET" required:"true"`
	InstallationID    string `envconfig:"INSTALLATION_ID" default:""`

	// Capture loop
	TickPeriod    time.Duration `envconfig:"CAPTURE_TICK_PERIOD" default:"1500ms"`
	InitialDelay  time.Duration `envconfig:"CAPTURE_INITIAL_DELAY" default:"300ms"`
	SettleDelay   time.Duration `envconfig:"CAPTURE_SETTLE_DELAY" default:"1200ms"`
	DetectTimeout time.Duration `envconfig:"DETECT_TIMEOUT" default:"2s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
