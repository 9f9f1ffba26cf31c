package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9000"`

	// Empty addresses disable the matching sink.
	RedisAddr  string `env:"REDIS_ADDR"`
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`
	GRPCServer string `env:"GRPC_SERVER"`
	ProxyAddr  string `env:"PROXY_ADDR"`

	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"10m"`
	EventBuffer int           `env:"EVENT_BUFFER" envDefault:"64"`

	DeviceID string `env:"DEVICE_ID"`

	// Speed violations are registered at startup when both are set.
	SpeedLimitKmH     float64 `env:"SPEED_LIMIT_KMH"`
	SpeedLimitTimeout int     `env:"SPEED_LIMIT_TIMEOUT"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.EventBuffer < 0 {
		return fmt.Errorf("EVENT_BUFFER must not be negative, got %d", cfg.EventBuffer)
	}
	if cfg.SnapshotTTL < 0 {
		return fmt.Errorf("SNAPSHOT_TTL must not be negative, got %v", cfg.SnapshotTTL)
	}
	if cfg.SpeedLimitKmH < 0 || cfg.SpeedLimitTimeout < 0 {
		return fmt.Errorf("speed limit settings must not be negative")
	}
	return nil
}

// SpeedViolationsEnabled reports whether both speed limit settings are present.
func (c Config) SpeedViolationsEnabled() bool {
	return c.SpeedLimitKmH > 0 && c.SpeedLimitTimeout > 0
}
