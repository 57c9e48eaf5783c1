// Package config loads gridwar's server configuration from environment
// variables using koanf/v2, grounded on the teacher pack's koanf-based
// loader (defaults layer, then env overrides, then validate).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/StoreStation/gridwar/pkg/world"
)

// Config holds the complete gridwar server configuration.
type Config struct {
	Listen  ListenConfig  `koanf:"listen"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	World   WorldConfig   `koanf:"world"`
	Session SessionConfig `koanf:"session"`
	Admin   AdminConfig   `koanf:"admin"`
}

// ListenConfig holds the websocket listener configuration.
type ListenConfig struct {
	// Addr is the websocket listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
	// Path is the HTTP path the websocket endpoint is served on.
	Path string `koanf:"path"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint.
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint.
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
}

// WorldConfig holds world-generation parameters (spec.md §4.1).
type WorldConfig struct {
	Size        int     `koanf:"size"`
	MineDensity float64 `koanf:"mine_density"`
	FlagDensity float64 `koanf:"flag_density"`
	SpawnCount  int     `koanf:"spawn_count"`
	SpawnMargin int     `koanf:"spawn_margin"`
	// Seed is the world generation seed; 0 means "generate one at startup".
	Seed int64 `koanf:"seed"`
}

// ToGenConfig converts the loaded world settings into a
// world.GenConfig for world.Generate.
func (w WorldConfig) ToGenConfig() world.GenConfig {
	return world.GenConfig{
		Size:        w.Size,
		MineDensity: w.MineDensity,
		FlagDensity: w.FlagDensity,
		SpawnCount:  w.SpawnCount,
		SpawnMargin: w.SpawnMargin,
	}
}

// SessionConfig holds the HMAC session-signing configuration.
type SessionConfig struct {
	// Secret is the HMAC key sessions are signed with. If empty at load
	// time, Load generates a random one (spec.md §6: a restart without a
	// persisted secret invalidates every outstanding session, which is
	// accepted behavior, not a bug).
	Secret string `koanf:"secret"`
}

// AdminConfig holds the security-dashboard admin credential.
type AdminConfig struct {
	// Key gates the security-dashboard topic (spec.md §4.9). Empty
	// disables the dashboard entirely.
	Key string `koanf:"key"`
}

// DefaultConfig returns a Config populated with spec.md's defaults.
func DefaultConfig() *Config {
	gen := world.DefaultGenConfig()
	return &Config{
		Listen: ListenConfig{
			Addr: ":8080",
			Path: "/ws",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
		World: WorldConfig{
			Size:        gen.Size,
			MineDensity: gen.MineDensity,
			FlagDensity: gen.FlagDensity,
			SpawnCount:  gen.SpawnCount,
			SpawnMargin: gen.SpawnMargin,
			Seed:        0,
		},
	}
}

// envPrefix is the environment variable prefix for gridwar configuration.
// Variables are named GRIDWAR_<section>_<key>, e.g. GRIDWAR_LISTEN_ADDR.
const envPrefix = "GRIDWAR_"

// Load builds a Config from DefaultConfig overlaid with GRIDWAR_*
// environment variables, generates a session secret if none was
// supplied, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// SESSION_SECRET and ADMIN_KEY are also read without the GRIDWAR_
	// prefix; the prefixed variable wins when both are set.
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	}
	if cfg.Admin.Key == "" {
		cfg.Admin.Key = os.Getenv("ADMIN_KEY")
	}

	if cfg.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// envKeyMapper transforms GRIDWAR_LISTEN_ADDR -> listen.addr.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"listen.addr":         defaults.Listen.Addr,
		"listen.path":         defaults.Listen.Path,
		"metrics.addr":        defaults.Metrics.Addr,
		"metrics.path":        defaults.Metrics.Path,
		"log.level":           defaults.Log.Level,
		"world.size":          defaults.World.Size,
		"world.mine_density":  defaults.World.MineDensity,
		"world.flag_density":  defaults.World.FlagDensity,
		"world.spawn_count":   defaults.World.SpawnCount,
		"world.spawn_margin":  defaults.World.SpawnMargin,
		"world.seed":          defaults.World.Seed,
		"session.secret":      defaults.Session.Secret,
		"admin.key":           defaults.Admin.Key,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	ErrEmptyListenAddr   = errors.New("listen.addr must not be empty")
	ErrInvalidWorldSize  = errors.New("world.size must be > 0")
	ErrInvalidDensity    = errors.New("world density values must be in [0, 1)")
	ErrInvalidSpawnCount = errors.New("world.spawn_count must be > 0")
)

// Validate checks the configuration for logical errors.
func Validate(cfg *Config) error {
	if cfg.Listen.Addr == "" {
		return ErrEmptyListenAddr
	}
	if cfg.World.Size <= 0 {
		return ErrInvalidWorldSize
	}
	if cfg.World.MineDensity < 0 || cfg.World.MineDensity >= 1 || cfg.World.FlagDensity < 0 || cfg.World.FlagDensity >= 1 {
		return ErrInvalidDensity
	}
	if cfg.World.SpawnCount <= 0 {
		return ErrInvalidSpawnCount
	}
	return nil
}

// Seed returns the configured world seed, generating a time-based one
// when unset, mirroring the teacher's "Seed == 0 means random" server
// configuration.
func (c *Config) Seed() int64 {
	if c.World.Seed != 0 {
		return c.World.Seed
	}
	return time.Now().UnixNano()
}
