package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	File      string          `envconfig:"CONFIG_FILE" yaml:"-" toml:"-"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc" toml:"grpc"`
	Device    DeviceConfig    `yaml:"device" toml:"device"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	MaxConnections  int           `envconfig:"MAX_CONNECTIONS" default:"256" yaml:"max_connections" toml:"max_connections"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"-"`
}

// GRPCConfig holds the health service configuration.
type GRPCConfig struct {
	Port    string `envconfig:"GRPC_PORT" default:"50061" yaml:"port" toml:"port"`
	Enabled bool   `envconfig:"GRPC_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// DeviceConfig describes the device the module registers.
type DeviceConfig struct {
	Name        string `envconfig:"DEVICE_NAME" default:"char_drv" yaml:"name" toml:"name"`
	Capacity    int    `envconfig:"DEVICE_CAPACITY" default:"80" yaml:"capacity" toml:"capacity"`
	ReadMode    string `envconfig:"DEVICE_READ_MODE" default:"drain" yaml:"read_mode" toml:"read_mode"`
	MaxSessions int    `envconfig:"DEVICE_MAX_SESSIONS" default:"16" yaml:"max_sessions" toml:"max_sessions"`
	MajorBase   uint32 `envconfig:"DEVICE_MAJOR_BASE" default:"240" yaml:"major_base" toml:"major_base"`
	MajorCount  uint32 `envconfig:"DEVICE_MAJOR_COUNT" default:"15" yaml:"major_count" toml:"major_count"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
	RingSize    int    `envconfig:"LOG_RING_SIZE" default:"16384" yaml:"ring_size" toml:"ring_size"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
	// GlobalRequestsPerSecond caps the whole server regardless of client.
	// Zero disables the global limiter.
	GlobalRequestsPerSecond int `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0" yaml:"global_rps" toml:"global_rps"`
}

// Load loads configuration from environment variables, overlays CONFIG_FILE
// when set, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.File != "" {
		if err := cfg.Overlay(cfg.File); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			MaxConnections:  256,
			ShutdownTimeout: 10 * time.Second,
		},
		GRPC: GRPCConfig{
			Port:    "50061",
			Enabled: true,
		},
		Device: DeviceConfig{
			Name:        "char_drv",
			Capacity:    channel.DefaultCapacity,
			ReadMode:    channel.ReadDrain.String(),
			MaxSessions: device.DefaultMaxSessions,
			MajorBase:   240,
			MajorCount:  15,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			RingSize:    16 * 1024,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects configurations the device module cannot load.
func (c *Config) Validate() error {
	d := c.Device
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: device name is empty", ErrInvalid)
	}
	if d.Capacity <= 0 {
		return fmt.Errorf("%w: device capacity %d", ErrInvalid, d.Capacity)
	}
	if _, err := channel.ParseReadMode(d.ReadMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	last := uint64(d.MajorBase) + uint64(d.MajorCount) - 1
	if d.MajorCount == 0 || d.MajorBase < 1 || last > device.MaxMajor {
		return fmt.Errorf("%w: major range [%d, %d]", ErrInvalid, d.MajorBase, last)
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 {
		return fmt.Errorf("%w: global rate %d", ErrInvalid, c.RateLimit.GlobalRequestsPerSecond)
	}
	return nil
}

// Module converts the device section into a module configuration.
func (d DeviceConfig) Module() (device.ModuleConfig, error) {
	mode, err := channel.ParseReadMode(d.ReadMode)
	if err != nil {
		return device.ModuleConfig{}, err
	}
	return device.ModuleConfig{
		Name:        d.Name,
		Capacity:    d.Capacity,
		ReadMode:    mode,
		MaxSessions: d.MaxSessions,
		MajorBase:   d.MajorBase,
		MajorCount:  d.MajorCount,
	}, nil
}
