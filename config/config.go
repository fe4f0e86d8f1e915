// Package config provides configuration management for the triage engine.
// It supports loading configuration from YAML files with environment
// variable overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
	"github.com/smartsupport/triage-engine/pkg/triage/dispatch"
	"github.com/smartsupport/triage-engine/pkg/triage/redisq"
	"github.com/smartsupport/triage-engine/pkg/triage/storm"
	"github.com/smartsupport/triage-engine/pkg/triage/store"
	"github.com/smartsupport/triage-engine/pkg/triage/worker"
)

// RedisConfig holds connection settings for the intake queue and lock store.
type RedisConfig struct {
	// Addr is the Redis host:port.
	Addr string `yaml:"addr"`
	// QueueKey is the list key holding raw ticket payloads.
	QueueKey string `yaml:"queue_key"`
	// LockTTL bounds the idempotency lock lifetime.
	LockTTL time.Duration `yaml:"lock_ttl"`
}

// ServerConfig holds the ingestion gateway listen address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebhookConfig holds outbound notification settings. An empty URL selects
// the log-only sink.
type WebhookConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level logging.Level `yaml:"level"`
	JSON  bool          `yaml:"json"`
}

// Config is the root configuration for the triage engine.
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	Redis   RedisConfig    `yaml:"redis"`
	Server  ServerConfig   `yaml:"server"`
	Webhook WebhookConfig  `yaml:"webhook"`
	Breaker breaker.Config `yaml:"circuit_breaker"`
	Storm   storm.Config   `yaml:"storm"`
	Worker  worker.Config  `yaml:"worker"`
	Archive store.Config   `yaml:"archive"`
	// Agents is the fixed roster; empty selects the built-in roster.
	Agents []triage.Agent `yaml:"agents"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: logging.LevelInfo, JSON: false},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			QueueKey: redisq.DefaultQueueKey,
			LockTTL:  redisq.DefaultLockTTL,
		},
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8000},
		Webhook: WebhookConfig{Username: "SmartSupport Bot"},
		Breaker: breaker.DefaultConfig(),
		Storm:   storm.DefaultConfig(),
		Worker:  worker.DefaultConfig(),
		Archive: store.DefaultConfig(),
	}
}

// Load reads configuration from the given YAML file (optional) and applies
// environment variable overrides. A missing path loads pure defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variables over file values.
// Environment variables:
//   - REDIS_ADDR: Redis host:port
//   - REDIS_QUEUE_KEY: intake queue list key
//   - SERVER_HOST / SERVER_PORT: gateway listen address
//   - WEBHOOK_URL: notification webhook endpoint
//   - URGENCY_ALERT_THRESHOLD: high-urgency notification threshold
//   - STORM_WINDOW_SECONDS / STORM_TICKET_THRESHOLD: volume gate tuning
//   - LOG_LEVEL: debug, info, warn, error
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_QUEUE_KEY"); v != "" {
		c.Redis.QueueKey = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("URGENCY_ALERT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Worker.UrgencyAlertThreshold = f
		}
	}
	if v := os.Getenv("STORM_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storm.WindowSeconds = n
		}
	}
	if v := os.Getenv("STORM_TICKET_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storm.VolumeThreshold = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = logging.Level(v)
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty")
	}
	if c.Breaker.LowThreshold >= c.Breaker.HighThreshold {
		return fmt.Errorf("circuit_breaker.low_threshold must be below high_threshold")
	}
	if c.Storm.VolumeThreshold <= 0 {
		return fmt.Errorf("storm.volume_threshold must be positive")
	}
	if c.Worker.UrgencyAlertThreshold < 0 || c.Worker.UrgencyAlertThreshold > 1 {
		return fmt.Errorf("worker.urgency_alert_threshold must be in [0,1]")
	}
	for _, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent with empty id in roster")
		}
		if a.Capacity <= 0 {
			return fmt.Errorf("agent %s: capacity must be positive", a.ID)
		}
	}
	return nil
}

// Roster returns the configured roster, or the built-in default when none
// is configured.
func (c *Config) Roster() []triage.Agent {
	if len(c.Agents) > 0 {
		return c.Agents
	}
	return dispatch.DefaultRoster()
}
