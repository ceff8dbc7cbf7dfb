// Package config provides YAML-based configuration loading for Zapfield.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Zapfield configuration, loaded from zapfield.yaml.
type Config struct {
	BotName   string          `yaml:"bot_name"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	AI        AIConfig        `yaml:"ai"`
	Engine    EngineConfig    `yaml:"engine"`
}

// TransportConfig selects and configures the chat platform adapter.
type TransportConfig struct {
	Platform string        `yaml:"platform"` // "webhook" or "discord"
	Webhook  WebhookConfig `yaml:"webhook"`
	Discord  DiscordConfig `yaml:"discord"`
}

// WebhookConfig holds settings for the HTTP gateway adapter.
type WebhookConfig struct {
	Port        int    `yaml:"port"`
	OutboundURL string `yaml:"outbound_url"` // gateway endpoint that delivers sends
	SharedToken string `yaml:"shared_token"` // optional bearer token for both directions
}

// DiscordConfig holds settings for the Discord adapter.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"` // default channel for unsolicited sends
}

// DBConfig holds database connection settings. Driver "sqlite" uses Path;
// driver "mysql" uses Host/Port/User/Password/Database.
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// AIConfig holds settings for the language-model integration.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"` // OpenAI-compatible endpoint
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// EngineConfig holds tunables for the conversation engine.
type EngineConfig struct {
	DedupIDTTLSec      int `yaml:"dedup_id_ttl_sec"`
	DedupTextTTLSec    int `yaml:"dedup_text_ttl_sec"`
	DedupSweepSec      int `yaml:"dedup_sweep_sec"`
	HistoryLimit       int `yaml:"history_limit"`
	WelcomeCooldownHrs int `yaml:"welcome_cooldown_hrs"`
}

// DedupIDTTL returns the transport-message-id dedup window.
func (e EngineConfig) DedupIDTTL() time.Duration {
	return time.Duration(e.DedupIDTTLSec) * time.Second
}

// DedupTextTTL returns the (channel, text) dedup window.
func (e EngineConfig) DedupTextTTL() time.Duration {
	return time.Duration(e.DedupTextTTLSec) * time.Second
}

// DedupSweep returns the interval between dedup sweeps.
func (e EngineConfig) DedupSweep() time.Duration {
	return time.Duration(e.DedupSweepSec) * time.Second
}

// WelcomeCooldown returns how long before a returning contact is re-welcomed.
func (e EngineConfig) WelcomeCooldown() time.Duration {
	return time.Duration(e.WelcomeCooldownHrs) * time.Hour
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.BotName == "" {
		c.BotName = "Zapfield"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		c.DB.Path = "zapfield.db"
	}
	if c.DB.Driver == "mysql" {
		if c.DB.Host == "" {
			c.DB.Host = "127.0.0.1"
		}
		if c.DB.Port == 0 {
			c.DB.Port = 3306
		}
		if c.DB.User == "" {
			c.DB.User = "root"
		}
	}
	if c.Transport.Webhook.Port == 0 {
		c.Transport.Webhook.Port = 8090
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.Engine.DedupIDTTLSec == 0 {
		c.Engine.DedupIDTTLSec = 10
	}
	if c.Engine.DedupTextTTLSec == 0 {
		c.Engine.DedupTextTTLSec = 3
	}
	if c.Engine.DedupSweepSec == 0 {
		c.Engine.DedupSweepSec = 30
	}
	if c.Engine.HistoryLimit == 0 {
		c.Engine.HistoryLimit = 20
	}
	if c.Engine.WelcomeCooldownHrs == 0 {
		c.Engine.WelcomeCooldownHrs = 24
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Transport.Platform {
	case "", "webhook", "discord":
	default:
		errs = append(errs, fmt.Sprintf("transport.platform %q is not supported", c.Transport.Platform))
	}
	if c.Transport.Platform == "discord" && c.Transport.Discord.BotToken == "" {
		errs = append(errs, "transport.discord.bot_token is required")
	}
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q is not supported (sqlite or mysql)", c.DB.Driver))
	}
	if c.DB.Driver == "mysql" && c.DB.Database == "" {
		errs = append(errs, "db.database is required for mysql")
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		errs = append(errs, "ai.api_key is required when ai.enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
