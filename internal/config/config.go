package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/john/livefeed/internal/cooldown"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Viewer ViewerConfig `yaml:"viewer"`
	Feed   FeedConfig   `yaml:"feed"`
	Chat   ChatConfig   `yaml:"chat"`
	Ingest IngestConfig `yaml:"ingest"`
	Bridge BridgeConfig `yaml:"bridge"`
	Twitch TwitchConfig `yaml:"twitch"`
	Kick   KickConfig   `yaml:"kick"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"LIVEFEED_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"LIVEFEED_SHUTDOWN_TIMEOUT"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LIVEFEED_LOG_LEVEL"`
}

// ViewerConfig is the identity used for messages typed locally
type ViewerConfig struct {
	Name   string `yaml:"name"   env:"LIVEFEED_VIEWER_NAME"`
	Avatar string `yaml:"avatar" env:"LIVEFEED_VIEWER_AVATAR"`
}

// FeedConfig holds feed store configuration
type FeedConfig struct {
	Capacity           int `yaml:"capacity"             env:"LIVEFEED_FEED_CAPACITY"`
	LikeBurstWindowMS  int `yaml:"like_burst_window_ms"`
	LikeBurstThreshold int `yaml:"like_burst_threshold"`
}

// ChatConfig holds local input rules
type ChatConfig struct {
	// CooldownSeconds is the wait after a local send; zero disables it
	CooldownSeconds int      `yaml:"cooldown_seconds" env:"LIVEFEED_COOLDOWN_SECONDS"`
	MaxLength       int      `yaml:"max_length"`
	ForbiddenWords  []string `yaml:"forbidden_words"  env:"LIVEFEED_FORBIDDEN_WORDS" envSeparator:","`
	NoticeTTLMS     int      `yaml:"notice_ttl_ms"`
}

// IngestConfig controls how externally sourced messages are treated
type IngestConfig struct {
	SanitizeExternal        bool `yaml:"sanitize_external"         env:"LIVEFEED_SANITIZE_EXTERNAL"`
	ExternalCooldownSeconds int  `yaml:"external_cooldown_seconds" env:"LIVEFEED_EXTERNAL_COOLDOWN_SECONDS"`
}

// BridgeConfig holds cross-window bridge configuration
type BridgeConfig struct {
	Enabled        bool     `yaml:"enabled"         env:"LIVEFEED_BRIDGE_ENABLED"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"LIVEFEED_BRIDGE_ORIGINS" envSeparator:","`
}

// TwitchConfig holds Twitch-specific configuration
type TwitchConfig struct {
	Enabled       bool   `yaml:"enabled"        env:"TWITCH_ENABLED"`
	Username      string `yaml:"username"       env:"TWITCH_BOT_USERNAME"`
	OAuth         string `yaml:"oauth"          env:"TWITCH_ACCESS_TOKEN"`
	Channel       string `yaml:"channel"        env:"TWITCH_CHANNEL"`
	ClientID      string `yaml:"client_id"      env:"TWITCH_CLIENT_ID"`
	DefaultAvatar string `yaml:"default_avatar"`
}

// KickConfig holds Kick-specific configuration
type KickConfig struct {
	Enabled  bool                `yaml:"enabled" env:"KICK_ENABLED"`
	Channels []KickChannelConfig `yaml:"channels"`
	Avatar   string              `yaml:"avatar"`
}

// KickChannelConfig is a Kick channel with an optional pre-resolved chatroom ID
type KickChannelConfig struct {
	Slug       string `yaml:"slug"`
	ChatroomID int    `yaml:"chatroom_id"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Log:    LogConfig{Level: "info"},
		Viewer: ViewerConfig{Name: "You"},
		Feed: FeedConfig{
			Capacity:           100,
			LikeBurstWindowMS:  5000,
			LikeBurstThreshold: 5,
		},
		Chat: ChatConfig{
			CooldownSeconds: cooldown.DefaultSeconds,
			MaxLength:       200,
			NoticeTTLMS:     2000,
		},
		Ingest: IngestConfig{
			SanitizeExternal:        true,
			ExternalCooldownSeconds: 1,
		},
	}
}

// Load loads configuration from a file. A missing file leaves the defaults in
// place; environment variables are applied on top either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Unmarshal over the defaults so omitted keys keep their default values
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields for every enabled producer
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Feed.Capacity <= 0 {
		return fmt.Errorf("feed.capacity must be positive")
	}
	if c.Chat.CooldownSeconds < 0 || c.Ingest.ExternalCooldownSeconds < 0 {
		return fmt.Errorf("cooldown seconds must not be negative")
	}

	if c.Twitch.Enabled {
		if c.Twitch.Username == "" {
			return fmt.Errorf("twitch.username is required (or set TWITCH_BOT_USERNAME env var)")
		}
		if c.Twitch.OAuth == "" {
			return fmt.Errorf("twitch.oauth is required (or set TWITCH_ACCESS_TOKEN env var)")
		}
		if c.Twitch.Channel == "" {
			return fmt.Errorf("twitch.channel is required (or set TWITCH_CHANNEL env var)")
		}
	}

	if c.Kick.Enabled {
		if len(c.Kick.Channels) == 0 {
			return fmt.Errorf("at least one kick channel is required when kick is enabled")
		}
		for i, ch := range c.Kick.Channels {
			if ch.Slug == "" {
				return fmt.Errorf("kick.channels[%d].slug is required", i)
			}
		}
	}

	return nil
}

// PlatformEnabled reports whether any external chat platform client is on
func (c *Config) PlatformEnabled() bool {
	return c.Twitch.Enabled || c.Kick.Enabled
}

// NoticeTTL returns the system notice lifetime
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.Chat.NoticeTTLMS) * time.Millisecond
}

// LikeBurstWindow returns the sliding window for the like multiplier
func (c *Config) LikeBurstWindow() time.Duration {
	return time.Duration(c.Feed.LikeBurstWindowMS) * time.Millisecond
}
