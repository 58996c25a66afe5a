package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fredo994/coinbase-feed/internal/feed"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// ScraperConfig is the root configuration for the scraper.
type ScraperConfig struct {
	Feed         FeedConfig         `yaml:"feed"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Output       OutputConfig       `yaml:"output"`
	Redis        RedisConfig        `yaml:"redis"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
}

// FeedConfig selects the feed endpoint.
type FeedConfig struct {
	Environment      string        `yaml:"environment"` // "production" or "sandbox"
	URL              string        `yaml:"url"`         // Overrides environment when set
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// SubscriptionConfig is the initial subscription.
type SubscriptionConfig struct {
	ProductIDs []string        `yaml:"product_ids"`
	Channels   []ChannelConfig `yaml:"channels"`
}

// ChannelConfig is a channel entry, either a bare name or a mapping with
// product_ids. A nil ProductIDs means the channel is not restricted.
type ChannelConfig struct {
	Name       string
	ProductIDs []string
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (c *ChannelConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = ChannelConfig{Name: node.Value}
		return nil

	case yaml.MappingNode:
		// node.Decode does not inherit the strict decoder setting.
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Value != "name" && key.Value != "product_ids" {
				return fmt.Errorf("line %d: field %s not found in channel", key.Line, key.Value)
			}
		}
		var raw struct {
			Name       string    `yaml:"name"`
			ProductIDs *[]string `yaml:"product_ids"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*c = ChannelConfig{Name: raw.Name}
		if raw.ProductIDs != nil {
			c.ProductIDs = *raw.ProductIDs
			if c.ProductIDs == nil {
				c.ProductIDs = []string{}
			}
		}
		return nil
	}
	return fmt.Errorf("line %d: channel must be a name or a mapping", node.Line)
}

// ToSpec converts the entry into a protocol.ChannelSpec.
func (c ChannelConfig) ToSpec() (protocol.ChannelSpec, error) {
	name, err := protocol.ParseChannelName(c.Name)
	if err != nil {
		return protocol.ChannelSpec{}, err
	}
	if c.ProductIDs == nil {
		return protocol.Channel(name), nil
	}
	return protocol.ChannelFor(name, c.ProductIDs...), nil
}

// OutputConfig holds file sink settings.
type OutputConfig struct {
	Disabled      bool          `yaml:"disabled"`
	Directory     string        `yaml:"directory"`
	Events        []string      `yaml:"events"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RedisConfig holds Redis pub/sub sink settings. The sink is disabled when
// Addr is empty.
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	ChannelPrefix  string        `yaml:"channel_prefix"`
	Events         []string      `yaml:"events"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// FeedURL returns the configured endpoint.
func (c *ScraperConfig) FeedURL() string {
	if c.Feed.URL != "" {
		return c.Feed.URL
	}
	if c.Feed.Environment == EnvSandbox {
		return feed.SandboxURL
	}
	return feed.ProductionURL
}

// Channels converts the configured channels into protocol specs.
func (c *ScraperConfig) Channels() ([]protocol.ChannelSpec, error) {
	specs := make([]protocol.ChannelSpec, 0, len(c.Subscription.Channels))
	for i, ch := range c.Subscription.Channels {
		spec, err := ch.ToSpec()
		if err != nil {
			return nil, fmt.Errorf("subscription.channels[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// SlogLevel returns the configured log level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
