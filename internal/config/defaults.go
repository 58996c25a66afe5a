package config

import "time"

// Feed environments.
const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

// Default values for optional configuration fields.
const (
	DefaultEnvironment      = EnvProduction
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultOutputDirectory  = "data"
	DefaultFlushInterval    = 1 * time.Second
	DefaultChannelPrefix    = "coinbase"
	DefaultPublishTimeout   = 1 * time.Second
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *ScraperConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.Environment == "" {
		c.Feed.Environment = DefaultEnvironment
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}

	// Output defaults
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDirectory
	}
	if c.Output.FlushInterval == 0 {
		c.Output.FlushInterval = DefaultFlushInterval
	}

	// Redis defaults
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = DefaultChannelPrefix
	}
	if c.Redis.PublishTimeout == 0 {
		c.Redis.PublishTimeout = DefaultPublishTimeout
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
