package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fredo994/coinbase-feed/internal/sink"
)

// Validate checks that all required fields are set and values are valid.
func (c *ScraperConfig) Validate() error {
	if c.Feed.URL != "" {
		u, err := url.Parse(c.Feed.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("feed.url must be a ws:// or wss:// URL, got %q", c.Feed.URL)
		}
	} else if c.Feed.Environment != EnvProduction && c.Feed.Environment != EnvSandbox {
		return fmt.Errorf("feed.environment must be %q or %q, got %q", EnvProduction, EnvSandbox, c.Feed.Environment)
	}

	if len(c.Subscription.Channels) == 0 {
		return errors.New("subscription.channels must not be empty")
	}
	if _, err := c.Channels(); err != nil {
		return err
	}
	for i, id := range c.Subscription.ProductIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("subscription.product_ids[%d] is empty", i)
		}
	}

	if !c.Output.Disabled {
		if _, err := sink.ParseEvents(c.Output.Events); err != nil {
			return fmt.Errorf("output.events: %w", err)
		}
	}
	if c.Redis.Addr != "" {
		if _, err := sink.ParseEvents(c.Redis.Events); err != nil {
			return fmt.Errorf("redis.events: %w", err)
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
