package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override adjusts a loaded config before validation, e.g. from a CLI flag.
type Override func(*ScraperConfig)

// WithOutputDirectory overrides output.directory when dir is not empty.
func WithOutputDirectory(dir string) Override {
	return func(c *ScraperConfig) {
		if dir != "" {
			c.Output.Directory = dir
		}
	}
}

// Load opens path and decodes it with Decode.
func Load(path string) (*ScraperConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a YAML document, expands ${VAR} references and decodes it
// strictly. A misspelled key is an error rather than a silently empty
// subscription. An empty document yields a zero config.
func Decode(r io.Reader) (*ScraperConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)

	var cfg ScraperConfig
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads path, fills unset fields and applies overrides in
// order.
func LoadWithDefaults(path string, overrides ...Override) (*ScraperConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	for _, o := range overrides {
		o(cfg)
	}
	return cfg, nil
}

// LoadAndValidate is LoadWithDefaults followed by Validate, so overrides
// are validated like file values.
func LoadAndValidate(path string, overrides ...Override) (*ScraperConfig, error) {
	cfg, err := LoadWithDefaults(path, overrides...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
