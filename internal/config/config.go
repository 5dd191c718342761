// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

// Package config loads guard configuration from YAML files and flags.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/doorkeep/doorkeep/internal/auth"
)

// Defaults applied when a value is absent from both file and flags.
const (
	DefaultGuardName  = "session"
	DefaultLogFormat  = "json"
	DefaultBcryptCost = auth.DefaultBcryptCost
)

// GuardEntry configures one named guard.
type GuardEntry struct {
	Driver   string `koanf:"driver"`
	Provider string `koanf:"provider"`
}

// ProviderEntry configures one named provider.
type ProviderEntry struct {
	Entity string `koanf:"entity"`
}

// Database holds connection settings.
type Database struct {
	URL string `koanf:"url"`
}

// Hashing holds password hashing settings.
type Hashing struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

// Log holds logging settings.
type Log struct {
	Format string `koanf:"format"`
}

// Config is the full static configuration: the guard map plus the ambient
// settings around it. Loaded once at process start, immutable thereafter.
type Config struct {
	Default   string                   `koanf:"default"`
	Guards    map[string]GuardEntry    `koanf:"guards"`
	Providers map[string]ProviderEntry `koanf:"providers"`
	Database  Database                 `koanf:"database"`
	Hashing   Hashing                  `koanf:"hashing"`
	Log       Log                      `koanf:"log"`
}

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command-local and never reach the configuration.
var flagKeys = map[string]string{
	"database-url":  "database.url",
	"bcrypt-cost":   "hashing.bcrypt_cost",
	"log-format":    "log.format",
	"default-guard": "default",
}

// Load reads configuration with file < flags precedence. path may be empty
// (flags and defaults only); flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Default == "" {
		c.Default = DefaultGuardName
	}
	if c.Guards == nil {
		c.Guards = map[string]GuardEntry{
			DefaultGuardName: {Driver: string(auth.DriverSession), Provider: "users"},
		}
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderEntry{
			"users": {Entity: "users"},
		}
	}
	if c.Hashing.BcryptCost == 0 {
		c.Hashing.BcryptCost = DefaultBcryptCost
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks structural and referential invariants: the default guard
// must exist, and every guard's provider name must resolve to a provider
// entry.
func (c *Config) Validate() error {
	if _, ok := c.Guards[c.Default]; !ok {
		return oops.Code("CONFIG_INVALID").
			With("default", c.Default).
			Errorf("default guard %q is not defined", c.Default)
	}

	for name, guard := range c.Guards {
		if guard.Driver == "" {
			return oops.Code("CONFIG_INVALID").
				With("guard", name).
				Errorf("guard %q has no driver", name)
		}
		if guard.Provider == "" {
			return oops.Code("CONFIG_INVALID").
				With("guard", name).
				Errorf("guard %q has no provider", name)
		}
		if _, ok := c.Providers[guard.Provider]; !ok {
			return oops.Code("CONFIG_INVALID").
				With("guard", name).
				With("provider", guard.Provider).
				Errorf("guard %q references undefined provider %q", name, guard.Provider)
		}
	}

	for name, provider := range c.Providers {
		if provider.Entity == "" {
			return oops.Code("CONFIG_INVALID").
				With("provider", name).
				Errorf("provider %q has no entity", name)
		}
	}

	if c.Hashing.BcryptCost < auth.MinBcryptCost || c.Hashing.BcryptCost > auth.MaxBcryptCost {
		return oops.Code("CONFIG_INVALID").
			With("bcrypt_cost", c.Hashing.BcryptCost).
			Errorf("bcrypt cost %d is out of range [%d, %d]", c.Hashing.BcryptCost, auth.MinBcryptCost, auth.MaxBcryptCost)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// AuthConfig converts the guard map into the auth package's configuration.
func (c *Config) AuthConfig() auth.Config {
	guards := make(map[string]auth.GuardConfig, len(c.Guards))
	for name, guard := range c.Guards {
		guards[name] = auth.GuardConfig{
			Driver:   auth.Driver(guard.Driver),
			Provider: guard.Provider,
		}
	}

	providers := make(map[string]auth.ProviderConfig, len(c.Providers))
	for name, provider := range c.Providers {
		providers[name] = auth.ProviderConfig{Entity: provider.Entity}
	}

	return auth.Config{
		Default:   c.Default,
		Guards:    guards,
		Providers: providers,
	}
}
