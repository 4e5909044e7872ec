// Package config loads strictflux settings from defaults, an optional YAML or
// TOML file and STRICTFLUX_* environment variables, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/strictflux/internal/debug"
)

// EnvPrefix is the prefix of environment overrides. The first underscore
// after the prefix separates the section from the key:
//
//	STRICTFLUX_DEBUG_UNUSED_TIMEOUT=10s  →  debug.unused_timeout
//	STRICTFLUX_DEBUG_TYPES=TODO_ADD,TODO_CLEAR
const EnvPrefix = "STRICTFLUX_"

// Config is the full settings tree.
type Config struct {
	Debug   debug.Config  `koanf:"debug"`
	Journal JournalConfig `koanf:"journal"`
}

// JournalConfig configures the dispatch journal. An empty Path disables it.
type JournalConfig struct {
	Path string `koanf:"path"`
}

// Defaults returns the built-in settings as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"debug.all":            false,
		"debug.types":          []string{},
		"debug.sources":        []string{},
		"debug.unused":         false,
		"debug.unused_timeout": debug.DefaultUnusedTimeout.String(),
		"journal.path":         "",
	}
}

// Load reads settings. path may be empty; otherwise its extension selects the
// parser (.yaml, .yml or .toml).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. File
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// envKey maps STRICTFLUX_DEBUG_UNUSED_TIMEOUT to debug.unused_timeout.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) validate() error {
	if c.Debug.UnusedTimeout < time.Millisecond {
		return fmt.Errorf("debug.unused_timeout must be at least 1ms, got %s", c.Debug.UnusedTimeout)
	}
	return nil
}

// Apply installs the debug settings process-wide.
func (c *Config) Apply() {
	debug.SetConfig(c.Debug)
}
