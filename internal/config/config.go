// Package config provides unified configuration loading for pagelight.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagelight/pagelight/internal/domain"
	"github.com/pagelight/pagelight/internal/extract"
	"github.com/pagelight/pagelight/internal/render"
	"github.com/pagelight/pagelight/internal/schedule"
)

// DecodePath names the rendering decode strategies.
const (
	DecodeSafe = "safe"
	DecodeFast = "fast"
)

// Config holds all settings for a reader session.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Render     RenderConfig     `yaml:"render"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExtractionConfig selects the text extraction strategy.
type ExtractionConfig struct {
	Mode         string `yaml:"mode"`          // simple or structured
	StripHeaders bool   `yaml:"strip_headers"` // structured mode only
}

// RenderConfig holds rasterization settings.
type RenderConfig struct {
	ResolutionDPI int    `yaml:"resolution_dpi"` // clamped to [72,220]
	DelayMS       int    `yaml:"delay_ms"`       // tick interval, clamped to [0,1000]
	DecodePath    string `yaml:"decode_path"`    // safe or fast
	CacheCapacity int    `yaml:"cache_capacity"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// SafeDecode reports whether the safe (PNG round-trip) path is selected.
func (r RenderConfig) SafeDecode() bool { return r.DecodePath != DecodeFast }

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Extraction: ExtractionConfig{
			Mode: string(extract.ModeSimple),
		},
		Render: RenderConfig{
			ResolutionDPI: 110,
			DelayMS:       schedule.DefaultIntervalMS,
			DecodePath:    DecodeSafe,
			CacheCapacity: render.DefaultCacheCapacity,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// PAGELIGHT_* environment overrides, then validates and clamps it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, domain.ConfigError(fmt.Sprintf("cannot read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, domain.ConfigError(fmt.Sprintf("cannot parse config file %s", path), err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.Clamp()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PAGELIGHT_EXTRACTION_MODE"); v != "" {
		c.Extraction.Mode = v
	}
	if v := os.Getenv("PAGELIGHT_STRIP_HEADERS"); v != "" {
		c.Extraction.StripHeaders = parseBool(v, c.Extraction.StripHeaders)
	}
	if v := os.Getenv("PAGELIGHT_RESOLUTION_DPI"); v != "" {
		c.Render.ResolutionDPI = parseInt(v, c.Render.ResolutionDPI)
	}
	if v := os.Getenv("PAGELIGHT_RENDER_DELAY_MS"); v != "" {
		c.Render.DelayMS = parseInt(v, c.Render.DelayMS)
	}
	if v := os.Getenv("PAGELIGHT_DECODE_PATH"); v != "" {
		c.Render.DecodePath = v
	}
	if v := os.Getenv("PAGELIGHT_CACHE_CAPACITY"); v != "" {
		c.Render.CacheCapacity = parseInt(v, c.Render.CacheCapacity)
	}
	if v := os.Getenv("PAGELIGHT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PAGELIGHT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate rejects values that clamping cannot repair.
func (c *Config) Validate() error {
	switch extract.Mode(c.Extraction.Mode) {
	case extract.ModeSimple, extract.ModeStructured:
	default:
		return domain.ConfigError(fmt.Sprintf("unknown extraction mode %q", c.Extraction.Mode), nil)
	}
	switch c.Render.DecodePath {
	case DecodeSafe, DecodeFast:
	default:
		return domain.ConfigError(fmt.Sprintf("unknown decode path %q", c.Render.DecodePath), nil)
	}
	return nil
}

// Clamp forces numeric settings into their supported ranges.
func (c *Config) Clamp() {
	c.Render.ResolutionDPI = render.ClampDPI(c.Render.ResolutionDPI)
	c.Render.DelayMS = schedule.ClampInterval(c.Render.DelayMS)
	if c.Render.CacheCapacity <= 0 {
		c.Render.CacheCapacity = render.DefaultCacheCapacity
	}
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return b
}
