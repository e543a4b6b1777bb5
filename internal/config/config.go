// Package config loads placement settings from a YAML file, optional .env
// files and MAPPOPUP_* environment variables.
//
// Precedence, lowest first: Defaults, the YAML file, the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/beetlebugorg/mappopup/internal/log"
	"github.com/beetlebugorg/mappopup/pkg/placement"
)

type PlacementConfig struct {
	EdgePadding          float64       `yaml:"edge_padding"`
	CollisionPadding     float64       `yaml:"collision_padding"`
	CollisionOffset      float64       `yaml:"collision_offset"`
	ExtremeZoomMin       int           `yaml:"extreme_zoom_min"`
	ExtremeZoomMax       int           `yaml:"extreme_zoom_max"`
	SmallViewportMinSide float64       `yaml:"small_viewport_min_side"`
	SmallViewportMinArea float64       `yaml:"small_viewport_min_area"`
	MaxClickDistance     float64       `yaml:"max_click_distance"`
	FallbackBoundsMargin float64       `yaml:"fallback_bounds_margin"`
	SlowPlacement        time.Duration `yaml:"slow_placement"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Config is the full configuration document.
type Config struct {
	ConfigVersion int             `yaml:"config_version"`
	Placement     PlacementConfig `yaml:"placement"`
	Cache         CacheConfig     `yaml:"cache"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Env var names used as overrides. Logging overrides share the names read by
// log.FromEnv.
const (
	EnvEdgePadding      = "MAPPOPUP_EDGE_PADDING"
	EnvCollisionPadding = "MAPPOPUP_COLLISION_PADDING"
	EnvCollisionOffset  = "MAPPOPUP_COLLISION_OFFSET"
	EnvMaxClickDistance = "MAPPOPUP_MAX_CLICK_DISTANCE"
	EnvCacheEnabled     = "MAPPOPUP_CACHE_ENABLED"
	EnvCacheTTL         = "MAPPOPUP_CACHE_TTL"
	EnvCacheMaxEntries  = "MAPPOPUP_CACHE_MAX_ENTRIES"
)

// Defaults returns the configuration matching placement.DefaultOptions.
func Defaults() Config {
	o := placement.DefaultOptions()
	return Config{
		ConfigVersion: 1,
		Placement: PlacementConfig{
			EdgePadding:          o.EdgePadding,
			CollisionPadding:     o.CollisionPadding,
			CollisionOffset:      o.CollisionOffset,
			ExtremeZoomMin:       o.ExtremeZoomMin,
			ExtremeZoomMax:       o.ExtremeZoomMax,
			SmallViewportMinSide: o.SmallViewportMinSide,
			SmallViewportMinArea: o.SmallViewportMinArea,
			MaxClickDistance:     o.MaxClickDistance,
			FallbackBoundsMargin: o.FallbackBoundsMargin,
			SlowPlacement:        o.SlowPlacement,
		},
		Cache:   CacheConfig{Enabled: !o.DisableCache, TTL: o.CacheTTL, MaxEntries: o.CacheMaxEntries},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path on top of Defaults, applies environment
// overrides and validates the result. An empty path or a missing file yields
// the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvEdgePadding, &cfg.Placement.EdgePadding},
		{EnvCollisionPadding, &cfg.Placement.CollisionPadding},
		{EnvCollisionOffset, &cfg.Placement.CollisionOffset},
		{EnvMaxClickDistance, &cfg.Placement.MaxClickDistance},
	}
	for _, f := range floats {
		if v := strings.TrimSpace(os.Getenv(f.key)); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvCacheEnabled)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheEnabled, err)
		}
		cfg.Cache.Enabled = b
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheTTL)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		cfg.Cache.TTL = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheMaxEntries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheMaxEntries, err)
		}
		cfg.Cache.MaxEntries = n
	}

	if v := os.Getenv(log.EnvLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(log.EnvFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(log.EnvSource); v != "" {
		cfg.Logging.Source = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(log.EnvFile); v != "" {
		cfg.Logging.File = v
	}
	return nil
}

// Validate reports the first setting that would make placement misbehave.
func (c Config) Validate() error {
	p := c.Placement
	switch {
	case p.EdgePadding < 0:
		return fmt.Errorf("placement.edge_padding must not be negative, got %v", p.EdgePadding)
	case p.CollisionPadding < 0:
		return fmt.Errorf("placement.collision_padding must not be negative, got %v", p.CollisionPadding)
	case p.CollisionOffset <= 0:
		return fmt.Errorf("placement.collision_offset must be positive, got %v", p.CollisionOffset)
	case p.ExtremeZoomMin >= p.ExtremeZoomMax:
		return fmt.Errorf("placement.extreme_zoom_min (%d) must be below extreme_zoom_max (%d)", p.ExtremeZoomMin, p.ExtremeZoomMax)
	case p.MaxClickDistance <= 0:
		return fmt.Errorf("placement.max_click_distance must be positive, got %v", p.MaxClickDistance)
	case p.FallbackBoundsMargin <= 0:
		return fmt.Errorf("placement.fallback_bounds_margin must be positive, got %v", p.FallbackBoundsMargin)
	case c.Cache.Enabled && c.Cache.TTL <= 0:
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled, got %v", c.Cache.TTL)
	case c.Cache.MaxEntries < 0:
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// ToOptions converts the configuration into placement options.
func (c Config) ToOptions() placement.Options {
	p := c.Placement
	return placement.Options{
		EdgePadding:          p.EdgePadding,
		CollisionPadding:     p.CollisionPadding,
		CollisionOffset:      p.CollisionOffset,
		ExtremeZoomMin:       p.ExtremeZoomMin,
		ExtremeZoomMax:       p.ExtremeZoomMax,
		SmallViewportMinSide: p.SmallViewportMinSide,
		SmallViewportMinArea: p.SmallViewportMinArea,
		MaxClickDistance:     p.MaxClickDistance,
		FallbackBoundsMargin: p.FallbackBoundsMargin,
		CacheTTL:             c.Cache.TTL,
		CacheMaxEntries:      c.Cache.MaxEntries,
		DisableCache:         !c.Cache.Enabled,
		SlowPlacement:        p.SlowPlacement,
	}
}

// LogOptions converts the logging section into log.Options.
func (c Config) LogOptions() log.Options {
	return log.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
