// Package config loads the track definition and location filter settings.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/amanmaurya7/f1-map/internal/geo"
	"github.com/amanmaurya7/f1-map/internal/projection"
	"github.com/amanmaurya7/f1-map/internal/tracking"
)

//go:embed track.yaml
var defaultYAML []byte

// EnvPrefix namespaces environment overrides: RACEMAP_TRACK_CANVAS_WIDTH → track.canvas.width.
const EnvPrefix = "RACEMAP"

// Config holds the map and tracking configuration.
type Config struct {
	Track    TrackConfig           `mapstructure:"track" yaml:"track"`
	Filter   tracking.FilterConfig `mapstructure:"filter" yaml:"filter"`
	Tracking TrackingConfig        `mapstructure:"tracking" yaml:"tracking"`
}

type TrackConfig struct {
	Name    string             `mapstructure:"name" yaml:"name" validate:"required"`
	Canvas  Canvas             `mapstructure:"canvas" yaml:"canvas"`
	Bounds  geo.Bounds         `mapstructure:"bounds" yaml:"bounds"`
	Padding projection.Padding `mapstructure:"padding" yaml:"padding"`
	Points  []PointConfig      `mapstructure:"points" yaml:"points" validate:"min=1,dive"`
}

// Canvas is the logical size of the map image.
type Canvas struct {
	Width  float64 `mapstructure:"width" yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `mapstructure:"height" yaml:"height" json:"height" validate:"gt=0"`
}

// PointConfig is a point of interest with its optional padding override.
// Overrides live on the point because viper lowercases map keys.
type PointConfig struct {
	geo.LabeledPoint `mapstructure:",squash" yaml:",inline"`
	Padding          *projection.Override `mapstructure:"padding" yaml:"padding,omitempty"`
}

type TrackingConfig struct {
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay" validate:"gt=0"`
	Autostart  bool          `mapstructure:"autostart" yaml:"autostart"`
}

// Load reads the embedded defaults, merges path over them when set, then
// applies environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("read default config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
	return cfg
}

// Validate checks struct constraints and the projection invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := projection.New(c.Projection()); err != nil {
		return err
	}
	return nil
}

// Projection builds the projector configuration for the track.
func (c *Config) Projection() projection.Config {
	pc := projection.Config{
		Bounds:    c.Track.Bounds,
		Padding:   c.Track.Padding,
		Overrides: make(map[string]projection.Override),
		Points:    make([]geo.LabeledPoint, 0, len(c.Track.Points)),
	}
	for _, p := range c.Track.Points {
		pc.Points = append(pc.Points, p.LabeledPoint)
		if p.Padding != nil {
			pc.Overrides[p.Label] = *p.Padding
		}
	}
	return pc
}

// TrackerOptions returns the tracker settings without clock or logger.
func (c *Config) TrackerOptions() tracking.Options {
	return tracking.Options{
		Filter:     c.Filter,
		Bounds:     c.Track.Bounds,
		RetryDelay: c.Tracking.RetryDelay,
	}
}
