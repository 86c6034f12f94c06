package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"gopkg.in/yaml.v3"
)

// Present modes accepted in the renderer section.
const (
	PresentModeVSync    = "vsync"
	PresentModeUncapped = "uncapped"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete engine configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Engine   EngineConfig   `yaml:"engine"`
	Graph    GraphConfig    `yaml:"graph"`
}

// WindowConfig contains window settings
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig contains graphics device settings
type RendererConfig struct {
	PresentMode   string `yaml:"present_mode"` // vsync, uncapped
	ForceSoftware bool   `yaml:"force_software"`
}

// EngineConfig contains frame loop settings
type EngineConfig struct {
	TickRate      float64 `yaml:"tick_rate"`      // engine ticks per second
	FrameLimit    float64 `yaml:"frame_limit"`    // max render frames per second, 0 = uncapped
	Profiling     bool    `yaml:"profiling"`
	FeederWorkers int     `yaml:"feeder_workers"` // worker pool size for per-frame feeders
}

// GraphConfig contains values fed into the render graph each frame
type GraphConfig struct {
	ClearColor []float64 `yaml:"clear_color"` // r, g, b, a in [0, 1]
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-graph",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: PresentModeVSync,
		},
		Engine: EngineConfig{
			TickRate:      60,
			FeederWorkers: 4,
		},
		Graph: GraphConfig{
			ClearColor: []float64{0.1, 0.1, 0.12, 1},
		},
	}
}

// Load reads and parses a YAML configuration file.
// Keys missing from the file keep their Default values.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the parsed and validated configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed and validated configuration
//   - error: error if the document cannot be parsed or validated
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize fills zeroed fields back in from the defaults.
func (c *Config) normalize() {
	def := Default()
	c.Window.Title = common.Coalesce(c.Window.Title, def.Window.Title)
	c.Renderer.PresentMode = strings.ToLower(common.Coalesce(c.Renderer.PresentMode, def.Renderer.PresentMode))
	c.Engine.TickRate = common.Coalesce(c.Engine.TickRate, def.Engine.TickRate)
	c.Engine.FeederWorkers = common.Coalesce(c.Engine.FeederWorkers, def.Engine.FeederWorkers)
	if len(c.Graph.ClearColor) == 0 {
		c.Graph.ClearColor = def.Graph.ClearColor
	}
}

// Validate reports the first invalid setting.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.PresentMode {
	case PresentModeVSync, PresentModeUncapped:
	default:
		return fmt.Errorf("%w: present_mode %q (want %q or %q)", ErrInvalidConfig, c.Renderer.PresentMode, PresentModeVSync, PresentModeUncapped)
	}
	if c.Engine.TickRate < 0 || c.Engine.FrameLimit < 0 {
		return fmt.Errorf("%w: negative tick_rate or frame_limit", ErrInvalidConfig)
	}
	if c.Engine.FeederWorkers < 1 {
		return fmt.Errorf("%w: feeder_workers %d", ErrInvalidConfig, c.Engine.FeederWorkers)
	}
	if len(c.Graph.ClearColor) != 4 {
		return fmt.Errorf("%w: clear_color needs 4 components, got %d", ErrInvalidConfig, len(c.Graph.ClearColor))
	}
	for _, v := range c.Graph.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color component %v outside [0, 1]", ErrInvalidConfig, v)
		}
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
