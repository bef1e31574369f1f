package marionette

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of a marionette host.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	LogLevel string         `yaml:"logLevel"`
	// Tracks lists track JSON files loaded at startup.
	Tracks []string `yaml:"tracks"`
}

// WindowConfig sizes the window and fixes the tick rate.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	TPS    int    `yaml:"tps"`
}

// RendererConfig configures the renderer and its instrumentation.
type RendererConfig struct {
	ClearColor       [4]float64 `yaml:"clearColor"`
	Debug            bool       `yaml:"debug"`
	ShowStats        bool       `yaml:"showStats"`
	ScreenshotDir    string     `yaml:"screenshotDir"`
	MetricsNamespace string     `yaml:"metricsNamespace"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "marionette",
			Width:  640,
			Height: 480,
			TPS:    60,
		},
		Renderer: RendererConfig{
			ClearColor:       [4]float64{0, 0, 0, 1},
			MetricsNamespace: "marionette",
		},
		LogLevel: "warn",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS <= 0 {
		return fmt.Errorf("config: tps %d must be positive", c.Window.TPS)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
}

// ClearColor returns the renderer clear color.
func (c *Config) ClearColor() Color {
	cc := c.Renderer.ClearColor
	return Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}
}

// RunConfig returns the window settings for Run.
func (c *Config) RunConfig() RunConfig {
	return RunConfig{
		Title:  c.Window.Title,
		Width:  c.Window.Width,
		Height: c.Window.Height,
		TPS:    c.Window.TPS,
	}
}

// Apply configures the package logger, debug mode and s from c.
func (c *Config) Apply(s *Scene) error {
	level, err := c.Level()
	if err != nil {
		return err
	}
	SetLogger(NewLogger(level))
	SetDebugMode(c.Renderer.Debug)
	if s != nil {
		s.ClearColor = c.ClearColor()
		s.ShowStats = c.Renderer.ShowStats
		if c.Renderer.ScreenshotDir != "" {
			s.ScreenshotDir = c.Renderer.ScreenshotDir
		}
	}
	return nil
}
