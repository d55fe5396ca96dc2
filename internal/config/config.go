// Package config loads eyedropper settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ironsheep/eyedropper-mcp/internal/logging"
	"github.com/ironsheep/eyedropper-mcp/internal/magnifier"
)

// Capture sources.
const (
	SourceFile    = "file"
	SourceScreen  = "screen"
	SourceBrowser = "browser"
)

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Capture   CaptureConfig   `mapstructure:"capture"`
	Viewport  ViewportConfig  `mapstructure:"viewport"`
	Magnifier MagnifierConfig `mapstructure:"magnifier"`
	Clipboard bool            `mapstructure:"clipboard"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type CaptureConfig struct {
	Source     string `mapstructure:"source"`
	Path       string `mapstructure:"path"`
	URL        string `mapstructure:"url"`
	ControlURL string `mapstructure:"control_url"`
	Display    int    `mapstructure:"display"`
}

// ViewportConfig is the virtual host geometry. Zero width/height means
// "size of the captured surface".
type ViewportConfig struct {
	Width            int     `mapstructure:"width"`
	Height           int     `mapstructure:"height"`
	DevicePixelRatio float64 `mapstructure:"device_pixel_ratio"`
}

type MagnifierConfig struct {
	Enabled bool `mapstructure:"enabled"`

	magnifier.Options `mapstructure:",squash"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Capture: CaptureConfig{
			Source: SourceFile,
		},
		Viewport: ViewportConfig{
			DevicePixelRatio: 1,
		},
		Magnifier: MagnifierConfig{
			Enabled: true,
			Options: magnifier.DefaultOptions(),
		},
	}
}

// Load reads the config file (or eyedropper.yaml from the default search
// path) and EYEDROPPER_* environment variables over the defaults.
func Load(cfgFile string) (*Config, error) {
	v, err := read(cfgFile)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads the config like Load and, when a config file was found,
// calls onChange with every valid revision written to it afterwards.
// Invalid revisions are logged and skipped.
func Watch(cfgFile string, onChange func(*Config)) (*Config, error) {
	v, err := read(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(changeHandler(v, onChange))
		v.WatchConfig()
	}
	return cfg, nil
}

func changeHandler(v *viper.Viper, onChange func(*Config)) func(fsnotify.Event) {
	log := logging.L("config")
	return func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			log.Warn("ignoring config change", "file", e.Name, logging.KeyError, err)
			return
		}
		log.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	}
}

func read(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("eyedropper")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("EYEDROPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv registers every key so AutomaticEnv can see nested values that
// no config file mentions.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"log_level", "log_format", "clipboard",
		"capture.source", "capture.path", "capture.url", "capture.control_url", "capture.display",
		"viewport.width", "viewport.height", "viewport.device_pixel_ratio",
		"magnifier.enabled", "magnifier.zoom", "magnifier.radius",
		"magnifier.ring_color", "magnifier.ring_width", "magnifier.readout",
		"metrics.addr",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate rejects settings no session could run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Capture.Source {
	case SourceFile:
		// The path may also be supplied per session.
	case SourceScreen:
		if c.Capture.Display < 0 {
			errs = append(errs, fmt.Errorf("capture.display must be >= 0, got %d", c.Capture.Display))
		}
	case SourceBrowser:
		if c.Capture.URL == "" {
			errs = append(errs, errors.New("capture.url is required for the browser source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown capture.source %q", c.Capture.Source))
	}

	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		errs = append(errs, fmt.Errorf("viewport size must not be negative, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Viewport.DevicePixelRatio < 0 {
		errs = append(errs, fmt.Errorf("viewport.device_pixel_ratio must not be negative, got %g", c.Viewport.DevicePixelRatio))
	}
	if c.Magnifier.Zoom < 0 || c.Magnifier.Radius < 0 || c.Magnifier.RingWidth < 0 {
		errs = append(errs, errors.New("magnifier zoom, radius and ring_width must not be negative"))
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "eyedropper")
	}
	return "."
}
