package config

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/ShotMark/internal/editor"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the whole configuration file
type Config struct {
	LogLevel             string       `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Display              string       `json:"display" yaml:"display" mapstructure:"display"`
	SavedScreenshotsPath string       `json:"saved_screenshots_path" yaml:"saved_screenshots_path" mapstructure:"saved_screenshots_path"`
	HistoryDatabase      string       `json:"history_database" yaml:"history_database" mapstructure:"history_database"`
	PostCaptureActions   []string     `json:"post_capture_actions" yaml:"post_capture_actions" mapstructure:"post_capture_actions"`
	FallbackResolution   Resolution   `json:"fallback_resolution" yaml:"fallback_resolution" mapstructure:"fallback_resolution"`
	Editor               EditorConfig `json:"editor" yaml:"editor" mapstructure:"editor"`
}

// Resolution is a screen size
type Resolution struct {
	Width  int `json:"width" yaml:"width" mapstructure:"width"`
	Height int `json:"height" yaml:"height" mapstructure:"height"`
}

// Point converts the resolution to an image.Point
func (r Resolution) Point() image.Point {
	return image.Pt(r.Width, r.Height)
}

// EditorConfig holds the drawing defaults
type EditorConfig struct {
	LineWidth         float64 `json:"line_width" yaml:"line_width" mapstructure:"line_width"`
	PixelateBlockSize int     `json:"pixelate_block_size" yaml:"pixelate_block_size" mapstructure:"pixelate_block_size"`
	BlurRadius        int     `json:"blur_radius" yaml:"blur_radius" mapstructure:"blur_radius"`
	BubbleRadius      float64 `json:"bubble_radius" yaml:"bubble_radius" mapstructure:"bubble_radius"`
	Font              string  `json:"font" yaml:"font" mapstructure:"font"`
	PrimaryColour     string  `json:"primary_colour" yaml:"primary_colour" mapstructure:"primary_colour"`
	SecondaryColour   string  `json:"secondary_colour" yaml:"secondary_colour" mapstructure:"secondary_colour"`
}

// Settings converts the editor section to stack settings and colours
func (e EditorConfig) Settings() (editor.Settings, model.Colour, model.Colour, error) {
	font, err := editor.ParseFontDescription(e.Font)
	if err != nil {
		return editor.Settings{}, model.Colour{}, model.Colour{}, err
	}
	primary, err := model.ParseColour(e.PrimaryColour)
	if err != nil {
		return editor.Settings{}, model.Colour{}, model.Colour{}, fmt.Errorf("editor.primary_colour: %w", err)
	}
	secondary, err := model.ParseColour(e.SecondaryColour)
	if err != nil {
		return editor.Settings{}, model.Colour{}, model.Colour{}, fmt.Errorf("editor.secondary_colour: %w", err)
	}

	settings := editor.Settings{
		LineWidth:         e.LineWidth,
		PixelateBlockSize: e.PixelateBlockSize,
		BlurRadius:        e.BlurRadius,
		BubbleRadius:      e.BubbleRadius,
		Font:              font,
	}
	return settings, primary, secondary, nil
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager. An empty configFile uses
// $HOME/.config/shotmark/config.yaml, which is created with defaults when
// missing. SHOTMARK_* environment variables override file values.
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	actualConfigPath := filepath.Join(homeDir, ".config", "shotmark", "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	}

	v := viper.New()
	v.SetConfigFile(actualConfigPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHOTMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, homeDir)

	m := &Manager{
		configPath: actualConfigPath,
		v:          v,
	}

	if _, err := os.Stat(actualConfigPath); os.IsNotExist(err) {
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config loaded")

	return m, nil
}

// setDefaults registers the default for every known key
func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault("log_level", "info")
	v.SetDefault("display", "")
	v.SetDefault("saved_screenshots_path", filepath.Join(homeDir, "Pictures", "shotmark"))
	v.SetDefault("history_database", filepath.Join(homeDir, ".local", "share", "shotmark", "history.db"))
	v.SetDefault("post_capture_actions", []string{"save-to-disk"})
	v.SetDefault("fallback_resolution.width", editor.FallbackWidth)
	v.SetDefault("fallback_resolution.height", editor.FallbackHeight)

	settings := editor.DefaultSettings()
	v.SetDefault("editor.line_width", settings.LineWidth)
	v.SetDefault("editor.pixelate_block_size", settings.PixelateBlockSize)
	v.SetDefault("editor.blur_radius", settings.BlurRadius)
	v.SetDefault("editor.bubble_radius", settings.BubbleRadius)
	v.SetDefault("editor.font", settings.Font.String())
	v.SetDefault("editor.primary_colour", model.Black.Hex())
	v.SetDefault("editor.secondary_colour", model.Transparent.Hex())
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		logger.WithComponent("config").Error().Err(err).Msg("Failed to decode config, using defaults")
		homeDir, _ := os.UserHomeDir()
		d := viper.New()
		setDefaults(d, homeDir)
		_ = d.Unmarshal(&cfg)
	}
	return &cfg
}

// GetViper exposes the underlying viper instance for key based access
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	cfg := m.Get()

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return nil
}

// Set parses value for key and stores it. Call Save to persist.
func (m *Manager) Set(key, value string) error {
	var parsed interface{}

	switch key {
	case "log_level":
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[value] {
			return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", value)
		}
		parsed = value
	case "fallback_resolution.width", "fallback_resolution.height",
		"editor.pixelate_block_size", "editor.blur_radius":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid number: %s", value)
		}
		parsed = n
	case "editor.line_width", "editor.bubble_radius":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid number: %s", value)
		}
		parsed = f
	case "editor.primary_colour", "editor.secondary_colour":
		c, err := model.ParseColour(value)
		if err != nil {
			return err
		}
		parsed = c.Hex()
	case "editor.font":
		desc, err := editor.ParseFontDescription(value)
		if err != nil {
			return err
		}
		parsed = desc.String()
	case "post_capture_actions":
		var ids []string
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		parsed = ids
	case "display", "saved_screenshots_path", "history_database":
		parsed = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	m.mu.Lock()
	m.v.Set(key, parsed)
	m.mu.Unlock()
	return nil
}

// GetLogLevel gets the log level
func (m *Manager) GetLogLevel() string {
	return m.Get().LogLevel
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}
