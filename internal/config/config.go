package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds
const (
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
	BackendStub     = "stub"
)

// Config holds the application configuration
type Config struct {
	Backend     BackendConfig     `json:"backend" yaml:"backend"`
	Caption     CaptionConfig     `json:"caption" yaml:"caption"`
	Translation TranslationConfig `json:"translation" yaml:"translation"`
	Decoder     DecoderConfig     `json:"decoder" yaml:"decoder"`
	Runner      RunnerConfig      `json:"runner" yaml:"runner"`
	UI          UIConfig          `json:"ui" yaml:"ui"`
	Log         LogConfig         `json:"log" yaml:"log"`
}

// BackendConfig selects the model server
type BackendConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	URL  string `json:"url" yaml:"url"`
}

// CaptionConfig holds configuration for the vision model
type CaptionConfig struct {
	Model       string `json:"model" yaml:"model"`
	Prompt      string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	SendFormat  string `json:"send_format" yaml:"send_format"`
	SendSize    int    `json:"send_size" yaml:"send_size"`
	SendQuality int    `json:"send_quality" yaml:"send_quality"`
}

// TranslationConfig holds configuration for the text model
type TranslationConfig struct {
	Model          string `json:"model" yaml:"model"`
	Prompt         string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	SourceLanguage string `json:"source_language" yaml:"source_language"`
	TargetLanguage string `json:"target_language" yaml:"target_language"`
}

// DecoderConfig holds configuration for image loading
type DecoderConfig struct {
	SupportedFormats []string `json:"supported_formats" yaml:"supported_formats"`
	ThumbnailSize    int      `json:"thumbnail_size" yaml:"thumbnail_size"`
}

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// UIConfig holds configuration for the window
type UIConfig struct {
	AppID  string `json:"app_id" yaml:"app_id"`
	Title  string `json:"title" yaml:"title"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// LogConfig holds configuration for logging
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind: BackendOllama,
			URL:  "http://localhost:11434",
		},
		Caption: CaptionConfig{
			Model:       "openbmb/minicpm-v4.5",
			SendFormat:  "jpg",
			SendSize:    1024,
			SendQuality: 85,
		},
		Translation: TranslationConfig{
			Model:          "qwen2.5:7b",
			SourceLanguage: "English",
			TargetLanguage: "Arabic",
		},
		Decoder: DecoderConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png"},
			ThumbnailSize:    350,
		},
		Runner: RunnerConfig{
			TimeoutSeconds: 300,
		},
		UI: UIConfig{
			AppID:  "com.menta2k.image-captioner",
			Title:  "🖼️ Image Caption Generator",
			Width:  720,
			Height: 650,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendOllama, BackendLlamaCpp:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required for %s", c.Backend.Kind)
		}
	case BackendStub:
	default:
		return fmt.Errorf("backend.kind must be one of ollama, llamacpp, stub (got %q)", c.Backend.Kind)
	}

	if c.Backend.Kind != BackendStub {
		if c.Caption.Model == "" {
			return fmt.Errorf("caption.model is required")
		}
		if c.Translation.Model == "" {
			return fmt.Errorf("translation.model is required")
		}
	}

	switch strings.ToLower(c.Caption.SendFormat) {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("caption.send_format must be jpg or png")
	}

	if c.Caption.SendQuality < 1 || c.Caption.SendQuality > 100 {
		return fmt.Errorf("caption.send_quality must be between 1 and 100")
	}

	if c.Caption.SendSize < 0 {
		return fmt.Errorf("caption.send_size must not be negative")
	}

	if len(c.Decoder.SupportedFormats) == 0 {
		return fmt.Errorf("decoder.supported_formats cannot be empty")
	}

	if c.Decoder.ThumbnailSize < 1 {
		return fmt.Errorf("decoder.thumbnail_size must be positive")
	}

	if c.Runner.TimeoutSeconds < 1 {
		return fmt.Errorf("runner.timeout_seconds must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}

	return nil
}

// Timeout returns the per-request deadline
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Runner.TimeoutSeconds) * time.Second
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-captioner", "config.json")
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
