package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendOllama, cfg.Backend.Kind)
	assert.Equal(t, []string{"jpg", "jpeg", "png"}, cfg.Decoder.SupportedFormats)
	assert.Equal(t, 350, cfg.Decoder.ThumbnailSize)
	assert.Equal(t, 5*time.Minute, cfg.Timeout())
	assert.Equal(t, "Arabic", cfg.Translation.TargetLanguage)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend.Kind = "openai" }},
		{"missing url", func(c *Config) { c.Backend.URL = "" }},
		{"missing caption model", func(c *Config) { c.Caption.Model = "" }},
		{"missing translation model", func(c *Config) { c.Translation.Model = "" }},
		{"bad send format", func(c *Config) { c.Caption.SendFormat = "gif" }},
		{"bad quality", func(c *Config) { c.Caption.SendQuality = 0 }},
		{"negative send size", func(c *Config) { c.Caption.SendSize = -1 }},
		{"no formats", func(c *Config) { c.Decoder.SupportedFormats = nil }},
		{"zero thumbnail", func(c *Config) { c.Decoder.ThumbnailSize = 0 }},
		{"zero timeout", func(c *Config) { c.Runner.TimeoutSeconds = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	stub := Default()
	stub.Backend = BackendConfig{Kind: BackendStub}
	stub.Caption.Model = ""
	assert.NoError(t, stub.Validate())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Backend = BackendConfig{Kind: BackendLlamaCpp, URL: "http://gpu-box:8080"}
			cfg.Runner.TimeoutSeconds = 42
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  kind: stub\nlog:\n  level: debug\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendStub, cfg.Backend.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 350, cfg.Decoder.ThumbnailSize)
	assert.Equal(t, 300, cfg.Runner.TimeoutSeconds)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Loader{
		Path:   filepath.Join(t.TempDir(), "absent.json"),
		Lookup: lookupFrom(nil),
	}.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoaderEnvOverrides(t *testing.T) {
	cfg, err := Loader{Lookup: lookupFrom(map[string]string{
		"IMGCAPTION_BACKEND":           "llamacpp",
		"IMGCAPTION_URL":               " http://127.0.0.1:8080 ",
		"IMGCAPTION_CAPTION_MODEL":     "minicpm",
		"IMGCAPTION_TRANSLATION_MODEL": "aya",
		"IMGCAPTION_TIMEOUT_SECONDS":   "60",
		"IMGCAPTION_LOG_LEVEL":         "",
	})}.Load()
	require.NoError(t, err)
	assert.Equal(t, BackendLlamaCpp, cfg.Backend.Kind)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Backend.URL)
	assert.Equal(t, "minicpm", cfg.Caption.Model)
	assert.Equal(t, "aya", cfg.Translation.Model)
	assert.Equal(t, 60, cfg.Runner.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoaderConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":{"kind":"stub"}}`), 0o644))

	cfg, err := Loader{Lookup: lookupFrom(map[string]string{"IMGCAPTION_CONFIG": path})}.Load()
	require.NoError(t, err)
	assert.Equal(t, BackendStub, cfg.Backend.Kind)
}

func TestLoaderRejectsInvalid(t *testing.T) {
	_, err := Loader{Lookup: lookupFrom(map[string]string{"IMGCAPTION_TIMEOUT_SECONDS": "soon"})}.Load()
	assert.Error(t, err)

	_, err = Loader{Lookup: lookupFrom(map[string]string{"IMGCAPTION_BACKEND": "cloud"})}.Load()
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
