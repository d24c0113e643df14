package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Loader builds a Config from defaults, an optional file and environment
// variables, in that order. Tests can override Lookup to inject
// deterministic maps.
type Loader struct {
	Path   string
	Lookup func(string) (string, bool)
}

// Load resolves and validates the configuration. A missing file at Path is
// not an error; the defaults are used.
func (l Loader) Load() (*Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	if strings.TrimSpace(l.Path) == "" {
		if p, ok := l.Lookup("IMGCAPTION_CONFIG"); ok && strings.TrimSpace(p) != "" {
			l.Path = strings.TrimSpace(p)
		}
	}

	cfg := Default()
	if path := strings.TrimSpace(l.Path); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadFromFile(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	overrideString(l.Lookup, "IMGCAPTION_BACKEND", &cfg.Backend.Kind)
	overrideString(l.Lookup, "IMGCAPTION_URL", &cfg.Backend.URL)
	overrideString(l.Lookup, "IMGCAPTION_CAPTION_MODEL", &cfg.Caption.Model)
	overrideString(l.Lookup, "IMGCAPTION_TRANSLATION_MODEL", &cfg.Translation.Model)
	overrideString(l.Lookup, "IMGCAPTION_TARGET_LANGUAGE", &cfg.Translation.TargetLanguage)
	overrideString(l.Lookup, "IMGCAPTION_LOG_LEVEL", &cfg.Log.Level)
	overrideString(l.Lookup, "IMGCAPTION_LOG_FILE", &cfg.Log.File)
	if err := overrideInt(l.Lookup, "IMGCAPTION_TIMEOUT_SECONDS", &cfg.Runner.TimeoutSeconds); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if lookup == nil || target == nil {
		return nil
	}
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	*target = n
	return nil
}
