package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// envPrefix namespaces kompow's environment variables.
	envPrefix = "KOMPOW_"
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (KOMPOW_OPENAI_API_KEY, KOMPOW_SERVER_PORT, ...)
//  2. YAML config file
//  3. Defaults
//
// configPath may be empty, in which case only environment variables and
// defaults apply. As a convenience the conventional OPENAI_API_KEY variable
// is honored when no kompow-specific credential is set.
//
// Environment variables map to config fields by splitting on the first
// underscore after the prefix:
//
//	KOMPOW_SERVER_PORT        -> server.port
//	KOMPOW_OPENAI_API_KEY     -> openai.api_key
//	KOMPOW_PIPELINE_MAX_CARDS -> pipeline.max_cards
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// KOMPOW_SECTION_FIELD_NAME -> section.field_name. Sections never
		// contain underscores; field names keep theirs.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFile reads and parses a YAML config file. The file is opened once and
// validated through its descriptor to avoid a TOCTOU race between stat and
// read.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}

// validateConfigFileProperties checks file permissions and size. The config
// file may carry an API key, so group/world-readable files are rejected.
func validateConfigFileProperties(info os.FileInfo) error {
	// Skip permission check on Windows (different permission model).
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm&0o077 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
