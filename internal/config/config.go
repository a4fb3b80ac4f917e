// Package config holds the typed pipeline configuration consumed by the
// engine, plus an optional JSON config-file layer that mirrors the teacher
// proxy's load-then-validate-defaults pattern. CLI flags (parsed by
// cmd/m3uclean, out of the core's scope per the specification) populate a
// Config value directly; a JSON file is only a convenience for supplying
// defaults ahead of flag overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config carries every knob the engine needs to run one cleaning pass.
type Config struct {
	Sources          []string      `json:"sources"`
	Dest             string        `json:"dest"`
	Timeout          time.Duration `json:"timeout"`
	MaxConcurrency   int           `json:"maxConcurrency"`
	MaxPerHost       int           `json:"maxPerHost"`
	ProbesPerSecond  int           `json:"probesPerSecond"`
	Dedup            bool          `json:"dedup"`
	SkipValidation   bool          `json:"skipValidation"`
	Merge            bool          `json:"merge"`
	Split            bool          `json:"split"`
	Verbose          bool          `json:"verbose"`
	ObfuscateURLs    bool          `json:"obfuscateUrls"`
	DiagAddr         string        `json:"diagAddr"`
	NormalizeCacheAt int           `json:"normalizeCacheAt"`
}

// ConfigFile is the on-disk JSON shape; durations are strings (e.g. "10s")
// so the file stays human-editable.
type ConfigFile struct {
	Sources          []string `json:"sources"`
	Dest             string   `json:"dest"`
	Timeout          string   `json:"timeout"`
	MaxConcurrency   int      `json:"maxConcurrency"`
	MaxPerHost       int      `json:"maxPerHost"`
	ProbesPerSecond  int      `json:"probesPerSecond"`
	Dedup            *bool    `json:"dedup"`
	SkipValidation   bool     `json:"skipValidation"`
	Merge            bool     `json:"merge"`
	Split            bool     `json:"split"`
	Verbose          bool     `json:"verbose"`
	ObfuscateURLs    bool     `json:"obfuscateUrls"`
	DiagAddr         string   `json:"diagAddr"`
	NormalizeCacheAt int      `json:"normalizeCacheAt"`
}

// Default returns a Config with the defaults from spec.md §6.
func Default() Config {
	return Config{
		Timeout:          10 * time.Second,
		MaxConcurrency:   10,
		MaxPerHost:       0,
		ProbesPerSecond:  0,
		Dedup:            true,
		NormalizeCacheAt: 2000,
	}
}

// Load reads a JSON config file and layers it over Default(), returning the
// merged Config. A missing file is not an error — callers typically pass an
// optional "-config" flag and should treat os.IsNotExist specially if they
// want to warn the user; Load itself just falls back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file ConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if len(file.Sources) > 0 {
		cfg.Sources = file.Sources
	}
	if file.Dest != "" {
		cfg.Dest = file.Dest
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeout %q: %w", file.Timeout, err)
		}
		cfg.Timeout = d
	}
	if file.MaxConcurrency > 0 {
		cfg.MaxConcurrency = file.MaxConcurrency
	}
	if file.MaxPerHost > 0 {
		cfg.MaxPerHost = file.MaxPerHost
	}
	if file.ProbesPerSecond > 0 {
		cfg.ProbesPerSecond = file.ProbesPerSecond
	}
	if file.Dedup != nil {
		cfg.Dedup = *file.Dedup
	}
	cfg.SkipValidation = file.SkipValidation
	cfg.Merge = file.Merge
	cfg.Split = file.Split
	cfg.Verbose = file.Verbose
	cfg.ObfuscateURLs = file.ObfuscateURLs
	cfg.DiagAddr = file.DiagAddr
	if file.NormalizeCacheAt > 0 {
		cfg.NormalizeCacheAt = file.NormalizeCacheAt
	}

	ValidateAndSetDefaults(&cfg)
	return cfg, nil
}

// ValidateAndSetDefaults clamps and fills in safe values, mirroring the
// teacher config's validateAndSetDefaults: no field is ever left at a value
// that would make the pipeline misbehave silently.
func ValidateAndSetDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.MaxConcurrency = ClampConcurrency(cfg.MaxConcurrency)
	if cfg.MaxPerHost < 0 {
		cfg.MaxPerHost = 0
	}
	if cfg.ProbesPerSecond < 0 {
		cfg.ProbesPerSecond = 0
	}
	if cfg.NormalizeCacheAt <= 0 {
		cfg.NormalizeCacheAt = 2000
	}
}

// ClampConcurrency enforces the [1, 50] bound from spec.md §4.5.
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// ParseDedupFlag interprets the "-rd" flag's false spellings from spec.md §6.
func ParseDedupFlag(s string) bool {
	switch s {
	case "false", "f", "0", "no":
		return false
	default:
		return true
	}
}
