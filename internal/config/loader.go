package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":     {"openai", "ollama"},
	"stt":     {"whisper"},
	"diarize": {"pyannote"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.App.LogLevel != "" && !cfg.App.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("app.log_level %q is invalid; valid values: debug, info, warn, error", cfg.App.LogLevel))
	}

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required; the mediator cannot run without a model backend"))
	}
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("diarize", cfg.Providers.Diarize.Name)

	if cfg.Voice.Enabled && cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("voice.enabled requires providers.stt to be configured"))
	}
	if cfg.Voice.Enabled && cfg.Providers.Diarize.Name == "" {
		slog.Warn("voice is enabled without a diarize provider; recordings will be treated as a single speaker")
	}
	if cfg.Voice.MaxRecordSeconds < 0 {
		errs = append(errs, fmt.Errorf("voice.max_record_seconds %d must not be negative", cfg.Voice.MaxRecordSeconds))
	}
	if cfg.Voice.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("voice.sample_rate %d must not be negative", cfg.Voice.SampleRate))
	}

	switch len(cfg.Participants) {
	case 0:
		// Fine: the session starts with placeholder names.
	case 2:
		a, b := cfg.Participants[0], cfg.Participants[1]
		if a.Name == "" || b.Name == "" {
			errs = append(errs, errors.New("participants[].name is required"))
		}
		if a.Name != "" && a.Name == b.Name {
			errs = append(errs, fmt.Errorf("participant names must differ, both are %q", a.Name))
		}
	default:
		errs = append(errs, fmt.Errorf("participants must list exactly 0 or 2 entries, got %d", len(cfg.Participants)))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
