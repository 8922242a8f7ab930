// Package config provides the configuration schema, loader, and provider
// registry for the mediation app.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	App          AppConfig           `yaml:"app"`
	Providers    ProvidersConfig     `yaml:"providers"`
	Voice        VoiceConfig         `yaml:"voice"`
	Participants []ParticipantConfig `yaml:"participants"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	// LLM selects the model backend powering the mediator ("openai" or
	// "ollama").
	LLM ProviderEntry `yaml:"llm"`

	// STT selects the speech-to-text backend ("whisper").
	STT ProviderEntry `yaml:"stt"`

	// Diarize selects the speaker-diarization backend ("pyannote"). Optional:
	// without it voice recordings degrade to single-speaker mode.
	Diarize ProviderEntry `yaml:"diarize"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any. Leave
	// empty to resolve from the environment at startup.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "llama3").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// VoiceConfig holds capture settings for voice recordings.
type VoiceConfig struct {
	// Enabled turns the voice pipeline on. When false the app is text-only
	// and no capture device is opened.
	Enabled bool `yaml:"enabled"`

	// MaxRecordSeconds caps a single recording. 0 means the default (60).
	MaxRecordSeconds int `yaml:"max_record_seconds"`

	// SampleRate in Hz for microphone capture. 0 means the default (16000).
	SampleRate int `yaml:"sample_rate"`

	// TempDir overrides where intermediate WAV artifacts are written.
	// Empty means the system temp directory.
	TempDir string `yaml:"temp_dir"`
}

// ParticipantConfig pre-seeds one of the two named participants. When both
// are present the session skips its placeholder phase.
type ParticipantConfig struct {
	// Name is the participant's display name.
	Name string `yaml:"name"`

	// Color is an optional display token for the rendering surface.
	Color string `yaml:"color"`
}
