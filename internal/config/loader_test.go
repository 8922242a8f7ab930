package config

import (
	"strings"
	"testing"
)

const validYAML = `
app:
  log_level: info
providers:
  llm:
    name: openai
    model: gpt-4o
  stt:
    name: whisper
    base_url: http://localhost:8080
  diarize:
    name: pyannote
voice:
  enabled: true
  max_record_seconds: 60
  sample_rate: 16000
participants:
  - name: Sam
    color: "#1f77b4"
  - name: Alex
    color: "#ff7f0e"
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.App.LogLevel != LogInfo {
		t.Errorf("log level = %q, want info", cfg.App.LogLevel)
	}
	if cfg.Providers.LLM.Name != "openai" || cfg.Providers.LLM.Model != "gpt-4o" {
		t.Errorf("llm entry = %+v", cfg.Providers.LLM)
	}
	if cfg.Providers.STT.BaseURL != "http://localhost:8080" {
		t.Errorf("stt base url = %q", cfg.Providers.STT.BaseURL)
	}
	if !cfg.Voice.Enabled || cfg.Voice.MaxRecordSeconds != 60 {
		t.Errorf("voice = %+v", cfg.Voice)
	}
	if len(cfg.Participants) != 2 || cfg.Participants[0].Name != "Sam" {
		t.Errorf("participants = %+v", cfg.Participants)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
providers:
  llm:
    name: openai
bogus_field: true
`
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected unknown top-level field to be rejected")
	}
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("providers: [")); err == nil {
		t.Fatal("expected malformed YAML to fail")
	}
}

func TestValidate_MissingLLMProvider(t *testing.T) {
	cfg := &Config{}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected an error without a model backend")
	}
	if !strings.Contains(err.Error(), "providers.llm.name") {
		t.Errorf("error = %v, want the missing field named", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{LogLevel: "verbose"},
		Providers: ProvidersConfig{LLM: ProviderEntry{Name: "openai"}},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "app.log_level") {
		t.Errorf("error = %v, want an app.log_level failure", err)
	}
}

func TestValidate_VoiceWithoutSTT(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{LLM: ProviderEntry{Name: "ollama"}},
		Voice:     VoiceConfig{Enabled: true},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "providers.stt") {
		t.Errorf("error = %v, want an stt requirement failure", err)
	}
}

func TestValidate_ParticipantCount(t *testing.T) {
	base := ProvidersConfig{LLM: ProviderEntry{Name: "openai"}}

	cases := []struct {
		name         string
		participants []ParticipantConfig
		wantErr      bool
	}{
		{"none", nil, false},
		{"two", []ParticipantConfig{{Name: "Sam"}, {Name: "Alex"}}, false},
		{"one", []ParticipantConfig{{Name: "Sam"}}, true},
		{"duplicate names", []ParticipantConfig{{Name: "Sam"}, {Name: "Sam"}}, true},
		{"empty name", []ParticipantConfig{{Name: "Sam"}, {Name: ""}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Providers: base, Participants: tc.participants}
			err := Validate(cfg)
			if tc.wantErr && err == nil {
				t.Error("expected a validation failure")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_JoinsAllFailures(t *testing.T) {
	cfg := &Config{
		App:   AppConfig{LogLevel: "loud"},
		Voice: VoiceConfig{MaxRecordSeconds: -1},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation failures")
	}
	for _, want := range []string{"app.log_level", "providers.llm.name", "max_record_seconds"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %v missing %q", err, want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
