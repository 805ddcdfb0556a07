package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero sample rate", func(c *Config) { c.Recording.SampleRate = 0 }, "sample_rate"},
		{"zero channels", func(c *Config) { c.Recording.Channels = 0 }, "channels"},
		{"empty format", func(c *Config) { c.Recording.Format = "" }, "format"},
		{"unknown provider", func(c *Config) { c.Transcription.Provider = "browser" }, "provider"},
		{"empty model", func(c *Config) { c.Transcription.Model = "" }, "model"},
		{"empty endpoint", func(c *Config) { c.Submission.Endpoint = "" }, "endpoint"},
		{"relative endpoint", func(c *Config) { c.Submission.Endpoint = "/feedback" }, "endpoint"},
		{"bad timezone", func(c *Config) { c.Submission.Timezone = "Mars/Olympus" }, "timezone"},
		{"empty bind", func(c *Config) { c.Server.Bind = "" }, "bind"},
		{"empty log file", func(c *Config) { c.Server.LogFile = "" }, "log_file"},
		{"bad notification type", func(c *Config) { c.Notifications.Type = "carrier-pigeon" }, "notifications.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[recording]
  sample_rate = 16000
  channels = 1
  format = "s16"
  buffer_size = 8192
  channel_buffer_size = 30

[transcription]
  provider = "openai"
  api_key = "file-key"
  model = "whisper-1"

[submission]
  endpoint = "http://example.com/feedback"
  timezone = "Asia/Kolkata"

[server]
  bind = "localhost:9000"
  log_file = "/tmp/feedback.json"
  allowed_origins = ["http://localhost:3000"]

[notifications]
  enabled = false
  type = "none"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Transcription.Provider != "openai" || cfg.Transcription.APIKey != "file-key" {
		t.Errorf("transcription = %+v", cfg.Transcription)
	}
	if cfg.Submission.Endpoint != "http://example.com/feedback" {
		t.Errorf("endpoint = %q", cfg.Submission.Endpoint)
	}
	if cfg.Server.Bind != "localhost:9000" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}

	loc, err := cfg.Timezone()
	if err != nil {
		t.Fatalf("Timezone: %v", err)
	}
	if loc.String() != "Asia/Kolkata" {
		t.Errorf("timezone = %s", loc)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[recording\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile should fail on malformed toml")
	}
}

func TestToSpeechConfig_EnvFallback(t *testing.T) {
	cfg := Default()
	cfg.Transcription.Provider = "deepgram"
	cfg.Transcription.APIKey = ""
	t.Setenv("DEEPGRAM_API_KEY", "env-key")

	if got := cfg.ToSpeechConfig().APIKey; got != "env-key" {
		t.Errorf("APIKey = %q, want env fallback", got)
	}

	cfg.Transcription.APIKey = "explicit"
	if got := cfg.ToSpeechConfig().APIKey; got != "explicit" {
		t.Errorf("APIKey = %q, config value must win", got)
	}
}

func TestTimezone_EmptyMeansLocal(t *testing.T) {
	cfg := Default()
	cfg.Submission.Timezone = ""
	loc, err := cfg.Timezone()
	if err != nil {
		t.Fatalf("Timezone: %v", err)
	}
	if loc != nil && loc.String() == "" {
		t.Error("expected a usable location")
	}
}
