package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/voxfeed/voxfeed/internal/recording"
	"github.com/voxfeed/voxfeed/internal/speech"
)

type Config struct {
	Recording     RecordingConfig     `toml:"recording"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Submission    SubmissionConfig    `toml:"submission"`
	Server        ServerConfig        `toml:"server"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type RecordingConfig struct {
	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	Format            string `toml:"format"`
	BufferSize        int    `toml:"buffer_size"`
	Device            string `toml:"device"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Language string `toml:"language"`
	Model    string `toml:"model"`
}

type SubmissionConfig struct {
	Endpoint string `toml:"endpoint"`
	Timezone string `toml:"timezone"`
}

type ServerConfig struct {
	Bind           string   `toml:"bind"`
	LogFile        string   `toml:"log_file"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		Format:            c.Recording.Format,
		BufferSize:        c.Recording.BufferSize,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
	}
}

func (c *Config) ToSpeechConfig() speech.Config {
	cfg := speech.Config{
		Provider: c.Transcription.Provider,
		APIKey:   c.Transcription.APIKey,
		Language: c.Transcription.Language,
		Model:    c.Transcription.Model,
	}
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "deepgram":
			cfg.APIKey = os.Getenv("DEEPGRAM_API_KEY")
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return cfg
}

// Timezone resolves the submission timestamp zone. An empty setting means
// the machine's local zone.
func (c *Config) Timezone() (*time.Location, error) {
	if c.Submission.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Submission.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid submission.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	// Recording
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}

	// Transcription
	validProviders := map[string]bool{"deepgram": true, "openai": true}
	if !validProviders[c.Transcription.Provider] {
		return fmt.Errorf("invalid transcription.provider: %s (must be deepgram or openai)", c.Transcription.Provider)
	}
	if c.Transcription.Model == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}

	// Submission
	if c.Submission.Endpoint == "" {
		return fmt.Errorf("invalid submission.endpoint: empty")
	}
	if u, err := url.Parse(c.Submission.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid submission.endpoint: %s", c.Submission.Endpoint)
	}
	if _, err := c.Timezone(); err != nil {
		return err
	}

	// Server
	if c.Server.Bind == "" {
		return fmt.Errorf("invalid server.bind: empty")
	}
	if c.Server.LogFile == "" {
		return fmt.Errorf("invalid server.log_file: empty")
	}

	// Notifications
	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

func Default() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        8192,
			Device:            "",
			ChannelBufferSize: 30,
		},
		Transcription: TranscriptionConfig{
			Provider: "deepgram",
			APIKey:   "",
			Language: "",
			Model:    "nova-3",
		},
		Submission: SubmissionConfig{
			Endpoint: "http://localhost:5000/feedback",
			Timezone: "",
		},
		Server: ServerConfig{
			Bind:           "localhost:5000",
			LogFile:        "feedback.json",
			AllowedOrigins: []string{"*"},
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
	}
}
