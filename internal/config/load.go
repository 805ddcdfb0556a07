package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	voxfeedDir := filepath.Join(configDir, "voxfeed")
	if err := os.MkdirAll(voxfeedDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(voxfeedDir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// first run: generate the commented default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("config: no config file at %s, creating defaults", configPath)
		if err := SaveDefaultConfig(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return LoadFile(configPath)
}

func LoadFile(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &config, nil
}

// Save writes cfg back to the config file, dropping the comments of the
// generated default file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func SaveDefaultConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configContent := `# Voxfeed Configuration
# This file is automatically generated with defaults.
# Edit values as needed - changes are applied without daemon restart.

# Audio Recording Configuration
[recording]
  sample_rate = 16000          # Audio sample rate in Hz (16000 recommended for speech)
  channels = 1                 # Number of audio channels (1 = mono, 2 = stereo)
  format = "s16"               # Audio format (s16 = 16-bit signed integers)
  buffer_size = 8192           # Internal buffer size in bytes (larger = less CPU, more latency)
  device = ""                  # PipeWire audio device (empty = use default microphone)
  channel_buffer_size = 30     # Audio frame buffer size (frames to buffer)

# Speech Transcription Configuration
[transcription]
  provider = "deepgram"        # Transcription service ("deepgram" streaming or "openai" batch)
  api_key = ""                 # API key (or DEEPGRAM_API_KEY / OPENAI_API_KEY environment variable)
  language = ""                # Language code (empty for auto-detect, "en", "it", "es", etc.)
  model = "nova-3"             # Model name ("nova-3" for deepgram, "whisper-1" for openai)

# Feedback Submission Configuration
[submission]
  endpoint = "http://localhost:5000/feedback"  # Append endpoint URL
  timezone = ""                # IANA timezone for submission timestamps (empty = local)

# Feedback Server Configuration
[server]
  bind = "localhost:5000"      # Listen address for voxfeed serve
  log_file = "feedback.json"   # Path of the persisted feedback log
  allowed_origins = ["*"]      # CORS origins allowed to post feedback

# Desktop Notification Configuration
[notifications]
  enabled = true               # Enable notifications
  type = "desktop"             # Notification type ("desktop", "log", "none")
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}
