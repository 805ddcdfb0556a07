// Package tui is the interactive configuration wizard shown by
// `voxfeed configure`.
package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/voxfeed/voxfeed/internal/config"
)

// ConfigureResult holds the configuration result from the wizard.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

var providerDisplayNames = map[string]string{
	"deepgram": "Deepgram (streaming, live interim results)",
	"openai":   "OpenAI Whisper (batch, transcribed on stop)",
}

// Run walks through the settings that matter day to day: the recognition
// provider and its key, the feedback endpoint, and notifications. Anything
// else stays editable in the config file.
func Run(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println()
	fmt.Println(StyleMuted.Render("Voice-dictated feedback for your terminal"))
	fmt.Println()

	provider, apiKey, err := configureProvider(cfg)
	if err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	cfg.Transcription.Provider = provider
	cfg.Transcription.APIKey = apiKey
	if provider != "deepgram" && cfg.Transcription.Model == "nova-3" {
		cfg.Transcription.Model = "whisper-1"
	}

	language, err := inputLanguage(cfg.Transcription.Language)
	if err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	cfg.Transcription.Language = language

	endpoint, timezone, err := configureSubmission(cfg)
	if err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	cfg.Submission.Endpoint = endpoint
	cfg.Submission.Timezone = timezone

	enabled, typ, err := configureNotifications(cfg.Notifications.Enabled, cfg.Notifications.Type)
	if err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	cfg.Notifications.Enabled = enabled
	cfg.Notifications.Type = typ

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}

	return &ConfigureResult{Config: cfg}, nil
}

func configureProvider(cfg *config.Config) (provider, apiKey string, err error) {
	provider = cfg.Transcription.Provider
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech recognition provider").
				Options(
					huh.NewOption(providerDisplayNames["deepgram"], "deepgram"),
					huh.NewOption(providerDisplayNames["openai"], "openai"),
				).
				Value(&provider),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return "", "", err
	}

	apiKey = cfg.Transcription.APIKey
	keyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API key", strings.ToUpper(provider[:1])+provider[1:])).
				Description("Leave empty to use the provider's environment variable").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	).WithTheme(getTheme())
	if err := keyForm.Run(); err != nil {
		return "", "", err
	}

	return provider, strings.TrimSpace(apiKey), nil
}

func inputLanguage(current string) (string, error) {
	language := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Language").
				Description("BCP-47 code like en or it; empty for auto-detect").
				Value(&language),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(language), nil
}

func configureSubmission(cfg *config.Config) (endpoint, timezone string, err error) {
	endpoint = cfg.Submission.Endpoint
	timezone = cfg.Submission.Timezone
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Feedback endpoint").
				Description("Where submitted feedback is POSTed").
				Validate(func(s string) error {
					u, err := url.Parse(strings.TrimSpace(s))
					if err != nil || u.Scheme == "" || u.Host == "" {
						return fmt.Errorf("must be a full URL like http://localhost:5000/feedback")
					}
					return nil
				}).
				Value(&endpoint),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name like Asia/Kolkata; empty for system local").
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if _, err := time.LoadLocation(s); err != nil {
						return fmt.Errorf("unknown timezone %q", s)
					}
					return nil
				}).
				Value(&timezone),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(endpoint), strings.TrimSpace(timezone), nil
}

func configureNotifications(enabled bool, typ string) (bool, string, error) {
	if typ == "" {
		typ = "desktop"
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable notifications?").
				Description("Listening state, submission results, errors").
				Affirmative("Yes").
				Negative("No").
				Value(&enabled),
			huh.NewSelect[string]().
				Title("Notification type").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None", "none"),
				).
				Value(&typ),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return false, "", err
	}
	return enabled, typ, nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Recognition:"), cfg.Transcription.Provider, cfg.Transcription.Model)
	if cfg.Transcription.Language != "" {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Language:"), cfg.Transcription.Language)
	}
	if cfg.Transcription.APIKey != "" {
		fmt.Printf("  %s %s\n", StyleLabel.Render("API key:"), maskKey(cfg.Transcription.APIKey))
	} else {
		fmt.Printf("  %s from environment\n", StyleLabel.Render("API key:"))
	}
	fmt.Printf("  %s %s\n", StyleLabel.Render("Endpoint:"), cfg.Submission.Endpoint)
	if cfg.Submission.Timezone != "" {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Timezone:"), cfg.Submission.Timezone)
	}
	if cfg.Notifications.Enabled {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Notifications:"), cfg.Notifications.Type)
	} else {
		fmt.Printf("  %s disabled\n", StyleLabel.Render("Notifications:"))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}
