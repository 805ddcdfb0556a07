package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voxfeed/voxfeed/internal/bus"
	"github.com/voxfeed/voxfeed/internal/config"
	"github.com/voxfeed/voxfeed/internal/daemon"
	"github.com/voxfeed/voxfeed/internal/deps"
	"github.com/voxfeed/voxfeed/internal/feedback"
	"github.com/voxfeed/voxfeed/internal/notify"
	"github.com/voxfeed/voxfeed/internal/server"
	"github.com/voxfeed/voxfeed/internal/tui"
)

func main() {
	_ = godotenv.Load()
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "voxfeed",
	Short: "Voice-dictated feedback: speak, review, submit",
}

func init() {
	rootCmd.AddCommand(
		daemonCmd(),
		serveCmd(),
		toggleCmd(),
		submitCmd(),
		draftCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		doctorCmd(),
	)
}

// daemonCmd runs the dictation daemon: it owns the transcript buffer and
// answers control-socket commands.
func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the dictation daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := mgr.StartWatching(cmd.Context()); err != nil {
				return fmt.Errorf("failed to watch config: %w", err)
			}
			defer mgr.Stop()

			cfg := mgr.GetConfig()
			n := notify.ForType(cfg.Notifications.Enabled, cfg.Notifications.Type)
			return daemon.New(mgr, n).Run()
		},
	}
}

// serveCmd runs the feedback collection server.
func serveCmd() *cobra.Command {
	var bind, logFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the feedback collection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if logFile != "" {
				cfg.Server.LogFile = logFile
			}

			store, err := feedback.Open(cfg.Server.LogFile)
			if err != nil {
				return fmt.Errorf("failed to open feedback log: %w", err)
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			srv := server.New(server.Config{
				Bind:           cfg.Server.Bind,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			}, store, logger)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Feedback log path (overrides config)")

	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start or stop listening",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdToggle, "")
			if err != nil {
				return fmt.Errorf("failed to toggle listening: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit [text]",
		Short: "Submit the transcript buffer as feedback",
		Long: `Submit the transcript buffer as feedback.
With an argument, the argument replaces the buffer before submission,
so you can edit the dictated text on the command line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdSubmit, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to submit feedback: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func draftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draft <text>",
		Short: "Replace the transcript buffer with the given text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdDraft, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to set draft: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the listening state and buffer contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus, "")
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdVersion, "")
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdQuit, "")
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for voxfeed.
This will guide you through setting up:
- The speech recognition provider and its API key
- The feedback endpoint and timestamp timezone
- Notification preferences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := true
			for name, status := range map[string]deps.Status{
				"pw-record":   deps.CheckPwRecord(),
				"notify-send": deps.CheckNotifySend(),
			} {
				if status.Installed {
					fmt.Printf("  ok    %-12s %s\n", name, status.Path)
				} else {
					fmt.Printf("  MISS  %-12s not found in PATH\n", name)
					ok = false
				}
			}
			if !ok {
				return fmt.Errorf("missing dependencies")
			}
			return nil
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  voxfeed serve    # start the feedback server")
	fmt.Println("  voxfeed daemon   # start the dictation daemon")
	fmt.Println("  voxfeed toggle   # start talking")

	return nil
}
