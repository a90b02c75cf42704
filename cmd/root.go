package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/frontendtony/curfew/internal/config"
	"github.com/frontendtony/curfew/internal/logging"
	"github.com/frontendtony/curfew/internal/metrics"
	"github.com/frontendtony/curfew/internal/notify"
	"github.com/frontendtony/curfew/internal/process"
	"github.com/frontendtony/curfew/internal/supervisor"
	"github.com/frontendtony/curfew/internal/tui"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	useTUI     bool
	noPTY      bool
)

var rootCmd = &cobra.Command{
	Use:   "curfew",
	Short: "Keep a game server running inside a daily time window",
	Long: `curfew starts a server when its daily window opens, warns players on the
server console before the window closes, then stops it cleanly. Unexpected
exits are restarted, unless the server keeps crashing, in which case
restarts pause until the crashes are five minutes in the past.

Run without arguments to supervise in the foreground. Pass --tui for a
dashboard showing the schedule and the server console.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := resolveConfigPath()

		// First-run: generate example config if none exists.
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if err := writeExample(cfgPath); err != nil {
				return err
			}
			fmt.Printf("Created example config at %s\nEdit it and run curfew again.\n", cfgPath)
			return nil
		}

		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.config/curfew/config.yaml, or $CURFEW_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive dashboard")
	rootCmd.Flags().BoolVar(&noPTY, "no-pty", false, "connect the server console with plain pipes instead of a PTY")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeExample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GenerateExample()), 0o644); err != nil {
		return fmt.Errorf("writing example config: %w", err)
	}
	return nil
}

func run(cfg *config.Config) error {
	window, err := cfg.Window()
	if err != nil {
		return err
	}

	console := logging.NewRingBuffer(logging.DefaultBufferSize)

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if verbose {
		logCfg.Level = "debug"
	}
	if useTUI {
		// stderr would draw over the alt screen; log into the console panel.
		logCfg.Output = console
	} else {
		console.Mirror(os.Stdout)
	}
	log := logging.Setup(logCfg)

	launcher := &process.Launcher{Server: cfg.Server, Console: console, DisablePTY: noPTY}
	spawner := supervisor.SpawnFunc(func() (supervisor.Handle, error) {
		p, err := launcher.Spawn()
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	board := &supervisor.Board{}
	recorder := metrics.NewRecorder()

	loop, err := supervisor.New(supervisor.Options{
		Window:          window,
		Spawner:         spawner,
		Notifier:        newNotifier(cfg.Notify, log),
		StopCommand:     cfg.Server.StopCommand,
		AnnounceCommand: cfg.Server.AnnounceCommand,
		StopTimeout:     cfg.Server.StopTimeout.Duration(),
		KillGrace:       cfg.Server.KillGrace.Duration(),
		Logger:          log,
		Metrics:         recorder,
		Observers:       []func(supervisor.Status){board.Publish},
	})
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(log, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.StopTimeout.Duration() + 2*cfg.Server.KillGrace.Duration() + 5*time.Second,
	})
	tree.AddLoop(loop)
	if cfg.Status.Listen != "" {
		tree.AddService(metrics.NewHTTPService(cfg.Status.Listen, metrics.NewRouter(recorder, board, log)))
		log.Info("status endpoint enabled", "listen", cfg.Status.Listen)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	if useTUI {
		p := tea.NewProgram(tui.NewModel(board, console), tea.WithAltScreen())
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			stop()
			drain(errCh, log)
			return fmt.Errorf("running TUI: %w", err)
		}
		fmt.Println("Stopping server...")
		stop()
	}

	drain(errCh, log)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		log.Warn("service failed to stop", "service", svc.Name)
	}
	log.Info("curfew stopped")
	return nil
}

func drain(errCh <-chan error, log *slog.Logger) {
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("supervisor tree error", "error", err)
		}
	}
}

func newNotifier(cfg config.Notify, log *slog.Logger) notify.Notifier {
	if cfg.WebhookURL == "" {
		log.Debug("no webhook configured, notifications disabled")
		return notify.Nop{}
	}
	return notify.NewWebhook(notify.WebhookConfig{
		URL:      cfg.WebhookURL,
		Username: cfg.Username,
		Timeout:  cfg.Timeout.Duration(),
	}, log)
}
