package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/frontendtony/curfew/internal/config"
	"github.com/frontendtony/curfew/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var printEffective bool

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7F8C8D")).Width(12)
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file and show the schedule",
	Long: `Loads the config file (with CURFEW_* environment overrides applied),
validates it, and prints the window and its next transition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(resolveConfigPath())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if printEffective {
			return printConfig(out, cfg)
		}
		return describeSchedule(out, cfg, time.Now())
	},
}

func init() {
	checkCmd.Flags().BoolVar(&printEffective, "print", false, "print the effective config as YAML")
	rootCmd.AddCommand(checkCmd)
}

func printConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func describeSchedule(w io.Writer, cfg *config.Config, now time.Time) error {
	window, err := cfg.Window()
	if err != nil {
		return err
	}

	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), value)
	}

	fmt.Fprintln(w, okStyle.Render("✓ config is valid"))
	row("command", cfg.Server.Command)
	row("window", window.String())

	if window.Contains(now) {
		row("now", "open")
	} else {
		row("now", "closed")
	}
	if left, ok := window.MinutesLeft(now); ok {
		row("closes in", tui.FormatMinutes(left))
	}
	if at, opens, ok := window.NextTransition(now); ok {
		verb := "closes"
		if opens {
			verb = "opens"
		}
		row("next", fmt.Sprintf("%s at %s", verb, at.Format("Mon 15:04")))
	}

	if cfg.Notify.WebhookURL != "" {
		row("notify", "webhook")
	} else {
		row("notify", "disabled")
	}
	if cfg.Status.Listen != "" {
		row("status", "http://"+cfg.Status.Listen+"/status")
	}
	return nil
}
