package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in your editor",
	Long: `Opens the curfew config file in $EDITOR (falls back to nano) and
validates it once the editor exits. A missing file is created from the
example first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := resolveConfigPath()
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if err := writeExample(cfgPath); err != nil {
				return err
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nano"
		}

		c := exec.Command(editor, cfgPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		if err := c.Run(); err != nil {
			return fmt.Errorf("opening editor: %w", err)
		}

		if _, err := loadConfig(cfgPath); err != nil {
			return fmt.Errorf("config saved but invalid: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ config is valid"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
