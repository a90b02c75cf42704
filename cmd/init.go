package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := resolveConfigPath()
		if _, err := os.Stat(cfgPath); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		}
		if err := writeExample(cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote example config to %s\n", cfgPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
