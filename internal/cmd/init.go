package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allanpk716/docx_templater/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Long: `Writes a sample configuration with a passport session. The format follows
the file extension (.json, .toml, .yaml). Defaults to the --config path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}

	if err := config.SaveConfig(config.SampleConfig(), path); err != nil {
		return err
	}
	cmd.Printf("Wrote sample configuration to %s\n", path)
	return nil
}
