package main

import (
	"fmt"
	"os"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initProjects []string
)

var initCmd = &cobra.Command{
	Use:   "init [FILE]",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file with every default spelled out.
Without FILE it creates project-summary.yaml in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().StringSliceVar(&initProjects, "projects", []string{"~/src/*"}, "Glob patterns of project checkouts")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "project-summary.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Defaults()
	cfg.Projects = config.StringList(initProjects)
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", output.Success.Sprint("✓"), path)
	return nil
}
