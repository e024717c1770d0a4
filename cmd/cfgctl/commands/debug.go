package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/offsetmonkey538/offsetconfig/internal/config"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug utilities",
	Long:  `Debug utilities for troubleshooting cfgctl settings and setup.`,
}

var (
	debugWrite   bool
	debugProject bool
)

var debugSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the effective settings",
	Long: `Show the settings cfgctl runs with after merging settings files,
environment variables and flags. With --write they are saved to the global
settings file, or with --project to cfgctl.jsonc in the working directory.`,
	RunE: runDebugSettings,
}

var debugPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show system paths",
	RunE:  runDebugPaths,
}

func init() {
	debugSettingsCmd.Flags().BoolVar(&debugWrite, "write", false, "Save the effective settings")
	debugSettingsCmd.Flags().BoolVar(&debugProject, "project", false, "With --write, save to the project settings file")
	debugCmd.AddCommand(debugSettingsCmd)
	debugCmd.AddCommand(debugPathsCmd)
}

func runDebugSettings(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if !debugWrite {
		return nil
	}
	path := config.GlobalSettingsPath()
	if debugProject {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}
		path = config.ProjectSettingsPath(workDir)
	}
	if err := config.Save(settings, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", path)
	return nil
}

func runDebugPaths(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "cfgctl System Paths:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Config:    %s\n", paths.Config)
	fmt.Fprintf(out, "  Data:      %s\n", paths.Data)
	fmt.Fprintf(out, "  Cache:     %s\n", paths.Cache)
	fmt.Fprintf(out, "  State:     %s\n", paths.State)
	fmt.Fprintf(out, "  Log:       %s\n", paths.LogPath())
	fmt.Fprintf(out, "  Settings:  %s\n", config.GlobalSettingsPath())

	return nil
}
