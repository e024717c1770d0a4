// Package commands provides the CLI commands for cfgctl.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/offsetmonkey538/offsetconfig/internal/config"
	"github.com/offsetmonkey538/offsetconfig/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	dirFlag   string
)

// settings is loaded before every command runs.
var settings = config.Defaults()

// closeLog closes the log file opened by setup.
var closeLog = func() error { return nil }

var rootCmd = &cobra.Command{
	Use:   "cfgctl",
	Short: "cfgctl - inspect and edit versioned config files",
	Long: `cfgctl works on the config files written by offsetconfig: it shows their
stored schema version, reads and edits values, lists and prunes the backups
taken before migrations, and diffs a file against a backup.

Files can be given as paths or as bare ids, which resolve to {dir}/{id}.json.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR|OFF)")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Config directory bare ids resolve against")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("cfgctl %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(debugCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is fine
	_ = godotenv.Load()

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	loaded, err := config.Load(workDir)
	if err != nil {
		return err
	}
	settings = loaded
	if dirFlag != "" {
		settings.Dir = dirFlag
	}

	return setupLogging()
}

func setupLogging() error {
	level := logLevel
	if level == "" {
		level = settings.LogLevel
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(level)
	if printLogs {
		cfg.Pretty = true
	} else {
		paths := config.GetPaths()
		if err := paths.EnsurePaths(); err != nil {
			return err
		}
		cfg.File = paths.LogPath()
	}

	closeFn, err := logging.Init(cfg)
	if err != nil {
		return err
	}
	closeLog = closeFn
	return nil
}
