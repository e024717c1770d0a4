package commands

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var scanPattern string

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the config files in a directory with their versions",
	Long: `Walk a directory (default: the config directory) and list every config
file matching the pattern, with its stored version and backup count. Backup
files themselves are skipped.

Examples:
  cfgctl scan
  cfgctl scan run/config --pattern '**/*.yaml'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPattern, "pattern", "", "doublestar glob relative to dir (default from settings)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := settings.Dir
	if len(args) == 1 {
		root = args[0]
	}
	pattern := scanPattern
	if pattern == "" {
		pattern = settings.ScanPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid pattern %q", pattern)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tFORMAT\tVERSION\tKEYS\tBACKUPS\t")

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isBackup(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
			return nil
		}

		doc, format, err := readDocument(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable config")
			fmt.Fprintf(w, "%s\t?\t?\t?\t?\t\n", rel)
			return nil
		}
		backups, err := disk.Backups(path)
		if err != nil {
			return err
		}

		version := "-"
		if v, ok := storedVersion(doc); ok {
			version = fmt.Sprint(v)
		}
		keys := doc.Len()
		if version != "-" {
			keys--
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t\n", rel, format.Name(), version, keys, len(backups))
		return nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
