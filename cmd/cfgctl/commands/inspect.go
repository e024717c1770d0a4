package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/offsetconfig"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the version, keys and backups of a config file",
	Long: `Show the format, stored schema version, top-level keys and backups of a
config file.

Examples:
  cfgctl inspect config/test.json
  cfgctl inspect test            # resolves to {dir}/test.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := resolvePath(args[0])
	doc, format, err := readDocument(path)
	if err != nil {
		return err
	}
	backups, err := disk.Backups(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:     %s\n", path)
	fmt.Fprintf(out, "Format:   %s\n", format.Name())
	if version, ok := storedVersion(doc); ok {
		fmt.Fprintf(out, "Version:  %d\n", version)
	} else {
		fmt.Fprintln(out, "Version:  none (treated as 0)")
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tCOMMENT\t")
	doc.Range(func(key string, value any) bool {
		if key == offsetconfig.VersionKey {
			return true
		}
		comment := strings.ReplaceAll(doc.Comment(key), "\n", " ")
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", key, document.KindOf(value), comment)
		return true
	})
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	printBackups(cmd, backups)
	return nil
}

func printBackups(cmd *cobra.Command, backups []storage.Backup) {
	out := cmd.OutOrStdout()
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups")
		return
	}
	fmt.Fprintf(out, "Backups (%d, newest first):\n", len(backups))
	for _, b := range backups {
		fmt.Fprintf(out, "  %s  %s\n", b.Time.Format("2006-01-02 15:04:05"), b.Path)
	}
}
