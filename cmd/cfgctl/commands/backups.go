package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	backupsPrune bool
	backupsKeep  int
)

// timeNow is replaced in tests.
var timeNow = time.Now

var backupsCmd = &cobra.Command{
	Use:   "backups <file>",
	Short: "List or prune the backups of a config file",
	Long: `List the backups taken before a config file was migrated, newest first.
With --prune, delete all but the newest --keep backups (default from the
keepBackups setting).`,
	Args: cobra.ExactArgs(1),
	RunE: runBackups,
}

func init() {
	backupsCmd.Flags().BoolVar(&backupsPrune, "prune", false, "Delete old backups")
	backupsCmd.Flags().IntVar(&backupsKeep, "keep", -1, "Backups to keep when pruning")
}

func runBackups(cmd *cobra.Command, args []string) error {
	path := resolvePath(args[0])

	if backupsPrune {
		keep := backupsKeep
		if keep < 0 {
			keep = settings.KeepBackups
		}
		removed, err := disk.PruneBackups(path, keep)
		if err != nil {
			return err
		}
		for _, b := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", b.Path)
		}
	}

	backups, err := disk.Backups(path)
	if err != nil {
		return err
	}
	printBackups(cmd, backups)
	return nil
}
