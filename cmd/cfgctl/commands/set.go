package commands

import (
	"fmt"

	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/offsetconfig"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	setDelete bool
	setForce  bool
	setBackup bool
)

var setCmd = &cobra.Command{
	Use:   "set <file> <path> [value]",
	Short: "Change a value in a config file",
	Long: `Set the value at a sjson path. Values that parse as JSON are stored as
JSON, anything else as a string. Top-level comments are kept.

The stored version is protected; changing it needs --force.

Examples:
  cfgctl set test greeting 'Hi there'
  cfgctl set test count 42
  cfgctl set test ports '[25565, 25566]'
  cfgctl set test legacy --delete`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setDelete, "delete", false, "Delete the value instead of setting it")
	setCmd.Flags().BoolVar(&setForce, "force", false, "Allow changing the stored version")
	setCmd.Flags().BoolVar(&setBackup, "backup", false, "Back the file up before writing")
}

func runSet(cmd *cobra.Command, args []string) error {
	path := resolvePath(args[0])
	key := args[1]

	if key == offsetconfig.VersionKey && !setForce {
		return fmt.Errorf("refusing to change %q without --force", offsetconfig.VersionKey)
	}
	if !setDelete && len(args) != 3 {
		return fmt.Errorf("a value is required unless --delete is given")
	}

	doc, format, err := readDocument(path)
	if err != nil {
		return err
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}

	var edited []byte
	switch {
	case setDelete:
		edited, err = sjson.DeleteBytes(data, key)
	case gjson.Valid(args[2]):
		edited, err = sjson.SetRawBytes(data, key, []byte(args[2]))
	default:
		edited, err = sjson.SetBytes(data, key, args[2])
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	next, err := document.ParseJSON(edited)
	if err != nil {
		return err
	}
	for _, k := range next.Keys() {
		if c := doc.Comment(k); c != "" {
			next.SetComment(k, c)
		}
	}

	rendered, err := format.Render(next, settings.Indent)
	if err != nil {
		return err
	}

	if setBackup {
		backup := storage.NextBackupPath(disk.Exists, path, timeNow())
		if err := disk.Copy(path, backup); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up to %s\n", backup)
	}
	if err := disk.WriteFile(path, rendered); err != nil {
		return err
	}

	log.Info().Str("path", path).Str("key", key).Bool("delete", setDelete).Msg("config edited")
	return nil
}
