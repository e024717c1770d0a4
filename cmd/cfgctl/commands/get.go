package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var getCmd = &cobra.Command{
	Use:   "get <file> [path]",
	Short: "Print a value from a config file",
	Long: `Print the value at a gjson path, or the whole file as JSON when no path
is given. Strings are printed without quotes.

Examples:
  cfgctl get test greeting
  cfgctl get config/server.yaml ports.0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	path := resolvePath(args[0])
	doc, _, err := readDocument(path)
	if err != nil {
		return err
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		fmt.Fprint(out, string(pretty.Pretty(data)))
		return nil
	}

	result := gjson.GetBytes(data, args[1])
	if !result.Exists() {
		return fmt.Errorf("%s: no value at %q", path, args[1])
	}
	switch result.Type {
	case gjson.String:
		fmt.Fprintln(out, result.String())
	case gjson.JSON:
		fmt.Fprint(out, string(pretty.Pretty([]byte(result.Raw))))
	default:
		fmt.Fprintln(out, result.Raw)
	}
	return nil
}
