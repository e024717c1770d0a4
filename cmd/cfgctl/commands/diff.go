package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var diffRaw bool

var diffCmd = &cobra.Command{
	Use:   "diff <file> [other]",
	Short: "Compare a config file with another file or its newest backup",
	Long: `Show a line diff between two config files. With one argument the file is
compared against its newest backup, which shows what the last migration
changed.

Both sides are re-rendered before comparing so whitespace and comment
style differences do not show up; --raw compares the bytes as they are.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffRaw, "raw", false, "Compare the files without re-rendering them")
}

func runDiff(cmd *cobra.Command, args []string) error {
	path := resolvePath(args[0])

	var other string
	if len(args) == 2 {
		other = resolvePath(args[1])
	} else {
		backups, err := disk.Backups(path)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return fmt.Errorf("%s has no backups to compare with", path)
		}
		other = backups[0].Path
	}

	before, err := diffText(other)
	if err != nil {
		return err
	}
	after, err := diffText(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "--- %s\n+++ %s\n", other, path)
	writeLineDiff(out, before, after)
	return nil
}

func diffText(path string) (string, error) {
	if diffRaw {
		data, err := disk.ReadFile(path)
		return string(data), err
	}
	doc, format, err := readDocument(path)
	if err != nil {
		return "", err
	}
	data, err := format.Render(doc, settings.Indent)
	return string(data), err
}

func writeLineDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, prefix+line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}
