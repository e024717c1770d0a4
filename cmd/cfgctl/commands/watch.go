package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/offsetmonkey538/offsetconfig/internal/watcher"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <file>...",
	Short: "Print the stored version of config files whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "How long a file must be quiet before it is reported")
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var mu sync.Mutex

	w, err := watcher.New(watchDebounce, func(path string) {
		mu.Lock()
		defer mu.Unlock()

		doc, _, err := readDocument(path)
		if err != nil {
			fmt.Fprintf(out, "%s  %s: %v\n", timeNow().Format(time.TimeOnly), path, err)
			return
		}
		version := "none"
		if v, ok := storedVersion(doc); ok {
			version = fmt.Sprint(v)
		}
		fmt.Fprintf(out, "%s  %s: version %s, %d keys\n", timeNow().Format(time.TimeOnly), path, version, doc.Len())
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	for _, arg := range args {
		if err := w.Add(resolvePath(arg)); err != nil {
			return err
		}
	}
	w.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
