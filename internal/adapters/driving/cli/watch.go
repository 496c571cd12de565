package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index when the corpus file changes",
	Long: `Watches the configured corpus file (corpus.path) and rebuilds the index
after every change. A failed rebuild is reported and the previous index
keeps serving.

Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.Corpus.Path == "" {
		return errors.New("the built-in corpus cannot change; set corpus.path to watch a file")
	}

	if err := requireIndex(cmd); err != nil {
		return err
	}

	w, err := watcher.New(settings.Corpus.Path, indexService,
		watcher.WithDebounce(watchDebounce),
		watcher.WithOnRebuild(func(r watcher.Result) {
			stamp := time.Now().Format(time.TimeOnly)
			if r.Err != nil {
				cmd.PrintErrf("%s %s rebuild failed, previous index kept: %v\n", stamp, warnStyle.Render("!"), r.Err)
				return
			}
			cmd.Printf("%s rebuilt index: %d chunks\n", stamp, r.Info.Chunks)
		}),
	)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Path())
	if err := w.Run(cmd.Context()); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
