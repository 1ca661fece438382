package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/newhook/swereview/internal/cachemanager"
	"github.com/newhook/swereview/internal/deliverable"
	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/project"
	"github.com/newhook/swereview/internal/render"
	"github.com/newhook/swereview/internal/review"
	"github.com/newhook/swereview/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	flagWatchNoHistory bool
	flagWatchTest      string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-analyze a deliverable whenever its files change",
	Long: `Analyze the deliverable at dir, then watch its manifest and logs and analyze
again after every burst of changes. Stop with Ctrl+C.

--test also prints the log lines mentioning that test after every pass.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchNoHistory, "no-history", false, "do not record the runs")
	watchCmd.Flags().StringVarP(&flagWatchTest, "test", "t", "", "print the log lines mentioning this test after each pass")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	dir := args[0]

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	layout, problems := deliverable.Resolve(appFs, dir)

	cfg := watcher.DefaultConfig(layout.WatchPaths()...)
	cfg.DebounceDur = proj.Config.Watch.GetDebounce()
	cfg.Match = relevantToDeliverable
	w, err := watcher.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	cache := cachemanager.NewInMemoryCacheManager[string, review.SearchResults]("watch-search", proj.Config.Cache.GetTTL(), cachemanager.DefaultCleanupInterval)
	var session *review.Session
	analyze := func() {
		session = watchAnalyze(ctx, proj, dir, cache, session)
		if session != nil && flagWatchTest != "" {
			printMatches(os.Stdout, session.Search(ctx, flagWatchTest, -1), flagWatchTest, terminalWidth())
		}
	}

	if len(problems) > 0 {
		fmt.Printf("Deliverable is incomplete (%d problem(s)); waiting for changes...\n", len(problems))
	} else {
		analyze()
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopped watching")
			return nil
		case change, ok := <-w.Changes():
			if !ok {
				return nil
			}
			logging.Debug("deliverable changed", "paths", change.Paths)
			fmt.Printf("\n[%s] %d file(s) changed, re-analyzing\n", change.At.Format(time.TimeOnly), len(change.Paths))
			analyze()
		}
	}
}

// watchAnalyze runs one analysis pass and returns the session of the new result.
// Sessions share one cache; it is flushed only when the inputs' digest changed, so a
// pass over unchanged files is answered from the cache.
func watchAnalyze(ctx context.Context, proj *project.Project, dir string, cache cachemanager.CacheManager[string, review.SearchResults], prev *review.Session) *review.Session {
	d, result, err := analyzeDir(ctx, proj, dir, false)
	if err != nil {
		if errors.Is(err, deliverable.ErrInvalid) {
			fmt.Printf("Deliverable is incomplete: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return prev
	}

	if prev != nil && prev.Digest != d.Digest {
		if err := prev.Invalidate(ctx); err != nil {
			logging.Warn("failed to invalidate search cache", "error", err)
		}
	}

	if !flagWatchNoHistory {
		if _, err := recordRun(ctx, proj, d, result); err != nil {
			logging.Warn("failed to record run", "error", err)
		}
	}

	render.Result(os.Stdout, d.Instance, result, terminalWidth())
	return review.NewSession(result, d.Digest, cache, proj.Config.Cache.GetTTL())
}

// printMatches writes every stage's matches for name.
func printMatches(w io.Writer, res review.SearchResults, name string, width int) {
	fmt.Fprintln(w)
	for i, stage := range logparser.Stages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		render.Matches(w, name, stage, res[stage], -1, width)
	}
}

// relevantToDeliverable accepts logs, json manifests and diffs.
func relevantToDeliverable(path string) bool {
	if watcher.Ignored(path) {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".log", ".json", ".diff", ".patch", ".txt":
		return true
	}
	return false
}
