package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/newhook/swereview/internal/deliverable"
	"github.com/newhook/swereview/internal/history"
	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/project"
	"github.com/newhook/swereview/internal/render"
	"github.com/newhook/swereview/internal/review"
	"github.com/spf13/afero"
)

// appFs is the filesystem deliverables are read from.
var appFs = afero.NewOsFs()

// openProject loads the enclosing workspace, or defaults outside one.
func openProject(ctx context.Context) (*project.Project, error) {
	proj, err := project.FindOrDefault(ctx, flagProject)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return proj, nil
}

func analysisOptions(proj *project.Project, sequential bool) review.Options {
	return review.Options{
		Parallel:     proj.Config.Analysis.IsParallel() && !sequential,
		ContextLines: proj.Config.Search.GetContextLines(),
	}
}

// analyzeDir loads and analyses the deliverable at dir.
func analyzeDir(ctx context.Context, proj *project.Project, dir string, sequential bool) (*deliverable.Deliverable, *review.Result, error) {
	d, err := deliverable.Load(appFs, dir)
	if err != nil {
		return nil, nil, err
	}
	result, err := review.Analyze(ctx, d.Input, analysisOptions(proj, sequential))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyze %s: %w", dir, err)
	}
	logging.Info("analyzed deliverable", "instance", d.Instance, "violated", result.Violated(), "warnings", len(result.Warnings))
	return d, result, nil
}

// recordRun stores the run in the workspace history when it is enabled.
func recordRun(ctx context.Context, proj *project.Project, d *deliverable.Deliverable, result *review.Result) (*history.Run, error) {
	store, err := proj.History(ctx)
	if err != nil || store == nil {
		return nil, err
	}

	report, err := result.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	violated := make([]string, 0, len(result.Violated()))
	for _, id := range result.Violated() {
		violated = append(violated, id.String())
	}

	run := &history.Run{
		Path:        d.Root,
		Instance:    d.Instance,
		Digest:      d.Digest,
		Violated:    violated,
		Warnings:    len(result.Warnings),
		HasProblems: result.HasProblems(),
		Report:      string(report),
	}
	if err := store.Record(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// terminalWidth returns the width of stdout, or the render default when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return render.DefaultWidth
}
