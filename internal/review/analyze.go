// Package review runs the full analysis of one deliverable: it parses the
// stage logs and manifest, builds the status matrix, evaluates the rules and
// answers search queries against the result.
package review

import (
	"context"
	"fmt"

	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
	"github.com/newhook/swereview/internal/matrix"
	"github.com/newhook/swereview/internal/rules"
	"github.com/newhook/swereview/internal/search"
	"golang.org/x/sync/errgroup"
)

// Input is the raw text of one deliverable.
type Input struct {
	// Logs maps each stage to its log text. An absent stage behaves as empty text.
	Logs map[logparser.Stage]string
	// Manifest is the main.json text.
	Manifest string
	// SourceDiff is the golden source diff. Empty falls back to the manifest's patch.
	SourceDiff string
	// Report optionally declares the agent run's statuses, in any log format.
	Report string
}

// Options tunes an analysis run.
type Options struct {
	// Parallel parses stages and evaluates rules concurrently.
	Parallel bool
	// ContextLines is the default context for Result.Search. Negative means search.DefaultContextLines.
	ContextLines int
}

// DefaultOptions returns the options used when no config overrides them.
func DefaultOptions() Options {
	return Options{Parallel: true, ContextLines: search.DefaultContextLines}
}

// Analyze runs the whole pipeline. Input problems become warnings on the
// result; the only error is a cancelled context.
func Analyze(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := parseStages(ctx, in.Logs, opts.Parallel)
	if err != nil {
		return nil, err
	}

	m := manifest.Parse(in.Manifest)
	warnings := stageWarnings(docs)
	warnings = append(warnings, manifestWarnings(m)...)

	var declared *logparser.Document
	if in.Report != "" {
		declared = logparser.Parse(logparser.Agent, in.Report)
		if declared.Degraded() {
			warnings = append(warnings, Warning{
				Kind:    ReportUnreadable,
				Message: fmt.Sprintf("declared statuses ignored, expecting all tests to pass: %v", declared.Err),
			})
			declared = nil
		}
	}

	rows := matrix.Build(m, docs)
	checks, err := rules.Evaluate(ctx, rules.Input{
		Rows:       rows,
		Docs:       docs,
		Manifest:   m,
		SourceDiff: in.SourceDiff,
		Declared:   declared,
	}, rules.Options{Parallel: opts.Parallel})
	if err != nil {
		return nil, err
	}

	result := newResult(m, docs, rows, checks, warnings, opts.ContextLines)
	logging.Debug("analysis complete",
		"f2p", len(m.FailToPass),
		"p2p", len(m.PassToPass),
		"warnings", len(warnings),
		"problems", result.HasProblems())
	return result, nil
}

func parseStages(ctx context.Context, logs map[logparser.Stage]string, parallel bool) (logparser.Documents, error) {
	var docs logparser.Documents

	if !parallel {
		for _, stage := range logparser.Stages {
			if err := ctx.Err(); err != nil {
				return docs, err
			}
			docs[stage] = logparser.Parse(stage, logs[stage])
		}
		return docs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range logparser.Stages {
		text := logs[stage]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[stage] = logparser.Parse(stage, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return docs, fmt.Errorf("failed to parse stage logs: %w", err)
	}
	return docs, nil
}
