// Package rules evaluates the fixed consistency taxonomy over a status matrix.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
	"github.com/newhook/swereview/internal/matrix"
	"golang.org/x/sync/errgroup"
)

// ID identifies a rule. Values order the report.
type ID int

const (
	C1 ID = iota + 1
	C2
	C3
	C4
	C5
	C6
	C7
)

// All lists every rule in report order.
var All = []ID{C1, C2, C3, C4, C5, C6, C7}

// String returns the short identifier, e.g. "C3".
func (id ID) String() string {
	if id < C1 || id > C7 {
		return fmt.Sprintf("rule(%d)", int(id))
	}
	return fmt.Sprintf("C%d", int(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Key returns the stable report key of the rule.
func (id ID) Key() string {
	if d, ok := definitions[id]; ok {
		return d.key
	}
	return ""
}

// Description returns the one-line human description of the rule.
func (id ID) Description() string {
	if d, ok := definitions[id]; ok {
		return d.description
	}
	return ""
}

// ParseID resolves "C3", "c3" or a full rule key.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for _, id := range All {
		if strings.EqualFold(s, id.String()) || s == id.Key() {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown rule %q", s)
}

// Check is the outcome of one rule.
type Check struct {
	ID          ID       `json:"id"`
	Key         string   `json:"key"`
	HasProblem  bool     `json:"has_problem"`
	Examples    []string `json:"examples"`
	Description string   `json:"description"`
}

// Input is everything a rule may look at.
type Input struct {
	Rows     []matrix.Row
	Docs     logparser.Documents
	Manifest *manifest.Manifest

	// SourceDiff is the golden source diff. When empty the manifest's patch is used.
	SourceDiff string

	// Declared holds the statuses a report claims for the agent run.
	// Nil means every test is expected to pass.
	Declared *logparser.Document
}

// Options tunes evaluation.
type Options struct {
	Parallel bool
}

type definition struct {
	key         string
	description string
	eval        func(in *Input) []string
}

var definitions = map[ID]definition{
	C1: {
		key:         "c1_failed_in_base_present_in_P2P",
		description: "P2P test fails in the base log",
		eval:        failedInBase,
	},
	C2: {
		key:         "c2_failed_in_after_present_in_F2P_or_P2P",
		description: "declared test fails or is missing in the after log",
		eval:        notPassingAfter,
	},
	C3: {
		key:         "c3_F2P_success_in_before",
		description: "F2P test already passes in the before log",
		eval:        passedBefore,
	},
	C4: {
		key:         "c4_P2P_missing_in_base_and_not_passing_in_before",
		description: "P2P test is missing in base and does not pass in before",
		eval:        missingBaseNotPassingBefore,
	},
	C5: {
		key:         "c5_duplicates_in_same_log_for_F2P_or_P2P",
		description: "declared test occurs more than once in a single log or manifest set",
		eval:        duplicates,
	},
	C6: {
		key:         "c6_declared_status_differs_from_agent",
		description: "agent log status differs from the declared status",
		eval:        declaredDiffers,
	},
	C7: {
		key:         "c7_f2p_tests_in_golden_source_diff",
		description: "F2P test name appears in a changed line of the golden source diff",
		eval:        inSourceDiff,
	},
}

// Evaluate runs every rule and returns the checks in C1..C7 order.
// The only error is a cancelled context.
func Evaluate(ctx context.Context, in Input, opts Options) ([]Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	examples := make([][]string, len(All))

	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range All {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				examples[i] = definitions[id].eval(&in)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to evaluate rules: %w", err)
		}
	} else {
		for i, id := range All {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("failed to evaluate rules: %w", err)
			}
			examples[i] = definitions[id].eval(&in)
		}
	}

	checks := make([]Check, len(All))
	violated := 0
	for i, id := range All {
		ex := examples[i]
		if ex == nil {
			ex = []string{}
		}
		checks[i] = Check{
			ID:          id,
			Key:         id.Key(),
			HasProblem:  len(ex) > 0,
			Examples:    ex,
			Description: id.Description(),
		}
		if checks[i].HasProblem {
			violated++
		}
	}

	logging.Debug("evaluated rules", "rows", len(in.Rows), "violated", violated, "parallel", opts.Parallel)
	return checks, nil
}

// collect returns the names of rows in scope for which violates holds, in row order.
func collect(rows []matrix.Row, scope func(manifest.Set) bool, violates func(matrix.Row) bool) []string {
	var out []string
	for _, r := range rows {
		if scope(r.Set) && violates(r) {
			out = append(out, r.Name)
		}
	}
	return out
}

func anySet(manifest.Set) bool    { return true }
func onlyF2P(s manifest.Set) bool { return s == manifest.F2P }
func onlyP2P(s manifest.Set) bool { return s == manifest.P2P }
