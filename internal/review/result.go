package review

import (
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
	"github.com/newhook/swereview/internal/matrix"
	"github.com/newhook/swereview/internal/rules"
	"github.com/newhook/swereview/internal/search"
)

// Result is the outcome of one analysis. It is immutable once returned and
// safe for concurrent reads.
type Result struct {
	Manifest *manifest.Manifest
	Rows     []matrix.Row
	Checks   []rules.Check
	Warnings []Warning

	docs         logparser.Documents
	index        *search.Index
	contextLines int
	rowByName    map[string]int
	rulesByName  map[string][]rules.ID
}

func newResult(m *manifest.Manifest, docs logparser.Documents, rows []matrix.Row, checks []rules.Check, warnings []Warning, contextLines int) *Result {
	if contextLines < 0 {
		contextLines = search.DefaultContextLines
	}
	r := &Result{
		Manifest:     m,
		Rows:         rows,
		Checks:       checks,
		Warnings:     warnings,
		docs:         docs,
		index:        search.NewIndex(docs),
		contextLines: contextLines,
		rowByName:    make(map[string]int, len(rows)),
		rulesByName:  make(map[string][]rules.ID),
	}
	for i, row := range rows {
		r.rowByName[row.Name] = i
	}
	for _, c := range checks {
		for _, name := range c.Examples {
			ids := r.rulesByName[name]
			if len(ids) == 0 || ids[len(ids)-1] != c.ID {
				r.rulesByName[name] = append(ids, c.ID)
			}
		}
	}
	return r
}

// Document returns the parsed log of stage.
func (r *Result) Document(stage logparser.Stage) *logparser.Document {
	return r.docs.Get(stage)
}

// Status returns the status of name in stage, whether or not name is declared.
func (r *Result) Status(name string, stage logparser.Stage) logparser.Status {
	return r.docs.Get(stage).Lookup(name)
}

// Row returns the matrix row of a declared test.
func (r *Result) Row(name string) (matrix.Row, bool) {
	i, ok := r.rowByName[name]
	if !ok {
		return matrix.Row{}, false
	}
	return r.Rows[i], true
}

// Check returns the outcome of one rule.
func (r *Result) Check(id rules.ID) (rules.Check, bool) {
	for _, c := range r.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return rules.Check{}, false
}

// HasProblems reports whether any rule found a violation.
func (r *Result) HasProblems() bool {
	for _, c := range r.Checks {
		if c.HasProblem {
			return true
		}
	}
	return false
}

// Violated returns the ids of rules with at least one example.
func (r *Result) Violated() []rules.ID {
	var ids []rules.ID
	for _, c := range r.Checks {
		if c.HasProblem {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Violation summarises what is wrong with one test.
type Violation struct {
	Rules          []rules.ID `json:"rules"`
	MissingInAfter bool       `json:"missing_in_after"`
	FailedInAfter  bool       `json:"failed_in_after"`
}

// Any reports whether the test violates anything.
func (v Violation) Any() bool {
	return len(v.Rules) > 0 || v.MissingInAfter || v.FailedInAfter
}

// Violations returns the rules naming the test plus its after-stage flags.
// The flags are recomputed from the row on every call.
func (r *Result) Violations(name string) Violation {
	v := Violation{Rules: append([]rules.ID(nil), r.rulesByName[name]...)}
	if row, ok := r.Row(name); ok {
		after := row.Status(logparser.After)
		v.MissingInAfter = after == logparser.Missing
		v.FailedInAfter = after == logparser.Failed
	}
	return v
}

// MissingEverywhere returns declared tests that appear in none of the logs.
func (r *Result) MissingEverywhere() []string {
	var names []string
	for _, row := range r.Rows {
		if row.MissingEverywhere() {
			names = append(names, row.Name)
		}
	}
	return names
}

// Search finds every line mentioning name in each stage log.
// A negative contextLines uses the analysis default.
func (r *Result) Search(name string, contextLines int) SearchResults {
	if contextLines < 0 {
		contextLines = r.contextLines
	}
	return SearchResults(r.index.FindAll(name, contextLines))
}
