// Package search answers "every line mentioning test X" queries over the raw
// stage logs. Queries never mutate the index and may run concurrently.
package search

import (
	"strings"

	"github.com/newhook/swereview/internal/logparser"
)

// DefaultContextLines is the number of context lines shown on each side of a match.
const DefaultContextLines = 3

// Match is one line containing the queried name.
type Match struct {
	Stage  logparser.Stage `json:"stage"`
	Line   int             `json:"line"` // 1-based
	Text   string          `json:"text"`
	Before []string        `json:"before"`
	After  []string        `json:"after"`
}

// Index holds the raw lines of each stage.
type Index struct {
	lines [logparser.NumStages][]string
}

// NewIndex builds an index over parsed documents. Only raw lines are used.
func NewIndex(docs logparser.Documents) *Index {
	idx := &Index{}
	for _, stage := range logparser.Stages {
		idx.lines[stage] = docs.Get(stage).Lines
	}
	return idx
}

// FromText builds an index straight from raw log text, skipping parsing.
func FromText(logs map[logparser.Stage]string) *Index {
	idx := &Index{}
	for stage, text := range logs {
		if stage >= 0 && int(stage) < logparser.NumStages {
			idx.lines[stage] = logparser.SplitLines(text)
		}
	}
	return idx
}

// Find returns every line of stage containing name, in ascending line order.
// A negative contextLines means DefaultContextLines. An empty name matches nothing.
func (idx *Index) Find(stage logparser.Stage, name string, contextLines int) []Match {
	if idx == nil || name == "" || stage < 0 || int(stage) >= logparser.NumStages {
		return nil
	}
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	lines := idx.lines[stage]
	var matches []Match
	for i, line := range lines {
		if !strings.Contains(line, name) {
			continue
		}
		lo := max(0, i-contextLines)
		hi := min(len(lines), i+1+contextLines)
		matches = append(matches, Match{
			Stage:  stage,
			Line:   i + 1,
			Text:   line,
			Before: append([]string{}, lines[lo:i]...),
			After:  append([]string{}, lines[i+1:hi]...),
		})
	}
	return matches
}

// FindAll runs Find for every stage. Every stage has an entry, possibly empty.
func (idx *Index) FindAll(name string, contextLines int) map[logparser.Stage][]Match {
	out := make(map[logparser.Stage][]Match, logparser.NumStages)
	for _, stage := range logparser.Stages {
		m := idx.Find(stage, name, contextLines)
		if m == nil {
			m = []Match{}
		}
		out[stage] = m
	}
	return out
}

// LineCount returns the number of raw lines in stage.
func (idx *Index) LineCount(stage logparser.Stage) int {
	if idx == nil || stage < 0 || int(stage) >= logparser.NumStages {
		return 0
	}
	return len(idx.lines[stage])
}
