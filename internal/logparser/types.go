package logparser

import (
	"fmt"
	"strings"
)

// Status is the outcome of one test in one stage log.
type Status int

const (
	// Missing means the test name does not appear in the stage log at all.
	Missing Status = iota
	// Passed means the log records the test as passing.
	Passed
	// Failed means the log records the test as failing.
	Failed
)

// String returns the lower-case name used in reports.
func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "missing"
	}
}

// MarshalText implements encoding.TextMarshaler so statuses render as words in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NormalizeStatus maps a raw status token onto Passed or Failed.
// The second return value is false for tokens outside the vocabulary
// (e.g. "non_existing", "skipped"); such entries are not recorded.
func NormalizeStatus(token string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "passed", "pass", "success", "ok":
		return Passed, true
	case "failed", "fail", "failure", "error":
		return Failed, true
	default:
		return Missing, false
	}
}

// Stage identifies one of the four log snapshots of a deliverable.
type Stage int

const (
	// Base is the log of the repository before any change.
	Base Stage = iota
	// Before is the log with the test changes applied but not the fix.
	Before
	// After is the log with the golden fix applied.
	After
	// Agent is the log with the agent's patch applied.
	Agent

	// NumStages is the number of stages in a deliverable.
	NumStages = 4
)

// Stages lists every stage in report order.
var Stages = [NumStages]Stage{Base, Before, After, Agent}

// String returns the stage identifier used in reports and flags.
func (s Stage) String() string {
	switch s {
	case Base:
		return "base"
	case Before:
		return "before"
	case After:
		return "after"
	case Agent:
		return "agent"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so stages can key JSON objects.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStage resolves a stage identifier. "post_agent_patch" is accepted as an alias
// for the agent stage since that is how deliverables name the file.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "base":
		return Base, nil
	case "before":
		return Before, nil
	case "after":
		return After, nil
	case "agent", "post_agent_patch":
		return Agent, nil
	default:
		return 0, fmt.Errorf("unknown stage %q (valid: base, before, after, agent)", name)
	}
}

// Entry is one test-result record produced by a parser.
type Entry struct {
	TestName    string // e.g., "tests/test_api.py::test_login"
	Status      string // raw token, normalized later
	Occurrences int    // times the record was seen; values below 1 count as 1
	Malformed   bool   // the record has no usable test name
}

// Documents holds one parsed document per stage, indexed by Stage.
type Documents [NumStages]*Document

// Get returns the document for stage, or an empty document if none was set.
func (d Documents) Get(stage Stage) *Document {
	if stage < 0 || int(stage) >= NumStages || d[stage] == nil {
		return &Document{Stage: stage}
	}
	return d[stage]
}
