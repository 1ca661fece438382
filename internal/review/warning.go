package review

import (
	"fmt"
	"strings"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
)

// WarningKind classifies a non-fatal problem found while analysing inputs.
type WarningKind string

const (
	// ParseDegraded means a stage log could not be parsed; its column is all Missing.
	ParseDegraded WarningKind = "parse_degraded"
	// StageEmpty means a stage log has no content.
	StageEmpty WarningKind = "stage_empty"
	// StatusConflict means a stage log reports a test as both passing and failing.
	StatusConflict WarningKind = "status_conflict"
	// ManifestUnreadable means the manifest text is not a JSON object.
	ManifestUnreadable WarningKind = "manifest_unreadable"
	// ManifestEmpty means neither test set declares a name.
	ManifestEmpty WarningKind = "manifest_empty"
	// ManifestOverlap means a name is declared in both test sets.
	ManifestOverlap WarningKind = "manifest_overlap"
	// ReportUnreadable means the declared-status report could not be parsed.
	ReportUnreadable WarningKind = "report_unreadable"
	// EntriesMalformed means some records of a stage log carry no test name and were dropped.
	EntriesMalformed WarningKind = "entries_malformed"
)

// Warning is attached to a Result instead of failing the analysis.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Stage   string      `json:"stage,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Kind, w.Stage, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

func stageWarnings(docs logparser.Documents) []Warning {
	var out []Warning
	for _, stage := range logparser.Stages {
		doc := docs.Get(stage)
		switch {
		case doc.Degraded():
			out = append(out, Warning{
				Kind:    ParseDegraded,
				Stage:   stage.String(),
				Message: fmt.Sprintf("log could not be parsed, all tests treated as missing: %v", doc.Err),
			})
		case doc.Empty():
			out = append(out, Warning{
				Kind:    StageEmpty,
				Stage:   stage.String(),
				Message: "log is empty",
			})
		case doc.Malformed() > 0:
			out = append(out, Warning{
				Kind:    EntriesMalformed,
				Stage:   stage.String(),
				Message: fmt.Sprintf("%d entries without a test name were dropped", doc.Malformed()),
			})
		}
		if conflicts := doc.Conflicts(); len(conflicts) > 0 {
			out = append(out, Warning{
				Kind:    StatusConflict,
				Stage:   stage.String(),
				Message: fmt.Sprintf("reported as both passed and failed (recorded as failed): %s", strings.Join(conflicts, ", ")),
			})
		}
	}
	return out
}

func manifestWarnings(m *manifest.Manifest) []Warning {
	if m.Err != nil {
		return []Warning{{Kind: ManifestUnreadable, Message: m.Err.Error()}}
	}
	var out []Warning
	if m.Empty() {
		out = append(out, Warning{Kind: ManifestEmpty, Message: "no fail_to_pass or pass_to_pass tests declared"})
	}
	if len(m.Overlap) > 0 {
		out = append(out, Warning{
			Kind:    ManifestOverlap,
			Message: fmt.Sprintf("declared in both sets (kept as fail_to_pass): %s", strings.Join(m.Overlap, ", ")),
		})
	}
	return out
}
