// Package logparser turns one stage's raw log text into a Document of
// (test name, status) records. Several historical log shapes are supported
// through a registry of parsers; text that no parser accepts degrades to an
// empty document instead of failing the analysis.
package logparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newhook/swereview/internal/logging"
)

var (
	// ErrUnrecognized is returned (wrapped in Document.Err) when no parser accepts a log.
	ErrUnrecognized = errors.New("unrecognized log format")
	// ErrMalformed is set on Document.Err when a log parses but none of its entries names a test.
	ErrMalformed = errors.New("no entry has a test name")
)

// Parser is implemented by every log format.
type Parser interface {
	// Name identifies the parser in documents and debug logs.
	Name() string
	// CanParse returns true if this parser can handle the given log content.
	CanParse(logContent string) bool
	// Parse extracts test-result entries from the log content.
	Parse(logContent string) ([]Entry, error)
}

// parsers is the registry of available parsers, tried in order.
// Structured formats come first so a JSON log quoting test output is not
// mistaken for raw runner output.
var parsers = []Parser{
	&JSONParser{},
	&GoTestParser{},
	&PytestParser{},
}

// RegisterParser appends a parser to the registry.
func RegisterParser(p Parser) {
	parsers = append(parsers, p)
}

// Parse builds the Document for one stage.
// It never fails: unparseable text yields a degraded document whose lookups
// all return Missing, with the reason in Document.Err.
func Parse(stage Stage, logContent string) *Document {
	lines := SplitLines(logContent)

	if strings.TrimSpace(logContent) == "" {
		return newDocument(stage, lines, "", nil)
	}

	var errs []error
	for _, p := range parsers {
		if !p.CanParse(logContent) {
			continue
		}
		entries, err := p.Parse(logContent)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue // Try next parser
		}
		doc := newDocument(stage, lines, p.Name(), entries)
		if len(entries) > 0 && doc.Malformed() == len(entries) {
			err := fmt.Errorf("%s: %w (%d entries)", p.Name(), ErrMalformed, len(entries))
			logging.Warn("stage log degraded", "stage", stage.String(), "error", err)
			degraded := degradedDocument(stage, lines, err)
			degraded.Parser = p.Name()
			degraded.malformed = doc.Malformed()
			return degraded
		}
		logging.Debug("parsed stage log",
			"stage", stage.String(),
			"parser", p.Name(),
			"tests", doc.Len(),
			"skipped", doc.Skipped(),
			"malformed", doc.Malformed(),
			"conflicts", len(doc.conflicts))
		return doc
	}

	err := ErrUnrecognized
	if len(errs) > 0 {
		err = fmt.Errorf("%w: %w", ErrUnrecognized, errors.Join(errs...))
	}
	logging.Warn("stage log degraded", "stage", stage.String(), "error", err)
	return degradedDocument(stage, lines, err)
}

// SplitLines splits text into lines without their terminators.
// A trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
