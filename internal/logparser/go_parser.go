package logparser

import (
	"regexp"
	"strings"
)

// GoTestParser parses raw `go test -v` output, including gotestsum's format.
type GoTestParser struct{}

var (
	// Standard go test result: --- PASS: TestName (duration)
	goTestResultPattern = regexp.MustCompile(`^\s*---\s*(PASS|FAIL|SKIP):\s*(\S+)\s*\([\d.]+s\)`)

	// Gotestsum format: === FAIL: package TestName (duration)
	gotestsumResultPattern = regexp.MustCompile(`^\s*===\s*(PASS|FAIL|SKIP):\s*(\S+)\s+(\S+)\s*\([\d.]+s\)`)
)

// Name implements Parser.
func (p *GoTestParser) Name() string { return "gotest" }

// CanParse returns true if the log contains Go test result lines.
func (p *GoTestParser) CanParse(logContent string) bool {
	cleaned := CleanLog(logContent)
	return strings.Contains(cleaned, "--- PASS:") ||
		strings.Contains(cleaned, "--- FAIL:") ||
		strings.Contains(cleaned, "=== PASS:") ||
		strings.Contains(cleaned, "=== FAIL:")
}

// Parse extracts one entry per result line. A test reported by both the
// standard and the gotestsum summary line counts once per format, and the
// larger of the two counts is kept.
func (p *GoTestParser) Parse(logContent string) ([]Entry, error) {
	standard := newTally()
	summary := newTally()

	for _, raw := range strings.Split(logContent, "\n") {
		line := CleanLine(raw)

		if m := gotestsumResultPattern.FindStringSubmatch(line); len(m) == 4 {
			summary.add(m[3], goStatus(m[1]))
			continue
		}
		if m := goTestResultPattern.FindStringSubmatch(line); len(m) == 3 {
			standard.add(m[2], goStatus(m[1]))
		}
	}

	return mergeTallies(standard, summary), nil
}

func goStatus(word string) string {
	switch word {
	case "PASS":
		return "passed"
	case "FAIL":
		return "failed"
	default:
		return "skipped"
	}
}
