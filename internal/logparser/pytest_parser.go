package logparser

import (
	"regexp"
	"strings"
)

// PytestParser parses raw pytest output in verbose (-v) and short summary (-rA) forms.
type PytestParser struct{}

var (
	// Verbose result line: tests/test_api.py::test_login PASSED [ 10%]
	pytestVerbosePattern = regexp.MustCompile(`^(\S+::\S+)\s+(PASSED|FAILED|ERROR|SKIPPED|XFAIL|XPASS)\b`)

	// Short summary line: FAILED tests/test_api.py::test_login - AssertionError
	pytestSummaryPattern = regexp.MustCompile(`^(PASSED|FAILED|ERROR|SKIPPED|XFAIL|XPASS)\s+(\S+::\S+)`)
)

// Name implements Parser.
func (p *PytestParser) Name() string { return "pytest" }

// CanParse returns true if the log contains pytest node ids with an outcome.
func (p *PytestParser) CanParse(logContent string) bool {
	for _, raw := range strings.Split(logContent, "\n") {
		line := strings.TrimSpace(CleanLine(raw))
		if pytestVerbosePattern.MatchString(line) || pytestSummaryPattern.MatchString(line) {
			return true
		}
	}
	return false
}

// Parse extracts entries from both forms, treating the summary as an echo of
// the verbose lines.
func (p *PytestParser) Parse(logContent string) ([]Entry, error) {
	verbose := newTally()
	summary := newTally()

	for _, raw := range strings.Split(logContent, "\n") {
		line := strings.TrimSpace(CleanLine(raw))

		if m := pytestSummaryPattern.FindStringSubmatch(line); len(m) == 3 {
			summary.add(m[2], pytestStatus(m[1]))
			continue
		}
		if m := pytestVerbosePattern.FindStringSubmatch(line); len(m) == 3 {
			verbose.add(m[1], pytestStatus(m[2]))
		}
	}

	return mergeTallies(verbose, summary), nil
}

func pytestStatus(word string) string {
	switch word {
	case "PASSED", "XPASS":
		return "passed"
	case "FAILED", "ERROR":
		return "failed"
	default:
		return "skipped"
	}
}
