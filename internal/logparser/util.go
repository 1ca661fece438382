package logparser

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var (
	// timestampPattern matches CI log timestamp prefixes.
	// Format: 2026-01-26T14:49:40.7760945Z
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z\s*`)

	// bracketTimePattern matches "[14:49:40] " style prefixes written by test harness wrappers.
	bracketTimePattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}(\.\d+)?\]\s*`)
)

// CleanLine strips ANSI escapes and timestamp prefixes from one line.
// Input:  "2026-01-26T14:49:40.7760945Z \x1b[32m--- PASS\x1b[0m: TestName"
// Output: "--- PASS: TestName"
func CleanLine(line string) string {
	line = ansi.Strip(line)
	line = timestampPattern.ReplaceAllString(line, "")
	line = bracketTimePattern.ReplaceAllString(line, "")
	return strings.TrimRight(line, "\r")
}

// CleanLog applies CleanLine to every line of a log.
// Only pattern matching sees cleaned text; documents keep the raw lines.
func CleanLog(log string) string {
	lines := strings.Split(log, "\n")
	for i, line := range lines {
		lines[i] = CleanLine(line)
	}
	return strings.Join(lines, "\n")
}
