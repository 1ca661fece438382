package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/matrix"
)

func failedInBase(in *Input) []string {
	return collect(in.Rows, onlyP2P, func(r matrix.Row) bool {
		return r.Status(logparser.Base) == logparser.Failed
	})
}

// NotPassingAfter is the C2 predicate for one row.
func NotPassingAfter(r matrix.Row) bool {
	return r.Status(logparser.After) != logparser.Passed
}

func notPassingAfter(in *Input) []string {
	return collect(in.Rows, anySet, NotPassingAfter)
}

func passedBefore(in *Input) []string {
	return collect(in.Rows, onlyF2P, func(r matrix.Row) bool {
		return r.Status(logparser.Before) == logparser.Passed
	})
}

func missingBaseNotPassingBefore(in *Input) []string {
	return collect(in.Rows, onlyP2P, func(r matrix.Row) bool {
		return r.Status(logparser.Base) == logparser.Missing &&
			r.Status(logparser.Before) != logparser.Passed
	})
}

func duplicates(in *Input) []string {
	return collect(in.Rows, anySet, func(r matrix.Row) bool {
		if in.Manifest.Duplicated(r.Name) {
			return true
		}
		for _, stage := range logparser.Stages {
			if in.Docs.Get(stage).Occurrences(r.Name) > 1 {
				return true
			}
		}
		return false
	})
}

func declaredDiffers(in *Input) []string {
	return collect(in.Rows, anySet, func(r matrix.Row) bool {
		observed := r.Status(logparser.Agent)
		if observed == logparser.Missing {
			return false
		}
		declared := logparser.Passed
		if in.Declared != nil {
			declared = in.Declared.Lookup(r.Name)
			if declared == logparser.Missing {
				return false
			}
		}
		return observed != declared
	})
}

func inSourceDiff(in *Input) []string {
	diff := in.SourceDiff
	if diff == "" && in.Manifest != nil {
		diff = in.Manifest.SourceDiff
	}
	changed := ChangedLines(diff)
	if len(changed) == 0 {
		return nil
	}
	return collect(in.Rows, onlyF2P, func(r matrix.Row) bool {
		if r.Name == "" {
			return false
		}
		for _, line := range changed {
			if strings.Contains(line, r.Name) {
				return true
			}
		}
		return false
	})
}

// hunkHeader matches "@@ -start[,count] +start[,count] @@".
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,(\d+))? \+\d+(?:,(\d+))? @@`)

// ChangedLines returns the added and removed lines of a unified diff.
// Inside a hunk, whose extent comes from the "@@" header, every +/- line
// counts, including a removed line that itself starts with "--". Outside a
// hunk only "---"/"+++" file headers are skipped, which tolerates patches with
// miscounted headers.
func ChangedLines(diff string) []string {
	var out []string
	var oldLeft, newLeft int
	for _, line := range logparser.SplitLines(diff) {
		if oldLeft <= 0 && newLeft <= 0 {
			if m := hunkHeader.FindStringSubmatch(line); m != nil {
				oldLeft, newLeft = hunkCount(m[1]), hunkCount(m[2])
				continue
			}
			if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
				continue
			}
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "+") {
				out = append(out, line[1:])
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "-"):
			oldLeft--
			out = append(out, line[1:])
		case strings.HasPrefix(line, "+"):
			newLeft--
			out = append(out, line[1:])
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		default:
			oldLeft--
			newLeft--
		}
	}
	return out
}

func hunkCount(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
