package logparser

import "strings"

// Document is the parsed form of one stage log.
// It keeps the raw lines verbatim for search and maps each test name to exactly
// one Status. A name reported as both passing and failing is recorded as a
// conflict and resolves to Failed.
type Document struct {
	Stage  Stage
	Lines  []string // raw lines; line N is Lines[N-1]
	Parser string   // name of the parser that produced the entries, empty if none
	Err    error    // set when the log could not be parsed

	statuses  map[string]Status
	counts    map[string]int
	order     []string
	conflicts []string
	skipped   int
	malformed int
}

// newDocument builds a document from parser entries in a single pass.
func newDocument(stage Stage, lines []string, parser string, entries []Entry) *Document {
	doc := &Document{
		Stage:    stage,
		Lines:    lines,
		Parser:   parser,
		statuses: make(map[string]Status, len(entries)),
		counts:   make(map[string]int, len(entries)),
	}

	conflicted := make(map[string]bool)
	for _, e := range entries {
		if e.Malformed || e.TestName == "" {
			doc.malformed++
			continue
		}
		status, ok := NormalizeStatus(e.Status)
		if !ok {
			doc.skipped++
			continue
		}

		n := e.Occurrences
		if n < 1 {
			n = 1
		}

		prev, seen := doc.statuses[e.TestName]
		if !seen {
			doc.order = append(doc.order, e.TestName)
			doc.statuses[e.TestName] = status
		} else if prev != status {
			// Failed beats Passed; the conflict stays visible.
			doc.statuses[e.TestName] = Failed
			if !conflicted[e.TestName] {
				conflicted[e.TestName] = true
				doc.conflicts = append(doc.conflicts, e.TestName)
			}
		}
		doc.counts[e.TestName] += n
	}

	return doc
}

// degradedDocument returns a document whose every lookup is Missing.
func degradedDocument(stage Stage, lines []string, err error) *Document {
	return &Document{Stage: stage, Lines: lines, Err: err}
}

// Lookup returns the status recorded for name, or Missing.
func (d *Document) Lookup(name string) Status {
	if d == nil {
		return Missing
	}
	return d.statuses[name]
}

// Occurrences returns how many recognized records the log holds for name.
func (d *Document) Occurrences(name string) int {
	if d == nil {
		return 0
	}
	return d.counts[name]
}

// Degraded reports whether the log failed to parse.
func (d *Document) Degraded() bool {
	return d != nil && d.Err != nil
}

// Empty reports whether the raw log had no content.
func (d *Document) Empty() bool {
	if d == nil {
		return true
	}
	for _, l := range d.Lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// Names returns the recorded test names in first-seen order.
func (d *Document) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.order...)
}

// Conflicts returns names recorded with both Passed and Failed, in first-seen order.
func (d *Document) Conflicts() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.conflicts...)
}

// Duplicates returns names with more than one recognized record, in first-seen order.
func (d *Document) Duplicates() []string {
	if d == nil {
		return nil
	}
	var dups []string
	for _, name := range d.order {
		if d.counts[name] > 1 {
			dups = append(dups, name)
		}
	}
	return dups
}

// Skipped returns the number of entries dropped because their status was
// outside the vocabulary (e.g. "non_existing").
func (d *Document) Skipped() int {
	if d == nil {
		return 0
	}
	return d.skipped
}

// Malformed returns the number of entries dropped because they carry no test name.
func (d *Document) Malformed() int {
	if d == nil {
		return 0
	}
	return d.malformed
}

// Len returns the number of distinct recorded test names.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}
