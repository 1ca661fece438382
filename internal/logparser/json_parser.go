package logparser

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONParser parses analysed stage logs stored as JSON. Two shapes exist:
//
//	[{"test_name": "t1", "status": "passed"}, ...]
//	{"test_results": [{"test_name": "t1", "status": "failed"}, ...]}
//
// Older files carry an "occurences" count per entry; it is honoured so that
// repeated runs of the same test stay visible.
type JSONParser struct{}

var (
	errInvalidJSON  = errors.New("invalid JSON")
	errNoResultList = errors.New("no test result list (expected an array or a test_results array)")
)

// Name implements Parser.
func (p *JSONParser) Name() string { return "json" }

// CanParse returns true if the content looks like a JSON array or object.
func (p *JSONParser) CanParse(logContent string) bool {
	trimmed := strings.TrimSpace(logContent)
	return strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")
}

// Parse extracts entries from either supported shape.
func (p *JSONParser) Parse(logContent string) ([]Entry, error) {
	if !gjson.Valid(logContent) {
		return nil, errInvalidJSON
	}

	root := gjson.Parse(logContent)
	list := root
	if root.IsObject() {
		list = root.Get("test_results")
	}
	if !list.IsArray() {
		return nil, errNoResultList
	}

	var entries []Entry
	list.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("test_name")
		if name.Type != gjson.String || name.String() == "" {
			entries = append(entries, Entry{Malformed: true})
			return true
		}
		entries = append(entries, Entry{
			TestName:    name.String(),
			Status:      item.Get("status").String(),
			Occurrences: occurrences(item),
		})
		return true
	})

	return entries, nil
}

// occurrences reads the per-entry repeat count under either spelling.
func occurrences(item gjson.Result) int {
	for _, key := range []string{"occurrences", "occurences"} {
		if v := item.Get(key); v.Type == gjson.Number {
			return int(v.Int())
		}
	}
	return 1
}
