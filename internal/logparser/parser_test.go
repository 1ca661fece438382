package logparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONRoundTrip(t *testing.T) {
	log := `[{"test_name": "t1", "status": "passed"}, {"test_name": "t2", "status": "failed"}]`

	doc := Parse(Before, log)

	require.NoError(t, doc.Err)
	assert.False(t, doc.Degraded())
	assert.Equal(t, "json", doc.Parser)
	assert.Equal(t, Before, doc.Stage)
	assert.Equal(t, Passed, doc.Lookup("t1"))
	assert.Equal(t, Failed, doc.Lookup("t2"))
	assert.Equal(t, Missing, doc.Lookup("t3"))
	assert.Equal(t, []string{"t1", "t2"}, doc.Names())
}

func TestParse_NotJSONDegrades(t *testing.T) {
	doc := Parse(Agent, "not json")

	assert.True(t, doc.Degraded())
	assert.True(t, errors.Is(doc.Err, ErrUnrecognized))
	assert.False(t, doc.Empty())
	assert.Equal(t, 0, doc.Len())
	assert.Equal(t, Missing, doc.Lookup("t1"))
	assert.Equal(t, []string{"not json"}, doc.Lines)
}

func TestParse_InvalidJSONWrapsParserError(t *testing.T) {
	doc := Parse(After, `[{"test_name": "t1", "status": "passed"`)

	require.True(t, doc.Degraded())
	assert.ErrorIs(t, doc.Err, ErrUnrecognized)
	assert.ErrorIs(t, doc.Err, errInvalidJSON)
	assert.Contains(t, doc.Err.Error(), "json:")
}

func TestParse_EmptyLog(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty string", input: ""},
		{name: "Whitespace only", input: "  \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(Base, tt.input)
			assert.False(t, doc.Degraded())
			assert.True(t, doc.Empty())
			assert.Equal(t, 0, doc.Len())
			assert.Equal(t, Missing, doc.Lookup("anything"))
		})
	}
}

func TestParse_StatusVocabulary(t *testing.T) {
	log := `[
		{"test_name": "a", "status": "PASS"},
		{"test_name": "b", "status": " Success "},
		{"test_name": "c", "status": "ok"},
		{"test_name": "d", "status": "Error"},
		{"test_name": "e", "status": "failure"},
		{"test_name": "f", "status": "non_existing"},
		{"test_name": "g", "status": "skipped"},
		{"test_name": "", "status": "passed"},
		{"test_name": 42, "status": "passed"}
	]`

	doc := Parse(After, log)

	require.False(t, doc.Degraded())
	assert.Equal(t, Passed, doc.Lookup("a"))
	assert.Equal(t, Passed, doc.Lookup("b"))
	assert.Equal(t, Passed, doc.Lookup("c"))
	assert.Equal(t, Failed, doc.Lookup("d"))
	assert.Equal(t, Failed, doc.Lookup("e"))
	assert.Equal(t, Missing, doc.Lookup("f"))
	assert.Equal(t, Missing, doc.Lookup("g"))
	assert.Equal(t, 0, doc.Occurrences("f"))
	assert.Equal(t, 2, doc.Skipped())
	assert.Equal(t, 2, doc.Malformed())
	assert.Equal(t, 5, doc.Len())
}

func TestParse_AllEntriesMalformed(t *testing.T) {
	doc := Parse(After, `[{"name": "t1", "status": "passed"}, {"name": "t2", "status": "passed"}]`)

	require.True(t, doc.Degraded())
	assert.ErrorIs(t, doc.Err, ErrMalformed)
	assert.Equal(t, "json", doc.Parser)
	assert.Equal(t, 2, doc.Malformed())
	assert.Equal(t, Missing, doc.Lookup("t1"))
}

func TestParse_EmptyArrayIsNotMalformed(t *testing.T) {
	doc := Parse(After, `[]`)

	assert.False(t, doc.Degraded())
	assert.Equal(t, 0, doc.Malformed())
}

func TestParse_ConflictResolvesToFailed(t *testing.T) {
	log := `[
		{"test_name": "t1", "status": "passed"},
		{"test_name": "t1", "status": "failed"},
		{"test_name": "t1", "status": "passed"},
		{"test_name": "t2", "status": "passed"}
	]`

	doc := Parse(After, log)

	assert.Equal(t, Failed, doc.Lookup("t1"))
	assert.Equal(t, Passed, doc.Lookup("t2"))
	assert.Equal(t, []string{"t1"}, doc.Conflicts())
	assert.Equal(t, 3, doc.Occurrences("t1"))
	assert.Equal(t, []string{"t1"}, doc.Duplicates())
}

func TestParse_TestResultsObject(t *testing.T) {
	log := `{"test_results": [
		{"test_name": "t1", "status": "passed", "occurences": 2},
		{"test_name": "t2", "status": "failed", "occurrences": 1}
	]}`

	doc := Parse(Base, log)

	require.False(t, doc.Degraded())
	assert.Equal(t, Passed, doc.Lookup("t1"))
	assert.Equal(t, Failed, doc.Lookup("t2"))
	assert.Equal(t, 2, doc.Occurrences("t1"))
	assert.Equal(t, []string{"t1"}, doc.Duplicates())
}

func TestParse_ObjectWithoutResultsDegrades(t *testing.T) {
	doc := Parse(Base, `{"results": []}`)

	assert.True(t, doc.Degraded())
	assert.ErrorIs(t, doc.Err, errNoResultList)
}

func TestParse_FallsThroughToTextParsers(t *testing.T) {
	log := "=== RUN   TestA\n--- PASS: TestA (0.00s)\n=== RUN   TestB\n--- FAIL: TestB (0.01s)\nFAIL\n"

	doc := Parse(After, log)

	require.False(t, doc.Degraded())
	assert.Equal(t, "gotest", doc.Parser)
	assert.Equal(t, Passed, doc.Lookup("TestA"))
	assert.Equal(t, Failed, doc.Lookup("TestB"))
	assert.Len(t, doc.Lines, 5)
}

type fakeParser struct{ entries []Entry }

func (f *fakeParser) Name() string                  { return "fake" }
func (f *fakeParser) CanParse(s string) bool        { return s == "fake-format" }
func (f *fakeParser) Parse(string) ([]Entry, error) { return f.entries, nil }

func TestRegisterParser(t *testing.T) {
	saved := parsers
	t.Cleanup(func() { parsers = saved })

	RegisterParser(&fakeParser{entries: []Entry{{TestName: "x", Status: "passed"}}})

	doc := Parse(Before, "fake-format")
	assert.Equal(t, "fake", doc.Parser)
	assert.Equal(t, Passed, doc.Lookup("x"))
	assert.Equal(t, 1, doc.Occurrences("x"))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "Empty", input: "", expected: nil},
		{name: "Single line", input: "a", expected: []string{"a"}},
		{name: "Trailing newline", input: "a\nb\n", expected: []string{"a", "b"}},
		{name: "CRLF", input: "a\r\nb\r\n", expected: []string{"a", "b"}},
		{name: "Blank lines kept", input: "a\n\nb", expected: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitLines(tt.input))
		})
	}
}

func TestDocuments_Get(t *testing.T) {
	var docs Documents
	docs[After] = Parse(After, `[{"test_name": "t1", "status": "passed"}]`)

	assert.Equal(t, Passed, docs.Get(After).Lookup("t1"))

	empty := docs.Get(Agent)
	require.NotNil(t, empty)
	assert.Equal(t, Agent, empty.Stage)
	assert.Equal(t, Missing, empty.Lookup("t1"))
	assert.True(t, empty.Empty())
}

func TestNilDocument(t *testing.T) {
	var doc *Document

	assert.Equal(t, Missing, doc.Lookup("t"))
	assert.Equal(t, 0, doc.Occurrences("t"))
	assert.False(t, doc.Degraded())
	assert.True(t, doc.Empty())
	assert.Nil(t, doc.Names())
	assert.Equal(t, 0, doc.Len())
}

func TestParseStage(t *testing.T) {
	for _, stage := range Stages {
		got, err := ParseStage(stage.String())
		require.NoError(t, err)
		assert.Equal(t, stage, got)
	}

	got, err := ParseStage(" Post_Agent_Patch ")
	require.NoError(t, err)
	assert.Equal(t, Agent, got)

	_, err = ParseStage("golden")
	assert.Error(t, err)
}
