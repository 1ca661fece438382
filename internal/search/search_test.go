package search

import (
	"testing"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexOf(stage logparser.Stage, text string) *Index {
	return FromText(map[logparser.Stage]string{stage: text})
}

func TestFind_TwoMatchesAscending(t *testing.T) {
	idx := indexOf(logparser.After, "l1\nrun test_x\nl3\nl4\nl5\ntest_x again\nl7\n")

	matches := idx.Find(logparser.After, "test_x", DefaultContextLines)

	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].Line)
	assert.Equal(t, "run test_x", matches[0].Text)
	assert.Equal(t, []string{"l1"}, matches[0].Before)
	assert.Equal(t, []string{"l3", "l4", "l5"}, matches[0].After)

	assert.Equal(t, 6, matches[1].Line)
	assert.Equal(t, []string{"l3", "l4", "l5"}, matches[1].Before)
	assert.Equal(t, []string{"l7"}, matches[1].After)

	c := NewCursor(len(matches)).Next()
	assert.Equal(t, 1, c.Pos())
	assert.Equal(t, 0, c.Next().Pos(), "next from the last wraps to the first")
}

func TestFind_Context(t *testing.T) {
	idx := indexOf(logparser.Base, "a\nb\nTEST\nc\nd")

	tests := []struct {
		name   string
		n      int
		before []string
		after  []string
	}{
		{name: "Zero", n: 0, before: []string{}, after: []string{}},
		{name: "One", n: 1, before: []string{"b"}, after: []string{"c"}},
		{name: "Clipped", n: 10, before: []string{"a", "b"}, after: []string{"c", "d"}},
		{name: "Negative uses default", n: -1, before: []string{"a", "b"}, after: []string{"c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := idx.Find(logparser.Base, "TEST", tt.n)
			require.Len(t, m, 1)
			assert.Equal(t, tt.before, m[0].Before)
			assert.Equal(t, tt.after, m[0].After)
		})
	}
}

func TestFind_CaseSensitiveSubstring(t *testing.T) {
	idx := indexOf(logparser.Before, "test_login\nTEST_LOGIN\ntests/test_login_extra")

	matches := idx.Find(logparser.Before, "test_login", 0)

	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].Line)
	assert.Equal(t, 3, matches[1].Line)
}

func TestFind_EmptyName(t *testing.T) {
	idx := indexOf(logparser.After, "anything")

	assert.Empty(t, idx.Find(logparser.After, "", 3))

	all := idx.FindAll("", 3)
	require.Len(t, all, logparser.NumStages)
	for _, stage := range logparser.Stages {
		assert.Empty(t, all[stage])
	}
}

func TestNewIndex_UsesRawLines(t *testing.T) {
	var docs logparser.Documents
	docs[logparser.Agent] = logparser.Parse(logparser.Agent, "not json\nmentions t1\n")

	idx := NewIndex(docs)

	matches := idx.Find(logparser.Agent, "t1", 3)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Line)
	assert.Equal(t, []string{"not json"}, matches[0].Before)
	assert.Equal(t, 2, idx.LineCount(logparser.Agent))
	assert.Equal(t, 0, idx.LineCount(logparser.Base))
}

func TestCursor(t *testing.T) {
	c := NewCursor(3)
	assert.Equal(t, 0, c.Pos())
	assert.Equal(t, 2, c.Prev().Pos())
	assert.Equal(t, 0, c.Next().Next().Next().Pos())
	assert.Equal(t, 1, At(3, 7).Pos())
	assert.Equal(t, 2, At(3, -1).Pos())

	empty := NewCursor(0)
	assert.Equal(t, -1, empty.Pos())
	assert.Equal(t, -1, empty.Next().Pos())
	assert.Equal(t, -1, empty.Prev().Pos())
}
