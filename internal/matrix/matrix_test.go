package matrix

import (
	"testing"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ManifestOrder(t *testing.T) {
	m := manifest.Parse(`{"fail_to_pass": ["z", "y", "x"], "pass_to_pass": ["c", "b", "a"]}`)

	rows := Build(m, logparser.Documents{})

	require.Len(t, rows, 6)
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"z", "y", "x", "c", "b", "a"}, names)
	assert.Equal(t, manifest.F2P, rows[2].Set)
	assert.Equal(t, manifest.P2P, rows[3].Set)
}

func TestBuild_Statuses(t *testing.T) {
	m := manifest.Parse(`{"fail_to_pass": ["t1"], "pass_to_pass": ["t2", "ghost"]}`)

	var docs logparser.Documents
	docs[logparser.Base] = logparser.Parse(logparser.Base, `[{"test_name": "t2", "status": "passed"}]`)
	docs[logparser.Before] = logparser.Parse(logparser.Before, `[{"test_name": "t1", "status": "failed"}, {"test_name": "t2", "status": "passed"}]`)
	docs[logparser.After] = logparser.Parse(logparser.After, `[{"test_name": "t1", "status": "passed"}, {"test_name": "t2", "status": "passed"}]`)

	rows := Build(m, docs)
	require.Len(t, rows, 3)

	t1 := rows[0]
	assert.Equal(t, logparser.Missing, t1.Status(logparser.Base))
	assert.Equal(t, logparser.Failed, t1.Status(logparser.Before))
	assert.Equal(t, logparser.Passed, t1.Status(logparser.After))
	assert.Equal(t, logparser.Missing, t1.Status(logparser.Agent))
	assert.False(t, t1.MissingEverywhere())

	ghost := rows[2]
	assert.Equal(t, "ghost", ghost.Name)
	assert.True(t, ghost.MissingEverywhere())
}

func TestBuild_NilManifest(t *testing.T) {
	assert.Nil(t, Build(nil, logparser.Documents{}))
}

func TestRow_StatusOutOfRange(t *testing.T) {
	r := Row{Name: "t"}
	assert.Equal(t, logparser.Missing, r.Status(logparser.Stage(9)))
}
