// Package matrix joins the manifest with the parsed stage logs into one row
// of statuses per declared test.
package matrix

import (
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
)

// Row holds the status of one declared test in each stage.
type Row struct {
	Name     string
	Set      manifest.Set
	Statuses [logparser.NumStages]logparser.Status
}

// Status returns the row's status in stage.
func (r Row) Status(stage logparser.Stage) logparser.Status {
	if stage < 0 || int(stage) >= logparser.NumStages {
		return logparser.Missing
	}
	return r.Statuses[stage]
}

// MissingEverywhere reports whether the test appears in none of the logs.
func (r Row) MissingEverywhere() bool {
	for _, s := range r.Statuses {
		if s != logparser.Missing {
			return false
		}
	}
	return true
}

// Build returns F2P rows in manifest order followed by P2P rows in manifest order.
func Build(m *manifest.Manifest, docs logparser.Documents) []Row {
	if m == nil {
		return nil
	}

	rows := make([]Row, 0, len(m.FailToPass)+len(m.PassToPass))
	add := func(name string, set manifest.Set) {
		row := Row{Name: name, Set: set}
		for _, stage := range logparser.Stages {
			row.Statuses[stage] = docs.Get(stage).Lookup(name)
		}
		rows = append(rows, row)
	}

	for _, name := range m.FailToPass {
		add(name, manifest.F2P)
	}
	for _, name := range m.PassToPass {
		add(name, manifest.P2P)
	}
	return rows
}
