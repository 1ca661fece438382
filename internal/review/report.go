package review

import (
	"encoding/json"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/manifest"
	"github.com/newhook/swereview/internal/rules"
)

// Report is the serialisable form of a Result.
type Report struct {
	RuleChecks        map[string]RuleCheck `json:"rule_checks"`
	Violated          []rules.ID           `json:"violated"`
	Tests             []TestReport         `json:"tests"`
	MissingEverywhere []string             `json:"missing_everywhere"`
	Warnings          []Warning            `json:"warnings"`
	Parsers           map[string]string    `json:"parsers"`
}

// RuleCheck is one rule entry keyed by its stable key in Report.RuleChecks.
type RuleCheck struct {
	ID          rules.ID `json:"id"`
	HasProblem  bool     `json:"has_problem"`
	Examples    []string `json:"examples"`
	Description string   `json:"description"`
}

// TestReport is one matrix row with its violations.
type TestReport struct {
	Name       string                               `json:"name"`
	Set        manifest.Set                         `json:"set"`
	Statuses   map[logparser.Stage]logparser.Status `json:"statuses"`
	Violations Violation                            `json:"violations"`
}

// Report builds the serialisable report.
func (r *Result) Report() Report {
	rep := Report{
		RuleChecks:        make(map[string]RuleCheck, len(r.Checks)),
		Violated:          r.Violated(),
		Tests:             make([]TestReport, 0, len(r.Rows)),
		MissingEverywhere: r.MissingEverywhere(),
		Warnings:          r.Warnings,
		Parsers:           make(map[string]string, logparser.NumStages),
	}
	for _, c := range r.Checks {
		rep.RuleChecks[c.Key] = RuleCheck{
			ID:          c.ID,
			HasProblem:  c.HasProblem,
			Examples:    c.Examples,
			Description: c.Description,
		}
	}
	for _, row := range r.Rows {
		statuses := make(map[logparser.Stage]logparser.Status, logparser.NumStages)
		for _, stage := range logparser.Stages {
			statuses[stage] = row.Status(stage)
		}
		rep.Tests = append(rep.Tests, TestReport{
			Name:       row.Name,
			Set:        row.Set,
			Statuses:   statuses,
			Violations: r.Violations(row.Name),
		})
	}
	for _, stage := range logparser.Stages {
		rep.Parsers[stage.String()] = r.docs.Get(stage).Parser
	}
	if rep.Violated == nil {
		rep.Violated = []rules.ID{}
	}
	if rep.MissingEverywhere == nil {
		rep.MissingEverywhere = []string{}
	}
	if rep.Warnings == nil {
		rep.Warnings = []Warning{}
	}
	return rep
}

// JSON renders the report as indented JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Report(), "", "  ")
}
