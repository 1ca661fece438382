package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/newhook/swereview/internal/history"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/review"
	"github.com/newhook/swereview/internal/search"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 100

const maxExamples = 3

// whenWidth fits a "2006-01-02 15:04:05" timestamp plus two spaces.
const whenWidth = 21

// cell truncates s to width and pads it to exactly width.
func cell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		s = truncate.StringWithTail(s, uint(width), "…")
	}
	return padding.String(s, uint(width))
}

// Status renders a status word in its color.
func Status(s logparser.Status) string {
	switch s {
	case logparser.Passed:
		return okStyle.Render("passed")
	case logparser.Failed:
		return failStyle.Render("failed")
	default:
		return dimStyle.Render("missing")
	}
}

// Result writes the full analysis summary: rules, matrix, warnings.
func Result(w io.Writer, title string, r *review.Result, width int) {
	if width <= 0 {
		width = DefaultWidth
	}

	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w)
	Rules(w, r, width)
	fmt.Fprintln(w)
	Matrix(w, r, width)

	if missing := r.MissingEverywhere(); len(missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render("Missing from every log:"))
		for _, name := range missing {
			fmt.Fprintf(w, "  %s\n", truncate.StringWithTail(name, uint(max(width-2, 8)), "…"))
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		Warnings(w, r.Warnings, width)
	}

	fmt.Fprintln(w)
	if r.HasProblems() {
		ids := make([]string, 0, len(r.Checks))
		for _, id := range r.Violated() {
			ids = append(ids, id.String())
		}
		fmt.Fprintln(w, failStyle.Render("INVALID")+" violated: "+strings.Join(ids, ", "))
	} else {
		fmt.Fprintln(w, okStyle.Render("VALID")+" no rule violations")
	}
}

// Rules writes one line per rule with its verdict and first examples.
func Rules(w io.Writer, r *review.Result, width int) {
	fmt.Fprintln(w, headerStyle.Render("Rules"))
	descWidth := max(width-22, 20)
	for _, c := range r.Checks {
		verdict := okStyle.Render(cell("ok", 6))
		if c.HasProblem {
			verdict = failStyle.Render(cell(fmt.Sprintf("%d", len(c.Examples)), 6))
		}
		fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render(cell(c.ID.String(), 3)), verdict, cell(c.Description, descWidth))
		if !c.HasProblem {
			continue
		}
		shown := c.Examples
		if len(shown) > maxExamples {
			shown = shown[:maxExamples]
		}
		for _, name := range shown {
			fmt.Fprintf(w, "             %s\n", dimStyle.Render(truncate.StringWithTail(name, uint(max(width-13, 8)), "…")))
		}
		if extra := len(c.Examples) - len(shown); extra > 0 {
			fmt.Fprintf(w, "             %s\n", dimStyle.Render(fmt.Sprintf("… and %d more", extra)))
		}
	}
}

// Matrix writes the status of every declared test in each stage.
func Matrix(w io.Writer, r *review.Result, width int) {
	fmt.Fprintln(w, headerStyle.Render("Tests"))
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no tests declared"))
		return
	}

	const statusWidth = 8
	nameWidth := max(width-2-4-4*statusWidth-12, 16)

	header := "  " + cell("test", nameWidth) + cell("set", 4)
	for _, stage := range logparser.Stages {
		header += cell(stage.String(), statusWidth)
	}
	fmt.Fprintln(w, labelStyle.Render(header+"rules"))

	for _, row := range r.Rows {
		line := "  " + cell(row.Name, nameWidth) + cell(row.Set.String(), 4)
		for _, stage := range logparser.Stages {
			line += padding.String(Status(row.Status(stage)), statusWidth)
		}
		v := r.Violations(row.Name)
		ids := make([]string, len(v.Rules))
		for i, id := range v.Rules {
			ids[i] = id.String()
		}
		line += failStyle.Render(strings.Join(ids, " "))
		fmt.Fprintln(w, line)
	}
}

// Warnings writes warnings wrapped to width.
func Warnings(w io.Writer, warnings []review.Warning, width int) {
	fmt.Fprintln(w, warnStyle.Render("Warnings"))
	for _, warning := range warnings {
		text := wordwrap.String(warning.String(), max(width-4, 20))
		for i, line := range strings.Split(text, "\n") {
			prefix := "  - "
			if i > 0 {
				prefix = "    "
			}
			fmt.Fprintln(w, prefix+line)
		}
	}
}

// Matches writes the matches of one stage. selected (0-based) is highlighted;
// pass -1 for none.
func Matches(w io.Writer, name string, stage logparser.Stage, matches []search.Match, selected, width int) {
	if width <= 0 {
		width = DefaultWidth
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(stage.String()), dimStyle.Render(fmt.Sprintf("(%d matches)", len(matches))))
	if len(matches) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no lines mention "+name))
		return
	}
	for i, m := range matches {
		marker := "  "
		if i == selected {
			marker = SelectedStyle.Render("> ")
		}
		MatchBlock(w, marker, name, m, width)
		if i < len(matches)-1 {
			fmt.Fprintln(w, dimStyle.Render("  --"))
		}
	}
}

// MatchBlock writes one match with its context lines, numbered.
func MatchBlock(w io.Writer, marker, name string, m search.Match, width int) {
	textWidth := max(width-10, 10)
	first := m.Line - len(m.Before)
	for i, line := range m.Before {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(fmt.Sprintf("%6d", first+i)), dimStyle.Render(truncate.StringWithTail(line, uint(textWidth), "…")))
	}
	fmt.Fprintf(w, "%s%s %s\n", marker, labelStyle.Render(fmt.Sprintf("%6d", m.Line)), Highlight(truncate.StringWithTail(m.Text, uint(textWidth), "…"), name))
	for i, line := range m.After {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(fmt.Sprintf("%6d", m.Line+1+i)), dimStyle.Render(truncate.StringWithTail(line, uint(textWidth), "…")))
	}
}

// Highlight styles every occurrence of name in line.
func Highlight(line, name string) string {
	if name == "" || !strings.Contains(line, name) {
		return line
	}
	return strings.ReplaceAll(line, name, matchStyle.Render(name))
}

// Runs writes a table of recorded runs.
func Runs(w io.Writer, runs []history.Run, width int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No runs recorded."))
		return
	}
	instWidth := max(width-10-whenWidth-10-20, 12)
	fmt.Fprintln(w, labelStyle.Render(cell("ID", 10)+cell("WHEN", whenWidth)+cell("VERDICT", 10)+cell("INSTANCE", instWidth)+"VIOLATED"))
	for _, run := range runs {
		verdict := okStyle.Render(cell("valid", 10))
		if run.HasProblems {
			verdict = failStyle.Render(cell("invalid", 10))
		}
		fmt.Fprintf(w, "%s%s%s%s%s\n",
			cell(shortID(run.ID), 10),
			cell(run.CreatedAt.Local().Format("2006-01-02 15:04:05"), whenWidth),
			verdict,
			cell(run.Instance, instWidth),
			strings.Join(run.Violated, ","))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
