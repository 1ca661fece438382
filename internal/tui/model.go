// Package tui is an interactive browser over the log lines that mention one
// test. The model owns all selection state; the analysis result is only queried.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/render"
	"github.com/newhook/swereview/internal/review"
	"github.com/newhook/swereview/internal/search"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Underline(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("247"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	hotkeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))
)

const maxContext = 50

// Selection is the browser position for one test.
type Selection struct {
	Stage logparser.Stage
	Match int
}

// Model is the bubbletea model of the match browser.
type Model struct {
	session *review.Session
	name    string

	contextLines int
	results      review.SearchResults
	stage        logparser.Stage
	cursors      [logparser.NumStages]search.Cursor

	viewport viewport.Model
	width    int
	height   int
	showHelp bool

	zonePrefix string
}

// New creates a browser for name. The initial stage is the first with a match
// unless sel overrides it.
func New(session *review.Session, name string, contextLines int, sel *Selection) Model {
	if zone.DefaultManager == nil {
		zone.NewGlobal()
	}
	m := Model{
		session:      session,
		name:         name,
		contextLines: contextLines,
		viewport:     viewport.New(render.DefaultWidth, 20),
		zonePrefix:   zone.NewPrefix(),
	}
	m.search()

	m.stage = logparser.Base
	for _, stage := range logparser.Stages {
		if len(m.results[stage]) > 0 {
			m.stage = stage
			break
		}
	}
	if sel != nil && sel.Stage >= 0 && int(sel.Stage) < logparser.NumStages {
		m.stage = sel.Stage
		m.cursors[sel.Stage] = search.At(len(m.results[sel.Stage]), sel.Match)
	}
	m.refresh()
	return m
}

func (m *Model) search() {
	m.results = m.session.Search(context.Background(), m.name, m.contextLines)
	for _, stage := range logparser.Stages {
		n := len(m.results[stage])
		m.cursors[stage] = search.At(n, max(m.cursors[stage].Pos(), 0))
	}
}

// Selection returns the current position so the host can restore it later.
func (m Model) Selection() Selection {
	return Selection{Stage: m.stage, Match: max(m.cursors[m.stage].Pos(), 0)}
}

// Stage returns the active stage.
func (m Model) Stage() logparser.Stage { return m.stage }

// Current returns the selected match of the active stage.
func (m Model) Current() (search.Match, bool) {
	matches := m.results[m.stage]
	pos := m.cursors[m.stage].Pos()
	if pos < 0 || pos >= len(matches) {
		return search.Match{}, false
	}
	return matches[pos], true
}

// ContextLines returns the current context size.
func (m Model) ContextLines() int { return m.contextLines }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.refresh()
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if stage, ok := m.clickedStage(msg); ok {
				m.stage = stage
				m.refresh()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, keys.NextMatch):
			m.cursors[m.stage] = m.cursors[m.stage].Next()
		case key.Matches(msg, keys.PrevMatch):
			m.cursors[m.stage] = m.cursors[m.stage].Prev()
		case key.Matches(msg, keys.NextStage):
			m.stage = logparser.Stage((int(m.stage) + 1) % logparser.NumStages)
		case key.Matches(msg, keys.PrevStage):
			m.stage = logparser.Stage((int(m.stage) + logparser.NumStages - 1) % logparser.NumStages)
		case key.Matches(msg, keys.MoreContext):
			if m.contextLines < maxContext {
				m.contextLines++
				m.search()
			}
		case key.Matches(msg, keys.LessContext):
			if m.contextLines > 0 {
				m.contextLines--
				m.search()
			}
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) tabZone(stage logparser.Stage) string {
	return m.zonePrefix + stage.String()
}

func (m Model) clickedStage(msg tea.MouseMsg) (logparser.Stage, bool) {
	for _, stage := range logparser.Stages {
		if zone.Get(m.tabZone(stage)).InBounds(msg) {
			return stage, true
		}
	}
	return 0, false
}

// refresh re-renders the active stage and scrolls the selected match into view.
func (m *Model) refresh() {
	width := m.width
	if width <= 0 {
		width = render.DefaultWidth
	}
	matches := m.results[m.stage]
	selected := m.cursors[m.stage].Pos()

	var buf bytes.Buffer
	offset := 0
	for i, match := range matches {
		if i == selected {
			offset = strings.Count(buf.String(), "\n")
		}
		marker := "  "
		if i == selected {
			marker = render.SelectedStyle.Render("> ")
		}
		render.MatchBlock(&buf, marker, m.name, match, width)
		if i < len(matches)-1 {
			buf.WriteString("  --\n")
		}
	}
	if len(matches) == 0 {
		fmt.Fprintf(&buf, "  no lines in the %s log mention %s\n", m.stage, m.name)
	}

	m.viewport.SetContent(buf.String())
	m.viewport.SetYOffset(offset)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.name))
	b.WriteString("\n")

	tabs := make([]string, 0, logparser.NumStages)
	for _, stage := range logparser.Stages {
		label := fmt.Sprintf("%s (%d)", stage, len(m.results[stage]))
		style := inactiveTabStyle
		if stage == m.stage {
			style = activeTabStyle
		}
		tabs = append(tabs, zone.Mark(m.tabZone(stage), style.Render(label)))
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.statusBar())
	return zone.Scan(b.String())
}

func (m Model) statusBar() string {
	pos := m.cursors[m.stage]
	where := "0/0"
	if pos.Len() > 0 {
		where = fmt.Sprintf("%d/%d", pos.Pos()+1, pos.Len())
	}

	bindings := keys.short()
	if m.showHelp {
		bindings = keys.full()
	}
	parts := []string{where, fmt.Sprintf("ctx %d", m.contextLines)}
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, hotkeyStyle.Render(h.Key)+" "+h.Desc)
	}
	return statusBarStyle.Render(strings.Join(parts, "  "))
}

// Run starts the browser full screen and returns the final selection.
func Run(session *review.Session, name string, contextLines int, sel *Selection) (Selection, error) {
	p := tea.NewProgram(New(session, name, contextLines, sel), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return Selection{}, fmt.Errorf("failed to run browser: %w", err)
	}
	return final.(Model).Selection(), nil
}
