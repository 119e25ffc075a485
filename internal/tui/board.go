// Package tui implements the interactive board view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/cache"
	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

type commit struct {
	seq  uint64
	plan []board.Assignment
}

type commitDoneMsg struct{ seq uint64 }

type commitFailedMsg struct {
	seq uint64
	err error
}

type reloadedMsg struct {
	state *board.State
	err   error
}

// Model is the bubbletea model for one project's board. Moves are shown
// immediately and written in the background one at a time, in the order
// they were made.
type Model struct {
	ctx     context.Context
	gw      db.Gateway
	cache   cache.Boards
	actor   string
	project *model.Project

	state    *board.State
	selected int
	width    int

	queue      []commit
	committing bool

	notice  string
	failure bool
	log     *slog.Logger
}

// New returns a board model over state. The first card of the first
// non-empty column starts selected.
func New(ctx context.Context, gw db.Gateway, c cache.Boards, project *model.Project, state *board.State, actor string) *Model {
	m := &Model{
		ctx:     ctx,
		gw:      gw,
		cache:   c,
		actor:   actor,
		project: project,
		state:   state,
		log:     slog.Default().With("component", "tui", "project", project.ID),
	}
	m.selectFirst()
	return m
}

// Selected returns the ID of the selected issue, or zero.
func (m *Model) Selected() int { return m.selected }

// State returns the board being displayed.
func (m *Model) State() *board.State { return m.state }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case commitDoneMsg:
		m.committing = false
		m.state.Confirm(msg.seq)
		if len(m.queue) == 0 {
			m.invalidate()
		}
		return m, m.next()

	case commitFailedMsg:
		m.committing = false
		m.queue = nil
		m.state.Fail(msg.seq)
		m.notice = fmt.Sprintf("Move not saved: %v. Reloading board.", msg.err)
		m.failure = true
		m.log.Warn("move failed", "seq", msg.seq, "err", msg.err)
		m.invalidate()
		return m, m.reload()

	case reloadedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Reload failed: %v", msg.err)
			m.failure = true
			return m, nil
		}
		if m.committing || len(m.queue) > 0 {
			// A newer move is in flight; its result will settle the board.
			return m, nil
		}
		m.state = msg.state
		if _, ok := m.state.Get(m.selected); !ok {
			m.selectFirst()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.committing || len(m.queue) > 0 {
			m.notice = "Saving moves, try again in a moment."
			m.failure = false
			return nil
		}
		return tea.Quit
	case "left", "h":
		m.step(-1, 0)
	case "right", "l":
		m.step(1, 0)
	case "up", "k":
		m.step(0, -1)
	case "down", "j":
		m.step(0, 1)
	case "shift+left", "H":
		return m.shift(-1, 0)
	case "shift+right", "L":
		return m.shift(1, 0)
	case "shift+up", "K":
		return m.shift(0, -1)
	case "shift+down", "J":
		return m.shift(0, 1)
	case "r":
		m.notice = ""
		return m.reload()
	}
	return nil
}

// locate returns the column index and row of the selected card.
func (m *Model) locate() (int, int, bool) {
	for ci, status := range model.Statuses() {
		for ri, issue := range m.state.Column(status) {
			if issue.ID == m.selected {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}

func (m *Model) selectFirst() {
	m.selected = 0
	for _, status := range model.Statuses() {
		if col := m.state.Column(status); len(col) > 0 {
			m.selected = col[0].ID
			return
		}
	}
}

// step moves the selection. Moving sideways skips empty columns and keeps
// the row as close as the target column allows.
func (m *Model) step(dc, dr int) {
	ci, ri, ok := m.locate()
	if !ok {
		m.selectFirst()
		return
	}
	statuses := model.Statuses()
	if dr != 0 {
		col := m.state.Column(statuses[ci])
		if r := ri + dr; r >= 0 && r < len(col) {
			m.selected = col[r].ID
		}
		return
	}
	for c := ci + dc; c >= 0 && c < len(statuses); c += dc {
		col := m.state.Column(statuses[c])
		if len(col) == 0 {
			continue
		}
		m.selected = col[min(ri, len(col)-1)].ID
		return
	}
}

// shift moves the selected card one column sideways (keeping its row where
// possible) or one slot up or down, and queues the write.
func (m *Model) shift(dc, dr int) tea.Cmd {
	ci, ri, ok := m.locate()
	if !ok {
		return nil
	}
	statuses := model.Statuses()
	c, r := ci+dc, ri+dr
	if c < 0 || c >= len(statuses) || r < 0 {
		return nil
	}

	plan, err := m.state.Plan(m.selected, statuses[c], r)
	if err != nil {
		m.notice = err.Error()
		m.failure = true
		return nil
	}
	if len(plan) == 0 {
		return nil
	}
	seq, err := m.state.Apply(plan)
	if err != nil {
		m.notice = err.Error()
		m.failure = true
		return nil
	}
	m.notice = ""
	m.queue = append(m.queue, commit{seq: seq, plan: plan})
	return m.next()
}

// next starts the oldest queued commit unless one is already running.
func (m *Model) next() tea.Cmd {
	if m.committing || len(m.queue) == 0 {
		return nil
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	m.committing = true

	ctx, gw, actor := m.ctx, m.gw, m.actor
	return func() tea.Msg {
		if err := board.Commit(ctx, gw, c.plan, actor); err != nil {
			return commitFailedMsg{seq: c.seq, err: err}
		}
		return commitDoneMsg{seq: c.seq}
	}
}

func (m *Model) reload() tea.Cmd {
	ctx, gw, id := m.ctx, m.gw, m.project.ID
	return func() tea.Msg {
		st, err := board.Load(ctx, gw, id)
		return reloadedMsg{state: st, err: err}
	}
}

func (m *Model) invalidate() {
	if err := m.cache.Invalidate(m.ctx, m.project.ID); err != nil {
		m.log.Warn("board cache invalidate failed", "err", err)
	}
}

func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s  (#%d)", m.project.Name, m.project.ID)
	b.WriteString(render.StyledText(title, lipgloss.NewStyle().Bold(true)))
	if m.state.Pending() {
		b.WriteString(render.StyledText("  saving...", lipgloss.NewStyle().Foreground(lipgloss.Color("8"))))
	}
	b.WriteString("\n\n")

	b.WriteString(render.RenderBoard(m.state.Issues(), render.BoardOptions{Selected: m.selected, Width: m.width}))
	b.WriteString("\n")

	if m.notice != "" {
		color := lipgloss.Color("11")
		if m.failure {
			color = lipgloss.Color("9")
		}
		b.WriteString(render.StyledText(m.notice, lipgloss.NewStyle().Foreground(color)))
		b.WriteString("\n")
	}

	help := "←→↑↓/hjkl select  ⇧+arrows/HJKL move  r reload  q quit"
	b.WriteString(render.StyledText(help, lipgloss.NewStyle().Foreground(lipgloss.Color("8"))))
	b.WriteString("\n")
	return b.String()
}

// Run starts the interactive board and blocks until the user quits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
