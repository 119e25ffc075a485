package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

const (
	maxCardsPerColumn = 10
	minColumnWidth    = 20
	defaultTermWidth  = 100
	cardPadding       = 2 // left+right padding inside cards
)

// BoardOptions configures board rendering behavior.
type BoardOptions struct {
	// Selected highlights one card; zero selects nothing.
	Selected int
	// Width overrides the detected terminal width when positive.
	Width int
	// ShowAll disables the per-column card limit.
	ShowAll bool
}

// RenderBoard renders issues as a board with one column per status, left to
// right in workflow order. Issues within a column keep the order given.
func RenderBoard(issues []*model.Issue, opts BoardOptions) string {
	if len(issues) == 0 {
		return EmptyState("No issues on the board.", "Create one with: taskboard issue create", false)
	}

	if !ColorsEnabled() {
		return renderPlainBoard(issues, opts)
	}

	return renderColorBoard(issues, opts)
}

// terminalWidth returns the current terminal width, falling back to a default.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// groupByStatus groups issues into a map keyed by status.
func groupByStatus(issues []*model.Issue) map[model.Status][]*model.Issue {
	groups := make(map[model.Status][]*model.Issue)
	for _, issue := range issues {
		groups[issue.Status] = append(groups[issue.Status], issue)
	}
	return groups
}

// visibleCards applies the per-column limit and reports how many were cut.
// The selected card is always kept visible.
func visibleCards(issues []*model.Issue, opts BoardOptions) ([]*model.Issue, int) {
	if opts.ShowAll || len(issues) <= maxCardsPerColumn {
		return issues, 0
	}
	start := 0
	for i, issue := range issues {
		if issue.ID == opts.Selected && i >= maxCardsPerColumn {
			start = i - maxCardsPerColumn + 1
		}
	}
	return issues[start : start+maxCardsPerColumn], len(issues) - maxCardsPerColumn
}

func renderColorBoard(issues []*model.Issue, opts BoardOptions) string {
	groups := groupByStatus(issues)
	statuses := model.Statuses()

	tw := opts.Width
	if tw <= 0 {
		tw = terminalWidth()
	}
	// Account for gaps between columns (1 space each).
	gaps := len(statuses) - 1
	colWidth := (tw - gaps) / len(statuses)
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// Inner width available for card content (minus border/padding).
	cardContentWidth := max(colWidth-cardPadding-2, 5) // 2 for left+right border chars

	columns := make([]string, 0, len(statuses))
	for _, status := range statuses {
		columns = append(columns, renderColorColumn(status, groups[status], colWidth, cardContentWidth, opts))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderColorColumn(status model.Status, issues []*model.Issue, colWidth, contentWidth int, opts BoardOptions) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorFromName(status.Color())).
		Width(colWidth).
		Align(lipgloss.Center)

	header := headerStyle.Render(fmt.Sprintf("%s %s (%d)", status.Icon(), strings.ToUpper(string(status)), len(issues)))

	visible, overflow := visibleCards(issues, opts)

	cards := make([]string, 0, len(visible)+2) // +2 for header and possible overflow
	cards = append(cards, header)

	if len(issues) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Width(colWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("8"))
		cards = append(cards, emptyStyle.Render("empty"))
	}

	for _, issue := range visible {
		cards = append(cards, renderColorCard(issue, colWidth, contentWidth, issue.ID == opts.Selected))
	}

	if overflow > 0 {
		moreStyle := lipgloss.NewStyle().
			Width(colWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("8"))
		cards = append(cards, moreStyle.Render(fmt.Sprintf("+%d more", overflow)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderColorCard(issue *model.Issue, colWidth, contentWidth int, selected bool) string {
	if contentWidth < 5 {
		contentWidth = 5
	}

	idStr := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(model.FormatID(issue.ID))
	title := truncate(issue.Title, contentWidth)
	body := idStr + "\n" + title

	border := lipgloss.RoundedBorder()
	borderColor := ColorFromName(issue.Status.Color())
	if selected {
		border = lipgloss.ThickBorder()
		borderColor = lipgloss.Color("15")
	}

	cardStyle := lipgloss.NewStyle().
		Width(colWidth - 2). // account for outer spacing
		Padding(0, 1).
		Border(border).
		BorderForeground(borderColor)
	if selected {
		cardStyle = cardStyle.Bold(true)
	}

	return cardStyle.Render(body)
}

// --- Plain text fallback ---

func renderPlainBoard(issues []*model.Issue, opts BoardOptions) string {
	groups := groupByStatus(issues)

	var b strings.Builder

	for i, status := range model.Statuses() {
		if i > 0 {
			b.WriteString("\n")
		}

		issuesInCol := groups[status]
		fmt.Fprintf(&b, "=== %s %s (%d) ===\n", status.Icon(), strings.ToUpper(string(status)), len(issuesInCol))

		visible, overflow := visibleCards(issuesInCol, opts)
		for _, issue := range visible {
			renderPlainCard(&b, issue, issue.ID == opts.Selected)
		}

		if overflow > 0 {
			fmt.Fprintf(&b, "  +%d more\n", overflow)
		}
	}

	return b.String()
}

func renderPlainCard(b *strings.Builder, issue *model.Issue, selected bool) {
	marker := " "
	if selected {
		marker = ">"
	}
	fmt.Fprintf(b, "%s %s %s\n", marker, model.FormatID(issue.ID), truncate(issue.Title, maxTitleWidth))
}
