package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

const maxTitleWidth = 40

// StyledText applies a lipgloss style to text when colors are enabled.
// When colors are disabled, it returns the plain text unchanged.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// ColorFromName maps model color name strings to lipgloss colors.
func ColorFromName(name string) lipgloss.Color {
	switch name {
	case "red":
		return lipgloss.Color("9")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "green":
		return lipgloss.Color("10")
	case "magenta":
		return lipgloss.Color("13")
	case "gray":
		return lipgloss.Color("8")
	case "white":
		return lipgloss.Color("15")
	default:
		return lipgloss.Color("15")
	}
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// statusLabel returns a status string with icon, e.g. "● done".
func statusLabel(s model.Status) string {
	return s.Icon() + " " + string(s)
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When colors are enabled the message is rendered in dim gray and the hint is italic.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}

// grid renders headers and rows as a bordered table, or as aligned plain
// columns when colors are disabled. colStyle may restyle individual cells.
func grid(headers []string, rows [][]string, colStyle func(row, col int, s lipgloss.Style) lipgloss.Style) string {
	if !ColorsEnabled() {
		return plainGrid(headers, rows)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if row < 0 || row >= len(rows) || colStyle == nil {
				return s
			}
			return colStyle(row, col, s)
		})

	return t.Render()
}

func plainGrid(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+2))
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", max(total-2, 0)))
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// RenderTable renders a list of issues as a formatted table.
func RenderTable(issues []*model.Issue) string {
	if len(issues) == 0 {
		return EmptyState("No issues found.", "Create one with: taskboard issue create", false)
	}

	headers := []string{"ID", "Status", "Pos", "Title", "Reporter", "Updated"}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, issueToRow(issue))
	}

	return grid(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		switch col {
		case 0: // ID
			return s.Foreground(lipgloss.Color("15"))
		case 1: // Status
			return s.Foreground(ColorFromName(issues[row].Status.Color()))
		case 3: // Title
			return s.Bold(true)
		default:
			return s
		}
	})
}

func issueToRow(issue *model.Issue) []string {
	return []string{
		model.FormatID(issue.ID),
		statusLabel(issue.Status),
		fmt.Sprintf("%d", issue.Position),
		truncate(issue.Title, maxTitleWidth),
		issue.CreatedBy,
		humanize.Time(issue.UpdatedAt),
	}
}

// RenderProjects renders the projects a user can see. current marks the
// project selected with `project use`; zero marks none.
func RenderProjects(projects []*model.Project, teamNames map[int]string, current int) string {
	if len(projects) == 0 {
		return EmptyState("No projects found.", "Create one with: taskboard project create", false)
	}

	headers := []string{"", "ID", "Name", "Owner", "Created"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		marker := ""
		if p.ID == current {
			marker = "*"
		}
		owner := p.OwnerLabel()
		if p.TeamID != nil {
			if name, ok := teamNames[*p.TeamID]; ok {
				owner = "team " + name
			}
		}
		rows = append(rows, []string{marker, fmt.Sprintf("%d", p.ID), truncate(p.Name, maxTitleWidth), owner, humanize.Time(p.CreatedAt)})
	}

	return grid(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		switch col {
		case 0:
			return s.Foreground(lipgloss.Color("10")).Bold(true)
		case 2:
			return s.Bold(true)
		case 3:
			if projects[row].IsTeamOwned() {
				return s.Foreground(lipgloss.Color("13"))
			}
			return s
		default:
			return s
		}
	})
}

// RenderProject renders a single project with its per-status counts.
func RenderProject(p *model.Project, counts map[model.Status]int) string {
	var b strings.Builder
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	label := func(s string) string { return StyledText(s, labelStyle) }

	fmt.Fprintf(&b, "%s\n", StyledText(fmt.Sprintf("#%d  %s", p.ID, p.Name), lipgloss.NewStyle().Bold(true)))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	fmt.Fprintf(&b, "\n%s %s\n", label("Owner:"), p.OwnerLabel())
	fmt.Fprintf(&b, "%s %s\n", label("Created:"), humanize.Time(p.CreatedAt))
	for _, s := range model.Statuses() {
		style := lipgloss.NewStyle().Foreground(ColorFromName(s.Color()))
		fmt.Fprintf(&b, "%s %d\n", StyledText(statusLabel(s)+":", style), counts[s])
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderTeams renders a list of teams.
func RenderTeams(teams []*model.Team) string {
	if len(teams) == 0 {
		return EmptyState("You are not a member of any team.", "Create one with: taskboard team create", false)
	}

	headers := []string{"ID", "Name", "Description", "Created by", "Created"}
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			t.Name,
			truncate(t.Description, maxTitleWidth),
			t.CreatedBy,
			humanize.Time(t.CreatedAt),
		})
	}
	return grid(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		if col == 1 {
			return s.Bold(true)
		}
		return s
	})
}

// roleColor maps a team role to a color name.
func roleColor(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "magenta"
	case model.RoleMember:
		return "blue"
	default:
		return "gray"
	}
}

// RenderMembers renders a team's members in the order given.
func RenderMembers(members []*model.TeamMember) string {
	if len(members) == 0 {
		return EmptyState("No members.", "", false)
	}

	headers := []string{"User", "Role", "Invited by", "Joined"}
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{m.User, string(m.Role), m.InvitedBy, humanize.Time(m.JoinedAt)})
	}
	return grid(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		if col == 1 {
			return s.Foreground(ColorFromName(roleColor(members[row].Role)))
		}
		return s
	})
}

// RenderInvitations renders invitations with their state evaluated at now.
func RenderInvitations(invitations []*model.TeamInvitation, now time.Time) string {
	if len(invitations) == 0 {
		return EmptyState("No invitations.", "Invite someone with: taskboard team invite", false)
	}

	headers := []string{"ID", "Email", "Role", "State", "Invited by", "Expires"}
	rows := make([][]string, 0, len(invitations))
	for _, inv := range invitations {
		rows = append(rows, []string{
			fmt.Sprintf("%d", inv.ID),
			inv.Email,
			string(inv.Role),
			string(inv.State(now)),
			inv.InvitedBy,
			humanize.RelTime(inv.ExpiresAt, now, "ago", "from now"),
		})
	}
	return grid(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		if col != 3 {
			return s
		}
		switch invitations[row].State(now) {
		case model.InvitationAccepted:
			return s.Foreground(ColorFromName("green"))
		case model.InvitationExpired:
			return s.Foreground(ColorFromName("red"))
		default:
			return s.Foreground(ColorFromName("yellow"))
		}
	})
}
