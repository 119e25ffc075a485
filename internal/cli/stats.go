package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

type projectStats struct {
	ID       int                  `json:"id"`
	Name     string               `json:"name"`
	Owner    string               `json:"owner"`
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"by_status"`
	Comments int                  `json:"comments"`
}

type statsResult struct {
	Projects []projectStats `json:"projects"`
	Total    int            `json:"total"`
	Comments int            `json:"comments"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show issue counts per project and column",
	Long:  "Show issue counts per project and column for every project you can see, or only the one given with --project.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()
		user := currentUser(cmd)

		var projects []*model.Project
		if flag, _ := cmd.Flags().GetString("project"); flag != "" {
			p, err := resolveProject(cmd, team.ActionRead)
			if err != nil {
				return err
			}
			projects = []*model.Project{p}
		} else {
			teamIDs, err := getTeams(cmd).TeamIDs(ctx, user)
			if err != nil {
				return fail(err, "listing teams")
			}
			if projects, err = db.ListVisibleProjects(ctx, store, user, teamIDs); err != nil {
				return fail(err, "listing projects")
			}
		}

		result := statsResult{Projects: []projectStats{}}
		for _, p := range projects {
			ps, err := statsFor(ctx, store, p)
			if err != nil {
				return fail(err, "counting project %d", p.ID)
			}
			result.Projects = append(result.Projects, ps)
			result.Total += ps.Total
			result.Comments += ps.Comments
		}

		var message string
		if !w.JSONMode {
			message = renderStats(result)
		}
		w.Success(result, message)
		return nil
	},
}

func statsFor(ctx context.Context, gw db.Gateway, p *model.Project) (projectStats, error) {
	issues, err := db.ListIssues(ctx, gw, db.IssueFilter{ProjectID: p.ID})
	if err != nil {
		return projectStats{}, err
	}
	ps := projectStats{
		ID:       p.ID,
		Name:     p.Name,
		Owner:    p.OwnerLabel(),
		Total:    len(issues),
		ByStatus: make(map[model.Status]int, 3),
	}
	for _, s := range model.Statuses() {
		ps.ByStatus[s] = 0
	}
	ids := make([]int, len(issues))
	for i, issue := range issues {
		ps.ByStatus[issue.Status]++
		ids[i] = issue.ID
	}
	if len(ids) > 0 {
		comments, err := db.ListCommentsForIssues(ctx, gw, ids)
		if err != nil {
			return projectStats{}, err
		}
		ps.Comments = len(comments)
	}
	return ps, nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// renderStats renders the stats result as a styled human-readable string.
func renderStats(s statsResult) string {
	if len(s.Projects) == 0 {
		return render.EmptyState("No projects yet.", "Create one with: taskboard project create", false)
	}
	if !render.ColorsEnabled() {
		return renderPlainStats(s)
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Bold(true)

	var sections []string
	for _, p := range s.Projects {
		lines := []string{
			sectionStyle.Render(fmt.Sprintf("#%d %s", p.ID, p.Name)) + " " + labelStyle.Render("("+p.Owner+")"),
		}
		for _, status := range model.Statuses() {
			countStyle := lipgloss.NewStyle().Bold(true).Foreground(render.ColorFromName(status.Color()))
			lines = append(lines, fmt.Sprintf("  %s %s",
				labelStyle.Render(fmt.Sprintf("%s %-7s", status.Icon(), string(status)+":")),
				countStyle.Render(fmt.Sprintf("%d", p.ByStatus[status])),
			))
		}
		lines = append(lines,
			fmt.Sprintf("  %s %s", labelStyle.Render("  total:  "), valueStyle.Render(fmt.Sprintf("%d", p.Total))),
			fmt.Sprintf("  %s %s", labelStyle.Render("  comments:"), valueStyle.Render(fmt.Sprintf("%d", p.Comments))),
		)
		sections = append(sections, strings.Join(lines, "\n"))
	}

	overview := fmt.Sprintf("%s %s  %s %s",
		labelStyle.Render("Issues:"), valueStyle.Render(fmt.Sprintf("%d", s.Total)),
		labelStyle.Render("Comments:"), valueStyle.Render(fmt.Sprintf("%d", s.Comments)),
	)
	sections = append(sections, overview)
	return strings.Join(sections, "\n\n")
}

func renderPlainStats(s statsResult) string {
	var b strings.Builder
	for _, p := range s.Projects {
		fmt.Fprintf(&b, "#%d %s (%s)\n", p.ID, p.Name, p.Owner)
		for _, status := range model.Statuses() {
			fmt.Fprintf(&b, "  %s %s: %d\n", status.Icon(), status, p.ByStatus[status])
		}
		fmt.Fprintf(&b, "  total: %d\n", p.Total)
		fmt.Fprintf(&b, "  comments: %d\n\n", p.Comments)
	}
	fmt.Fprintf(&b, "Issues: %d  Comments: %d", s.Total, s.Comments)
	return b.String()
}
