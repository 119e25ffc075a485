package render

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// RenderDetail renders a full issue detail view including metadata,
// description, comments, and recent activity. project may be nil.
func RenderDetail(issue *model.Issue, project *model.Project, comments []*model.Comment, activity []model.Activity) string {
	if !ColorsEnabled() {
		return renderPlainDetail(issue, project, comments, activity)
	}

	var sections []string

	sections = append(sections, renderHeader(issue))
	sections = append(sections, renderMetadata(issue, project))

	if issue.Description != "" {
		sections = append(sections, renderDescription(issue.Description))
	}

	if len(comments) > 0 {
		sections = append(sections, renderComments(comments))
	}

	if len(activity) > 0 {
		sections = append(sections, renderActivity(activity))
	}

	return strings.Join(sections, "\n\n")
}

func renderHeader(issue *model.Issue) string {
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(ColorFromName(issue.Status.Color())).
		Bold(true)

	return fmt.Sprintf("%s  %s\n%s",
		idStyle.Render(model.FormatID(issue.ID)),
		titleStyle.Render(issue.Title),
		statusStyle.Render(statusLabel(issue.Status)),
	)
}

func renderMetadata(issue *model.Issue, project *model.Project) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var lines []string

	if project != nil {
		lines = append(lines, fmt.Sprintf("%s %s (#%d)", labelStyle.Render("Project:"), project.Name, project.ID))
	}
	lines = append(lines, fmt.Sprintf("%s %d", labelStyle.Render("Position:"), issue.Position))
	if issue.CreatedBy != "" {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Reporter:"), issue.CreatedBy))
	}
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Created:"), humanize.Time(issue.CreatedAt)))
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Updated:"), humanize.Time(issue.UpdatedAt)))

	return strings.Join(lines, "\n")
}

func renderDescription(description string) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	header := sectionStyle.Render("Description")

	rendered, err := RenderMarkdown(description)
	if err != nil {
		rendered = description
	}

	return header + "\n" + rendered
}

// RenderCommentList renders a styled comment list. Exported for reuse by the
// comment list CLI command.
func RenderCommentList(comments []*model.Comment) string {
	if !ColorsEnabled() {
		var b strings.Builder
		writePlainComments(&b, comments)
		return b.String()
	}
	return renderComments(comments)
}

func renderComments(comments []*model.Comment) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := sectionStyle.Render("Comments")

	var parts []string
	for _, c := range comments {
		body, err := RenderMarkdown(c.Body)
		if err != nil {
			body = c.Body
		}

		commentHeader := fmt.Sprintf("%s  %s  %s",
			timeStyle.Render(fmt.Sprintf("#%d", c.ID)),
			authorStyle.Render(c.AuthorOrAnonymous()),
			timeStyle.Render(humanize.Time(c.CreatedAt)),
		)

		parts = append(parts, commentHeader+"\n"+body)
	}

	return header + "\n" + strings.Join(parts, "\n\n")
}

// activityIcon returns a semantic icon for an activity entry.
func activityIcon(a model.Activity) string {
	switch a.FieldChanged {
	case "created":
		return "\u2728" // ✨
	case "status":
		if a.NewValue != "" {
			return model.Status(a.NewValue).Icon()
		}
		return "\u25cb" // ○
	case "comment_added", "comment_deleted":
		return "\u2709" // ✉
	default:
		return "\u270e" // ✎
	}
}

// activityLine describes one activity entry without styling the time.
func activityLine(a model.Activity, field string) string {
	actor := a.ChangedBy
	if actor == "" {
		actor = "system"
	}
	switch a.FieldChanged {
	case "created":
		return fmt.Sprintf("%s created the issue", actor)
	case "comment_added":
		return fmt.Sprintf("%s commented", actor)
	case "comment_deleted":
		return fmt.Sprintf("%s deleted a comment", actor)
	}
	var detail string
	switch {
	case a.OldValue != "" && a.NewValue != "":
		detail = fmt.Sprintf("%s -> %s", truncate(a.OldValue, maxTitleWidth), truncate(a.NewValue, maxTitleWidth))
	case a.NewValue != "":
		detail = fmt.Sprintf("set to %s", truncate(a.NewValue, maxTitleWidth))
	case a.OldValue != "":
		detail = fmt.Sprintf("cleared %s", truncate(a.OldValue, maxTitleWidth))
	}
	return fmt.Sprintf("%s changed %s: %s", actor, field, detail)
}

// RenderActivity renders an activity log, most recent first.
func RenderActivity(activity []model.Activity) string {
	if len(activity) == 0 {
		return EmptyState("No activity recorded.", "", false)
	}
	if !ColorsEnabled() {
		var b strings.Builder
		writePlainActivity(&b, activity)
		return b.String()
	}
	return renderActivity(activity)
}

func renderActivity(activity []model.Activity) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	fieldStyle := lipgloss.NewStyle().Bold(true)
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := sectionStyle.Render("Activity")

	var lines []string
	for _, a := range activity {
		lines = append(lines, fmt.Sprintf("  %s %s  %s",
			activityIcon(a),
			activityLine(a, fieldStyle.Render(a.FieldChanged)),
			timeStyle.Render(humanize.Time(a.CreatedAt)),
		))
	}

	return header + "\n" + strings.Join(lines, "\n")
}

func writePlainComments(b *strings.Builder, comments []*model.Comment) {
	b.WriteString("Comments\n")
	for _, c := range comments {
		fmt.Fprintf(b, "  #%d  %s  %s\n  %s\n\n", c.ID, c.AuthorOrAnonymous(), humanize.Time(c.CreatedAt), c.Body)
	}
}

func writePlainActivity(b *strings.Builder, activity []model.Activity) {
	b.WriteString("Activity\n")
	for _, a := range activity {
		fmt.Fprintf(b, "  %s %s  %s\n", activityIcon(a), activityLine(a, a.FieldChanged), humanize.Time(a.CreatedAt))
	}
}

// renderPlainDetail renders a detail view without any color or styling.
func renderPlainDetail(issue *model.Issue, project *model.Project, comments []*model.Comment, activity []model.Activity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", model.FormatID(issue.ID), issue.Title)
	fmt.Fprintf(&b, "%s\n", statusLabel(issue.Status))

	b.WriteString("\n")
	if project != nil {
		fmt.Fprintf(&b, "Project: %s (#%d)\n", project.Name, project.ID)
	}
	fmt.Fprintf(&b, "Position: %d\n", issue.Position)
	if issue.CreatedBy != "" {
		fmt.Fprintf(&b, "Reporter: %s\n", issue.CreatedBy)
	}
	fmt.Fprintf(&b, "Created: %s\n", humanize.Time(issue.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", humanize.Time(issue.UpdatedAt))

	if issue.Description != "" {
		fmt.Fprintf(&b, "\nDescription\n%s\n", issue.Description)
	}

	if len(comments) > 0 {
		b.WriteString("\n")
		writePlainComments(&b, comments)
	}

	if len(activity) > 0 {
		b.WriteString("\n")
		writePlainActivity(&b, activity)
	}

	return b.String()
}
