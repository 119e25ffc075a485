package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to JSON, or projects to CSV or Markdown",
	Long: `Export the database. The json format is a full backup that 'taskboard import'
can restore. The csv and markdown formats cover the projects you can see, or
only the one given with --project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := getDB(cmd)
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		filePath, _ := cmd.Flags().GetString("file")

		var raw string
		switch format {
		case "json":
			data, err := db.Export(ctx, store)
			if err != nil {
				return fail(err, "exporting database")
			}
			if raw, err = renderExportJSON(data); err != nil {
				return cmdErr(fmt.Errorf("rendering export: %w", err), output.ErrGeneral)
			}
		case "csv", "markdown":
			projects, err := exportProjects(cmd)
			if err != nil {
				return err
			}
			issues := make(map[int][]*model.Issue, len(projects))
			var ids []int
			for _, p := range projects {
				list, err := db.ListIssues(ctx, store, db.IssueFilter{ProjectID: p.ID})
				if err != nil {
					return fail(err, "fetching issues")
				}
				issues[p.ID] = board.Order(list)
				for _, issue := range list {
					ids = append(ids, issue.ID)
				}
			}
			if format == "csv" {
				raw, err = renderExportCSV(projects, issues)
			} else {
				comments, cerr := db.ListCommentsForIssues(ctx, store, ids)
				if cerr != nil {
					return fail(cerr, "fetching comments")
				}
				raw, err = renderExportMarkdown(projects, issues, comments)
			}
			if err != nil {
				return cmdErr(fmt.Errorf("rendering export: %w", err), output.ErrGeneral)
			}
		default:
			return cmdErr(
				fmt.Errorf("invalid format %q: must be one of json, csv, markdown", format),
				output.ErrValidation,
			)
		}

		if filePath != "" {
			if err := os.WriteFile(filePath, []byte(raw), 0o644); err != nil {
				return cmdErr(fmt.Errorf("writing file: %w", err), output.ErrGeneral)
			}
			fmt.Fprintf(os.Stderr, "Exported to %s\n", filePath)
			return nil
		}

		fmt.Fprint(os.Stdout, raw)
		return nil
	},
}

// exportProjects returns the --project project, or every project the user
// can see.
func exportProjects(cmd *cobra.Command) ([]*model.Project, error) {
	if flag, _ := cmd.Flags().GetString("project"); flag != "" {
		p, err := resolveProject(cmd, team.ActionRead)
		if err != nil {
			return nil, err
		}
		return []*model.Project{p}, nil
	}
	user := currentUser(cmd)
	teamIDs, err := getTeams(cmd).TeamIDs(cmd.Context(), user)
	if err != nil {
		return nil, fail(err, "listing teams")
	}
	projects, err := db.ListVisibleProjects(cmd.Context(), getDB(cmd), user, teamIDs)
	if err != nil {
		return nil, fail(err, "listing projects")
	}
	return projects, nil
}

func init() {
	exportCmd.Flags().StringP("format", "o", "json", "Export format: json, csv, markdown")
	exportCmd.Flags().StringP("file", "f", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

// renderExportJSON produces a pretty-printed JSON string of the export data.
func renderExportJSON(data *model.ExportData) (string, error) {
	if data.Teams == nil {
		data.Teams = []*model.Team{}
	}
	if data.Members == nil {
		data.Members = []*model.TeamMember{}
	}
	if data.Projects == nil {
		data.Projects = []*model.Project{}
	}
	if data.Issues == nil {
		data.Issues = []*model.Issue{}
	}
	if data.Comments == nil {
		data.Comments = []*model.Comment{}
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// renderExportCSV produces a CSV string with a header row and one row per
// issue, in board order within each project.
func renderExportCSV(projects []*model.Project, issues map[int][]*model.Issue) (string, error) {
	var buf strings.Builder
	cw := csv.NewWriter(&buf)

	header := []string{"id", "project_id", "project", "title", "description", "status", "position", "created_by", "created_at", "updated_at"}
	if err := cw.Write(header); err != nil {
		return "", err
	}

	for _, p := range projects {
		for _, issue := range issues[p.ID] {
			row := []string{
				model.FormatID(issue.ID),
				fmt.Sprintf("%d", p.ID),
				p.Name,
				issue.Title,
				issue.Description,
				string(issue.Status),
				fmt.Sprintf("%d", issue.Position),
				issue.CreatedBy,
				issue.CreatedAt.UTC().Format(time.RFC3339),
				issue.UpdatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return "", err
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// escapeMarkdown replaces characters that have special meaning in Markdown so
// that arbitrary user text can be safely embedded in headings and inline spans.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`#`, `\#`,
		`*`, `\*`,
		`_`, `\_`,
		`[`, `\[`,
		`]`, `\]`,
		`<`, `\<`,
		`>`, `\>`,
		"`", "\\`",
		`|`, `\|`,
	)
	return r.Replace(s)
}

// renderExportMarkdown produces one section per project with its issues
// grouped by column in board order.
func renderExportMarkdown(projects []*model.Project, issues map[int][]*model.Issue, comments []*model.Comment) (string, error) {
	commentsByIssue := make(map[int][]*model.Comment)
	for _, c := range comments {
		commentsByIssue[c.IssueID] = append(commentsByIssue[c.IssueID], c)
	}

	var buf strings.Builder
	buf.WriteString("# Taskboard Export\n\n")

	for _, p := range projects {
		fmt.Fprintf(&buf, "## %s\n\n", escapeMarkdown(p.Name))
		fmt.Fprintf(&buf, "- **Owner:** %s\n", escapeMarkdown(p.OwnerLabel()))
		if p.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", escapeMarkdown(p.Description))
		}
		buf.WriteString("\n")

		for _, status := range model.Statuses() {
			column := board.Column(issues[p.ID], status)
			if len(column) == 0 {
				continue
			}
			fmt.Fprintf(&buf, "### %s\n\n", string(status))

			for _, issue := range column {
				fmt.Fprintf(&buf, "#### %s: %s\n\n", model.FormatID(issue.ID), escapeMarkdown(issue.Title))
				fmt.Fprintf(&buf, "- **Reporter:** %s\n\n", escapeMarkdown(issue.CreatedBy))

				if issue.Description != "" {
					buf.WriteString(escapeMarkdown(issue.Description) + "\n\n")
				}

				if cs := commentsByIssue[issue.ID]; len(cs) > 0 {
					buf.WriteString("**Comments:**\n\n")
					for _, c := range cs {
						fmt.Fprintf(&buf, "> **%s** (%s):\n> %s\n\n",
							escapeMarkdown(c.AuthorOrAnonymous()),
							c.CreatedAt.UTC().Format(time.RFC3339),
							escapeMarkdown(c.Body),
						)
					}
				}
			}
		}
	}

	return buf.String(), nil
}
