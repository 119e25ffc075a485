package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

// logResult is the JSON wire format for the log command output.
type logResult struct {
	IssueID string           `json:"issue_id"`
	Entries []model.Activity `json:"entries"`
	Total   int              `json:"total"`
}

var logCmd = &cobra.Command{
	Use:   "log <id>",
	Short: "Show activity history for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		issue, _, err := loadIssue(cmd, args[0], team.ActionRead)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		limit = max(limit, 1)

		activity, err := db.GetActivity(cmd.Context(), getDB(cmd), issue.ID, limit)
		if err != nil {
			return fail(err, "fetching activity")
		}
		if activity == nil {
			activity = []model.Activity{}
		}

		result := logResult{
			IssueID: model.FormatID(issue.ID),
			Entries: activity,
			Total:   len(activity),
		}

		if w.JSONMode {
			w.Success(result, "")
			return nil
		}
		if len(activity) == 0 {
			w.Success(result, fmt.Sprintf("No activity for %s", model.FormatID(issue.ID)))
			return nil
		}
		w.Success(result, fmt.Sprintf("%s %s\n\n%s", model.FormatID(issue.ID), issue.Title, render.RenderActivity(activity)))
		return nil
	},
}

func init() {
	logCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
	issueCmd.AddCommand(logCmd)
}
