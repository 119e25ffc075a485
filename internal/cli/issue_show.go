package cli

import (
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

// showResult is the JSON shape of 'issue show'.
type showResult struct {
	Issue    *model.Issue     `json:"issue"`
	Project  *model.Project   `json:"project"`
	Comments []*model.Comment `json:"comments"`
	Activity []model.Activity `json:"activity"`
}

const showActivityLimit = 20

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue with its comments and recent activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()

		issue, p, err := loadIssue(cmd, args[0], team.ActionRead)
		if err != nil {
			return err
		}

		comments, err := db.ListComments(ctx, store, issue.ID)
		if err != nil {
			return fail(err, "fetching comments")
		}
		activity, err := db.GetActivity(ctx, store, issue.ID, showActivityLimit)
		if err != nil {
			return fail(err, "fetching activity")
		}

		result := showResult{Issue: issue, Project: p, Comments: comments, Activity: activity}
		if result.Comments == nil {
			result.Comments = []*model.Comment{}
		}
		if result.Activity == nil {
			result.Activity = []model.Activity{}
		}

		var message string
		if !w.JSONMode {
			message = render.RenderDetail(issue, p, comments, activity)
		}
		w.Success(result, message)
		return nil
	},
}

func init() {
	issueCmd.AddCommand(showCmd)
}
