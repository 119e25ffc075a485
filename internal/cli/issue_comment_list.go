package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var commentListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List comments on an issue, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		issue, _, err := loadIssue(cmd, args[0], team.ActionRead)
		if err != nil {
			return err
		}

		comments, err := db.ListComments(cmd.Context(), getDB(cmd), issue.ID)
		if err != nil {
			return fail(err, "fetching comments")
		}
		if comments == nil {
			comments = []*model.Comment{}
		}

		if w.JSONMode {
			w.Success(comments, "")
			return nil
		}

		if len(comments) == 0 {
			quiet, _ := cmd.Flags().GetBool("quiet")
			msg := render.EmptyState(
				fmt.Sprintf("No comments on %s", model.FormatID(issue.ID)),
				fmt.Sprintf("Add one with: taskboard issue comment add %s -m \"...\"", model.FormatID(issue.ID)),
				quiet,
			)
			w.Success(comments, msg)
			return nil
		}

		w.Success(comments, render.RenderCommentList(comments))
		return nil
	},
}

func init() {
	commentCmd.AddCommand(commentListCmd)
}
