package cli

import (
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Move a done issue back to the bottom of todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		issue, _, err := loadIssue(cmd, args[0], team.ActionWrite)
		if err != nil {
			return err
		}
		if issue.Status != model.StatusDone {
			if w.JSONMode {
				w.Success(moveResult{Issue: issue, Changes: []board.Assignment{}}, "")
			} else {
				w.Info("Issue %s is not closed", model.FormatID(issue.ID))
			}
			return nil
		}
		return placeIssue(cmd, args[0], model.StatusTodo, -1, "Reopened")
	},
}

func init() {
	issueCmd.AddCommand(reopenCmd)
}
