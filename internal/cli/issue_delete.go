package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

type deleteResult struct {
	ID string `json:"id"`
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an issue with its comments and activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		force, _ := cmd.Flags().GetBool("force")

		issue, p, err := loadIssue(cmd, args[0], team.ActionWrite)
		if err != nil {
			return err
		}
		id := model.FormatID(issue.ID)

		ok, err := confirm(w, force, fmt.Sprintf("Delete %s %q?", id, issue.Title), "Yes, delete it")
		if err != nil {
			return err
		}
		if !ok {
			w.Info("Cancelled.")
			return nil
		}

		if err := db.DeleteIssue(cmd.Context(), getDB(cmd), issue.ID); err != nil {
			return fail(err, "deleting issue")
		}
		invalidateBoard(cmd, p.ID)

		w.Success(deleteResult{ID: id}, fmt.Sprintf("Deleted %s: %s", id, issue.Title))
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
	issueCmd.AddCommand(deleteCmd)
}
