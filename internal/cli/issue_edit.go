package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an issue's title or description",
	Long:  "Edit an issue's title or description. Use 'issue move' to change its column or position.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		issue, p, err := loadIssue(cmd, args[0], team.ActionWrite)
		if err != nil {
			return err
		}

		updates := make(map[string]any)
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			title, err := model.RequireText("title", title)
			if err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			updates["title"] = title
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			description, err := readText(description, "description")
			if err != nil {
				return err
			}
			updates["description"] = description
		}

		if len(updates) == 0 {
			if w.JSONMode {
				w.Success(issue, "")
			} else {
				w.Info("No changes specified")
			}
			return nil
		}

		updated, err := db.UpdateIssue(cmd.Context(), getDB(cmd), issue.ID, updates, currentUser(cmd))
		if err != nil {
			return fail(err, "updating issue")
		}
		invalidateBoard(cmd, p.ID)

		w.Success(updated, fmt.Sprintf("Updated %s: %s", model.FormatID(updated.ID), updated.Title))
		return nil
	},
}

func init() {
	editCmd.Flags().StringP("title", "t", "", "Issue title")
	editCmd.Flags().StringP("description", "d", "", "Issue description (use \"-\" for stdin)")
	issueCmd.AddCommand(editCmd)
}
