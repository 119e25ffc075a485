package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

type moveResult struct {
	Issue   *model.Issue       `json:"issue"`
	Changes []board.Assignment `json:"changes"`
}

// placeIssue moves an issue to index within status, or to the end of status
// when index is negative, and reports the result.
func placeIssue(cmd *cobra.Command, arg string, status model.Status, index int, verb string) error {
	w := getWriter(cmd)
	store := getDB(cmd)
	ctx := cmd.Context()

	issue, p, err := loadIssue(cmd, arg, team.ActionWrite)
	if err != nil {
		return err
	}

	st, err := board.Load(ctx, store, p.ID)
	if err != nil {
		return fail(err, "loading board")
	}

	var plan []board.Assignment
	if index < 0 {
		plan, err = st.MoveToEnd(ctx, store, issue.ID, status, currentUser(cmd))
	} else {
		plan, err = st.Move(ctx, store, issue.ID, status, index, currentUser(cmd))
	}
	if err != nil {
		return fail(err, "moving %s", model.FormatID(issue.ID))
	}

	moved, _ := st.Get(issue.ID)
	if plan == nil {
		plan = []board.Assignment{}
	}
	result := moveResult{Issue: moved, Changes: plan}

	if len(plan) == 0 {
		if w.JSONMode {
			w.Success(result, "")
		} else {
			w.Info("%s is already in place", model.FormatID(issue.ID))
		}
		return nil
	}
	invalidateBoard(cmd, p.ID)

	msg := fmt.Sprintf("%s %s to %s", verb, model.FormatID(issue.ID), status)
	if n := len(plan) - 1; n > 0 {
		msg += fmt.Sprintf(" (%d other card(s) renumbered)", n)
	}
	w.Success(result, msg)
	return nil
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move an issue to a column, optionally at a given slot",
	Long: `Move an issue to a column. With --index the issue lands at that zero-based
slot, counting the cards already in the column; without it the issue goes to
the bottom.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.Status(args[1])
		if err := model.ValidateStatus(status); err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		index := -1
		if cmd.Flags().Changed("index") {
			index, _ = cmd.Flags().GetInt("index")
			if index < 0 {
				return cmdErr(fmt.Errorf("--index must not be negative"), output.ErrValidation)
			}
		}
		return placeIssue(cmd, args[0], status, index, "Moved")
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Move an issue to the bottom of done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeIssue(cmd, args[0], model.StatusDone, -1, "Closed")
	},
}

func init() {
	moveCmd.Flags().IntP("index", "n", 0, "Zero-based slot in the target column (default: bottom)")
	issueCmd.AddCommand(moveCmd, closeCmd)
}
