package cli

import (
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/cache"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

type listResult struct {
	Project int            `json:"project_id"`
	Issues  []*model.Issue `json:"issues"`
	Total   int            `json:"total"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List issues of the current project",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		statuses, _ := cmd.Flags().GetStringSlice("status")
		wanted := make(map[model.Status]bool, len(statuses))
		for _, s := range statuses {
			if err := model.ValidateStatus(model.Status(s)); err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			wanted[model.Status(s)] = true
		}

		p, err := resolveProject(cmd, team.ActionRead)
		if err != nil {
			return err
		}

		all, err := cache.Issues(cmd.Context(), getCache(cmd), getDB(cmd), p.ID)
		if err != nil {
			return fail(err, "listing issues")
		}

		issues := make([]*model.Issue, 0, len(all))
		for _, issue := range board.Order(all) {
			if len(wanted) == 0 || wanted[issue.Status] {
				issues = append(issues, issue)
			}
		}

		var message string
		if !w.JSONMode {
			message = render.RenderTable(issues)
		}
		w.Success(listResult{Project: p.ID, Issues: issues, Total: len(issues)}, message)
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceP("status", "s", nil, "Filter by status (repeatable)")
	issueCmd.AddCommand(listCmd)
}
