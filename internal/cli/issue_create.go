package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

func statusOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, s := range model.Statuses() {
		opts = append(opts, huh.NewOption(string(s), string(s)))
	}
	return opts
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new issue at the bottom of its column",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()

		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		status, _ := cmd.Flags().GetString("status")

		p, err := resolveProject(cmd, team.ActionWrite)
		if err != nil {
			return err
		}

		if w.JSONMode && title == "" {
			return cmdErr(fmt.Errorf("--title is required in JSON mode"), output.ErrValidation)
		}

		if title == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Title").
						Value(&title).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("title is required")
							}
							return nil
						}),
					huh.NewText().
						Title("Description").
						Value(&description),
					huh.NewSelect[string]().
						Title("Status").
						Options(statusOptions()...).
						Value(&status),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
		}

		if description, err = readText(description, "description"); err != nil {
			return err
		}
		if title, err = model.RequireText("title", title); err != nil {
			return cmdErr(err, output.ErrValidation)
		}
		if err := model.ValidateStatus(model.Status(status)); err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		positions, err := db.ColumnPositions(ctx, store, p.ID, model.Status(status))
		if err != nil {
			return fail(err, "reading column")
		}

		created, err := db.CreateIssue(ctx, store, &model.Issue{
			ProjectID:   p.ID,
			Title:       title,
			Description: description,
			Status:      model.Status(status),
			Position:    board.AppendPosition(positions),
			CreatedBy:   currentUser(cmd),
		})
		if err != nil {
			return fail(err, "creating issue")
		}
		invalidateBoard(cmd, p.ID)

		w.Success(created, fmt.Sprintf("Created %s: %s", model.FormatID(created.ID), created.Title))
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("title", "t", "", "Issue title")
	createCmd.Flags().StringP("description", "d", "", "Issue description (use \"-\" for stdin)")
	createCmd.Flags().StringP("status", "s", string(model.StatusTodo), "Issue status")
	issueCmd.AddCommand(createCmd)
}
