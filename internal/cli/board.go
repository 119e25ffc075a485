package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/cache"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
	"github.com/ALT-F4-LLC/taskboard/internal/tui"
)

// boardColumn represents a single status column in the board JSON output.
type boardColumn struct {
	Status string         `json:"status"`
	Count  int            `json:"count"`
	Issues []*model.Issue `json:"issues"`
}

// boardResult is the JSON output structure for the board command.
type boardResult struct {
	Project *model.Project `json:"project"`
	Columns []boardColumn  `json:"columns"`
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the current project's kanban board",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		interactive, _ := cmd.Flags().GetBool("interactive")
		showAll, _ := cmd.Flags().GetBool("all")

		if interactive {
			return runInteractiveBoard(cmd, w)
		}

		p, err := resolveProject(cmd, team.ActionRead)
		if err != nil {
			return err
		}
		issues, err := cache.Issues(cmd.Context(), getCache(cmd), getDB(cmd), p.ID)
		if err != nil {
			return fail(err, "loading board")
		}

		if w.JSONMode {
			var columns []boardColumn
			for _, status := range model.Statuses() {
				col := board.Column(issues, status)
				if col == nil {
					col = []*model.Issue{}
				}
				columns = append(columns, boardColumn{
					Status: string(status),
					Count:  len(col),
					Issues: col,
				})
			}
			w.Success(boardResult{Project: p, Columns: columns}, "")
			return nil
		}

		message := fmt.Sprintf("%s  (#%d)\n\n%s", p.Name, p.ID,
			render.RenderBoard(board.Order(issues), render.BoardOptions{ShowAll: showAll}))
		w.Success(nil, message)
		return nil
	},
}

func runInteractiveBoard(cmd *cobra.Command, w *output.Writer) error {
	if w.JSONMode {
		return cmdErr(fmt.Errorf("--interactive cannot be combined with --json"), output.ErrValidation)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return cmdErr(fmt.Errorf("--interactive needs a terminal"), output.ErrValidation)
	}

	p, err := resolveProject(cmd, team.ActionWrite)
	if err != nil {
		return err
	}
	st, err := board.Load(cmd.Context(), getDB(cmd), p.ID)
	if err != nil {
		return fail(err, "loading board")
	}

	m := tui.New(cmd.Context(), getDB(cmd), getCache(cmd), p, st, currentUser(cmd))
	if err := tui.Run(m); err != nil {
		return cmdErr(fmt.Errorf("interactive board: %w", err), output.ErrGeneral)
	}
	return nil
}

func init() {
	boardCmd.Flags().BoolP("interactive", "i", false, "Open the board in an interactive view where cards can be moved")
	boardCmd.Flags().BoolP("all", "a", false, "Show every card instead of the first few per column")
	rootCmd.AddCommand(boardCmd)
}
