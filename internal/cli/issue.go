package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var issueCmd = &cobra.Command{
	Use:     "issue",
	Short:   "Manage issues",
	Aliases: []string{"i"},
}

// loadIssue parses an issue ID, loads the issue and its project, and checks
// that the current user may perform action on that project.
func loadIssue(cmd *cobra.Command, arg string, action team.Action) (*model.Issue, *model.Project, error) {
	id, err := model.ParseID(arg)
	if err != nil {
		return nil, nil, cmdErr(fmt.Errorf("invalid issue ID: %w", err), output.ErrValidation)
	}
	issue, err := db.GetIssue(cmd.Context(), getDB(cmd), id)
	if err != nil {
		return nil, nil, fail(err, "issue %s", model.FormatID(id))
	}
	p, err := projectFor(cmd, issue.ProjectID, action)
	if err != nil {
		return nil, nil, err
	}
	return issue, p, nil
}

// readText returns s, or up to 1 MiB of stdin when s is "-".
func readText(s, what string) (string, error) {
	if s != "-" {
		return s, nil
	}
	const maxStdinSize = 1 << 20 // 1 MiB
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinSize))
	if err != nil {
		return "", cmdErr(fmt.Errorf("reading %s from stdin: %w", what, err), output.ErrGeneral)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func init() {
	rootCmd.AddCommand(issueCmd)
}
