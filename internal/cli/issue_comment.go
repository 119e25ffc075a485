package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage comments",
}

// editText opens $EDITOR on an empty temp file and returns what was saved.
func editText() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmpFile, err := os.CreateTemp("", "taskboard-comment-*.md")
	if err != nil {
		return "", cmdErr(fmt.Errorf("creating temp file: %w", err), output.ErrGeneral)
	}
	tmpPath := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", cmdErr(fmt.Errorf("closing temp file: %w", err), output.ErrGeneral)
	}
	defer os.Remove(tmpPath)

	editorCmd := exec.Command(editor, tmpPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return "", cmdErr(fmt.Errorf("editor exited with error: %w", err), output.ErrGeneral)
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", cmdErr(fmt.Errorf("reading temp file: %w", err), output.ErrGeneral)
	}
	return strings.TrimSpace(string(content)), nil
}

var commentAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		issue, _, err := loadIssue(cmd, args[0], team.ActionWrite)
		if err != nil {
			return err
		}

		body, _ := cmd.Flags().GetString("message")

		// Resolve message body: flag > stdin pipe > editor.
		if !cmd.Flags().Changed("message") {
			stat, err := os.Stdin.Stat()
			if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
				const maxStdinSize = 1 << 20 // 1 MiB
				lr := &io.LimitedReader{R: os.Stdin, N: maxStdinSize + 1}
				data, err := io.ReadAll(lr)
				if err != nil {
					return cmdErr(fmt.Errorf("reading comment from stdin: %w", err), output.ErrGeneral)
				}
				if int64(len(data)) > maxStdinSize {
					return cmdErr(fmt.Errorf("comment body exceeds %d bytes", maxStdinSize), output.ErrValidation)
				}
				body = strings.TrimSpace(string(data))
			}
		}

		if body == "" && w.JSONMode {
			return cmdErr(fmt.Errorf("message is required in JSON mode"), output.ErrValidation)
		}
		if body == "" && !cmd.Flags().Changed("message") {
			if body, err = editText(); err != nil {
				return err
			}
		}
		if strings.TrimSpace(body) == "" {
			w.Info("Cancelled.")
			return nil
		}

		created, err := db.CreateComment(cmd.Context(), getDB(cmd), &model.Comment{
			IssueID: issue.ID,
			Body:    body,
			Author:  currentUser(cmd),
		})
		if err != nil {
			return fail(err, "creating comment")
		}

		w.Success(created, fmt.Sprintf("Comment #%d added to %s: %s", created.ID, model.FormatID(issue.ID), issue.Title))
		return nil
	},
}

type commentDeleteResult struct {
	ID      int    `json:"id"`
	IssueID string `json:"issue_id"`
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()

		id, err := model.ParseRecordID("comment", args[0])
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}
		c, err := db.GetComment(ctx, store, id)
		if err != nil {
			return fail(err, "comment %d", id)
		}
		if _, _, err := loadIssue(cmd, model.FormatID(c.IssueID), team.ActionWrite); err != nil {
			return err
		}

		if err := db.DeleteComment(ctx, store, id, currentUser(cmd)); err != nil {
			return fail(err, "deleting comment")
		}

		w.Success(commentDeleteResult{ID: id, IssueID: model.FormatID(c.IssueID)},
			fmt.Sprintf("Deleted comment #%d from %s", id, model.FormatID(c.IssueID)))
		return nil
	},
}

func init() {
	commentAddCmd.Flags().StringP("message", "m", "", "Comment body")
	commentCmd.AddCommand(commentAddCmd, commentDeleteCmd)
	issueCmd.AddCommand(commentCmd)
}
