package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a JSON export",
	Long: `Restore a JSON export, keeping every record's ID. By default the database
must be empty; --merge skips records whose ID already exists and --replace
deletes all existing data first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()

		merge, _ := cmd.Flags().GetBool("merge")
		replace, _ := cmd.Flags().GetBool("replace")
		force, _ := cmd.Flags().GetBool("force")

		if merge && replace {
			return cmdErr(fmt.Errorf("--merge and --replace are mutually exclusive"), output.ErrValidation)
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return cmdErr(fmt.Errorf("reading file: %w", err), output.ErrGeneral)
		}

		var data model.ExportData
		if err := json.Unmarshal(raw, &data); err != nil {
			return cmdErr(fmt.Errorf("parsing JSON: %w", err), output.ErrValidation)
		}

		if errs := data.Validate(); len(errs) > 0 {
			msg := fmt.Sprintf("validation failed with %d error(s):\n  - %s", len(errs), strings.Join(errs, "\n  - "))
			return cmdErr(errors.New(msg), output.ErrValidation)
		}

		mode := db.ImportEmpty
		switch {
		case merge:
			mode = db.ImportMerge
		case replace:
			mode = db.ImportReplace
			ok, err := confirm(w, force, "This will delete ALL existing data and replace it with the import file. Continue?", "Yes, replace all data")
			if err != nil {
				return err
			}
			if !ok {
				w.Info("Cancelled.")
				return nil
			}
		}

		// Boards cached before the import are stale afterwards.
		stale := make(map[int]bool)
		existing, err := db.ListAllProjects(ctx, store)
		if err != nil {
			return fail(err, "listing projects")
		}
		for _, p := range existing {
			stale[p.ID] = true
		}
		for _, p := range data.Projects {
			stale[p.ID] = true
		}

		result, err := db.Import(ctx, store, &data, mode)
		if errors.Is(err, db.ErrNotEmpty) {
			return cmdErr(
				fmt.Errorf("database is not empty: use --merge to merge with existing data or --replace to replace it"),
				output.ErrConflict,
			)
		}
		if err != nil {
			return fail(err, "importing data")
		}
		for id := range stale {
			invalidateBoard(cmd, id)
		}

		var message string
		if merge {
			message = fmt.Sprintf("Imported %d records, skipped %d duplicates", result.Imported, result.Skipped)
		} else {
			message = fmt.Sprintf("Imported %d records", result.Imported)
		}
		w.Success(result, message)
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("merge", false, "Skip records whose ID already exists")
	importCmd.Flags().Bool("replace", false, "Delete all existing data before importing")
	importCmd.Flags().BoolP("force", "f", false, "Skip the --replace confirmation")
	rootCmd.AddCommand(importCmd)
}
