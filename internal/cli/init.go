package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

type initResult struct {
	Path          string `json:"path"`
	DBPath        string `json:"db_path,omitempty"`
	Backend       string `json:"backend"`
	SchemaVersion int    `json:"schema_version"`
	Created       bool   `json:"created"`
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a new taskboard database",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)
		ctx := cmd.Context()

		result := initResult{Path: cfg.DataDir, Backend: "sqlite"}
		if cfg.UsesFile() {
			result.DBPath = cfg.DBPath
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return cmdErr(fmt.Errorf("creating directory: %w", err), output.ErrGeneral)
			}
		} else {
			result.Backend = "postgres"
		}

		store, err := db.Open(cfg.DSN())
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer store.Close()

		if store.IsInitialized(ctx) {
			if err := store.Migrate(ctx); err != nil {
				return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
			}
			v, err := store.SchemaVersion(ctx)
			if err != nil {
				return cmdErr(err, output.ErrGeneral)
			}
			result.SchemaVersion = v
			w.Warn("Database already initialized (%s)", describeBackend(result))
			w.Success(result, render.StyledText("Database already initialized", lipgloss.NewStyle().Foreground(lipgloss.Color("3"))))
			return nil
		}

		if err := store.Initialize(ctx); err != nil {
			return cmdErr(fmt.Errorf("initializing schema: %w", err), output.ErrGeneral)
		}
		if err := store.Migrate(ctx); err != nil {
			return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
		}
		v, err := store.SchemaVersion(ctx)
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}
		result.SchemaVersion = v
		result.Created = true

		w.Success(result, render.StyledText("Initialized taskboard database", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))))
		w.Info("Database: %s", describeBackend(result))
		if cfg.UsesFile() {
			w.Info("Consider adding .taskboard/ to your .gitignore")
		}
		return nil
	},
}

func describeBackend(r initResult) string {
	if r.DBPath != "" {
		return r.DBPath
	}
	return r.Backend + " via TASKBOARD_DATABASE_URL"
}

func init() {
	rootCmd.AddCommand(initCmd)
}
