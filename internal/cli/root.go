// Package cli implements the taskboard command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/board"
	"github.com/ALT-F4-LLC/taskboard/internal/cache"
	"github.com/ALT-F4-LLC/taskboard/internal/config"
	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	dbKey    contextKey = "db"
	cfgKey   contextKey = "cfg"
	cacheKey contextKey = "cache"
	teamKey  contextKey = "team"
)

// CmdError wraps an error with a machine-readable error code for structured output.
type CmdError struct {
	Err  error
	Code output.ErrorCode
}

func (e *CmdError) Error() string { return e.Err.Error() }
func (e *CmdError) Unwrap() error { return e.Err }

func cmdErr(err error, code output.ErrorCode) *CmdError {
	return &CmdError{Err: err, Code: code}
}

// fail wraps err with context and the code its cause maps to.
func fail(err error, format string, args ...any) *CmdError {
	return cmdErr(fmt.Errorf(format+": %w", append(args, err)...), classify(err))
}

// classify maps domain errors onto output codes.
func classify(err error) output.ErrorCode {
	var ve *model.ValidationError
	var pe *board.PersistenceError
	switch {
	case errors.As(err, &ve):
		return output.ErrValidation
	case errors.As(err, &pe):
		return output.ErrPersist
	case errors.Is(err, team.ErrForbidden):
		return output.ErrForbidden
	case errors.Is(err, team.ErrExpired):
		return output.ErrExpired
	case errors.Is(err, db.ErrNotFound):
		return output.ErrNotFound
	case errors.Is(err, db.ErrConflict),
		errors.Is(err, db.ErrNotEmpty),
		errors.Is(err, team.ErrAlreadyRedeemed),
		errors.Is(err, team.ErrAlreadyMember),
		errors.Is(err, team.ErrLastAdmin):
		return output.ErrConflict
	default:
		return output.ErrGeneral
	}
}

var rootCmd = &cobra.Command{
	Use:     "taskboard",
	Short:   "Multi-tenant kanban boards from the terminal",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)

		cfg, err := config.Resolve()
		if err != nil {
			return err
		}

		ctx := context.WithValue(cmd.Context(), cfgKey, cfg)

		if _, ok := cmd.Annotations["skipDB"]; ok {
			cmd.SetContext(ctx)
			return nil
		}

		if cfg.UsesFile() {
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				return cmdErr(
					fmt.Errorf("no taskboard database found, run 'taskboard init' to create one"),
					output.ErrNotFound,
				)
			}
		}

		store, err := db.Open(cfg.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if !store.IsInitialized(ctx) {
			store.Close()
			return cmdErr(
				fmt.Errorf("database is not initialized, run 'taskboard init'"),
				output.ErrNotFound,
			)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return fmt.Errorf("migrating database: %w", err)
		}

		boards, err := cache.New(cfg.RedisURL)
		if err != nil {
			slog.Warn("board cache disabled", "err", err)
			boards = cache.Noop{}
		}

		ctx = context.WithValue(ctx, dbKey, store)
		ctx = context.WithValue(ctx, cacheKey, boards)
		ctx = context.WithValue(ctx, teamKey, team.NewService(store))
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if c := getCache(cmd); c != nil {
			c.Close()
		}
		if store := getDB(cmd); store != nil {
			return store.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.PersistentFlags().StringP("project", "P", "", "Project ID (default: the project selected with 'project use')")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func getWriter(cmd *cobra.Command) *output.Writer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return output.New(jsonMode, quietMode)
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func getDB(cmd *cobra.Command) *db.Store {
	store, _ := cmd.Context().Value(dbKey).(*db.Store)
	return store
}

func getCache(cmd *cobra.Command) cache.Boards {
	c, _ := cmd.Context().Value(cacheKey).(cache.Boards)
	return c
}

func getTeams(cmd *cobra.Command) *team.Service {
	svc, _ := cmd.Context().Value(teamKey).(*team.Service)
	return svc
}

// currentUser is the user every command acts as.
func currentUser(cmd *cobra.Command) string {
	if cfg := getCfg(cmd); cfg != nil {
		return cfg.User
	}
	return config.DefaultUser()
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		jsonMode, _ := rootCmd.PersistentFlags().GetBool("json")
		quietMode, _ := rootCmd.PersistentFlags().GetBool("quiet")
		w := output.New(jsonMode, quietMode)

		var ce *CmdError
		if errors.As(err, &ce) {
			return w.Error(ce.Err, ce.Code)
		}
		return w.Error(err, classify(err))
	}
	return 0
}
