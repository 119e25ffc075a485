package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/config"
	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

type configInfo struct {
	Backend       string `json:"backend"`
	DataDir       string `json:"data_dir"`
	DBPath        string `json:"db_path,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	SchemaVersion int    `json:"schema_version"`
	Initialized   bool   `json:"initialized"`
	RedisURL      string `json:"redis_url,omitempty"`
	User          string `json:"user"`
	UserFromEnv   bool   `json:"user_from_env"`
	IssuePrefix   string `json:"issue_prefix"`
	PathFromEnv   bool   `json:"path_from_env"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display taskboard configuration",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		info := configInfo{
			Backend:     "sqlite",
			DataDir:     cfg.DataDir,
			RedisURL:    redactURL(cfg.RedisURL),
			User:        cfg.User,
			UserFromEnv: cfg.UserFromEnv,
			IssuePrefix: model.IDPrefix,
			PathFromEnv: cfg.EnvVarSet,
		}

		if cfg.UsesFile() {
			info.DBPath = cfg.DBPath
			exists, err := cfg.Exists()
			if err != nil {
				return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
			}
			if !exists {
				w.Warn("No taskboard database found. Run 'taskboard init' to create one.")
				w.Success(info, formatConfigHuman(info))
				return nil
			}
			stat, err := os.Stat(cfg.DBPath)
			if err != nil {
				return cmdErr(fmt.Errorf("reading database file: %w", err), output.ErrGeneral)
			}
			info.DBSizeBytes = stat.Size()
		} else {
			info.Backend = "postgres"
			info.DatabaseURL = redactURL(cfg.DatabaseURL)
		}

		store, err := db.Open(cfg.DSN())
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer store.Close()

		if v, err := store.SchemaVersion(cmd.Context()); err == nil {
			info.SchemaVersion = v
			info.Initialized = true
		}

		w.Success(info, formatConfigHuman(info))
		return nil
	},
}

// redactURL hides the password in a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

func formatEnvValue(val string) string {
	if val == "" {
		return "(not set)"
	}
	return val
}

func userSource(info configInfo) string {
	if info.UserFromEnv {
		return info.User + " (" + config.EnvUser + ")"
	}
	return info.User
}

func formatConfigHuman(info configInfo) string {
	if !render.ColorsEnabled() {
		return formatConfigPlain(info)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	indicator := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
	location := info.DBPath
	if info.DatabaseURL != "" {
		location = info.DatabaseURL
	}
	if !info.Initialized {
		indicator = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("●")
		location += " (not initialized)"
	}

	lines := headerStyle.Render("Taskboard Configuration") + "\n\n"
	lines += fmt.Sprintf("  %s %s %s\n", keyStyle.Render("Database:      "), indicator, valStyle.Render(location))
	lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("Backend:       "), valStyle.Render(info.Backend))
	if info.Initialized {
		if info.DBPath != "" {
			lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("Database size: "), valStyle.Render(humanize.IBytes(uint64(info.DBSizeBytes))))
		}
		lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("Schema version:"), valStyle.Render(fmt.Sprintf("%d", info.SchemaVersion)))
	}
	lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("Board cache:   "), valStyle.Render(formatEnvValue(info.RedisURL)))
	lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("User:          "), valStyle.Render(userSource(info)))
	lines += fmt.Sprintf("  %s %s\n", keyStyle.Render("Issue prefix:  "), valStyle.Render(info.IssuePrefix))
	lines += fmt.Sprintf("  %s %s", keyStyle.Render(config.EnvPath+":"), valStyle.Render(pathSource(info)))
	return lines
}

func pathSource(info configInfo) string {
	if info.PathFromEnv {
		return info.DataDir
	}
	return formatEnvValue("")
}

func formatConfigPlain(info configInfo) string {
	location := info.DBPath
	if info.DatabaseURL != "" {
		location = info.DatabaseURL
	}
	if !info.Initialized {
		location += " (not initialized)"
	}

	lines := fmt.Sprintf("Database:        %s\n", location)
	lines += fmt.Sprintf("Backend:         %s\n", info.Backend)
	if info.Initialized {
		if info.DBPath != "" {
			lines += fmt.Sprintf("Database size:   %s\n", humanize.IBytes(uint64(info.DBSizeBytes)))
		}
		lines += fmt.Sprintf("Schema version:  %d\n", info.SchemaVersion)
	}
	lines += fmt.Sprintf("Board cache:     %s\n", formatEnvValue(info.RedisURL))
	lines += fmt.Sprintf("User:            %s\n", userSource(info))
	lines += fmt.Sprintf("Issue prefix:    %s\n", info.IssuePrefix)
	lines += fmt.Sprintf("TASKBOARD_PATH:  %s", pathSource(info))
	return lines
}

func init() {
	rootCmd.AddCommand(configCmd)
}
