package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Go        string `json:"go"`
}

// buildVersion returns the linker-stamped version, or the module version
// recorded by 'go install' when the binary was not stamped.
func buildVersion() versionInfo {
	v := versionInfo{Version: version, Commit: commit, BuildDate: buildDate, Go: runtime.Version()}
	if version != "dev" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		v.Version = mv
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "none" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if buildDate == "unknown" {
				v.BuildDate = s.Value
			}
		}
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print taskboard version information",
	Annotations: map[string]string{"skipDB": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		v := buildVersion()
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		msg := fmt.Sprintf("taskboard %s %s",
			render.StyledText(v.Version, lipgloss.NewStyle().Bold(true)),
			render.StyledText(fmt.Sprintf("(commit %s, built %s, %s)", v.Commit, v.BuildDate, v.Go), dim),
		)
		getWriter(cmd).Success(v, msg)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
