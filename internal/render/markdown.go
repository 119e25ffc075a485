package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// ColorsEnabled reports whether output may be styled. NO_COLOR (any value)
// and TERM=dumb turn styling off.
func ColorsEnabled() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// markdownWrap bounds the wrap column for descriptions and comments so long
// lines stay readable on wide terminals.
const markdownWrap = 100

// RenderMarkdown renders an issue description or comment body for the
// terminal, wrapped to the terminal width. Without colors the source is
// returned as written. On a renderer error the source is returned along with
// the error.
func RenderMarkdown(source string) (string, error) {
	if source == "" || !ColorsEnabled() {
		return source, nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(min(terminalWidth()-4, markdownWrap)),
	)
	if err != nil {
		return source, err
	}
	out, err := r.Render(source)
	if err != nil {
		return source, err
	}
	return strings.TrimSpace(out), nil
}
