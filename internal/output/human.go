package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

type noticeKind struct {
	icon  string
	label string
	color lipgloss.Color
	bold  bool
	dim   bool // style the message as well as the prefix
}

var (
	noticeInfo  = noticeKind{icon: "ℹ", color: "8", dim: true}
	noticeWarn  = noticeKind{icon: "⚠", label: "Warning:", color: "3", bold: true}
	noticeError = noticeKind{icon: "✘", label: "Error:", color: "1", bold: true}
	noticeOK    = noticeKind{icon: "✔", color: "2"}
)

// writeNotice prints one line prefixed by the kind's icon when colors are on,
// or by its plain label otherwise.
func writeNotice(w io.Writer, kind noticeKind, msg string) {
	if !render.ColorsEnabled() {
		if kind.label != "" {
			msg = kind.label + " " + msg
		}
		fmt.Fprintln(w, msg)
		return
	}
	style := lipgloss.NewStyle().Foreground(kind.color).Bold(kind.bold)
	prefix := style.Render(kind.icon)
	if kind.label != "" {
		prefix += " " + style.Render(kind.label)
	}
	if kind.dim {
		msg = style.Render(msg)
	}
	fmt.Fprintf(w, "%s %s\n", prefix, msg)
}

// writeHumanSuccess prints a one-line confirmation with a check mark.
// Multi-line output such as a board or a table is printed untouched.
func writeHumanSuccess(w io.Writer, message string) {
	switch {
	case message == "":
	case strings.Contains(message, "\n"):
		fmt.Fprintln(w, message)
	default:
		writeNotice(w, noticeOK, message)
	}
}

func writeHumanError(w io.Writer, err error, code ErrorCode) {
	writeNotice(w, noticeError, err.Error())
	if hint := Hint(code); hint != "" {
		writeNotice(w, noticeInfo, hint)
	}
}
