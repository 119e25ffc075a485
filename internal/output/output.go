// Package output writes command results either as a JSON envelope on stdout
// or as styled text split across stdout (results) and stderr (diagnostics).
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Writer is created per command from the --json and --quiet flags.
type Writer struct {
	JSONMode  bool
	QuietMode bool
	Stdout    io.Writer
	Stderr    io.Writer
}

func New(jsonMode, quietMode bool) *Writer {
	return &Writer{
		JSONMode:  jsonMode,
		QuietMode: quietMode,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Success reports a result. JSON mode encodes data; human mode prints message,
// which may be a pre-rendered table or board.
func (w *Writer) Success(data any, message string) {
	if w.JSONMode {
		writeJSONSuccess(w.Stdout, data, message)
		return
	}
	writeHumanSuccess(w.Stdout, message)
}

// Error reports a failed command and returns the process exit code for code.
func (w *Writer) Error(err error, code ErrorCode) int {
	slog.Debug("command failed", "code", code, "err", err)
	if w.JSONMode {
		writeJSONError(w.Stdout, err, code)
	} else {
		writeHumanError(w.Stderr, err, code)
	}
	return ExitCodeForError(code)
}

// Info prints progress or hints to stderr. Silent under --quiet and --json.
func (w *Writer) Info(format string, args ...any) {
	if w.QuietMode || w.JSONMode {
		return
	}
	writeNotice(w.Stderr, noticeInfo, fmt.Sprintf(format, args...))
}

// Warn prints to stderr even under --quiet, but never in JSON mode.
func (w *Writer) Warn(format string, args ...any) {
	if w.JSONMode {
		return
	}
	writeNotice(w.Stderr, noticeWarn, fmt.Sprintf(format, args...))
}
