package output

import (
	"encoding/json"
	"io"
)

// ErrorCode is the machine-readable class of a failure, carried in the JSON
// error envelope and mapped onto a process exit code.
type ErrorCode string

const (
	ErrGeneral    ErrorCode = "GENERAL_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrExpired    ErrorCode = "EXPIRED"
	ErrForbidden  ErrorCode = "FORBIDDEN"
	ErrPersist    ErrorCode = "PERSISTENCE_FAILURE"
)

const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitNotFound   = 2
	ExitValidation = 3
	ExitConflict   = 4
	ExitExpired    = 5
	ExitForbidden  = 6
	ExitPersist    = 7
)

var exitCodes = map[ErrorCode]int{
	ErrNotFound:   ExitNotFound,
	ErrValidation: ExitValidation,
	ErrConflict:   ExitConflict,
	ErrExpired:    ExitExpired,
	ErrForbidden:  ExitForbidden,
	ErrPersist:    ExitPersist,
}

// ExitCodeForError returns the exit code for code; unknown codes exit 1.
func ExitCodeForError(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitGeneral
}

var hints = map[ErrorCode]string{
	ErrExpired:   "Invitations last 7 days. Ask a team admin to send a new one.",
	ErrForbidden: "Ask a team admin for a role with access (see 'taskboard team members').",
	ErrPersist:   "Nothing was saved and the board is unchanged. Retry the move.",
}

// Hint returns a short recovery suggestion for code, or "".
func Hint(code ErrorCode) string {
	return hints[code]
}

type successEnvelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
	Hint  string    `json:"hint,omitempty"`
}

func encoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

func writeJSONSuccess(w io.Writer, data any, message string) {
	encoder(w).Encode(successEnvelope{OK: true, Data: data, Message: message})
}

func writeJSONError(w io.Writer, err error, code ErrorCode) {
	encoder(w).Encode(errorEnvelope{Error: err.Error(), Code: code, Hint: Hint(code)})
}
