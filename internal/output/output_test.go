package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func newTestWriter(jsonMode, quiet bool) (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Writer{JSONMode: jsonMode, QuietMode: quiet, Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

func TestSuccessJSONEnvelope(t *testing.T) {
	w, stdout, _ := newTestWriter(true, false)
	w.Success(map[string]string{"id": "TB-3"}, "Moved TB-3 to doing")

	var env struct {
		OK      bool              `json:"ok"`
		Data    map[string]string `json:"data"`
		Message string            `json:"message"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal %q: %v", stdout, err)
	}
	if !env.OK || env.Data["id"] != "TB-3" || env.Message != "Moved TB-3 to doing" {
		t.Errorf("envelope = %+v", env)
	}

	stdout.Reset()
	w.Success([]int{}, "")
	var raw map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["message"]; ok {
		t.Error("empty message should be omitted")
	}
}

func TestErrorJSONCarriesCodeAndHint(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		exit     int
		wantHint bool
	}{
		{ErrPersist, ExitPersist, true},
		{ErrExpired, ExitExpired, true},
		{ErrForbidden, ExitForbidden, true},
		{ErrNotFound, ExitNotFound, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w, stdout, stderr := newTestWriter(true, false)
			if got := w.Error(errors.New("boom"), tt.code); got != tt.exit {
				t.Errorf("exit = %d, want %d", got, tt.exit)
			}
			if stderr.Len() != 0 {
				t.Errorf("JSON errors belong on stdout, stderr = %q", stderr)
			}
			var env errorEnvelope
			if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.OK || env.Error != "boom" || env.Code != tt.code {
				t.Errorf("envelope = %+v", env)
			}
			if (env.Hint != "") != tt.wantHint {
				t.Errorf("hint = %q, want present=%v", env.Hint, tt.wantHint)
			}
		})
	}
}

func TestErrorHuman(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	w, stdout, stderr := newTestWriter(false, false)
	if got := w.Error(errors.New("no project selected"), ErrValidation); got != ExitValidation {
		t.Errorf("exit = %d", got)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if want := "Error: no project selected\n"; stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}

	stderr.Reset()
	w.Error(errors.New("team 3: forbidden"), ErrForbidden)
	want := "Error: team 3: forbidden\n" + Hint(ErrForbidden) + "\n"
	if stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrGeneral, ExitGeneral},
		{ErrNotFound, ExitNotFound},
		{ErrValidation, ExitValidation},
		{ErrConflict, ExitConflict},
		{ErrExpired, ExitExpired},
		{ErrForbidden, ExitForbidden},
		{ErrPersist, ExitPersist},
		{ErrorCode("SOMETHING_NEW"), ExitGeneral},
	}
	for _, tt := range tests {
		if got := ExitCodeForError(tt.code); got != tt.want {
			t.Errorf("ExitCodeForError(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestNoticeModes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name     string
		jsonMode bool
		quiet    bool
		wantInfo string
		wantWarn string
	}{
		{"default", false, false, "cache hit\n", "Warning: cache down\n"},
		{"quiet keeps warnings", false, true, "", "Warning: cache down\n"},
		{"json is silent", true, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, stderr := newTestWriter(tt.jsonMode, tt.quiet)
			w.Info("cache %s", "hit")
			if stderr.String() != tt.wantInfo {
				t.Errorf("info stderr = %q, want %q", stderr, tt.wantInfo)
			}
			stderr.Reset()
			w.Warn("cache %s", "down")
			if stderr.String() != tt.wantWarn {
				t.Errorf("warn stderr = %q, want %q", stderr, tt.wantWarn)
			}
			if stdout.Len() != 0 {
				t.Errorf("notices leaked to stdout: %q", stdout)
			}
		})
	}
}

func TestSuccessHumanPassesBlocksThrough(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	w, stdout, _ := newTestWriter(false, false)

	w.Success(nil, "Created TB-1")
	w.Success(nil, "")
	board := "TODO\nTB-1 first"
	w.Success(nil, board)

	if want := "Created TB-1\n" + board + "\n"; stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}
