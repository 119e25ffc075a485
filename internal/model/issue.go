package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IDPrefix is the prefix used for issue IDs in display and JSON output.
const IDPrefix = "TB"

// Status represents the board column an issue currently sits in.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

var validStatuses = []Status{
	StatusTodo,
	StatusDoing,
	StatusDone,
}

// Statuses returns the board columns in left-to-right order.
func Statuses() []Status {
	out := make([]Status, len(validStatuses))
	copy(out, validStatuses)
	return out
}

// ValidateStatus returns a ValidationError if s is not a recognized status.
func ValidateStatus(s Status) error {
	for _, v := range validStatuses {
		if s == v {
			return nil
		}
	}
	return validationErrorf("status", "invalid status %q: must be one of %v", s, validStatuses)
}

// Color returns a color name string suitable for terminal rendering.
func (s Status) Color() string {
	switch s {
	case StatusTodo:
		return "blue"
	case StatusDoing:
		return "yellow"
	case StatusDone:
		return "green"
	default:
		return "white"
	}
}

// Icon returns a single-glyph marker for the status.
func (s Status) Icon() string {
	switch s {
	case StatusTodo:
		return "○"
	case StatusDoing:
		return "◐"
	case StatusDone:
		return "●"
	default:
		return "?"
	}
}

// FormatID returns the display form of an issue ID, e.g. "TB-5".
func FormatID(id int) string {
	return fmt.Sprintf("%s-%d", IDPrefix, id)
}

// ParseID accepts both "TB-5" and "5" and returns the numeric ID.
// The prefix check is case-insensitive; len(prefix) is safe to use for
// slicing because IDPrefix is ASCII and ToUpper preserves its byte length.
func ParseID(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, validationErrorf("id", "empty issue ID")
	}

	prefix := IDPrefix + "-"
	if strings.HasPrefix(strings.ToUpper(s), prefix) {
		s = s[len(prefix):]
	}

	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, validationErrorf("id", "invalid issue ID %q", input)
	}
	if id <= 0 {
		return 0, validationErrorf("id", "invalid issue ID %q: must be positive", input)
	}

	return id, nil
}

// ParseRecordID parses a plain positive integer ID for projects, teams,
// members, invitations and comments.
func ParseRecordID(kind, input string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || id <= 0 {
		return 0, validationErrorf("id", "invalid %s ID %q", kind, input)
	}
	return id, nil
}

// Issue represents a card on a project board.
type Issue struct {
	ID          int
	ProjectID   int
	Title       string
	Description string
	Status      Status
	Position    int64
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy of the issue that shares no memory with i.
func (i *Issue) Clone() *Issue {
	c := *i
	return &c
}

// issueJSON is the JSON wire format for Issue.
type issueJSON struct {
	ID          string `json:"id"`
	ProjectID   int    `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Position    int64  `json:"position"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// MarshalJSON implements custom JSON serialization for Issue.
func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(issueJSON{
		ID:          FormatID(i.ID),
		ProjectID:   i.ProjectID,
		Title:       i.Title,
		Description: i.Description,
		Status:      string(i.Status),
		Position:    i.Position,
		CreatedBy:   i.CreatedBy,
		CreatedAt:   i.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   i.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON implements custom JSON deserialization for Issue.
func (i *Issue) UnmarshalJSON(data []byte) error {
	var j issueJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}

	id, err := ParseID(j.ID)
	if err != nil {
		return fmt.Errorf("parsing issue id: %w", err)
	}
	i.ID = id
	i.ProjectID = j.ProjectID
	i.Title = j.Title
	i.Description = j.Description

	i.Status = Status(j.Status)
	if err := ValidateStatus(i.Status); err != nil {
		return err
	}
	i.Position = j.Position
	i.CreatedBy = j.CreatedBy

	createdAt, err := time.Parse(time.RFC3339, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = createdAt

	updatedAt, err := time.Parse(time.RFC3339, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	i.UpdatedAt = updatedAt

	return nil
}
