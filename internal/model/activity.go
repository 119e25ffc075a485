package model

import "time"

// Activity represents a change record for an issue field.
type Activity struct {
	ID           int       `json:"id"`
	IssueID      int       `json:"issue_id"`
	FieldChanged string    `json:"field"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	ChangedBy    string    `json:"changed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
