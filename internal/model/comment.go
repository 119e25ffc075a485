package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Comment is a note on an issue. Comments are never edited; they are listed
// oldest first and removed individually.
type Comment struct {
	ID        int
	IssueID   int
	Body      string
	Author    string
	CreatedAt time.Time
}

// Normalize trims the body and rejects an empty one.
func (c *Comment) Normalize() error {
	body, err := RequireText("body", c.Body)
	if err != nil {
		return err
	}
	c.Body = body
	return nil
}

// AuthorOrAnonymous returns the author, or "anonymous" for comments imported
// without one.
func (c Comment) AuthorOrAnonymous() string {
	if c.Author == "" {
		return "anonymous"
	}
	return c.Author
}

// commentJSON is the wire shape: issue IDs in display form, UTC timestamps.
type commentJSON struct {
	ID        int    `json:"id"`
	IssueID   string `json:"issue_id"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(commentJSON{
		ID:        c.ID,
		IssueID:   FormatID(c.IssueID),
		Body:      c.Body,
		Author:    c.AuthorOrAnonymous(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var wire commentJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	issueID, err := ParseID(wire.IssueID)
	if err != nil {
		return fmt.Errorf("comment %d: issue_id: %w", wire.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, wire.CreatedAt)
	if err != nil {
		return fmt.Errorf("comment %d: created_at: %w", wire.ID, err)
	}
	*c = Comment{
		ID:        wire.ID,
		IssueID:   issueID,
		Body:      wire.Body,
		Author:    wire.Author,
		CreatedAt: createdAt,
	}
	return nil
}
