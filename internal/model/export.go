package model

import (
	"fmt"
	"strings"
)

// ExportVersion is the current version of the export file format.
const ExportVersion = 1

// ExportData is the top-level structure for a full database export.
// Invitations are not exported; only their token hashes are stored.
type ExportData struct {
	Version    int           `json:"version"`
	ExportedAt string        `json:"exported_at"`
	Teams      []*Team       `json:"teams"`
	Members    []*TeamMember `json:"members"`
	Projects   []*Project    `json:"projects"`
	Issues     []*Issue      `json:"issues"`
	Comments   []*Comment    `json:"comments"`
}

// Validate checks the export for structural problems and returns every one
// found rather than stopping at the first.
func (d *ExportData) Validate() []string {
	var errs []string

	if d.Version != ExportVersion {
		errs = append(errs, fmt.Sprintf("unsupported version %d: expected %d", d.Version, ExportVersion))
	}

	projects := make(map[int]bool, len(d.Projects))
	for _, p := range d.Projects {
		projects[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Sprintf("project %d: name is required", p.ID))
		}
	}
	for _, m := range d.Members {
		if err := ValidateRole(m.Role); err != nil {
			errs = append(errs, fmt.Sprintf("member %d: %s", m.ID, err))
		}
	}

	issues := make(map[int]bool, len(d.Issues))
	for _, issue := range d.Issues {
		issues[issue.ID] = true
		if err := ValidateStatus(issue.Status); err != nil {
			errs = append(errs, fmt.Sprintf("issue %s: %s", FormatID(issue.ID), err))
		}
		if !projects[issue.ProjectID] {
			errs = append(errs, fmt.Sprintf("issue %s: unknown project %d", FormatID(issue.ID), issue.ProjectID))
		}
	}
	for _, c := range d.Comments {
		if !issues[c.IssueID] {
			errs = append(errs, fmt.Sprintf("comment %d: unknown issue %s", c.ID, FormatID(c.IssueID)))
		}
	}

	return errs
}
