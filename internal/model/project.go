package model

import "time"

// Project groups issues on a single board. A project is owned either by a
// user (personal project) or by a team.
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       string    `json:"owner,omitempty"`
	TeamID      *int      `json:"team_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsTeamOwned reports whether the project belongs to a team.
func (p *Project) IsTeamOwned() bool {
	return p.TeamID != nil
}

// OwnerLabel returns a short human description of the owner.
func (p *Project) OwnerLabel() string {
	if p.TeamID != nil {
		return "team"
	}
	if p.Owner == "" {
		return "personal"
	}
	return p.Owner
}
