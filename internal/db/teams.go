package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func teamFromRecord(r Record) (*model.Team, error) {
	t := &model.Team{
		ID:          r.Int("id"),
		Name:        r.String("name"),
		Description: r.String("description"),
		CreatedBy:   r.String("created_by"),
	}
	var err error
	if t.CreatedAt, err = r.Time("created_at"); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return nil, err
	}
	return t, nil
}

func memberFromRecord(r Record) (*model.TeamMember, error) {
	joined, err := r.Time("joined_at")
	if err != nil {
		return nil, err
	}
	return &model.TeamMember{
		ID:        r.Int("id"),
		TeamID:    r.Int("team_id"),
		User:      r.String("user_name"),
		Role:      model.Role(r.String("role")),
		InvitedBy: r.String("invited_by"),
		JoinedAt:  joined,
	}, nil
}

func teamsFromRecords(recs []Record) ([]*model.Team, error) {
	out := make([]*model.Team, 0, len(recs))
	for _, r := range recs {
		t, err := teamFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding team %d: %w", r.Int("id"), err)
		}
		out = append(out, t)
	}
	return out, nil
}

func membersFromRecords(recs []Record) ([]*model.TeamMember, error) {
	out := make([]*model.TeamMember, 0, len(recs))
	for _, r := range recs {
		m, err := memberFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding member %d: %w", r.Int("id"), err)
		}
		out = append(out, m)
	}
	return out, nil
}

// InsertTeam creates a team row. Membership is the caller's concern.
func InsertTeam(ctx context.Context, gw Gateway, t *model.Team) (*model.Team, error) {
	rec := Record{
		"name":        t.Name,
		"description": t.Description,
		"created_by":  t.CreatedBy,
		"created_at":  formatTime(t.CreatedAt),
		"updated_at":  formatTime(t.UpdatedAt),
	}
	if t.ID != 0 {
		rec["id"] = t.ID
	}
	out, err := gw.Insert(ctx, EntityTeam, rec)
	if err != nil {
		return nil, fmt.Errorf("inserting team: %w", err)
	}
	return teamFromRecord(out)
}

// GetTeam retrieves a team by ID.
func GetTeam(ctx context.Context, gw Gateway, id int) (*model.Team, error) {
	rec, err := gw.Get(ctx, EntityTeam, id)
	if err != nil {
		return nil, err
	}
	return teamFromRecord(rec)
}

// ListTeamsByIDs returns the given teams, newest first.
func ListTeamsByIDs(ctx context.Context, gw Gateway, ids []int) ([]*model.Team, error) {
	recs, err := gw.List(ctx, EntityTeam, []Filter{In("id", ids)}, []Sort{Desc("created_at"), Desc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	return teamsFromRecords(recs)
}

// ListAllTeams returns every team ordered by ID.
func ListAllTeams(ctx context.Context, gw Gateway) ([]*model.Team, error) {
	recs, err := gw.List(ctx, EntityTeam, nil, []Sort{Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	return teamsFromRecords(recs)
}

// UpdateTeam changes a team's name and/or description.
func UpdateTeam(ctx context.Context, gw Gateway, id int, updates map[string]any, at time.Time) (*model.Team, error) {
	rec := Record{"updated_at": formatTime(at)}
	for k, v := range updates {
		if k != "name" && k != "description" {
			return nil, fmt.Errorf("invalid update field %q", k)
		}
		rec[k] = v
	}
	out, err := gw.Update(ctx, EntityTeam, id, rec)
	if err != nil {
		return nil, err
	}
	return teamFromRecord(out)
}

// DeleteTeam removes a team; members, invitations and team projects cascade.
func DeleteTeam(ctx context.Context, gw Gateway, id int) error {
	return gw.Delete(ctx, EntityTeam, id)
}

// InsertMember adds a user to a team.
func InsertMember(ctx context.Context, gw Gateway, m *model.TeamMember) (*model.TeamMember, error) {
	rec := Record{
		"team_id":    m.TeamID,
		"user_name":  m.User,
		"role":       string(m.Role),
		"invited_by": m.InvitedBy,
		"joined_at":  formatTime(m.JoinedAt),
	}
	if m.ID != 0 {
		rec["id"] = m.ID
	}
	out, err := gw.Insert(ctx, EntityMember, rec)
	if err != nil {
		return nil, fmt.Errorf("inserting member: %w", err)
	}
	return memberFromRecord(out)
}

// GetMember returns user's membership in a team, or ErrNotFound.
func GetMember(ctx context.Context, gw Gateway, teamID int, user string) (*model.TeamMember, error) {
	recs, err := gw.List(ctx, EntityMember,
		[]Filter{Eq("team_id", teamID), Eq("user_name", user)}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying membership: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return memberFromRecord(recs[0])
}

// GetMemberByID retrieves a membership row by its own ID.
func GetMemberByID(ctx context.Context, gw Gateway, memberID int) (*model.TeamMember, error) {
	rec, err := gw.Get(ctx, EntityMember, memberID)
	if err != nil {
		return nil, err
	}
	return memberFromRecord(rec)
}

// ListMembers returns a team's members in join order.
func ListMembers(ctx context.Context, gw Gateway, teamID int) ([]*model.TeamMember, error) {
	recs, err := gw.List(ctx, EntityMember,
		[]Filter{Eq("team_id", teamID)},
		[]Sort{Asc("joined_at")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	return membersFromRecords(recs)
}

// ListMemberships returns every team membership held by user.
func ListMemberships(ctx context.Context, gw Gateway, user string) ([]*model.TeamMember, error) {
	recs, err := gw.List(ctx, EntityMember, []Filter{Eq("user_name", user)}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	return membersFromRecords(recs)
}

// ListAllMembers returns every membership row ordered by ID.
func ListAllMembers(ctx context.Context, gw Gateway) ([]*model.TeamMember, error) {
	recs, err := gw.List(ctx, EntityMember, nil, []Sort{Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	return membersFromRecords(recs)
}

// UpdateMemberRole changes the role of a membership row.
func UpdateMemberRole(ctx context.Context, gw Gateway, memberID int, role model.Role) (*model.TeamMember, error) {
	out, err := gw.Update(ctx, EntityMember, memberID, Record{"role": string(role)})
	if err != nil {
		return nil, err
	}
	return memberFromRecord(out)
}

// DeleteMember removes a membership row.
func DeleteMember(ctx context.Context, gw Gateway, memberID int) error {
	return gw.Delete(ctx, EntityMember, memberID)
}
