// Package team manages teams, their members and invitations, and enforces
// the role policy that guards every team-scoped operation.
package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrExpired         = errors.New("invitation expired")
	ErrAlreadyRedeemed = errors.New("invitation already redeemed")
	ErrAlreadyMember   = errors.New("already a member of this team")
	ErrLastAdmin       = errors.New("team must keep at least one admin")
)

// Service runs team operations on behalf of a user.
type Service struct {
	gw  db.Gateway
	now func() time.Time
	log *slog.Logger
}

// NewService returns a Service backed by gw.
func NewService(gw db.Gateway) *Service {
	return &Service{
		gw:  gw,
		now: func() time.Time { return time.Now().UTC() },
		log: slog.Default().With("component", "team"),
	}
}

// Role returns user's role in a team, or the empty role if user is not a
// member. A missing team is ErrNotFound.
func (s *Service) Role(ctx context.Context, teamID int, user string) (model.Role, error) {
	return role(ctx, s.gw, teamID, user)
}

func role(ctx context.Context, gw db.Gateway, teamID int, user string) (model.Role, error) {
	if _, err := db.GetTeam(ctx, gw, teamID); err != nil {
		return "", fmt.Errorf("team %d: %w", teamID, err)
	}
	m, err := db.GetMember(ctx, gw, teamID, user)
	if errors.Is(err, db.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// Require fails with ErrForbidden unless user's role in the team permits
// action.
func (s *Service) Require(ctx context.Context, teamID int, user string, action Action) error {
	return require(ctx, s.gw, teamID, user, action)
}

func require(ctx context.Context, gw db.Gateway, teamID int, user string, action Action) error {
	r, err := role(ctx, gw, teamID, user)
	if err != nil {
		return err
	}
	if !Can(r, action) {
		if r == "" {
			return fmt.Errorf("%s is not a member of team %d: %w", user, teamID, ErrForbidden)
		}
		return fmt.Errorf("%s (%s) cannot %s in team %d: %w", user, r, action, teamID, ErrForbidden)
	}
	return nil
}

// RequireProject checks access to a project. Personal projects belong to
// their owner alone; team projects follow the team's role policy.
func (s *Service) RequireProject(ctx context.Context, p *model.Project, user string, action Action) error {
	if !p.IsTeamOwned() {
		if p.Owner != user {
			return fmt.Errorf("project %d belongs to %s: %w", p.ID, p.Owner, ErrForbidden)
		}
		return nil
	}
	return s.Require(ctx, *p.TeamID, user, action)
}

// TeamIDs returns the IDs of every team user belongs to.
func (s *Service) TeamIDs(ctx context.Context, user string) ([]int, error) {
	memberships, err := db.ListMemberships(ctx, s.gw, user)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(memberships))
	for i, m := range memberships {
		ids[i] = m.TeamID
	}
	return ids, nil
}

// CreateTeam creates a team with creator as its first admin.
func (s *Service) CreateTeam(ctx context.Context, name, description, creator string) (*model.Team, error) {
	name, err := model.RequireText("name", name)
	if err != nil {
		return nil, err
	}
	if creator == "" {
		return nil, &model.ValidationError{Field: "user", Msg: "a user is required to create a team"}
	}

	now := s.now()
	var created *model.Team
	err = s.gw.InTx(ctx, func(tx db.Gateway) error {
		t, err := db.InsertTeam(ctx, tx, &model.Team{
			Name: name, Description: description, CreatedBy: creator,
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if _, err := db.InsertMember(ctx, tx, &model.TeamMember{
			TeamID: t.ID, User: creator, Role: model.RoleAdmin, JoinedAt: now,
		}); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("team created", "team", created.ID, "by", creator)
	return created, nil
}

// GetTeam returns a team the user can read.
func (s *Service) GetTeam(ctx context.Context, teamID int, user string) (*model.Team, error) {
	if err := s.Require(ctx, teamID, user, ActionRead); err != nil {
		return nil, err
	}
	return db.GetTeam(ctx, s.gw, teamID)
}

// ListTeams returns the teams user belongs to, newest first.
func (s *Service) ListTeams(ctx context.Context, user string) ([]*model.Team, error) {
	ids, err := s.TeamIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	return db.ListTeamsByIDs(ctx, s.gw, ids)
}

// UpdateTeam renames or re-describes a team. Admin only.
func (s *Service) UpdateTeam(ctx context.Context, teamID int, user string, updates map[string]any) (*model.Team, error) {
	if name, ok := updates["name"]; ok {
		n, err := model.RequireText("name", fmt.Sprint(name))
		if err != nil {
			return nil, err
		}
		updates["name"] = n
	}
	if err := s.Require(ctx, teamID, user, ActionManageTeam); err != nil {
		return nil, err
	}
	return db.UpdateTeam(ctx, s.gw, teamID, updates, s.now())
}

// DeleteTeam removes a team with its members, invitations and projects.
// Admin only.
func (s *Service) DeleteTeam(ctx context.Context, teamID int, user string) error {
	if err := s.Require(ctx, teamID, user, ActionManageTeam); err != nil {
		return err
	}
	return db.DeleteTeam(ctx, s.gw, teamID)
}

// Members lists a team's members in join order.
func (s *Service) Members(ctx context.Context, teamID int, user string) ([]*model.TeamMember, error) {
	if err := s.Require(ctx, teamID, user, ActionRead); err != nil {
		return nil, err
	}
	return db.ListMembers(ctx, s.gw, teamID)
}

// ChangeRole sets target's role. Admin only; the last admin cannot be
// demoted.
func (s *Service) ChangeRole(ctx context.Context, teamID int, actor, target string, r model.Role) (*model.TeamMember, error) {
	if err := model.ValidateRole(r); err != nil {
		return nil, err
	}
	var updated *model.TeamMember
	err := s.gw.InTx(ctx, func(tx db.Gateway) error {
		if err := require(ctx, tx, teamID, actor, ActionManageMembers); err != nil {
			return err
		}
		m, err := db.GetMember(ctx, tx, teamID, target)
		if err != nil {
			return fmt.Errorf("member %s: %w", target, err)
		}
		if m.Role == model.RoleAdmin && r != model.RoleAdmin {
			if err := keepAnAdmin(ctx, tx, teamID); err != nil {
				return err
			}
		}
		updated, err = db.UpdateMemberRole(ctx, tx, m.ID, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveMember takes target out of the team. Admins may remove anyone and
// members may remove themselves; the last admin cannot leave.
func (s *Service) RemoveMember(ctx context.Context, teamID int, actor, target string) error {
	return s.gw.InTx(ctx, func(tx db.Gateway) error {
		if actor != target {
			if err := require(ctx, tx, teamID, actor, ActionManageMembers); err != nil {
				return err
			}
		}
		m, err := db.GetMember(ctx, tx, teamID, target)
		if err != nil {
			return fmt.Errorf("member %s: %w", target, err)
		}
		if m.Role == model.RoleAdmin {
			if err := keepAnAdmin(ctx, tx, teamID); err != nil {
				return err
			}
		}
		return db.DeleteMember(ctx, tx, m.ID)
	})
}

// keepAnAdmin fails with ErrLastAdmin when the team has a single admin.
func keepAnAdmin(ctx context.Context, gw db.Gateway, teamID int) error {
	members, err := db.ListMembers(ctx, gw, teamID)
	if err != nil {
		return err
	}
	admins := 0
	for _, m := range members {
		if m.Role == model.RoleAdmin {
			admins++
		}
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
