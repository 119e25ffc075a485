package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func mustTeam(t *testing.T, s *Store, name, admin string) *model.Team {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	team, err := InsertTeam(ctx, s, &model.Team{Name: name, CreatedBy: admin, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("InsertTeam: %v", err)
	}
	if _, err := InsertMember(ctx, s, &model.TeamMember{TeamID: team.ID, User: admin, Role: model.RoleAdmin, JoinedAt: now}); err != nil {
		t.Fatalf("InsertMember: %v", err)
	}
	return team
}

func TestMembershipUniquePerTeam(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")

	_, err := InsertMember(ctx, s, &model.TeamMember{TeamID: team.ID, User: "alice", Role: model.RoleViewer, JoinedAt: time.Now()})
	if err == nil {
		t.Fatal("expected unique violation for duplicate membership")
	}

	m, err := GetMember(ctx, s, team.ID, "alice")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", m.Role)
	}
	if _, err := GetMember(ctx, s, team.ID, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMember(stranger) err = %v, want ErrNotFound", err)
	}
}

func TestListMembersInJoinOrder(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	base := time.Now().Add(time.Hour)

	for i, user := range []string{"carol", "bob"} {
		if _, err := InsertMember(ctx, s, &model.TeamMember{
			TeamID: team.ID, User: user, Role: model.RoleMember,
			JoinedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("InsertMember %s: %v", user, err)
		}
	}

	members, err := ListMembers(ctx, s, team.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	var users []string
	for _, m := range members {
		users = append(users, m.User)
	}
	want := []string{"alice", "carol", "bob"}
	if len(users) != len(want) {
		t.Fatalf("users = %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Errorf("users = %v, want %v", users, want)
			break
		}
	}

	updated, err := UpdateMemberRole(ctx, s, members[2].ID, model.RoleViewer)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if updated.Role != model.RoleViewer {
		t.Errorf("role = %q, want viewer", updated.Role)
	}
	if err := DeleteMember(ctx, s, members[1].ID); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	memberships, err := ListMemberships(ctx, s, "carol")
	if err != nil {
		t.Fatalf("ListMemberships: %v", err)
	}
	if len(memberships) != 0 {
		t.Errorf("carol still has %d memberships", len(memberships))
	}
}

func TestListVisibleProjects(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	other := mustTeam(t, s, "other", "mallory")

	mine := mustProject(t, s, "bob")
	mustProject(t, s, "carol")
	shared, err := CreateProject(ctx, s, &model.Project{Name: "shared", Owner: "ignored", TeamID: &team.ID})
	if err != nil {
		t.Fatalf("CreateProject(team): %v", err)
	}
	if shared.Owner != "" {
		t.Errorf("team project owner = %q, want empty", shared.Owner)
	}
	if _, err := CreateProject(ctx, s, &model.Project{Name: "hidden", TeamID: &other.ID}); err != nil {
		t.Fatalf("CreateProject(other team): %v", err)
	}

	visible, err := ListVisibleProjects(ctx, s, "bob", []int{team.ID})
	if err != nil {
		t.Fatalf("ListVisibleProjects: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("visible = %d projects, want 2", len(visible))
	}
	ids := map[int]bool{visible[0].ID: true, visible[1].ID: true}
	if !ids[mine.ID] || !ids[shared.ID] {
		t.Errorf("visible projects = %+v", visible)
	}
	// Newest first; equal timestamps fall back to higher id first.
	if visible[0].ID != shared.ID {
		t.Errorf("first visible = %d, want shared %d", visible[0].ID, shared.ID)
	}

	none, err := ListVisibleProjects(ctx, s, "nobody", nil)
	if err != nil {
		t.Fatalf("ListVisibleProjects(nobody): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("stranger sees %d projects", len(none))
	}
}

func TestUpdateAndDeleteTeamCascades(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	if _, err := CreateProject(ctx, s, &model.Project{Name: "shared", TeamID: &team.ID}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	renamed, err := UpdateTeam(ctx, s, team.ID, map[string]any{"name": "platform"}, time.Now())
	if err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	if renamed.Name != "platform" {
		t.Errorf("Name = %q, want platform", renamed.Name)
	}
	if _, err := UpdateTeam(ctx, s, team.ID, map[string]any{"created_by": "x"}, time.Now()); err == nil {
		t.Error("expected error for created_by update")
	}

	if err := DeleteTeam(ctx, s, team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	projects, _ := ListAllProjects(ctx, s)
	members, _ := ListAllMembers(ctx, s)
	if len(projects) != 0 || len(members) != 0 {
		t.Errorf("after team delete: %d projects, %d members; want 0, 0", len(projects), len(members))
	}
}

func TestInvitationAcceptGuard(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	now := time.Now().UTC().Truncate(time.Second)

	inv, err := InsertInvitation(ctx, s, &model.TeamInvitation{
		TeamID: team.ID, Email: "bob@example.com", Role: model.RoleMember, InvitedBy: "alice",
		TokenHash: "abc123", ExpiresAt: now.Add(7 * 24 * time.Hour), CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("InsertInvitation: %v", err)
	}
	if inv.AcceptedAt != nil {
		t.Fatal("new invitation already accepted")
	}

	found, err := FindInvitationByTokenHash(ctx, s, "abc123")
	if err != nil || found.ID != inv.ID {
		t.Fatalf("FindInvitationByTokenHash = %+v, %v", found, err)
	}
	if _, err := FindInvitationByTokenHash(ctx, s, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown hash err = %v, want ErrNotFound", err)
	}

	if err := MarkInvitationAccepted(ctx, s, inv.ID, "bob", now); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if err := MarkInvitationAccepted(ctx, s, inv.ID, "eve", now); !errors.Is(err, ErrConflict) {
		t.Errorf("second accept err = %v, want ErrConflict", err)
	}

	got, err := GetInvitation(ctx, s, inv.ID)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if got.AcceptedBy != "bob" || got.AcceptedAt == nil || !got.AcceptedAt.Equal(now) {
		t.Errorf("accepted invitation = %+v", got)
	}

	pending, err := ListInvitations(ctx, s, team.ID, true)
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
	if err := DeletePendingInvitation(ctx, s, inv.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("deleting accepted invitation err = %v, want ErrConflict", err)
	}
}

func TestInvitationTokenHashUnique(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	now := time.Now()
	inv := &model.TeamInvitation{
		TeamID: team.ID, Email: "a@example.com", Role: model.RoleViewer, InvitedBy: "alice",
		TokenHash: "same", ExpiresAt: now, CreatedAt: now,
	}
	if _, err := InsertInvitation(ctx, s, inv); err != nil {
		t.Fatalf("InsertInvitation: %v", err)
	}
	if _, err := InsertInvitation(ctx, s, inv); err == nil {
		t.Error("expected unique violation on token_hash")
	}
}
