package render

import (
	"strings"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func intPtr(i int) *int { return &i }

func TestRenderTablePlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	issues := []*model.Issue{
		makeIssue(1, "Write docs", model.StatusTodo, 1000),
		makeIssue(2, "Ship it", model.StatusDone, 2000),
	}

	got := RenderTable(issues)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), got)
	}
	for _, h := range []string{"ID", "Status", "Pos", "Title", "Reporter", "Updated"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header missing %q: %q", h, lines[0])
		}
	}
	if !strings.HasPrefix(lines[1], "---") {
		t.Errorf("expected rule under header, got %q", lines[1])
	}
	for _, want := range []string{"TB-1", "○ todo", "1000", "Write docs", "alice"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("row 1 missing %q: %q", want, lines[2])
		}
	}
	if !strings.Contains(lines[3], "● done") {
		t.Errorf("row 2 missing status: %q", lines[3])
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	issues := []*model.Issue{
		makeIssue(1, "A", model.StatusTodo, 1000),
		makeIssue(123, "B", model.StatusTodo, 2000),
	}

	lines := strings.Split(RenderTable(issues), "\n")
	col := strings.Index(lines[0], "Status")
	for _, line := range lines[2:4] {
		if !strings.HasPrefix(line[col:], "○") {
			t.Errorf("status column misaligned in %q", line)
		}
	}
}

func TestRenderTableEmpty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := RenderTable(nil)
	want := "No issues found.\nCreate one with: taskboard issue create"
	if got != want {
		t.Errorf("RenderTable(nil) = %q, want %q", got, want)
	}
}

func TestEmptyStateQuiet(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := EmptyState("Nothing.", "hint", true); got != "Nothing." {
		t.Errorf("quiet EmptyState = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRenderProjectsMarksCurrentAndTeam(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	now := time.Now()
	projects := []*model.Project{
		{ID: 1, Name: "Home", Owner: "alice", CreatedAt: now},
		{ID: 2, Name: "Platform", TeamID: intPtr(9), CreatedAt: now},
	}

	got := RenderProjects(projects, map[int]string{9: "infra"}, 2)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "alice") {
		t.Errorf("personal row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "*") || !strings.Contains(lines[3], "team infra") {
		t.Errorf("team row = %q", lines[3])
	}
}

func TestRenderProjectCounts(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	p := &model.Project{ID: 4, Name: "Home", Description: "chores", Owner: "alice", CreatedAt: time.Now()}
	got := RenderProject(p, map[model.Status]int{model.StatusTodo: 3, model.StatusDone: 1})

	for _, want := range []string{"#4  Home", "chores", "Owner: alice", "○ todo: 3", "◐ doing: 0", "● done: 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestRenderMembersAndTeams(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	now := time.Now()
	members := []*model.TeamMember{
		{ID: 1, TeamID: 1, User: "alice", Role: model.RoleAdmin, JoinedAt: now},
		{ID: 2, TeamID: 1, User: "bob", Role: model.RoleViewer, InvitedBy: "alice", JoinedAt: now},
	}
	got := RenderMembers(members)
	if !strings.Contains(got, "alice") || !strings.Contains(got, "viewer") {
		t.Errorf("members output:\n%s", got)
	}

	teams := []*model.Team{{ID: 1, Name: "infra", CreatedBy: "alice", CreatedAt: now}}
	if got := RenderTeams(teams); !strings.Contains(got, "infra") {
		t.Errorf("teams output:\n%s", got)
	}
	if got := RenderTeams(nil); !strings.HasPrefix(got, "You are not a member") {
		t.Errorf("empty teams = %q", got)
	}
}

func TestRenderInvitationsStates(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)
	invitations := []*model.TeamInvitation{
		{ID: 1, Email: "a@example.com", Role: model.RoleMember, ExpiresAt: now.Add(24 * time.Hour)},
		{ID: 2, Email: "b@example.com", Role: model.RoleMember, ExpiresAt: now.Add(-time.Minute)},
		{ID: 3, Email: "c@example.com", Role: model.RoleViewer, ExpiresAt: now.Add(time.Hour), AcceptedAt: &accepted},
	}

	lines := strings.Split(strings.TrimRight(RenderInvitations(invitations, now), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("unexpected output:\n%s", strings.Join(lines, "\n"))
	}
	for i, want := range []string{"pending", "expired", "accepted"} {
		if !strings.Contains(lines[i+2], want) {
			t.Errorf("row %d = %q, want state %s", i+1, lines[i+2], want)
		}
	}
	if !strings.Contains(lines[2], "from now") || !strings.Contains(lines[3], "ago") {
		t.Errorf("expiry not relative to now:\n%s\n%s", lines[2], lines[3])
	}
}

func TestGridColorPathExecutes(t *testing.T) {
	// NO_COLOR cannot be unset with t.Setenv, so only run where colors are on.
	if !ColorsEnabled() {
		t.Skip("colors disabled in this environment")
	}
	issues := []*model.Issue{makeIssue(1, "Task", model.StatusDoing, 1000)}
	rows := [][]string{issueToRow(issues[0])}

	got := grid([]string{"ID", "Status", "Pos", "Title", "Reporter", "Updated"}, rows, nil)
	if got == "" {
		t.Error("expected non-empty color grid")
	}
}
