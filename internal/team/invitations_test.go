package team

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func TestHashToken(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashToken("abc"); got != want {
		t.Errorf("HashToken(abc) = %s, want %s", got, want)
	}
}

func TestInviteStoresOnlyHash(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock(svc, start)
	tm := mustCreate(t, svc, "core", "alice")

	inv, err := svc.Invite(ctx, tm.ID, "alice", "  Bob@Example.COM ", model.RoleMember)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if inv.Token == "" {
		t.Fatal("plaintext token not returned")
	}
	if inv.Email != "bob@example.com" {
		t.Errorf("Email = %q, want normalized", inv.Email)
	}
	if !inv.ExpiresAt.Equal(start.Add(7 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want start + 7 days", inv.ExpiresAt)
	}

	stored, err := db.GetInvitation(ctx, store, inv.ID)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if stored.Token != "" {
		t.Error("plaintext token came back from storage")
	}
	if stored.TokenHash != HashToken(inv.Token) || strings.Contains(stored.TokenHash, inv.Token) {
		t.Errorf("stored hash %q does not match token", stored.TokenHash)
	}
}

func TestInviteValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tm := mustCreate(t, svc, "core", "alice")

	var ve *model.ValidationError
	if _, err := svc.Invite(ctx, tm.ID, "alice", "not-an-email", model.RoleMember); !errors.As(err, &ve) {
		t.Errorf("bad email err = %v, want ValidationError", err)
	}
	if _, err := svc.Invite(ctx, tm.ID, "alice", "a@example.com", "owner"); !errors.As(err, &ve) {
		t.Errorf("bad role err = %v, want ValidationError", err)
	}
}

func TestAcceptIsSingleUse(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	tm := mustCreate(t, svc, "core", "alice")
	inv, err := svc.Invite(ctx, tm.ID, "alice", "bob@example.com", model.RoleViewer)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	m, err := svc.Accept(ctx, inv.Token, "bob")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if m.Role != model.RoleViewer || m.TeamID != tm.ID || m.InvitedBy != "alice" {
		t.Errorf("membership = %+v", m)
	}

	if _, err := svc.Accept(ctx, inv.Token, "eve"); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("second accept err = %v, want ErrAlreadyRedeemed", err)
	}
	if _, err := db.GetMember(ctx, store, tm.ID, "eve"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("second accept created a member: %v", err)
	}
	members, err := db.ListMembers(ctx, store, tm.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}

	got, err := db.GetInvitation(ctx, store, inv.ID)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if got.State(time.Now()) != model.InvitationAccepted || got.AcceptedBy != "bob" {
		t.Errorf("invitation after accept = %+v", got)
	}
}

func TestAcceptFailures(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	advance := clock(svc, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	tm := mustCreate(t, svc, "core", "alice")

	if _, err := svc.Accept(ctx, "no-such-token", "bob"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("unknown token err = %v, want ErrNotFound", err)
	}

	own, err := svc.Invite(ctx, tm.ID, "alice", "alice@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if _, err := svc.Accept(ctx, own.Token, "alice"); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("accept by member err = %v, want ErrAlreadyMember", err)
	}

	late, err := svc.Invite(ctx, tm.ID, "alice", "bob@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	advance(InvitationTTL + time.Second)
	if _, err := svc.Accept(ctx, late.Token, "bob"); !errors.Is(err, ErrExpired) {
		t.Errorf("expired accept err = %v, want ErrExpired", err)
	}
	if _, err := db.GetMember(ctx, store, tm.ID, "bob"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expired accept created a member: %v", err)
	}
	if _, err := svc.Accept(ctx, late.Token, ""); err == nil {
		t.Error("expected validation error for empty user")
	}
}

func TestAcceptAtExpiryInstant(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	advance := clock(svc, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	tm := mustCreate(t, svc, "core", "alice")
	inv, err := svc.Invite(ctx, tm.ID, "alice", "bob@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	advance(InvitationTTL)
	if _, err := svc.Accept(ctx, inv.Token, "bob"); err != nil {
		t.Errorf("accept exactly at expiry: %v", err)
	}
}

func TestCancelAndListInvitations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tm := mustCreate(t, svc, "core", "alice")
	mustJoin(t, svc, tm.ID, "alice", "bob", model.RoleMember)

	pending, err := svc.Invite(ctx, tm.ID, "alice", "carol@example.com", model.RoleViewer)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	open, err := svc.Invitations(ctx, tm.ID, "alice", false)
	if err != nil {
		t.Fatalf("Invitations: %v", err)
	}
	if len(open) != 1 || open[0].ID != pending.ID {
		t.Errorf("pending invitations = %+v", open)
	}
	all, err := svc.Invitations(ctx, tm.ID, "alice", true)
	if err != nil {
		t.Fatalf("Invitations(all): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all invitations = %d, want 2", len(all))
	}
	if _, err := svc.Invitations(ctx, tm.ID, "bob", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("member listing invitations err = %v, want ErrForbidden", err)
	}

	if err := svc.Cancel(ctx, pending.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Errorf("member cancel err = %v, want ErrForbidden", err)
	}
	if err := svc.Cancel(ctx, pending.ID, "alice"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Accept(ctx, pending.Token, "carol"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("accept canceled err = %v, want ErrNotFound", err)
	}
	if err := svc.Cancel(ctx, all[len(all)-1].ID, "alice"); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("cancel accepted err = %v, want ErrAlreadyRedeemed", err)
	}
}
