package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func invitationFromRecord(r Record) (*model.TeamInvitation, error) {
	inv := &model.TeamInvitation{
		ID:         r.Int("id"),
		TeamID:     r.Int("team_id"),
		Email:      r.String("email"),
		Role:       model.Role(r.String("role")),
		InvitedBy:  r.String("invited_by"),
		TokenHash:  r.String("token_hash"),
		AcceptedBy: r.String("accepted_by"),
	}
	var err error
	if inv.ExpiresAt, err = r.Time("expires_at"); err != nil {
		return nil, err
	}
	if inv.AcceptedAt, err = r.TimePtr("accepted_at"); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = r.Time("created_at"); err != nil {
		return nil, err
	}
	return inv, nil
}

// InsertInvitation stores an invitation. Only the token hash is persisted.
func InsertInvitation(ctx context.Context, gw Gateway, inv *model.TeamInvitation) (*model.TeamInvitation, error) {
	out, err := gw.Insert(ctx, EntityInvitation, Record{
		"team_id":    inv.TeamID,
		"email":      inv.Email,
		"role":       string(inv.Role),
		"invited_by": inv.InvitedBy,
		"token_hash": inv.TokenHash,
		"expires_at": formatTime(inv.ExpiresAt),
		"created_at": formatTime(inv.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("inserting invitation: %w", err)
	}
	return invitationFromRecord(out)
}

// GetInvitation retrieves an invitation by ID.
func GetInvitation(ctx context.Context, gw Gateway, id int) (*model.TeamInvitation, error) {
	rec, err := gw.Get(ctx, EntityInvitation, id)
	if err != nil {
		return nil, err
	}
	return invitationFromRecord(rec)
}

// FindInvitationByTokenHash looks up an invitation in any state by the hash
// of its token.
func FindInvitationByTokenHash(ctx context.Context, gw Gateway, hash string) (*model.TeamInvitation, error) {
	recs, err := gw.List(ctx, EntityInvitation, []Filter{Eq("token_hash", hash)}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying invitations: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return invitationFromRecord(recs[0])
}

// ListInvitations returns a team's invitations, newest first. With
// pendingOnly set, accepted invitations are left out; expired ones are kept
// because expiry is evaluated by the caller.
func ListInvitations(ctx context.Context, gw Gateway, teamID int, pendingOnly bool) ([]*model.TeamInvitation, error) {
	filters := []Filter{Eq("team_id", teamID)}
	if pendingOnly {
		filters = append(filters, IsNull("accepted_at"))
	}
	recs, err := gw.List(ctx, EntityInvitation, filters, []Sort{Desc("created_at"), Desc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying invitations: %w", err)
	}
	out := make([]*model.TeamInvitation, 0, len(recs))
	for _, r := range recs {
		inv, err := invitationFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding invitation %d: %w", r.Int("id"), err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// MarkInvitationAccepted stamps an invitation as redeemed. The write is
// guarded on accepted_at still being NULL, so of two concurrent redemptions
// exactly one succeeds and the other gets ErrConflict.
func MarkInvitationAccepted(ctx context.Context, gw Gateway, id int, user string, at time.Time) error {
	_, err := gw.Update(ctx, EntityInvitation, id,
		Record{"accepted_at": formatTime(at), "accepted_by": user},
		IsNull("accepted_at"),
	)
	return err
}

// DeletePendingInvitation removes an invitation that has not been accepted.
// Accepted invitations yield ErrConflict.
func DeletePendingInvitation(ctx context.Context, gw Gateway, id int) error {
	return gw.Delete(ctx, EntityInvitation, id, IsNull("accepted_at"))
}
