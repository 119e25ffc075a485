package team

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// InvitationTTL is how long an invitation token stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// HashToken returns the hex SHA-256 of an invitation token. Only the hash is
// stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum)
}

// Invite issues an invitation for email to join the team with role. The
// returned invitation carries the plaintext token; it cannot be recovered
// later. Admin only.
func (s *Service) Invite(ctx context.Context, teamID int, actor, email string, r model.Role) (*model.TeamInvitation, error) {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateRole(r); err != nil {
		return nil, err
	}
	if err := s.Require(ctx, teamID, actor, ActionInvite); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	now := s.now()
	inv, err := db.InsertInvitation(ctx, s.gw, &model.TeamInvitation{
		TeamID:    teamID,
		Email:     email,
		Role:      r,
		InvitedBy: actor,
		TokenHash: HashToken(token),
		ExpiresAt: now.Add(InvitationTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	inv.Token = token
	s.log.Debug("invitation issued", "team", teamID, "invitation", inv.ID, "by", actor)
	return inv, nil
}

// Invitations lists a team's invitations, newest first. Unless all is set,
// accepted ones are omitted. Admin only.
func (s *Service) Invitations(ctx context.Context, teamID int, actor string, all bool) ([]*model.TeamInvitation, error) {
	if err := s.Require(ctx, teamID, actor, ActionInvite); err != nil {
		return nil, err
	}
	return db.ListInvitations(ctx, s.gw, teamID, !all)
}

// Accept redeems token for user and returns the new membership. A token is
// redeemable once: later attempts get ErrAlreadyRedeemed. Tokens past their
// expiry get ErrExpired and users already in the team get ErrAlreadyMember.
func (s *Service) Accept(ctx context.Context, token, user string) (*model.TeamMember, error) {
	if user == "" {
		return nil, &model.ValidationError{Field: "user", Msg: "a user is required to accept an invitation"}
	}
	hash := HashToken(token)
	now := s.now()

	var member *model.TeamMember
	err := s.gw.InTx(ctx, func(tx db.Gateway) error {
		inv, err := db.FindInvitationByTokenHash(ctx, tx, hash)
		if err != nil {
			return fmt.Errorf("invitation: %w", err)
		}
		switch inv.State(now) {
		case model.InvitationAccepted:
			return ErrAlreadyRedeemed
		case model.InvitationExpired:
			return fmt.Errorf("expired %s: %w", inv.ExpiresAt.Format(time.RFC3339), ErrExpired)
		}

		if _, err := db.GetMember(ctx, tx, inv.TeamID, user); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		m, err := db.InsertMember(ctx, tx, &model.TeamMember{
			TeamID:    inv.TeamID,
			User:      user,
			Role:      inv.Role,
			InvitedBy: inv.InvitedBy,
			JoinedAt:  now,
		})
		if err != nil {
			return err
		}
		if err := db.MarkInvitationAccepted(ctx, tx, inv.ID, user, now); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return ErrAlreadyRedeemed
			}
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("invitation accepted", "team", member.TeamID, "user", user)
	return member, nil
}

// Cancel deletes a pending invitation. Admin only; accepted invitations
// cannot be canceled.
func (s *Service) Cancel(ctx context.Context, invitationID int, actor string) error {
	inv, err := db.GetInvitation(ctx, s.gw, invitationID)
	if err != nil {
		return fmt.Errorf("invitation %d: %w", invitationID, err)
	}
	if err := s.Require(ctx, inv.TeamID, actor, ActionInvite); err != nil {
		return err
	}
	if err := db.DeletePendingInvitation(ctx, s.gw, invitationID); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return ErrAlreadyRedeemed
		}
		return err
	}
	return nil
}
