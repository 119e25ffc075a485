package model

import "time"

// Role is a team member's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

var validRoles = []Role{RoleAdmin, RoleMember, RoleViewer}

// ValidateRole returns a ValidationError if r is not a recognized role.
func ValidateRole(r Role) error {
	for _, v := range validRoles {
		if r == v {
			return nil
		}
	}
	return validationErrorf("role", "invalid role %q: must be one of %v", r, validRoles)
}

// Rank orders roles from least (viewer) to most (admin) privileged.
// Unknown roles rank below viewer.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleMember:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Team owns shared projects and has members with roles.
type Team struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMember grants a user a role within a team.
type TeamMember struct {
	ID        int       `json:"id"`
	TeamID    int       `json:"team_id"`
	User      string    `json:"user"`
	Role      Role      `json:"role"`
	InvitedBy string    `json:"invited_by,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// InvitationState is the lifecycle state of a TeamInvitation.
type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
	InvitationExpired  InvitationState = "expired"
)

// TeamInvitation is a pending grant of a role to an email address.
// Only the SHA-256 hash of the token is persisted; Token is populated
// once, on the value returned at issue time.
type TeamInvitation struct {
	ID         int        `json:"id"`
	TeamID     int        `json:"team_id"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	InvitedBy  string     `json:"invited_by"`
	Token      string     `json:"token,omitempty"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy string     `json:"accepted_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// State evaluates the invitation lifecycle at the given instant. Expiry is
// computed lazily; nothing sweeps expired rows.
func (inv *TeamInvitation) State(now time.Time) InvitationState {
	switch {
	case inv.AcceptedAt != nil:
		return InvitationAccepted
	case now.After(inv.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}
