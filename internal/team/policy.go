package team

import "github.com/ALT-F4-LLC/taskboard/internal/model"

// Action is something a team member may attempt.
type Action string

const (
	ActionRead          Action = "read"
	ActionWrite         Action = "write"
	ActionInvite        Action = "invite"
	ActionManageMembers Action = "manage_members"
	ActionManageTeam    Action = "manage_team"
)

var minRole = map[Action]model.Role{
	ActionRead:          model.RoleViewer,
	ActionWrite:         model.RoleMember,
	ActionInvite:        model.RoleAdmin,
	ActionManageMembers: model.RoleAdmin,
	ActionManageTeam:    model.RoleAdmin,
}

// Can reports whether role permits action. Unknown roles and actions are
// denied.
func Can(role model.Role, action Action) bool {
	need, ok := minRole[action]
	if !ok {
		return false
	}
	return role.Rank() > 0 && role.Rank() >= need.Rank()
}
