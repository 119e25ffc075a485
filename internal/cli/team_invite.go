package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

var teamInviteCmd = &cobra.Command{
	Use:   "invite <team-id> <email>",
	Short: "Invite someone to a team and print their one-time token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		role, _ := cmd.Flags().GetString("role")

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		inv, err := getTeams(cmd).Invite(cmd.Context(), id, currentUser(cmd), args[1], model.Role(role))
		if err != nil {
			return fail(err, "inviting %s", args[1])
		}

		msg := fmt.Sprintf("Invited %s to team #%d as %s\n\nToken: %s\n\nShare it with them; it is shown only once and expires %s.\nThey join with: taskboard team accept <token>",
			inv.Email, id, inv.Role, inv.Token, inv.ExpiresAt.Local().Format(time.DateTime))
		w.Success(inv, msg)
		return nil
	},
}

var teamInvitationsCmd = &cobra.Command{
	Use:   "invitations <team-id>",
	Short: "List a team's open invitations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		all, _ := cmd.Flags().GetBool("all")

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		invs, err := getTeams(cmd).Invitations(cmd.Context(), id, currentUser(cmd), all)
		if err != nil {
			return fail(err, "listing invitations")
		}
		if invs == nil {
			invs = []*model.TeamInvitation{}
		}

		var message string
		if !w.JSONMode {
			message = render.RenderInvitations(invs, time.Now())
		}
		w.Success(invs, message)
		return nil
	},
}

var teamAcceptCmd = &cobra.Command{
	Use:   "accept <token>",
	Short: "Join a team with an invitation token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		m, err := getTeams(cmd).Accept(cmd.Context(), args[0], currentUser(cmd))
		if err != nil {
			return fail(err, "accepting invitation")
		}
		w.Success(m, fmt.Sprintf("Joined team #%d as %s", m.TeamID, m.Role))
		return nil
	},
}

type invitationCancelResult struct {
	ID int `json:"id"`
}

var teamCancelCmd = &cobra.Command{
	Use:   "cancel <invitation-id>",
	Short: "Cancel a pending invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		id, err := model.ParseRecordID("invitation", args[0])
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}
		if err := getTeams(cmd).Cancel(cmd.Context(), id, currentUser(cmd)); err != nil {
			return fail(err, "canceling invitation")
		}
		w.Success(invitationCancelResult{ID: id}, fmt.Sprintf("Canceled invitation #%d", id))
		return nil
	},
}

func init() {
	teamInviteCmd.Flags().StringP("role", "r", string(model.RoleMember), "Role granted on accept: admin, member or viewer")
	teamInvitationsCmd.Flags().BoolP("all", "a", false, "Include accepted invitations")

	teamCmd.AddCommand(teamInviteCmd, teamInvitationsCmd, teamAcceptCmd, teamCancelCmd)
}
