package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
)

var teamCmd = &cobra.Command{
	Use:     "team",
	Short:   "Manage teams, members and invitations",
	Aliases: []string{"t"},
}

func teamIDArg(arg string) (int, error) {
	id, err := model.ParseRecordID("team", arg)
	if err != nil {
		return 0, cmdErr(err, output.ErrValidation)
	}
	return id, nil
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a team with yourself as admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		description, _ := cmd.Flags().GetString("description")

		t, err := getTeams(cmd).CreateTeam(cmd.Context(), args[0], description, currentUser(cmd))
		if err != nil {
			return fail(err, "creating team")
		}
		w.Success(t, fmt.Sprintf("Created team #%d: %s", t.ID, t.Name))
		return nil
	},
}

var teamListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the teams you belong to",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		teams, err := getTeams(cmd).ListTeams(cmd.Context(), currentUser(cmd))
		if err != nil {
			return fail(err, "listing teams")
		}
		if teams == nil {
			teams = []*model.Team{}
		}

		var message string
		if !w.JSONMode {
			message = render.RenderTeams(teams)
		}
		w.Success(teams, message)
		return nil
	},
}

type teamShowResult struct {
	*model.Team
	Members  []*model.TeamMember `json:"members"`
	Projects []*model.Project    `json:"projects"`
}

var teamShowCmd = &cobra.Command{
	Use:   "show <team-id>",
	Short: "Show a team with its members and projects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctx := cmd.Context()
		user := currentUser(cmd)
		svc := getTeams(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		t, err := svc.GetTeam(ctx, id, user)
		if err != nil {
			return fail(err, "team %d", id)
		}
		members, err := svc.Members(ctx, id, user)
		if err != nil {
			return fail(err, "listing members")
		}
		all, err := db.ListTeamProjects(ctx, getDB(cmd), id)
		if err != nil {
			return fail(err, "listing projects")
		}

		result := teamShowResult{Team: t, Members: members, Projects: all}
		if result.Projects == nil {
			result.Projects = []*model.Project{}
		}

		var message string
		if !w.JSONMode {
			message = fmt.Sprintf("#%d  %s\n", t.ID, t.Name)
			if t.Description != "" {
				message += t.Description + "\n"
			}
			message += "\n" + render.RenderMembers(members)
			if len(all) > 0 {
				message += "\n" + render.RenderProjects(all, map[int]string{t.ID: t.Name}, 0)
			}
		}
		w.Success(result, message)
		return nil
	},
}

var teamEditCmd = &cobra.Command{
	Use:   "edit <team-id>",
	Short: "Rename or describe a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}

		updates := make(map[string]any)
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			updates["name"] = name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			updates["description"] = description
		}
		if len(updates) == 0 {
			w.Info("No changes specified")
			return nil
		}

		t, err := getTeams(cmd).UpdateTeam(cmd.Context(), id, currentUser(cmd), updates)
		if err != nil {
			return fail(err, "updating team")
		}
		w.Success(t, fmt.Sprintf("Updated team #%d: %s", t.ID, t.Name))
		return nil
	},
}

type teamDeleteResult struct {
	ID int `json:"id"`
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <team-id>",
	Short: "Delete a team with its members, invitations and projects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")
		user := currentUser(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		t, err := getTeams(cmd).GetTeam(ctx, id, user)
		if err != nil {
			return fail(err, "team %d", id)
		}

		ok, err := confirm(w, force, fmt.Sprintf("Delete team %q with all of its projects?", t.Name), "Yes, delete it")
		if err != nil {
			return err
		}
		if !ok {
			w.Info("Cancelled.")
			return nil
		}

		projects, err := db.ListTeamProjects(ctx, getDB(cmd), id)
		if err != nil {
			return fail(err, "listing projects")
		}
		if err := getTeams(cmd).DeleteTeam(ctx, id, user); err != nil {
			return fail(err, "deleting team")
		}
		for _, p := range projects {
			invalidateBoard(cmd, p.ID)
		}

		w.Success(teamDeleteResult{ID: id}, fmt.Sprintf("Deleted team #%d: %s", id, t.Name))
		return nil
	},
}

var teamMembersCmd = &cobra.Command{
	Use:   "members <team-id>",
	Short: "List a team's members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		members, err := getTeams(cmd).Members(cmd.Context(), id, currentUser(cmd))
		if err != nil {
			return fail(err, "listing members")
		}
		if members == nil {
			members = []*model.TeamMember{}
		}

		var message string
		if !w.JSONMode {
			message = render.RenderMembers(members)
		}
		w.Success(members, message)
		return nil
	},
}

var teamRoleCmd = &cobra.Command{
	Use:   "role <team-id> <user> <role>",
	Short: "Change a member's role (admin, member or viewer)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		m, err := getTeams(cmd).ChangeRole(cmd.Context(), id, currentUser(cmd), args[1], model.Role(args[2]))
		if err != nil {
			return fail(err, "changing role")
		}
		w.Success(m, fmt.Sprintf("%s is now %s of team #%d", m.User, m.Role, id))
		return nil
	},
}

type memberRemoveResult struct {
	TeamID int    `json:"team_id"`
	User   string `json:"user"`
}

var teamRemoveCmd = &cobra.Command{
	Use:     "remove <team-id> [user]",
	Short:   "Remove a member, or leave the team when no user is given",
	Aliases: []string{"leave"},
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		actor := currentUser(cmd)

		id, err := teamIDArg(args[0])
		if err != nil {
			return err
		}
		target := actor
		if len(args) == 2 {
			target = args[1]
		}

		if err := getTeams(cmd).RemoveMember(cmd.Context(), id, actor, target); err != nil {
			return fail(err, "removing member")
		}

		msg := fmt.Sprintf("Removed %s from team #%d", target, id)
		if target == actor {
			msg = fmt.Sprintf("Left team #%d", id)
		}
		w.Success(memberRemoveResult{TeamID: id, User: target}, msg)
		return nil
	},
}

func init() {
	teamCreateCmd.Flags().StringP("description", "d", "", "Team description")
	teamEditCmd.Flags().StringP("name", "n", "", "New name")
	teamEditCmd.Flags().StringP("description", "d", "", "New description")
	teamDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")

	teamCmd.AddCommand(teamCreateCmd, teamListCmd, teamShowCmd, teamEditCmd, teamDeleteCmd,
		teamMembersCmd, teamRoleCmd, teamRemoveCmd)
	rootCmd.AddCommand(teamCmd)
}
