package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
	"github.com/ALT-F4-LLC/taskboard/internal/output"
	"github.com/ALT-F4-LLC/taskboard/internal/render"
	"github.com/ALT-F4-LLC/taskboard/internal/team"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "Manage projects",
	Aliases: []string{"p"},
}

// currentProjectKey is the meta key holding a user's selected project.
func currentProjectKey(user string) string {
	return "current_project:" + user
}

// selectedProjectID returns the project chosen with --project or, failing
// that, with 'project use'. Zero means none.
func selectedProjectID(cmd *cobra.Command) (int, error) {
	if flag, _ := cmd.Flags().GetString("project"); flag != "" {
		return model.ParseRecordID("project", flag)
	}
	val, err := getDB(cmd).GetMeta(cmd.Context(), currentProjectKey(currentUser(cmd)))
	if errors.Is(err, db.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// resolveProject loads the selected project and checks that the current user
// may perform action on it.
func resolveProject(cmd *cobra.Command, action team.Action) (*model.Project, error) {
	id, err := selectedProjectID(cmd)
	if err != nil {
		return nil, fail(err, "resolving project")
	}
	if id == 0 {
		return nil, cmdErr(
			fmt.Errorf("no project selected: pass --project or run 'taskboard project use <id>'"),
			output.ErrValidation,
		)
	}
	return projectFor(cmd, id, action)
}

func projectFor(cmd *cobra.Command, id int, action team.Action) (*model.Project, error) {
	p, err := db.GetProject(cmd.Context(), getDB(cmd), id)
	if err != nil {
		return nil, fail(err, "project %d", id)
	}
	if err := getTeams(cmd).RequireProject(cmd.Context(), p, currentUser(cmd), action); err != nil {
		return nil, fail(err, "project %d", id)
	}
	return p, nil
}

// invalidateBoard drops a project's cached board. Cache trouble never fails
// a command.
func invalidateBoard(cmd *cobra.Command, projectID int) {
	if err := getCache(cmd).Invalidate(cmd.Context(), projectID); err != nil {
		getWriter(cmd).Warn("board cache not invalidated: %v", err)
	}
}

// confirm asks a yes/no question. It returns true without asking when force
// is set or output is JSON.
func confirm(w *output.Writer, force bool, question, yes string) (bool, error) {
	if force || w.JSONMode {
		return true, nil
	}
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative(yes).
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
	}
	return confirmed, nil
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a personal or team project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		user := currentUser(cmd)

		var name string
		if len(args) == 1 {
			name = args[0]
		}
		description, _ := cmd.Flags().GetString("description")
		teamFlag, _ := cmd.Flags().GetString("team")

		if name == "" && w.JSONMode {
			return cmdErr(fmt.Errorf("a project name is required in JSON mode"), output.ErrValidation)
		}
		if name == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Name").
						Value(&name).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("name is required")
							}
							return nil
						}),
					huh.NewText().
						Title("Description").
						Value(&description),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
		}

		name, err := model.RequireText("name", name)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		p := &model.Project{Name: name, Description: description, Owner: user}
		if teamFlag != "" {
			teamID, err := model.ParseRecordID("team", teamFlag)
			if err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			if err := getTeams(cmd).Require(cmd.Context(), teamID, user, team.ActionWrite); err != nil {
				return fail(err, "creating team project")
			}
			p.TeamID = &teamID
		}

		created, err := db.CreateProject(cmd.Context(), store, p)
		if err != nil {
			return fail(err, "creating project")
		}

		w.Success(created, fmt.Sprintf("Created project #%d: %s", created.ID, created.Name))
		return nil
	},
}

type projectListResult struct {
	Projects []*model.Project `json:"projects"`
	Current  int              `json:"current,omitempty"`
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List projects you can see",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		ctx := cmd.Context()
		user := currentUser(cmd)

		teamIDs, err := getTeams(cmd).TeamIDs(ctx, user)
		if err != nil {
			return fail(err, "listing teams")
		}
		projects, err := db.ListVisibleProjects(ctx, store, user, teamIDs)
		if err != nil {
			return fail(err, "listing projects")
		}
		current, err := selectedProjectID(cmd)
		if err != nil {
			return fail(err, "resolving project")
		}

		var message string
		if !w.JSONMode {
			names, err := teamNames(ctx, store, teamIDs)
			if err != nil {
				return fail(err, "listing teams")
			}
			message = render.RenderProjects(projects, names, current)
		}
		if projects == nil {
			projects = []*model.Project{}
		}
		w.Success(projectListResult{Projects: projects, Current: current}, message)
		return nil
	},
}

func teamNames(ctx context.Context, gw db.Gateway, ids []int) (map[int]string, error) {
	teams, err := db.ListTeamsByIDs(ctx, gw, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

type projectShowResult struct {
	*model.Project
	Counts map[model.Status]int `json:"counts"`
}

var projectShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a project and its column counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		p, err := projectFromArgs(cmd, args, team.ActionRead)
		if err != nil {
			return err
		}
		counts, err := db.CountByStatus(cmd.Context(), getDB(cmd), p.ID)
		if err != nil {
			return fail(err, "counting issues")
		}

		w.Success(projectShowResult{Project: p, Counts: counts}, render.RenderProject(p, counts))
		return nil
	},
}

// projectFromArgs loads the project named by the first argument, or the
// selected project when there is none.
func projectFromArgs(cmd *cobra.Command, args []string, action team.Action) (*model.Project, error) {
	if len(args) == 0 {
		return resolveProject(cmd, action)
	}
	id, err := model.ParseRecordID("project", args[0])
	if err != nil {
		return nil, cmdErr(err, output.ErrValidation)
	}
	return projectFor(cmd, id, action)
}

var projectEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Rename or describe a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		p, err := projectFromArgs(cmd, args, team.ActionWrite)
		if err != nil {
			return err
		}

		updates := make(map[string]any)
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			name, err := model.RequireText("name", name)
			if err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			updates["name"] = name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			updates["description"] = description
		}

		if len(updates) == 0 {
			if w.JSONMode {
				w.Success(p, "")
			} else {
				w.Info("No changes specified")
			}
			return nil
		}

		updated, err := db.UpdateProject(cmd.Context(), getDB(cmd), p.ID, updates)
		if err != nil {
			return fail(err, "updating project")
		}
		w.Success(updated, fmt.Sprintf("Updated project #%d: %s", updated.ID, updated.Name))
		return nil
	},
}

type projectDeleteResult struct {
	ID int `json:"id"`
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and all of its issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		store := getDB(cmd)
		force, _ := cmd.Flags().GetBool("force")

		p, err := projectFromArgs(cmd, args, team.ActionManageTeam)
		if err != nil {
			return err
		}

		ok, err := confirm(w, force, fmt.Sprintf("Delete project #%d %q and all of its issues?", p.ID, p.Name), "Yes, delete it")
		if err != nil {
			return err
		}
		if !ok {
			w.Info("Cancelled.")
			return nil
		}

		if err := db.DeleteProject(cmd.Context(), store, p.ID); err != nil {
			return fail(err, "deleting project")
		}
		invalidateBoard(cmd, p.ID)

		key := currentProjectKey(currentUser(cmd))
		if val, err := store.GetMeta(cmd.Context(), key); err == nil && val == strconv.Itoa(p.ID) {
			if err := store.DeleteMeta(cmd.Context(), key); err != nil {
				w.Warn("could not clear the selected project: %v", err)
			}
		}

		w.Success(projectDeleteResult{ID: p.ID}, fmt.Sprintf("Deleted project #%d: %s", p.ID, p.Name))
		return nil
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the project other commands act on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		p, err := projectFromArgs(cmd, args, team.ActionRead)
		if err != nil {
			return err
		}
		if err := getDB(cmd).SetMeta(cmd.Context(), currentProjectKey(currentUser(cmd)), strconv.Itoa(p.ID)); err != nil {
			return fail(err, "selecting project")
		}
		w.Success(p, fmt.Sprintf("Now using project #%d: %s", p.ID, p.Name))
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringP("description", "d", "", "Project description")
	projectCreateCmd.Flags().StringP("team", "t", "", "Team ID that owns the project")
	projectEditCmd.Flags().StringP("name", "n", "", "New name")
	projectEditCmd.Flags().StringP("description", "d", "", "New description")
	projectDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectEditCmd, projectDeleteCmd, projectUseCmd)
	rootCmd.AddCommand(projectCmd)
}
