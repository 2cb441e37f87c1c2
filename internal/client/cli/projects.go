package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/labdesk/internal/client/auth"
	"github.com/iudanet/labdesk/internal/models"
)

func (c *Cli) projectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage research projects",
	}
	cmd.AddCommand(
		c.projectsListCommand(),
		c.projectsShowCommand(),
		c.projectsCreateCommand(),
		c.projectsStatusCommand(),
		c.projectsDeleteCommand(),
	)
	return cmd
}

func (c *Cli) projectsListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects (project managers see their own)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var filter models.ProjectStatus
			if status != "" {
				st, err := models.ParseProjectStatus(status)
				if err != nil {
					return err
				}
				filter = st
			}

			user, err := c.auth.CurrentUser(ctx)
			if err != nil {
				return err
			}

			projects, err := c.client.ListProjects(ctx, auth.ProjectScope(user))
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				if filter != "" && p.Status != filter {
					continue
				}
				rows = append(rows, []string{
					formatID(p.ProjectID),
					p.ProjectName,
					string(p.Status),
					orDash(p.ManagerFullName),
					orDash(p.StartDate),
					orDash(p.EndDate),
				})
			}

			c.printTable("No projects found.", []string{"ID", "Name", "Status", "Manager", "Start", "End"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only projects in this status")

	return cmd
}

func (c *Cli) projectsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the project card: budget, tasks, team and funding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			overview, err := c.client.ProjectOverview(cmd.Context(), id)
			if err != nil {
				return err
			}

			card, err := renderProject(overview)
			if err != nil {
				return err
			}
			c.title("Project #%d: %s", overview.Project.ProjectID, overview.Project.ProjectName)
			c.io.Printf("%s", card)

			c.title("Tasks")
			c.printTable("No tasks.", taskHeaders, taskRows(overview.Tasks))
			c.title("Team")
			c.printTable("No team members.", teamHeaders, teamRows(overview.Team))
			c.title("Funding sources")
			c.printTable("No funding sources.", fundingHeaders, fundingRows(overview.FundingSources))
			return nil
		},
	}
}

func (c *Cli) projectsCreateCommand() *cobra.Command {
	var (
		p         models.Project
		status    string
		managerID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if strings.TrimSpace(p.ProjectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if err := validateDate("start", p.StartDate); err != nil {
				return err
			}
			if err := validateDate("end", p.EndDate); err != nil {
				return err
			}
			st, err := models.ParseProjectStatus(status)
			if err != nil {
				return err
			}
			p.Status = st

			user, err := c.auth.RequireRole(ctx, models.RoleAdmin, models.RoleProjectManager)
			if err != nil {
				return err
			}

			switch {
			case cmd.Flags().Changed("manager-id"):
				p.ManagerID = managerID
			case user.Role == models.RoleProjectManager:
				// Руководитель проекта по умолчанию управляет своим проектом
				p.ManagerID = user.UserID
			}

			created, err := c.client.CreateProject(ctx, p)
			if err != nil {
				return err
			}

			c.success("Project #%d %q created", created.ProjectID, created.ProjectName)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.ProjectName, "name", "", "project name")
	cmd.Flags().StringVar(&p.Description, "description", "", "description")
	cmd.Flags().StringVar(&p.StartDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&p.EndDate, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&status, "status", "planned", "planned, in-progress, under-review or completed")
	cmd.Flags().Int64Var(&managerID, "manager-id", 0, "manager user id (default: you, if you are a project manager)")

	return cmd
}

func (c *Cli) projectsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Change the project status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			st, err := models.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			if err := c.requireProjectManager(cmd.Context(), id); err != nil {
				return err
			}

			if err := c.client.UpdateProjectStatus(cmd.Context(), id, st); err != nil {
				return err
			}

			c.success("Project #%d is now %s", id, st)
			return nil
		},
	}
}

func (c *Cli) projectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its tasks, team and budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := c.requireProjectManager(cmd.Context(), id); err != nil {
				return err
			}

			if err := c.client.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}

			c.success("Project #%d deleted", id)
			return nil
		},
	}
}

// requireProjectManager пропускает администратора и руководителя этого проекта
func (c *Cli) requireProjectManager(ctx context.Context, projectID int64) error {
	user, err := c.auth.RequireRole(ctx, models.RoleAdmin, models.RoleProjectManager)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return nil
	}

	project, err := c.client.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.ManagerID != user.UserID {
		return fmt.Errorf("%w: project #%d is managed by someone else", auth.ErrAccessDenied, projectID)
	}
	return nil
}

var taskHeaders = []string{"ID", "Title", "Status", "Due", "Assignee"}

func taskRows(tasks []models.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			formatID(t.TaskID),
			t.Title,
			orDash(t.Status),
			orDash(t.DueDate),
			formatID(t.AssignedTo),
		})
	}
	return rows
}

func (c *Cli) tasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage project tasks",
	}

	var listProject int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := c.client.ListTasks(cmd.Context(), listProject)
			if err != nil {
				return err
			}
			c.printTable("No tasks found.", taskHeaders, taskRows(tasks))
			return nil
		},
	}
	list.Flags().Int64Var(&listProject, "project", 0, "project id")
	_ = list.MarkFlagRequired("project")

	var t models.Task
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(t.Title) == "" {
				return fmt.Errorf("--title is required")
			}
			if err := validateDate("due", t.DueDate); err != nil {
				return err
			}

			created, err := c.client.CreateTask(cmd.Context(), t)
			if err != nil {
				return err
			}

			c.success("Task #%d %q added to project #%d", created.TaskID, created.Title, created.ProjectID)
			return nil
		},
	}
	add.Flags().Int64Var(&t.ProjectID, "project", 0, "project id")
	add.Flags().StringVar(&t.Title, "title", "", "task title")
	add.Flags().StringVar(&t.Description, "description", "", "description")
	add.Flags().StringVar(&t.DueDate, "due", "", "due date, YYYY-MM-DD")
	add.Flags().StringVar(&t.Status, "status", "TODO", "task status")
	add.Flags().Int64Var(&t.AssignedTo, "assignee", 0, "assignee user id")
	_ = add.MarkFlagRequired("project")

	cmd.AddCommand(list, add)
	return cmd
}

var teamHeaders = []string{"User ID", "Full name", "Role in project"}

func teamRows(team []models.TeamMember) [][]string {
	rows := make([][]string, 0, len(team))
	for _, m := range team {
		rows = append(rows, []string{
			formatID(m.UserID),
			orDash(m.FullName),
			orDash(m.RoleInProject),
		})
	}
	return rows
}

func (c *Cli) teamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage project teams",
	}

	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List team members of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			team, err := c.client.ListTeam(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printTable("No team members.", teamHeaders, teamRows(team))
			return nil
		},
	}

	var (
		userID   int64
		username string
		role     string
	)
	add := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a user to the project team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			member := models.TeamMember{UserID: userID, RoleInProject: role}
			if username != "" {
				user, err := c.client.GetUserByUsername(ctx, username)
				if err != nil {
					return fmt.Errorf("failed to resolve user %q: %w", username, err)
				}
				member.UserID = user.UserID
			}
			if member.UserID <= 0 {
				return fmt.Errorf("either --user-id or --username is required")
			}

			added, err := c.client.AddTeamMember(ctx, projectID, member)
			if err != nil {
				return err
			}

			c.success("%s joined project #%d", orDash(added.FullName), projectID)
			return nil
		},
	}
	add.Flags().Int64Var(&userID, "user-id", 0, "user id")
	add.Flags().StringVar(&username, "username", "", "username, resolved to a user id")
	add.Flags().StringVar(&role, "role", "", "role in the project")
	add.MarkFlagsMutuallyExclusive("user-id", "username")

	cmd.AddCommand(list, add)
	return cmd
}

func (c *Cli) budgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show or change a project budget",
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the project budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			budget, err := c.client.GetBudget(cmd.Context(), id)
			if err != nil {
				return err
			}

			c.printTable("", []string{"Allocated", "Spent", "Remaining"}, [][]string{{
				formatMoney(budget.AllocatedAmount),
				formatMoney(budget.SpentAmount),
				formatMoney(budget.Remaining()),
			}})
			return nil
		},
	}

	var allocated, spent float64
	set := &cobra.Command{
		Use:   "set <project-id>",
		Short: "Change allocated or spent amounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("allocated") && !flags.Changed("spent") {
				return fmt.Errorf("nothing to change: pass --allocated and/or --spent")
			}

			budget, err := c.client.GetBudget(ctx, id)
			if err != nil {
				return err
			}
			if flags.Changed("allocated") {
				budget.AllocatedAmount = allocated
			}
			if flags.Changed("spent") {
				budget.SpentAmount = spent
			}
			if budget.AllocatedAmount < 0 || budget.SpentAmount < 0 {
				return fmt.Errorf("amounts cannot be negative")
			}

			updated, err := c.client.UpdateBudget(ctx, id, *budget)
			if err != nil {
				return err
			}

			c.success("Budget of project #%d: allocated %s, spent %s",
				id, formatMoney(updated.AllocatedAmount), formatMoney(updated.SpentAmount))
			if updated.Remaining() < 0 {
				c.warning("Budget overrun by %s", formatMoney(-updated.Remaining()))
			}
			return nil
		},
	}
	set.Flags().Float64Var(&allocated, "allocated", 0, "allocated amount")
	set.Flags().Float64Var(&spent, "spent", 0, "spent amount")

	cmd.AddCommand(show, set)
	return cmd
}
