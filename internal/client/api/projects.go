package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/labdesk/internal/models"
)

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

// ListProjects возвращает проекты; managerID > 0 ограничивает выборку
// проектами этого руководителя
func (c *Client) ListProjects(ctx context.Context, managerID int64) ([]models.Project, error) {
	var query url.Values
	if managerID > 0 {
		query = url.Values{"managerId": {strconv.FormatInt(managerID, 10)}}
	}

	var projects []models.Project
	if err := c.doRequest(ctx, http.MethodGet, "/projects", query, nil, &projects); err != nil {
		return nil, fmt.Errorf("list projects request failed: %w", err)
	}
	return projects, nil
}

// GetProject получает проект по ID
func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := c.doRequest(ctx, http.MethodGet, projectPath(id), nil, nil, &project); err != nil {
		return nil, fmt.Errorf("get project request failed: %w", err)
	}
	return &project, nil
}

// CreateProject создает проект
func (c *Client) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	var created models.Project
	if err := c.doRequest(ctx, http.MethodPost, "/projects", nil, project, &created); err != nil {
		return nil, fmt.Errorf("create project request failed: %w", err)
	}
	return &created, nil
}

// UpdateProject заменяет поля проекта
func (c *Client) UpdateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	var updated models.Project
	if err := c.doRequest(ctx, http.MethodPut, projectPath(project.ProjectID), nil, project, &updated); err != nil {
		return nil, fmt.Errorf("update project request failed: %w", err)
	}
	return &updated, nil
}

// UpdateProjectStatus меняет только статус проекта
func (c *Client) UpdateProjectStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	body := map[string]models.ProjectStatus{"status": status}
	if err := c.doRequest(ctx, http.MethodPut, projectPath(id), nil, body, nil); err != nil {
		return fmt.Errorf("update project status request failed: %w", err)
	}
	return nil
}

// DeleteProject удаляет проект
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, projectPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete project request failed: %w", err)
	}
	return nil
}

// ListTasks возвращает задачи проекта
func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	query := url.Values{"projectId": {strconv.FormatInt(projectID, 10)}}

	var tasks []models.Task
	if err := c.doRequest(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks request failed: %w", err)
	}
	return tasks, nil
}

// CreateTask создает задачу
func (c *Client) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	var created models.Task
	if err := c.doRequest(ctx, http.MethodPost, "/tasks", nil, task, &created); err != nil {
		return nil, fmt.Errorf("create task request failed: %w", err)
	}
	return &created, nil
}

// ListTeam возвращает команду проекта
func (c *Client) ListTeam(ctx context.Context, projectID int64) ([]models.TeamMember, error) {
	var team []models.TeamMember
	if err := c.doRequest(ctx, http.MethodGet, projectPath(projectID)+"/team", nil, nil, &team); err != nil {
		return nil, fmt.Errorf("list team request failed: %w", err)
	}
	return team, nil
}

// AddTeamMember добавляет участника в команду проекта
func (c *Client) AddTeamMember(ctx context.Context, projectID int64, member models.TeamMember) (*models.TeamMember, error) {
	member.ProjectID = projectID

	var added models.TeamMember
	if err := c.doRequest(ctx, http.MethodPost, projectPath(projectID)+"/team", nil, member, &added); err != nil {
		return nil, fmt.Errorf("add team member request failed: %w", err)
	}
	return &added, nil
}

// GetBudget получает бюджет проекта
func (c *Client) GetBudget(ctx context.Context, projectID int64) (*models.ProjectBudget, error) {
	var budget models.ProjectBudget
	if err := c.doRequest(ctx, http.MethodGet, projectPath(projectID)+"/budget", nil, nil, &budget); err != nil {
		return nil, fmt.Errorf("get budget request failed: %w", err)
	}
	return &budget, nil
}

// UpdateBudget заменяет бюджет проекта
func (c *Client) UpdateBudget(ctx context.Context, projectID int64, budget models.ProjectBudget) (*models.ProjectBudget, error) {
	var updated models.ProjectBudget
	if err := c.doRequest(ctx, http.MethodPut, projectPath(projectID)+"/budget", nil, budget, &updated); err != nil {
		return nil, fmt.Errorf("update budget request failed: %w", err)
	}
	return &updated, nil
}

// ListFundingSources возвращает все источники финансирования
func (c *Client) ListFundingSources(ctx context.Context) ([]models.FundingSource, error) {
	var sources []models.FundingSource
	if err := c.doRequest(ctx, http.MethodGet, "/funding-sources", nil, nil, &sources); err != nil {
		return nil, fmt.Errorf("list funding sources request failed: %w", err)
	}
	return sources, nil
}

// CreateFundingSource создает источник финансирования
func (c *Client) CreateFundingSource(ctx context.Context, source models.FundingSource) (*models.FundingSource, error) {
	var created models.FundingSource
	if err := c.doRequest(ctx, http.MethodPost, "/funding-sources", nil, source, &created); err != nil {
		return nil, fmt.Errorf("create funding source request failed: %w", err)
	}
	return &created, nil
}

// ProjectOverview загружает карточку проекта: сам проект, задачи, команду,
// бюджет и источники финансирования. Запросы идут параллельно, первая
// ошибка отменяет остальные.
func (c *Client) ProjectOverview(ctx context.Context, projectID int64) (*models.ProjectOverview, error) {
	var overview models.ProjectOverview

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		project, err := c.GetProject(gctx, projectID)
		overview.Project = project
		return err
	})
	g.Go(func() error {
		tasks, err := c.ListTasks(gctx, projectID)
		overview.Tasks = tasks
		return err
	})
	g.Go(func() error {
		team, err := c.ListTeam(gctx, projectID)
		overview.Team = team
		return err
	})
	g.Go(func() error {
		budget, err := c.GetBudget(gctx, projectID)
		overview.Budget = budget
		return err
	})
	g.Go(func() error {
		sources, err := c.ListFundingSources(gctx)
		overview.FundingSources = sources
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &overview, nil
}
