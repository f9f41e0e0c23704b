package fakeapi

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/balkashynov/taskboard/internal/models"
)

// ownedProject must be called with s.mu held
func (s *Server) ownedProject(user models.User, id string) (*models.Project, error) {
	project, ok := s.projects[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}
	if project.OwnerID != user.ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
	}
	return project, nil
}

// ownedTask must be called with s.mu held
func (s *Server) ownedTask(user models.User, id string) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	if _, err := s.ownedProject(user, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// withCounts must be called with s.mu held
func (s *Server) withCounts(p models.Project) models.Project {
	p.TotalTasks, p.CompletedTasks = 0, 0
	for _, task := range s.tasks {
		if task.ProjectID != p.ID {
			continue
		}
		p.TotalTasks++
		if task.Status == models.StatusDone {
			p.CompletedTasks++
		}
	}
	return p
}

// userProjects returns the user's projects, newest first. s.mu must be held.
func (s *Server) userProjects(user models.User) []models.Project {
	var out []models.Project
	for _, p := range s.projects {
		if p.OwnerID == user.ID {
			out = append(out, s.withCounts(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Server) listProjects(c echo.Context) error {
	user := currentUser(c)
	s.mu.Lock()
	projects := s.userProjects(user)
	s.mu.Unlock()
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) getProject(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, err := s.ownedProject(currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.withCounts(*project))
}

func (s *Server) createProject(c echo.Context) error {
	var in models.ProjectCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid project body")
	}
	if strings.TrimSpace(in.Name) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "name is required")
	}
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Deadline:    in.Deadline,
		OwnerID:     user.ID,
		CreatedAt:   s.now().UTC(),
	}
	s.projects[project.ID] = project
	return c.JSON(http.StatusOK, s.withCounts(*project))
}

func (s *Server) updateProject(c echo.Context) error {
	var in models.ProjectUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid project body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	project, err := s.ownedProject(currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "name must not be empty")
		}
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = in.Description
	}
	if in.Deadline != nil {
		project.Deadline = in.Deadline
	}
	now := s.now().UTC()
	project.UpdatedAt = &now
	return c.JSON(http.StatusOK, s.withCounts(*project))
}

func (s *Server) deleteProject(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, err := s.ownedProject(currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	out := s.withCounts(*project)
	for id, task := range s.tasks {
		if task.ProjectID == project.ID {
			delete(s.tasks, id)
		}
	}
	delete(s.projects, project.ID)
	return c.JSON(http.StatusOK, out)
}

// listTasks sorts by id; clients sort by order themselves
func (s *Server) listTasks(c echo.Context) error {
	user := currentUser(c)
	projectID := c.QueryParam("project_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if projectID != "" {
		if _, err := s.ownedProject(user, projectID); err != nil {
			return err
		}
	}
	tasks := []models.Task{}
	for _, task := range s.tasks {
		if projectID != "" && task.ProjectID != projectID {
			continue
		}
		if project, ok := s.projects[task.ProjectID]; !ok || project.OwnerID != user.ID {
			continue
		}
		tasks = append(tasks, *task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, err := s.ownedTask(currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, *task)
}

func validStatus(st models.Status) bool {
	return st.IsBoardColumn() || st == models.StatusReview
}

func (s *Server) createTask(c echo.Context) error {
	var in models.TaskCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid task body")
	}
	if strings.TrimSpace(in.Title) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "title is required")
	}
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !validStatus(in.Status) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
	}
	if in.Priority.Rank() == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid priority")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedProject(currentUser(c), in.ProjectID); err != nil {
		return err
	}
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Order:       s.columnLen(in.ProjectID, in.Status),
		ProjectID:   in.ProjectID,
		CreatedAt:   s.now().UTC(),
	}
	s.tasks[task.ID] = task
	return c.JSON(http.StatusOK, *task)
}

// columnLen must be called with s.mu held
func (s *Server) columnLen(projectID string, status models.Status) int {
	n := 0
	for _, task := range s.tasks {
		if task.ProjectID == projectID && task.Status == status {
			n++
		}
	}
	return n
}

func (s *Server) updateTask(c echo.Context) error {
	var in models.TaskUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid task body")
	}
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	task, err := s.ownedTask(currentUser(c), id)
	if err != nil {
		return err
	}
	if s.failUpdate != nil {
		if err := s.failUpdate(id, in); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
	}
	if in.Priority != nil && in.Priority.Rank() == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid priority")
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "title must not be empty")
		}
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.Order != nil {
		task.Order = *in.Order
	}
	now := s.now().UTC()
	task.UpdatedAt = &now
	return c.JSON(http.StatusOK, *task)
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, err := s.ownedTask(currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	out := *task
	delete(s.tasks, task.ID)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) dashboard(c echo.Context) error {
	user := currentUser(c)
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	nextWeek := today.AddDate(0, 0, 7)

	s.mu.Lock()
	defer s.mu.Unlock()

	dash := models.Dashboard{
		RecentProjects: []models.DashboardProject{},
		TodayTasks:     []models.Task{},
		OverdueTasks:   []models.Task{},
		UpcomingTasks:  []models.Task{},
	}
	projects := s.userProjects(user)
	dash.Stats.TotalProjects = len(projects)
	for i, p := range projects {
		if i < 5 {
			dash.RecentProjects = append(dash.RecentProjects, models.DashboardProject{
				ID: p.ID, Name: p.Name, Description: p.Description, TaskCount: p.TotalTasks,
			})
		}
		dash.Stats.TotalTasks += p.TotalTasks
		dash.Stats.CompletedTasks += p.CompletedTasks
	}

	for _, task := range s.tasks {
		if project, ok := s.projects[task.ProjectID]; !ok || project.OwnerID != user.ID {
			continue
		}
		if task.Status == models.StatusDone || task.DueDate == nil {
			continue
		}
		due := task.DueDate.UTC()
		switch {
		case due.Before(today):
			dash.OverdueTasks = append(dash.OverdueTasks, *task)
		case due.Before(tomorrow):
			dash.TodayTasks = append(dash.TodayTasks, *task)
		case !due.After(nextWeek):
			dash.UpcomingTasks = append(dash.UpcomingTasks, *task)
		}
	}
	byDue := func(tasks []models.Task) {
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(*tasks[j].DueDate) })
	}
	byDue(dash.OverdueTasks)
	byDue(dash.TodayTasks)
	byDue(dash.UpcomingTasks)

	if dash.Stats.TotalTasks > 0 {
		rate := float64(dash.Stats.CompletedTasks) / float64(dash.Stats.TotalTasks) * 100
		dash.Stats.CompletionRate = math.Round(rate*10) / 10
	}
	return c.JSON(http.StatusOK, dash)
}
