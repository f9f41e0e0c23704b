package fakeapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/balkashynov/taskboard/internal/models"
)

// AddProject creates a project owned by the user with ownerEmail
func (s *Server) AddProject(ownerEmail, name string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(ownerEmail))]
	if !ok {
		return models.Project{}, fmt.Errorf("no user %s", ownerEmail)
	}
	project := &models.Project{ID: uuid.NewString(), Name: name, OwnerID: acc.ID, CreatedAt: s.now().UTC()}
	s.projects[project.ID] = project
	return *project, nil
}

// PutTask stores task as is, minting an id when it has none
func (s *Server) PutTask(task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[task.ProjectID]; !ok {
		return models.Task{}, fmt.Errorf("no project %s", task.ProjectID)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now().UTC()
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	stored := task
	s.tasks[task.ID] = &stored
	return task, nil
}

// Task returns the stored copy of id
func (s *Server) Task(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *task, true
}

// Tasks returns the stored tasks of projectID ordered by status then order
func (s *Server) Tasks(projectID string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, task := range s.tasks {
		if task.ProjectID == projectID {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// SeedDemo registers email/password and gives them a small board to play with
func (s *Server) SeedDemo(email, password string) (models.Project, error) {
	if _, err := s.AddUser(email, password, "Demo User"); err != nil {
		return models.Project{}, err
	}
	project, err := s.AddProject(email, "Demo board")
	if err != nil {
		return models.Project{}, err
	}

	now := s.now().UTC()
	tomorrow := now.AddDate(0, 0, 1)
	yesterday := now.AddDate(0, 0, -1)
	seed := []models.Task{
		{Title: "Write the release notes", Status: models.StatusTodo, Priority: models.PriorityHigh, Order: 0, DueDate: &tomorrow},
		{Title: "Triage incoming bugs", Status: models.StatusTodo, Priority: models.PriorityMedium, Order: 1},
		{Title: "Update the changelog", Status: models.StatusTodo, Priority: models.PriorityLow, Order: 2},
		{Title: "Fix the login redirect", Status: models.StatusInProgress, Priority: models.PriorityUrgent, Order: 0, DueDate: &yesterday},
		{Title: "Review the API draft", Status: models.StatusInProgress, Priority: models.PriorityMedium, Order: 1},
		{Title: "Set up CI", Status: models.StatusDone, Priority: models.PriorityMedium, Order: 0},
	}
	for _, task := range seed {
		task.ProjectID = project.ID
		if _, err := s.PutTask(task); err != nil {
			return models.Project{}, err
		}
	}
	return project, nil
}
