package fakeapi

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/balkashynov/taskboard/internal/models"
)

const defaultPrioritizeLimit = 10

var priorityWeights = map[models.Priority]float64{
	models.PriorityUrgent: 10,
	models.PriorityHigh:   8,
	models.PriorityMedium: 5,
	models.PriorityLow:    2,
}

// Score ranks a task for GET /tasks/prioritize: priority weight times a due
// date factor times an age factor. Overdue tasks double per day late, tasks
// due later decay as 1/(1+days), tasks without a due date count 0.5. Age
// adds 0.1 per whole day since creation.
func Score(task models.Task, now time.Time) float64 {
	weight, ok := priorityWeights[task.Priority]
	if !ok {
		weight = priorityWeights[models.PriorityMedium]
	}

	due := 0.5
	if task.DueDate != nil {
		days := daysBetween(utcDay(now), utcDay(*task.DueDate))
		if days < 0 {
			due = math.Pow(2, float64(-days))
		} else {
			due = 1 / float64(1+days)
		}
	}

	ageDays := math.Floor(now.Sub(task.CreatedAt).Hours() / 24)
	age := 1 + ageDays*0.1
	return weight * due * age
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// prioritizeTasks returns the user's open tasks across projects, highest
// score first
func (s *Server) prioritizeTasks(c echo.Context) error {
	limit := defaultPrioritizeLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "limit must be a non-negative integer")
		}
		limit = n
	}
	user := currentUser(c)
	now := s.now()

	s.mu.Lock()
	tasks := []models.Task{}
	for _, task := range s.tasks {
		if task.Status == models.StatusDone {
			continue
		}
		if project, ok := s.projects[task.ProjectID]; !ok || project.OwnerID != user.ID {
			continue
		}
		tasks = append(tasks, *task)
	}
	s.mu.Unlock()

	scores := make(map[string]float64, len(tasks))
	for _, task := range tasks {
		scores[task.ID] = Score(task, now)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if scores[tasks[i].ID] != scores[tasks[j].ID] {
			return scores[tasks[i].ID] > scores[tasks[j].ID]
		}
		return tasks[i].ID < tasks[j].ID
	})
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return c.JSON(http.StatusOK, tasks)
}
