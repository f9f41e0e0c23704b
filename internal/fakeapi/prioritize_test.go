package fakeapi

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/balkashynov/taskboard/internal/models"
)

var rankClock = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func daysFrom(days int) *time.Time {
	t := rankClock.AddDate(0, 0, days)
	return &t
}

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		task models.Task
		want float64
	}{
		{"no due date", models.Task{Priority: models.PriorityMedium}, 2.5},
		{"due today", models.Task{Priority: models.PriorityHigh, DueDate: daysFrom(0)}, 8},
		{"due in three days", models.Task{Priority: models.PriorityUrgent, DueDate: daysFrom(3)}, 2.5},
		{"one day late", models.Task{Priority: models.PriorityLow, DueDate: daysFrom(-1)}, 4},
		{"three days late", models.Task{Priority: models.PriorityLow, DueDate: daysFrom(-3)}, 16},
		{"unknown priority weighs as medium", models.Task{Priority: "someday"}, 2.5},
		{"five days old", models.Task{Priority: models.PriorityMedium, CreatedAt: rankClock.AddDate(0, 0, -5)}, 3.75},
		{"age counts whole days", models.Task{Priority: models.PriorityMedium, CreatedAt: rankClock.Add(-47 * time.Hour)}, 2.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			if task.CreatedAt.IsZero() {
				task.CreatedAt = rankClock
			}
			if got := Score(task, rankClock); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPrioritizeRanksOpenTasksAcrossProjects(t *testing.T) {
	srv := New(WithClock(func() time.Time { return rankClock }))
	user, err := srv.AddUser("a@example.com", "pw", "")
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if _, err := srv.AddUser("b@example.com", "pw", ""); err != nil {
		t.Fatalf("add user: %v", err)
	}
	first, _ := srv.AddProject("a@example.com", "first")
	second, _ := srv.AddProject("a@example.com", "second")
	foreign, _ := srv.AddProject("b@example.com", "foreign")

	put := func(title string, project models.Project, status models.Status, priority models.Priority, due *time.Time) {
		t.Helper()
		if _, err := srv.PutTask(models.Task{Title: title, ProjectID: project.ID, Status: status, Priority: priority, DueDate: due}); err != nil {
			t.Fatalf("put %s: %v", title, err)
		}
	}
	put("overdue low", first, models.StatusTodo, models.PriorityLow, daysFrom(-3))
	put("urgent today", second, models.StatusInProgress, models.PriorityUrgent, daysFrom(0))
	put("medium someday", first, models.StatusTodo, models.PriorityMedium, nil)
	put("finished", first, models.StatusDone, models.PriorityUrgent, daysFrom(-5))
	put("not mine", foreign, models.StatusTodo, models.PriorityUrgent, daysFrom(-5))

	token, err := srv.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := do(t, srv, http.MethodGet, "/tasks/prioritize/", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("prioritize: %d %s", rec.Code, rec.Body.String())
	}
	var ranked []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var titles []string
	for _, task := range ranked {
		titles = append(titles, task.Title)
	}
	want := []string{"overdue low", "urgent today", "medium someday"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}

	rec = do(t, srv, http.MethodGet, "/tasks/prioritize?limit=1", token, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Title != "overdue low" {
		t.Fatalf("expected only the top task, got %+v", ranked)
	}

	if rec := do(t, srv, http.MethodGet, "/tasks/prioritize?limit=lots", token, ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad limit, got %d", rec.Code)
	}
}
