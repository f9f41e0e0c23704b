package commands

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/balkashynov/taskboard/internal/auth"
	"github.com/balkashynov/taskboard/internal/db"
	"github.com/balkashynov/taskboard/internal/fakeapi"
	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/tui"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo1234"
)

// resetFlags puts every flag back to its default between runs of the
// shared command tree
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

func newTestAPI(t *testing.T) (*fakeapi.Server, models.Project) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TASKBOARD_HOME", filepath.Join(home, ".taskboard"))
	t.Setenv("TASKBOARD_PASSWORD", demoPassword)
	t.Setenv("TASKBOARD_PROJECT", "")

	srv := fakeapi.New()
	project, err := srv.SeedDemo(demoEmail, demoPassword)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Setenv("TASKBOARD_API_URL", ts.URL+fakeapi.Prefix)
	return srv, project
}

func taskByTitle(t *testing.T, srv *fakeapi.Server, projectID, title string) models.Task {
	t.Helper()
	for _, task := range srv.Tasks(projectID) {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("no task titled %q", title)
	return models.Task{}
}

func TestLoginWhoamiLogout(t *testing.T) {
	newTestAPI(t)

	if err := runCLI(t, "whoami"); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn before login, got %v", err)
	}
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "whoami"); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if err := runCLI(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := runCLI(t, "whoami"); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	newTestAPI(t)
	t.Setenv("TASKBOARD_PASSWORD", "nope")
	if err := runCLI(t, "login", demoEmail); err == nil {
		t.Fatal("expected login to fail")
	}
}

func TestMoveAndDone(t *testing.T) {
	srv, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}

	changelog := taskByTitle(t, srv, project.ID, "Update the changelog")
	if err := runCLI(t, "move", changelog.ID[:8], "in_progress", "--index", "0", "-p", project.ID); err != nil {
		t.Fatalf("move: %v", err)
	}

	var order []string
	for _, task := range srv.Tasks(project.ID) {
		if task.Status == models.StatusInProgress {
			order = append(order, task.Title)
		}
	}
	want := []string{"Update the changelog", "Fix the login redirect", "Review the API draft"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected in progress order %v, got %v", want, order)
	}

	if err := runCLI(t, "done", changelog.ID); err != nil {
		t.Fatalf("done: %v", err)
	}
	moved, _ := srv.Task(changelog.ID)
	if moved.Status != models.StatusDone || moved.Order != 1 {
		t.Fatalf("expected done at order 1, got %s %d", moved.Status, moved.Order)
	}
}

func TestUndoneOnTodoTaskStaysPut(t *testing.T) {
	srv, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}

	notes := taskByTitle(t, srv, project.ID, "Write the release notes")
	if err := runCLI(t, "undone", notes.ID[:8], "-p", project.ID); err != nil {
		t.Fatalf("undone: %v", err)
	}
	for _, task := range srv.Tasks(project.ID) {
		if task.UpdatedAt != nil {
			t.Fatalf("task %q was updated", task.Title)
		}
	}
	if stored, _ := srv.Task(notes.ID); stored.Order != 0 {
		t.Fatalf("expected the task to keep order 0, got %d", stored.Order)
	}

	// an explicit index still reorders within the column
	if err := runCLI(t, "move", notes.ID[:8], "todo", "--index", "2", "-p", project.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	if stored, _ := srv.Task(notes.ID); stored.Order != 2 {
		t.Fatalf("expected order 2 after an explicit move, got %d", stored.Order)
	}
}

func TestFailedCommandClosesStore(t *testing.T) {
	_, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "move", "abc", "archived", "-p", project.ID); err == nil {
		t.Fatal("expected an invalid status error")
	}
	if db.DB != nil {
		t.Fatal("local store left open after a failed command")
	}
}

func TestNextRanksOpenTasks(t *testing.T) {
	newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "next", "-n", "2"); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := runCLI(t, "next", "--json"); err != nil {
		t.Fatalf("next --json: %v", err)
	}
}

func TestMoveRejectsUnknownStatus(t *testing.T) {
	_, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "move", "abc", "archived", "-p", project.ID); err == nil {
		t.Fatal("expected an invalid status error")
	}
}

func TestAddWithSmartTitle(t *testing.T) {
	srv, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "add", "Ship it +urgent due:tomorrow", "-p", "demo board"); err != nil {
		t.Fatalf("add: %v", err)
	}

	task := taskByTitle(t, srv, project.ID, "Ship it")
	if task.Priority != models.PriorityUrgent || task.DueDate == nil || task.Status != models.StatusTodo {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Order != 3 {
		t.Fatalf("expected the new task at the bottom of todo, got order %d", task.Order)
	}
}

func TestRemoveTask(t *testing.T) {
	srv, project := newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	ci := taskByTitle(t, srv, project.ID, "Set up CI")
	if err := runCLI(t, "rm", ci.ID[:8], "-p", project.ID, "--yes"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, ok := srv.Task(ci.ID); ok {
		t.Fatal("task still on the server")
	}
}

func TestProjectLifecycle(t *testing.T) {
	_, _ = newTestAPI(t)
	if err := runCLI(t, "login", demoEmail); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := runCLI(t, "project", "add", "Side", "quest", "--deadline", "2030-01-31"); err != nil {
		t.Fatalf("project add: %v", err)
	}
	if err := runCLI(t, "project", "edit", "side quest", "--name", "Main quest"); err != nil {
		t.Fatalf("project edit: %v", err)
	}
	if err := runCLI(t, "projects"); err != nil {
		t.Fatalf("projects: %v", err)
	}
	if err := runCLI(t, "project", "rm", "main quest", "--yes"); err != nil {
		t.Fatalf("project rm: %v", err)
	}
	if err := runCLI(t, "project", "rm", "main quest", "--yes"); !errors.Is(err, errProjectNotFound) {
		t.Fatalf("expected errProjectNotFound, got %v", err)
	}
}

func TestMatchProject(t *testing.T) {
	projects := []models.Project{
		{ID: "aaa111", Name: "Alpha"},
		{ID: "aab222", Name: "Beta"},
		{ID: "ccc333", Name: "alpha"},
	}
	cases := []struct {
		ref    string
		wantID string
		err    error
	}{
		{"aaa111", "aaa111", nil},
		{"beta", "aab222", nil},
		{"cc", "ccc333", nil},
		{"aa", "", errAmbiguousProject},
		{"ALPHA", "", errAmbiguousProject},
		{"zz", "", errProjectNotFound},
	}
	for _, tc := range cases {
		got, err := matchProject(projects, tc.ref)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%q: expected %v, got %v", tc.ref, tc.err, err)
			}
			continue
		}
		if err != nil || got.ID != tc.wantID {
			t.Errorf("%q: expected %s, got %s %v", tc.ref, tc.wantID, got.ID, err)
		}
	}
}

func TestSearchTasksRanksByTier(t *testing.T) {
	desc := "needs deploy"
	tasks := []models.Task{
		{ID: "1", Title: "Fix deploy script"},
		{ID: "2", Title: "deployment notes"},
		{ID: "3", Title: "Deploy"},
		{ID: "4", Title: "redeploy"},
		{ID: "5", Title: "other", Description: &desc},
		{ID: "6", Title: "unrelated"},
	}
	var ids []string
	for _, task := range searchTasks(tasks, "deploy") {
		ids = append(ids, task.ID)
	}
	if want := []string{"3", "2", "4", "5", "1"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	if got := searchTasks(tasks, "  "); got != nil {
		t.Fatalf("blank query should match nothing, got %v", got)
	}
}

func TestCreateFromValues(t *testing.T) {
	create, err := createFromValues(tui.FormValues{Title: " Write tests "}, "p1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if create.Title != "Write tests" || create.Priority != models.PriorityMedium || create.Status != models.StatusTodo || create.ProjectID != "p1" {
		t.Fatalf("unexpected defaults %+v", create)
	}
	if create.Description != nil || create.DueDate != nil {
		t.Fatalf("empty fields should stay unset: %+v", create)
	}

	if _, err := createFromValues(tui.FormValues{}, "p1"); err == nil {
		t.Fatal("expected a missing title error")
	}
	if _, err := createFromValues(tui.FormValues{Title: "x", Priority: "extreme"}, "p1"); err == nil {
		t.Fatal("expected an invalid priority error")
	}
	if _, err := createFromValues(tui.FormValues{Title: "x", Due: "someday"}, "p1"); err == nil {
		t.Fatal("expected an invalid due date error")
	}
}
