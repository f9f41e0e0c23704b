package reconcile

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/models"
)

var errBoom = errors.New("boom")

type call struct {
	ID     string
	Status models.Status
	Order  int
}

type stubAPI struct {
	mu        sync.Mutex
	tasks     map[string]models.Task
	calls     []call
	failIDs   map[string]bool
	failMove  bool
	failList  bool
	listCalls int
	deleted   []string
}

func newStub(tasks ...models.Task) *stubAPI {
	s := &stubAPI{tasks: map[string]models.Task{}, failIDs: map[string]bool{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *stubAPI) UpdateTask(_ context.Context, id string, update models.TaskUpdate) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := call{ID: id, Order: -1}
	if update.Status != nil {
		c.Status = *update.Status
	}
	if update.Order != nil {
		c.Order = *update.Order
	}
	s.calls = append(s.calls, c)

	if update.Status != nil && s.failMove {
		return models.Task{}, errBoom
	}
	if update.Status == nil && s.failIDs[id] {
		return models.Task{}, errBoom
	}
	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, errors.New("not found")
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Order != nil {
		task.Order = *update.Order
	}
	s.tasks[id] = task
	return task, nil
}

func (s *stubAPI) ListTasks(_ context.Context, projectID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.failList {
		return nil, errBoom
	}
	var out []models.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubAPI) CreateTask(_ context.Context, create models.TaskCreate) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := models.Task{ID: "new", Title: create.Title, Status: create.Status, ProjectID: create.ProjectID, Order: len(s.tasks)}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *stubAPI) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	delete(s.tasks, id)
	return nil
}

// fixupCalls returns the order-only calls sorted by task id
func (s *stubAPI) fixupCalls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.Status == "" {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memCache struct {
	tasks map[string][]models.Task
}

func (m *memCache) StoreTasks(_ context.Context, projectID string, tasks []models.Task) error {
	if m.tasks == nil {
		m.tasks = map[string][]models.Task{}
	}
	m.tasks[projectID] = tasks
	return nil
}

func (m *memCache) CachedTasks(_ context.Context, projectID string) ([]models.Task, bool, error) {
	tasks, ok := m.tasks[projectID]
	return tasks, ok, nil
}

func todo(id string, order int) models.Task {
	return models.Task{ID: id, Title: id, Status: models.StatusTodo, Order: order, ProjectID: "p1"}
}

func TestPersistReorderSendsMoveAndFixups(t *testing.T) {
	tasks := []models.Task{todo("task0", 0), todo("task1", 1), todo("task2", 2)}
	api := newStub(tasks...)
	b := board.New()
	b.Load(tasks)

	tr := board.NewTracker(b, 0)
	tr.Pick("task0")
	target := board.Target{Column: models.StatusTodo, TaskID: "task2"}
	drop, ok := tr.Release(&target)
	if !ok {
		t.Fatal("expected a drop")
	}

	plan := NewPlan(b, "p1", drop)
	want := []Fixup{{"task1", 0}, {"task2", 1}, {"task0", 2}}
	if !reflect.DeepEqual(plan.Fixups, want) {
		t.Fatalf("expected fixups %v, got %v", want, plan.Fixups)
	}

	out := New(api, nil, 2, nil).Persist(context.Background(), plan)
	if err := out.Err(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if out.Reloaded {
		t.Fatal("a clean persist should not reload")
	}
	if api.calls[0] != (call{ID: "task0", Status: models.StatusTodo, Order: 2}) {
		t.Fatalf("primary update should come first, got %+v", api.calls[0])
	}
	if got := api.fixupCalls(); len(got) != 3 {
		t.Fatalf("expected 3 fixups, got %v", got)
	}
	for id, order := range map[string]int{"task0": 2, "task1": 0, "task2": 1} {
		if api.tasks[id].Order != order {
			t.Errorf("%s: expected order %d, got %d", id, order, api.tasks[id].Order)
		}
	}
}

func TestPersistCrossColumnFixesDestination(t *testing.T) {
	tasks := []models.Task{
		todo("t", 0),
		{ID: "d0", Status: models.StatusDone, Order: 0, ProjectID: "p1"},
		{ID: "d1", Status: models.StatusDone, Order: 1, ProjectID: "p1"},
	}
	api := newStub(tasks...)
	b := board.New()
	b.Load(tasks)

	tr := board.NewTracker(b, 0)
	tr.Pick("t")
	target := board.Target{Column: models.StatusDone, TaskID: "d1"}
	drop, _ := tr.Release(&target)

	plan := NewPlan(b, "p1", drop)
	if plan.Column != models.StatusDone || plan.Index != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	out := New(api, nil, 0, nil).Persist(context.Background(), plan)
	if out.Err() != nil {
		t.Fatalf("persist: %v", out.Err())
	}
	got := api.fixupCalls()
	want := []call{{ID: "d0", Order: 0}, {ID: "d1", Order: 2}, {ID: "t", Order: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fixups %v, got %v", want, got)
	}
	if api.tasks["t"].Status != models.StatusDone {
		t.Fatalf("server should see t in done, got %s", api.tasks["t"].Status)
	}
}

func TestPersistNoopDropStillSendsRequests(t *testing.T) {
	tasks := []models.Task{todo("a", 0), todo("b", 1)}
	api := newStub(tasks...)
	b := board.New()
	b.Load(tasks)

	drop := board.Drop{TaskID: "a", SourceColumn: models.StatusTodo, Column: models.StatusTodo, Index: 0}
	out := New(api, nil, 4, nil).Persist(context.Background(), NewPlan(b, "p1", drop))
	if out.Err() != nil {
		t.Fatalf("persist: %v", out.Err())
	}
	if len(api.calls) != 3 {
		t.Fatalf("expected primary plus 2 fixups, got %v", api.calls)
	}
}

func TestPersistMoveFailureReloads(t *testing.T) {
	tasks := []models.Task{todo("t", 0), {ID: "p", Status: models.StatusInProgress, ProjectID: "p1"}}
	api := newStub(tasks...)
	api.failMove = true
	b := board.New()
	b.Load(tasks)

	tr := board.NewTracker(b, 0)
	tr.Pick("t")
	target := board.Target{Column: models.StatusInProgress}
	drop, _ := tr.Release(&target)

	out := New(api, nil, 4, nil).Persist(context.Background(), NewPlan(b, "p1", drop))
	if !errors.Is(out.MoveErr, errBoom) {
		t.Fatalf("expected move error, got %v", out.MoveErr)
	}
	if !out.Reloaded || api.listCalls != 1 {
		t.Fatalf("expected one reload, got reloaded=%v lists=%d", out.Reloaded, api.listCalls)
	}
	if len(api.calls) != 1 {
		t.Fatalf("fixups should not be sent after a failed move, got %v", api.calls)
	}

	out.Apply(b)
	restored, _ := b.Task("t")
	if restored.Status != models.StatusTodo {
		t.Fatalf("expected t back in todo, got %s", restored.Status)
	}
}

func TestPersistFixupFailureAggregatesAndReloads(t *testing.T) {
	tasks := []models.Task{todo("a", 0), todo("b", 1), todo("c", 2), todo("d", 3)}
	api := newStub(tasks...)
	api.failIDs["b"] = true
	api.failIDs["d"] = true
	b := board.New()
	b.Load(tasks)

	drop := board.Drop{TaskID: "a", SourceColumn: models.StatusTodo, Column: models.StatusTodo, Index: 0}
	out := New(api, nil, 1, nil).Persist(context.Background(), NewPlan(b, "p1", drop))

	if out.MoveErr != nil {
		t.Fatalf("unexpected move error %v", out.MoveErr)
	}
	failed := out.FixupErrors()
	if len(failed) != 2 {
		t.Fatalf("expected 2 fixup errors, got %v", out.FixupErr)
	}
	if len(api.fixupCalls()) != 4 {
		t.Fatalf("every fixup should be attempted, got %v", api.fixupCalls())
	}
	if !out.Reloaded || api.listCalls != 1 {
		t.Fatalf("expected a single reload after all fixups, got %d", api.listCalls)
	}
	if !errors.Is(out.Err(), errBoom) {
		t.Fatalf("combined error should wrap the cause, got %v", out.Err())
	}
}

func TestDeleteReloads(t *testing.T) {
	tasks := []models.Task{todo("a", 0), todo("b", 1)}
	api := newStub(tasks...)
	b := board.New()
	b.Load(tasks)

	b.Remove("a")
	out := New(api, nil, 0, nil).Delete(context.Background(), "p1", "a")
	if out.Err() != nil {
		t.Fatalf("delete: %v", out.Err())
	}
	out.Apply(b)
	if _, ok := b.Task("a"); ok {
		t.Fatal("deleted task came back")
	}
	if !reflect.DeepEqual(api.deleted, []string{"a"}) {
		t.Fatalf("expected DELETE for a, got %v", api.deleted)
	}
}

func TestCreateReloads(t *testing.T) {
	api := newStub(todo("a", 0))
	task, out := New(api, nil, 0, nil).Create(context.Background(), models.TaskCreate{Title: "new task", Status: models.StatusTodo, ProjectID: "p1"})
	if out.Err() != nil {
		t.Fatalf("create: %v", out.Err())
	}
	if task.ID != "new" || !out.Reloaded || len(out.Tasks) != 2 {
		t.Fatalf("unexpected create result %+v %+v", task, out)
	}
}

func TestFetchFallsBackToCache(t *testing.T) {
	api := newStub(todo("a", 0))
	cache := &memCache{}
	syncer := New(api, nil, 0, cache)

	tasks, stale, err := syncer.Fetch(context.Background(), "p1")
	if err != nil || stale || len(tasks) != 1 {
		t.Fatalf("unexpected fetch %v %v %v", tasks, stale, err)
	}

	api.failList = true
	tasks, stale, err = syncer.Fetch(context.Background(), "p1")
	if err != nil || !stale || len(tasks) != 1 {
		t.Fatalf("expected stale snapshot, got %v %v %v", tasks, stale, err)
	}

	if _, _, err := syncer.Fetch(context.Background(), "other"); !errors.Is(err, errBoom) {
		t.Fatalf("expected api error without snapshot, got %v", err)
	}
}

func TestUpdateFailureReloads(t *testing.T) {
	api := newStub(todo("a", 0))
	api.failMove = true
	syncer := New(api, nil, 0, nil)

	status := models.StatusDone
	_, out := syncer.Update(context.Background(), "p1", "a", models.TaskUpdate{Status: &status})
	if !errors.Is(out.Err(), errBoom) {
		t.Fatalf("expected update error, got %v", out.Err())
	}
	if !out.Reloaded || api.listCalls != 1 {
		t.Fatalf("expected one reload, got reloaded=%v lists=%d", out.Reloaded, api.listCalls)
	}
	if out.Tasks[0].Status != models.StatusTodo {
		t.Fatalf("reload should carry server state, got %s", out.Tasks[0].Status)
	}

	api.failMove = false
	title := "renamed"
	task, out := syncer.Update(context.Background(), "p1", "a", models.TaskUpdate{Title: &title})
	if out.Err() != nil || out.Reloaded {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if task.ID != "a" {
		t.Fatalf("expected task a back, got %q", task.ID)
	}
}
