package board

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/balkashynov/taskboard/internal/models"
)

func task(id string, status models.Status, order int) models.Task {
	return models.Task{ID: id, Title: "task " + id, Status: status, Order: order, Priority: models.PriorityMedium}
}

func TestLoadPartitionsAndSorts(t *testing.T) {
	input := []models.Task{
		task("d1", models.StatusDone, 3),
		task("t2", models.StatusTodo, 2),
		task("p0", models.StatusInProgress, 0),
		task("t0", models.StatusTodo, 0),
		task("d0", models.StatusDone, 1),
		task("t1", models.StatusTodo, 1),
	}

	b := New()
	skipped := b.Load(input)
	if len(skipped) != 0 {
		t.Fatalf("expected nothing skipped, got %v", skipped)
	}

	want := map[models.Status][]string{
		models.StatusTodo:       {"t0", "t1", "t2"},
		models.StatusInProgress: {"p0"},
		models.StatusDone:       {"d0", "d1"},
	}
	var seen []string
	for status, ids := range want {
		col := b.Column(status)
		if !reflect.DeepEqual(col.IDs(), ids) {
			t.Fatalf("column %s: expected %v, got %v", status, ids, col.IDs())
		}
		for _, task := range col {
			if task.Status != status {
				t.Fatalf("task %s sits in %s but has status %s", task.ID, status, task.Status)
			}
			seen = append(seen, task.ID)
		}
	}

	var inputIDs []string
	for _, task := range input {
		inputIDs = append(inputIDs, task.ID)
	}
	sort.Strings(seen)
	sort.Strings(inputIDs)
	if !reflect.DeepEqual(seen, inputIDs) {
		t.Fatalf("partition lost or duplicated tasks: %v vs %v", seen, inputIDs)
	}
}

func TestLoadEmpty(t *testing.T) {
	b := New()
	b.Load(nil)
	for _, status := range models.BoardStatuses {
		if b.Len(status) != 0 {
			t.Fatalf("expected empty %s column, got %d", status, b.Len(status))
		}
	}
}

func TestLoadKeepsEqualOrdersStable(t *testing.T) {
	b := New()
	b.Load([]models.Task{
		task("a", models.StatusTodo, 1),
		task("b", models.StatusTodo, 1),
		task("c", models.StatusTodo, 0),
	})
	if got := b.Column(models.StatusTodo).IDs(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestLoadSkipsNonBoardStatuses(t *testing.T) {
	b := New()
	skipped := b.Load([]models.Task{
		task("a", models.StatusTodo, 0),
		task("r", models.StatusReview, 0),
	})
	if len(skipped) != 1 || skipped[0].ID != "r" {
		t.Fatalf("expected review task skipped, got %v", skipped)
	}
	if _, ok := b.Task("r"); ok {
		t.Fatal("review task should not be on the board")
	}
}

func TestLoadReplacesPreviousState(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("a", models.StatusTodo, 0)})
	b.Load([]models.Task{task("b", models.StatusDone, 0)})
	if _, ok := b.Task("a"); ok {
		t.Fatal("stale task survived reload")
	}
	if b.Len(models.StatusDone) != 1 {
		t.Fatalf("expected b in done, got %v", b.Tasks())
	}
}

func TestMoveWithinColumnIsPermutation(t *testing.T) {
	cases := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"t1", "t2", "t0", "t3"}},
		{3, 0, []string{"t3", "t0", "t1", "t2"}},
		{1, 2, []string{"t0", "t2", "t1", "t3"}},
		{2, 2, []string{"t0", "t1", "t2", "t3"}},
	}
	for _, tc := range cases {
		b := New()
		b.Load([]models.Task{
			task("t0", models.StatusTodo, 0),
			task("t1", models.StatusTodo, 1),
			task("t2", models.StatusTodo, 2),
			task("t3", models.StatusTodo, 3),
		})
		if err := b.MoveWithinColumn(models.StatusTodo, tc.from, tc.to); err != nil {
			t.Fatalf("move %d->%d: %v", tc.from, tc.to, err)
		}
		got := b.Column(models.StatusTodo).IDs()
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("move %d->%d: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestMoveWithinColumnOutOfRange(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("a", models.StatusTodo, 0), task("b", models.StatusTodo, 1)})
	err := b.MoveWithinColumn(models.StatusTodo, 0, 2)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if got := b.Column(models.StatusTodo).IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("column changed on failed move: %v", got)
	}
}

func TestMoveAcrossColumns(t *testing.T) {
	b := New()
	b.Load([]models.Task{
		task("t0", models.StatusTodo, 0),
		task("t1", models.StatusTodo, 1),
		task("d0", models.StatusDone, 0),
		task("d1", models.StatusDone, 1),
	})

	if !b.MoveAcrossColumns(models.StatusTodo, models.StatusDone, "t0", 1) {
		t.Fatal("expected move to succeed")
	}
	if b.Len(models.StatusTodo) != 1 || b.Len(models.StatusDone) != 3 {
		t.Fatalf("unexpected lengths todo=%d done=%d", b.Len(models.StatusTodo), b.Len(models.StatusDone))
	}
	if got := b.Column(models.StatusDone).IDs(); !reflect.DeepEqual(got, []string{"d0", "t0", "d1"}) {
		t.Fatalf("unexpected done column %v", got)
	}
	moved, _ := b.Task("t0")
	if moved.Status != models.StatusDone {
		t.Fatalf("expected status done, got %s", moved.Status)
	}
}

func TestMoveAcrossColumnsClampsIndex(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("t0", models.StatusTodo, 0), task("p0", models.StatusInProgress, 0)})

	b.MoveAcrossColumns(models.StatusTodo, models.StatusInProgress, "t0", 99)
	if got := b.Column(models.StatusInProgress).IDs(); !reflect.DeepEqual(got, []string{"p0", "t0"}) {
		t.Fatalf("expected append at end, got %v", got)
	}
	b.MoveAcrossColumns(models.StatusInProgress, models.StatusTodo, "p0", -4)
	if got := b.Column(models.StatusTodo).IDs(); !reflect.DeepEqual(got, []string{"p0"}) {
		t.Fatalf("expected insert at start, got %v", got)
	}
}

func TestMoveAcrossColumnsMissingTaskIsNoop(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("t0", models.StatusTodo, 0), task("d0", models.StatusDone, 0)})

	if b.MoveAcrossColumns(models.StatusInProgress, models.StatusDone, "t0", 0) {
		t.Fatal("expected no-op when task is not in the source column")
	}
	if b.Len(models.StatusTodo) != 1 || b.Len(models.StatusDone) != 1 {
		t.Fatalf("board changed on no-op: %v", b.Tasks())
	}
}

func TestRemoveAndAdd(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("p0", models.StatusInProgress, 0), task("p1", models.StatusInProgress, 1)})

	if !b.Remove("p0") {
		t.Fatal("expected p0 removed")
	}
	if b.Remove("p0") {
		t.Fatal("second remove should report false")
	}
	if err := b.Add(task("p2", models.StatusInProgress, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := b.Column(models.StatusInProgress).IDs(); !reflect.DeepEqual(got, []string{"p1", "p2"}) {
		t.Fatalf("unexpected column %v", got)
	}
	if err := b.Add(task("r", models.StatusReview, 0)); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	b := New()
	b.Load([]models.Task{
		task("t0", models.StatusTodo, 0),
		task("t1", models.StatusTodo, 1),
		task("d0", models.StatusDone, 0),
		task("d5", models.StatusDone, 5),
	})

	renamed := task("t1", models.StatusTodo, 1)
	renamed.Title = "renamed"
	if err := b.Upsert(renamed); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ := b.Task("t1")
	if got.Title != "renamed" {
		t.Fatalf("expected in-place replace, got %+v", got)
	}

	if err := b.Upsert(task("t0", models.StatusDone, 3)); err != nil {
		t.Fatalf("upsert move: %v", err)
	}
	if ids := b.Column(models.StatusDone).IDs(); !reflect.DeepEqual(ids, []string{"d0", "t0", "d5"}) {
		t.Fatalf("unexpected done column %v", ids)
	}
	if ids := b.Column(models.StatusTodo).IDs(); !reflect.DeepEqual(ids, []string{"t1"}) {
		t.Fatalf("unexpected todo column %v", ids)
	}
}

func TestFindByPrefix(t *testing.T) {
	b := New()
	b.Load([]models.Task{
		task("abc123", models.StatusTodo, 0),
		task("abd456", models.StatusTodo, 1),
		task("ff0000", models.StatusDone, 0),
	})

	got, err := b.FindByPrefix("ff")
	if err != nil || got.ID != "ff0000" {
		t.Fatalf("expected ff0000, got %v %v", got.ID, err)
	}
	if _, err := b.FindByPrefix("ab"); !errors.Is(err, ErrAmbiguousPrefix) {
		t.Fatalf("expected ErrAmbiguousPrefix, got %v", err)
	}
	if _, err := b.FindByPrefix("zz"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	got, err = b.FindByPrefix("ABC")
	if err != nil || got.ID != "abc123" {
		t.Fatalf("prefix match should ignore case, got %v %v", got.ID, err)
	}
}

func TestColumnReturnsCopy(t *testing.T) {
	b := New()
	b.Load([]models.Task{task("a", models.StatusTodo, 0)})
	col := b.Column(models.StatusTodo)
	col[0].Title = "mutated"
	got, _ := b.Task("a")
	if got.Title == "mutated" {
		t.Fatal("Column leaked internal storage")
	}
}

func TestMove(t *testing.T) {
	load := func() *Board {
		b := New()
		b.Load([]models.Task{
			task("t0", models.StatusTodo, 0),
			task("t1", models.StatusTodo, 1),
			task("t2", models.StatusTodo, 2),
			task("p0", models.StatusInProgress, 0),
		})
		return b
	}

	b := load()
	drop, err := b.Move("t0", models.StatusTodo, 1)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := b.Column(models.StatusTodo).IDs(); !reflect.DeepEqual(got, []string{"t1", "t0", "t2"}) {
		t.Fatalf("unexpected order %v", got)
	}
	want := Drop{TaskID: "t0", SourceColumn: models.StatusTodo, SourceIndex: 0, Column: models.StatusTodo, Index: 1}
	if drop != want {
		t.Fatalf("expected %+v, got %+v", want, drop)
	}

	b = load()
	drop, err = b.Move("t1", models.StatusInProgress, -1)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := b.Column(models.StatusInProgress).IDs(); !reflect.DeepEqual(got, []string{"p0", "t1"}) {
		t.Fatalf("expected append, got %v", got)
	}
	if drop.Index != 1 || !drop.ColumnChanged() {
		t.Fatalf("unexpected drop %+v", drop)
	}

	b = load()
	drop, _ = b.Move("t2", models.StatusTodo, 99)
	if drop.Index != 2 {
		t.Fatalf("out of range index should mean the end, got %d", drop.Index)
	}

	if _, err := b.Move("ghost", models.StatusDone, 0); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := b.Move("t0", models.StatusReview, 0); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}
