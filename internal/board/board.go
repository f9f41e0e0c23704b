// Package board holds the kanban partition of a project's tasks and the drag
// session that rearranges it. Nothing here talks to the network; callers
// mirror server responses in and read the partition back out.
package board

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/balkashynov/taskboard/internal/models"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrAmbiguousPrefix = errors.New("ambiguous task id prefix")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownColumn   = errors.New("unknown column")
)

// Column is the ordered sequence of tasks rendered in one status column
type Column []models.Task

// IndexOf returns the position of taskID in c, or -1
func (c Column) IndexOf(taskID string) int {
	for i, task := range c {
		if task.ID == taskID {
			return i
		}
	}
	return -1
}

// IDs returns the task ids of c in order
func (c Column) IDs() []string {
	ids := make([]string, len(c))
	for i, task := range c {
		ids[i] = task.ID
	}
	return ids
}

// Board partitions tasks into the todo, in_progress and done columns.
// It is not safe for concurrent use; mutate it from a single goroutine.
type Board struct {
	columns map[models.Status]Column
}

// New returns an empty board
func New() *Board {
	b := &Board{}
	b.reset()
	return b
}

func (b *Board) reset() {
	b.columns = make(map[models.Status]Column, len(models.BoardStatuses))
	for _, status := range models.BoardStatuses {
		b.columns[status] = Column{}
	}
}

// Load replaces the partition with tasks bucketed by status and sorted by
// order. Tasks whose status is not a board column are returned untouched.
func (b *Board) Load(tasks []models.Task) []models.Task {
	b.reset()
	var skipped []models.Task
	for _, task := range tasks {
		if !task.Status.IsBoardColumn() {
			skipped = append(skipped, task)
			continue
		}
		b.columns[task.Status] = append(b.columns[task.Status], task)
	}
	for _, status := range models.BoardStatuses {
		col := b.columns[status]
		sort.SliceStable(col, func(i, j int) bool { return col[i].Order < col[j].Order })
	}
	return skipped
}

// Column returns a copy of the column for status
func (b *Board) Column(status models.Status) Column {
	col := b.columns[status]
	out := make(Column, len(col))
	copy(out, col)
	return out
}

// Len returns the number of tasks in the column for status
func (b *Board) Len(status models.Status) int {
	return len(b.columns[status])
}

// Tasks returns every task on the board, column by column
func (b *Board) Tasks() []models.Task {
	var all []models.Task
	for _, status := range models.BoardStatuses {
		all = append(all, b.columns[status]...)
	}
	return all
}

// Locate finds which column holds taskID and at what position
func (b *Board) Locate(taskID string) (models.Status, int, bool) {
	for _, status := range models.BoardStatuses {
		if idx := b.columns[status].IndexOf(taskID); idx >= 0 {
			return status, idx, true
		}
	}
	return "", -1, false
}

// Task returns the task with taskID
func (b *Board) Task(taskID string) (models.Task, bool) {
	status, idx, ok := b.Locate(taskID)
	if !ok {
		return models.Task{}, false
	}
	return b.columns[status][idx], true
}

// At returns the task at index in the column for status
func (b *Board) At(status models.Status, index int) (models.Task, bool) {
	col := b.columns[status]
	if index < 0 || index >= len(col) {
		return models.Task{}, false
	}
	return col[index], true
}

// FindByPrefix resolves a unique task id prefix
func (b *Board) FindByPrefix(prefix string) (models.Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return models.Task{}, ErrTaskNotFound
	}
	var matches []models.Task
	for _, task := range b.Tasks() {
		id := strings.ToLower(task.ID)
		if id == prefix {
			return task, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousPrefix, prefix, len(matches))
	}
}

// MoveWithinColumn removes the task at from and reinserts it at to; the
// tasks in between shift by one.
func (b *Board) MoveWithinColumn(status models.Status, from, to int) error {
	col, ok := b.columns[status]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, status)
	}
	if from < 0 || from >= len(col) || to < 0 || to >= len(col) {
		return fmt.Errorf("%w: move %d -> %d in %s (len %d)", ErrIndexOutOfRange, from, to, status, len(col))
	}
	if from == to {
		return nil
	}
	task := col[from]
	if from < to {
		copy(col[from:to], col[from+1:to+1])
	} else {
		copy(col[to+1:from+1], col[to:from])
	}
	col[to] = task
	return nil
}

// MoveAcrossColumns takes taskID out of src, sets its status to dst and
// inserts it at destIndex, clamped to dst's length. It returns false, and
// changes nothing, when taskID is not in src.
func (b *Board) MoveAcrossColumns(src, dst models.Status, taskID string, destIndex int) bool {
	if !dst.IsBoardColumn() {
		return false
	}
	from := b.columns[src].IndexOf(taskID)
	if from < 0 {
		return false
	}
	task := b.columns[src][from]
	b.columns[src] = remove(b.columns[src], from)

	task.Status = dst
	b.columns[dst] = insert(b.columns[dst], clamp(destIndex, 0, len(b.columns[dst])), task)
	return true
}

// Remove drops taskID from whichever column holds it
func (b *Board) Remove(taskID string) bool {
	status, idx, ok := b.Locate(taskID)
	if !ok {
		return false
	}
	b.columns[status] = remove(b.columns[status], idx)
	return true
}

// Add appends a freshly created task to the end of its column
func (b *Board) Add(task models.Task) error {
	if !task.Status.IsBoardColumn() {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, task.Status)
	}
	b.columns[task.Status] = append(b.columns[task.Status], task)
	return nil
}

// Upsert applies an updated task. Same status replaces it in place; a new
// status moves it to the slot its order implies in the new column.
func (b *Board) Upsert(task models.Task) error {
	if !task.Status.IsBoardColumn() {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, task.Status)
	}
	status, idx, ok := b.Locate(task.ID)
	if ok && status == task.Status {
		b.columns[status][idx] = task
		return nil
	}
	if ok {
		b.columns[status] = remove(b.columns[status], idx)
	}
	col := b.columns[task.Status]
	pos := sort.Search(len(col), func(i int) bool { return col[i].Order > task.Order })
	b.columns[task.Status] = insert(col, pos, task)
	return nil
}

func remove(col Column, idx int) Column {
	out := make(Column, 0, len(col)-1)
	out = append(out, col[:idx]...)
	return append(out, col[idx+1:]...)
}

func insert(col Column, idx int, task models.Task) Column {
	out := make(Column, 0, len(col)+1)
	out = append(out, col[:idx]...)
	out = append(out, task)
	return append(out, col[idx:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Move places taskID at index in dst the way a finished drag would and
// reports the drop. A negative or out of range index means the end of dst.
func (b *Board) Move(taskID string, dst models.Status, index int) (Drop, error) {
	if !dst.IsBoardColumn() {
		return Drop{}, fmt.Errorf("%w: %s", ErrUnknownColumn, dst)
	}
	src, from, ok := b.Locate(taskID)
	if !ok {
		return Drop{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	if src == dst {
		last := b.Len(src) - 1
		if index < 0 || index > last {
			index = last
		}
		if err := b.MoveWithinColumn(src, from, index); err != nil {
			return Drop{}, err
		}
	} else {
		n := b.Len(dst)
		if index < 0 || index > n {
			index = n
		}
		b.MoveAcrossColumns(src, dst, taskID, index)
	}
	return Drop{TaskID: taskID, SourceColumn: src, SourceIndex: from, Column: dst, Index: index}, nil
}
