package board

import (
	"math"

	"github.com/balkashynov/taskboard/internal/models"
)

// DefaultActivationDistance is how far a pressed pointer has to travel
// before the press turns into a drag.
const DefaultActivationDistance = 8

// DragState is the phase of a drag session
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragHovering
)

func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragHovering:
		return "hovering"
	}
	return "idle"
}

// Point is a pointer position in whatever units the caller renders in
type Point struct {
	X, Y int
}

// Target is what the pointer is over: a task, or the empty area of a
// column when TaskID is "".
type Target struct {
	Column models.Status
	TaskID string
}

// IsColumn reports whether t is a column's droppable root
func (t Target) IsColumn() bool {
	return t.TaskID == ""
}

// Drop describes where a dragged task ended up
type Drop struct {
	TaskID       string
	SourceColumn models.Status
	SourceIndex  int
	Column       models.Status
	Index        int
}

// ColumnChanged reports whether the drop moved the task to another column
func (d Drop) ColumnChanged() bool {
	return d.SourceColumn != d.Column
}

// Tracker follows one drag gesture at a time and rearranges the board
// speculatively while the pointer crosses columns and tasks.
type Tracker struct {
	board      *Board
	activation float64

	state   DragState
	pending string
	origin  Point
	active  string

	sourceColumn models.Status
	sourceIndex  int

	last    Target
	hasLast bool
}

// NewTracker returns an idle tracker operating on b. A non-positive
// activation distance falls back to DefaultActivationDistance.
func NewTracker(b *Board, activationDistance float64) *Tracker {
	if activationDistance <= 0 {
		activationDistance = DefaultActivationDistance
	}
	return &Tracker{board: b, activation: activationDistance}
}

// State returns the current phase
func (t *Tracker) State() DragState {
	return t.state
}

// Active returns the id of the task being dragged
func (t *Tracker) Active() (string, bool) {
	if t.state == DragIdle {
		return "", false
	}
	return t.active, true
}

// Press arms a drag on taskID. Nothing moves until Motion crosses the
// activation distance.
func (t *Tracker) Press(taskID string, at Point) {
	if t.state != DragIdle {
		return
	}
	if _, ok := t.board.Task(taskID); !ok {
		return
	}
	t.pending = taskID
	t.origin = at
}

// Motion reports pointer movement. It returns true on the call that
// activates the pending press.
func (t *Tracker) Motion(at Point) bool {
	if t.state != DragIdle || t.pending == "" {
		return false
	}
	dx := float64(at.X - t.origin.X)
	dy := float64(at.Y - t.origin.Y)
	if math.Hypot(dx, dy) < t.activation {
		return false
	}
	id := t.pending
	t.pending = ""
	return t.start(id)
}

// Pick starts a keyboard drag on taskID right away
func (t *Tracker) Pick(taskID string) bool {
	if t.state != DragIdle {
		return false
	}
	t.pending = ""
	return t.start(taskID)
}

func (t *Tracker) start(taskID string) bool {
	status, idx, ok := t.board.Locate(taskID)
	if !ok {
		return false
	}
	t.state = DragDragging
	t.active = taskID
	t.sourceColumn = status
	t.sourceIndex = idx
	t.hasLast = false
	return true
}

// Over moves the dragged task to the slot under target. Repeated calls with
// the same target do nothing, so only crossings rearrange the board.
func (t *Tracker) Over(target Target) {
	if t.state == DragIdle {
		return
	}
	if t.hasLast && t.last == target {
		return
	}
	t.last = target
	t.hasLast = true
	t.state = DragHovering
	t.apply(target)
}

func (t *Tracker) apply(target Target) {
	if target.TaskID == t.active {
		return
	}
	activeColumn, activeIndex, ok := t.board.Locate(t.active)
	if !ok {
		return
	}

	overColumn := target.Column
	overIndex := -1
	if !target.IsColumn() {
		if status, idx, found := t.board.Locate(target.TaskID); found {
			overColumn = status
			overIndex = idx
		}
	}
	if !overColumn.IsBoardColumn() {
		return
	}

	if overColumn != activeColumn {
		destIndex := overIndex
		if destIndex < 0 {
			destIndex = t.board.Len(overColumn)
		}
		t.board.MoveAcrossColumns(activeColumn, overColumn, t.active, destIndex)
		return
	}

	destIndex := overIndex
	if destIndex < 0 {
		destIndex = t.board.Len(activeColumn) - 1
	}
	_ = t.board.MoveWithinColumn(activeColumn, activeIndex, destIndex)
}

// Release ends the gesture. With a target it settles the last crossing and
// reports where the task now sits. A nil target, or a press that never
// activated, yields no drop; speculative moves made while hovering stay.
func (t *Tracker) Release(target *Target) (Drop, bool) {
	defer t.reset()
	if t.state == DragIdle || target == nil {
		return Drop{}, false
	}
	t.Over(*target)

	column, index, ok := t.board.Locate(t.active)
	if !ok {
		return Drop{}, false
	}
	return Drop{
		TaskID:       t.active,
		SourceColumn: t.sourceColumn,
		SourceIndex:  t.sourceIndex,
		Column:       column,
		Index:        index,
	}, true
}

func (t *Tracker) reset() {
	t.state = DragIdle
	t.pending = ""
	t.active = ""
	t.hasLast = false
	t.last = Target{}
}
