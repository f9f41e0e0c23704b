package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the board column a task lives in
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"

	// StatusReview only shows up in dashboard payloads, never on the board
	StatusReview Status = "review"
)

// BoardStatuses lists the board columns left to right
var BoardStatuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// IsBoardColumn reports whether s is one of the three board columns
func (s Status) IsBoardColumn() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Title returns the column heading for s
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Completed"
	case StatusReview:
		return "Review"
	}
	return string(s)
}

// ParseStatus accepts the wire values plus a few friendly spellings
func ParseStatus(input string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "todo", "to-do", "to_do":
		return StatusTodo, nil
	case "in_progress", "in-progress", "progress", "doing", "wip":
		return StatusInProgress, nil
	case "done", "completed", "complete":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status %q. Use: todo, in_progress, done", input)
}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities from low (1) to urgent (4), 0 when unknown
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// ParsePriority converts "low/medium/high/urgent" or "1-4" to a Priority
func ParsePriority(input string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "low", "1":
		return PriorityLow, nil
	case "medium", "med", "2":
		return PriorityMedium, nil
	case "high", "3":
		return PriorityHigh, nil
	case "urgent", "4":
		return PriorityUrgent, nil
	}
	return "", fmt.Errorf("invalid priority %q. Use: low, medium, high, urgent or 1-4", input)
}

// Task is a task record as served by the API. The gorm tags describe the
// local snapshot table, which keeps server timestamps untouched.
type Task struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `gorm:"index" json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Order       int        `gorm:"column:sort_order" json:"order"`
	ProjectID   string     `gorm:"index" json:"project_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// DescriptionText returns the description or "" when unset
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TaskCreate is the POST /tasks body
type TaskCreate struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   string     `json:"project_id"`
}

// TaskUpdate is the partial PUT /tasks/{id} body; nil fields are left alone
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Order       *int       `json:"order,omitempty"`
}

// MoveUpdate builds the status+order update sent for a dropped task
func MoveUpdate(status Status, order int) TaskUpdate {
	return TaskUpdate{Status: &status, Order: &order}
}

// OrderUpdate builds an order-only fixup update
func OrderUpdate(order int) TaskUpdate {
	return TaskUpdate{Order: &order}
}
