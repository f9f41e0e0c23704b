// Package reconcile sends board drops to the task API and decides when the
// local board has to be reloaded from the server.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/metrics"
	"github.com/balkashynov/taskboard/internal/models"
)

// TaskAPI is the slice of the REST client the synchronizer needs
type TaskAPI interface {
	UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (models.Task, error)
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	CreateTask(ctx context.Context, create models.TaskCreate) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Cache keeps the last task list seen per project
type Cache interface {
	StoreTasks(ctx context.Context, projectID string, tasks []models.Task) error
	CachedTasks(ctx context.Context, projectID string) ([]models.Task, bool, error)
}

// Fixup rewrites one task's order to its position in the destination column
type Fixup struct {
	TaskID string
	Order  int
}

// Plan is everything Persist needs, captured from the board at drop time
type Plan struct {
	ProjectID string
	Moved     string
	Column    models.Status
	Index     int
	Fixups    []Fixup
}

// NewPlan snapshots the destination column of drop. Call it on the goroutine
// that owns b, right after the drop.
func NewPlan(b *board.Board, projectID string, drop board.Drop) Plan {
	col := b.Column(drop.Column)
	fixups := make([]Fixup, len(col))
	for i, task := range col {
		fixups[i] = Fixup{TaskID: task.ID, Order: i}
	}
	return Plan{
		ProjectID: projectID,
		Moved:     drop.TaskID,
		Column:    drop.Column,
		Index:     drop.Index,
		Fixups:    fixups,
	}
}

// FixupError is one failed order fixup
type FixupError struct {
	TaskID string
	Order  int
	Err    error
}

func (e *FixupError) Error() string {
	return fmt.Sprintf("set order %d on task %s: %v", e.Order, e.TaskID, e.Err)
}

func (e *FixupError) Unwrap() error {
	return e.Err
}

// Outcome is the result of persisting a plan. It carries no reference to the
// board; Apply hands the reload back to the board's owner.
type Outcome struct {
	// MoveErr is the failure of the primary request: the move, create or delete
	MoveErr   error
	FixupErr  error
	Reloaded  bool
	Tasks     []models.Task
	ReloadErr error
}

// Apply mirrors a reload into b. Without a reload the board already shows
// the speculative arrangement and stays as is.
func (o Outcome) Apply(b *board.Board) []models.Task {
	if !o.Reloaded || o.ReloadErr != nil {
		return nil
	}
	return b.Load(o.Tasks)
}

// Err combines everything that went wrong
func (o Outcome) Err() error {
	var err error
	if o.MoveErr != nil {
		err = multierr.Append(err, fmt.Errorf("move task: %w", o.MoveErr))
	}
	err = multierr.Append(err, o.FixupErr)
	if o.ReloadErr != nil {
		err = multierr.Append(err, fmt.Errorf("reload tasks: %w", o.ReloadErr))
	}
	return err
}

// FixupErrors unpacks the individual fixup failures
func (o Outcome) FixupErrors() []*FixupError {
	var out []*FixupError
	for _, err := range multierr.Errors(o.FixupErr) {
		var fe *FixupError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Synchronizer persists drops and reloads
type Synchronizer struct {
	api     TaskAPI
	cache   Cache
	logger  *zap.Logger
	workers int
}

// New returns a synchronizer. A nil logger logs nowhere, a nil cache
// disables the offline snapshot, and workers <= 0 means one fixup per task
// in flight.
func New(api TaskAPI, logger *zap.Logger, workers int, cache Cache) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{api: api, cache: cache, logger: logger, workers: workers}
}

// Persist sends the primary status+order update, then the order fixups.
// A failed primary update skips the fixups and reloads; any failed fixup
// reloads once every fixup has settled.
func (s *Synchronizer) Persist(ctx context.Context, plan Plan) Outcome {
	start := time.Now()
	log := s.logger.With(
		zap.String("task_id", plan.Moved),
		zap.String("column", string(plan.Column)),
		zap.Int("index", plan.Index),
	)

	var out Outcome
	if _, err := s.api.UpdateTask(ctx, plan.Moved, models.MoveUpdate(plan.Column, plan.Index)); err != nil {
		log.Warn("move failed, reloading", zap.Error(err))
		metrics.MovesPersisted.WithLabelValues("move_failed").Inc()
		out.MoveErr = err
		s.reload(ctx, plan.ProjectID, "move_failed", &out)
		return out
	}

	out.FixupErr = s.fixups(ctx, plan.Fixups)
	if out.FixupErr != nil {
		failed := len(multierr.Errors(out.FixupErr))
		log.Warn("order fixups failed, reloading", zap.Int("failed", failed), zap.Int("sent", len(plan.Fixups)), zap.Error(out.FixupErr))
		metrics.MovesPersisted.WithLabelValues("fixup_failed").Inc()
		s.reload(ctx, plan.ProjectID, "fixup_failed", &out)
		return out
	}

	metrics.MovesPersisted.WithLabelValues("ok").Inc()
	log.Debug("move persisted", zap.Int("fixups", len(plan.Fixups)), zap.Duration("took", time.Since(start)))
	return out
}

// fixups sends every order update and waits for all of them. The group
// never cancels siblings; failures are collected instead.
func (s *Synchronizer) fixups(ctx context.Context, fixups []Fixup) error {
	var g errgroup.Group
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}

	errs := make([]error, len(fixups))
	for i, f := range fixups {
		i, f := i, f
		g.Go(func() error {
			if _, err := s.api.UpdateTask(ctx, f.TaskID, models.OrderUpdate(f.Order)); err != nil {
				metrics.FixupFailures.Inc()
				errs[i] = &FixupError{TaskID: f.TaskID, Order: f.Order, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func (s *Synchronizer) reload(ctx context.Context, projectID, reason string, out *Outcome) {
	metrics.BoardReloads.WithLabelValues(reason).Inc()
	tasks, err := s.api.ListTasks(ctx, projectID)
	out.Reloaded = true
	if err != nil {
		s.logger.Error("reload failed", zap.String("project_id", projectID), zap.Error(err))
		out.ReloadErr = err
		return
	}
	out.Tasks = tasks
	s.store(ctx, projectID, tasks)
}

// Fetch lists the project's tasks. When the API is unreachable it falls back
// to the last snapshot and reports stale; the API error is returned only
// when there is no snapshot either.
func (s *Synchronizer) Fetch(ctx context.Context, projectID string) (tasks []models.Task, stale bool, err error) {
	tasks, err = s.api.ListTasks(ctx, projectID)
	if err == nil {
		s.store(ctx, projectID, tasks)
		return tasks, false, nil
	}
	if s.cache == nil {
		return nil, false, err
	}
	cached, ok, cacheErr := s.cache.CachedTasks(ctx, projectID)
	if cacheErr != nil {
		s.logger.Warn("read task snapshot", zap.String("project_id", projectID), zap.Error(cacheErr))
	}
	if !ok {
		return nil, false, err
	}
	s.logger.Warn("serving cached tasks", zap.String("project_id", projectID), zap.Error(err))
	return cached, true, nil
}

// Reload lists the project's tasks for an explicit refresh
func (s *Synchronizer) Reload(ctx context.Context, projectID, reason string) Outcome {
	var out Outcome
	s.reload(ctx, projectID, reason, &out)
	return out
}

func (s *Synchronizer) store(ctx context.Context, projectID string, tasks []models.Task) {
	if s.cache == nil {
		return
	}
	if err := s.cache.StoreTasks(ctx, projectID, tasks); err != nil {
		s.logger.Warn("store task snapshot", zap.String("project_id", projectID), zap.Error(err))
	}
}

// Create posts a new task and reloads so the board picks up the order the
// server assigned. Callers may Add the returned task optimistically.
func (s *Synchronizer) Create(ctx context.Context, create models.TaskCreate) (models.Task, Outcome) {
	var out Outcome
	task, err := s.api.CreateTask(ctx, create)
	if err != nil {
		s.logger.Warn("create failed", zap.String("title", create.Title), zap.Error(err))
		out.MoveErr = err
		return models.Task{}, out
	}
	s.logger.Info("task created", zap.String("task_id", task.ID), zap.String("project_id", create.ProjectID))
	s.reload(ctx, create.ProjectID, "create", &out)
	return task, out
}

// Delete removes taskID on the server and reloads whether or not the delete
// went through. The caller has usually removed it from the board already.
func (s *Synchronizer) Delete(ctx context.Context, projectID, taskID string) Outcome {
	var out Outcome
	if err := s.api.DeleteTask(ctx, taskID); err != nil {
		s.logger.Warn("delete failed", zap.String("task_id", taskID), zap.Error(err))
		out.MoveErr = err
	}
	s.reload(ctx, projectID, "delete", &out)
	return out
}

// Update sends a partial edit and reloads on failure
func (s *Synchronizer) Update(ctx context.Context, projectID, taskID string, update models.TaskUpdate) (models.Task, Outcome) {
	var out Outcome
	task, err := s.api.UpdateTask(ctx, taskID, update)
	if err != nil {
		s.logger.Warn("update failed", zap.String("task_id", taskID), zap.Error(err))
		out.MoveErr = err
		s.reload(ctx, projectID, "update_failed", &out)
		return models.Task{}, out
	}
	return task, out
}
