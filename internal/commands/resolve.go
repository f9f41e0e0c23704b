package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/db"
	"github.com/balkashynov/taskboard/internal/logging"
	"github.com/balkashynov/taskboard/internal/models"
)

var (
	errNoProject        = errors.New("no project selected: pass --project or set board.project in config.toml")
	errProjectNotFound  = errors.New("project not found")
	errAmbiguousProject = errors.New("ambiguous project")
)

// projectRef returns the --project flag, falling back to the configured default
func projectRef(cmd *cobra.Command) string {
	if ref, _ := cmd.Flags().GetString("project"); ref != "" {
		return ref
	}
	return cfg.Board.Project
}

// requireProject resolves the project the command works on
func requireProject(cmd *cobra.Command) (models.Project, error) {
	ref := projectRef(cmd)
	if ref == "" {
		return models.Project{}, errNoProject
	}
	return resolveProject(cmd.Context(), ref)
}

// resolveProject matches ref against project ids, names and id prefixes, in
// that order. The list is cached so a later offline call still resolves.
func resolveProject(ctx context.Context, ref string) (models.Project, error) {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		cached, cacheErr := db.LoadProjects()
		if cacheErr != nil || len(cached) == 0 {
			return models.Project{}, err
		}
		logging.Log.Warn("resolving project from snapshot", zap.Error(err))
		projects = cached
	} else if err := db.SaveProjects(projects); err != nil {
		logging.Log.Warn("store project snapshot", zap.Error(err))
	}
	return matchProject(projects, ref)
}

func matchProject(projects []models.Project, ref string) (models.Project, error) {
	ref = strings.TrimSpace(ref)
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}
	var byName []models.Project
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			byName = append(byName, p)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return models.Project{}, fmt.Errorf("%w: %d projects are named %q, use the id", errAmbiguousProject, len(byName), ref)
	}

	var byPrefix []models.Project
	lower := strings.ToLower(ref)
	for _, p := range projects {
		if strings.HasPrefix(strings.ToLower(p.ID), lower) {
			byPrefix = append(byPrefix, p)
		}
	}
	switch len(byPrefix) {
	case 0:
		return models.Project{}, fmt.Errorf("%w: %s", errProjectNotFound, ref)
	case 1:
		return byPrefix[0], nil
	}
	return models.Project{}, fmt.Errorf("%w: %s matches %d projects", errAmbiguousProject, ref, len(byPrefix))
}

// loadBoard fetches the project's tasks into a board. stale is true when the
// API was unreachable and the local snapshot was used.
func loadBoard(ctx context.Context, projectID string) (*board.Board, bool, error) {
	tasks, stale, err := newSynchronizer().Fetch(ctx, projectID)
	if err != nil {
		return nil, false, fmt.Errorf("load tasks: %w", err)
	}
	b := board.New()
	b.Load(tasks)
	return b, stale, nil
}

// resolveTask finds a task by id or unique id prefix. Without a project the
// ref must be a full id.
func resolveTask(cmd *cobra.Command, ref string) (models.Task, error) {
	ctx := cmd.Context()
	if projectRef(cmd) == "" {
		task, err := client.GetTask(ctx, ref)
		if err != nil {
			return models.Task{}, fmt.Errorf("get task %s: %w", ref, err)
		}
		return task, nil
	}
	project, err := requireProject(cmd)
	if err != nil {
		return models.Task{}, err
	}
	b, _, err := loadBoard(ctx, project.ID)
	if err != nil {
		return models.Task{}, err
	}
	return b.FindByPrefix(ref)
}

// shortID trims a uuid for table output
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
