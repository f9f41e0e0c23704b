package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/taskboard/internal/models"
)

// SaveTasks replaces the cached snapshot of a project's tasks
func SaveTasks(projectID string, tasks []models.Task) error {
	if err := ready(); err != nil {
		return err
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("clear task snapshot: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&tasks).Error; err != nil {
			return fmt.Errorf("store task snapshot: %w", err)
		}
		return nil
	})
}

// LoadTasks returns the cached tasks of a project sorted by order
func LoadTasks(projectID string) ([]models.Task, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	var tasks []models.Task
	err := DB.Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// HasTasks reports whether a snapshot exists for projectID
func HasTasks(projectID string) (bool, error) {
	if err := ready(); err != nil {
		return false, err
	}
	var count int64
	if err := DB.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveProjects replaces the cached project list
func SaveProjects(projects []models.Project) error {
	if err := ready(); err != nil {
		return err
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("clear project snapshot: %w", err)
		}
		if len(projects) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&projects).Error
	})
}

// LoadProjects returns the cached project list
func LoadProjects() ([]models.Project, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := DB.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// SnapshotCache adapts the package-level snapshot functions to the
// interface the board synchronizer consumes.
type SnapshotCache struct{}

func (SnapshotCache) StoreTasks(_ context.Context, projectID string, tasks []models.Task) error {
	return SaveTasks(projectID, tasks)
}

func (SnapshotCache) CachedTasks(_ context.Context, projectID string) ([]models.Task, bool, error) {
	ok, err := HasTasks(projectID)
	if err != nil || !ok {
		return nil, false, err
	}
	tasks, err := LoadTasks(projectID)
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}
