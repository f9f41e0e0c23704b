package models

import "time"

// Project groups tasks. Task counters come from the server.
type Project struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Description    *string    `json:"description,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	OwnerID        string     `json:"owner_id"`
	CreatedAt      time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt      *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
}

// Progress returns completed/total as a 0..1 ratio
func (p Project) Progress() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	return float64(p.CompletedTasks) / float64(p.TotalTasks)
}

// ProjectCreate is the POST /projects body
type ProjectCreate struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// ProjectUpdate is the partial PUT /projects/{id} body
type ProjectUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}
