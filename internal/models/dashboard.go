package models

// DashboardStats holds the headline numbers of the dashboard
type DashboardStats struct {
	TotalProjects  int     `json:"total_projects"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// DashboardProject is the trimmed project shape used by the dashboard
type DashboardProject struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	TaskCount   int     `json:"task_count"`
}

// Dashboard is the GET /dashboard payload
type Dashboard struct {
	RecentProjects []DashboardProject `json:"recent_projects"`
	TodayTasks     []Task             `json:"today_tasks"`
	OverdueTasks   []Task             `json:"overdue_tasks"`
	UpcomingTasks  []Task             `json:"upcoming_tasks"`
	Stats          DashboardStats     `json:"stats"`
}
