package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/models"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show today's, overdue and upcoming tasks across projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, err := client.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		renderDashboard(dash, time.Now())
		return nil
	},
}

var sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))

func renderDashboard(dash models.Dashboard, now time.Time) {
	s := dash.Stats
	fmt.Println(sectionStyle.Render("Overview"))
	fmt.Printf("  Projects: %d   Tasks: %d   Completed: %d (%.1f%%)\n\n",
		s.TotalProjects, s.TotalTasks, s.CompletedTasks, s.CompletionRate)

	renderTaskSection("Overdue", dash.OverdueTasks, now)
	renderTaskSection("Due today", dash.TodayTasks, now)
	renderTaskSection("Upcoming", dash.UpcomingTasks, now)

	fmt.Println(sectionStyle.Render("Recent projects"))
	if len(dash.RecentProjects) == 0 {
		fmt.Println("  none")
		return
	}
	for _, p := range dash.RecentProjects {
		fmt.Printf("  %-8s %-40s %d tasks\n", shortID(p.ID), p.Name, p.TaskCount)
	}
}

func renderTaskSection(title string, tasks []models.Task, now time.Time) {
	fmt.Println(sectionStyle.Render(fmt.Sprintf("%s (%d)", title, len(tasks))))
	if len(tasks) == 0 {
		fmt.Println("  nothing here")
		fmt.Println()
		return
	}
	printTaskHeader()
	for _, task := range tasks {
		printTaskRow(task, now)
	}
	fmt.Println()
}
