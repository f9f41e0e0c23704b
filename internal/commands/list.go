package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the tasks of a project",
	Long:    "List a project's tasks column by column, in board order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := requireProject(cmd)
		if err != nil {
			return err
		}
		b, stale, err := loadBoard(cmd.Context(), project.ID)
		if err != nil {
			return err
		}

		statuses := models.BoardStatuses
		if raw, _ := cmd.Flags().GetString("status"); raw != "" {
			status, err := models.ParseStatus(raw)
			if err != nil {
				return err
			}
			statuses = []models.Status{status}
		}

		var tasks []models.Task
		for _, status := range statuses {
			tasks = append(tasks, b.Column(status)...)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return renderTasksJSON(tasks)
		}

		if stale {
			fmt.Println("⚠️  API unreachable, showing the last saved snapshot.")
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found. Use 'taskboard add \"task title\"' to create your first task.")
			return nil
		}
		fmt.Printf("%s\n\n", project.Name)
		now := time.Now()
		for _, status := range statuses {
			col := b.Column(status)
			fmt.Printf("%s (%d)\n", status.Title(), len(col))
			for _, task := range col {
				printTaskRow(task, now)
			}
			fmt.Println()
		}
		return nil
	},
}

func renderTasksJSON(tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	out, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printTaskRow prints one task in the fixed-width layout shared by ls,
// search and dashboard
func printTaskRow(task models.Task, now time.Time) {
	due, _ := parser.DueLabel(task.DueDate, now)
	fmt.Printf("  %-8s %-40s %-7s %s\n",
		shortID(task.ID),
		ansi.Truncate(task.Title, 40, "..."),
		task.Priority,
		due)
}

func printTaskHeader() {
	fmt.Printf("  %-8s %-40s %-7s %s\n", "ID", "TITLE", "PRIO", "DUE")
	fmt.Println(strings.Repeat("-", 72))
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Only show one column: todo, in_progress, done")
	listCmd.Flags().Bool("json", false, "Output as JSON")
}
