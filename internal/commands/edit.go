package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
	"github.com/balkashynov/taskboard/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Edit an existing task",
	Long: `Edit an existing task.

Opens the same form as 'taskboard add -i' with every field filled in from
the current task. Pass --title, --priority, --due or --description to change
fields without the form.

Usage:
  taskboard edit 3f2a        - Edit the task whose id starts with 3f2a
  taskboard edit 3f2a --priority high`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}

		update, changed, err := editFromFlags(cmd)
		if err != nil {
			return err
		}
		if !changed {
			result, ok, err := tui.RunTaskForm("Edit task", tui.ValuesFromTask(task))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("❌ Edit cancelled.")
				return nil
			}
			update = result.Update()
		}

		updated, err := client.UpdateTask(cmd.Context(), task.ID, update)
		if err != nil {
			return err
		}
		fmt.Printf("✏️  Updated task %s: %s\n", shortID(updated.ID), updated.Title)
		return nil
	},
}

func editFromFlags(cmd *cobra.Command) (models.TaskUpdate, bool, error) {
	var update models.TaskUpdate
	changed := false
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		title = strings.TrimSpace(title)
		if title == "" {
			return update, false, fmt.Errorf("task title is required")
		}
		update.Title = &title
		changed = true
	}
	if cmd.Flags().Changed("description") {
		desc, _ := cmd.Flags().GetString("description")
		update.Description = &desc
		changed = true
	}
	if raw, _ := cmd.Flags().GetString("priority"); raw != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return update, false, err
		}
		update.Priority = &p
		changed = true
	}
	if raw, _ := cmd.Flags().GetString("due"); raw != "" {
		due, err := parser.ParseDueDate(raw)
		if err != nil {
			return update, false, fmt.Errorf("invalid due date: %w", err)
		}
		update.DueDate = due
		changed = true
	}
	return update, changed, nil
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().String("priority", "", "New priority: low, medium, high, urgent or 1-4")
	editCmd.Flags().String("due", "", "New due date")
}
