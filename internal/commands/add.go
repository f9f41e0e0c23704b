package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
	"github.com/balkashynov/taskboard/internal/tui"
)

var addCmd = &cobra.Command{
	Use:   "add [task title]",
	Short: "Add a task to a project",
	Long: `Add a new task with optional metadata.

Modes:
  Interactive: taskboard add -i (or just 'taskboard add' with no arguments)
  Quick: taskboard add "Task title" (with optional flags)
  Smart parsing: taskboard add "Fix login bug @backend +high due:3days"

Smart parsing syntax:
  @project    - Project name
  +priority   - Priority (low/medium/high/urgent or 1-4)
  due:3days   - Due date (dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X days, X hours, X weeks)`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		if len(args) == 0 {
			interactive = true
		}

		parsed := parser.ParseTitle(strings.Join(args, " "))
		values, err := addFormValues(cmd, parsed)
		if err != nil {
			return err
		}
		if len(parsed.Errors) > 0 {
			fmt.Printf("⚠️  Found issues with parsing: %s\n", strings.Join(parsed.Errors, ", "))
			fmt.Println("Opening interactive mode for confirmation...")
			interactive = true
		}

		ref := parsed.Project
		if ref == "" {
			ref = projectRef(cmd)
		}
		if ref == "" {
			return errNoProject
		}
		project, err := resolveProject(cmd.Context(), ref)
		if err != nil {
			return err
		}

		var create models.TaskCreate
		if interactive {
			result, ok, err := tui.RunTaskForm("New task in "+project.Name, values)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("❌ Task creation cancelled.")
				return nil
			}
			create = result.Create(project.ID)
		} else {
			create, err = createFromValues(values, project.ID)
			if err != nil {
				return err
			}
		}

		task, err := client.CreateTask(cmd.Context(), create)
		if err != nil {
			return err
		}
		printCreated(task, project)
		return nil
	},
}

// addFormValues merges parsed title metadata with explicit flags; flags win
func addFormValues(cmd *cobra.Command, parsed parser.ParsedTask) (tui.FormValues, error) {
	values := tui.FormValues{
		Title:    parsed.Title,
		Priority: string(parsed.Priority),
	}
	if parsed.DueDate != nil {
		values.Due = parsed.DueDate.Format("02/01/2006")
	}
	if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
		values.Priority = priority
	}
	if due, _ := cmd.Flags().GetString("due"); due != "" {
		values.Due = due
	}
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		values.Status = status
	}
	if desc, _ := cmd.Flags().GetString("description"); desc != "" {
		values.Description = desc
	}
	return values, nil
}

// createFromValues validates values the way the form does
func createFromValues(values tui.FormValues, projectID string) (models.TaskCreate, error) {
	create := models.TaskCreate{
		Title:     strings.TrimSpace(values.Title),
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		ProjectID: projectID,
	}
	if create.Title == "" {
		return create, fmt.Errorf("task title is required")
	}
	if values.Description != "" {
		desc := values.Description
		create.Description = &desc
	}
	if values.Priority != "" {
		p, err := models.ParsePriority(values.Priority)
		if err != nil {
			return create, err
		}
		create.Priority = p
	}
	if values.Status != "" {
		s, err := models.ParseStatus(values.Status)
		if err != nil {
			return create, err
		}
		create.Status = s
	}
	due, err := parser.ParseDueDate(values.Due)
	if err != nil {
		return create, fmt.Errorf("invalid due date: %w", err)
	}
	create.DueDate = due
	return create, nil
}

func printCreated(task models.Task, project models.Project) {
	fmt.Printf("✅ New task \"%s\" added - ID: %s\n", task.Title, shortID(task.ID))
	fmt.Printf("  Project: %s\n", project.Name)
	fmt.Printf("  Status: %s\n", task.Status.Title())
	fmt.Printf("  Priority: %s\n", task.Priority)
	if task.DueDate != nil {
		fmt.Printf("  Due: %s\n", task.DueDate.Local().Format("02 Jan 2006"))
	}
}

func init() {
	addCmd.Flags().BoolP("interactive", "i", false, "Interactive mode with TUI")
	addCmd.Flags().String("priority", "", "Priority: low, medium, high, urgent or 1-4")
	addCmd.Flags().String("due", "", "Due date: dd/mm/yyyy, yyyy-mm-dd, X days, X hours, X weeks")
	addCmd.Flags().StringP("status", "s", "", "Column: todo, in_progress, done")
	addCmd.Flags().StringP("description", "d", "", "Task description")
}
