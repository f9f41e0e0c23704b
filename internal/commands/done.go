package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/reconcile"
)

var moveCmd = &cobra.Command{
	Use:   "move <task> <status>",
	Short: "Move a task to another column or position",
	Long: `Move a task the way dragging it on the board would.

The task lands at --index in the target column (0 is the top); without
--index it goes to the bottom, or stays where it is when it is already in
that column. Every task in the target column is renumbered afterwards so
the server order matches the board.

Examples:
  taskboard move 3f2a in_progress
  taskboard move 3f2a todo --index 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}
		index, _ := cmd.Flags().GetInt("index")
		return moveTask(cmd, args[0], status, index)
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveTask(cmd, args[0], models.StatusDone, -1)
	},
}

var undoneCmd = &cobra.Command{
	Use:   "undone <task>",
	Short: "Move a completed task back to todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveTask(cmd, args[0], models.StatusTodo, -1)
	},
}

// moveTask drops ref into status at index and persists it with the same
// primary update and order fixups the board sends.
func moveTask(cmd *cobra.Command, ref string, status models.Status, index int) error {
	ctx := cmd.Context()
	projectID, b, task, err := taskOnBoard(cmd, ref)
	if err != nil {
		return err
	}
	if task.Status == status && !cmd.Flags().Changed("index") {
		fmt.Printf("Task %s is already in %s: %s\n", shortID(task.ID), status.Title(), task.Title)
		return nil
	}

	drop, err := b.Move(task.ID, status, index)
	if err != nil {
		return err
	}
	out := newSynchronizer().Persist(ctx, reconcile.NewPlan(b, projectID, drop))
	if out.MoveErr != nil {
		return fmt.Errorf("move task %s: %w", shortID(task.ID), out.MoveErr)
	}
	if out.FixupErr != nil {
		fmt.Printf("⚠️  %d order updates failed; run 'taskboard ls' to see the server order.\n", len(out.FixupErrors()))
		return out.FixupErr
	}

	switch {
	case status == models.StatusDone && drop.ColumnChanged():
		fmt.Printf("✅ Marked task %s as done: %s\n", shortID(task.ID), task.Title)
	case drop.SourceColumn == models.StatusDone && status == models.StatusTodo:
		fmt.Printf("↩️  Marked task %s back to todo: %s\n", shortID(task.ID), task.Title)
	default:
		fmt.Printf("Moved task %s to %s, position %d: %s\n", shortID(task.ID), status.Title(), drop.Index+1, task.Title)
	}
	return nil
}

var errStaleBoard = errors.New("API unreachable: moves need the live board")

// taskOnBoard loads the live board holding ref. Without --project the ref
// must be a full id; its project is read from the task.
func taskOnBoard(cmd *cobra.Command, ref string) (string, *board.Board, models.Task, error) {
	ctx := cmd.Context()
	var projectID string
	if projectRef(cmd) == "" {
		task, err := client.GetTask(ctx, ref)
		if err != nil {
			return "", nil, models.Task{}, fmt.Errorf("get task %s: %w", ref, err)
		}
		projectID = task.ProjectID
	} else {
		project, err := requireProject(cmd)
		if err != nil {
			return "", nil, models.Task{}, err
		}
		projectID = project.ID
	}

	b, stale, err := loadBoard(ctx, projectID)
	if err != nil {
		return "", nil, models.Task{}, err
	}
	if stale {
		return "", nil, models.Task{}, errStaleBoard
	}
	task, err := b.FindByPrefix(ref)
	if err != nil {
		return "", nil, models.Task{}, err
	}
	return projectID, b, task, nil
}

func init() {
	moveCmd.Flags().IntP("index", "n", -1, "Position in the target column, 0 is the top (default bottom)")
}
