package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <task>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf("Delete task %q?", task.Title)) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := client.DeleteTask(cmd.Context(), task.ID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted task %s: %s\n", shortID(task.ID), task.Title)
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
