package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show what to work on next",
	Long: `Rank open tasks across every project by priority, due date and age.

Overdue tasks climb fast, tasks due soon come before tasks due later, and
old tasks slowly rise. Completed tasks are left out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		tasks, err := client.PrioritizedTasks(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return renderTasksJSON(tasks)
		}
		if len(tasks) == 0 {
			fmt.Println("🎉 Nothing left to do.")
			return nil
		}
		printTaskHeader()
		now := time.Now()
		for _, task := range tasks {
			printTaskRow(task, now)
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().IntP("limit", "n", 10, "Number of tasks to show")
	nextCmd.Flags().Bool("json", false, "Output as JSON")
}
