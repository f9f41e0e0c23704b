package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/balkashynov/taskboard/internal/db"
	"github.com/balkashynov/taskboard/internal/logging"
	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List your projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := client.ListProjects(cmd.Context())
		offline := false
		if err != nil {
			cached, cacheErr := db.LoadProjects()
			if cacheErr != nil || len(cached) == 0 {
				return err
			}
			logging.Log.Warn("listing projects from snapshot", zap.Error(err))
			projects, offline = cached, true
		} else if err := db.SaveProjects(projects); err != nil {
			logging.Log.Warn("store project snapshot", zap.Error(err))
		}

		if len(projects) == 0 {
			fmt.Println("No projects yet. Use 'taskboard project add \"name\"' to create one.")
			return nil
		}
		if offline {
			fmt.Println("⚠️  API unreachable, showing the last saved list.")
		}

		fmt.Printf("  %-8s %-32s %-9s %-8s %s\n", "ID", "NAME", "TASKS", "DONE", "DEADLINE")
		fmt.Println(strings.Repeat("-", 72))
		for _, p := range projects {
			marker := " "
			if p.ID == cfg.Board.Project {
				marker = "*"
			}
			deadline := "-"
			if p.Deadline != nil {
				deadline = p.Deadline.Local().Format("02 Jan 2006")
			}
			fmt.Printf("%s %-8s %-32s %-9d %-8s %s\n",
				marker,
				shortID(p.ID),
				ansi.Truncate(p.Name, 32, "..."),
				p.TotalTasks,
				fmt.Sprintf("%.0f%%", p.Progress()*100),
				deadline)
		}
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, edit or remove projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		create := models.ProjectCreate{Name: strings.Join(args, " ")}
		if desc, _ := cmd.Flags().GetString("description"); desc != "" {
			create.Description = &desc
		}
		if raw, _ := cmd.Flags().GetString("deadline"); raw != "" {
			deadline, err := parser.ParseDueDate(raw)
			if err != nil {
				return fmt.Errorf("parse deadline: %w", err)
			}
			create.Deadline = deadline
		}

		project, err := client.CreateProject(cmd.Context(), create)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s: %s\n", shortID(project.ID), project.Name)
		fmt.Printf("Open it with: taskboard board %s\n", shortID(project.ID))
		return nil
	},
}

var projectEditCmd = &cobra.Command{
	Use:   "edit <project>",
	Short: "Rename a project or change its description or deadline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var update models.ProjectUpdate
		changed := false
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			update.Name = &name
			changed = true
		}
		if cmd.Flags().Changed("description") {
			desc, _ := cmd.Flags().GetString("description")
			update.Description = &desc
			changed = true
		}
		if raw, _ := cmd.Flags().GetString("deadline"); raw != "" {
			deadline, err := parser.ParseDueDate(raw)
			if err != nil {
				return fmt.Errorf("parse deadline: %w", err)
			}
			update.Deadline = deadline
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change: pass --name, --description or --deadline")
		}

		updated, err := client.UpdateProject(cmd.Context(), project.ID, update)
		if err != nil {
			return err
		}
		fmt.Printf("Updated project %s: %s\n", shortID(updated.ID), updated.Name)
		return nil
	},
}

var projectRmCmd = &cobra.Command{
	Use:     "rm <project>",
	Aliases: []string{"delete"},
	Short:   "Delete a project and all of its tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf("Delete project %q and its %d tasks?", project.Name, project.TotalTasks)) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := client.DeleteProject(cmd.Context(), project.ID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted project %s: %s\n", shortID(project.ID), project.Name)
		return nil
	},
}

func init() {
	projectAddCmd.Flags().StringP("description", "d", "", "Project description")
	projectAddCmd.Flags().String("deadline", "", "Deadline: dd/mm/yyyy, yyyy-mm-dd, X days, X weeks")

	projectEditCmd.Flags().String("name", "", "New name")
	projectEditCmd.Flags().StringP("description", "d", "", "New description")
	projectEditCmd.Flags().String("deadline", "", "New deadline")

	projectRmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	projectCmd.AddCommand(projectAddCmd, projectEditCmd, projectRmCmd)
}
