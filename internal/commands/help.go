package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for taskboard",
	Long:  `Display detailed help for all taskboard commands and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			target, _, err := cmd.Root().Find(args)
			if err != nil {
				return err
			}
			return target.Help()
		}
		showCustomHelp()
		return nil
	},
}

func showCustomHelp() {
	fmt.Print(`
taskboard - a terminal kanban board for your projects

ACCOUNT:

  login [email]           Log in and save an access token
  logout                  Forget the saved token
  whoami                  Show the logged in user

PROJECTS:

  projects                List projects (* marks board.project)
  project add <name>      Create a project
    -d, --description     Description
    --deadline            Deadline (dd/mm/yyyy, yyyy-mm-dd, X days)
  project edit <project>  Change --name, --description or --deadline
  project rm <project>    Delete a project and its tasks
    -y, --yes             Skip the confirmation

TASKS (use -p/--project or board.project in config.toml):

  board [project]         Open the interactive board
    --metrics-addr        Serve Prometheus metrics while open

    Mouse: drag a card onto another card or an empty column.
    Keys:
      ←↓↑→/hjkl     Navigate
      space/m       Pick up the card, then hjkl to move it
      enter         Drop the picked card
      esc           Cancel the move
      n / e         New task / edit selected task
      D             Delete selected task
      r             Reload from the server
      q             Quit

  ls                      List tasks column by column
    -s, --status          Only one column
    --json                JSON output

  add <title>             Create a task with smart parsing
    -i, --interactive     Open the form
    --priority            low|medium|high|urgent
    --due                 Due date
    -s, --status          todo|in_progress|done

    Smart syntax:
      @project      Set project by name
      +priority     Set priority
      due:3days     Set due date

    Example:
      taskboard add "Fix login bug @backend +high due:2days"

  edit <task>             Edit a task in the form, or with --title/--priority/--due
  move <task> <status>    Move a task, -n/--index sets the position
  done <task>             Move a task to Completed
  undone <task>           Move a task back to To Do
  rm <task>               Delete a task
  search <query>          Search tasks by title and description
  next                    Rank open tasks across projects, -n/--limit caps the list

Tasks are addressed by id or a unique id prefix.

OTHER:

  dashboard               Today's, overdue and upcoming tasks
  devserver               Run an in-memory API with demo data
  version                 Print version information
  help [command]          Show this help, or help for one command

`)
}
