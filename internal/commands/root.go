package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/balkashynov/taskboard/internal/api"
	"github.com/balkashynov/taskboard/internal/auth"
	"github.com/balkashynov/taskboard/internal/config"
	"github.com/balkashynov/taskboard/internal/db"
	"github.com/balkashynov/taskboard/internal/logging"
	"github.com/balkashynov/taskboard/internal/reconcile"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg    *config.Config
	client *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "A terminal kanban board for your projects",
	Long: `taskboard is a command-line client for the task API.
Drag tasks between To Do, In Progress and Completed on an interactive board,
or manage projects and tasks straight from the shell.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// setup loads config, opens the log file and the local store, and builds
// the API client every command shares.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd || cmd == helpCmd {
		return nil
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded
	if url, _ := cmd.Flags().GetString("api-url"); url != "" {
		cfg.API.URL = url
	}

	logger, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := db.Initialize(cfg.DatabasePath()); err != nil {
		return err
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}
	client = api.NewClient(cfg.API.URL,
		auth.StoreSource{BaseURL: cfg.API.URL},
		api.WithTimeout(timeout),
		api.WithLogger(logger),
	)
	logger.Debug("command start", zap.String("command", cmd.CommandPath()), zap.String("api", cfg.API.URL))
	return nil
}

// newSynchronizer wires the shared client to the sqlite snapshot
func newSynchronizer() *reconcile.Synchronizer {
	return reconcile.New(client, logging.Log, cfg.Board.FixupWorkers, db.SnapshotCache{})
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// teardown flushes the log and closes the local store. Cobra skips
// PersistentPostRun when RunE fails, so Execute calls it instead.
func teardown() {
	logging.Sync()
	_ = db.Close()
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	defer teardown()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		return fmt.Errorf("%w. Run `taskboard login` first", err)
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%w: your session has expired. Run `taskboard login` again", err)
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskboard %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides config and TASKBOARD_API_URL)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project id, id prefix or name (default from config)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommand(helpCmd)
}
