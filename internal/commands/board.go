package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/taskboard/internal/logging"
	"github.com/balkashynov/taskboard/internal/metrics"
	"github.com/balkashynov/taskboard/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board [project]",
	Short: "Open the interactive kanban board",
	Long: `Open a project's tasks as a three-column board.

Drag cards with the mouse, or pick one with space and move it with hjkl.
Every drop is saved right away; if the server rejects it the board reloads.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := projectRef(cmd)
		if len(args) == 1 {
			ref = args[0]
		}
		if ref == "" {
			return errNoProject
		}
		project, err := resolveProject(cmd.Context(), ref)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(cmd.Context())
		ctx, stop := context.WithCancel(gctx)
		defer stop()

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			logging.Log.Info("serving metrics", zap.String("addr", addr))
			g.Go(func() error { return serve(ctx, srv) })
		}

		g.Go(func() error {
			defer stop()
			return tui.RunBoard(ctx, newSynchronizer(), tui.BoardOptions{
				ProjectID:    project.ID,
				ProjectName:  project.Name,
				DragDistance: cfg.Board.DragDistance,
				Logger:       logging.Log,
			})
		})
		return g.Wait()
	},
}

func init() {
	boardCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while the board is open (e.g. :9091)")
}
