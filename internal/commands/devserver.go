package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/taskboard/internal/fakeapi"
	"github.com/balkashynov/taskboard/internal/logging"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory API with a demo board",
	Long: `Run a development copy of the task API in memory.

It seeds one user and a demo project so the board can be tried without a
real backend. Everything is lost when it stops.

Example:
  taskboard devserver &
  taskboard --api-url http://localhost:8000/api/v1 login demo@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		opts := []fakeapi.Option{fakeapi.WithLogger(logging.Log)}
		if secret, _ := cmd.Flags().GetString("secret"); secret != "" {
			opts = append(opts, fakeapi.WithSecret(secret))
		}
		api := fakeapi.New(opts...)
		project, err := api.SeedDemo(email, password)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}

		fmt.Printf("🚀 Serving the task API on http://%s%s\n", displayAddr(addr), fakeapi.Prefix)
		fmt.Printf("  Login: %s / %s\n", email, password)
		fmt.Printf("  Demo project: %s (%s)\n", project.Name, project.ID)
		fmt.Println("Press Ctrl+C to stop.")

		srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}
		return serve(cmd.Context(), srv)
	},
}

// serve runs srv until ctx is done, then shuts it down
func serve(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	devserverCmd.Flags().String("addr", ":8000", "Listen address")
	devserverCmd.Flags().String("email", "demo@example.com", "Demo user email")
	devserverCmd.Flags().String("password", "demo1234", "Demo user password")
	devserverCmd.Flags().String("secret", "", "JWT signing secret (default a fixed development key)")
}
