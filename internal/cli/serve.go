package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/sessionsync/internal/api"
	"github.com/MikeSquared-Agency/sessionsync/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(deps *Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve extracted transcripts over HTTP",
		Long: `Serve extracted transcripts for the current repository over HTTP.

Routes:
  GET /health
  GET /api/v1/sessions
  GET /api/v1/sessions/latest
  GET /api/v1/sessions/{id}
  GET /api/v1/archive/{id}    (only when DATABASE_URL is set)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var archive api.Archive
			if deps.Config.DatabaseURL != "" {
				db, err := store.New(ctx, deps.Config.DatabaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				archive = db
			}

			srv := api.NewServer(deps.Config.Port, newLocator(deps, opts), newService(deps, opts), archive)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				deps.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}
