package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martijn/usersapi/internal/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the users REST API",
	Long: `Serve /users, /health and, when enabled, /swagger on api_host:port.

SIGINT or SIGTERM drains in-flight requests for up to shutdown_timeout
before the store connection is closed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		services, err := initServices(ctx)
		if err != nil {
			return err
		}
		defer services.Close()

		server := api.NewServer(cfg, log, services.UserService, services.Store)
		return runServer(ctx, server, cfg.ShutdownTimeout)
	},
}

// httpServer is the part of api.Server that runServer drives
type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// runServer serves until ctx is cancelled or the listener fails, then drains
// in-flight requests for at most drain.
func runServer(ctx context.Context, server httpServer, drain time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("stop requested, draining connections", "timeout", drain)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
