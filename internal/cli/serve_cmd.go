package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/alexanderramin/miru/internal/logging"
	"github.com/alexanderramin/miru/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.HTTP
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			logger := app.Logger
			if logger == nil {
				logger = logging.Discard()
			}

			api := server.NewAPIHandlers(logger, server.Services{
				Connections: app.Connections,
				Dashboard:   app.Dashboard,
				Prompts:     app.Prompts,
				Auth:        app.Auth,
				Import:      app.Import,
				AI:          app.AI,
				I18n:        app.I18n,
			})
			router := server.NewRouter(logger, server.RouterDependencies{
				Health:           app.Health,
				API:              api,
				AllowedOrigins:   cfg.AllowedOrigins,
				AllowCredentials: true,
			})
			srv := server.New(logger, cfg, router)

			ln, err := net.Listen("tcp", cfg.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", ln.Addr())

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Serve(ln)
			}()

			ctx := cmd.Context()
			select {
			case <-ctx.Done():
				logger.Info("received shutdown signal", "cause", context.Cause(ctx))
			case err := <-errCh:
				if err != nil {
					logger.Error("server stopped unexpectedly", "error", err)
					return err
				}
				return nil
			}

			if err := srv.Shutdown(context.Background()); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides config)")
	return cmd
}
