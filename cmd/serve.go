package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"xray-sync/internal/config"
	"xray-sync/internal/handler"
	"xray-sync/internal/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger service",
		Long: `Serves /health and /ready without authentication, and /tests and
/results behind the optional bearer token (ENABLE_AUTHENTICATION, BEARER_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           newRouter(a, cfg, rootCmd.Version),
				ReadHeaderTimeout: 10 * time.Second,
			}

			return listenAndServe(cmd.Context(), server)
		},
	}
}

// newRouter wires the handlers with their middleware
func newRouter(a *app, c *config.Config, version string) http.Handler {
	responseWriter := handler.NewResponseWriter()
	syncHandler := handler.NewSyncHandler(a.sync, a.registry, responseWriter)
	healthHandler := handler.NewHealthHandler(a.registry, version)

	mux := http.NewServeMux()

	// Probes carry security headers only
	mux.Handle("/health", middleware.SecurityHeadersMiddleware()(http.HandlerFunc(healthHandler.HandleHealth)))
	mux.Handle("/ready", middleware.SecurityHeadersMiddleware()(http.HandlerFunc(healthHandler.HandleReady)))

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.SecurityHeadersMiddleware(),
			middleware.AuthenticationMiddleware(c),
			middleware.LoggingMiddleware(),
		)
	}
	mux.Handle("/tests", protected(syncHandler.HandleTests))
	mux.Handle("/results", protected(syncHandler.HandleResults))

	return mux
}

// listenAndServe blocks until the server fails or ctx is cancelled
func listenAndServe(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("HTTP server error", "error", err)
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
