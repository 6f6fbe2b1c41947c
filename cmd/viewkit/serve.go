package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	viewkit "github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/viewhttp"
)

func newServeCommand(opts *options) *cobra.Command {
	var (
		treePath string
		addr     string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a view tree over HTTP",
		Long: `Serve the rendered tree at / and Prometheus metrics at /metrics.

The tree file is read again on every request. With --watch, compiled
templates are dropped as soon as their files change and removed files are
evicted from the resolver cache.

Environment variables:
  VIEWKIT_SERVER_ADDR  - listen address (overridden by --addr)
  VIEWKIT_LOG_LEVEL    - log level: debug, info, warn, error
  VIEWKIT_LOG_FORMAT   - log format: json or console

Examples:
  viewkit serve -c view.yaml -t tree.yaml
  viewkit serve -c view.yaml --addr :3000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, reg, err := opts.newMetricsKit(cmd)
			if err != nil {
				return err
			}
			cfg := kit.Config()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watch = cfg.Server.Watch
			}

			if watch {
				w, err := kit.Watch()
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           newServeRouter(kit, treePath, reg),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
			}
			return runServer(cmd.Context(), server, kit.Logger())
		},
	}
	cmd.Flags().StringVarP(&treePath, "tree", "t", viewkit.SkeletonTree, "tree file served at /")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch module directories for template changes")
	return cmd
}

// newServeRouter mounts the tree at / and the metrics of reg at /metrics.
func newServeRouter(kit *viewkit.Kit, treePath string, reg *prometheus.Registry) http.Handler {
	logger := kit.Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		tree, err := config.LoadTree(treePath)
		if err == nil {
			var out string
			out, err = kit.Render(req.Context(), tree)
			if err == nil {
				w.Header().Set("Content-Type", tree.ContentType()+"; charset=utf-8")
				_, _ = io.WriteString(w, out)
				return
			}
		}
		status := viewhttp.StatusCode(err)
		logger.Error().Err(err).Str("request_id", middleware.GetReqID(req.Context())).Msg("render tree")
		http.Error(w, http.StatusText(status), status)
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.URL.Path == "/metrics" {
				return
			}
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// runServer serves until ctx is cancelled or the process is interrupted,
// then shuts the server down gracefully.
func runServer(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
