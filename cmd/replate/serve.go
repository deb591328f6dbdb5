package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/livefir/replate"
	"github.com/livefir/replate/cmd/replate/internal/config"
	"github.com/livefir/replate/internal/live"
	"github.com/livefir/replate/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		flags templateFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve <template>",
		Short: "Serve a live preview of a template",
		Long: `Serve a template over HTTP. The page connects to ` + live.WebSocketPath + ` and re-renders
whenever new data is sent as {"data": {...}}.

Send SIGHUP to reload the --data file and push it to every open page.
Prometheus metrics are served on /metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.config.Addr
			}

			collector := metrics.NewCollector()
			tmpl, err := opts.loadTemplate(cmd, args[0], &flags, replate.WithMetrics(collector))
			if err != nil {
				return err
			}
			doc, err := opts.loadData(tmpl, &flags)
			if err != nil {
				return err
			}

			srv, err := live.New(tmpl, live.WithData(doc), live.WithMetrics(collector))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go reloadOnHangup(ctx, srv, opts, tmpl, &flags)
			return serve(ctx, addr, srv)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config or "+config.DefaultAddr+")")
	return cmd
}

// serve runs handler on addr until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving live preview on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// reloadOnHangup reloads the data on SIGHUP and broadcasts it.
func reloadOnHangup(ctx context.Context, srv *live.Server, opts *globalOptions, tmpl *replate.Template, flags *templateFlags) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			doc, err := opts.loadData(tmpl, flags)
			if err != nil {
				log.Printf("Data reload failed: %v", err)
				continue
			}
			sent := srv.Broadcast(ctx, doc)
			log.Printf("Reloaded data for %d connections", sent)
		}
	}
}
