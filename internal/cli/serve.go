package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ingest"
	"github.com/roach88/scenekit/internal/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Scene string
	Addr  string
	Inbox string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with HTTP ingress",
		Long: `Load a stored scene into the single-writer engine and accept action and
reconcile batches over HTTP. With --inbox, *.json batch files dropped into
that directory are reconciled as well. Every job is persisted.

Endpoints:
  POST /v1/actions    execute an action batch
  POST /v1/batches    reconcile an external batch
  GET  /v1/scene      current scene (?live=true for live elements only)
  GET  /v1/relations  relationship context (?ids=a,b)
  GET  /healthz       liveness
  GET  /metrics       Prometheus metrics

Examples:
  scenekit serve --db ./scenekit.db
  scenekit serve --scene design --addr :9090 --inbox ./inbox`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scene, "scene", "", "scene name (default from config)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.Inbox, "inbox", "", "directory watched for batch files (default from config)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	name := firstNonEmpty(opts.Scene, cfg.Store.Scene)
	addr := firstNonEmpty(opts.Addr, cfg.Server.Addr)
	inbox := firstNonEmpty(opts.Inbox, cfg.Server.Inbox)
	logger := opts.logger().With(zap.String("scene", name))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	sess, err := openSession(ctx, opts.RootOptions, name, engine.WithObserver(collector))
	if err != nil {
		return err
	}

	server := ingest.NewServer(sess.engine, logger, ingest.WithMetrics(collector.Handler()))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, addr)
	})
	if inbox != "" {
		watcher, err := ingest.NewWatcher(inbox, sess.engine, logger)
		if err != nil {
			_ = sess.Close()
			return WrapExitError(ExitCommandError, "failed to prepare inbox", err)
		}
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving scene %q on %s\n", name, addr)
	if inbox != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for batch files\n", inbox)
	}

	runErr := g.Wait()
	if closeErr := sess.Close(); closeErr != nil {
		logger.Error("error closing session", zap.Error(closeErr))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "server error", runErr)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
