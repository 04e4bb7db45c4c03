package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/cookies"
	"github.com/grabtune/grabtune/internal/queue"
	"github.com/grabtune/grabtune/internal/runner"
	"github.com/grabtune/grabtune/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the download queue and its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	mgr := config.NewManager(configPath)
	if err := mgr.Load(); err != nil {
		return err
	}
	cfg := mgr.Snapshot()

	bin, err := runner.Locate()
	if err != nil {
		return err
	}
	log.Info().Str("binary", bin).Msg("downloader located")

	q := queue.New(runner.New(bin), mgr)
	defer q.Close()

	// Config edits (API or file watch) may change the concurrent limit.
	mgr.OnChange(func(config.Config) { q.Reschedule() })

	ck := cookies.NewManager(filepath.Join(filepath.Dir(mgr.Path()), "cookies"))

	srv := server.New(cfg.Server.Addr, q, mgr, ck, func(ctx context.Context) (string, error) {
		return runner.Version(ctx, bin)
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchStop := make(chan struct{})
	defer close(watchStop)
	go func() {
		if err := mgr.Watch(watchStop); err != nil {
			log.Warn().Err(err).Msg("config watch stopped")
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown incomplete")
	}

	q.Close()
	log.Info().Msg("stopped")
	return nil
}
