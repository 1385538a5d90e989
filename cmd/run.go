package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/app"
	"github.com/cinefeed/crawler/internal/config"
	"github.com/cinefeed/crawler/internal/logging"
)

// newRunCmd creates the 'run' subcommand executing one batch run.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one batch run and exits",
		Long: `Renders the listing page, enriches the movies, updates the durable
state file and writes all feed files, then exits. Partial failures such as
an unreachable channel degrade the output instead of failing the run; a
listing page that never renders fails it.`,
		RunE: runBatch,
	}
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := application.Close(closeCtx); cerr != nil {
			logger.Warn("shutdown incomplete", zap.Error(cerr))
		}
	}()

	if err := application.RunOnce(ctx); err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}
