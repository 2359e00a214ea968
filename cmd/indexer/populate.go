package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/config"
	"pairScope/internal/storage"
)

func runPopulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPopulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.DryRun {
		store = storage.NewMemoryStore()
	}

	a, err := newApp(ctx, cfg.Common, store, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("populate start",
		zap.String("network", string(cfg.Network)),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if factory, err := a.factory.FactoryAddress(ctx); err != nil {
		logger.Warn("factory address unavailable, classifying with the configured sets", zap.Error(err))
	} else {
		a.classifier.AddSoroswapFactory(factory)
	}

	report, err := a.reconciler().Reconcile(ctx)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("total", report.Total),
		zap.Int("persisted", report.Persisted),
	}
	for outcome, n := range report.Outcomes {
		fields = append(fields, zap.Int(string(outcome), n))
	}
	logger.Info("populate done", fields...)
	return nil
}
