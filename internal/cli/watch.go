package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goXRPLtrade/internal/audit"
	"github.com/LeJamon/goXRPLtrade/internal/client"
	"github.com/LeJamon/goXRPLtrade/internal/journal"
	"github.com/LeJamon/goXRPLtrade/internal/reconcile"
	"github.com/LeJamon/goXRPLtrade/internal/wallet"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the transaction stream and reconcile tracked offers live",
	Long: `Connect to the configured server, subscribe to the configured accounts,
and fold every validated transaction into per-offer settlement diffs.
Snapshots are journaled and exported on a fixed interval when those sinks
are enabled. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "flush-interval", 30*time.Second,
		"how often snapshots are journaled and exported")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	accounts, err := wallet.NewFileFactory(cfg.Accounts.Dir).LoadAll(cfg.Accounts.Names)
	if err != nil {
		return err
	}
	addresses := wallet.Addresses(accounts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Server.ConnectTimeout)
	defer cancel()
	c, err := client.Dial(dialCtx, cfg.Server.URL, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Subscribe(ctx, addresses); err != nil {
		return err
	}
	logger.Info("subscribed",
		zap.String("server", cfg.Server.URL),
		zap.Strings("accounts", addresses))

	processor := reconcile.NewProcessor(addresses, logger)

	var store *journal.Store
	if cfg.Journal.Enabled {
		if store, err = journal.Open(cfg.Journal.Dir); err != nil {
			return err
		}
		defer store.Close()
	}

	var exporter *audit.Exporter
	if cfg.Audit.Enabled {
		exporter, err = audit.NewExporter(ctx, audit.Config{
			Host:     cfg.Audit.Host,
			Port:     cfg.Audit.Port,
			Database: cfg.Audit.Database,
			User:     cfg.Audit.User,
			Password: cfg.Audit.Password,
			SSLMode:  cfg.Audit.SSLMode,
		})
		if err != nil {
			return err
		}
		defer exporter.Close()
		if err := exporter.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-c.Events():
				if !ok {
					return client.ErrClosed
				}
				if !ev.Validated {
					continue
				}
				processor.ProcessTransactionStream(ev)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				flush(context.Background(), processor, store, exporter, logger)
				return ctx.Err()
			case <-ticker.C:
				flush(ctx, processor, store, exporter, logger)
			}
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func flush(ctx context.Context, processor *reconcile.Processor, store *journal.Store, exporter *audit.Exporter, logger *zap.Logger) {
	snaps := processor.Snapshots()
	if len(snaps) == 0 {
		return
	}
	if store != nil {
		if err := store.SaveAll(snaps); err != nil {
			logger.Error("journal flush failed", zap.Error(err))
		}
	}
	if exporter != nil {
		if err := exporter.RecordAll(ctx, snaps); err != nil {
			logger.Error("audit export failed", zap.Error(err))
		}
	}
	logger.Debug("snapshots flushed", zap.Int("count", len(snaps)))
}
