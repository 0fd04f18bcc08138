package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eusko/observability/logging"
	"eusko/rpc/client"
	"eusko/services/indexer"
)

const serviceName = "eusko-indexer"

type options struct {
	DSN      string
	RPCURL   string
	Interval time.Duration
	PageSize uint64
	Once     bool
	Export   string
}

func main() {
	var opts options
	flag.StringVar(&opts.DSN, "dsn", envOr("EUSKO_INDEXER_DSN", "./eusko-index.db"), "SQLite file or postgres:// DSN")
	flag.StringVar(&opts.RPCURL, "rpc", envOr("EUSKO_RPC_URL", "http://127.0.0.1:8545"), "node JSON-RPC endpoint")
	flag.DurationVar(&opts.Interval, "interval", 2*time.Second, "poll interval")
	flag.Uint64Var(&opts.PageSize, "page-size", 500, "events fetched per request")
	flag.BoolVar(&opts.Once, "once", false, "sync once and exit")
	flag.StringVar(&opts.Export, "export", "", "write every indexed event to this Parquet file and exit")
	flag.Parse()

	logger := logging.Setup(serviceName, strings.TrimSpace(os.Getenv("EUSKO_ENV")))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("indexer stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	store, err := indexer.Open(opts.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.Export != "" {
		n, err := store.Export(ctx, opts.Export)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logger.Info("exported events", slog.Int("count", n), slog.String("path", opts.Export))
		return nil
	}

	ix := indexer.New(client.New(opts.RPCURL), store, indexer.Config{
		PageSize:     opts.PageSize,
		PollInterval: opts.Interval,
	}, logger)
	if opts.Once {
		n, err := ix.Sync(ctx)
		if err != nil {
			return err
		}
		logger.Info("sync complete", slog.Int("indexed", n))
		return nil
	}
	logger.Info("following event log", slog.String("rpc", opts.RPCURL), slog.Duration("interval", opts.Interval))
	return ix.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
