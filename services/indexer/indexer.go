package indexer

import (
	"context"
	"log/slog"
	"time"

	"eusko/observability"
	"eusko/rpc"
)

const (
	defaultPageSize = 500
	defaultInterval = 2 * time.Second
)

// EventSource pages the node's event log; *client.Client satisfies it.
type EventSource interface {
	Events(ctx context.Context, params rpc.EventsParams) (*rpc.EventsResult, error)
}

type Config struct {
	PageSize     uint64
	PollInterval time.Duration
}

// Indexer follows the event log from the stored cursor.
type Indexer struct {
	source EventSource
	store  *Store
	cfg    Config
	logger *slog.Logger
}

func New(source EventSource, store *Store, cfg Config, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultInterval
	}
	return &Indexer{source: source, store: store, cfg: cfg, logger: logger}
}

// Sync drains every page available from the cursor onward and returns the
// number of newly indexed events.
func (ix *Indexer) Sync(ctx context.Context) (int, error) {
	metrics := observability.Indexer()
	cursor, err := ix.store.Cursor(ctx)
	if err != nil {
		metrics.RecordError("cursor")
		return 0, err
	}
	total := 0
	for {
		page, err := ix.source.Events(ctx, rpc.EventsParams{From: cursor, Limit: ix.cfg.PageSize})
		if err != nil {
			metrics.RecordError("fetch")
			return total, err
		}
		if len(page.Events) == 0 {
			return total, nil
		}
		indexed, duplicate, err := ix.store.Ingest(ctx, page.Events, page.Next)
		if err != nil {
			metrics.RecordError("ingest")
			return total, err
		}
		metrics.RecordBatch(indexed, duplicate, page.Next)
		total += indexed
		if duplicate > 0 {
			ix.logger.Debug("skipped already indexed events", "count", duplicate, "cursor", cursor)
		}
		if page.Next <= cursor {
			return total, nil
		}
		cursor = page.Next
	}
}

// Run polls until ctx ends. Fetch failures are logged and retried on the
// next tick.
func (ix *Indexer) Run(ctx context.Context) error {
	ticker := time.NewTicker(ix.cfg.PollInterval)
	defer ticker.Stop()
	for {
		n, err := ix.Sync(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			ix.logger.Warn("event sync failed", "error", err)
		case n > 0:
			ix.logger.Info("indexed events", "count", n)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
