package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"eusko/config"
	"eusko/core"
	"eusko/core/genesis"
	"eusko/observability/logging"
	telemetry "eusko/observability/otel"
	"eusko/rpc"
	"eusko/storage"
)

const serviceName = "eusko"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides EUSKO_GENESIS_FILE and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.SetupWithOptions(serviceName, cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *genesisFlag, logger); err != nil {
		logger.Error("node stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, genesisFlag string, logger *slog.Logger) error {
	tcfg := telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Network:     cfg.NetworkName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	}
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	spec, err := loadGenesis(resolveGenesisPath(genesisFlag, cfg.GenesisFile))
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.ChainDir())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	chain, err := core.NewChain(db, spec, core.WithLogger(logger))
	if errors.Is(err, core.ErrNotInitialized) {
		return fmt.Errorf("%w: supply a genesis file via --genesis, %s or config GenesisFile", err, config.EnvGenesisFile)
	}
	if err != nil {
		return fmt.Errorf("open chain: %w", err)
	}
	height, err := chain.Height()
	if err != nil {
		return err
	}
	logger.Info("chain ready",
		slog.Uint64("chainId", chain.ChainID()),
		slog.Uint64("height", height),
		slog.String("genesis", chain.GenesisHash().Hex()),
		slog.String("dataDir", cfg.DataDir))

	server := rpc.NewServer(chain, rpc.ServerConfig{
		Network:         cfg.NetworkName,
		AllowedOrigins:  cfg.RPC.AllowedOrigins,
		RatePerSecond:   cfg.RPC.RateLimitPerSecond,
		RateBurst:       cfg.RPC.RateLimitBurst,
		MaxRequestBytes: cfg.RPC.MaxBodyBytes,
		ReadTimeout:     cfg.RPC.ReadTimeout(),
		WriteTimeout:    cfg.RPC.WriteTimeout(),
		Telemetry:       tcfg.Enabled(),
	}, logger)
	if err := server.Serve(ctx, cfg.RPCAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rpc server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// resolveGenesisPath prefers the flag over the configured file. The config
// value already carries the EUSKO_GENESIS_FILE override.
func resolveGenesisPath(cliPath, cfgPath string) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(cfgPath)
}

// loadGenesis returns nil for an empty path; the chain then has to be
// initialised already.
func loadGenesis(path string) (*genesis.GenesisSpec, error) {
	if path == "" {
		return nil, nil
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		return nil, fmt.Errorf("load genesis %s: %w", path, err)
	}
	return spec, nil
}
