package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"eusko/cmd/internal/passphrase"
	"eusko/crypto"
	"eusko/gateway/middleware"
	"eusko/observability/logging"
	telemetry "eusko/observability/otel"
	"eusko/rpc/client"
	"eusko/services/volunteering"
	"eusko/services/volunteering/config"
)

const serviceName = "volunteerd"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/volunteering/config.yaml", "path to volunteerd config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.SetupWithOptions(serviceName, cfg.Environment, logging.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tcfg := telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Metrics:     cfg.Telemetry.Endpoint != "",
		Traces:      cfg.Telemetry.Endpoint != "",
	}
	shutdownTelemetry, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ledger, err := buildLedger(cfg, passphrase.NewSource(config.EnvOperatorPassphrase, "operator").Get)
	if err != nil {
		log.Fatalf("configure ledger bridge: %v", err)
	}
	if ledger == nil {
		logger.Warn("no node configured; merchant checks and on-chain registration are disabled")
	} else {
		logger.Info("ledger bridge ready", slog.String("rpc", cfg.Node.RPCURL), slog.String("operator", ledger.Operator().String()))
	}

	var bridge volunteering.Ledger
	if ledger != nil {
		bridge = ledger
	}
	server := volunteering.NewServer(store, bridge, serverConfig(cfg, tcfg.Enabled()), logger)
	if err := server.Serve(ctx, cfg.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("volunteerd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// openStore opens the configured backend and imports the seed catalogue
// into an empty store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (volunteering.Store, error) {
	var (
		store volunteering.Store
		err   error
	)
	switch cfg.Store.Backend {
	case config.BackendBolt:
		store, err = volunteering.NewBoltStore(cfg.Store.Path, nil)
	default:
		store, err = volunteering.NewFileStore(cfg.Store.Path)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Store.Seed != "" {
		n, err := volunteering.Seed(ctx, store, cfg.Store.Seed)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed from %s: %w", cfg.Store.Seed, err)
		}
		if n > 0 {
			logger.Info("seeded opportunity catalogue", slog.Int("count", n), slog.String("from", cfg.Store.Seed))
		}
	}
	return store, nil
}

// buildLedger returns nil when no node is configured. Without an operator
// keystore the bridge still answers merchant lookups.
func buildLedger(cfg config.Config, pass func() (string, error)) (*volunteering.ChainLedger, error) {
	if cfg.Node.RPCURL == "" {
		return nil, nil
	}
	var operator *crypto.PrivateKey
	if cfg.Node.OperatorKeystore != "" {
		secret, err := pass()
		if err != nil {
			return nil, err
		}
		operator, err = crypto.LoadFromKeystore(cfg.Node.OperatorKeystore, secret)
		if err != nil {
			return nil, fmt.Errorf("load operator keystore: %w", err)
		}
	}
	return volunteering.NewChainLedger(client.New(cfg.Node.RPCURL), operator), nil
}

func serverConfig(cfg config.Config, telemetryOn bool) volunteering.ServerConfig {
	return volunteering.ServerConfig{
		Auth: middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ScopeClaim: cfg.Auth.ScopeClaim,
			ClockSkew:  cfg.Auth.ClockSkew,
		},
		CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORS.AllowedOrigins},
		RateLimit:     middleware.RateLimit{RatePerSecond: cfg.RateLimit.PerSecond, Burst: cfg.RateLimit.Burst},
		OperatorScope: cfg.Auth.OperatorScope,
		Telemetry:     telemetryOn,
	}
}
