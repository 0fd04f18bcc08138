package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"eusko/crypto"
	"eusko/services/volunteering"
	"eusko/services/volunteering/config"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"id": 1, "title": "Beach clean-up", "organism": "0x0000000000000000000000000000000000000001", "reward": 10, "status": "new"},
  {"id": 2, "title": "Food bank", "organism": "0x0000000000000000000000000000000000000002", "reward": 5, "status": "new"}
]`), 0o600))
	return path
}

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()
	seed := writeSeed(t)
	for _, backend := range []string{config.BackendJSON, config.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Config{Store: config.StoreConfig{
				Backend: backend,
				Path:    filepath.Join(t.TempDir(), "catalogue"),
				Seed:    seed,
			}}
			store, err := openStore(ctx, cfg, quietLogger())
			require.NoError(t, err)
			ops, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, ops, 2)
			require.Equal(t, volunteering.StatusNew, ops[0].Status)
			require.NoError(t, store.Close())
		})
	}
}

func TestOpenStoreRejectsBrokenSeed(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	cfg := config.Config{Store: config.StoreConfig{Backend: config.BackendJSON, Path: filepath.Join(t.TempDir(), "ops.json"), Seed: bad}}
	_, err := openStore(context.Background(), cfg, quietLogger())
	require.ErrorContains(t, err, "seed from")
}

func TestBuildLedger(t *testing.T) {
	noPass := func() (string, error) { return "", errors.New("no passphrase") }

	ledger, err := buildLedger(config.Config{}, noPass)
	require.NoError(t, err)
	require.Nil(t, ledger)

	ledger, err = buildLedger(config.Config{Node: config.NodeConfig{RPCURL: "http://127.0.0.1:1"}}, noPass)
	require.NoError(t, err)
	require.True(t, ledger.Operator().IsZero())

	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	keystore := filepath.Join(t.TempDir(), "operator.json")
	require.NoError(t, crypto.SaveToKeystore(keystore, key, "s3cret"))
	cfg := config.Config{Node: config.NodeConfig{RPCURL: "http://127.0.0.1:1", OperatorKeystore: keystore}}

	_, err = buildLedger(cfg, noPass)
	require.ErrorContains(t, err, "no passphrase")

	_, err = buildLedger(cfg, func() (string, error) { return "wrong", nil })
	require.ErrorContains(t, err, "load operator keystore")

	ledger, err = buildLedger(cfg, func() (string, error) { return "s3cret", nil })
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address(), ledger.Operator())
}

func TestServerConfigMapping(t *testing.T) {
	cfg := config.Config{
		Auth:      config.AuthConfig{Enabled: true, HMACSecret: "k", Issuer: "eusko", OperatorScope: "ops"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"https://app.eusko.example"}},
		RateLimit: config.RateLimitConfig{PerSecond: 3, Burst: 6},
	}
	sc := serverConfig(cfg, true)
	require.True(t, sc.Auth.Enabled)
	require.Equal(t, "eusko", sc.Auth.Issuer)
	require.Equal(t, "ops", sc.OperatorScope)
	require.Equal(t, []string{"https://app.eusko.example"}, sc.CORS.AllowedOrigins)
	require.Equal(t, 3.0, sc.RateLimit.RatePerSecond)
	require.Equal(t, 6, sc.RateLimit.Burst)
	require.True(t, sc.Telemetry)
}
