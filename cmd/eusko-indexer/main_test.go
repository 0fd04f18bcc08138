package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"eusko/core"
	"eusko/core/coretest"
	"eusko/core/types"
	"eusko/native/refasset"
	"eusko/rpc"
	"eusko/services/indexer"
)

func TestRunOnceThenExport(t *testing.T) {
	fixture := coretest.New(t)
	node := httptest.NewServer(rpc.NewServer(fixture.Chain, rpc.ServerConfig{Network: "test"}, nil).Handler())
	defer node.Close()

	data, err := refasset.Pack(refasset.MethodApprove, core.LedgerAddress, uint256.NewInt(7))
	require.NoError(t, err)
	tx := &types.Transaction{ChainID: coretest.ChainID, Nonce: 0, To: core.RefAssetAddress, Data: data}
	require.NoError(t, tx.Sign(fixture.Alice.Key.PrivateKey))
	receipt, err := fixture.Chain.ApplyTransaction(tx)
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dsn := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	require.NoError(t, run(ctx, options{DSN: dsn, RPCURL: node.URL, Once: true}, logger))

	store, err := indexer.Open(dsn)
	require.NoError(t, err)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.NoError(t, store.Close())

	out := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, run(ctx, options{DSN: dsn, Export: out}, logger))
	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestRunFollowStopsWithContext(t *testing.T) {
	fixture := coretest.New(t)
	node := httptest.NewServer(rpc.NewServer(fixture.Chain, rpc.ServerConfig{Network: "test"}, nil).Handler())
	defer node.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, run(ctx, options{DSN: filepath.Join(t.TempDir(), "index.db"), RPCURL: node.URL}, logger))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("EUSKO_TEST_VALUE", "  set ")
	require.Equal(t, "set", envOr("EUSKO_TEST_VALUE", "fallback"))
	require.Equal(t, "fallback", envOr("EUSKO_TEST_UNSET_VALUE", "fallback"))
}
