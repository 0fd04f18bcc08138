package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"eusko/config"
	"eusko/core"
	"eusko/core/coretest"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	require.Equal(t, "cli", resolveGenesisPath("  cli ", "cfg"))
	require.Equal(t, "cfg", resolveGenesisPath("", " cfg "))
	require.Empty(t, resolveGenesisPath(" ", ""))
}

func TestLoadGenesis(t *testing.T) {
	spec, err := loadGenesis("")
	require.NoError(t, err)
	require.Nil(t, spec)

	path := filepath.Join(t.TempDir(), "genesis.json")
	raw, err := json.Marshal(coretest.New(t).Spec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	spec, err = loadGenesis(path)
	require.NoError(t, err)
	require.EqualValues(t, coretest.ChainID, spec.ChainID)

	_, err = loadGenesis(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRunRequiresGenesisOnEmptyDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), cfg, "", logger)
	require.ErrorIs(t, err, core.ErrNotInitialized)
	require.ErrorContains(t, err, "--genesis")
}
