package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8545", cfg.RPCAddress)
	require.Equal(t, DefaultNetworkName, cfg.NetworkName)
	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPC, reloaded.RPC)
	require.Equal(t, filepath.Join(cfg.DataDir, "chain"), reloaded.ChainDir())
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
DataDir = "/var/lib/eusko"
GenesisFile = "genesis.json"
Environment = "prod"

[rpc]
AllowedOrigins = ["https://dashboard.eusko.example"]
RateLimitPerSecond = 5.5
RateLimitBurst = 10
MaxBodyBytes = 4096
ReadTimeoutSeconds = 3
WriteTimeoutSeconds = 4

[logging]
Level = "debug"
File = "/var/log/eusko.log"

[telemetry]
Endpoint = "otel:4318"
Traces = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.RPCAddress)
	require.Equal(t, DefaultNetworkName, cfg.NetworkName)
	require.Equal(t, []string{"https://dashboard.eusko.example"}, cfg.RPC.AllowedOrigins)
	require.Equal(t, 5.5, cfg.RPC.RateLimitPerSecond)
	require.EqualValues(t, 4096, cfg.RPC.MaxBodyBytes)
	require.Equal(t, "3s", cfg.RPC.ReadTimeout().String())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 100, cfg.Logging.MaxSizeMB, "unset fields keep their defaults")
	require.True(t, cfg.Telemetry.Traces)
	require.False(t, cfg.Telemetry.Metrics)
}

func TestLoadRejectsUnknownKeysAndBadValues(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("ValidatorKey = \"abc\"\n"), 0o644))
	_, err := Load(unknown)
	require.ErrorContains(t, err, "ValidatorKey")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[logging]\nLevel = \"loud\"\n"), 0o644))
	_, err = Load(bad)
	require.ErrorContains(t, err, "log level")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/override")
	t.Setenv(EnvOTLPEndpoint, "collector:4318")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/override", cfg.DataDir)
	require.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)

	// The file keeps the default; overrides are never persisted.
	cfg2 := Default()
	require.Equal(t, "./eusko-data", cfg2.DataDir)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.RPC.RateLimitBurst = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.DataDir = " "
	require.Error(t, cfg.Validate())
}
