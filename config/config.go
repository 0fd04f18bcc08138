package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables that override file settings.
const (
	EnvDataDir      = "EUSKO_DATA_DIR"
	EnvRPCAddress   = "EUSKO_RPC_ADDRESS"
	EnvGenesisFile  = "EUSKO_GENESIS_FILE"
	EnvEnvironment  = "EUSKO_ENV"
	EnvOTLPEndpoint = "EUSKO_OTLP_ENDPOINT"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	GenesisFile string `toml:"GenesisFile"`
	NetworkName string `toml:"NetworkName"`
	Environment string `toml:"Environment"`

	RPC       RPC       `toml:"rpc"`
	Logging   Logging   `toml:"logging"`
	Telemetry Telemetry `toml:"telemetry"`
}

// Load loads the configuration from the given path. A missing file is
// created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyEnv(os.LookupEnv)
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if cfg.RPC.AllowedOrigins == nil {
		cfg.RPC.AllowedOrigins = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings written for a fresh node.
func Default() *Config {
	return &Config{
		RPCAddress:  ":8545",
		DataDir:     "./eusko-data",
		GenesisFile: "",
		NetworkName: DefaultNetworkName,
		Environment: "dev",
		RPC: RPC{
			AllowedOrigins:      []string{},
			RateLimitPerSecond:  20,
			RateLimitBurst:      40,
			MaxBodyBytes:        1 << 20,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Telemetry: Telemetry{Insecure: true},
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	override := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	override(EnvDataDir, &c.DataDir)
	override(EnvRPCAddress, &c.RPCAddress)
	override(EnvGenesisFile, &c.GenesisFile)
	override(EnvEnvironment, &c.Environment)
	override(EnvOTLPEndpoint, &c.Telemetry.Endpoint)
}

// ChainDir is where the node keeps its LevelDB database.
func (c *Config) ChainDir() string {
	return filepath.Join(c.DataDir, "chain")
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
