// Package config loads the volunteering service settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendJSON = "json"
	BackendBolt = "bolt"

	defaultListen = ":8090"
	defaultRPCURL = "http://127.0.0.1:8545"

	// EnvHMACSecret overrides auth.hmac_secret.
	EnvHMACSecret = "EUSKO_VOLUNTEERING_JWT_SECRET"
	// EnvOperatorPassphrase unlocks the operator keystore.
	EnvOperatorPassphrase = "EUSKO_OPERATOR_PASSPHRASE"
)

// Config captures the runtime settings for the volunteering daemon.
type Config struct {
	ListenAddress string          `yaml:"listen"`
	Environment   string          `yaml:"environment"`
	Store         StoreConfig     `yaml:"store"`
	Node          NodeConfig      `yaml:"node"`
	Auth          AuthConfig      `yaml:"auth"`
	CORS          CORSConfig      `yaml:"cors"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Logging       LoggingConfig   `yaml:"logging"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects the catalogue backend. Seed, when set, names a JSON
// catalogue imported into an empty store on start.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Seed    string `yaml:"seed"`
}

// NodeConfig points the bridge at a node and the operator key that signs
// registrations. Without a keystore the registration endpoint is disabled.
type NodeConfig struct {
	RPCURL           string `yaml:"rpc_url"`
	OperatorKeystore string `yaml:"operator_keystore"`
}

type AuthConfig struct {
	Enabled       bool          `yaml:"enabled"`
	HMACSecret    string        `yaml:"hmac_secret"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	ScopeClaim    string        `yaml:"scope_claim"`
	OperatorScope string        `yaml:"operator_scope"`
	ClockSkew     time.Duration `yaml:"clock_skew"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: defaultListen,
		Store:         StoreConfig{Backend: BackendJSON, Path: "./data/volunteer_opportunities.json"},
		Node:          NodeConfig{RPCURL: defaultRPCURL},
		RateLimit:     RateLimitConfig{PerSecond: 10, Burst: 20},
		Logging:       LoggingConfig{Level: "info"},
	}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) {
	if secret, ok := lookup(EnvHMACSecret); ok && strings.TrimSpace(secret) != "" {
		cfg.Auth.HMACSecret = secret
	}
}

func (cfg *Config) normalize() {
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListen
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendJSON
	}
	cfg.Store.Path = strings.TrimSpace(cfg.Store.Path)
	cfg.Store.Seed = strings.TrimSpace(cfg.Store.Seed)
	cfg.Node.RPCURL = strings.TrimRight(strings.TrimSpace(cfg.Node.RPCURL), "/")
	cfg.Node.OperatorKeystore = strings.TrimSpace(cfg.Node.OperatorKeystore)
	cfg.Auth.OperatorScope = strings.TrimSpace(cfg.Auth.OperatorScope)

	origins := make([]string, 0, len(cfg.CORS.AllowedOrigins))
	for _, origin := range cfg.CORS.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.CORS.AllowedOrigins = origins
}

func (cfg *Config) validate() error {
	switch cfg.Store.Backend {
	case BackendJSON, BackendBolt:
	default:
		return fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store: path is required")
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth: hmac_secret (or %s) is required when auth is enabled", EnvHMACSecret)
	}
	if cfg.Auth.ClockSkew < 0 {
		return fmt.Errorf("auth: clock_skew must not be negative")
	}
	if cfg.RateLimit.PerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if cfg.RateLimit.PerSecond > 0 && cfg.RateLimit.Burst == 0 {
		return fmt.Errorf("rate_limit: burst is required when per_second is set")
	}
	if cfg.Node.OperatorKeystore != "" && cfg.Node.RPCURL == "" {
		return fmt.Errorf("node: rpc_url is required with an operator keystore")
	}
	return nil
}
