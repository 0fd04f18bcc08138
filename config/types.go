package config

import "time"

// DefaultNetworkName labels a node whose config leaves NetworkName empty.
const DefaultNetworkName = "eusko-local"

// RPC tunes the JSON-RPC listener.
type RPC struct {
	AllowedOrigins      []string `toml:"AllowedOrigins"`
	RateLimitPerSecond  float64  `toml:"RateLimitPerSecond"`
	RateLimitBurst      int      `toml:"RateLimitBurst"`
	MaxBodyBytes        int64    `toml:"MaxBodyBytes"`
	ReadTimeoutSeconds  int      `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSeconds int      `toml:"WriteTimeoutSeconds"`
}

func (r RPC) ReadTimeout() time.Duration  { return time.Duration(r.ReadTimeoutSeconds) * time.Second }
func (r RPC) WriteTimeout() time.Duration { return time.Duration(r.WriteTimeoutSeconds) * time.Second }

// Logging controls the slog handler. An empty File logs to stdout only.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Telemetry configures the OTLP exporters. Both signals are off by default.
type Telemetry struct {
	Endpoint string            `toml:"Endpoint"`
	Insecure bool              `toml:"Insecure"`
	Metrics  bool              `toml:"Metrics"`
	Traces   bool              `toml:"Traces"`
	Headers  map[string]string `toml:"Headers"`
}
