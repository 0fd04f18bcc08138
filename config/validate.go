package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate rejects settings the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if c.RPC.RateLimitPerSecond <= 0 || c.RPC.RateLimitBurst <= 0 {
		return fmt.Errorf("config: rpc rate limit must be positive")
	}
	if c.RPC.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: rpc.MaxBodyBytes must be positive")
	}
	if c.RPC.ReadTimeoutSeconds < 0 || c.RPC.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("config: rpc timeouts must not be negative")
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level != "" && !validLogLevels[level] {
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}
