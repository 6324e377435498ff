package config

import (
	"fmt"
	"strings"
)

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log: unknown level %q", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must be non-negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("economy: %w", err)
	}
	return nil
}
