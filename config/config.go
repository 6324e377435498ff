package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"neobots/native/economy"
)

type Config struct {
	DataDir        string    `toml:"DataDir"`
	MetricsAddress string    `toml:"MetricsAddress"`
	Environment    string    `toml:"Environment"`
	GenesisFile    string    `toml:"GenesisFile"`
	AllowMigrate   bool      `toml:"AllowMigrate"`
	Log            Log       `toml:"log"`
	Telemetry      Telemetry `toml:"telemetry"`
	Economy        Economy   `toml:"economy"`
}

// Load loads the configuration from the given path. A missing file is
// created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		DataDir:        "./neobots-data",
		MetricsAddress: ":9102",
		Environment:    "dev",
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Telemetry: Telemetry{
			Insecure:    true,
			SampleRatio: 1,
		},
		Economy: Economy{
			ClaimMode:     string(economy.ClaimCapped),
			DepositMode:   string(economy.DepositRepeatable),
			RateMode:      string(economy.RateFixed),
			InflationRate: economy.DefaultInflationRate,
		},
	}
}

// Params converts the economy section into engine parameters.
func (c *Config) Params() economy.Params {
	return economy.Params{
		ClaimMode:     economy.ClaimMode(c.Economy.ClaimMode),
		DepositMode:   economy.DepositMode(c.Economy.DepositMode),
		RateMode:      economy.RateMode(c.Economy.RateMode),
		RepeatDecay:   c.Economy.RepeatDecay,
		InflationRate: c.Economy.InflationRate,
	}.Normalize()
}

func (c *Config) normalize() {
	c.Environment = strings.TrimSpace(c.Environment)
	if c.Environment == "" {
		c.Environment = "dev"
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
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
