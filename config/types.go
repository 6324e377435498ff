package config

// Log configures the process logger. An empty File logs to stdout only.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Telemetry configures trace export. Tracing is disabled without an endpoint.
type Telemetry struct {
	Endpoint    string            `toml:"Endpoint"`
	Insecure    bool              `toml:"Insecure"`
	Headers     map[string]string `toml:"Headers"`
	SampleRatio float64           `toml:"SampleRatio"`
}

// Economy selects the behaviour of the open design points of the engine.
type Economy struct {
	ClaimMode     string `toml:"ClaimMode"`
	DepositMode   string `toml:"DepositMode"`
	RateMode      string `toml:"RateMode"`
	RepeatDecay   bool   `toml:"RepeatDecay"`
	InflationRate uint64 `toml:"InflationRate"` // parts of economy.RatioScale
}
