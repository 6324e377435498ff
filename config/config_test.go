package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"neobots/native/economy"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.FileExists(t, path)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.DataDir, again.DataDir)
	require.Equal(t, cfg.Economy, again.Economy)
	require.Equal(t, economy.DefaultParams(), again.Params())
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `DataDir = "/var/lib/neobots"
MetricsAddress = "127.0.0.1:9200"
Environment = "prod"
GenesisFile = "genesis.yaml"

[log]
Level = "DEBUG"
File = "/var/log/neobots.log"
MaxSizeMB = 10
Compress = true

[telemetry]
Endpoint = "otel-collector:4318"
SampleRatio = 0.25
[telemetry.Headers]
authorization = "Bearer abc"

[economy]
ClaimMode = "strict"
DepositMode = "once"
RateMode = "adaptive"
RepeatDecay = true
InflationRate = 50000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/neobots", cfg.DataDir)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 10, cfg.Log.MaxSizeMB)
	require.Equal(t, 5, cfg.Log.MaxBackups)
	require.Equal(t, "Bearer abc", cfg.Telemetry.Headers["authorization"])
	require.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)

	params := cfg.Params()
	require.Equal(t, economy.ClaimStrict, params.ClaimMode)
	require.Equal(t, economy.DepositOnce, params.DepositMode)
	require.Equal(t, economy.RateAdaptive, params.RateMode)
	require.True(t, params.RepeatDecay)
	require.Equal(t, uint64(50000), params.InflationRate)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "Bogus = 1\n",
		"claim mode":      "[economy]\nClaimMode = \"sometimes\"\n",
		"inflation":       "[economy]\nInflationRate = 2000000\n",
		"log level":       "[log]\nLevel = \"loud\"\n",
		"sample ratio":    "[telemetry]\nSampleRatio = 1.5\n",
		"empty data dir":  "DataDir = \" \"\n",
		"negative backup": "[log]\nMaxBackups = -1\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func writeGenesis(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadGenesis(t *testing.T) {
	admin := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	collection := solana.NewWallet().PublicKey()
	operator := solana.NewWallet().PublicKey()
	asset := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	path := writeGenesis(t, `forum:
  name: neobots
  admin: `+admin.String()+`
  mint: `+mint.String()+`
  collection: `+collection.String()+`
round:
  duration: 12h
  k_comment: "200_000"
  action_points:
    post: 1
    comment: 5
baseline:
  max_distribution: "1000000000000"
operator_pool: `+admin.String()+`
operators:
  - authority: `+operator.String()+`
    name: helper
    per_comment: "50"
    per_like: "5"
assets:
  - id: `+asset.String()+`
    owner: `+owner.String()+`
    verified: true
`)

	genesis, err := LoadGenesis(path)
	require.NoError(t, err)
	require.Equal(t, "neobots", genesis.Forum.Name)
	require.Equal(t, admin, genesis.Forum.Admin)
	require.Equal(t, mint, genesis.Forum.Mint)

	cfg := genesis.Forum.Config
	require.NotNil(t, cfg)
	require.Equal(t, int64((12 * time.Hour).Seconds()), cfg.Duration)
	require.Equal(t, uint64(200_000), cfg.KComment)
	require.Equal(t, economy.DefaultRoundConfig().KReactionReceiver, cfg.KReactionReceiver)
	require.Equal(t, uint64(5), cfg.DefaultActionPoints.Comment)
	require.Zero(t, cfg.DefaultActionPoints.Like)

	require.Equal(t, uint64(1_000_000_000_000), genesis.Forum.Baseline.MaxDistribution)
	require.Equal(t, economy.RatioScale, genesis.Forum.Baseline.DistributionRate)

	require.Equal(t, admin, *genesis.PoolAuthority)
	require.Len(t, genesis.Operators, 1)
	require.Equal(t, economy.OperatorPrice{PerComment: 50, PerLike: 5}, genesis.Operators[0].Price)

	require.Len(t, genesis.Assets, 1)
	require.Equal(t, collection, genesis.Assets[0].Collection)
	require.True(t, genesis.Assets[0].Verified)
}

func TestLoadGenesisRejectsInvalid(t *testing.T) {
	key := solana.NewWallet().PublicKey().String()
	forum := "forum:\n  name: neobots\n  admin: " + key + "\n  mint: " + key + "\n  collection: " + key + "\n"
	cases := map[string]string{
		"missing name":       "forum:\n  admin: " + key + "\n",
		"bad key":            "forum:\n  name: x\n  admin: nope\n  mint: " + key + "\n  collection: " + key + "\n",
		"unknown field":      forum + "extra: 1\n",
		"bad amount":         forum + "round:\n  k_comment: \"-1\"\n",
		"bad duration":       forum + "round:\n  duration: forever\n",
		"inverted rates":     forum + "round:\n  min_distribution_rate: \"10\"\n  max_distribution_rate: \"1\"\n",
		"operator no pool":   forum + "operators:\n  - authority: " + key + "\n    name: a\n",
		"duplicate operator": forum + "operator_pool: " + key + "\noperators:\n  - authority: " + key + "\n    name: a\n  - authority: " + key + "\n    name: b\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadGenesis(writeGenesis(t, contents))
			require.Error(t, err)
		})
	}
}
