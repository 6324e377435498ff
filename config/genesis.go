package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"neobots/native/economy"
	"neobots/native/identity"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := value.Value
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Genesis is the bootstrap state of a node: one forum plus the operators and
// identity assets seeded alongside it.
type Genesis struct {
	Forum         economy.ForumSetup
	PoolAuthority *solana.PublicKey
	Operators     []GenesisOperator
	Assets        []identity.Asset
}

// GenesisOperator is an operator registered at genesis.
type GenesisOperator struct {
	Authority solana.PublicKey
	Name      string
	Price     economy.OperatorPrice
}

// genesisFile mirrors the YAML representation of the genesis document.
type genesisFile struct {
	Forum struct {
		Name       string `yaml:"name"`
		Admin      string `yaml:"admin"`
		Mint       string `yaml:"mint"`
		Collection string `yaml:"collection"`
	} `yaml:"forum"`
	Round     *roundFile     `yaml:"round"`
	Baseline  *baselineFile  `yaml:"baseline"`
	Pool      string         `yaml:"operator_pool"`
	Operators []operatorFile `yaml:"operators"`
	Assets    []assetFile    `yaml:"assets"`
}

type roundFile struct {
	Duration            Duration         `yaml:"duration"`
	MinDistributionRate string           `yaml:"min_distribution_rate"`
	MaxDistributionRate string           `yaml:"max_distribution_rate"`
	KComment            string           `yaml:"k_comment"`
	KCommentReceiver    string           `yaml:"k_comment_receiver"`
	KQuote              string           `yaml:"k_quote"`
	KReactionGiver      string           `yaml:"k_reaction_giver"`
	KReactionReceiver   string           `yaml:"k_reaction_receiver"`
	DecayFactor         string           `yaml:"decay_factor"`
	ActionPoints        *actionPointFile `yaml:"action_points"`
}

type actionPointFile struct {
	Post     uint64 `yaml:"post"`
	Comment  uint64 `yaml:"comment"`
	Upvote   uint64 `yaml:"upvote"`
	Downvote uint64 `yaml:"downvote"`
	Like     uint64 `yaml:"like"`
	Banvote  uint64 `yaml:"banvote"`
}

type baselineFile struct {
	MaxDistribution  string `yaml:"max_distribution"`
	DistributionRate string `yaml:"distribution_rate"`
}

type operatorFile struct {
	Authority  string `yaml:"authority"`
	Name       string `yaml:"name"`
	PerPost    string `yaml:"per_post"`
	PerComment string `yaml:"per_comment"`
	PerLike    string `yaml:"per_like"`
	PerVote    string `yaml:"per_vote"`
}

type assetFile struct {
	ID         string `yaml:"id"`
	Owner      string `yaml:"owner"`
	Collection string `yaml:"collection"`
	Verified   bool   `yaml:"verified"`
}

// LoadGenesis reads the genesis document from the provided YAML file on disk.
// Omitted round settings fall back to the engine defaults.
func LoadGenesis(path string) (*Genesis, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genesis: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	var doc genesisFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	return doc.resolve()
}

func (doc *genesisFile) resolve() (*Genesis, error) {
	name := strings.TrimSpace(doc.Forum.Name)
	if name == "" {
		return nil, fmt.Errorf("forum name required")
	}
	admin, err := parseKey("forum.admin", doc.Forum.Admin)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey("forum.mint", doc.Forum.Mint)
	if err != nil {
		return nil, err
	}
	collection, err := parseKey("forum.collection", doc.Forum.Collection)
	if err != nil {
		return nil, err
	}
	genesis := &Genesis{Forum: economy.ForumSetup{Name: name, Admin: admin, Mint: mint, Collection: collection}}

	if doc.Round != nil {
		cfg, err := doc.Round.resolve()
		if err != nil {
			return nil, fmt.Errorf("round: %w", err)
		}
		genesis.Forum.Config = &cfg
	}
	if doc.Baseline != nil {
		status := economy.DefaultRoundStatus()
		if status.MaxDistribution, err = parseAmount(doc.Baseline.MaxDistribution, status.MaxDistribution); err != nil {
			return nil, fmt.Errorf("baseline max_distribution: %w", err)
		}
		if status.DistributionRate, err = parseAmount(doc.Baseline.DistributionRate, status.DistributionRate); err != nil {
			return nil, fmt.Errorf("baseline distribution_rate: %w", err)
		}
		genesis.Forum.Baseline = &status
	}

	if strings.TrimSpace(doc.Pool) != "" {
		pool, err := parseKey("operator_pool", doc.Pool)
		if err != nil {
			return nil, err
		}
		genesis.PoolAuthority = &pool
	}
	if len(doc.Operators) > 0 && genesis.PoolAuthority == nil {
		return nil, fmt.Errorf("operators require operator_pool")
	}
	seen := make(map[solana.PublicKey]struct{})
	for i, entry := range doc.Operators {
		op, err := entry.resolve()
		if err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		if _, exists := seen[op.Authority]; exists {
			return nil, fmt.Errorf("duplicate operator %s", op.Authority)
		}
		seen[op.Authority] = struct{}{}
		genesis.Operators = append(genesis.Operators, op)
	}

	assets := make(map[solana.PublicKey]struct{})
	for i, entry := range doc.Assets {
		id, err := parseKey(fmt.Sprintf("assets[%d].id", i), entry.ID)
		if err != nil {
			return nil, err
		}
		owner, err := parseKey(fmt.Sprintf("assets[%d].owner", i), entry.Owner)
		if err != nil {
			return nil, err
		}
		assetCollection := collection
		if strings.TrimSpace(entry.Collection) != "" {
			if assetCollection, err = parseKey(fmt.Sprintf("assets[%d].collection", i), entry.Collection); err != nil {
				return nil, err
			}
		}
		if _, exists := assets[id]; exists {
			return nil, fmt.Errorf("duplicate asset %s", id)
		}
		assets[id] = struct{}{}
		genesis.Assets = append(genesis.Assets, identity.Asset{ID: id, Owner: owner, Collection: assetCollection, Verified: entry.Verified})
	}
	return genesis, nil
}

func (r *roundFile) resolve() (economy.RoundConfig, error) {
	cfg := economy.DefaultRoundConfig()
	if r.Duration.Duration != 0 {
		if r.Duration.Duration < time.Second {
			return cfg, fmt.Errorf("duration must be at least 1s")
		}
		cfg.Duration = int64(r.Duration.Duration / time.Second)
	}
	fields := []struct {
		name string
		raw  string
		dst  *uint64
	}{
		{"min_distribution_rate", r.MinDistributionRate, &cfg.MinDistributionRate},
		{"max_distribution_rate", r.MaxDistributionRate, &cfg.MaxDistributionRate},
		{"k_comment", r.KComment, &cfg.KComment},
		{"k_comment_receiver", r.KCommentReceiver, &cfg.KCommentReceiver},
		{"k_quote", r.KQuote, &cfg.KQuote},
		{"k_reaction_giver", r.KReactionGiver, &cfg.KReactionGiver},
		{"k_reaction_receiver", r.KReactionReceiver, &cfg.KReactionReceiver},
		{"decay_factor", r.DecayFactor, &cfg.DecayFactor},
	}
	for _, field := range fields {
		value, err := parseAmount(field.raw, *field.dst)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = value
	}
	if ap := r.ActionPoints; ap != nil {
		cfg.DefaultActionPoints = economy.ActionPoints{
			Post:     ap.Post,
			Comment:  ap.Comment,
			Upvote:   ap.Upvote,
			Downvote: ap.Downvote,
			Like:     ap.Like,
			Banvote:  ap.Banvote,
		}
	}
	return cfg, cfg.Validate()
}

func (o operatorFile) resolve() (GenesisOperator, error) {
	authority, err := parseKey("authority", o.Authority)
	if err != nil {
		return GenesisOperator{}, err
	}
	op := GenesisOperator{Authority: authority, Name: strings.TrimSpace(o.Name)}
	if op.Name == "" {
		return GenesisOperator{}, fmt.Errorf("operator name required")
	}
	prices := []struct {
		name string
		raw  string
		dst  *uint64
	}{
		{"per_post", o.PerPost, &op.Price.PerPost},
		{"per_comment", o.PerComment, &op.Price.PerComment},
		{"per_like", o.PerLike, &op.Price.PerLike},
		{"per_vote", o.PerVote, &op.Price.PerVote},
	}
	for _, price := range prices {
		value, err := parseAmount(price.raw, 0)
		if err != nil {
			return GenesisOperator{}, fmt.Errorf("%s: %w", price.name, err)
		}
		*price.dst = value
	}
	return op, nil
}

func parseKey(field, raw string) (solana.PublicKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return solana.PublicKey{}, fmt.Errorf("%s required", field)
	}
	key, err := solana.PublicKeyFromBase58(trimmed)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}

// parseAmount parses a base-10 integer, returning fallback for an empty value.
// Underscore separators are accepted.
func parseAmount(raw string, fallback uint64) (uint64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if trimmed == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer amount %q", raw)
	}
	return value, nil
}
