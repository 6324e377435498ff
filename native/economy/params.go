package economy

import (
	"fmt"
	"strings"
)

const (
	// RatioScale is the fixed-point scale of distribution rates and the decay
	// factor: RatioScale represents 1x.
	RatioScale uint64 = 1_000_000
	// TokenUnit is one whole reward token (9 decimals).
	TokenUnit uint64 = 1_000_000_000
	// DefaultInflationRate shrinks the adaptive emission cap by 10% per round.
	DefaultInflationRate uint64 = RatioScale / 10

	// DefaultRoundDuration is one day.
	DefaultRoundDuration int64 = 24 * 60 * 60

	MaxInteractionMetrics = 30
	MaxPostContentLength  = 100
	MaxPostTagLength      = 32
	MaxForumNameLength    = 32
	MaxOperatorNameLength = 32
)

// ClaimMode selects how a claim interacts with the per-round emission cap.
type ClaimMode string

const (
	// ClaimCapped pays min(claimable, remaining cap) and keeps the remainder.
	ClaimCapped ClaimMode = "capped"
	// ClaimStrict pays the whole claimable balance or nothing.
	ClaimStrict ClaimMode = "strict"
	// ClaimUncapped ignores the cap. Emission is still tracked.
	ClaimUncapped ClaimMode = "uncapped"
)

// DepositMode selects whether a session can be topped up.
type DepositMode string

const (
	DepositRepeatable DepositMode = "repeatable"
	// DepositOnce only accepts a deposit into a session that was never funded.
	DepositOnce DepositMode = "once"
)

// RateMode selects how a round advance derives the next emission status.
type RateMode string

const (
	// RateFixed reinstalls the forum baseline every round.
	RateFixed RateMode = "fixed"
	// RateAdaptive scales the rate by the previous round's utilisation.
	RateAdaptive RateMode = "adaptive"
)

// Params are the engine-wide switches.
type Params struct {
	ClaimMode     ClaimMode
	DepositMode   DepositMode
	RateMode      RateMode
	RepeatDecay   bool
	InflationRate uint64
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		ClaimMode:     ClaimCapped,
		DepositMode:   DepositRepeatable,
		RateMode:      RateFixed,
		InflationRate: DefaultInflationRate,
	}
}

// Normalize fills empty fields with defaults and lowercases the modes.
func (p Params) Normalize() Params {
	def := DefaultParams()
	p.ClaimMode = ClaimMode(strings.ToLower(strings.TrimSpace(string(p.ClaimMode))))
	p.DepositMode = DepositMode(strings.ToLower(strings.TrimSpace(string(p.DepositMode))))
	p.RateMode = RateMode(strings.ToLower(strings.TrimSpace(string(p.RateMode))))
	if p.ClaimMode == "" {
		p.ClaimMode = def.ClaimMode
	}
	if p.DepositMode == "" {
		p.DepositMode = def.DepositMode
	}
	if p.RateMode == "" {
		p.RateMode = def.RateMode
	}
	return p
}

// Validate rejects unknown modes and an inflation rate above 100%.
func (p Params) Validate() error {
	switch p.ClaimMode {
	case ClaimCapped, ClaimStrict, ClaimUncapped:
	default:
		return fmt.Errorf("%w: unknown claim mode %q", ErrInvalidInput, p.ClaimMode)
	}
	switch p.DepositMode {
	case DepositRepeatable, DepositOnce:
	default:
		return fmt.Errorf("%w: unknown deposit mode %q", ErrInvalidInput, p.DepositMode)
	}
	switch p.RateMode {
	case RateFixed, RateAdaptive:
	default:
		return fmt.Errorf("%w: unknown rate mode %q", ErrInvalidInput, p.RateMode)
	}
	if p.InflationRate > RatioScale {
		return fmt.Errorf("%w: inflation rate %d exceeds %d", ErrInvalidInput, p.InflationRate, RatioScale)
	}
	return nil
}

// DefaultActionPoints is the per-round budget a new forum hands out.
func DefaultActionPoints() ActionPoints {
	return ActionPoints{Post: 2, Comment: 10, Upvote: 3, Downvote: 2, Like: 3, Banvote: 2}
}

// DefaultRoundConfig returns the baseline round rules.
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		Duration:            DefaultRoundDuration,
		MinDistributionRate: RatioScale / 10,
		MaxDistributionRate: RatioScale * 10,
		KComment:            TokenUnit / 10,
		KCommentReceiver:    TokenUnit / 10,
		KQuote:              TokenUnit / 2,
		KReactionGiver:      TokenUnit / 10,
		KReactionReceiver:   TokenUnit / 2,
		DecayFactor:         RatioScale / 2,
		DefaultActionPoints: DefaultActionPoints(),
	}
}

// DefaultRoundStatus returns the baseline emission status: 100 tokens per
// round at a 1x rate.
func DefaultRoundStatus() RoundStatus {
	return RoundStatus{
		MaxDistribution:  100 * TokenUnit,
		DistributionRate: RatioScale,
	}
}

// Validate checks the internal consistency of a round config.
func (c RoundConfig) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("%w: negative round duration", ErrInvalidInput)
	}
	if c.MinDistributionRate > c.MaxDistributionRate {
		return fmt.Errorf("%w: min distribution rate %d above max %d", ErrInvalidInput, c.MinDistributionRate, c.MaxDistributionRate)
	}
	if c.DecayFactor > RatioScale {
		return fmt.Errorf("%w: decay factor %d exceeds %d", ErrInvalidInput, c.DecayFactor, RatioScale)
	}
	return nil
}

// Validate checks a baseline status.
func (s RoundStatus) Validate() error {
	if s.DistributionRate == 0 {
		return fmt.Errorf("%w: zero distribution rate", ErrInvalidInput)
	}
	return nil
}
