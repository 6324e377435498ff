package economy

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// ForumSetup describes a new forum. Zero-valued Config and Baseline select
// the defaults.
type ForumSetup struct {
	Name       string
	Admin      solana.PublicKey
	Mint       solana.PublicKey
	Collection solana.PublicKey
	Config     *RoundConfig
	Baseline   *RoundStatus
}

// InitializeForum creates a tenant in round zero.
func (e *Engine) InitializeForum(st State, setup ForumSetup) (*Forum, error) {
	if st == nil {
		return nil, errNilState
	}
	name := strings.TrimSpace(setup.Name)
	if name == "" || len(name) > MaxForumNameLength {
		return nil, fmt.Errorf("%w: forum name must be 1-%d bytes", ErrInvalidInput, MaxForumNameLength)
	}
	if setup.Admin.IsZero() || setup.Mint.IsZero() {
		return nil, fmt.Errorf("%w: admin and mint required", ErrInvalidInput)
	}
	cfg := DefaultRoundConfig()
	if setup.Config != nil {
		cfg = *setup.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseline := DefaultRoundStatus()
	if setup.Baseline != nil {
		baseline = *setup.Baseline
		baseline.Number = 0
		baseline.StartTime = 0
	}
	if err := baseline.Validate(); err != nil {
		return nil, err
	}
	if _, ok, err := st.EconomyForumGet(name); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %q", ErrForumExists, name)
	}

	status := baseline
	status.StartTime = e.now()
	forum := &Forum{
		Name:       name,
		Admin:      setup.Admin,
		Mint:       setup.Mint,
		Collection: setup.Collection,
		Status:     status,
		Config:     cfg,
		NextConfig: cfg,
		Baseline:   baseline,
	}
	if err := st.EconomyForumPut(forum); err != nil {
		return nil, err
	}
	emit(st, events.ForumInitialized{Forum: name, Admin: setup.Admin, Mint: setup.Mint, Collection: setup.Collection})
	return forum.Clone(), nil
}

// StageRoundConfig replaces the config that takes effect at the next round.
func (e *Engine) StageRoundConfig(st State, name string, admin solana.PublicKey, cfg RoundConfig) error {
	forum, err := e.loadForum(st, name)
	if err != nil {
		return err
	}
	if !forum.Admin.Equals(admin) {
		return ErrAccessDenied
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	forum.NextConfig = cfg
	if err := st.EconomyForumPut(forum); err != nil {
		return err
	}
	emit(st, events.RoundConfigStaged{Forum: forum.Name, Admin: admin})
	return nil
}

// AdvanceRound moves the forum to its next round once the current one has
// lasted its configured duration. Anyone may call it. Participants are not
// touched; they refresh lazily on their next action.
func (e *Engine) AdvanceRound(st State, name string) (*Forum, error) {
	forum, err := e.loadForum(st, name)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now < deadline(forum.Status.StartTime, forum.Config.Duration) {
		return nil, fmt.Errorf("%w: round %d ends at %d", ErrRoundNotYetElapsed, forum.Status.Number,
			deadline(forum.Status.StartTime, forum.Config.Duration))
	}
	number, err := checkedAdd(forum.Status.Number, 1)
	if err != nil {
		return nil, err
	}

	previous := forum.Status
	distributed := forum.RoundDistributed
	forum.Config = forum.NextConfig

	adaptive := e.params.RateMode == RateAdaptive
	var next RoundStatus
	if adaptive {
		next = nextAdaptiveStatus(previous, distributed, forum.Config, e.params.InflationRate)
	} else {
		next = forum.Baseline
	}
	next.Number = number
	next.StartTime = now

	forum.Status = next
	forum.RoundDistributed = 0
	if err := st.EconomyForumPut(forum); err != nil {
		return nil, err
	}
	emit(st, events.RoundAdvanced{
		Forum:               forum.Name,
		Round:               next.Number,
		StartTime:           next.StartTime,
		MaxDistribution:     next.MaxDistribution,
		DistributionRate:    next.DistributionRate,
		PreviousDistributed: distributed,
		Adaptive:            adaptive,
	})
	return forum.Clone(), nil
}

// nextAdaptiveStatus scales the rate by how little of the previous cap was
// used and shrinks the cap by the inflation rate. A round that distributed
// nothing starts again from 1x.
func nextAdaptiveStatus(prev RoundStatus, distributed uint64, cfg RoundConfig, inflation uint64) RoundStatus {
	rate := RatioScale
	if distributed > 0 {
		rate = mulDiv(prev.MaxDistribution, RatioScale, distributed)
	}
	rate = clamp(rate, cfg.MinDistributionRate, cfg.MaxDistributionRate)
	maxDistribution := saturatingSub(prev.MaxDistribution, mulDiv(prev.MaxDistribution, inflation, RatioScale))
	return RoundStatus{MaxDistribution: maxDistribution, DistributionRate: rate}
}
