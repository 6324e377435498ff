package economy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// ClaimReceipt reports the outcome of a claim.
type ClaimReceipt struct {
	Amount           uint64
	Remaining        uint64
	RoundDistributed uint64
}

// claimableWithin resolves the amount a claim pays under the given mode.
func claimableWithin(mode ClaimMode, claimable uint64, forum *Forum) (uint64, error) {
	remaining := saturatingSub(forum.Status.MaxDistribution, forum.RoundDistributed)
	amount := claimable
	switch mode {
	case ClaimUncapped:
	case ClaimStrict:
		if amount > remaining {
			return 0, fmt.Errorf("%w: %d exceeds remaining round budget %d", ErrInsufficientClaimable, amount, remaining)
		}
	default:
		if amount > remaining {
			amount = remaining
		}
	}
	if amount == 0 {
		return 0, ErrInsufficientClaimable
	}
	return amount, nil
}

// Claim mints the participant's claimable balance to the actor, bounded by
// the forum's remaining emission for the round. Only the principal may claim.
func (e *Engine) Claim(st State, forumName string, actor, asset solana.PublicKey) (*ClaimReceipt, error) {
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return nil, err
	}
	if _, err := e.requirePrincipal(st, actor, user); err != nil {
		return nil, err
	}
	e.refresh(st, user, forum)

	amount, err := claimableWithin(e.params.ClaimMode, user.ClaimableAmount, forum)
	if err != nil {
		return nil, err
	}
	distributed, err := checkedAdd(forum.RoundDistributed, amount)
	if err != nil {
		return nil, err
	}
	if err := e.tokens.Mint(st, forum.Mint, actor, amount); err != nil {
		return nil, fmt.Errorf("economy: mint reward: %w", err)
	}
	forum.RoundDistributed = distributed
	user.ClaimableAmount -= amount
	if err := st.EconomyForumPut(forum); err != nil {
		return nil, err
	}
	if err := st.EconomyUserPut(user); err != nil {
		return nil, err
	}
	emit(st, events.RewardClaimed{
		Forum:            forum.Name,
		Participant:      asset,
		Beneficiary:      actor,
		Amount:           amount,
		Remaining:        user.ClaimableAmount,
		Round:            forum.Status.Number,
		RoundDistributed: distributed,
	})
	return &ClaimReceipt{Amount: amount, Remaining: user.ClaimableAmount, RoundDistributed: distributed}, nil
}
