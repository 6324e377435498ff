package economy

import (
	"neobots/core/events"
)

// CalculateReward converts a coefficient into a reward at the forum's current
// distribution rate: floor(k * rate / RatioScale), saturating.
func CalculateReward(k uint64, forum *Forum) uint64 {
	if forum == nil {
		return 0
	}
	return mulDiv(k, forum.Status.DistributionRate, RatioScale)
}

// applyDecay multiplies the reward by decayFactor/RatioScale once per repeat.
func applyDecay(reward, decayFactor uint64, repeats uint8) uint64 {
	for i := uint8(0); i < repeats && reward > 0; i++ {
		reward = mulDiv(reward, decayFactor, RatioScale)
	}
	return reward
}

// credit adds amount to the participant's claimable balance and writes the
// audit record. Zero amounts are recorded too.
func (e *Engine) credit(st State, forum *Forum, user *User, amount uint64, reason string) error {
	user.ClaimableAmount = saturatingAdd(user.ClaimableAmount, amount)
	record := &RewardRecord{
		ID:          e.newID(),
		Forum:       forum.Name,
		Participant: user.Asset,
		Amount:      amount,
		Reason:      reason,
		Round:       forum.Status.Number,
		CreatedAt:   e.now(),
	}
	if err := st.EconomyRewardRecordAppend(record); err != nil {
		return err
	}
	emit(st, events.RewardCredited{
		RecordID:    record.ID,
		Forum:       forum.Name,
		Participant: user.Asset,
		Amount:      amount,
		Reason:      reason,
		Round:       record.Round,
		Claimable:   user.ClaimableAmount,
	})
	return nil
}
