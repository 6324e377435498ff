package events

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"neobots/core/types"
)

const (
	TypeForumInitialized      = "economy.forum.initialized"
	TypeRoundConfigStaged     = "economy.round.config_staged"
	TypeRoundAdvanced         = "economy.round.advanced"
	TypeParticipantRegistered = "economy.participant.registered"
	TypeActionPointsRefreshed = "economy.participant.refreshed"
	TypeOperatorBound         = "economy.participant.operator"
	TypeActionPerformed       = "economy.action.performed"
	TypeRewardCredited        = "economy.reward.credited"
	TypeRewardClaimed         = "economy.reward.claimed"
	TypeOperatorRegistered    = "economy.operator.registered"
	TypeSessionOpened         = "economy.session.opened"
	TypeSessionFunded         = "economy.session.funded"
	TypeSessionWithdrawn      = "economy.session.withdrawn"
	TypeOperatorFeesCollected = "economy.session.fees_collected"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// ForumInitialized is emitted once per tenant when its forum record is created.
type ForumInitialized struct {
	Forum      string
	Admin      solana.PublicKey
	Mint       solana.PublicKey
	Collection solana.PublicKey
}

func (ForumInitialized) EventType() string { return TypeForumInitialized }

func (e ForumInitialized) Event() *types.Event {
	return &types.Event{Type: TypeForumInitialized, Attributes: map[string]string{
		"forum":      e.Forum,
		"admin":      e.Admin.String(),
		"mint":       e.Mint.String(),
		"collection": e.Collection.String(),
	}}
}

// RoundConfigStaged is emitted when the admin replaces the next-round config.
type RoundConfigStaged struct {
	Forum string
	Admin solana.PublicKey
}

func (RoundConfigStaged) EventType() string { return TypeRoundConfigStaged }

func (e RoundConfigStaged) Event() *types.Event {
	return &types.Event{Type: TypeRoundConfigStaged, Attributes: map[string]string{
		"forum": e.Forum,
		"admin": e.Admin.String(),
	}}
}

// RoundAdvanced signals that a forum moved to a new round.
type RoundAdvanced struct {
	Forum               string
	Round               uint64
	StartTime           int64
	MaxDistribution     uint64
	DistributionRate    uint64
	PreviousDistributed uint64
	Adaptive            bool
}

func (RoundAdvanced) EventType() string { return TypeRoundAdvanced }

func (e RoundAdvanced) Event() *types.Event {
	return &types.Event{Type: TypeRoundAdvanced, Attributes: map[string]string{
		"forum":                e.Forum,
		"round":                u64(e.Round),
		"start_time":           strconv.FormatInt(e.StartTime, 10),
		"max_distribution":     u64(e.MaxDistribution),
		"distribution_rate":    u64(e.DistributionRate),
		"previous_distributed": u64(e.PreviousDistributed),
		"adaptive":             strconv.FormatBool(e.Adaptive),
	}}
}

// ParticipantRegistered is emitted when an asset joins a forum.
type ParticipantRegistered struct {
	Forum       string
	Participant solana.PublicKey
	Owner       solana.PublicKey
}

func (ParticipantRegistered) EventType() string { return TypeParticipantRegistered }

func (e ParticipantRegistered) Event() *types.Event {
	return &types.Event{Type: TypeParticipantRegistered, Attributes: map[string]string{
		"forum":       e.Forum,
		"participant": e.Participant.String(),
		"owner":       e.Owner.String(),
	}}
}

// ActionPointsRefreshed captures a lazy budget refill.
type ActionPointsRefreshed struct {
	Forum       string
	Participant solana.PublicKey
	Round       uint64
	Post        uint64
	Comment     uint64
	Upvote      uint64
	Downvote    uint64
	Like        uint64
	Banvote     uint64
}

func (ActionPointsRefreshed) EventType() string { return TypeActionPointsRefreshed }

func (e ActionPointsRefreshed) Event() *types.Event {
	return &types.Event{Type: TypeActionPointsRefreshed, Attributes: map[string]string{
		"forum":       e.Forum,
		"participant": e.Participant.String(),
		"round":       u64(e.Round),
		"post":        u64(e.Post),
		"comment":     u64(e.Comment),
		"upvote":      u64(e.Upvote),
		"downvote":    u64(e.Downvote),
		"like":        u64(e.Like),
		"banvote":     u64(e.Banvote),
	}}
}

// OperatorBound reports a change of the delegate authorised on a participant.
type OperatorBound struct {
	Forum       string
	Participant solana.PublicKey
	Operator    solana.PublicKey
	Bound       bool
}

func (OperatorBound) EventType() string { return TypeOperatorBound }

func (e OperatorBound) Event() *types.Event {
	attrs := map[string]string{
		"forum":       e.Forum,
		"participant": e.Participant.String(),
		"bound":       strconv.FormatBool(e.Bound),
	}
	if !e.Operator.IsZero() {
		attrs["operator"] = e.Operator.String()
	}
	return &types.Event{Type: TypeOperatorBound, Attributes: attrs}
}

// ActionPerformed is emitted for every post, comment and reaction.
type ActionPerformed struct {
	Forum       string
	Participant solana.PublicKey
	Action      string
	Sequence    uint64
	Target      solana.PublicKey
	Content     string
	Delegated   bool
	Operator    solana.PublicKey
	Fee         uint64
}

func (ActionPerformed) EventType() string { return TypeActionPerformed }

func (e ActionPerformed) Event() *types.Event {
	attrs := map[string]string{
		"forum":       e.Forum,
		"participant": e.Participant.String(),
		"action":      e.Action,
		"sequence":    u64(e.Sequence),
		"delegated":   strconv.FormatBool(e.Delegated),
	}
	if !e.Target.IsZero() {
		attrs["target"] = e.Target.String()
	}
	if e.Content != "" {
		attrs["content"] = e.Content
	}
	if e.Delegated {
		attrs["operator"] = e.Operator.String()
		attrs["fee"] = u64(e.Fee)
	}
	return &types.Event{Type: TypeActionPerformed, Attributes: attrs}
}

// RewardCredited is the auditable record of a reward accrual.
type RewardCredited struct {
	RecordID    string
	Forum       string
	Participant solana.PublicKey
	Amount      uint64
	Reason      string
	Round       uint64
	Claimable   uint64
}

func (RewardCredited) EventType() string { return TypeRewardCredited }

func (e RewardCredited) Event() *types.Event {
	return &types.Event{Type: TypeRewardCredited, Attributes: map[string]string{
		"id":          e.RecordID,
		"forum":       e.Forum,
		"participant": e.Participant.String(),
		"amount":      u64(e.Amount),
		"reason":      e.Reason,
		"round":       u64(e.Round),
		"claimable":   u64(e.Claimable),
	}}
}

// RewardClaimed captures a mint against the round emission budget.
type RewardClaimed struct {
	Forum            string
	Participant      solana.PublicKey
	Beneficiary      solana.PublicKey
	Amount           uint64
	Remaining        uint64
	Round            uint64
	RoundDistributed uint64
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardClaimed, Attributes: map[string]string{
		"forum":             e.Forum,
		"participant":       e.Participant.String(),
		"beneficiary":       e.Beneficiary.String(),
		"amount":            u64(e.Amount),
		"remaining":         u64(e.Remaining),
		"round":             u64(e.Round),
		"round_distributed": u64(e.RoundDistributed),
	}}
}

// OperatorRegistered is emitted when an operator publishes its price list.
type OperatorRegistered struct {
	Authority  solana.PublicKey
	Name       string
	PerPost    uint64
	PerComment uint64
	PerLike    uint64
	PerVote    uint64
}

func (OperatorRegistered) EventType() string { return TypeOperatorRegistered }

func (e OperatorRegistered) Event() *types.Event {
	return &types.Event{Type: TypeOperatorRegistered, Attributes: map[string]string{
		"authority":   e.Authority.String(),
		"name":        e.Name,
		"per_post":    u64(e.PerPost),
		"per_comment": u64(e.PerComment),
		"per_like":    u64(e.PerLike),
		"per_vote":    u64(e.PerVote),
	}}
}

// SessionEvent covers every delegation sub-ledger movement. The concrete
// type is selected through Kind.
type SessionEvent struct {
	Kind              string
	Forum             string
	Participant       solana.PublicKey
	Operator          solana.PublicKey
	Vault             solana.PublicKey
	Amount            uint64
	AmountForUser     uint64
	AmountForOperator uint64
}

func (e SessionEvent) EventType() string { return e.Kind }

func (e SessionEvent) Event() *types.Event {
	return &types.Event{Type: e.Kind, Attributes: map[string]string{
		"forum":               e.Forum,
		"participant":         e.Participant.String(),
		"operator":            e.Operator.String(),
		"vault":               e.Vault.String(),
		"amount":              u64(e.Amount),
		"amount_for_user":     u64(e.AmountForUser),
		"amount_for_operator": u64(e.AmountForOperator),
	}}
}
