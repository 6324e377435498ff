package economy

import (
	"github.com/gagliardetto/solana-go"
)

// RoundStatus describes the round currently in effect for a forum.
type RoundStatus struct {
	Number           uint64
	StartTime        int64
	MaxDistribution  uint64
	DistributionRate uint64
}

// ActionPoints is the per-round budget of each action type.
type ActionPoints struct {
	Post     uint64
	Comment  uint64
	Upvote   uint64
	Downvote uint64
	Like     uint64
	Banvote  uint64
}

// RoundConfig holds the rules of a round. A staged copy becomes active when
// the round advances.
type RoundConfig struct {
	Duration            int64
	MinDistributionRate uint64
	MaxDistributionRate uint64
	KComment            uint64
	KCommentReceiver    uint64
	KQuote              uint64
	KReactionGiver      uint64
	KReactionReceiver   uint64
	DecayFactor         uint64
	DefaultActionPoints ActionPoints
}

// Forum is one tenant of the economy.
type Forum struct {
	Name             string
	Admin            solana.PublicKey
	Mint             solana.PublicKey
	Collection       solana.PublicKey
	RoundDistributed uint64
	Status           RoundStatus
	Config           RoundConfig
	NextConfig       RoundConfig
	// Baseline is the status installed by a fixed-rate round advance.
	Baseline RoundStatus
}

// Clone returns a copy of the forum.
func (f *Forum) Clone() *Forum {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// ReactionType enumerates the reactions a participant can give to a comment.
type ReactionType uint8

const (
	ReactionUpvote ReactionType = iota + 1
	ReactionDownvote
	ReactionLike
	ReactionBanvote
)

// String returns the lowercase reaction name.
func (r ReactionType) String() string {
	switch r {
	case ReactionUpvote:
		return "upvote"
	case ReactionDownvote:
		return "downvote"
	case ReactionLike:
		return "like"
	case ReactionBanvote:
		return "banvote"
	default:
		return "unknown"
	}
}

// Valid reports whether the reaction is a known type.
func (r ReactionType) Valid() bool {
	return r >= ReactionUpvote && r <= ReactionBanvote
}

// ParseReactionType maps a reaction name back to its type.
func ParseReactionType(name string) (ReactionType, bool) {
	for r := ReactionUpvote; r <= ReactionBanvote; r++ {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// ReactionCounts tracks cumulative reactions per type.
type ReactionCounts struct {
	Upvote   uint64
	Downvote uint64
	Like     uint64
	Banvote  uint64
}

func (c *ReactionCounts) counter(r ReactionType) *uint64 {
	switch r {
	case ReactionUpvote:
		return &c.Upvote
	case ReactionDownvote:
		return &c.Downvote
	case ReactionLike:
		return &c.Like
	case ReactionBanvote:
		return &c.Banvote
	}
	return nil
}

// InteractionMetric counts repeat reactions to the same target in a round.
type InteractionMetric struct {
	ShortID [6]byte
	Count   uint8
}

// User is a participant of a forum, bound to the asset that identifies it.
type User struct {
	Forum              string
	Asset              solana.PublicKey
	ClaimableAmount    uint64
	LocalRound         uint64
	ActionPoints       ActionPoints
	InteractionMetrics []InteractionMetric
	PostCount          uint64
	CommentCount       uint64
	ReactionCount      uint64
	ReactionsSent      ReactionCounts
	ReactionsReceived  ReactionCounts
	Operator           *solana.PublicKey
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.InteractionMetrics != nil {
		clone.InteractionMetrics = append([]InteractionMetric(nil), u.InteractionMetrics...)
	}
	if u.Operator != nil {
		op := *u.Operator
		clone.Operator = &op
	}
	return &clone
}

// Post is a top-level entry authored by a participant.
type Post struct {
	Forum        string
	Author       solana.PublicKey
	Sequence     uint64
	CreatedAt    int64
	Interactable bool
	Tag          string
	Content      string
}

// Clone returns a copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// OperatorPrice is the fee an operator charges per delegated action.
type OperatorPrice struct {
	PerPost    uint64
	PerComment uint64
	PerLike    uint64
	PerVote    uint64
}

// Operator is a delegate that acts for participants against a fee.
type Operator struct {
	Authority      solana.PublicKey
	Name           string
	Price          OperatorPrice
	NextRoundPrice OperatorPrice
}

// Clone returns a copy of the operator.
func (o *Operator) Clone() *Operator {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// OperatorPool is the singleton registry of operators.
type OperatorPool struct {
	Authority solana.PublicKey
	Operators []solana.PublicKey
}

// Clone returns a deep copy of the pool.
func (p *OperatorPool) Clone() *OperatorPool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Operators = append([]solana.PublicKey(nil), p.Operators...)
	return &clone
}

// OperatorSession is the delegation sub-ledger of a participant. Funds sit in
// Vault; AmountForUser is spendable by the operator on the participant's
// behalf and AmountForOperator is the fee owed to the operator.
type OperatorSession struct {
	Forum             string
	User              solana.PublicKey
	Operator          solana.PublicKey
	Vault             solana.PublicKey
	AmountForUser     uint64
	AmountForOperator uint64
	TotalDeposited    uint64
	TotalWithdrawn    uint64
}

// Clone returns a copy of the session.
func (s *OperatorSession) Clone() *OperatorSession {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Balanced reports whether the session holds exactly what was deposited
// minus what was withdrawn.
func (s *OperatorSession) Balanced() bool {
	if s == nil {
		return true
	}
	if s.TotalWithdrawn > s.TotalDeposited {
		return false
	}
	held, err := checkedAdd(s.AmountForUser, s.AmountForOperator)
	if err != nil {
		return false
	}
	return held == s.TotalDeposited-s.TotalWithdrawn
}

// RewardRecord is the audit entry written for every credit.
type RewardRecord struct {
	ID          string
	Forum       string
	Participant solana.PublicKey
	Amount      uint64
	Reason      string
	Round       uint64
	CreatedAt   int64
}

// Reward reasons.
const (
	ReasonComment          = "comment"
	ReasonCommentReceived  = "comment_received"
	ReasonReactionGiven    = "reaction_given"
	ReasonReactionReceived = "reaction_received"
)
