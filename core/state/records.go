package state

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"neobots/native/economy"
)

// storedEnvelope wraps every record with the version used for optimistic
// conflict detection.
type storedEnvelope struct {
	Version uint64
	Data    []byte
}

type storedRoundStatus struct {
	Number           uint64
	StartTime        *big.Int
	MaxDistribution  uint64
	DistributionRate uint64
}

type storedRoundConfig struct {
	Duration            *big.Int
	MinDistributionRate uint64
	MaxDistributionRate uint64
	KComment            uint64
	KCommentReceiver    uint64
	KQuote              uint64
	KReactionGiver      uint64
	KReactionReceiver   uint64
	DecayFactor         uint64
	DefaultActionPoints economy.ActionPoints
}

type storedForum struct {
	Name             string
	Admin            [32]byte
	Mint             [32]byte
	Collection       [32]byte
	RoundDistributed uint64
	Status           storedRoundStatus
	Config           storedRoundConfig
	NextConfig       storedRoundConfig
	Baseline         storedRoundStatus
}

type storedUser struct {
	Forum              string
	Asset              [32]byte
	ClaimableAmount    uint64
	LocalRound         uint64
	ActionPoints       economy.ActionPoints
	InteractionMetrics []economy.InteractionMetric
	PostCount          uint64
	CommentCount       uint64
	ReactionCount      uint64
	ReactionsSent      economy.ReactionCounts
	ReactionsReceived  economy.ReactionCounts
	HasOperator        bool
	Operator           [32]byte
}

type storedPost struct {
	Forum        string
	Author       [32]byte
	Sequence     uint64
	CreatedAt    *big.Int
	Interactable bool
	Tag          string
	Content      string
}

type storedRewardRecord struct {
	ID          string
	Forum       string
	Participant [32]byte
	Amount      uint64
	Reason      string
	Round       uint64
	CreatedAt   *big.Int
}

func signedToStored(v int64) (*big.Int, error) {
	if v < 0 {
		return nil, fmt.Errorf("state: negative timestamp %d cannot be stored", v)
	}
	return big.NewInt(v), nil
}

func storedToSigned(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

func newStoredRoundStatus(s economy.RoundStatus) (storedRoundStatus, error) {
	start, err := signedToStored(s.StartTime)
	if err != nil {
		return storedRoundStatus{}, err
	}
	return storedRoundStatus{
		Number:           s.Number,
		StartTime:        start,
		MaxDistribution:  s.MaxDistribution,
		DistributionRate: s.DistributionRate,
	}, nil
}

func (s storedRoundStatus) toRoundStatus() economy.RoundStatus {
	return economy.RoundStatus{
		Number:           s.Number,
		StartTime:        storedToSigned(s.StartTime),
		MaxDistribution:  s.MaxDistribution,
		DistributionRate: s.DistributionRate,
	}
}

func newStoredRoundConfig(c economy.RoundConfig) (storedRoundConfig, error) {
	duration, err := signedToStored(c.Duration)
	if err != nil {
		return storedRoundConfig{}, err
	}
	return storedRoundConfig{
		Duration:            duration,
		MinDistributionRate: c.MinDistributionRate,
		MaxDistributionRate: c.MaxDistributionRate,
		KComment:            c.KComment,
		KCommentReceiver:    c.KCommentReceiver,
		KQuote:              c.KQuote,
		KReactionGiver:      c.KReactionGiver,
		KReactionReceiver:   c.KReactionReceiver,
		DecayFactor:         c.DecayFactor,
		DefaultActionPoints: c.DefaultActionPoints,
	}, nil
}

func (s storedRoundConfig) toRoundConfig() economy.RoundConfig {
	return economy.RoundConfig{
		Duration:            storedToSigned(s.Duration),
		MinDistributionRate: s.MinDistributionRate,
		MaxDistributionRate: s.MaxDistributionRate,
		KComment:            s.KComment,
		KCommentReceiver:    s.KCommentReceiver,
		KQuote:              s.KQuote,
		KReactionGiver:      s.KReactionGiver,
		KReactionReceiver:   s.KReactionReceiver,
		DecayFactor:         s.DecayFactor,
		DefaultActionPoints: s.DefaultActionPoints,
	}
}

func newStoredForum(f *economy.Forum) (*storedForum, error) {
	status, err := newStoredRoundStatus(f.Status)
	if err != nil {
		return nil, err
	}
	baseline, err := newStoredRoundStatus(f.Baseline)
	if err != nil {
		return nil, err
	}
	cfg, err := newStoredRoundConfig(f.Config)
	if err != nil {
		return nil, err
	}
	next, err := newStoredRoundConfig(f.NextConfig)
	if err != nil {
		return nil, err
	}
	return &storedForum{
		Name:             f.Name,
		Admin:            f.Admin,
		Mint:             f.Mint,
		Collection:       f.Collection,
		RoundDistributed: f.RoundDistributed,
		Status:           status,
		Config:           cfg,
		NextConfig:       next,
		Baseline:         baseline,
	}, nil
}

func (s *storedForum) toForum() *economy.Forum {
	return &economy.Forum{
		Name:             s.Name,
		Admin:            s.Admin,
		Mint:             s.Mint,
		Collection:       s.Collection,
		RoundDistributed: s.RoundDistributed,
		Status:           s.Status.toRoundStatus(),
		Config:           s.Config.toRoundConfig(),
		NextConfig:       s.NextConfig.toRoundConfig(),
		Baseline:         s.Baseline.toRoundStatus(),
	}
}

func newStoredUser(u *economy.User) *storedUser {
	stored := &storedUser{
		Forum:              u.Forum,
		Asset:              u.Asset,
		ClaimableAmount:    u.ClaimableAmount,
		LocalRound:         u.LocalRound,
		ActionPoints:       u.ActionPoints,
		InteractionMetrics: append([]economy.InteractionMetric(nil), u.InteractionMetrics...),
		PostCount:          u.PostCount,
		CommentCount:       u.CommentCount,
		ReactionCount:      u.ReactionCount,
		ReactionsSent:      u.ReactionsSent,
		ReactionsReceived:  u.ReactionsReceived,
	}
	if u.Operator != nil {
		stored.HasOperator = true
		stored.Operator = *u.Operator
	}
	return stored
}

func (s *storedUser) toUser() *economy.User {
	user := &economy.User{
		Forum:             s.Forum,
		Asset:             s.Asset,
		ClaimableAmount:   s.ClaimableAmount,
		LocalRound:        s.LocalRound,
		ActionPoints:      s.ActionPoints,
		PostCount:         s.PostCount,
		CommentCount:      s.CommentCount,
		ReactionCount:     s.ReactionCount,
		ReactionsSent:     s.ReactionsSent,
		ReactionsReceived: s.ReactionsReceived,
	}
	if len(s.InteractionMetrics) > 0 {
		user.InteractionMetrics = append([]economy.InteractionMetric(nil), s.InteractionMetrics...)
	}
	if s.HasOperator {
		op := solana.PublicKey(s.Operator)
		user.Operator = &op
	}
	return user
}

func newStoredPost(p *economy.Post) (*storedPost, error) {
	created, err := signedToStored(p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &storedPost{
		Forum:        p.Forum,
		Author:       p.Author,
		Sequence:     p.Sequence,
		CreatedAt:    created,
		Interactable: p.Interactable,
		Tag:          p.Tag,
		Content:      p.Content,
	}, nil
}

func (s *storedPost) toPost() *economy.Post {
	return &economy.Post{
		Forum:        s.Forum,
		Author:       s.Author,
		Sequence:     s.Sequence,
		CreatedAt:    storedToSigned(s.CreatedAt),
		Interactable: s.Interactable,
		Tag:          s.Tag,
		Content:      s.Content,
	}
}

func newStoredRewardRecord(r *economy.RewardRecord) (*storedRewardRecord, error) {
	created, err := signedToStored(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &storedRewardRecord{
		ID:          r.ID,
		Forum:       r.Forum,
		Participant: r.Participant,
		Amount:      r.Amount,
		Reason:      r.Reason,
		Round:       r.Round,
		CreatedAt:   created,
	}, nil
}

func (s *storedRewardRecord) toRewardRecord() *economy.RewardRecord {
	return &economy.RewardRecord{
		ID:          s.ID,
		Forum:       s.Forum,
		Participant: s.Participant,
		Amount:      s.Amount,
		Reason:      s.Reason,
		Round:       s.Round,
		CreatedAt:   storedToSigned(s.CreatedAt),
	}
}
