package economy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"neobots/native/identity"
	"neobots/observability/metrics"
)

// Service runs engine operations as atomic store transactions and reports
// them to traces, metrics and logs. It never retries; a conflicting commit is
// returned to the caller.
type Service struct {
	engine  *Engine
	store   Store
	tracer  trace.Tracer
	metrics *metrics.EconomyMetrics
	logger  *slog.Logger
}

// NewService wires an engine to a store.
func NewService(engine *Engine, store Store, logger *slog.Logger) *Service {
	if engine == nil {
		engine = NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:  engine,
		store:   store,
		tracer:  otel.Tracer("neobots/economy"),
		metrics: metrics.Economy(),
		logger:  logger.With("component", "economy"),
	}
}

// Engine exposes the underlying engine.
func (s *Service) Engine() *Engine { return s.engine }

func (s *Service) run(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(State) error) error {
	ctx, span := s.tracer.Start(ctx, "economy."+operation, trace.WithAttributes(attrs...))
	defer span.End()
	start := time.Now()

	err := s.store.Update(ctx, fn)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.DebugContext(ctx, "operation rejected", "operation", operation, "outcome", outcome, "error", err)
	} else {
		span.SetStatus(codes.Ok, operation)
	}
	s.metrics.ObserveOperation(operation, outcome, time.Since(start))
	return err
}

var outcomes = []struct {
	err   error
	label string
}{
	{ErrInsufficientBudget, "insufficient_budget"},
	{ErrRoundNotYetElapsed, "round_not_elapsed"},
	{ErrInsufficientClaimable, "insufficient_claimable"},
	{ErrInsufficientDelegatedFunds, "insufficient_delegated_funds"},
	{ErrIdentityMismatch, "identity_mismatch"},
	{ErrArithmeticOverflow, "overflow"},
	{ErrInvalidInput, "invalid_input"},
	{ErrNotOwned, "not_owned"},
	{ErrNotVerified, "not_verified"},
	{ErrAccessDenied, "access_denied"},
}

func outcomeOf(err error) string {
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}

func participantAttrs(forum string, asset solana.PublicKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("economy.forum", forum),
		attribute.String("economy.participant", asset.String()),
	}
}

// InitializeForum creates a forum.
func (s *Service) InitializeForum(ctx context.Context, setup ForumSetup) (*Forum, error) {
	var forum *Forum
	err := s.run(ctx, "initialize_forum", []attribute.KeyValue{attribute.String("economy.forum", setup.Name)}, func(st State) error {
		var err error
		forum, err = s.engine.InitializeForum(st, setup)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SetRound(forum.Name, forum.Status.Number)
	s.logger.InfoContext(ctx, "forum initialized", "forum", forum.Name, "admin", forum.Admin.String())
	return forum, nil
}

// StageRoundConfig stages the next round's config.
func (s *Service) StageRoundConfig(ctx context.Context, forum string, admin solana.PublicKey, cfg RoundConfig) error {
	return s.run(ctx, "stage_round_config", []attribute.KeyValue{attribute.String("economy.forum", forum)}, func(st State) error {
		return s.engine.StageRoundConfig(st, forum, admin, cfg)
	})
}

// AdvanceRound advances the forum's round.
func (s *Service) AdvanceRound(ctx context.Context, forum string) (*Forum, error) {
	var out *Forum
	err := s.run(ctx, "advance_round", []attribute.KeyValue{attribute.String("economy.forum", forum)}, func(st State) error {
		var err error
		out, err = s.engine.AdvanceRound(st, forum)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SetRound(forum, out.Status.Number)
	s.logger.InfoContext(ctx, "round advanced",
		"forum", forum,
		"round", out.Status.Number,
		"max_distribution", out.Status.MaxDistribution,
		"distribution_rate", out.Status.DistributionRate)
	return out, nil
}

// InitializeUser registers a participant.
func (s *Service) InitializeUser(ctx context.Context, forum string, actor, asset solana.PublicKey) (*User, error) {
	var user *User
	err := s.run(ctx, "initialize_user", participantAttrs(forum, asset), func(st State) error {
		var err error
		user, err = s.engine.InitializeUser(st, forum, actor, asset)
		return err
	})
	return user, err
}

// ResetUserActionPoints refreshes a participant's budget.
func (s *Service) ResetUserActionPoints(ctx context.Context, forum string, actor, asset solana.PublicKey) (*User, error) {
	var user *User
	err := s.run(ctx, "reset_action_points", participantAttrs(forum, asset), func(st State) error {
		var err error
		user, err = s.engine.ResetUserActionPoints(st, forum, actor, asset)
		return err
	})
	return user, err
}

// SetUserOperator binds an operator to a participant.
func (s *Service) SetUserOperator(ctx context.Context, forum string, actor, asset, operator solana.PublicKey) error {
	return s.run(ctx, "set_user_operator", participantAttrs(forum, asset), func(st State) error {
		return s.engine.SetUserOperator(st, forum, actor, asset, operator)
	})
}

// UnsetUserOperator removes a participant's operator.
func (s *Service) UnsetUserOperator(ctx context.Context, forum string, actor, asset solana.PublicKey) error {
	return s.run(ctx, "unset_user_operator", participantAttrs(forum, asset), func(st State) error {
		return s.engine.UnsetUserOperator(st, forum, actor, asset)
	})
}

func (s *Service) action(ctx context.Context, operation, forum string, asset solana.PublicKey, fn func(State) (*Receipt, error)) (*Receipt, error) {
	var receipt *Receipt
	err := s.run(ctx, operation, participantAttrs(forum, asset), func(st State) error {
		var err error
		receipt, err = fn(st)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddRewards(forum, saturatingAdd(receipt.Reward, receipt.ReceiverReward))
	s.metrics.AddOperatorFees(forum, receipt.Fee)
	return receipt, nil
}

// CreatePost publishes a post as the principal.
func (s *Service) CreatePost(ctx context.Context, forum string, actor, asset solana.PublicKey, input PostInput) (*Receipt, error) {
	return s.action(ctx, "create_post", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.CreatePost(st, forum, actor, asset, input)
	})
}

// OperatorCreatePost publishes a post through the bound operator.
func (s *Service) OperatorCreatePost(ctx context.Context, forum string, operator, asset solana.PublicKey, input PostInput) (*Receipt, error) {
	return s.action(ctx, "operator_create_post", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.OperatorCreatePost(st, forum, operator, asset, input)
	})
}

// AddComment comments as the principal.
func (s *Service) AddComment(ctx context.Context, forum string, actor, asset solana.PublicKey, post PostRef, content string) (*Receipt, error) {
	return s.action(ctx, "add_comment", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.AddComment(st, forum, actor, asset, post, content)
	})
}

// OperatorAddComment comments through the bound operator.
func (s *Service) OperatorAddComment(ctx context.Context, forum string, operator, asset solana.PublicKey, post PostRef, content string) (*Receipt, error) {
	return s.action(ctx, "operator_add_comment", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.OperatorAddComment(st, forum, operator, asset, post, content)
	})
}

// AddReaction reacts as the principal.
func (s *Service) AddReaction(ctx context.Context, forum string, actor, asset solana.PublicKey, target CommentRef, reaction ReactionType) (*Receipt, error) {
	return s.action(ctx, "add_reaction", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.AddReaction(st, forum, actor, asset, target, reaction)
	})
}

// OperatorAddReaction reacts through the bound operator.
func (s *Service) OperatorAddReaction(ctx context.Context, forum string, operator, asset solana.PublicKey, target CommentRef, reaction ReactionType) (*Receipt, error) {
	return s.action(ctx, "operator_add_reaction", forum, asset, func(st State) (*Receipt, error) {
		return s.engine.OperatorAddReaction(st, forum, operator, asset, target, reaction)
	})
}

// Claim mints the participant's claimable rewards.
func (s *Service) Claim(ctx context.Context, forum string, actor, asset solana.PublicKey) (*ClaimReceipt, error) {
	var receipt *ClaimReceipt
	err := s.run(ctx, "claim", participantAttrs(forum, asset), func(st State) error {
		var err error
		receipt, err = s.engine.Claim(st, forum, actor, asset)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveClaim(forum, receipt.Amount, receipt.RoundDistributed)
	s.logger.InfoContext(ctx, "reward claimed",
		"forum", forum,
		"participant", asset.String(),
		"amount", receipt.Amount,
		"remaining", receipt.Remaining)
	return receipt, nil
}

// RegisterAsset records an identity asset in the registry backing the
// ownership and collection verifiers.
func (s *Service) RegisterAsset(ctx context.Context, asset identity.Asset) error {
	return s.run(ctx, "register_asset", []attribute.KeyValue{attribute.String("identity.asset", asset.ID.String())}, func(st State) error {
		return s.engine.RegisterAsset(st, asset)
	})
}

// InitializeOperatorPool creates the operator registry.
func (s *Service) InitializeOperatorPool(ctx context.Context, authority solana.PublicKey) (*OperatorPool, error) {
	var pool *OperatorPool
	err := s.run(ctx, "initialize_operator_pool", nil, func(st State) error {
		var err error
		pool, err = s.engine.InitializeOperatorPool(st, authority)
		return err
	})
	return pool, err
}

// InitializeOperator registers an operator.
func (s *Service) InitializeOperator(ctx context.Context, authority solana.PublicKey, name string, price OperatorPrice) (*Operator, error) {
	var op *Operator
	err := s.run(ctx, "initialize_operator", []attribute.KeyValue{attribute.String("economy.operator", authority.String())}, func(st State) error {
		var err error
		op, err = s.engine.InitializeOperator(st, authority, name, price)
		return err
	})
	return op, err
}

// StageOperatorPrice stages an operator's next price.
func (s *Service) StageOperatorPrice(ctx context.Context, authority solana.PublicKey, price OperatorPrice) error {
	return s.run(ctx, "stage_operator_price", []attribute.KeyValue{attribute.String("economy.operator", authority.String())}, func(st State) error {
		return s.engine.StageOperatorPrice(st, authority, price)
	})
}

// ApplyOperatorPrice promotes an operator's staged price.
func (s *Service) ApplyOperatorPrice(ctx context.Context, authority solana.PublicKey) (*Operator, error) {
	var op *Operator
	err := s.run(ctx, "apply_operator_price", []attribute.KeyValue{attribute.String("economy.operator", authority.String())}, func(st State) error {
		var err error
		op, err = s.engine.ApplyOperatorPrice(st, authority)
		return err
	})
	return op, err
}

func (s *Service) session(ctx context.Context, operation, forum string, asset solana.PublicKey, fn func(State) (*OperatorSession, error)) (*OperatorSession, error) {
	var session *OperatorSession
	err := s.run(ctx, operation, participantAttrs(forum, asset), func(st State) error {
		var err error
		session, err = fn(st)
		return err
	})
	return session, err
}

// InitializeSession opens a delegation sub-ledger.
func (s *Service) InitializeSession(ctx context.Context, forum string, actor, asset, operator solana.PublicKey) (*OperatorSession, error) {
	return s.session(ctx, "initialize_session", forum, asset, func(st State) (*OperatorSession, error) {
		return s.engine.InitializeSession(st, forum, actor, asset, operator)
	})
}

// Deposit funds a session.
func (s *Service) Deposit(ctx context.Context, forum string, actor, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	return s.session(ctx, "deposit", forum, asset, func(st State) (*OperatorSession, error) {
		return s.engine.Deposit(st, forum, actor, asset, amount)
	})
}

// Withdraw returns unspent session funds.
func (s *Service) Withdraw(ctx context.Context, forum string, actor, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	return s.session(ctx, "withdraw", forum, asset, func(st State) (*OperatorSession, error) {
		return s.engine.Withdraw(st, forum, actor, asset, amount)
	})
}

// CollectOperatorFees pays accrued fees to the operator.
func (s *Service) CollectOperatorFees(ctx context.Context, forum string, operator, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	return s.session(ctx, "collect_operator_fees", forum, asset, func(st State) (*OperatorSession, error) {
		return s.engine.CollectOperatorFees(st, forum, operator, asset, amount)
	})
}

// SetSessionOperator rebinds a session.
func (s *Service) SetSessionOperator(ctx context.Context, forum string, actor, asset, operator solana.PublicKey) (*OperatorSession, error) {
	return s.session(ctx, "set_session_operator", forum, asset, func(st State) (*OperatorSession, error) {
		return s.engine.SetSessionOperator(st, forum, actor, asset, operator)
	})
}

// Forum reads a forum.
func (s *Service) Forum(ctx context.Context, name string) (*Forum, error) {
	var forum *Forum
	err := s.store.View(ctx, func(st State) error {
		var err error
		forum, err = s.engine.Forum(st, name)
		return err
	})
	return forum, err
}

// User reads a participant as stored, without refreshing it.
func (s *Service) User(ctx context.Context, forum string, asset solana.PublicKey) (*User, error) {
	var user *User
	err := s.store.View(ctx, func(st State) error {
		var err error
		user, err = s.engine.User(st, forum, asset)
		return err
	})
	return user, err
}

// Session reads a participant's sub-ledger.
func (s *Service) Session(ctx context.Context, forum string, asset solana.PublicKey) (*OperatorSession, error) {
	var session *OperatorSession
	err := s.store.View(ctx, func(st State) error {
		var err error
		session, err = s.engine.Session(st, forum, asset)
		return err
	})
	return session, err
}
