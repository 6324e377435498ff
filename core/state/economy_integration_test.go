package state

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"neobots/core/events"
	"neobots/native/bank"
	"neobots/native/economy"
	"neobots/native/identity"
	"neobots/storage"
)

type harness struct {
	manager    *Manager
	engine     *economy.Engine
	service    *economy.Service
	clock      *clockwork.FakeClock
	recorder   *events.Recorder
	forum      *economy.Forum
	admin      solana.PublicKey
	collection solana.PublicKey
}

func newHarness(t *testing.T, params economy.Params) *harness {
	t.Helper()
	h := &harness{
		manager:    NewManager(storage.NewMemDB()),
		engine:     economy.NewEngine(),
		clock:      clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0)),
		recorder:   &events.Recorder{},
		admin:      solana.NewWallet().PublicKey(),
		collection: solana.NewWallet().PublicKey(),
	}
	h.manager.SetEmitter(h.recorder)
	h.engine.SetClock(h.clock)
	require.NoError(t, h.engine.SetParams(params))
	h.service = economy.NewService(h.engine, h.manager, nil)

	forum, err := h.service.InitializeForum(context.Background(), economy.ForumSetup{
		Name:       "alpha",
		Admin:      h.admin,
		Mint:       solana.NewWallet().PublicKey(),
		Collection: h.collection,
	})
	require.NoError(t, err)
	h.forum = forum
	return h
}

// member registers an asset in the collection and the forum and returns the
// wallet holding it together with the asset id.
func (h *harness) member(t *testing.T) (solana.PublicKey, solana.PublicKey) {
	t.Helper()
	owner := solana.NewWallet().PublicKey()
	asset := solana.NewWallet().PublicKey()
	require.NoError(t, h.manager.Update(context.Background(), func(st economy.State) error {
		return identity.NewRegistry().Register(st, &identity.Asset{ID: asset, Owner: owner, Collection: h.collection, Verified: true})
	}))
	_, err := h.service.InitializeUser(context.Background(), "alpha", owner, asset)
	require.NoError(t, err)
	return owner, asset
}

func (h *harness) fund(t *testing.T, owner solana.PublicKey, amount uint64) {
	t.Helper()
	require.NoError(t, h.manager.Update(context.Background(), func(st economy.State) error {
		return bank.NewLedger().Mint(st, h.forum.Mint, owner, amount)
	}))
}

func (h *harness) balance(t *testing.T, owner solana.PublicKey) uint64 {
	t.Helper()
	var out uint64
	require.NoError(t, h.manager.View(context.Background(), func(st economy.State) error {
		var err error
		out, err = st.BankBalance(h.forum.Mint, owner)
		return err
	}))
	return out
}

func TestEconomyLifecycle(t *testing.T) {
	h := newHarness(t, economy.DefaultParams())
	ctx := context.Background()
	aliceWallet, alice := h.member(t)
	bobWallet, bob := h.member(t)

	receipt, err := h.service.CreatePost(ctx, "alpha", aliceWallet, alice, economy.PostInput{Content: "gm", Interactable: true})
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Sequence)

	comment, err := h.service.AddComment(ctx, "alpha", bobWallet, bob, economy.PostRef{Author: alice, Sequence: 1}, "nice")
	require.NoError(t, err)
	require.Equal(t, economy.TokenUnit/10, comment.Reward)

	_, err = h.service.AddReaction(ctx, "alpha", aliceWallet, alice, economy.CommentRef{Author: bob, Sequence: 1}, economy.ReactionLike)
	require.NoError(t, err)

	bobUser, err := h.service.User(ctx, "alpha", bob)
	require.NoError(t, err)
	require.Equal(t, economy.TokenUnit/10+economy.TokenUnit/2, bobUser.ClaimableAmount)
	require.Equal(t, uint64(1), bobUser.ReactionsReceived.Like)

	claim, err := h.service.Claim(ctx, "alpha", bobWallet, bob)
	require.NoError(t, err)
	require.Equal(t, bobUser.ClaimableAmount, claim.Amount)
	require.Equal(t, claim.Amount, h.balance(t, bobWallet))

	_, err = h.service.Claim(ctx, "alpha", bobWallet, bob)
	require.ErrorIs(t, err, economy.ErrInsufficientClaimable)

	tx, err := h.manager.Begin(ctx)
	require.NoError(t, err)
	history, err := tx.RewardRecords("alpha", bob)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, economy.ReasonComment, history[0].Reason)
	require.Equal(t, economy.ReasonReactionReceived, history[1].Reason)

	require.Len(t, h.recorder.OfType(events.TypeRewardClaimed), 1)
	require.Len(t, h.recorder.OfType(events.TypeTokenMinted), 1)
}

func TestRoundAdvanceRefreshesLazily(t *testing.T) {
	h := newHarness(t, economy.DefaultParams())
	ctx := context.Background()
	wallet, asset := h.member(t)

	_, err := h.service.CreatePost(ctx, "alpha", wallet, asset, economy.PostInput{Content: "one"})
	require.NoError(t, err)
	_, err = h.service.CreatePost(ctx, "alpha", wallet, asset, economy.PostInput{Content: "two"})
	require.NoError(t, err)
	_, err = h.service.CreatePost(ctx, "alpha", wallet, asset, economy.PostInput{Content: "three"})
	require.ErrorIs(t, err, economy.ErrInsufficientBudget)

	_, err = h.service.AdvanceRound(ctx, "alpha")
	require.ErrorIs(t, err, economy.ErrRoundNotYetElapsed)
	h.clock.Advance(time.Duration(economy.DefaultRoundDuration) * time.Second)
	forum, err := h.service.AdvanceRound(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, uint64(1), forum.Status.Number)

	stale, err := h.service.User(ctx, "alpha", asset)
	require.NoError(t, err)
	require.Equal(t, uint64(0), stale.LocalRound)
	require.Zero(t, stale.ActionPoints.Post)

	_, err = h.service.CreatePost(ctx, "alpha", wallet, asset, economy.PostInput{Content: "three"})
	require.NoError(t, err)
	fresh, err := h.service.User(ctx, "alpha", asset)
	require.NoError(t, err)
	require.Equal(t, uint64(1), fresh.LocalRound)
	require.Equal(t, uint64(1), fresh.ActionPoints.Post)
	require.Equal(t, uint64(3), fresh.PostCount)
}

func TestDelegatedCommentConservesSessionFunds(t *testing.T) {
	h := newHarness(t, economy.DefaultParams())
	ctx := context.Background()
	authorWallet, author := h.member(t)
	principalWallet, principal := h.member(t)
	operator := solana.NewWallet().PublicKey()

	_, err := h.service.CreatePost(ctx, "alpha", authorWallet, author, economy.PostInput{Content: "post", Interactable: true})
	require.NoError(t, err)
	_, err = h.service.InitializeOperatorPool(ctx, h.admin)
	require.NoError(t, err)
	_, err = h.service.InitializeOperator(ctx, operator, "bot", economy.OperatorPrice{PerComment: 50, PerLike: 5, PerVote: 5, PerPost: 20})
	require.NoError(t, err)
	require.NoError(t, h.service.SetUserOperator(ctx, "alpha", principalWallet, principal, operator))
	session, err := h.service.InitializeSession(ctx, "alpha", principalWallet, principal, operator)
	require.NoError(t, err)

	h.fund(t, principalWallet, 200)
	_, err = h.service.Deposit(ctx, "alpha", principalWallet, principal, 40)
	require.NoError(t, err)

	before, err := h.service.User(ctx, "alpha", principal)
	require.NoError(t, err)
	_, err = h.service.OperatorAddComment(ctx, "alpha", operator, principal, economy.PostRef{Author: author, Sequence: 1}, "via bot")
	require.ErrorIs(t, err, economy.ErrInsufficientDelegatedFunds)
	after, err := h.service.User(ctx, "alpha", principal)
	require.NoError(t, err)
	require.Equal(t, before, after)

	_, err = h.service.Deposit(ctx, "alpha", principalWallet, principal, 60)
	require.NoError(t, err)
	receipt, err := h.service.OperatorAddComment(ctx, "alpha", operator, principal, economy.PostRef{Author: author, Sequence: 1}, "via bot")
	require.NoError(t, err)
	require.Equal(t, uint64(50), receipt.Fee)

	session, err = h.service.Session(ctx, "alpha", principal)
	require.NoError(t, err)
	require.Equal(t, uint64(50), session.AmountForUser)
	require.Equal(t, uint64(50), session.AmountForOperator)
	require.True(t, session.Balanced())
	require.Equal(t, uint64(100), h.balance(t, session.Vault))

	_, err = h.service.CollectOperatorFees(ctx, "alpha", operator, principal, 50)
	require.NoError(t, err)
	_, err = h.service.Withdraw(ctx, "alpha", principalWallet, principal, 50)
	require.NoError(t, err)

	session, err = h.service.Session(ctx, "alpha", principal)
	require.NoError(t, err)
	require.True(t, session.Balanced())
	require.Zero(t, session.AmountForUser)
	require.Zero(t, h.balance(t, session.Vault))
	require.Equal(t, uint64(50), h.balance(t, operator))
	require.Equal(t, uint64(150), h.balance(t, principalWallet))
}

func TestConcurrentClaimsAreSerialised(t *testing.T) {
	h := newHarness(t, economy.DefaultParams())
	ctx := context.Background()
	authorWallet, author := h.member(t)
	wallet, asset := h.member(t)
	_, err := h.service.CreatePost(ctx, "alpha", authorWallet, author, economy.PostInput{Content: "p", Interactable: true})
	require.NoError(t, err)
	_, err = h.service.AddComment(ctx, "alpha", wallet, asset, economy.PostRef{Author: author, Sequence: 1}, "c")
	require.NoError(t, err)

	first, err := h.manager.Begin(ctx)
	require.NoError(t, err)
	second, err := h.manager.Begin(ctx)
	require.NoError(t, err)
	_, err = h.engine.Claim(first, "alpha", wallet, asset)
	require.NoError(t, err)
	_, err = h.engine.Claim(second, "alpha", wallet, asset)
	require.NoError(t, err)

	require.NoError(t, h.manager.Commit(first))
	require.ErrorIs(t, h.manager.Commit(second), ErrConflict)
	require.Equal(t, economy.TokenUnit/10, h.balance(t, wallet))
}

func TestLevelDBBackedEngineSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	manager := NewManager(db)
	engine := economy.NewEngine()
	service := economy.NewService(engine, manager, nil)
	_, err = service.InitializeForum(context.Background(), economy.ForumSetup{
		Name:  "persisted",
		Admin: solana.NewWallet().PublicKey(),
		Mint:  solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer reopened.Close()
	service = economy.NewService(engine, NewManager(reopened), nil)
	forum, err := service.Forum(context.Background(), "persisted")
	require.NoError(t, err)
	require.Equal(t, economy.DefaultRoundStatus().MaxDistribution, forum.Status.MaxDistribution)
}
