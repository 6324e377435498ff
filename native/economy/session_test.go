package economy

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"neobots/core/events"
)

var testPrice = OperatorPrice{PerPost: 30, PerComment: 50, PerLike: 5, PerVote: 10}

func TestDelegatedCommentScenario(t *testing.T) {
	f := newFixture(t)
	authorWallet, author := f.member()
	post := f.post(authorWallet, author)
	wallet, asset := f.member()
	f.delegate(wallet, asset, testPrice, 40)
	operator := f.session(asset).Operator

	before := f.session(asset)
	_, err := f.engine.OperatorAddComment(f.st, testForumName, operator, asset, post, "bot")
	require.ErrorIs(t, err, ErrInsufficientDelegatedFunds)
	require.Equal(t, before, f.session(asset))
	require.Equal(t, DefaultActionPoints(), f.user(asset).ActionPoints)
	require.Zero(t, f.user(asset).ClaimableAmount)
}

func TestDelegatedActionsSplitFees(t *testing.T) {
	f := newFixture(t)
	authorWallet, author := f.member()
	comment := f.comment(authorWallet, author, f.post(authorWallet, author))
	wallet, asset := f.member()
	operator := f.delegate(wallet, asset, testPrice, 100)

	receipt, err := f.engine.OperatorAddReaction(f.st, testForumName, operator, asset, comment, ReactionLike)
	require.NoError(t, err)
	require.True(t, receipt.Delegated)
	require.Equal(t, uint64(5), receipt.Fee)
	require.Equal(t, TokenUnit/10, receipt.Reward)

	_, err = f.engine.OperatorAddReaction(f.st, testForumName, operator, asset, comment, ReactionDownvote)
	require.NoError(t, err)
	receipt, err = f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{Content: "auto"})
	require.NoError(t, err)
	require.Equal(t, uint64(30), receipt.Fee)

	session := f.session(asset)
	require.Equal(t, uint64(55), session.AmountForUser)
	require.Equal(t, uint64(45), session.AmountForOperator)
	require.True(t, session.Balanced())
	require.Equal(t, uint64(100), f.balance(session.Vault))

	user := f.user(asset)
	require.Equal(t, DefaultActionPoints().Post-1, user.ActionPoints.Post)
	require.Equal(t, TokenUnit/10*2, user.ClaimableAmount)

	performed := f.st.eventsOfType(events.TypeActionPerformed)
	last := performed[len(performed)-1]
	require.Equal(t, "true", last.Attributes["delegated"])
	require.Equal(t, "30", last.Attributes["fee"])
}

func TestDelegatedActionsRequireBinding(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	stranger := f.operator(testPrice)

	_, err := f.engine.OperatorCreatePost(f.st, testForumName, stranger, asset, PostInput{})
	require.ErrorIs(t, err, ErrOperatorNotBound)

	operator := f.delegate(wallet, asset, testPrice, 100)
	_, err = f.engine.OperatorCreatePost(f.st, testForumName, stranger, asset, PostInput{})
	require.ErrorIs(t, err, ErrIdentityMismatch)

	require.NoError(t, f.engine.UnsetUserOperator(f.st, testForumName, wallet, asset))
	_, err = f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{})
	require.ErrorIs(t, err, ErrOperatorNotBound)
}

func TestDelegatedActionRejectsForeignSession(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	sessionOperator := f.delegate(wallet, asset, testPrice, 100)
	other := f.operator(testPrice)
	require.NoError(t, f.engine.SetUserOperator(f.st, testForumName, wallet, asset, other))

	_, err := f.engine.OperatorCreatePost(f.st, testForumName, other, asset, PostInput{})
	require.ErrorIs(t, err, ErrIdentityMismatch)
	require.Equal(t, sessionOperator, f.session(asset).Operator)
}

func TestDelegatedActionRequiresSession(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.operator(testPrice)
	require.NoError(t, f.engine.SetUserOperator(f.st, testForumName, wallet, asset, operator))

	_, err := f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDepositModes(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	f.delegate(wallet, asset, testPrice, 100)
	f.fund(wallet, 50)

	session, err := f.engine.Deposit(f.st, testForumName, wallet, asset, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(150), session.AmountForUser)
	require.Equal(t, uint64(150), session.TotalDeposited)
	require.Zero(t, f.balance(wallet))

	_, err = f.engine.Deposit(f.st, testForumName, wallet, asset, 1)
	require.Error(t, err)
	require.Equal(t, uint64(150), f.session(asset).AmountForUser)

	_, err = f.engine.Deposit(f.st, testForumName, wallet, asset, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.engine.SetParams(Params{DepositMode: DepositOnce}))
	f.fund(wallet, 10)
	_, err = f.engine.Deposit(f.st, testForumName, wallet, asset, 10)
	require.ErrorIs(t, err, ErrSessionAlreadyFunded)
}

func TestWithdrawReturnsUnspentFunds(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.delegate(wallet, asset, testPrice, 100)
	_, err := f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{})
	require.NoError(t, err)

	_, err = f.engine.Withdraw(f.st, testForumName, wallet, asset, 71)
	require.ErrorIs(t, err, ErrInsufficientDelegatedFunds)
	_, err = f.engine.Withdraw(f.st, testForumName, operator, asset, 10)
	require.ErrorIs(t, err, ErrNotOwned)

	session, err := f.engine.Withdraw(f.st, testForumName, wallet, asset, 70)
	require.NoError(t, err)
	require.Zero(t, session.AmountForUser)
	require.Equal(t, uint64(30), session.AmountForOperator)
	require.Equal(t, uint64(70), session.TotalWithdrawn)
	require.Equal(t, uint64(70), f.balance(wallet))
	require.Equal(t, uint64(30), f.balance(session.Vault))
	require.True(t, session.Balanced())
}

func TestCollectOperatorFees(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.delegate(wallet, asset, testPrice, 100)
	_, err := f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{})
	require.NoError(t, err)

	_, err = f.engine.CollectOperatorFees(f.st, testForumName, wallet, asset, 30)
	require.ErrorIs(t, err, ErrIdentityMismatch)
	_, err = f.engine.CollectOperatorFees(f.st, testForumName, operator, asset, 31)
	require.ErrorIs(t, err, ErrInsufficientDelegatedFunds)

	session, err := f.engine.CollectOperatorFees(f.st, testForumName, operator, asset, 30)
	require.NoError(t, err)
	require.Zero(t, session.AmountForOperator)
	require.Equal(t, uint64(70), session.AmountForUser)
	require.Equal(t, uint64(30), f.balance(operator))
	require.Len(t, f.st.eventsOfType(events.TypeOperatorFeesCollected), 1)
}

func TestPayOutDetectsUnderfundedVault(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	f.delegate(wallet, asset, testPrice, 100)
	vault := f.session(asset).Vault
	f.st.balances[balanceKey{f.mint, vault}] = 20

	_, err := f.engine.Withdraw(f.st, testForumName, wallet, asset, 50)
	require.ErrorIs(t, err, ErrVaultUnderfunded)
	require.Equal(t, uint64(100), f.session(asset).AmountForUser)
}

func TestSetSessionOperatorRequiresSettledFees(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.delegate(wallet, asset, testPrice, 100)
	next := f.operator(OperatorPrice{})
	_, err := f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{})
	require.NoError(t, err)

	_, err = f.engine.SetSessionOperator(f.st, testForumName, wallet, asset, next)
	require.ErrorIs(t, err, ErrUnsettledFees)

	_, err = f.engine.CollectOperatorFees(f.st, testForumName, operator, asset, 30)
	require.NoError(t, err)
	session, err := f.engine.SetSessionOperator(f.st, testForumName, wallet, asset, next)
	require.NoError(t, err)
	require.Equal(t, next, session.Operator)

	_, err = f.engine.SetSessionOperator(f.st, testForumName, wallet, asset, solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestInitializeSession(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.operator(testPrice)

	_, err := f.engine.InitializeSession(f.st, testForumName, operator, asset, operator)
	require.ErrorIs(t, err, ErrNotOwned)
	_, err = f.engine.InitializeSession(f.st, testForumName, wallet, asset, solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrOperatorNotFound)

	session, err := f.engine.InitializeSession(f.st, testForumName, wallet, asset, operator)
	require.NoError(t, err)
	vault, err := f.engine.VaultAddress(testForumName, asset)
	require.NoError(t, err)
	require.Equal(t, vault, session.Vault)
	require.NotEqual(t, asset, vault)

	_, err = f.engine.InitializeSession(f.st, testForumName, wallet, asset, operator)
	require.ErrorIs(t, err, ErrSessionExists)
}

func TestSessionVaultFollowsProgramID(t *testing.T) {
	f := newFixture(t)
	wallet, asset := f.member()
	operator := f.operator(testPrice)

	defaultVault, err := f.engine.VaultAddress(testForumName, asset)
	require.NoError(t, err)

	f.engine.SetProgramID(solana.NewWallet().PublicKey())
	vault, err := f.engine.VaultAddress(testForumName, asset)
	require.NoError(t, err)
	require.NotEqual(t, defaultVault, vault)

	session, err := f.engine.InitializeSession(f.st, testForumName, wallet, asset, operator)
	require.NoError(t, err)
	require.Equal(t, vault, session.Vault)

	f.engine.SetProgramID(DefaultProgramID)
	again, err := f.engine.VaultAddress(testForumName, asset)
	require.NoError(t, err)
	require.Equal(t, defaultVault, again)
}

// Vault balance always equals deposits minus payouts, and the session's two
// buckets always add up to it.
func TestSessionConservation(t *testing.T) {
	f := newFixture(t)
	authorWallet, author := f.member()
	comment := f.comment(authorWallet, author, f.post(authorWallet, author))
	wallet, asset := f.member()
	f.updateUser(asset, func(u *User) { u.ActionPoints = ActionPoints{Post: 5, Comment: 5, Like: 5, Upvote: 5} })
	operator := f.delegate(wallet, asset, testPrice, 200)

	steps := []func() error{
		func() error {
			_, err := f.engine.OperatorAddReaction(f.st, testForumName, operator, asset, comment, ReactionLike)
			return err
		},
		func() error {
			_, err := f.engine.OperatorCreatePost(f.st, testForumName, operator, asset, PostInput{Interactable: true})
			return err
		},
		func() error {
			_, err := f.engine.Withdraw(f.st, testForumName, wallet, asset, 40)
			return err
		},
		func() error {
			_, err := f.engine.OperatorAddComment(f.st, testForumName, operator, asset, PostRef{Author: author, Sequence: 1}, "x")
			return err
		},
		func() error {
			_, err := f.engine.CollectOperatorFees(f.st, testForumName, operator, asset, 20)
			return err
		},
		func() error {
			_, err := f.engine.OperatorAddComment(f.st, testForumName, operator, asset, PostRef{Author: author, Sequence: 1}, "y")
			return err
		},
		func() error {
			f.fund(wallet, 25)
			_, err := f.engine.Deposit(f.st, testForumName, wallet, asset, 25)
			return err
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		s := f.session(asset)
		require.True(t, s.Balanced(), "step %d", i)
		require.Equal(t, s.TotalDeposited-s.TotalWithdrawn, f.balance(s.Vault), "step %d", i)
	}
	s := f.session(asset)
	require.Equal(t, uint64(225), s.TotalDeposited)
	require.Equal(t, uint64(60), s.TotalWithdrawn)
}
