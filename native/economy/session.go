package economy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

var sessionSeed = []byte("operatorsession")

// VaultAddress derives the token account holding a session's funds.
func (e *Engine) VaultAddress(forum string, user solana.PublicKey) (solana.PublicKey, error) {
	vault, _, err := solana.FindProgramAddress([][]byte{sessionSeed, []byte(forum), user[:]}, e.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("economy: derive session vault: %w", err)
	}
	return vault, nil
}

func sessionEvent(kind string, s *OperatorSession, amount uint64) events.SessionEvent {
	return events.SessionEvent{
		Kind:              kind,
		Forum:             s.Forum,
		Participant:       s.User,
		Operator:          s.Operator,
		Vault:             s.Vault,
		Amount:            amount,
		AmountForUser:     s.AmountForUser,
		AmountForOperator: s.AmountForOperator,
	}
}

// InitializeSession opens an empty delegation sub-ledger bound to operator.
func (e *Engine) InitializeSession(st State, forumName string, actor, asset, operator solana.PublicKey) (*OperatorSession, error) {
	if _, err := e.loadForum(st, forumName); err != nil {
		return nil, err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return nil, err
	}
	if _, err := e.requirePrincipal(st, actor, user); err != nil {
		return nil, err
	}
	if _, err := e.loadOperator(st, operator); err != nil {
		return nil, err
	}
	if _, ok, err := st.EconomySessionGet(forumName, asset); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, asset)
	}
	vault, err := e.VaultAddress(forumName, asset)
	if err != nil {
		return nil, err
	}
	session := &OperatorSession{Forum: forumName, User: asset, Operator: operator, Vault: vault}
	if err := st.EconomySessionPut(session); err != nil {
		return nil, err
	}
	emit(st, sessionEvent(events.TypeSessionOpened, session, 0))
	return session.Clone(), nil
}

// principalSession loads the session after checking that actor holds the
// participant's asset.
func (e *Engine) principalSession(st State, forumName string, actor, asset solana.PublicKey) (*Forum, *OperatorSession, error) {
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, nil, err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return nil, nil, err
	}
	if _, err := e.requirePrincipal(st, actor, user); err != nil {
		return nil, nil, err
	}
	session, err := e.loadSession(st, forumName, asset)
	if err != nil {
		return nil, nil, err
	}
	return forum, session, nil
}

// Deposit moves amount tokens from the actor into the session vault and makes
// them spendable by the operator.
func (e *Engine) Deposit(st State, forumName string, actor, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: deposit must be positive", ErrInvalidInput)
	}
	forum, session, err := e.principalSession(st, forumName, actor, asset)
	if err != nil {
		return nil, err
	}
	if e.params.DepositMode == DepositOnce && session.TotalDeposited > 0 {
		return nil, ErrSessionAlreadyFunded
	}
	forUser, err := checkedAdd(session.AmountForUser, amount)
	if err != nil {
		return nil, err
	}
	deposited, err := checkedAdd(session.TotalDeposited, amount)
	if err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(st, forum.Mint, actor, session.Vault, amount); err != nil {
		return nil, fmt.Errorf("economy: fund session: %w", err)
	}
	session.AmountForUser = forUser
	session.TotalDeposited = deposited
	if err := st.EconomySessionPut(session); err != nil {
		return nil, err
	}
	emit(st, sessionEvent(events.TypeSessionFunded, session, amount))
	return session.Clone(), nil
}

// Withdraw returns unspent session funds to the actor.
func (e *Engine) Withdraw(st State, forumName string, actor, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: withdrawal must be positive", ErrInvalidInput)
	}
	forum, session, err := e.principalSession(st, forumName, actor, asset)
	if err != nil {
		return nil, err
	}
	if amount > session.AmountForUser {
		return nil, fmt.Errorf("%w: have %d, requested %d", ErrInsufficientDelegatedFunds, session.AmountForUser, amount)
	}
	if err := e.payOut(st, forum, session, actor, amount); err != nil {
		return nil, err
	}
	session.AmountForUser -= amount
	if err := st.EconomySessionPut(session); err != nil {
		return nil, err
	}
	emit(st, sessionEvent(events.TypeSessionWithdrawn, session, amount))
	return session.Clone(), nil
}

// CollectOperatorFees pays accrued fees out of the vault to the bound
// operator.
func (e *Engine) CollectOperatorFees(st State, forumName string, operator, asset solana.PublicKey, amount uint64) (*OperatorSession, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: collection must be positive", ErrInvalidInput)
	}
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, err
	}
	session, err := e.loadSession(st, forumName, asset)
	if err != nil {
		return nil, err
	}
	if !session.Operator.Equals(operator) {
		return nil, fmt.Errorf("%w: session bound to %s", ErrIdentityMismatch, session.Operator)
	}
	if amount > session.AmountForOperator {
		return nil, fmt.Errorf("%w: accrued %d, requested %d", ErrInsufficientDelegatedFunds, session.AmountForOperator, amount)
	}
	if err := e.payOut(st, forum, session, operator, amount); err != nil {
		return nil, err
	}
	session.AmountForOperator -= amount
	if err := st.EconomySessionPut(session); err != nil {
		return nil, err
	}
	emit(st, sessionEvent(events.TypeOperatorFeesCollected, session, amount))
	return session.Clone(), nil
}

func (e *Engine) payOut(st State, forum *Forum, session *OperatorSession, to solana.PublicKey, amount uint64) error {
	balance, err := e.tokens.BalanceOf(st, forum.Mint, session.Vault)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: vault holds %d, requested %d", ErrVaultUnderfunded, balance, amount)
	}
	withdrawn, err := checkedAdd(session.TotalWithdrawn, amount)
	if err != nil {
		return err
	}
	if err := e.tokens.Transfer(st, forum.Mint, session.Vault, to, amount); err != nil {
		return fmt.Errorf("economy: pay out session: %w", err)
	}
	session.TotalWithdrawn = withdrawn
	return nil
}

// SetSessionOperator rebinds the session to another operator. Funds do not
// move, so accrued fees must be collected first.
func (e *Engine) SetSessionOperator(st State, forumName string, actor, asset, operator solana.PublicKey) (*OperatorSession, error) {
	_, session, err := e.principalSession(st, forumName, actor, asset)
	if err != nil {
		return nil, err
	}
	if _, err := e.loadOperator(st, operator); err != nil {
		return nil, err
	}
	if session.AmountForOperator > 0 {
		return nil, fmt.Errorf("%w: %d owed to %s", ErrUnsettledFees, session.AmountForOperator, session.Operator)
	}
	session.Operator = operator
	if err := st.EconomySessionPut(session); err != nil {
		return nil, err
	}
	emit(st, sessionEvent(events.TypeSessionOpened, session, 0))
	return session.Clone(), nil
}
