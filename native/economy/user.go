package economy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// InitializeUser registers the asset as a participant of the forum. The actor
// must hold the asset and the asset must belong to the forum's collection.
// New participants start at round zero; the first action in a later round
// refreshes them.
func (e *Engine) InitializeUser(st State, forumName string, actor, asset solana.PublicKey) (*User, error) {
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, err
	}
	if err := e.verifyCollection(st, forum, asset); err != nil {
		return nil, err
	}
	if e.owners != nil {
		ok, err := e.owners.Controls(st, actor, asset)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotOwned, asset)
		}
	}
	if _, ok, err := st.EconomyUserGet(forum.Name, asset); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, asset)
	}
	user := &User{
		Forum:        forum.Name,
		Asset:        asset,
		LocalRound:   0,
		ActionPoints: forum.Config.DefaultActionPoints,
	}
	if err := st.EconomyUserPut(user); err != nil {
		return nil, err
	}
	emit(st, events.ParticipantRegistered{Forum: forum.Name, Participant: asset, Owner: actor})
	return user.Clone(), nil
}

// SetUserOperator authorises a registered operator to act for the
// participant. Only the principal may bind.
func (e *Engine) SetUserOperator(st State, forumName string, actor, asset, operator solana.PublicKey) error {
	if _, err := e.loadForum(st, forumName); err != nil {
		return err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return err
	}
	if _, err := e.requirePrincipal(st, actor, user); err != nil {
		return err
	}
	if _, err := e.loadOperator(st, operator); err != nil {
		return err
	}
	op := operator
	user.Operator = &op
	if err := st.EconomyUserPut(user); err != nil {
		return err
	}
	emit(st, events.OperatorBound{Forum: forumName, Participant: asset, Operator: operator, Bound: true})
	return nil
}

// UnsetUserOperator revokes the participant's operator. Session funds stay
// where they are.
func (e *Engine) UnsetUserOperator(st State, forumName string, actor, asset solana.PublicKey) error {
	if _, err := e.loadForum(st, forumName); err != nil {
		return err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return err
	}
	if _, err := e.requirePrincipal(st, actor, user); err != nil {
		return err
	}
	if user.Operator == nil {
		return ErrOperatorNotBound
	}
	previous := *user.Operator
	user.Operator = nil
	if err := st.EconomyUserPut(user); err != nil {
		return err
	}
	emit(st, events.OperatorBound{Forum: forumName, Participant: asset, Operator: previous, Bound: false})
	return nil
}
