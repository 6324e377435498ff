package economy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// CallerKind distinguishes who is acting for a participant.
type CallerKind uint8

const (
	CallerPrincipal CallerKind = iota + 1
	CallerOperator
)

func (k CallerKind) String() string {
	switch k {
	case CallerPrincipal:
		return "principal"
	case CallerOperator:
		return "operator"
	}
	return "unknown"
}

// Caller is the resolved capability of an actor over a participant.
type Caller struct {
	Kind  CallerKind
	Actor solana.PublicKey
}

// resolveCaller decides once per action whether the actor holds the
// participant's asset or is its bound operator.
func (e *Engine) resolveCaller(st State, actor solana.PublicKey, user *User) (Caller, error) {
	if e.owners != nil {
		ok, err := e.owners.Controls(st, actor, user.Asset)
		if err != nil {
			return Caller{}, err
		}
		if ok {
			return Caller{Kind: CallerPrincipal, Actor: actor}, nil
		}
	}
	if user.Operator != nil && user.Operator.Equals(actor) {
		return Caller{Kind: CallerOperator, Actor: actor}, nil
	}
	return Caller{}, fmt.Errorf("%w: %s", ErrNotOwned, actor)
}

func (e *Engine) requirePrincipal(st State, actor solana.PublicKey, user *User) (Caller, error) {
	caller, err := e.resolveCaller(st, actor, user)
	if err != nil {
		return Caller{}, err
	}
	if caller.Kind != CallerPrincipal {
		return Caller{}, fmt.Errorf("%w: operator cannot act as principal", ErrNotOwned)
	}
	return caller, nil
}

func (e *Engine) requireOperator(st State, actor solana.PublicKey, user *User) (Caller, error) {
	if user.Operator == nil {
		return Caller{}, ErrOperatorNotBound
	}
	if !user.Operator.Equals(actor) {
		return Caller{}, fmt.Errorf("%w: %s is not the bound operator", ErrIdentityMismatch, actor)
	}
	return Caller{Kind: CallerOperator, Actor: actor}, nil
}

func (e *Engine) verifyCollection(st State, forum *Forum, asset solana.PublicKey) error {
	if e.collections == nil {
		return nil
	}
	if err := e.collections.VerifyCollection(st, asset, forum.Collection); err != nil {
		return fmt.Errorf("%w: %v", ErrNotVerified, err)
	}
	return nil
}
