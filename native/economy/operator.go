package economy

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// InitializeOperatorPool creates the singleton operator registry.
func (e *Engine) InitializeOperatorPool(st State, authority solana.PublicKey) (*OperatorPool, error) {
	if st == nil {
		return nil, errNilState
	}
	if authority.IsZero() {
		return nil, fmt.Errorf("%w: pool authority required", ErrInvalidInput)
	}
	if _, ok, err := st.EconomyOperatorPoolGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPoolExists
	}
	pool := &OperatorPool{Authority: authority}
	if err := st.EconomyOperatorPoolPut(pool); err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// InitializeOperator registers authority as an operator with the given price
// list, which also becomes its staged next-round price.
func (e *Engine) InitializeOperator(st State, authority solana.PublicKey, name string, price OperatorPrice) (*Operator, error) {
	if st == nil {
		return nil, errNilState
	}
	name = strings.TrimSpace(name)
	if authority.IsZero() || name == "" || len(name) > MaxOperatorNameLength {
		return nil, fmt.Errorf("%w: operator authority and a 1-%d byte name required", ErrInvalidInput, MaxOperatorNameLength)
	}
	pool, ok, err := st.EconomyOperatorPoolGet()
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	if _, ok, err := st.EconomyOperatorGet(authority); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorExists, authority)
	}
	op := &Operator{Authority: authority, Name: name, Price: price, NextRoundPrice: price}
	if err := st.EconomyOperatorPut(op); err != nil {
		return nil, err
	}
	pool.Operators = append(pool.Operators, authority)
	if err := st.EconomyOperatorPoolPut(pool); err != nil {
		return nil, err
	}
	emit(st, events.OperatorRegistered{
		Authority:  authority,
		Name:       name,
		PerPost:    price.PerPost,
		PerComment: price.PerComment,
		PerLike:    price.PerLike,
		PerVote:    price.PerVote,
	})
	return op.Clone(), nil
}

// StageOperatorPrice sets the price the operator will charge once applied.
func (e *Engine) StageOperatorPrice(st State, authority solana.PublicKey, price OperatorPrice) error {
	if st == nil {
		return errNilState
	}
	op, err := e.loadOperator(st, authority)
	if err != nil {
		return err
	}
	op.NextRoundPrice = price
	return st.EconomyOperatorPut(op)
}

// ApplyOperatorPrice promotes the staged price to the current price.
func (e *Engine) ApplyOperatorPrice(st State, authority solana.PublicKey) (*Operator, error) {
	if st == nil {
		return nil, errNilState
	}
	op, err := e.loadOperator(st, authority)
	if err != nil {
		return nil, err
	}
	op.Price = op.NextRoundPrice
	if err := st.EconomyOperatorPut(op); err != nil {
		return nil, err
	}
	emit(st, events.OperatorRegistered{
		Authority:  authority,
		Name:       op.Name,
		PerPost:    op.Price.PerPost,
		PerComment: op.Price.PerComment,
		PerLike:    op.Price.PerLike,
		PerVote:    op.Price.PerVote,
	})
	return op.Clone(), nil
}

// Operator returns a registered operator.
func (e *Engine) Operator(st State, authority solana.PublicKey) (*Operator, error) {
	if st == nil {
		return nil, errNilState
	}
	return e.loadOperator(st, authority)
}
