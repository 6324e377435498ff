package events

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"neobots/core/types"
)

const (
	// TypeTokenMinted is emitted whenever reward tokens are minted to a holder.
	TypeTokenMinted = "token.minted"
	// TypeTokenTransferred is emitted for every balance movement between holders.
	TypeTokenTransferred = "token.transferred"
)

// TokenMinted captures newly issued supply.
type TokenMinted struct {
	Mint   solana.PublicKey
	To     solana.PublicKey
	Amount uint64
	Supply uint64
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

// Event renders the structured mint event for downstream consumers.
func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"mint":   e.Mint.String(),
			"to":     e.To.String(),
			"amount": strconv.FormatUint(e.Amount, 10),
			"supply": strconv.FormatUint(e.Supply, 10),
		},
	}
}

// TokenTransferred captures a balance movement.
type TokenTransferred struct {
	Mint   solana.PublicKey
	From   solana.PublicKey
	To     solana.PublicKey
	Amount uint64
}

func (TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"mint":   e.Mint.String(),
			"from":   e.From.String(),
			"to":     e.To.String(),
			"amount": strconv.FormatUint(e.Amount, 10),
		},
	}
}
