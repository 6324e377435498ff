package bank

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"neobots/core/events"
	"neobots/core/types"
)

var (
	ErrInvalidAmount       = errors.New("bank: amount must be positive")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrSupplyOverflow      = errors.New("bank: supply overflow")
	ErrInvalidAccount      = errors.New("bank: invalid account")
)

// State is the storage the ledger needs. Balances are kept per (mint, owner).
type State interface {
	BankBalance(mint, owner solana.PublicKey) (uint64, error)
	SetBankBalance(mint, owner solana.PublicKey, amount uint64) error
	BankSupply(mint solana.PublicKey) (uint64, error)
	SetBankSupply(mint solana.PublicKey, amount uint64) error
	AppendEvent(evt *types.Event)
}

// Ledger is the value-transfer primitive: it mints reward tokens and moves
// them between accounts.
type Ledger struct{}

// NewLedger constructs a ledger.
func NewLedger() *Ledger { return &Ledger{} }

// BalanceOf returns the owner's balance of the mint.
func (l *Ledger) BalanceOf(st State, mint, owner solana.PublicKey) (uint64, error) {
	return st.BankBalance(mint, owner)
}

// Mint creates amount new tokens and credits them to the recipient.
func (l *Ledger) Mint(st State, mint, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if to.IsZero() {
		return ErrInvalidAccount
	}
	supply, err := st.BankSupply(mint)
	if err != nil {
		return err
	}
	balance, err := st.BankBalance(mint, to)
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(supply), uint256.NewInt(amount))
	if overflow || !newSupply.IsUint64() {
		return ErrSupplyOverflow
	}
	// balance <= supply, so the balance cannot overflow once the supply fits.
	if err := st.SetBankSupply(mint, newSupply.Uint64()); err != nil {
		return err
	}
	if err := st.SetBankBalance(mint, to, balance+amount); err != nil {
		return err
	}
	st.AppendEvent(events.TokenMinted{Mint: mint, To: to, Amount: amount, Supply: newSupply.Uint64()}.Event())
	return nil
}

// Transfer moves amount tokens from one account to another.
func (l *Ledger) Transfer(st State, mint, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if to.IsZero() || from.IsZero() {
		return ErrInvalidAccount
	}
	fromBalance, err := st.BankBalance(mint, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, fromBalance, amount)
	}
	if from.Equals(to) {
		return nil
	}
	toBalance, err := st.BankBalance(mint, to)
	if err != nil {
		return err
	}
	if err := st.SetBankBalance(mint, from, fromBalance-amount); err != nil {
		return err
	}
	if err := st.SetBankBalance(mint, to, toBalance+amount); err != nil {
		return err
	}
	st.AppendEvent(events.TokenTransferred{Mint: mint, From: from, To: to, Amount: amount}.Event())
	return nil
}
