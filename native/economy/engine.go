package economy

import (
	"context"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"neobots/core/types"
	"neobots/native/bank"
	"neobots/native/identity"
)

// State is the record store the engine operates on. Reads return copies;
// writes replace the stored record.
type State interface {
	bank.State
	identity.State

	EconomyForumGet(name string) (*Forum, bool, error)
	EconomyForumPut(forum *Forum) error
	EconomyUserGet(forum string, asset solana.PublicKey) (*User, bool, error)
	EconomyUserPut(user *User) error
	EconomyPostGet(forum string, author solana.PublicKey, sequence uint64) (*Post, bool, error)
	EconomyPostPut(post *Post) error
	EconomyOperatorPoolGet() (*OperatorPool, bool, error)
	EconomyOperatorPoolPut(pool *OperatorPool) error
	EconomyOperatorGet(authority solana.PublicKey) (*Operator, bool, error)
	EconomyOperatorPut(operator *Operator) error
	EconomySessionGet(forum string, user solana.PublicKey) (*OperatorSession, bool, error)
	EconomySessionPut(session *OperatorSession) error
	EconomyRewardRecordAppend(record *RewardRecord) error
}

// Store runs operations atomically. fn either commits in full or not at all.
type Store interface {
	Update(ctx context.Context, fn func(State) error) error
	View(ctx context.Context, fn func(State) error) error
}

// OwnershipVerifier answers whether an actor holds an asset.
type OwnershipVerifier interface {
	Controls(st identity.State, actor, asset solana.PublicKey) (bool, error)
}

// CollectionVerifier answers whether an asset belongs to a collection.
type CollectionVerifier interface {
	VerifyCollection(st identity.State, asset, collection solana.PublicKey) error
}

// AssetRegistry records the assets that ownership and collection checks
// consult.
type AssetRegistry interface {
	Register(st identity.State, asset *identity.Asset) error
}

// TokenLedger is the value-transfer primitive.
type TokenLedger interface {
	Mint(st bank.State, mint, to solana.PublicKey, amount uint64) error
	Transfer(st bank.State, mint, from, to solana.PublicKey, amount uint64) error
	BalanceOf(st bank.State, mint, owner solana.PublicKey) (uint64, error)
}

// Engine implements the round and reward economy on top of a State.
type Engine struct {
	params      Params
	clock       clockwork.Clock
	owners      OwnershipVerifier
	collections CollectionVerifier
	assets      AssetRegistry
	tokens      TokenLedger
	programID   solana.PublicKey
	newID       func() string
}

// DefaultProgramID seeds the derivation of session vault addresses.
var DefaultProgramID = solana.PublicKeyFromBytes(ethcrypto.Keccak256([]byte("neobots/economy")))

// NewEngine constructs an engine with default collaborators.
func NewEngine() *Engine {
	registry := identity.NewRegistry()
	return &Engine{
		params:      DefaultParams(),
		clock:       clockwork.NewRealClock(),
		owners:      registry,
		collections: registry,
		assets:      registry,
		tokens:      bank.NewLedger(),
		programID:   DefaultProgramID,
		newID:       uuid.NewString,
	}
}

// SetParams replaces the engine parameters.
func (e *Engine) SetParams(params Params) error {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active parameters.
func (e *Engine) Params() Params { return e.params }

// SetClock overrides the time source used for deterministic testing.
func (e *Engine) SetClock(clock clockwork.Clock) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e.clock = clock
}

// SetOwnershipVerifier configures the ownership collaborator.
func (e *Engine) SetOwnershipVerifier(v OwnershipVerifier) { e.owners = v }

// SetCollectionVerifier configures the collection-membership collaborator.
func (e *Engine) SetCollectionVerifier(v CollectionVerifier) { e.collections = v }

// SetAssetRegistry configures where RegisterAsset writes. A nil registry
// restores the state-backed default.
func (e *Engine) SetAssetRegistry(r AssetRegistry) {
	if r == nil {
		r = identity.NewRegistry()
	}
	e.assets = r
}

// RegisterAsset records an asset through the configured registry.
func (e *Engine) RegisterAsset(st State, asset identity.Asset) error {
	if st == nil {
		return errNilState
	}
	return e.assets.Register(st, &asset)
}

// SetTokenLedger configures the value-transfer collaborator.
func (e *Engine) SetTokenLedger(l TokenLedger) { e.tokens = l }

// SetProgramID configures the seed program of vault addresses.
func (e *Engine) SetProgramID(id solana.PublicKey) { e.programID = id }

// SetIDFunc overrides the generator of reward record identifiers.
func (e *Engine) SetIDFunc(fn func() string) {
	if fn == nil {
		fn = uuid.NewString
	}
	e.newID = fn
}

func (e *Engine) now() int64 {
	if e == nil || e.clock == nil {
		return clockwork.NewRealClock().Now().Unix()
	}
	return e.clock.Now().Unix()
}

func emit(st State, evt interface{ Event() *types.Event }) {
	st.AppendEvent(evt.Event())
}

func (e *Engine) loadForum(st State, name string) (*Forum, error) {
	if st == nil {
		return nil, errNilState
	}
	forum, ok, err := st.EconomyForumGet(name)
	if err != nil {
		return nil, err
	}
	if !ok || forum == nil {
		return nil, fmt.Errorf("%w: %q", ErrForumNotFound, name)
	}
	return forum, nil
}

func (e *Engine) loadUser(st State, forum string, asset solana.PublicKey) (*User, error) {
	user, ok, err := st.EconomyUserGet(forum, asset)
	if err != nil {
		return nil, err
	}
	if !ok || user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, asset)
	}
	return user, nil
}

func (e *Engine) loadOperator(st State, authority solana.PublicKey) (*Operator, error) {
	op, ok, err := st.EconomyOperatorGet(authority)
	if err != nil {
		return nil, err
	}
	if !ok || op == nil {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, authority)
	}
	return op, nil
}

func (e *Engine) loadSession(st State, forum string, user solana.PublicKey) (*OperatorSession, error) {
	session, ok, err := st.EconomySessionGet(forum, user)
	if err != nil {
		return nil, err
	}
	if !ok || session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, user)
	}
	return session, nil
}

// Forum returns the named forum.
func (e *Engine) Forum(st State, name string) (*Forum, error) {
	return e.loadForum(st, name)
}

// User returns a participant without refreshing it.
func (e *Engine) User(st State, forum string, asset solana.PublicKey) (*User, error) {
	if st == nil {
		return nil, errNilState
	}
	return e.loadUser(st, forum, asset)
}

// Session returns the participant's delegation sub-ledger.
func (e *Engine) Session(st State, forum string, user solana.PublicKey) (*OperatorSession, error) {
	if st == nil {
		return nil, errNilState
	}
	return e.loadSession(st, forum, user)
}
