package economy

import (
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"neobots/core/types"
	"neobots/native/bank"
	"neobots/native/identity"
)

type userKey struct {
	forum string
	asset solana.PublicKey
}

type postKey struct {
	forum    string
	author   solana.PublicKey
	sequence uint64
}

type balanceKey struct {
	mint  solana.PublicKey
	owner solana.PublicKey
}

type mockState struct {
	forums    map[string]*Forum
	users     map[userKey]*User
	posts     map[postKey]*Post
	pool      *OperatorPool
	operators map[solana.PublicKey]*Operator
	sessions  map[userKey]*OperatorSession
	records   []*RewardRecord
	assets    map[solana.PublicKey]*identity.Asset
	balances  map[balanceKey]uint64
	supply    map[solana.PublicKey]uint64
	events    []types.Event
}

func newMockState() *mockState {
	return &mockState{
		forums:    make(map[string]*Forum),
		users:     make(map[userKey]*User),
		posts:     make(map[postKey]*Post),
		operators: make(map[solana.PublicKey]*Operator),
		sessions:  make(map[userKey]*OperatorSession),
		assets:    make(map[solana.PublicKey]*identity.Asset),
		balances:  make(map[balanceKey]uint64),
		supply:    make(map[solana.PublicKey]uint64),
	}
}

func (m *mockState) EconomyForumGet(name string) (*Forum, bool, error) {
	f, ok := m.forums[name]
	if !ok {
		return nil, false, nil
	}
	return f.Clone(), true, nil
}

func (m *mockState) EconomyForumPut(forum *Forum) error {
	m.forums[forum.Name] = forum.Clone()
	return nil
}

func (m *mockState) EconomyUserGet(forum string, asset solana.PublicKey) (*User, bool, error) {
	u, ok := m.users[userKey{forum, asset}]
	if !ok {
		return nil, false, nil
	}
	return u.Clone(), true, nil
}

func (m *mockState) EconomyUserPut(user *User) error {
	m.users[userKey{user.Forum, user.Asset}] = user.Clone()
	return nil
}

func (m *mockState) EconomyPostGet(forum string, author solana.PublicKey, sequence uint64) (*Post, bool, error) {
	p, ok := m.posts[postKey{forum, author, sequence}]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) EconomyPostPut(post *Post) error {
	m.posts[postKey{post.Forum, post.Author, post.Sequence}] = post.Clone()
	return nil
}

func (m *mockState) EconomyOperatorPoolGet() (*OperatorPool, bool, error) {
	if m.pool == nil {
		return nil, false, nil
	}
	return m.pool.Clone(), true, nil
}

func (m *mockState) EconomyOperatorPoolPut(pool *OperatorPool) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) EconomyOperatorGet(authority solana.PublicKey) (*Operator, bool, error) {
	op, ok := m.operators[authority]
	if !ok {
		return nil, false, nil
	}
	return op.Clone(), true, nil
}

func (m *mockState) EconomyOperatorPut(op *Operator) error {
	m.operators[op.Authority] = op.Clone()
	return nil
}

func (m *mockState) EconomySessionGet(forum string, user solana.PublicKey) (*OperatorSession, bool, error) {
	s, ok := m.sessions[userKey{forum, user}]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) EconomySessionPut(session *OperatorSession) error {
	m.sessions[userKey{session.Forum, session.User}] = session.Clone()
	return nil
}

func (m *mockState) EconomyRewardRecordAppend(record *RewardRecord) error {
	clone := *record
	m.records = append(m.records, &clone)
	return nil
}

func (m *mockState) IdentityAssetGet(id solana.PublicKey) (*identity.Asset, bool, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) IdentityAssetPut(asset *identity.Asset) error {
	m.assets[asset.ID] = asset.Clone()
	return nil
}

func (m *mockState) BankBalance(mint, owner solana.PublicKey) (uint64, error) {
	return m.balances[balanceKey{mint, owner}], nil
}

func (m *mockState) SetBankBalance(mint, owner solana.PublicKey, amount uint64) error {
	m.balances[balanceKey{mint, owner}] = amount
	return nil
}

func (m *mockState) BankSupply(mint solana.PublicKey) (uint64, error) {
	return m.supply[mint], nil
}

func (m *mockState) SetBankSupply(mint solana.PublicKey, amount uint64) error {
	m.supply[mint] = amount
	return nil
}

func (m *mockState) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	m.events = append(m.events, *evt.Clone())
}

func (m *mockState) eventsOfType(eventType string) []types.Event {
	var out []types.Event
	for _, evt := range m.events {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

const testForumName = "neobots"

var testStart = time.Unix(1_700_000_000, 0)

// fixture is a forum with a fake clock and helpers to enrol members.
type fixture struct {
	t          *testing.T
	st         *mockState
	engine     *Engine
	clock      *clockwork.FakeClock
	admin      solana.PublicKey
	mint       solana.PublicKey
	collection solana.PublicKey
	nextID     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:          t,
		st:         newMockState(),
		engine:     NewEngine(),
		clock:      clockwork.NewFakeClockAt(testStart),
		admin:      solana.NewWallet().PublicKey(),
		mint:       solana.NewWallet().PublicKey(),
		collection: solana.NewWallet().PublicKey(),
	}
	f.engine.SetClock(f.clock)
	f.engine.SetIDFunc(func() string {
		f.nextID++
		return fmt.Sprintf("record-%d", f.nextID)
	})
	_, err := f.engine.InitializeForum(f.st, ForumSetup{Name: testForumName, Admin: f.admin, Mint: f.mint, Collection: f.collection})
	require.NoError(t, err)
	return f
}

// member enrols a verified asset and returns (wallet, asset).
func (f *fixture) member() (solana.PublicKey, solana.PublicKey) {
	f.t.Helper()
	wallet := solana.NewWallet().PublicKey()
	asset := solana.NewWallet().PublicKey()
	require.NoError(f.t, f.engine.RegisterAsset(f.st, identity.Asset{ID: asset, Owner: wallet, Collection: f.collection, Verified: true}))
	_, err := f.engine.InitializeUser(f.st, testForumName, wallet, asset)
	require.NoError(f.t, err)
	return wallet, asset
}

func (f *fixture) forum() *Forum {
	f.t.Helper()
	forum, ok, err := f.st.EconomyForumGet(testForumName)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return forum
}

func (f *fixture) updateForum(fn func(*Forum)) {
	f.t.Helper()
	forum := f.forum()
	fn(forum)
	require.NoError(f.t, f.st.EconomyForumPut(forum))
}

func (f *fixture) user(asset solana.PublicKey) *User {
	f.t.Helper()
	user, ok, err := f.st.EconomyUserGet(testForumName, asset)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return user
}

func (f *fixture) updateUser(asset solana.PublicKey, fn func(*User)) {
	f.t.Helper()
	user := f.user(asset)
	fn(user)
	require.NoError(f.t, f.st.EconomyUserPut(user))
}

func (f *fixture) post(wallet, asset solana.PublicKey) PostRef {
	f.t.Helper()
	receipt, err := f.engine.CreatePost(f.st, testForumName, wallet, asset, PostInput{Content: "post", Interactable: true})
	require.NoError(f.t, err)
	return PostRef{Author: asset, Sequence: receipt.Sequence}
}

func (f *fixture) comment(wallet, asset solana.PublicKey, post PostRef) CommentRef {
	f.t.Helper()
	receipt, err := f.engine.AddComment(f.st, testForumName, wallet, asset, post, "comment")
	require.NoError(f.t, err)
	return CommentRef{Author: asset, Sequence: receipt.Sequence}
}

func (f *fixture) balance(owner solana.PublicKey) uint64 {
	return f.st.balances[balanceKey{f.mint, owner}]
}

func (f *fixture) fund(owner solana.PublicKey, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, bank.NewLedger().Mint(f.st, f.mint, owner, amount))
}

var _ State = (*mockState)(nil)

// operator registers a fresh operator authority, creating the pool on first
// use.
func (f *fixture) operator(price OperatorPrice) solana.PublicKey {
	f.t.Helper()
	if f.st.pool == nil {
		_, err := f.engine.InitializeOperatorPool(f.st, f.admin)
		require.NoError(f.t, err)
	}
	authority := solana.NewWallet().PublicKey()
	_, err := f.engine.InitializeOperator(f.st, authority, "bot", price)
	require.NoError(f.t, err)
	return authority
}

// delegate binds a new operator to the member and opens a session funded with
// deposit tokens.
func (f *fixture) delegate(wallet, asset solana.PublicKey, price OperatorPrice, deposit uint64) solana.PublicKey {
	f.t.Helper()
	operator := f.operator(price)
	require.NoError(f.t, f.engine.SetUserOperator(f.st, testForumName, wallet, asset, operator))
	_, err := f.engine.InitializeSession(f.st, testForumName, wallet, asset, operator)
	require.NoError(f.t, err)
	if deposit > 0 {
		f.fund(wallet, deposit)
		_, err = f.engine.Deposit(f.st, testForumName, wallet, asset, deposit)
		require.NoError(f.t, err)
	}
	return operator
}

func (f *fixture) session(asset solana.PublicKey) *OperatorSession {
	f.t.Helper()
	session, ok, err := f.st.EconomySessionGet(testForumName, asset)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return session
}
