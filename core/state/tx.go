package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"neobots/core/types"
	"neobots/native/economy"
	"neobots/native/identity"
)

// Tx is a transaction overlay. It records the version of every record it
// reads so the commit can detect concurrent modification.
type Tx struct {
	m        *Manager
	reads    map[string]uint64
	writes   map[string][]byte
	order    []string
	events   []*types.Event
	readOnly bool
	done     bool
}

func (tx *Tx) get(key []byte, out interface{}) (bool, error) {
	k := string(key)
	if data, ok := tx.writes[k]; ok {
		if err := rlp.DecodeBytes(data, out); err != nil {
			return false, fmt.Errorf("state: decode record: %w", err)
		}
		return true, nil
	}
	env, err := tx.m.load(key)
	if err != nil {
		return false, err
	}
	if _, seen := tx.reads[k]; !seen {
		if env == nil {
			tx.reads[k] = 0
		} else {
			tx.reads[k] = env.Version
		}
	}
	if env == nil {
		return false, nil
	}
	if err := rlp.DecodeBytes(env.Data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (tx *Tx) put(key []byte, value interface{}) error {
	if tx.readOnly {
		return fmt.Errorf("state: write in read-only transaction")
	}
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	k := string(key)
	if _, ok := tx.writes[k]; !ok {
		tx.order = append(tx.order, k)
	}
	tx.writes[k] = data
	return nil
}

// AppendEvent buffers an event until commit.
func (tx *Tx) AppendEvent(evt *types.Event) {
	if evt == nil || tx.readOnly {
		return
	}
	tx.events = append(tx.events, evt.Clone())
}

// Events returns the events buffered so far.
func (tx *Tx) Events() []*types.Event {
	out := make([]*types.Event, len(tx.events))
	for i, evt := range tx.events {
		out[i] = evt.Clone()
	}
	return out
}

func forumKey(name string) []byte { return recordKey(forumPrefix, []byte(name)) }

func userKey(forum string, asset solana.PublicKey) []byte {
	return recordKey(userPrefix, []byte(forum), asset[:])
}

func postKey(forum string, author solana.PublicKey, sequence uint64) []byte {
	return recordKey(postPrefix, []byte(forum), author[:], uint64Bytes(sequence))
}

func operatorKey(authority solana.PublicKey) []byte { return recordKey(operatorPrefix, authority[:]) }

func sessionKey(forum string, user solana.PublicKey) []byte {
	return recordKey(sessionPrefix, []byte(forum), user[:])
}

func rewardRecordKey(id string) []byte { return recordKey(rewardRecordPrefix, []byte(id)) }

func rewardCountKey(forum string, participant solana.PublicKey) []byte {
	return recordKey(rewardCountPrefix, []byte(forum), participant[:])
}

func rewardIndexKey(forum string, participant solana.PublicKey, n uint64) []byte {
	return recordKey(rewardIndexPrefix, []byte(forum), participant[:], uint64Bytes(n))
}

func assetKey(id solana.PublicKey) []byte { return recordKey(assetPrefix, id[:]) }

func balanceKey(mint, owner solana.PublicKey) []byte {
	return recordKey(balancePrefix, mint[:], owner[:])
}

func supplyKey(mint solana.PublicKey) []byte { return recordKey(supplyPrefix, mint[:]) }

// EconomyForumGet implements economy.State.
func (tx *Tx) EconomyForumGet(name string) (*economy.Forum, bool, error) {
	stored := new(storedForum)
	ok, err := tx.get(forumKey(name), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toForum(), true, nil
}

// EconomyForumPut implements economy.State.
func (tx *Tx) EconomyForumPut(forum *economy.Forum) error {
	if forum == nil {
		return fmt.Errorf("state: nil forum")
	}
	stored, err := newStoredForum(forum)
	if err != nil {
		return err
	}
	return tx.put(forumKey(forum.Name), stored)
}

// EconomyUserGet implements economy.State.
func (tx *Tx) EconomyUserGet(forum string, asset solana.PublicKey) (*economy.User, bool, error) {
	stored := new(storedUser)
	ok, err := tx.get(userKey(forum, asset), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toUser(), true, nil
}

// EconomyUserPut implements economy.State.
func (tx *Tx) EconomyUserPut(user *economy.User) error {
	if user == nil {
		return fmt.Errorf("state: nil user")
	}
	return tx.put(userKey(user.Forum, user.Asset), newStoredUser(user))
}

// EconomyPostGet implements economy.State.
func (tx *Tx) EconomyPostGet(forum string, author solana.PublicKey, sequence uint64) (*economy.Post, bool, error) {
	stored := new(storedPost)
	ok, err := tx.get(postKey(forum, author, sequence), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toPost(), true, nil
}

// EconomyPostPut implements economy.State.
func (tx *Tx) EconomyPostPut(post *economy.Post) error {
	if post == nil {
		return fmt.Errorf("state: nil post")
	}
	stored, err := newStoredPost(post)
	if err != nil {
		return err
	}
	return tx.put(postKey(post.Forum, post.Author, post.Sequence), stored)
}

// EconomyOperatorPoolGet implements economy.State.
func (tx *Tx) EconomyOperatorPoolGet() (*economy.OperatorPool, bool, error) {
	pool := new(economy.OperatorPool)
	ok, err := tx.get(recordKey(operatorPoolKeyBytes), pool)
	if err != nil || !ok {
		return nil, false, err
	}
	return pool, true, nil
}

// EconomyOperatorPoolPut implements economy.State.
func (tx *Tx) EconomyOperatorPoolPut(pool *economy.OperatorPool) error {
	if pool == nil {
		return fmt.Errorf("state: nil operator pool")
	}
	return tx.put(recordKey(operatorPoolKeyBytes), pool)
}

// EconomyOperatorGet implements economy.State.
func (tx *Tx) EconomyOperatorGet(authority solana.PublicKey) (*economy.Operator, bool, error) {
	op := new(economy.Operator)
	ok, err := tx.get(operatorKey(authority), op)
	if err != nil || !ok {
		return nil, false, err
	}
	return op, true, nil
}

// EconomyOperatorPut implements economy.State.
func (tx *Tx) EconomyOperatorPut(op *economy.Operator) error {
	if op == nil {
		return fmt.Errorf("state: nil operator")
	}
	return tx.put(operatorKey(op.Authority), op)
}

// EconomySessionGet implements economy.State.
func (tx *Tx) EconomySessionGet(forum string, user solana.PublicKey) (*economy.OperatorSession, bool, error) {
	session := new(economy.OperatorSession)
	ok, err := tx.get(sessionKey(forum, user), session)
	if err != nil || !ok {
		return nil, false, err
	}
	return session, true, nil
}

// EconomySessionPut implements economy.State.
func (tx *Tx) EconomySessionPut(session *economy.OperatorSession) error {
	if session == nil {
		return fmt.Errorf("state: nil session")
	}
	return tx.put(sessionKey(session.Forum, session.User), session)
}

// EconomyRewardRecordAppend stores the record and appends it to the
// participant's reward history.
func (tx *Tx) EconomyRewardRecordAppend(record *economy.RewardRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("state: reward record id required")
	}
	stored, err := newStoredRewardRecord(record)
	if err != nil {
		return err
	}
	if err := tx.put(rewardRecordKey(record.ID), stored); err != nil {
		return err
	}
	countKey := rewardCountKey(record.Forum, record.Participant)
	var count uint64
	if _, err := tx.get(countKey, &count); err != nil {
		return err
	}
	if err := tx.put(rewardIndexKey(record.Forum, record.Participant, count), record.ID); err != nil {
		return err
	}
	return tx.put(countKey, count+1)
}

// RewardRecords returns the participant's reward history in credit order.
func (tx *Tx) RewardRecords(forum string, participant solana.PublicKey) ([]*economy.RewardRecord, error) {
	var count uint64
	if _, err := tx.get(rewardCountKey(forum, participant), &count); err != nil {
		return nil, err
	}
	out := make([]*economy.RewardRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		var id string
		ok, err := tx.get(rewardIndexKey(forum, participant, i), &id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("state: reward index %d missing", i)
		}
		stored := new(storedRewardRecord)
		if ok, err = tx.get(rewardRecordKey(id), stored); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("state: reward record %s missing", id)
		}
		out = append(out, stored.toRewardRecord())
	}
	return out, nil
}

// IdentityAssetGet implements identity.State.
func (tx *Tx) IdentityAssetGet(id solana.PublicKey) (*identity.Asset, bool, error) {
	asset := new(identity.Asset)
	ok, err := tx.get(assetKey(id), asset)
	if err != nil || !ok {
		return nil, false, err
	}
	return asset, true, nil
}

// IdentityAssetPut implements identity.State.
func (tx *Tx) IdentityAssetPut(asset *identity.Asset) error {
	if asset == nil {
		return fmt.Errorf("state: nil asset")
	}
	return tx.put(assetKey(asset.ID), asset)
}

// BankBalance implements bank.State.
func (tx *Tx) BankBalance(mint, owner solana.PublicKey) (uint64, error) {
	var balance uint64
	_, err := tx.get(balanceKey(mint, owner), &balance)
	return balance, err
}

// SetBankBalance implements bank.State.
func (tx *Tx) SetBankBalance(mint, owner solana.PublicKey, amount uint64) error {
	return tx.put(balanceKey(mint, owner), amount)
}

// BankSupply implements bank.State.
func (tx *Tx) BankSupply(mint solana.PublicKey) (uint64, error) {
	var supply uint64
	_, err := tx.get(supplyKey(mint), &supply)
	return supply, err
}

// SetBankSupply implements bank.State.
func (tx *Tx) SetBankSupply(mint solana.PublicKey, amount uint64) error {
	return tx.put(supplyKey(mint), amount)
}

var _ economy.State = (*Tx)(nil)
