package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"neobots/core/events"
	"neobots/native/economy"
	"neobots/observability"
	"neobots/storage"
)

// ErrConflict is returned when a record read by a transaction was changed by
// another commit before this one. Nothing is written; the caller may retry.
var ErrConflict = errors.New("state: concurrent modification")

// Manager is the record store of the economy. Every Update runs against a
// private overlay and commits all of its writes in one atomic batch.
type Manager struct {
	db      storage.Database
	emitter events.Emitter

	commitMu sync.Mutex
}

// NewManager creates a state manager on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, emitter: events.NoopEmitter{}}
}

// SetEmitter configures where committed events are delivered.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	m.emitter = emitter
}

// Update runs fn in a read-write transaction. Events appended by fn are
// emitted only after the commit succeeds.
func (m *Manager) Update(ctx context.Context, fn func(economy.State) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Commit(tx)
}

// View runs fn against a read-only transaction.
func (m *Manager) View(ctx context.Context, fn func(economy.State) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	tx.readOnly = true
	return fn(tx)
}

// Begin opens a transaction.
func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager unavailable")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		m:      m,
		reads:  make(map[string]uint64),
		writes: make(map[string][]byte),
	}, nil
}

func (m *Manager) load(key []byte) (*storedEnvelope, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	env := new(storedEnvelope)
	if err := rlp.DecodeBytes(raw, env); err != nil {
		return nil, fmt.Errorf("state: decode envelope: %w", err)
	}
	return env, nil
}

func (m *Manager) version(key []byte) (uint64, error) {
	env, err := m.load(key)
	if err != nil || env == nil {
		return 0, err
	}
	return env.Version, nil
}

// Commit validates the transaction's reads and writes its dirty records.
func (m *Manager) Commit(tx *Tx) error {
	if tx == nil || tx.m != m {
		return fmt.Errorf("state: foreign transaction")
	}
	if tx.readOnly {
		return fmt.Errorf("state: read-only transaction")
	}
	if tx.done {
		return fmt.Errorf("state: transaction already finished")
	}
	tx.done = true
	start := time.Now()
	metrics := observability.StoreMetrics()

	m.commitMu.Lock()
	batch, err := m.prepare(tx)
	if err == nil && batch.Len() > 0 {
		err = m.db.Write(batch)
	}
	m.commitMu.Unlock()

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrConflict) {
			outcome = "conflict"
			metrics.RecordConflict()
		}
		metrics.ObserveCommit(outcome, 0, time.Since(start))
		return err
	}
	metrics.ObserveCommit("ok", batch.Len(), time.Since(start))

	for _, evt := range tx.events {
		observability.Events().RecordEvent(evt.Type)
		m.emitter.Emit(events.Wrap(evt))
	}
	return nil
}

// prepare must run under commitMu.
func (m *Manager) prepare(tx *Tx) (*storage.Batch, error) {
	for key, seen := range tx.reads {
		current, err := m.version([]byte(key))
		if err != nil {
			return nil, err
		}
		if current != seen {
			return nil, ErrConflict
		}
	}
	batch := storage.NewBatch()
	for _, key := range tx.order {
		current, ok := tx.reads[key]
		if !ok {
			var err error
			if current, err = m.version([]byte(key)); err != nil {
				return nil, err
			}
		}
		encoded, err := rlp.EncodeToBytes(&storedEnvelope{Version: current + 1, Data: tx.writes[key]})
		if err != nil {
			return nil, err
		}
		batch.Put([]byte(key), encoded)
	}
	return batch, nil
}

// RecordVersion returns the committed version of the record stored under key.
// Zero means the record was never written.
func (m *Manager) RecordVersion(key []byte) (uint64, error) {
	return m.version(key)
}
