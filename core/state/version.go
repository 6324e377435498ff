package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"neobots/storage"
)

// StateVersion identifies the expected on-disk schema layout. Increment it
// whenever a stored record changes shape.
const StateVersion uint32 = 1

// ErrStateVersionMismatch indicates the stored schema version does not match
// the version supported by the current binary.
var ErrStateVersionMismatch = errors.New("state: schema version mismatch")

// EnsureStateVersion stamps an empty database with StateVersion and rejects a
// database written by another schema. When allowMigrate is true, mismatches
// are tolerated so operators can perform manual migrations.
func EnsureStateVersion(db storage.Database, allowMigrate bool) error {
	if db == nil {
		return fmt.Errorf("state: database must not be nil")
	}
	key := recordKey(stateVersionKeyBytes)
	raw, err := db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		encoded, err := rlp.EncodeToBytes(uint64(StateVersion))
		if err != nil {
			return err
		}
		return db.Put(key, encoded)
	}
	if err != nil {
		return err
	}
	var stored uint64
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return fmt.Errorf("state: decode schema version: %w", err)
	}
	if stored != uint64(StateVersion) && !allowMigrate {
		return fmt.Errorf("%w: stored %d, supported %d", ErrStateVersionMismatch, stored, StateVersion)
	}
	return nil
}
