// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/quayprotocol/quay/kv"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/stackedmap"
)

const storeKeyPrefix = "s"

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// storageKey distinguishes a storage slot of a ledger contract.
type storageKey struct {
	addr quay.Address
	key  quay.Bytes32
}

// State manages the ledger's persisted storage with checkpoint/revert support.
// All reads fall through to the backing kv store; all writes are journaled
// until Commit flushes them in one batch.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap
}

// New create state object.
func New(store kv.GetPutter) *State {
	state := State{store: store}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.storeGetter(key)
	})
	// the bottom checkpoint, so Put is always legal
	state.sm.Push()
	return &state
}

// storeGetter implements stackedmap.MapGetter.
func (s *State) storeGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		data, err := s.store.Get(persistentKey(k))
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func persistentKey(k storageKey) []byte {
	b := make([]byte, 0, len(storeKeyPrefix)+quay.AddressLength+32)
	b = append(b, storeKeyPrefix...)
	b = append(b, k.addr.Bytes()...)
	b = append(b, k.key.Bytes()...)
	return b
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr quay.Address, key quay.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr quay.Address, key quay.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr quay.Address, key quay.Bytes32) (quay.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return quay.Bytes32{}, err
	}
	if len(raw) == 0 {
		return quay.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return quay.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return quay.Blake2b(raw), nil
	}
	return quay.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr quay.Address, key, value quay.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// DecodeStorage get and decode storage value.
// Decode is skipped if the storage is empty.
func (s *State) DecodeStorage(addr quay.Address, key quay.Bytes32, decode func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := decode(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// EncodeStorage set storage value encoded by given enc method.
// An empty encoded value removes the slot.
func (s *State) EncodeStorage(addr quay.Address, key quay.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to checkpoint with the given revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit flushes all journaled writes into the backing store in one batch.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	var jerr error
	s.sm.Journal(func(key, value any) bool {
		k, ok := key.(storageKey)
		if !ok {
			return true
		}
		raw := value.(rlp.RawValue)
		if len(raw) == 0 {
			jerr = batch.Delete(persistentKey(k))
		} else {
			jerr = batch.Put(persistentKey(k), raw)
		}
		return jerr == nil
	})
	if jerr != nil {
		return &Error{jerr}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
