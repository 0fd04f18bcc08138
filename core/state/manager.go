package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"eusko/crypto"
	"eusko/storage"
)

// Manager stages state writes on top of a database. Reads see staged writes
// first. Nothing reaches the database until Commit.
type Manager struct {
	db     storage.Database
	writes map[string][]byte
}

// NewManager creates an overlay over db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, writes: make(map[string][]byte)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if value, ok := m.writes[string(key)]; ok {
		return value, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (m *Manager) put(key, value []byte) {
	m.writes[string(key)] = append([]byte(nil), value...)
}

// KVPut RLP-encodes value under the hashed key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(kvKey(key), encoded)
	return nil
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes key. Deleting an absent key is a no-op.
func (m *Manager) KVDelete(key []byte) {
	m.writes[string(kvKey(key))] = nil
}

// Pending reports the number of staged writes.
func (m *Manager) Pending() int { return len(m.writes) }

// Commit flushes staged writes through one batch and clears the overlay.
func (m *Manager) Commit() error {
	if len(m.writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.writes))
	for k := range m.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, k := range keys {
		if value := m.writes[k]; value == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), value)
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.writes = make(map[string][]byte)
	return nil
}

// Discard drops every staged write.
func (m *Manager) Discard() {
	m.writes = make(map[string][]byte)
}

func (m *Manager) getAmount(key []byte) (*uint256.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	amount, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("state: stored amount overflows 256 bits")
	}
	return amount, nil
}

func (m *Manager) putAmount(key []byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		m.KVDelete(key)
		return nil
	}
	return m.KVPut(key, amount.ToBig())
}

func (m *Manager) getUint64(key []byte) (uint64, error) {
	var value uint64
	_, err := m.KVGet(key, &value)
	return value, err
}

func (m *Manager) getBool(key []byte) (bool, error) {
	var value bool
	_, err := m.KVGet(key, &value)
	return value, err
}

func (m *Manager) putBool(key []byte, value bool) error {
	if !value {
		m.KVDelete(key)
		return nil
	}
	return m.KVPut(key, true)
}

func (m *Manager) getAddress(key []byte) (crypto.Address, error) {
	var value crypto.Address
	_, err := m.KVGet(key, &value)
	return value, err
}

func (m *Manager) getAddressList(key []byte) ([]crypto.Address, error) {
	var list []crypto.Address
	if _, err := m.KVGet(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}
