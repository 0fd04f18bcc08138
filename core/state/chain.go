package state

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
)

func (m *Manager) Nonce(addr crypto.Address) (uint64, error) {
	return m.getUint64(compositeKey(noncePrefix, addr.Bytes()))
}

func (m *Manager) SetNonce(addr crypto.Address, nonce uint64) error {
	return m.KVPut(compositeKey(noncePrefix, addr.Bytes()), nonce)
}

func (m *Manager) Height() (uint64, error) {
	return m.getUint64(heightKey)
}

func (m *Manager) SetHeight(height uint64) error {
	return m.KVPut(heightKey, height)
}

func (m *Manager) ChainID() (uint64, error) {
	return m.getUint64(chainIDKey)
}

func (m *Manager) SetChainID(id uint64) error {
	return m.KVPut(chainIDKey, id)
}

// GenesisHash returns the stored genesis hash and whether one exists.
func (m *Manager) GenesisHash() (common.Hash, bool, error) {
	var hash common.Hash
	ok, err := m.KVGet(genesisHashKey, &hash)
	return hash, ok, err
}

func (m *Manager) SetGenesisHash(hash common.Hash) error {
	return m.KVPut(genesisHashKey, hash)
}

func (m *Manager) PutReceipt(receipt *types.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("state: nil receipt")
	}
	encoded, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return m.KVPut(compositeKey(receiptPrefix, receipt.TxHash.Bytes()), encoded)
}

func (m *Manager) Receipt(hash common.Hash) (*types.Receipt, bool, error) {
	var encoded []byte
	ok, err := m.KVGet(compositeKey(receiptPrefix, hash.Bytes()), &encoded)
	if err != nil || !ok {
		return nil, false, err
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(encoded, receipt); err != nil {
		return nil, false, fmt.Errorf("state: decode receipt: %w", err)
	}
	return receipt, true, nil
}

// EventCount is the length of the committed event log.
func (m *Manager) EventCount() (uint64, error) {
	return m.getUint64(eventCountKey)
}

// AppendEvent stores rec at the end of the log. The record's sequence must
// equal the current log length.
func (m *Manager) AppendEvent(rec events.Record) error {
	count, err := m.EventCount()
	if err != nil {
		return err
	}
	if rec.Sequence != count {
		return fmt.Errorf("state: event sequence %d, expected %d", rec.Sequence, count)
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := m.KVPut(compositeKey(eventRecordPrefix, uint64Bytes(count)), encoded); err != nil {
		return err
	}
	return m.KVPut(eventCountKey, count+1)
}

// Events returns up to limit records starting at sequence from.
func (m *Manager) Events(from, limit uint64) ([]events.Record, error) {
	count, err := m.EventCount()
	if err != nil {
		return nil, err
	}
	if from >= count || limit == 0 {
		return []events.Record{}, nil
	}
	end := from + limit
	if end > count || end < from {
		end = count
	}
	out := make([]events.Record, 0, end-from)
	for seq := from; seq < end; seq++ {
		var encoded []byte
		ok, err := m.KVGet(compositeKey(eventRecordPrefix, uint64Bytes(seq)), &encoded)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("state: missing event %d", seq)
		}
		var rec events.Record
		if err := json.Unmarshal(encoded, &rec); err != nil {
			return nil, fmt.Errorf("state: decode event %d: %w", seq, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
