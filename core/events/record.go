package events

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/blake3"

	"eusko/core/types"
)

// Record is a committed event as stored in the append-only log.
type Record struct {
	Sequence   uint64            `json:"sequence"`
	ID         string            `json:"id"`
	Height     uint64            `json:"height"`
	TxHash     common.Hash       `json:"txHash"`
	Index      uint32            `json:"index"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"`
}

// NewRecord stamps an event with its log position and identifier.
func NewRecord(seq, height uint64, txHash common.Hash, index uint32, evt types.Event, ts int64) Record {
	rec := Record{
		Sequence:   seq,
		Height:     height,
		TxHash:     txHash,
		Index:      index,
		Type:       evt.Type,
		Attributes: make(map[string]string, len(evt.Attributes)),
		Timestamp:  ts,
	}
	for k, v := range evt.Attributes {
		rec.Attributes[k] = v
	}
	rec.ID = ComputeID(txHash, index, evt)
	return rec
}

// ComputeID derives a stable blake3 identifier from the transaction hash, the
// position of the event inside the transaction and its canonical payload.
func ComputeID(txHash common.Hash, index uint32, evt types.Event) string {
	h := blake3.New(32, nil)
	h.Write(txHash.Bytes())
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	h.Write(idx[:])
	h.Write([]byte(evt.Type))
	keys := make([]string, 0, len(evt.Attributes))
	for k := range evt.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(evt.Attributes[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Matches reports whether the record has the requested type (empty matches
// everything) and, when address is set, mentions it in any attribute.
func (r Record) Matches(eventType, address string) bool {
	if eventType != "" && r.Type != eventType {
		return false
	}
	if address == "" {
		return true
	}
	for _, v := range r.Attributes {
		if v == address {
			return true
		}
	}
	return false
}
