package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"eusko/crypto"
)

const (
	ReceiptStatusFailed  uint8 = 0
	ReceiptStatusSuccess uint8 = 1
)

// Receipt records the outcome of an applied transaction. Failed transactions
// carry the failure kind and message and no events.
type Receipt struct {
	TxHash    common.Hash    `json:"txHash"`
	Height    uint64         `json:"height"`
	From      crypto.Address `json:"from"`
	To        crypto.Address `json:"to"`
	Nonce     uint64         `json:"nonce"`
	Status    uint8          `json:"status"`
	Return    hexutil.Bytes  `json:"return,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Events    []Event        `json:"events,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Succeeded reports whether the transaction committed.
func (r *Receipt) Succeeded() bool { return r != nil && r.Status == ReceiptStatusSuccess }
