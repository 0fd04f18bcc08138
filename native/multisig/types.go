package multisig

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// Transaction is a queued call awaiting quorum.
type Transaction struct {
	Target        crypto.Address
	Value         *uint256.Int
	Data          []byte
	Executed      bool
	Confirmations uint64
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	if t.Value != nil {
		out.Value = t.Value.Clone()
	} else {
		out.Value = new(uint256.Int)
	}
	out.Data = append([]byte(nil), t.Data...)
	return &out
}
