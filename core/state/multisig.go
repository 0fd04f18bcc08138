package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"eusko/crypto"
	"eusko/native/multisig"
)

type multisigTxRecord struct {
	Target        crypto.Address
	Value         *big.Int
	Data          []byte
	Executed      bool
	Confirmations uint64
}

func (m *Manager) MultisigSigners() ([]crypto.Address, error) {
	return m.getAddressList(multisigSignersKey)
}

func (m *Manager) SetMultisigSigners(signers []crypto.Address) error {
	return m.KVPut(multisigSignersKey, signers)
}

func (m *Manager) MultisigThreshold() (uint64, error) {
	return m.getUint64(multisigThresholdKey)
}

func (m *Manager) SetMultisigThreshold(threshold uint64) error {
	return m.KVPut(multisigThresholdKey, threshold)
}

func (m *Manager) MultisigTransactionCount() (uint64, error) {
	return m.getUint64(multisigTxCountKey)
}

func (m *Manager) MultisigTransaction(index uint64) (*multisig.Transaction, bool, error) {
	var rec multisigTxRecord
	ok, err := m.KVGet(compositeKey(multisigTxPrefix, uint64Bytes(index)), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	value, overflow := uint256.FromBig(rec.Value)
	if overflow {
		return nil, false, fmt.Errorf("state: multisig value overflows 256 bits")
	}
	return &multisig.Transaction{
		Target:        rec.Target,
		Value:         value,
		Data:          rec.Data,
		Executed:      rec.Executed,
		Confirmations: rec.Confirmations,
	}, true, nil
}

// PutMultisigTransaction stores tx at index. Writing at the current count
// appends to the queue.
func (m *Manager) PutMultisigTransaction(index uint64, tx *multisig.Transaction) error {
	if tx == nil {
		return fmt.Errorf("state: nil multisig transaction")
	}
	count, err := m.MultisigTransactionCount()
	if err != nil {
		return err
	}
	if index > count {
		return fmt.Errorf("state: multisig index %d beyond queue length %d", index, count)
	}
	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToBig()
	}
	rec := multisigTxRecord{
		Target:        tx.Target,
		Value:         value,
		Data:          tx.Data,
		Executed:      tx.Executed,
		Confirmations: tx.Confirmations,
	}
	if err := m.KVPut(compositeKey(multisigTxPrefix, uint64Bytes(index)), rec); err != nil {
		return err
	}
	if index == count {
		return m.KVPut(multisigTxCountKey, count+1)
	}
	return nil
}

func (m *Manager) MultisigConfirmed(index uint64, signer crypto.Address) (bool, error) {
	return m.getBool(compositeKey(multisigConfirmPrefix, uint64Bytes(index), signer.Bytes()))
}

func (m *Manager) SetMultisigConfirmed(index uint64, signer crypto.Address, confirmed bool) error {
	return m.putBool(compositeKey(multisigConfirmPrefix, uint64Bytes(index), signer.Bytes()), confirmed)
}
