package multisig

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/crypto"
	nativecommon "eusko/native/common"
)

const (
	MethodSubmitTransaction  = "submitTransaction"
	MethodConfirmTransaction = "confirmTransaction"
	MethodExecuteTransaction = "executeTransaction"
	MethodAddSigner          = "addSigner"
	MethodRemoveSigner       = "removeSigner"
	MethodChangeThreshold    = "changeThreshold"
	MethodThreshold          = "threshold"
	MethodIsSigner           = "isSigner"
	MethodGetSigners         = "getSigners"
	MethodTransactionCount   = "transactionCount"
	MethodTransactions       = "transactions"
	MethodIsConfirmed        = "isConfirmed"
)

const ABIJSON = `[
{"type":"function","name":"submitTransaction","stateMutability":"nonpayable","inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"index","type":"uint256"}]},
{"type":"function","name":"confirmTransaction","stateMutability":"nonpayable","inputs":[{"name":"index","type":"uint256"}],"outputs":[]},
{"type":"function","name":"executeTransaction","stateMutability":"nonpayable","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"result","type":"bytes"}]},
{"type":"function","name":"addSigner","stateMutability":"nonpayable","inputs":[{"name":"signer","type":"address"}],"outputs":[]},
{"type":"function","name":"removeSigner","stateMutability":"nonpayable","inputs":[{"name":"signer","type":"address"}],"outputs":[]},
{"type":"function","name":"changeThreshold","stateMutability":"nonpayable","inputs":[{"name":"threshold","type":"uint256"}],"outputs":[]},
{"type":"function","name":"threshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"isSigner","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getSigners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"transactionCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transactions","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"executed","type":"bool"},{"name":"confirmations","type":"uint256"}]},
{"type":"function","name":"isConfirmed","stateMutability":"view","inputs":[{"name":"index","type":"uint256"},{"name":"signer","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

var contractABI = nativecommon.MustParseABI("multisig", ABIJSON)

// ABI returns the parsed call interface.
func ABI() abi.ABI { return contractABI }

// PackSubmit encodes a submitTransaction call.
func PackSubmit(target crypto.Address, value *uint256.Int, data []byte) ([]byte, error) {
	v := new(big.Int)
	if value != nil {
		v = value.ToBig()
	}
	return contractABI.Pack(MethodSubmitTransaction, target.Common(), v, data)
}

// PackIndexCall encodes confirmTransaction or executeTransaction.
func PackIndexCall(method string, index uint64) ([]byte, error) {
	return contractABI.Pack(method, new(big.Int).SetUint64(index))
}

// PackSignerCall encodes addSigner or removeSigner.
func PackSignerCall(method string, signer crypto.Address) ([]byte, error) {
	return contractABI.Pack(method, signer.Common())
}

// PackChangeThreshold encodes changeThreshold.
func PackChangeThreshold(threshold uint64) ([]byte, error) {
	return contractABI.Pack(MethodChangeThreshold, new(big.Int).SetUint64(threshold))
}

// EncodeTransaction packs the transactions(index) return values.
func EncodeTransaction(tx *Transaction) ([]byte, error) {
	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToBig()
	}
	method := contractABI.Methods[MethodTransactions]
	return method.Outputs.Pack(tx.Target.Common(), value, tx.Data, tx.Executed, new(big.Int).SetUint64(tx.Confirmations))
}

// DecodeTransaction unpacks the transactions(index) return values.
func DecodeTransaction(data []byte) (*Transaction, error) {
	values, err := contractABI.Unpack(MethodTransactions, data)
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("multisig: unexpected transaction payload with %d fields", len(values))
	}
	target, ok1 := values[0].(common.Address)
	value, ok2 := values[1].(*big.Int)
	payload, ok3 := values[2].([]byte)
	executed, ok4 := values[3].(bool)
	confirmations, ok5 := values[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("multisig: malformed transaction payload")
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("multisig: value overflows 256 bits")
	}
	return &Transaction{
		Target:        crypto.FromCommon(target),
		Value:         v,
		Data:          payload,
		Executed:      executed,
		Confirmations: confirmations.Uint64(),
	}, nil
}
