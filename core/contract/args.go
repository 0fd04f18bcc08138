package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// Args reads positional ABI arguments with type checks.
type Args []interface{}

func (a Args) Address(i int) (crypto.Address, error) {
	if i >= len(a) {
		return crypto.Address{}, ErrInvalidInput
	}
	v, ok := a[i].(common.Address)
	if !ok {
		return crypto.Address{}, fmt.Errorf("%w: argument %d is not an address", ErrInvalidInput, i)
	}
	return crypto.FromCommon(v), nil
}

func (a Args) Amount(i int) (*uint256.Int, error) {
	if i >= len(a) {
		return nil, ErrInvalidInput
	}
	v, ok := a[i].(*big.Int)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: argument %d is not an unsigned integer", ErrInvalidInput, i)
	}
	amount, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: argument %d overflows", ErrInvalidInput, i)
	}
	return amount, nil
}

func (a Args) Uint64(i int) (uint64, error) {
	amount, err := a.Amount(i)
	if err != nil {
		return 0, err
	}
	if !amount.IsUint64() {
		return 0, fmt.Errorf("%w: argument %d exceeds 64 bits", ErrInvalidInput, i)
	}
	return amount.Uint64(), nil
}

func (a Args) String(i int) (string, error) {
	if i >= len(a) {
		return "", ErrInvalidInput
	}
	v, ok := a[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d is not a string", ErrInvalidInput, i)
	}
	return v, nil
}

func (a Args) Bytes(i int) ([]byte, error) {
	if i >= len(a) {
		return nil, ErrInvalidInput
	}
	v, ok := a[i].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: argument %d is not bytes", ErrInvalidInput, i)
	}
	return v, nil
}

func (a Args) Bool(i int) (bool, error) {
	if i >= len(a) {
		return false, ErrInvalidInput
	}
	v, ok := a[i].(bool)
	if !ok {
		return false, fmt.Errorf("%w: argument %d is not a bool", ErrInvalidInput, i)
	}
	return v, nil
}

// BigAddresses converts addresses to their ABI form.
func BigAddresses(list []crypto.Address) []common.Address {
	out := make([]common.Address, len(list))
	for i, a := range list {
		out[i] = a.Common()
	}
	return out
}

// Big converts an amount to its ABI form. Nil is zero.
func Big(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

// BigUint converts a counter or index to its ABI form.
func BigUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
