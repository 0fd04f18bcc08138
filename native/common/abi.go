// Package common holds the ABI plumbing shared by the native contracts.
package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// MustParseABI parses a contract interface or panics with the module name.
func MustParseABI(module, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("%s: parse abi: %v", module, err))
	}
	return parsed
}

// ToABIArgs converts native argument types into go-ethereum ABI types.
// Addresses may be crypto.Address, amounts *uint256.Int and counters uint64.
func ToABIArgs(args ...interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case crypto.Address:
			out[i] = v.Common()
		case []crypto.Address:
			list := make([]gethcommon.Address, len(v))
			for j, a := range v {
				list[j] = a.Common()
			}
			out[i] = list
		case *uint256.Int:
			if v == nil {
				out[i] = new(big.Int)
			} else {
				out[i] = v.ToBig()
			}
		case uint64:
			out[i] = new(big.Int).SetUint64(v)
		default:
			out[i] = arg
		}
	}
	return out
}

// Pack encodes a call to method of parsed.
func Pack(parsed abi.ABI, method string, args ...interface{}) ([]byte, error) {
	return parsed.Pack(method, ToABIArgs(args...)...)
}
