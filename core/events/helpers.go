package events

import (
	"strconv"

	"github.com/holiman/uint256"

	"eusko/crypto"
)

// FormatAmount renders an amount in base units. Nil renders as "0".
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// FormatAddress renders an address in bech32 form.
func FormatAddress(a crypto.Address) string { return a.String() }

// FormatInt renders a signed integer attribute.
func FormatInt(v int64) string { return strconv.FormatInt(v, 10) }

// FormatUint renders an unsigned integer attribute.
func FormatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// FormatBool renders a boolean attribute.
func FormatBool(v bool) string { return strconv.FormatBool(v) }
