package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// amountDecimals is shared by EURC and EUS.
const amountDecimals = 6

// parseAmount converts a decimal token amount ("12.5") into base units.
func parseAmount(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}
	scaled := d.Shift(amountDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", raw, amountDecimals)
	}
	out, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %q is too large", raw)
	}
	return out, nil
}

// formatAmount renders base units as a fixed six-decimal string.
func formatAmount(v *big.Int) string {
	if v == nil {
		v = new(big.Int)
	}
	return decimal.NewFromBigInt(v, -amountDecimals).StringFixed(amountDecimals)
}

func formatUnits(v *uint256.Int) string {
	if v == nil {
		return formatAmount(nil)
	}
	return formatAmount(v.ToBig())
}
