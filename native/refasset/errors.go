package refasset

import (
	"fmt"

	"github.com/holiman/uint256"

	coreerrors "eusko/core/errors"
	"eusko/crypto"
)

var (
	ErrUnauthorized          = coreerrors.New(coreerrors.KindAuthorization, "refasset: caller is not the owner")
	ErrInvalidSender         = coreerrors.New(coreerrors.KindInvariant, "refasset: invalid sender")
	ErrInvalidReceiver       = coreerrors.New(coreerrors.KindInvariant, "refasset: invalid receiver")
	ErrInvalidSpender        = coreerrors.New(coreerrors.KindInvariant, "refasset: invalid spender")
	ErrSupplyOverflow        = coreerrors.New(coreerrors.KindInvariant, "refasset: supply overflow")
	ErrInsufficientBalance   = coreerrors.New(coreerrors.KindInsufficientResource, "refasset: insufficient balance")
	ErrInsufficientAllowance = coreerrors.New(coreerrors.KindInsufficientResource, "refasset: insufficient allowance")

	errNilState = coreerrors.New(coreerrors.KindInternal, "refasset engine: state not configured")
)

// InsufficientBalanceError reports which account was short and by how much.
type InsufficientBalanceError struct {
	Account crypto.Address
	Balance *uint256.Int
	Needed  *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: %s holds %s, needs %s", ErrInsufficientBalance, e.Account, e.Balance.Dec(), e.Needed.Dec())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

func (e *InsufficientBalanceError) Kind() coreerrors.Kind {
	return coreerrors.KindInsufficientResource
}

// InsufficientAllowanceError reports an allowance shortfall for a spender.
type InsufficientAllowanceError struct {
	Spender   crypto.Address
	Allowance *uint256.Int
	Needed    *uint256.Int
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("%s: %s may spend %s, needs %s", ErrInsufficientAllowance, e.Spender, e.Allowance.Dec(), e.Needed.Dec())
}

func (e *InsufficientAllowanceError) Unwrap() error { return ErrInsufficientAllowance }

func (e *InsufficientAllowanceError) Kind() coreerrors.Kind {
	return coreerrors.KindInsufficientResource
}
