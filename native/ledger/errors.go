package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	coreerrors "eusko/core/errors"
	"eusko/crypto"
)

var (
	ErrUnauthorized  = coreerrors.New(coreerrors.KindAuthorization, "ledger: unauthorized")
	ErrNotOwner      = coreerrors.New(coreerrors.KindAuthorization, "ledger: caller is not the owner")
	ErrNotAuthorized = coreerrors.New(coreerrors.KindAuthorization, "ledger: caller is not an authorized account")
	ErrNotMerchant   = coreerrors.New(coreerrors.KindAuthorization, "ledger: not a merchant")

	ErrInvalidAmount       = coreerrors.New(coreerrors.KindInvariant, "ledger: amount must be greater than zero")
	ErrInvalidAddress      = coreerrors.New(coreerrors.KindInvariant, "ledger: invalid address")
	ErrInvalidReceiver     = coreerrors.New(coreerrors.KindInvariant, "ledger: invalid receiver")
	ErrInvalidVolunteer    = coreerrors.New(coreerrors.KindInvariant, "ledger: invalid volunteer address")
	ErrInvalidReward       = coreerrors.New(coreerrors.KindInvariant, "ledger: reward must be greater than zero")
	ErrInvalidReserve      = coreerrors.New(coreerrors.KindInvariant, "ledger: invalid new reserve address")
	ErrDescriptionTooLong  = coreerrors.New(coreerrors.KindInvariant, "ledger: description too long")
	ErrNotApprovedMerchant = coreerrors.New(coreerrors.KindInvariant, "ledger: not an approved merchant")
	ErrCustodyTransfer     = coreerrors.New(coreerrors.KindInvariant, "ledger: custody account cannot send or receive transfers")
	ErrAmountOverflow      = coreerrors.New(coreerrors.KindInvariant, "ledger: amount overflow")

	ErrInsufficientBalance   = coreerrors.New(coreerrors.KindInsufficientResource, "ledger: insufficient balance")
	ErrInsufficientAllowance = coreerrors.New(coreerrors.KindInsufficientResource, "ledger: insufficient allowance")
	ErrInsufficientReserve   = coreerrors.New(coreerrors.KindInsufficientResource, "ledger: insufficient reserve in custody")
	ErrNothingToClaim        = coreerrors.New(coreerrors.KindInsufficientResource, "ledger: no balance to claim")

	ErrMerchantNotApproved  = coreerrors.New(coreerrors.KindStateConflict, "ledger: merchant not approved")
	ErrAccountNotAuthorized = coreerrors.New(coreerrors.KindStateConflict, "ledger: account not authorized")

	errNilState = coreerrors.New(coreerrors.KindInternal, "ledger engine: state not configured")
	errNilAsset = coreerrors.New(coreerrors.KindInternal, "ledger engine: reference asset not configured")
)

// Role names the privilege an operation requires.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAuthorized Role = "authorized"
	RoleMerchant   Role = "merchant"
)

// AuthorizationError is returned by the policy check at the top of every
// privileged operation. It matches ErrUnauthorized and the role specific
// sentinel with errors.Is.
type AuthorizationError struct {
	Caller crypto.Address
	Role   Role
}

func (e *AuthorizationError) sentinel() *coreerrors.Error {
	switch e.Role {
	case RoleOwner:
		return ErrNotOwner
	case RoleMerchant:
		return ErrNotMerchant
	default:
		return ErrNotAuthorized
	}
}

func (e *AuthorizationError) Error() string { return e.sentinel().Error() }

func (e *AuthorizationError) Unwrap() error { return e.sentinel() }

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

func (e *AuthorizationError) Kind() coreerrors.Kind { return coreerrors.KindAuthorization }

// InsufficientBalanceError reports a token balance shortfall for a specific
// account.
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

// InsufficientReserveError reports that custody cannot cover a payout.
type InsufficientReserveError struct {
	Custody *uint256.Int
	Needed  *uint256.Int
}

func (e *InsufficientReserveError) Error() string {
	return fmt.Sprintf("%s: custody holds %s, needs %s", ErrInsufficientReserve, e.Custody.Dec(), e.Needed.Dec())
}

func (e *InsufficientReserveError) Unwrap() error { return ErrInsufficientReserve }

func (e *InsufficientReserveError) Kind() coreerrors.Kind {
	return coreerrors.KindInsufficientResource
}
