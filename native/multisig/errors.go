package multisig

import (
	"fmt"

	coreerrors "eusko/core/errors"
)

var (
	ErrNotSigner              = coreerrors.New(coreerrors.KindAuthorization, "multisig: caller is not a signer")
	ErrOnlySelf               = coreerrors.New(coreerrors.KindAuthorization, "multisig: only callable through the gateway itself")
	ErrInvalidThreshold       = coreerrors.New(coreerrors.KindInvariant, "multisig: threshold must be greater than zero")
	ErrSignersBelowThreshold  = coreerrors.New(coreerrors.KindInvariant, "multisig: signers < threshold")
	ErrInvalidSigner          = coreerrors.New(coreerrors.KindInvariant, "multisig: invalid signer address")
	ErrInvalidTarget          = coreerrors.New(coreerrors.KindInvariant, "multisig: invalid target address")
	ErrNotEnoughConfirmations = coreerrors.New(coreerrors.KindInsufficientResource, "multisig: not enough confirmations")
	ErrAlreadyConfirmed       = coreerrors.New(coreerrors.KindStateConflict, "multisig: already confirmed")
	ErrTxAlreadyExecuted      = coreerrors.New(coreerrors.KindStateConflict, "multisig: transaction already executed")
	ErrDuplicateSigner        = coreerrors.New(coreerrors.KindStateConflict, "multisig: signer already exists")
	ErrUnknownSigner          = coreerrors.New(coreerrors.KindNotFound, "multisig: signer does not exist")
	ErrTxNotFound             = coreerrors.New(coreerrors.KindNotFound, "multisig: transaction does not exist")
	ErrExecutionFailed        = coreerrors.New(coreerrors.KindInternal, "multisig: transaction execution failed")

	errNilState  = coreerrors.New(coreerrors.KindInternal, "multisig engine: state not configured")
	errNilCaller = coreerrors.New(coreerrors.KindInternal, "multisig engine: caller not configured")
)

// ExecutionError wraps the failure of an executed call. It matches
// ErrExecutionFailed and reports the kind of the inner failure.
type ExecutionError struct {
	Index uint64
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: transaction %d: %v", ErrExecutionFailed, e.Index, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecutionFailed }

func (e *ExecutionError) Kind() coreerrors.Kind { return coreerrors.KindOf(e.Err) }
