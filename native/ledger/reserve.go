package ledger

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// MintWithReference pulls amount reference units from caller into custody
// and mints the same quantity to recipient. The caller must hold the owner
// or authorized role and must have approved the custody account beforehand.
// Reference asset failures are returned unchanged.
func (e *Engine) MintWithReference(caller, recipient crypto.Address, amount *uint256.Int) error {
	if err := e.readyWithAsset(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleAuthorized); err != nil {
		return err
	}
	if err := requirePositive(amount, ErrInvalidAmount); err != nil {
		return err
	}
	if recipient.IsZero() || recipient == e.custody {
		return ErrInvalidReceiver
	}
	if err := e.asset.TransferFrom(caller, e.custody, amount); err != nil {
		return err
	}
	if err := e.credit(recipient, amount); err != nil {
		return err
	}
	if err := e.adjustSupply(amount, true); err != nil {
		return err
	}
	e.emit(MintedEvent{Minter: caller, Recipient: recipient, Amount: amount.Clone(), ReferenceAmount: amount.Clone()})
	return nil
}

// Redeem burns amount from caller and returns the same quantity of reference
// units from custody. Holder balance and custody sufficiency are checked
// independently.
func (e *Engine) Redeem(caller crypto.Address, amount *uint256.Int) error {
	if err := e.readyWithAsset(); err != nil {
		return err
	}
	if err := requirePositive(amount, ErrInvalidAmount); err != nil {
		return err
	}
	if caller == e.custody {
		return ErrCustodyTransfer
	}
	balance, err := e.state.LedgerBalance(caller)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return &InsufficientBalanceError{Account: caller, Balance: balance.Clone(), Needed: amount.Clone()}
	}
	if err := e.requireCustody(amount); err != nil {
		return err
	}
	if err := e.debit(caller, amount); err != nil {
		return err
	}
	if err := e.adjustSupply(amount, false); err != nil {
		return err
	}
	if err := e.asset.Transfer(caller, amount); err != nil {
		return err
	}
	e.emit(RedeemedEvent{Holder: caller, Amount: amount.Clone(), ReferenceAmount: amount.Clone()})
	return nil
}

// Burn is the owner's administrative burn. Custody holdings are untouched.
func (e *Engine) Burn(caller, account crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	if err := requirePositive(amount, ErrInvalidAmount); err != nil {
		return err
	}
	if account.IsZero() || account == e.custody {
		return ErrInvalidAddress
	}
	if err := e.debit(account, amount); err != nil {
		return err
	}
	if err := e.adjustSupply(amount, false); err != nil {
		return err
	}
	e.emit(BurnedEvent{Account: account, Amount: amount.Clone()})
	return nil
}

// UpdateReserve replaces the account volunteer rewards are funded from.
func (e *Engine) UpdateReserve(caller, newReserve crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleAuthorized); err != nil {
		return err
	}
	if newReserve.IsZero() || newReserve == e.custody {
		return ErrInvalidReserve
	}
	old, err := e.state.LedgerReserveAddress()
	if err != nil {
		return err
	}
	if err := e.state.SetLedgerReserveAddress(newReserve); err != nil {
		return err
	}
	e.emit(ReserveUpdatedEvent{Old: old, New: newReserve})
	return nil
}

// Reserve returns the account volunteer rewards are funded from.
func (e *Engine) Reserve() (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	return e.state.LedgerReserveAddress()
}

// TotalReserve returns the tracked reserve commitment.
func (e *Engine) TotalReserve() (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerTotalReserve()
}

// CustodyBalance returns the reference units held by the custody account.
func (e *Engine) CustodyBalance() (*uint256.Int, error) {
	if err := e.readyWithAsset(); err != nil {
		return nil, err
	}
	return e.asset.BalanceOf(e.custody)
}

func (e *Engine) requireCustody(amount *uint256.Int) error {
	held, err := e.asset.BalanceOf(e.custody)
	if err != nil {
		return err
	}
	if held.Lt(amount) {
		return &InsufficientReserveError{Custody: held.Clone(), Needed: amount.Clone()}
	}
	return nil
}
