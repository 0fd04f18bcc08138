package ledger

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

func (e *Engine) AddMerchant(caller, merchant crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	if merchant.IsZero() || merchant == e.custody {
		return ErrInvalidAddress
	}
	if err := e.state.SetLedgerMerchantApproved(merchant, true); err != nil {
		return err
	}
	e.emit(MembershipEvent{Type: EventTypeMerchantAdded, Account: merchant})
	return nil
}

// RemoveMerchant revokes approval. An unclaimed pot stays claimable only
// while the merchant is approved, so the owner should settle first.
func (e *Engine) RemoveMerchant(caller, merchant crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	approved, err := e.state.LedgerMerchantApproved(merchant)
	if err != nil {
		return err
	}
	if !approved {
		return ErrMerchantNotApproved
	}
	if err := e.state.SetLedgerMerchantApproved(merchant, false); err != nil {
		return err
	}
	e.emit(MembershipEvent{Type: EventTypeMerchantRemoved, Account: merchant})
	return nil
}

func (e *Engine) IsApprovedMerchant(addr crypto.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.LedgerMerchantApproved(addr)
}

// Merchants lists approved merchants in approval order.
func (e *Engine) Merchants() ([]crypto.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerMerchantList()
}

// MerchantBalance returns the merchant's unpaid pot.
func (e *Engine) MerchantBalance(merchant crypto.Address) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerMerchantBalance(merchant)
}

// Spend pays an approved merchant. The tokens are escrowed in the custody
// account and the merchant's pot grows by amount; supply is unchanged until
// the merchant claims.
func (e *Engine) Spend(caller, merchant crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	approved, err := e.state.LedgerMerchantApproved(merchant)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotApprovedMerchant
	}
	if err := requirePositive(amount, ErrInvalidAmount); err != nil {
		return err
	}
	if caller == e.custody {
		return ErrCustodyTransfer
	}
	if err := e.move(caller, e.custody, amount); err != nil {
		return err
	}
	pot, err := e.state.LedgerMerchantBalance(merchant)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(pot, amount)
	if overflow {
		return ErrAmountOverflow
	}
	if err := e.state.SetLedgerMerchantBalance(merchant, next); err != nil {
		return err
	}
	e.emit(SpentEvent{Spender: caller, Merchant: merchant, Amount: amount.Clone()})
	return nil
}

// ClaimFunds pays the caller's whole pot out of custody in reference units
// and retires the escrowed tokens. Membership is checked before the pot.
func (e *Engine) ClaimFunds(caller crypto.Address) (*uint256.Int, error) {
	if err := e.readyWithAsset(); err != nil {
		return nil, err
	}
	if err := e.authorize(caller, RoleMerchant); err != nil {
		return nil, err
	}
	pot, err := e.state.LedgerMerchantBalance(caller)
	if err != nil {
		return nil, err
	}
	if pot.IsZero() {
		return nil, ErrNothingToClaim
	}
	if err := e.requireCustody(pot); err != nil {
		return nil, err
	}
	if err := e.state.SetLedgerMerchantBalance(caller, new(uint256.Int)); err != nil {
		return nil, err
	}
	if err := e.debit(e.custody, pot); err != nil {
		return nil, err
	}
	if err := e.adjustSupply(pot, false); err != nil {
		return nil, err
	}
	if err := e.asset.Transfer(caller, pot); err != nil {
		return nil, err
	}
	e.emit(MerchantClaimedEvent{Merchant: caller, Amount: pot.Clone()})
	return pot.Clone(), nil
}
