package ledger

import "eusko/crypto"

// Initialize installs the owner and the reserve account at genesis.
func (e *Engine) Initialize(owner, reserve crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() || owner == e.custody {
		return ErrInvalidAddress
	}
	if reserve.IsZero() || reserve == e.custody {
		return ErrInvalidReserve
	}
	if err := e.state.SetLedgerOwner(owner); err != nil {
		return err
	}
	return e.state.SetLedgerReserveAddress(reserve)
}

func (e *Engine) Owner() (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	return e.state.LedgerOwner()
}

func (e *Engine) TransferOwnership(caller, newOwner crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrInvalidAddress
	}
	if err := e.state.SetLedgerOwner(newOwner); err != nil {
		return err
	}
	e.emit(OwnershipTransferredEvent{Previous: caller, Next: newOwner})
	return nil
}

// IsAuthorizedAccount is true for the owner and for explicit members.
func (e *Engine) IsAuthorizedAccount(addr crypto.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if addr.IsZero() {
		return false, nil
	}
	owner, err := e.state.LedgerOwner()
	if err != nil {
		return false, err
	}
	if addr == owner {
		return true, nil
	}
	return e.state.LedgerAuthorized(addr)
}

// AuthorizedAccounts lists explicit members; the owner is implicit.
func (e *Engine) AuthorizedAccounts() ([]crypto.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerAuthorizedList()
}

func (e *Engine) AddAuthorizedAccount(caller, account crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	if account.IsZero() {
		return ErrInvalidAddress
	}
	if err := e.state.SetLedgerAuthorized(account, true); err != nil {
		return err
	}
	e.emit(MembershipEvent{Type: EventTypeAuthorizedAccountAdded, Account: account})
	return nil
}

func (e *Engine) RemoveAuthorizedAccount(caller, account crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.authorize(caller, RoleOwner); err != nil {
		return err
	}
	if account.IsZero() {
		return ErrInvalidAddress
	}
	member, err := e.state.LedgerAuthorized(account)
	if err != nil {
		return err
	}
	if !member {
		return ErrAccountNotAuthorized
	}
	if err := e.state.SetLedgerAuthorized(account, false); err != nil {
		return err
	}
	e.emit(MembershipEvent{Type: EventTypeAuthorizedAccountRemoved, Account: account})
	return nil
}
