package ledger

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

func (e *Engine) Name() string { return TokenName }

func (e *Engine) Symbol() string { return TokenSymbol }

func (e *Engine) Decimals() uint8 { return TokenDecimals }

func (e *Engine) BalanceOf(addr crypto.Address) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerBalance(addr)
}

func (e *Engine) TotalSupply() (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerTotalSupply()
}

func (e *Engine) Allowance(owner, spender crypto.Address) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.LedgerAllowance(owner, spender)
}

// Transfer moves amount from caller to to. The custody account is excluded
// on both sides so that its token balance always equals the sum of unpaid
// merchant pots.
func (e *Engine) Transfer(caller, to crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.checkTransferParties(caller, to); err != nil {
		return err
	}
	amount = orZero(amount)
	if err := e.move(caller, to, amount); err != nil {
		return err
	}
	e.emit(TransferEvent{From: caller, To: to, Amount: amount.Clone()})
	return nil
}

func (e *Engine) Approve(owner, spender crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAddress
	}
	amount = orZero(amount)
	if err := e.state.SetLedgerAllowance(owner, spender, amount); err != nil {
		return err
	}
	e.emit(ApprovalEvent{Owner: owner, Spender: spender, Amount: amount.Clone()})
	return nil
}

func (e *Engine) TransferFrom(spender, from, to crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.checkTransferParties(from, to); err != nil {
		return err
	}
	amount = orZero(amount)
	allowance, err := e.state.LedgerAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := e.move(from, to, amount); err != nil {
		return err
	}
	if err := e.state.SetLedgerAllowance(from, spender, new(uint256.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	e.emit(TransferEvent{From: from, To: to, Amount: amount.Clone()})
	return nil
}

func (e *Engine) checkTransferParties(from, to crypto.Address) error {
	if from.IsZero() || to.IsZero() {
		return ErrInvalidReceiver
	}
	if from == e.custody || to == e.custody {
		return ErrCustodyTransfer
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
