package refasset

import (
	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/crypto"
)

const (
	Name     = "EURC"
	Symbol   = "EURC"
	Decimals = 6
)

type engineState interface {
	RefAssetBalance(addr crypto.Address) (*uint256.Int, error)
	SetRefAssetBalance(addr crypto.Address, amount *uint256.Int) error
	RefAssetAllowance(owner, spender crypto.Address) (*uint256.Int, error)
	SetRefAssetAllowance(owner, spender crypto.Address, amount *uint256.Int) error
	RefAssetTotalSupply() (*uint256.Int, error)
	SetRefAssetTotalSupply(amount *uint256.Int) error
	RefAssetOwner() (crypto.Address, error)
	SetRefAssetOwner(owner crypto.Address) error
}

// Engine is the in-process reference currency token held in ledger custody.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Nil resets to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) BalanceOf(addr crypto.Address) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RefAssetBalance(addr)
}

func (e *Engine) TotalSupply() (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RefAssetTotalSupply()
}

func (e *Engine) Allowance(owner, spender crypto.Address) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RefAssetAllowance(owner, spender)
}

func (e *Engine) Owner() (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	return e.state.RefAssetOwner()
}

// Initialize sets the minting owner. It is only used while applying genesis.
func (e *Engine) Initialize(owner crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() {
		return ErrInvalidReceiver
	}
	return e.state.SetRefAssetOwner(owner)
}

func (e *Engine) Transfer(from, to crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.transfer(from, to, orZero(amount))
}

func (e *Engine) Approve(owner, spender crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() {
		return ErrInvalidSender
	}
	if spender.IsZero() {
		return ErrInvalidSpender
	}
	amount = orZero(amount)
	if err := e.state.SetRefAssetAllowance(owner, spender, amount); err != nil {
		return err
	}
	e.emitter.Emit(ApprovalEvent{Owner: owner, Spender: spender, Amount: amount.Clone()})
	return nil
}

// TransferFrom moves amount from from to to on behalf of spender, consuming
// allowance.
func (e *Engine) TransferFrom(spender, from, to crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	amount = orZero(amount)
	allowance, err := e.state.RefAssetAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return &InsufficientAllowanceError{Spender: spender, Allowance: allowance.Clone(), Needed: amount.Clone()}
	}
	if err := e.transfer(from, to, amount); err != nil {
		return err
	}
	return e.state.SetRefAssetAllowance(from, spender, new(uint256.Int).Sub(allowance, amount))
}

// Mint creates amount units for to. Owner only.
func (e *Engine) Mint(caller, to crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}
	amount = orZero(amount)
	supply, err := e.state.RefAssetTotalSupply()
	if err != nil {
		return err
	}
	nextSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	balance, err := e.state.RefAssetBalance(to)
	if err != nil {
		return err
	}
	if err := e.state.SetRefAssetBalance(to, new(uint256.Int).Add(balance, amount)); err != nil {
		return err
	}
	if err := e.state.SetRefAssetTotalSupply(nextSupply); err != nil {
		return err
	}
	e.emitter.Emit(TransferEvent{To: to, Amount: amount.Clone()})
	return nil
}

// Burn destroys amount units held by from. Owner only.
func (e *Engine) Burn(caller, from crypto.Address, amount *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if from.IsZero() {
		return ErrInvalidSender
	}
	amount = orZero(amount)
	balance, err := e.state.RefAssetBalance(from)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return &InsufficientBalanceError{Account: from, Balance: balance.Clone(), Needed: amount.Clone()}
	}
	supply, err := e.state.RefAssetTotalSupply()
	if err != nil {
		return err
	}
	if err := e.state.SetRefAssetBalance(from, new(uint256.Int).Sub(balance, amount)); err != nil {
		return err
	}
	if err := e.state.SetRefAssetTotalSupply(new(uint256.Int).Sub(supply, amount)); err != nil {
		return err
	}
	e.emitter.Emit(TransferEvent{From: from, Amount: amount.Clone()})
	return nil
}

func (e *Engine) requireOwner(caller crypto.Address) error {
	owner, err := e.state.RefAssetOwner()
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != owner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) transfer(from, to crypto.Address, amount *uint256.Int) error {
	if from.IsZero() {
		return ErrInvalidSender
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}
	fromBalance, err := e.state.RefAssetBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return &InsufficientBalanceError{Account: from, Balance: fromBalance.Clone(), Needed: amount.Clone()}
	}
	if err := e.state.SetRefAssetBalance(from, new(uint256.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	toBalance, err := e.state.RefAssetBalance(to)
	if err != nil {
		return err
	}
	if err := e.state.SetRefAssetBalance(to, new(uint256.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	e.emitter.Emit(TransferEvent{From: from, To: to, Amount: amount.Clone()})
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
