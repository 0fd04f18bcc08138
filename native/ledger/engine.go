package ledger

import (
	"time"

	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/crypto"
)

type engineState interface {
	LedgerBalance(addr crypto.Address) (*uint256.Int, error)
	SetLedgerBalance(addr crypto.Address, amount *uint256.Int) error
	LedgerAllowance(owner, spender crypto.Address) (*uint256.Int, error)
	SetLedgerAllowance(owner, spender crypto.Address, amount *uint256.Int) error
	LedgerTotalSupply() (*uint256.Int, error)
	SetLedgerTotalSupply(amount *uint256.Int) error
	LedgerTotalReserve() (*uint256.Int, error)
	SetLedgerTotalReserve(amount *uint256.Int) error
	LedgerOwner() (crypto.Address, error)
	SetLedgerOwner(owner crypto.Address) error
	LedgerReserveAddress() (crypto.Address, error)
	SetLedgerReserveAddress(addr crypto.Address) error
	LedgerAuthorized(addr crypto.Address) (bool, error)
	SetLedgerAuthorized(addr crypto.Address, authorized bool) error
	LedgerAuthorizedList() ([]crypto.Address, error)
	LedgerMerchantApproved(addr crypto.Address) (bool, error)
	SetLedgerMerchantApproved(addr crypto.Address, approved bool) error
	LedgerMerchantList() ([]crypto.Address, error)
	LedgerMerchantBalance(addr crypto.Address) (*uint256.Int, error)
	SetLedgerMerchantBalance(addr crypto.Address, amount *uint256.Int) error
	LedgerActs(volunteer crypto.Address) ([]VolunteerAct, error)
	SetLedgerActs(volunteer crypto.Address, acts []VolunteerAct) error
}

// ReferenceAsset is the custody asset seen from the ledger's side: every
// call is made with the custody account as the sender.
type ReferenceAsset interface {
	BalanceOf(account crypto.Address) (*uint256.Int, error)
	Transfer(to crypto.Address, amount *uint256.Int) error
	TransferFrom(from, to crypto.Address, amount *uint256.Int) error
}

// Engine implements the reserve-backed token. It is the sole writer of the
// ledger state it is bound to.
type Engine struct {
	state   engineState
	asset   ReferenceAsset
	custody crypto.Address
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a ledger engine with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetReferenceAsset configures the custody asset.
func (e *Engine) SetReferenceAsset(asset ReferenceAsset) { e.asset = asset }

// SetCustody configures the account that holds reference units and escrows
// spent tokens on behalf of merchants.
func (e *Engine) SetCustody(addr crypto.Address) { e.custody = addr }

// Custody returns the custody account.
func (e *Engine) Custody() crypto.Address { return e.custody }

// SetEmitter configures the event emitter. Nil resets to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock used for act timestamps and expiry.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) readyWithAsset() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.asset == nil {
		return errNilAsset
	}
	return nil
}

// authorize is the policy check that opens every privileged operation.
func (e *Engine) authorize(caller crypto.Address, role Role) error {
	switch role {
	case RoleOwner:
		owner, err := e.state.LedgerOwner()
		if err != nil {
			return err
		}
		if caller.IsZero() || caller != owner {
			return &AuthorizationError{Caller: caller, Role: RoleOwner}
		}
		return nil
	case RoleAuthorized:
		ok, err := e.IsAuthorizedAccount(caller)
		if err != nil {
			return err
		}
		if !ok {
			return &AuthorizationError{Caller: caller, Role: RoleAuthorized}
		}
		return nil
	case RoleMerchant:
		ok, err := e.state.LedgerMerchantApproved(caller)
		if err != nil {
			return err
		}
		if !ok {
			return &AuthorizationError{Caller: caller, Role: RoleMerchant}
		}
		return nil
	default:
		return &AuthorizationError{Caller: caller, Role: role}
	}
}

func requirePositive(amount *uint256.Int, sentinel error) error {
	if amount == nil || amount.IsZero() {
		return sentinel
	}
	return nil
}

func (e *Engine) credit(addr crypto.Address, amount *uint256.Int) error {
	balance, err := e.state.LedgerBalance(addr)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrAmountOverflow
	}
	return e.state.SetLedgerBalance(addr, next)
}

func (e *Engine) debit(addr crypto.Address, amount *uint256.Int) error {
	balance, err := e.state.LedgerBalance(addr)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return &InsufficientBalanceError{Account: addr, Balance: balance.Clone(), Needed: amount.Clone()}
	}
	return e.state.SetLedgerBalance(addr, new(uint256.Int).Sub(balance, amount))
}

// move debits from and credits to without touching supply or reserve.
func (e *Engine) move(from, to crypto.Address, amount *uint256.Int) error {
	if err := e.debit(from, amount); err != nil {
		return err
	}
	return e.credit(to, amount)
}

// adjustSupply applies delta to both total supply and total reserve so the
// two counters can never diverge.
func (e *Engine) adjustSupply(amount *uint256.Int, increase bool) error {
	supply, err := e.state.LedgerTotalSupply()
	if err != nil {
		return err
	}
	reserve, err := e.state.LedgerTotalReserve()
	if err != nil {
		return err
	}
	var nextSupply, nextReserve *uint256.Int
	if increase {
		var o1, o2 bool
		nextSupply, o1 = new(uint256.Int).AddOverflow(supply, amount)
		nextReserve, o2 = new(uint256.Int).AddOverflow(reserve, amount)
		if o1 || o2 {
			return ErrAmountOverflow
		}
	} else {
		if supply.Lt(amount) || reserve.Lt(amount) {
			return ErrInsufficientReserve
		}
		nextSupply = new(uint256.Int).Sub(supply, amount)
		nextReserve = new(uint256.Int).Sub(reserve, amount)
	}
	if err := e.state.SetLedgerTotalSupply(nextSupply); err != nil {
		return err
	}
	return e.state.SetLedgerTotalReserve(nextReserve)
}

// Summary reports supply, reserve, custody holdings and escrowed merchant
// liabilities.
func (e *Engine) Summary() (Summary, error) {
	if err := e.readyWithAsset(); err != nil {
		return Summary{}, err
	}
	supply, err := e.state.LedgerTotalSupply()
	if err != nil {
		return Summary{}, err
	}
	reserve, err := e.state.LedgerTotalReserve()
	if err != nil {
		return Summary{}, err
	}
	custody, err := e.asset.BalanceOf(e.custody)
	if err != nil {
		return Summary{}, err
	}
	escrowed, err := e.state.LedgerBalance(e.custody)
	if err != nil {
		return Summary{}, err
	}
	owner, err := e.state.LedgerOwner()
	if err != nil {
		return Summary{}, err
	}
	reserveAddr, err := e.state.LedgerReserveAddress()
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalSupply:    supply,
		TotalReserve:   reserve,
		CustodyBalance: custody,
		Escrowed:       escrowed,
		Owner:          owner,
		Reserve:        reserveAddr,
		Custody:        e.custody,
	}, nil
}
