package refasset

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// Account is the asset as seen by one holder: transfers are sent by the
// holder and pulls spend the holder's allowance. The ledger uses it as its
// custody view.
type Account struct {
	engine *Engine
	holder crypto.Address
}

// NewAccount binds engine to holder.
func NewAccount(engine *Engine, holder crypto.Address) *Account {
	return &Account{engine: engine, holder: holder}
}

func (a *Account) Holder() crypto.Address { return a.holder }

func (a *Account) BalanceOf(account crypto.Address) (*uint256.Int, error) {
	return a.engine.BalanceOf(account)
}

func (a *Account) Transfer(to crypto.Address, amount *uint256.Int) error {
	return a.engine.Transfer(a.holder, to, amount)
}

func (a *Account) TransferFrom(from, to crypto.Address, amount *uint256.Int) error {
	return a.engine.TransferFrom(a.holder, from, to, amount)
}
