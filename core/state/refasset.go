package state

import (
	"github.com/holiman/uint256"

	"eusko/crypto"
)

func (m *Manager) RefAssetBalance(addr crypto.Address) (*uint256.Int, error) {
	return m.getAmount(compositeKey(refAssetBalancePrefix, addr.Bytes()))
}

func (m *Manager) SetRefAssetBalance(addr crypto.Address, amount *uint256.Int) error {
	return m.putAmount(compositeKey(refAssetBalancePrefix, addr.Bytes()), amount)
}

func (m *Manager) RefAssetAllowance(owner, spender crypto.Address) (*uint256.Int, error) {
	return m.getAmount(compositeKey(refAssetAllowancePrefix, owner.Bytes(), spender.Bytes()))
}

func (m *Manager) SetRefAssetAllowance(owner, spender crypto.Address, amount *uint256.Int) error {
	return m.putAmount(compositeKey(refAssetAllowancePrefix, owner.Bytes(), spender.Bytes()), amount)
}

func (m *Manager) RefAssetTotalSupply() (*uint256.Int, error) {
	return m.getAmount(refAssetSupplyKey)
}

func (m *Manager) SetRefAssetTotalSupply(amount *uint256.Int) error {
	return m.putAmount(refAssetSupplyKey, amount)
}

func (m *Manager) RefAssetOwner() (crypto.Address, error) {
	return m.getAddress(refAssetOwnerKey)
}

func (m *Manager) SetRefAssetOwner(owner crypto.Address) error {
	return m.KVPut(refAssetOwnerKey, owner)
}
