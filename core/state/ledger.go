package state

import (
	"math/big"

	"github.com/holiman/uint256"

	"eusko/crypto"
	"eusko/native/ledger"
)

type actRecord struct {
	Organism    crypto.Address
	Description string
	Reward      *big.Int
	Timestamp   uint64
}

func (m *Manager) LedgerBalance(addr crypto.Address) (*uint256.Int, error) {
	return m.getAmount(compositeKey(ledgerBalancePrefix, addr.Bytes()))
}

func (m *Manager) SetLedgerBalance(addr crypto.Address, amount *uint256.Int) error {
	return m.putAmount(compositeKey(ledgerBalancePrefix, addr.Bytes()), amount)
}

func (m *Manager) LedgerAllowance(owner, spender crypto.Address) (*uint256.Int, error) {
	return m.getAmount(compositeKey(ledgerAllowancePrefix, owner.Bytes(), spender.Bytes()))
}

func (m *Manager) SetLedgerAllowance(owner, spender crypto.Address, amount *uint256.Int) error {
	return m.putAmount(compositeKey(ledgerAllowancePrefix, owner.Bytes(), spender.Bytes()), amount)
}

func (m *Manager) LedgerTotalSupply() (*uint256.Int, error) {
	return m.getAmount(ledgerSupplyKey)
}

func (m *Manager) SetLedgerTotalSupply(amount *uint256.Int) error {
	return m.putAmount(ledgerSupplyKey, amount)
}

func (m *Manager) LedgerTotalReserve() (*uint256.Int, error) {
	return m.getAmount(ledgerReserveTotalKey)
}

func (m *Manager) SetLedgerTotalReserve(amount *uint256.Int) error {
	return m.putAmount(ledgerReserveTotalKey, amount)
}

func (m *Manager) LedgerOwner() (crypto.Address, error) {
	return m.getAddress(ledgerOwnerKey)
}

func (m *Manager) SetLedgerOwner(owner crypto.Address) error {
	return m.KVPut(ledgerOwnerKey, owner)
}

func (m *Manager) LedgerReserveAddress() (crypto.Address, error) {
	return m.getAddress(ledgerReserveAddrKey)
}

func (m *Manager) SetLedgerReserveAddress(addr crypto.Address) error {
	return m.KVPut(ledgerReserveAddrKey, addr)
}

func (m *Manager) LedgerAuthorized(addr crypto.Address) (bool, error) {
	return m.getBool(compositeKey(ledgerAuthorizedPrefix, addr.Bytes()))
}

func (m *Manager) SetLedgerAuthorized(addr crypto.Address, authorized bool) error {
	return m.setMembership(ledgerAuthorizedPrefix, ledgerAuthorizedList, addr, authorized)
}

func (m *Manager) LedgerAuthorizedList() ([]crypto.Address, error) {
	return m.getAddressList(ledgerAuthorizedList)
}

func (m *Manager) LedgerMerchantApproved(addr crypto.Address) (bool, error) {
	return m.getBool(compositeKey(ledgerMerchantPrefix, addr.Bytes()))
}

func (m *Manager) SetLedgerMerchantApproved(addr crypto.Address, approved bool) error {
	return m.setMembership(ledgerMerchantPrefix, ledgerMerchantList, addr, approved)
}

func (m *Manager) LedgerMerchantList() ([]crypto.Address, error) {
	return m.getAddressList(ledgerMerchantList)
}

func (m *Manager) LedgerMerchantBalance(addr crypto.Address) (*uint256.Int, error) {
	return m.getAmount(compositeKey(ledgerPotPrefix, addr.Bytes()))
}

func (m *Manager) SetLedgerMerchantBalance(addr crypto.Address, amount *uint256.Int) error {
	return m.putAmount(compositeKey(ledgerPotPrefix, addr.Bytes()), amount)
}

func (m *Manager) LedgerActs(volunteer crypto.Address) ([]ledger.VolunteerAct, error) {
	var records []actRecord
	if _, err := m.KVGet(compositeKey(ledgerActsPrefix, volunteer.Bytes()), &records); err != nil {
		return nil, err
	}
	acts := make([]ledger.VolunteerAct, len(records))
	for i, rec := range records {
		reward, overflow := uint256.FromBig(rec.Reward)
		if overflow {
			return nil, ledger.ErrAmountOverflow
		}
		acts[i] = ledger.VolunteerAct{
			Organism:    rec.Organism,
			Description: rec.Description,
			Reward:      reward,
			Timestamp:   rec.Timestamp,
		}
	}
	return acts, nil
}

func (m *Manager) SetLedgerActs(volunteer crypto.Address, acts []ledger.VolunteerAct) error {
	key := compositeKey(ledgerActsPrefix, volunteer.Bytes())
	if len(acts) == 0 {
		m.KVDelete(key)
		return nil
	}
	records := make([]actRecord, len(acts))
	for i, act := range acts {
		reward := new(big.Int)
		if act.Reward != nil {
			reward = act.Reward.ToBig()
		}
		records[i] = actRecord{
			Organism:    act.Organism,
			Description: act.Description,
			Reward:      reward,
			Timestamp:   act.Timestamp,
		}
	}
	return m.KVPut(key, records)
}

// setMembership flips a membership flag and keeps the insertion-ordered list
// in step with it.
func (m *Manager) setMembership(prefix, listKey []byte, addr crypto.Address, member bool) error {
	flagKey := compositeKey(prefix, addr.Bytes())
	current, err := m.getBool(flagKey)
	if err != nil {
		return err
	}
	if current == member {
		return nil
	}
	list, err := m.getAddressList(listKey)
	if err != nil {
		return err
	}
	if member {
		list = append(list, addr)
	} else {
		filtered := list[:0]
		for _, existing := range list {
			if existing != addr {
				filtered = append(filtered, existing)
			}
		}
		list = filtered
	}
	if err := m.putBool(flagKey, member); err != nil {
		return err
	}
	if len(list) == 0 {
		m.KVDelete(listKey)
		return nil
	}
	return m.KVPut(listKey, list)
}
