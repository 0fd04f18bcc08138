package state

import (
	"fmt"

	"eusko/crypto"
	"eusko/native/governance"
)

func (m *Manager) GovernanceOwner() (crypto.Address, error) {
	return m.getAddress(governanceOwnerKey)
}

func (m *Manager) SetGovernanceOwner(owner crypto.Address) error {
	return m.KVPut(governanceOwnerKey, owner)
}

func (m *Manager) GovernanceDiscountRate() (uint64, error) {
	return m.getUint64(governanceRateKey)
}

func (m *Manager) SetGovernanceDiscountRate(rate uint64) error {
	return m.KVPut(governanceRateKey, rate)
}

func (m *Manager) GovernanceProposalCount() (uint64, error) {
	return m.getUint64(governanceCountKey)
}

func (m *Manager) GovernanceGetProposal(id uint64) (*governance.Proposal, bool, error) {
	p := new(governance.Proposal)
	ok, err := m.KVGet(compositeKey(governanceProposalPfx, uint64Bytes(id)), p)
	if err != nil || !ok {
		return nil, false, err
	}
	return p, true, nil
}

// GovernancePutProposal stores p. A proposal with the next free id bumps the
// proposal count.
func (m *Manager) GovernancePutProposal(p *governance.Proposal) error {
	if p == nil {
		return fmt.Errorf("state: nil proposal")
	}
	count, err := m.GovernanceProposalCount()
	if err != nil {
		return err
	}
	if p.ID > count {
		return fmt.Errorf("state: proposal id %d beyond count %d", p.ID, count)
	}
	if err := m.KVPut(compositeKey(governanceProposalPfx, uint64Bytes(p.ID)), p); err != nil {
		return err
	}
	if p.ID == count {
		return m.KVPut(governanceCountKey, count+1)
	}
	return nil
}

func (m *Manager) GovernanceHasVoted(id uint64, voter crypto.Address) (bool, error) {
	return m.getBool(compositeKey(governanceVotePrefix, uint64Bytes(id), voter.Bytes()))
}

func (m *Manager) GovernanceMarkVoted(id uint64, voter crypto.Address) error {
	return m.putBool(compositeKey(governanceVotePrefix, uint64Bytes(id), voter.Bytes()), true)
}

func (m *Manager) GovernanceBadgeCount() (uint64, error) {
	return m.getUint64(governanceBadgeCount)
}

func (m *Manager) GovernanceGetBadge(id uint64) (*governance.Badge, bool, error) {
	b := new(governance.Badge)
	ok, err := m.KVGet(compositeKey(governanceBadgePrefix, uint64Bytes(id)), b)
	if err != nil || !ok {
		return nil, false, err
	}
	return b, true, nil
}

// GovernancePutBadge stores a newly minted badge. Badge ids start at 1.
func (m *Manager) GovernancePutBadge(b *governance.Badge) error {
	if b == nil {
		return fmt.Errorf("state: nil badge")
	}
	count, err := m.GovernanceBadgeCount()
	if err != nil {
		return err
	}
	if b.ID != count+1 {
		return fmt.Errorf("state: badge id %d out of sequence", b.ID)
	}
	if err := m.KVPut(compositeKey(governanceBadgePrefix, uint64Bytes(b.ID)), b); err != nil {
		return err
	}
	return m.KVPut(governanceBadgeCount, b.ID)
}
