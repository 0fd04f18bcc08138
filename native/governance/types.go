package governance

import "eusko/crypto"

// MaxDiscountRate is the upper bound, in percent, for the merchant discount
// rate.
const MaxDiscountRate = 100

// Proposal asks the community to change the discount rate.
type Proposal struct {
	ID           uint64
	Proposer     crypto.Address
	Description  string
	NewRate      uint64
	VotesFor     uint64
	VotesAgainst uint64
	Executed     bool
	CreatedAt    uint64
}

// Clone returns a copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

// Approved reports whether strictly more votes were cast for than against.
func (p *Proposal) Approved() bool {
	return p != nil && p.VotesFor > p.VotesAgainst
}

// Badge is a non-fungible volunteer reward.
type Badge struct {
	ID          uint64
	Holder      crypto.Address
	MetadataURI string
	Data        []byte
}
