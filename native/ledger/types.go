package ledger

import (
	"time"

	"github.com/holiman/uint256"

	"eusko/crypto"
)

const (
	TokenName     = "Eusko"
	TokenSymbol   = "EUS"
	TokenDecimals = 6

	// ExpiryWindow is how long a volunteer act stays credited. An act
	// expires once strictly more than this much time has elapsed.
	ExpiryWindow = 365 * 24 * time.Hour

	// MaxDescriptionBytes bounds the normalised act description.
	MaxDescriptionBytes = 512
)

// VolunteerAct is a recorded contribution that credited Reward to a volunteer
// at Timestamp (unix seconds).
type VolunteerAct struct {
	Organism    crypto.Address
	Description string
	Reward      *uint256.Int
	Timestamp   uint64
}

// Clone returns a deep copy of the act.
func (a VolunteerAct) Clone() VolunteerAct {
	out := a
	if a.Reward != nil {
		out.Reward = a.Reward.Clone()
	} else {
		out.Reward = new(uint256.Int)
	}
	return out
}

// Expired reports whether the act is past the expiry window at now.
func (a VolunteerAct) Expired(now int64) bool {
	if now < 0 || uint64(now) < a.Timestamp {
		return false
	}
	return uint64(now)-a.Timestamp > uint64(ExpiryWindow/time.Second)
}

// Summary is a point-in-time view of the ledger's backing.
type Summary struct {
	TotalSupply    *uint256.Int
	TotalReserve   *uint256.Int
	CustodyBalance *uint256.Int
	Escrowed       *uint256.Int
	Owner          crypto.Address
	Reserve        crypto.Address
	Custody        crypto.Address
}

// Backed reports whether the 1:1 backing invariants hold.
func (s Summary) Backed() bool {
	if s.TotalSupply == nil || s.TotalReserve == nil || s.CustodyBalance == nil {
		return false
	}
	return s.TotalSupply.Eq(s.TotalReserve) && !s.TotalReserve.Gt(s.CustodyBalance)
}
