// Package coretest boots in-memory chains for tests of the outer layers.
package coretest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eusko/core"
	"eusko/core/genesis"
	"eusko/crypto"
	"eusko/storage"
)

const ChainID = 1984

// Account is a generated key and its address.
type Account struct {
	Key  *crypto.PrivateKey
	Addr crypto.Address
}

func NewAccount(t testing.TB) Account {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return Account{Key: key, Addr: key.PubKey().Address()}
}

// Fixture is a seeded chain with its well-known accounts. Alice holds 1000
// reference units and is an authorized account; Merchant is approved; the
// reserve starts with 500 tokens.
type Fixture struct {
	Chain    *core.Chain
	Spec     *genesis.GenesisSpec
	Clock    *Clock
	Owner    Account
	Reserve  Account
	Merchant Account
	Alice    Account
	Signers  []Account
}

// Clock is a settable time source.
type Clock struct{ now time.Time }

func (c *Clock) Now() time.Time          { return c.now }
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// New builds the fixture. Each mutate hook may adjust the genesis document
// before the chain is created.
func New(t testing.TB, mutate ...func(*genesis.GenesisSpec)) *Fixture {
	t.Helper()
	f := &Fixture{
		Clock:    &Clock{now: time.Unix(1_700_000_000, 0)},
		Owner:    NewAccount(t),
		Reserve:  NewAccount(t),
		Merchant: NewAccount(t),
		Alice:    NewAccount(t),
		Signers:  []Account{NewAccount(t), NewAccount(t)},
	}
	f.Spec = &genesis.GenesisSpec{
		ChainID:     ChainID,
		GenesisTime: "2023-11-14T00:00:00Z",
		RefAsset: genesis.RefAssetSpec{
			Owner: f.Owner.Addr.String(),
			Alloc: map[string]string{f.Alice.Addr.String(): "1000"},
		},
		Ledger: genesis.LedgerSpec{
			Owner:          f.Owner.Addr.String(),
			Reserve:        f.Reserve.Addr.String(),
			InitialReserve: "500",
			Authorized:     []string{f.Alice.Addr.String()},
			Merchants:      []string{f.Merchant.Addr.String()},
		},
		Multisig: genesis.MultisigSpec{
			Signers:   []string{f.Signers[0].Addr.String(), f.Signers[1].Addr.String()},
			Threshold: 2,
		},
		Governance: genesis.GovernanceSpec{Owner: f.Owner.Addr.String(), DiscountRate: 5},
	}
	for _, fn := range mutate {
		fn(f.Spec)
	}
	chain, err := core.NewChain(storage.NewMemDB(), f.Spec, core.WithClock(f.Clock.Now))
	require.NoError(t, err)
	f.Chain = chain
	return f
}
