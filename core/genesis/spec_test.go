package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"eusko/crypto"
)

func testAccount(b byte) string {
	var a crypto.Address
	a[19] = b
	return a.String()
}

func validSpec() GenesisSpec {
	return GenesisSpec{
		ChainID:     7,
		GenesisTime: "2024-01-01T00:00:00Z",
		RefAsset: RefAssetSpec{
			Owner: testAccount(1),
			Alloc: map[string]string{testAccount(3): "500", testAccount(2): "1000"},
		},
		Ledger: LedgerSpec{
			Owner:          testAccount(1),
			Reserve:        testAccount(4),
			InitialReserve: "250",
			Authorized:     []string{testAccount(5)},
			Merchants:      []string{testAccount(6)},
		},
		Multisig:   MultisigSpec{Signers: []string{testAccount(7), testAccount(8)}, Threshold: 2},
		Governance: GovernanceSpec{Owner: testAccount(1), DiscountRate: 5},
	}
}

func TestLoadGenesisSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	raw := `{
  "chainId": 7,
  "genesisTime": "2024-01-01T00:00:00Z",
  "refAsset": {"owner": "` + testAccount(1) + `", "alloc": {"` + testAccount(2) + `": "1000"}},
  "ledger": {"owner": "` + testAccount(1) + `", "reserve": "` + testAccount(4) + `", "initialReserve": "250"},
  "multisig": {"signers": ["` + testAccount(7) + `"], "threshold": 1},
  "governance": {"owner": "` + testAccount(1) + `", "discountRate": 5}
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	spec, err := LoadGenesisSpec(path)
	require.NoError(t, err)
	require.EqualValues(t, 7, spec.ChainID)
	require.Equal(t, 2024, spec.GenesisTimestamp().Year())

	reserve, err := spec.InitialReserve()
	require.NoError(t, err)
	require.EqualValues(t, 250, reserve.Uint64())
	require.Len(t, spec.Signers(), 1)
}

func TestAllocationsSorted(t *testing.T) {
	spec := validSpec()
	require.NoError(t, spec.Validate())
	allocs, err := spec.Allocations()
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	require.Equal(t, testAccount(2), allocs[0].Account.String())
	require.EqualValues(t, 1000, allocs[0].Amount.Uint64())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*GenesisSpec){
		"missing chain id":   func(s *GenesisSpec) { s.ChainID = 0 },
		"bad time":           func(s *GenesisSpec) { s.GenesisTime = "yesterday" },
		"bad owner":          func(s *GenesisSpec) { s.Ledger.Owner = "nope" },
		"negative amount":    func(s *GenesisSpec) { s.Ledger.InitialReserve = "-1" },
		"threshold too high": func(s *GenesisSpec) { s.Multisig.Threshold = 3 },
		"zero threshold":     func(s *GenesisSpec) { s.Multisig.Threshold = 0 },
		"duplicate signer":   func(s *GenesisSpec) { s.Multisig.Signers = []string{testAccount(7), testAccount(7)} },
		"rate too high":      func(s *GenesisSpec) { s.Governance.DiscountRate = 101 },
		"zero reserve":       func(s *GenesisSpec) { s.Ledger.Reserve = crypto.ZeroAddress.String() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec := validSpec()
			mutate(&spec)
			require.Error(t, spec.Validate())
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := ParseGenesisSpec([]byte(`{"chainId":1,"validators":[]}`))
	require.Error(t, err)
}

func TestHashIsStable(t *testing.T) {
	a, b := validSpec(), validSpec()
	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	require.Equal(t, ha, hb)

	b.Governance.DiscountRate = 6
	hb, err = b.Hash()
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)
}
