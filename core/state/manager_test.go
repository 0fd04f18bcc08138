package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
	"eusko/native/governance"
	"eusko/native/ledger"
	"eusko/native/multisig"
	"eusko/storage"
)

func addr(b byte) crypto.Address {
	var a crypto.Address
	a[19] = b
	return a
}

func TestManagerCommitAndDiscard(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	require.NoError(t, m.SetLedgerBalance(addr(1), uint256.NewInt(42)))
	got, err := m.LedgerBalance(addr(1))
	require.NoError(t, err)
	require.EqualValues(t, 42, got.Uint64(), "reads see staged writes")

	fresh := NewManager(db)
	got, err = fresh.LedgerBalance(addr(1))
	require.NoError(t, err)
	require.True(t, got.IsZero(), "staged writes stay out of the database")

	require.NoError(t, m.Commit())
	require.Zero(t, m.Pending())
	got, err = fresh.LedgerBalance(addr(1))
	require.NoError(t, err)
	require.EqualValues(t, 42, got.Uint64())

	require.NoError(t, m.SetLedgerBalance(addr(1), uint256.NewInt(7)))
	m.Discard()
	got, err = m.LedgerBalance(addr(1))
	require.NoError(t, err)
	require.EqualValues(t, 42, got.Uint64())
}

func TestZeroAmountsDeleteKeys(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	require.NoError(t, m.SetLedgerTotalSupply(uint256.NewInt(5)))
	require.NoError(t, m.Commit())

	require.NoError(t, m.SetLedgerTotalSupply(new(uint256.Int)))
	require.NoError(t, m.Commit())
	has, err := db.Has(kvKey(ledgerSupplyKey))
	require.NoError(t, err)
	require.False(t, has)
}

func TestMembershipListsKeepInsertionOrder(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	for _, b := range []byte{3, 1, 2} {
		require.NoError(t, m.SetLedgerMerchantApproved(addr(b), true))
	}
	require.NoError(t, m.SetLedgerMerchantApproved(addr(1), true))
	list, err := m.LedgerMerchantList()
	require.NoError(t, err)
	require.Equal(t, []crypto.Address{addr(3), addr(1), addr(2)}, list)

	require.NoError(t, m.SetLedgerMerchantApproved(addr(1), false))
	list, err = m.LedgerMerchantList()
	require.NoError(t, err)
	require.Equal(t, []crypto.Address{addr(3), addr(2)}, list)
	ok, err := m.LedgerMerchantApproved(addr(1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLedgerActsRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	acts := []ledger.VolunteerAct{
		{Organism: addr(9), Description: "Café", Reward: uint256.NewInt(10), Timestamp: 100},
		{Organism: addr(8), Description: "second", Reward: uint256.NewInt(1), Timestamp: 200},
	}
	require.NoError(t, m.SetLedgerActs(addr(1), acts))
	require.NoError(t, m.Commit())

	got, err := NewManager(db).LedgerActs(addr(1))
	require.NoError(t, err)
	require.Equal(t, acts, got)

	require.NoError(t, m.SetLedgerActs(addr(1), nil))
	got, err = m.LedgerActs(addr(1))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMultisigQueue(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	tx := &multisig.Transaction{Target: addr(5), Value: new(uint256.Int), Data: []byte{1, 2}}

	require.Error(t, m.PutMultisigTransaction(1, tx))
	require.NoError(t, m.PutMultisigTransaction(0, tx))
	count, err := m.MultisigTransactionCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	tx.Executed = true
	tx.Confirmations = 2
	require.NoError(t, m.PutMultisigTransaction(0, tx))
	count, _ = m.MultisigTransactionCount()
	require.EqualValues(t, 1, count)

	got, ok, err := m.MultisigTransaction(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Executed)
	require.EqualValues(t, 2, got.Confirmations)
	require.Equal(t, []byte{1, 2}, got.Data)

	_, ok, err = m.MultisigTransaction(4)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SetMultisigConfirmed(0, addr(1), true))
	confirmed, _ := m.MultisigConfirmed(0, addr(1))
	require.True(t, confirmed)
	confirmed, _ = m.MultisigConfirmed(0, addr(2))
	require.False(t, confirmed)
}

func TestGovernanceRecords(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	p := &governance.Proposal{ID: 0, Proposer: addr(1), Description: "rate", NewRate: 10}
	require.NoError(t, m.GovernancePutProposal(p))
	got, ok, err := m.GovernanceGetProposal(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p, got)

	require.Error(t, m.GovernancePutBadge(&governance.Badge{ID: 2, Holder: addr(1)}))
	require.NoError(t, m.GovernancePutBadge(&governance.Badge{ID: 1, Holder: addr(1), MetadataURI: "ipfs://x"}))
	count, _ := m.GovernanceBadgeCount()
	require.EqualValues(t, 1, count)
}

func TestEventLog(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	hash := common.HexToHash("0x01")
	for i := uint64(0); i < 3; i++ {
		evt := types.Event{Type: "ledger.transfer", Attributes: map[string]string{"n": events.FormatUint(i)}}
		require.NoError(t, m.AppendEvent(events.NewRecord(i, 1, hash, uint32(i), evt, 10)))
	}
	require.Error(t, m.AppendEvent(events.Record{Sequence: 7}))
	require.NoError(t, m.Commit())

	recs, err := NewManager(db).Events(1, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.EqualValues(t, 1, recs[0].Sequence)
	require.Equal(t, "2", recs[1].Attributes["n"])

	recs, err = m.Events(3, 10)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestReceiptsAndChainCounters(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	receipt := &types.Receipt{TxHash: common.HexToHash("0xabc"), Height: 3, From: addr(1), Status: types.ReceiptStatusSuccess}
	require.NoError(t, m.PutReceipt(receipt))
	got, ok, err := m.Receipt(receipt.TxHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, receipt.From, got.From)
	require.True(t, got.Succeeded())

	require.NoError(t, m.SetNonce(addr(1), 4))
	nonce, _ := m.Nonce(addr(1))
	require.EqualValues(t, 4, nonce)

	_, ok, err = m.GenesisHash()
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, m.SetGenesisHash(common.HexToHash("0xfeed")))
	hash, ok, _ := m.GenesisHash()
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0xfeed"), hash)
}
