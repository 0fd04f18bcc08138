package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSpendAndClaim(t *testing.T) {
	f := newFixture(t)
	user, merchant := addr(10), addr(40)
	f.mint(t, user, 20)
	require.NoError(t, f.engine.AddMerchant(f.owner, merchant))

	require.NoError(t, f.engine.Spend(user, merchant, uint256.NewInt(6)))
	require.EqualValues(t, 14, f.balance(t, user))
	pot, _ := f.engine.MerchantBalance(merchant)
	require.EqualValues(t, 6, pot.Uint64())
	f.assertBacked(t)

	custodyBefore, _ := f.engine.CustodyBalance()
	claimed, err := f.engine.ClaimFunds(merchant)
	require.NoError(t, err)
	require.EqualValues(t, 6, claimed.Uint64())

	pot, _ = f.engine.MerchantBalance(merchant)
	require.True(t, pot.IsZero())
	custodyAfter, _ := f.engine.CustodyBalance()
	require.EqualValues(t, 6, new(uint256.Int).Sub(custodyBefore, custodyAfter).Uint64())
	reserve, _ := f.engine.TotalReserve()
	require.EqualValues(t, 14, reserve.Uint64())
	paid, _ := f.asset.BalanceOf(merchant)
	require.EqualValues(t, 6, paid.Uint64())

	require.Len(t, f.events.ofType(EventTypeSpent), 1)
	claimedEvents := f.events.ofType(EventTypeMerchantClaimed)
	require.Len(t, claimedEvents, 1)
	require.Equal(t, "6", claimedEvents[0].Attributes["amount"])
	f.assertBacked(t)
}

func TestSpendRejects(t *testing.T) {
	f := newFixture(t)
	user, merchant, other := addr(10), addr(40), addr(41)
	f.mint(t, user, 5)
	require.NoError(t, f.engine.AddMerchant(f.owner, merchant))

	require.ErrorIs(t, f.engine.Spend(user, other, uint256.NewInt(1)), ErrNotApprovedMerchant)
	require.ErrorIs(t, f.engine.Spend(user, merchant, uint256.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, f.engine.Spend(user, merchant, uint256.NewInt(6)), ErrInsufficientBalance)
	pot, _ := f.engine.MerchantBalance(merchant)
	require.True(t, pot.IsZero())
	f.assertBacked(t)
}

func TestClaimFundsCheckOrder(t *testing.T) {
	f := newFixture(t)
	merchant, stranger := addr(40), addr(41)

	_, err := f.engine.ClaimFunds(stranger)
	require.ErrorIs(t, err, ErrNotMerchant)

	require.NoError(t, f.engine.AddMerchant(f.owner, merchant))
	_, err = f.engine.ClaimFunds(merchant)
	require.ErrorIs(t, err, ErrNothingToClaim)
}

func TestClaimFundsGuardsCustody(t *testing.T) {
	f := newFixture(t)
	user, merchant := addr(10), addr(40)
	f.mint(t, user, 10)
	require.NoError(t, f.engine.AddMerchant(f.owner, merchant))
	require.NoError(t, f.engine.Spend(user, merchant, uint256.NewInt(8)))

	f.asset.balances[f.custody] = uint256.NewInt(7)
	_, err := f.engine.ClaimFunds(merchant)
	require.ErrorIs(t, err, ErrInsufficientReserve)
	pot, _ := f.engine.MerchantBalance(merchant)
	require.EqualValues(t, 8, pot.Uint64(), "pot survives a failed claim")
}

func TestMerchantMembership(t *testing.T) {
	f := newFixture(t)
	merchant := addr(40)

	require.ErrorIs(t, f.engine.AddMerchant(merchant, merchant), ErrNotOwner)
	require.ErrorIs(t, f.engine.RemoveMerchant(f.owner, merchant), ErrMerchantNotApproved)

	require.NoError(t, f.engine.AddMerchant(f.owner, merchant))
	require.NoError(t, f.engine.AddMerchant(f.owner, merchant), "re-adding is idempotent")
	list, _ := f.engine.Merchants()
	require.Len(t, list, 1)
	require.Len(t, f.events.ofType(EventTypeMerchantAdded), 2)

	require.NoError(t, f.engine.RemoveMerchant(f.owner, merchant))
	ok, _ := f.engine.IsApprovedMerchant(merchant)
	require.False(t, ok)
	require.Len(t, f.events.ofType(EventTypeMerchantRemoved), 1)
}
