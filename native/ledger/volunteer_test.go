package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"eusko/crypto"
)

const yearSeconds = int64(ExpiryWindow / time.Second)

func fundReserve(t *testing.T, f *fixture, amount uint64) {
	t.Helper()
	f.mint(t, f.reserve, amount)
}

func TestRegisterActMovesReward(t *testing.T) {
	f := newFixture(t)
	volunteer, organism := addr(50), addr(51)
	fundReserve(t, f, 100)

	act, err := f.engine.RegisterAct(f.owner, volunteer, organism, "Beach clean-up", uint256.NewInt(50))
	require.NoError(t, err)
	require.EqualValues(t, f.now, act.Timestamp)

	require.EqualValues(t, 50, f.balance(t, volunteer))
	require.EqualValues(t, 50, f.balance(t, f.reserve))
	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Len(t, acts, 1)
	require.Equal(t, organism, acts[0].Organism)

	registered := f.events.ofType(EventTypeVolunteerActRegistered)
	require.Len(t, registered, 1)
	require.Equal(t, "Beach clean-up", registered[0].Attributes["description"])
	require.Equal(t, "50", registered[0].Attributes["reward"])
	f.assertBacked(t)
}

func TestRegisterActRejects(t *testing.T) {
	f := newFixture(t)
	volunteer, organism, stranger := addr(50), addr(51), addr(52)
	fundReserve(t, f, 10)

	_, err := f.engine.RegisterAct(stranger, volunteer, organism, "x", uint256.NewInt(1))
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.engine.RegisterAct(f.owner, crypto.ZeroAddress, organism, "x", uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidVolunteer)
	_, err = f.engine.RegisterAct(f.owner, volunteer, organism, "x", uint256.NewInt(0))
	require.ErrorIs(t, err, ErrInvalidReward)
	_, err = f.engine.RegisterAct(f.owner, volunteer, organism, strings.Repeat("a", MaxDescriptionBytes+1), uint256.NewInt(1))
	require.ErrorIs(t, err, ErrDescriptionTooLong)
	_, err = f.engine.RegisterAct(f.owner, volunteer, organism, "x", uint256.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Empty(t, acts)
}

func TestRegisterActNormalizesDescription(t *testing.T) {
	f := newFixture(t)
	fundReserve(t, f, 10)
	// "e" followed by a combining acute accent composes to U+00E9.
	act, err := f.engine.RegisterAct(f.owner, addr(50), addr(51), "  Cafe\u0301 solidaire ", uint256.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "Caf\u00e9 solidaire", act.Description)
}

func TestRemoveExpiredActsReversesReward(t *testing.T) {
	f := newFixture(t)
	volunteer, organism := addr(50), addr(51)
	fundReserve(t, f, 100)
	_, err := f.engine.RegisterAct(f.owner, volunteer, organism, "Food bank", uint256.NewInt(50))
	require.NoError(t, err)

	f.now += yearSeconds + 1
	removed, err := f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	require.Zero(t, f.balance(t, volunteer))
	require.EqualValues(t, 100, f.balance(t, f.reserve))
	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Empty(t, acts)

	expired := f.events.ofType(EventTypeExpiredActRemoved)
	require.Len(t, expired, 1)
	require.Equal(t, "Food bank", expired[0].Attributes["description"])
	require.Equal(t, "50", expired[0].Attributes["reward"])
	f.assertBacked(t)
}

func TestRemoveExpiredActsBoundaryAndOrder(t *testing.T) {
	f := newFixture(t)
	volunteer := addr(50)
	fundReserve(t, f, 100)
	start := f.now

	_, err := f.engine.RegisterAct(f.owner, volunteer, addr(51), "first", uint256.NewInt(10))
	require.NoError(t, err)
	f.now = start + 100
	_, err = f.engine.RegisterAct(f.owner, volunteer, addr(51), "second", uint256.NewInt(20))
	require.NoError(t, err)
	f.now = start + 200
	_, err = f.engine.RegisterAct(f.owner, volunteer, addr(51), "third", uint256.NewInt(30))
	require.NoError(t, err)

	// Exactly one window after the first act: not yet expired.
	f.now = start + yearSeconds
	removed, err := f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.NoError(t, err)
	require.Empty(t, removed)

	// Past the first two, not the third.
	f.now = start + 150 + yearSeconds
	removed, err = f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.NoError(t, err)
	require.Len(t, removed, 2)

	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Len(t, acts, 1)
	require.Equal(t, "third", acts[0].Description)
	require.EqualValues(t, 30, f.balance(t, volunteer))
	require.EqualValues(t, 70, f.balance(t, f.reserve))
	f.assertBacked(t)
}

func TestRemoveExpiredActsIdempotent(t *testing.T) {
	f := newFixture(t)
	volunteer := addr(50)
	fundReserve(t, f, 10)
	_, err := f.engine.RegisterAct(f.owner, volunteer, addr(51), "once", uint256.NewInt(10))
	require.NoError(t, err)
	f.now += yearSeconds + 1

	_, err = f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.NoError(t, err)
	eventsAfterFirst := len(f.events.events)
	reserveAfterFirst := f.balance(t, f.reserve)

	removed, err := f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.NoError(t, err)
	require.Empty(t, removed)
	require.Len(t, f.events.events, eventsAfterFirst)
	require.Equal(t, reserveAfterFirst, f.balance(t, f.reserve))

	// A volunteer with no acts at all is a no-op too.
	removed, err = f.engine.RemoveExpiredActs(f.owner, addr(99))
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestRemoveExpiredActsFailsWholeSweepWhenRewardSpent(t *testing.T) {
	f := newFixture(t)
	volunteer, friend := addr(50), addr(53)
	fundReserve(t, f, 10)
	_, err := f.engine.RegisterAct(f.owner, volunteer, addr(51), "spent", uint256.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, f.engine.Transfer(volunteer, friend, uint256.NewInt(10)))

	f.now += yearSeconds + 1
	_, err = f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Len(t, acts, 1, "acts are only rewritten after every reversal succeeds")
}

func TestRemoveExpiredActsLeavesStateWhenOnlyFirstRewardCovered(t *testing.T) {
	f := newFixture(t)
	volunteer, friend := addr(50), addr(53)
	fundReserve(t, f, 30)
	_, err := f.engine.RegisterAct(f.owner, volunteer, addr(51), "first", uint256.NewInt(10))
	require.NoError(t, err)
	_, err = f.engine.RegisterAct(f.owner, volunteer, addr(51), "second", uint256.NewInt(20))
	require.NoError(t, err)
	require.NoError(t, f.engine.Transfer(volunteer, friend, uint256.NewInt(15)))

	f.now += yearSeconds + 1
	eventsBefore := len(f.events.events)
	_, err = f.engine.RemoveExpiredActs(f.owner, volunteer)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.EqualValues(t, 15, f.balance(t, volunteer))
	require.EqualValues(t, 0, f.balance(t, f.reserve))
	require.Len(t, f.events.events, eventsBefore)
	acts, _ := f.engine.ActsByVolunteer(volunteer)
	require.Len(t, acts, 2)
	f.assertBacked(t)
}

func TestRemoveExpiredActsRequiresAuthorization(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RemoveExpiredActs(addr(77), addr(50))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestActsRoundTripThroughABI(t *testing.T) {
	acts := []VolunteerAct{
		{Organism: addr(51), Description: "one", Reward: uint256.NewInt(5), Timestamp: 10},
		{Organism: addr(52), Description: "two", Reward: uint256.NewInt(7), Timestamp: 20},
	}
	encoded, err := EncodeActs(acts)
	require.NoError(t, err)
	decoded, err := DecodeActs(encoded)
	require.NoError(t, err)
	require.Equal(t, acts, decoded)
}
