package volunteering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"eusko/crypto"
)

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" readyOnChain ")
	require.NoError(t, err)
	require.Equal(t, StatusReadyOnChain, status)

	_, err = ParseStatus("ReadyOnChain")
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("done")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCheckWalksTheWorkflowInOrder(t *testing.T) {
	organism := "eus1organism"
	op := Opportunity{ID: 1, Organism: organism, Status: StatusNew}

	require.NoError(t, Check(op, Transition{Caller: "eus1anyone", Target: StatusInProgress}))
	require.ErrorIs(t, Check(op, Transition{Caller: organism, Target: StatusValidated, Merchant: true}), ErrInvalidTransition)

	op.Status = StatusInProgress
	require.ErrorIs(t, Check(op, Transition{Caller: "eus1other", Target: StatusValidated, Merchant: true}), ErrNotOrganism)
	require.ErrorIs(t, Check(op, Transition{Caller: organism, Target: StatusValidated}), ErrNotApprovedMerchant)
	require.NoError(t, Check(op, Transition{Caller: organism, Target: StatusValidated, Merchant: true}))

	op.Status = StatusValidated
	require.NoError(t, Check(op, Transition{Caller: organism, Target: StatusFinished, Merchant: true}))
	op.Status = StatusFinished
	require.NoError(t, Check(op, Transition{Caller: organism, Target: StatusReadyOnChain, Merchant: true}))

	op.Status = StatusReadyOnChain
	require.ErrorIs(t, Check(op, Transition{Caller: organism, Target: StatusRegisteredOnChain, Merchant: true}), ErrBridgeOnly)

	op.Status = StatusRegisteredOnChain
	require.ErrorIs(t, Check(op, Transition{Caller: organism, Target: StatusNew, Merchant: true}), ErrInvalidTransition)
}

func TestCheckComparesAddressForms(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.PubKey().Address()
	op := Opportunity{Organism: addr.Hex(), Status: StatusInProgress}

	require.NoError(t, Check(op, Transition{Caller: addr.String(), Target: StatusValidated, Merchant: true}))
}

func TestApplyAssignsVolunteer(t *testing.T) {
	op := Opportunity{Status: StatusNew}
	other := "eus1someoneelse"
	Apply(&op, Transition{Caller: "eus1caller", Volunteer: &other, Target: StatusInProgress})
	require.Equal(t, StatusInProgress, op.Status)
	require.Equal(t, "eus1caller", op.Volunteer, "an authenticated applicant applies for themselves")

	op = Opportunity{Status: StatusNew}
	given := " eus1given "
	Apply(&op, Transition{Volunteer: &given, Target: StatusInProgress})
	require.Equal(t, "eus1given", op.Volunteer)

	Apply(&op, Transition{Caller: "eus1organism", Target: StatusValidated})
	require.Equal(t, "eus1given", op.Volunteer, "later steps keep the volunteer")
}

func TestApplyClearsVolunteerWhenBlank(t *testing.T) {
	op := Opportunity{Status: StatusInProgress, Volunteer: "eus1given"}
	blank := "  "
	Apply(&op, Transition{Volunteer: &blank, Target: StatusNew})
	require.Equal(t, StatusNew, op.Status)
	require.Empty(t, op.Volunteer)
}
