package multisig

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	coreerrors "eusko/core/errors"
	"eusko/core/events"
	"eusko/crypto"
)

type confirmKey struct {
	index  uint64
	signer crypto.Address
}

type mockState struct {
	signers   []crypto.Address
	threshold uint64
	txs       []*Transaction
	confirmed map[confirmKey]bool
}

func newMockState() *mockState {
	return &mockState{confirmed: make(map[confirmKey]bool)}
}

func (m *mockState) MultisigSigners() ([]crypto.Address, error) {
	return append([]crypto.Address(nil), m.signers...), nil
}
func (m *mockState) SetMultisigSigners(s []crypto.Address) error {
	m.signers = append([]crypto.Address(nil), s...)
	return nil
}
func (m *mockState) MultisigThreshold() (uint64, error)        { return m.threshold, nil }
func (m *mockState) SetMultisigThreshold(t uint64) error       { m.threshold = t; return nil }
func (m *mockState) MultisigTransactionCount() (uint64, error) { return uint64(len(m.txs)), nil }
func (m *mockState) MultisigTransaction(i uint64) (*Transaction, bool, error) {
	if i >= uint64(len(m.txs)) {
		return nil, false, nil
	}
	return m.txs[i].Clone(), true, nil
}
func (m *mockState) PutMultisigTransaction(i uint64, tx *Transaction) error {
	if i == uint64(len(m.txs)) {
		m.txs = append(m.txs, tx.Clone())
		return nil
	}
	m.txs[i] = tx.Clone()
	return nil
}
func (m *mockState) MultisigConfirmed(i uint64, s crypto.Address) (bool, error) {
	return m.confirmed[confirmKey{i, s}], nil
}
func (m *mockState) SetMultisigConfirmed(i uint64, s crypto.Address, v bool) error {
	m.confirmed[confirmKey{i, s}] = v
	return nil
}

var errTargetFailed = coreerrors.New(coreerrors.KindInsufficientResource, "target: insufficient funds")

// loopbackCaller routes calls aimed at the gateway back into a fresh engine
// bound to the same state, the way the host does. Any other target fails
// when fail is set.
type loopbackCaller struct {
	state   *mockState
	self    crypto.Address
	emitter events.Emitter
	fail    bool
	calls   int
}

func (l *loopbackCaller) Call(from, to crypto.Address, _ *uint256.Int, data []byte) ([]byte, error) {
	l.calls++
	if to != l.self {
		if l.fail {
			return nil, errTargetFailed
		}
		return []byte{0x01}, nil
	}
	engine := NewEngine()
	engine.SetState(l.state)
	engine.SetSelf(l.self)
	engine.SetEmitter(l.emitter)
	engine.SetCaller(l)

	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case MethodAddSigner:
		return nil, engine.AddSigner(from, crypto.FromCommon(args[0].(common.Address)))
	case MethodRemoveSigner:
		return nil, engine.RemoveSigner(from, crypto.FromCommon(args[0].(common.Address)))
	case MethodChangeThreshold:
		return nil, engine.ChangeThreshold(from, args[0].(*big.Int).Uint64())
	}
	return nil, errors.New("unsupported method " + method.Name)
}

func addr(b byte) crypto.Address {
	var a crypto.Address
	a[19] = b
	return a
}

type fixture struct {
	engine  *Engine
	state   *mockState
	caller  *loopbackCaller
	events  *events.Buffer
	self    crypto.Address
	signers []crypto.Address
}

func newFixture(t *testing.T, threshold uint64) *fixture {
	t.Helper()
	f := &fixture{
		state:   newMockState(),
		events:  &events.Buffer{},
		self:    addr(0xaa),
		signers: []crypto.Address{addr(1), addr(2), addr(3)},
	}
	f.caller = &loopbackCaller{state: f.state, self: f.self, emitter: f.events}
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetSelf(f.self)
	f.engine.SetCaller(f.caller)
	f.engine.SetEmitter(f.events)
	require.NoError(t, f.engine.Initialize(f.signers, threshold))
	return f
}

func TestInitializeBounds(t *testing.T) {
	e := NewEngine()
	e.SetState(newMockState())
	require.ErrorIs(t, e.Initialize([]crypto.Address{addr(1)}, 0), ErrInvalidThreshold)
	require.ErrorIs(t, e.Initialize([]crypto.Address{addr(1)}, 2), ErrSignersBelowThreshold)
	require.ErrorIs(t, e.Initialize([]crypto.Address{addr(1), addr(1)}, 1), ErrDuplicateSigner)
	require.ErrorIs(t, e.Initialize([]crypto.Address{{}}, 1), ErrInvalidSigner)
	require.NoError(t, e.Initialize([]crypto.Address{addr(1), addr(2)}, 2))
}

func TestQuorumAddsSigner(t *testing.T) {
	f := newFixture(t, 2)
	newcomer := addr(9)
	data, err := PackSignerCall(MethodAddSigner, newcomer)
	require.NoError(t, err)

	idx, err := f.engine.SubmitTransaction(f.signers[0], f.self, nil, data)
	require.NoError(t, err)
	require.EqualValues(t, 0, idx)

	tx, _ := f.engine.Transaction(idx)
	require.Zero(t, tx.Confirmations, "submission does not confirm")

	require.NoError(t, f.engine.ConfirmTransaction(f.signers[0], idx))
	_, err = f.engine.ExecuteTransaction(f.signers[0], idx)
	require.ErrorIs(t, err, ErrNotEnoughConfirmations)

	require.NoError(t, f.engine.ConfirmTransaction(f.signers[1], idx))
	_, err = f.engine.ExecuteTransaction(f.signers[2], idx)
	require.NoError(t, err)

	tx, _ = f.engine.Transaction(idx)
	require.True(t, tx.Executed)
	ok, _ := f.engine.IsSigner(newcomer)
	require.True(t, ok)

	_, err = f.engine.ExecuteTransaction(f.signers[0], idx)
	require.ErrorIs(t, err, ErrTxAlreadyExecuted)
	require.ErrorIs(t, f.engine.ConfirmTransaction(f.signers[2], idx), ErrTxAlreadyExecuted)
}

func TestDoubleConfirmationRejected(t *testing.T) {
	f := newFixture(t, 2)
	idx, err := f.engine.SubmitTransaction(f.signers[0], addr(50), nil, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, f.engine.ConfirmTransaction(f.signers[0], idx))

	err = f.engine.ConfirmTransaction(f.signers[0], idx)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
	require.Equal(t, coreerrors.KindStateConflict, coreerrors.KindOf(err))
	tx, _ := f.engine.Transaction(idx)
	require.EqualValues(t, 1, tx.Confirmations)
}

func TestSignerOnlyOperations(t *testing.T) {
	f := newFixture(t, 1)
	stranger := addr(77)
	_, err := f.engine.SubmitTransaction(stranger, addr(50), nil, nil)
	require.ErrorIs(t, err, ErrNotSigner)
	require.ErrorIs(t, f.engine.ConfirmTransaction(stranger, 0), ErrNotSigner)
	_, err = f.engine.ExecuteTransaction(stranger, 0)
	require.ErrorIs(t, err, ErrNotSigner)
	require.ErrorIs(t, f.engine.ConfirmTransaction(f.signers[0], 5), ErrTxNotFound)
	_, err = f.engine.SubmitTransaction(f.signers[0], crypto.ZeroAddress, nil, nil)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestSignerManagementRequiresSelf(t *testing.T) {
	f := newFixture(t, 1)
	require.ErrorIs(t, f.engine.AddSigner(f.signers[0], addr(9)), ErrOnlySelf)
	require.ErrorIs(t, f.engine.RemoveSigner(f.signers[0], f.signers[1]), ErrOnlySelf)
	require.ErrorIs(t, f.engine.ChangeThreshold(f.signers[0], 2), ErrOnlySelf)
}

func TestFailedExecutionStaysRetryable(t *testing.T) {
	f := newFixture(t, 1)
	idx, err := f.engine.SubmitTransaction(f.signers[0], addr(50), uint256.NewInt(0), []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	require.NoError(t, f.engine.ConfirmTransaction(f.signers[0], idx))

	f.caller.fail = true
	_, err = f.engine.ExecuteTransaction(f.signers[0], idx)
	require.ErrorIs(t, err, ErrExecutionFailed)
	require.ErrorIs(t, err, errTargetFailed)
	require.Equal(t, coreerrors.KindInsufficientResource, coreerrors.KindOf(err))

	tx, _ := f.engine.Transaction(idx)
	require.False(t, tx.Executed)
	require.EqualValues(t, 1, tx.Confirmations)

	f.caller.fail = false
	ret, err := f.engine.ExecuteTransaction(f.signers[0], idx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, ret)
}

func TestRemoveSignerKeepsQuorumFeasible(t *testing.T) {
	f := newFixture(t, 3)
	data, err := PackSignerCall(MethodRemoveSigner, f.signers[2])
	require.NoError(t, err)
	idx, err := f.engine.SubmitTransaction(f.signers[0], f.self, nil, data)
	require.NoError(t, err)
	for _, s := range f.signers {
		require.NoError(t, f.engine.ConfirmTransaction(s, idx))
	}
	_, err = f.engine.ExecuteTransaction(f.signers[0], idx)
	require.ErrorIs(t, err, ErrExecutionFailed)
	require.ErrorIs(t, err, ErrSignersBelowThreshold)

	signers, _ := f.engine.Signers()
	require.Len(t, signers, 3)
}

func TestThresholdChangeThroughQuorum(t *testing.T) {
	f := newFixture(t, 1)
	data, err := PackChangeThreshold(2)
	require.NoError(t, err)
	idx, err := f.engine.SubmitTransaction(f.signers[0], f.self, nil, data)
	require.NoError(t, err)
	require.NoError(t, f.engine.ConfirmTransaction(f.signers[0], idx))
	_, err = f.engine.ExecuteTransaction(f.signers[0], idx)
	require.NoError(t, err)

	threshold, _ := f.engine.Threshold()
	require.EqualValues(t, 2, threshold)
}

func TestTransactionABIRoundTrip(t *testing.T) {
	tx := &Transaction{Target: addr(5), Value: uint256.NewInt(3), Data: []byte{9, 8}, Executed: true, Confirmations: 2}
	encoded, err := EncodeTransaction(tx)
	require.NoError(t, err)
	decoded, err := DecodeTransaction(encoded)
	require.NoError(t, err)
	require.Equal(t, tx, decoded)
}
