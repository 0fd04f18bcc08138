package multisig

import (
	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/crypto"
)

type engineState interface {
	MultisigSigners() ([]crypto.Address, error)
	SetMultisigSigners(signers []crypto.Address) error
	MultisigThreshold() (uint64, error)
	SetMultisigThreshold(threshold uint64) error
	MultisigTransactionCount() (uint64, error)
	MultisigTransaction(index uint64) (*Transaction, bool, error)
	PutMultisigTransaction(index uint64, tx *Transaction) error
	MultisigConfirmed(index uint64, signer crypto.Address) (bool, error)
	SetMultisigConfirmed(index uint64, signer crypto.Address, confirmed bool) error
}

// Caller performs the outbound call of an executed transaction with the
// gateway as the sender.
type Caller interface {
	Call(from, to crypto.Address, value *uint256.Int, data []byte) ([]byte, error)
}

// Engine implements the N-of-M gateway.
type Engine struct {
	state   engineState
	caller  Caller
	self    crypto.Address
	emitter events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

// SetCaller configures how executed transactions reach their target.
func (e *Engine) SetCaller(caller Caller) { e.caller = caller }

// SetSelf configures the gateway's own address. Signer management only
// accepts calls whose sender is this address.
func (e *Engine) SetSelf(addr crypto.Address) { e.self = addr }

// SetEmitter configures the event emitter. Nil resets to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// Initialize installs the initial signer set. The threshold must be positive
// and no larger than the number of signers.
func (e *Engine) Initialize(signers []crypto.Address, threshold uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if threshold == 0 {
		return ErrInvalidThreshold
	}
	seen := make(map[crypto.Address]struct{}, len(signers))
	list := make([]crypto.Address, 0, len(signers))
	for _, s := range signers {
		if s.IsZero() {
			return ErrInvalidSigner
		}
		if _, dup := seen[s]; dup {
			return ErrDuplicateSigner
		}
		seen[s] = struct{}{}
		list = append(list, s)
	}
	if uint64(len(list)) < threshold {
		return ErrSignersBelowThreshold
	}
	if err := e.state.SetMultisigSigners(list); err != nil {
		return err
	}
	return e.state.SetMultisigThreshold(threshold)
}

func (e *Engine) Threshold() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.MultisigThreshold()
}

func (e *Engine) Signers() ([]crypto.Address, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.MultisigSigners()
}

func (e *Engine) IsSigner(addr crypto.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	signers, err := e.state.MultisigSigners()
	if err != nil {
		return false, err
	}
	return indexOf(signers, addr) >= 0, nil
}

func (e *Engine) TransactionCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.MultisigTransactionCount()
}

// Transaction returns a copy of the queued transaction at index.
func (e *Engine) Transaction(index uint64) (*Transaction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.load(index)
}

func (e *Engine) IsConfirmed(index uint64, signer crypto.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.MultisigConfirmed(index, signer)
}

func (e *Engine) requireSigner(caller crypto.Address) error {
	ok, err := e.IsSigner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSigner
	}
	return nil
}

func (e *Engine) load(index uint64) (*Transaction, error) {
	tx, ok, err := e.state.MultisigTransaction(index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTxNotFound
	}
	return tx.Clone(), nil
}

// SubmitTransaction queues a call and returns its index. The submitter is
// not implicitly confirmed.
func (e *Engine) SubmitTransaction(caller, target crypto.Address, value *uint256.Int, data []byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := e.requireSigner(caller); err != nil {
		return 0, err
	}
	if target.IsZero() {
		return 0, ErrInvalidTarget
	}
	if value == nil {
		value = new(uint256.Int)
	}
	index, err := e.state.MultisigTransactionCount()
	if err != nil {
		return 0, err
	}
	tx := &Transaction{Target: target, Value: value.Clone(), Data: append([]byte(nil), data...)}
	if err := e.state.PutMultisigTransaction(index, tx); err != nil {
		return 0, err
	}
	e.emitter.Emit(SubmittedEvent{Index: index, Signer: caller, Target: target, Value: value.Clone(), Data: tx.Data})
	return index, nil
}

// ConfirmTransaction records the caller's approval. Confirming twice fails.
func (e *Engine) ConfirmTransaction(caller crypto.Address, index uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireSigner(caller); err != nil {
		return err
	}
	tx, err := e.load(index)
	if err != nil {
		return err
	}
	if tx.Executed {
		return ErrTxAlreadyExecuted
	}
	confirmed, err := e.state.MultisigConfirmed(index, caller)
	if err != nil {
		return err
	}
	if confirmed {
		return ErrAlreadyConfirmed
	}
	if err := e.state.SetMultisigConfirmed(index, caller, true); err != nil {
		return err
	}
	tx.Confirmations++
	if err := e.state.PutMultisigTransaction(index, tx); err != nil {
		return err
	}
	e.emitter.Emit(ConfirmedEvent{Index: index, Signer: caller, Confirmations: tx.Confirmations})
	return nil
}

// ExecuteTransaction performs a call that reached quorum. The transaction is
// marked executed before the call; if the call fails the flag is restored
// and the failure is returned as an *ExecutionError.
func (e *Engine) ExecuteTransaction(caller crypto.Address, index uint64) ([]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.caller == nil {
		return nil, errNilCaller
	}
	if err := e.requireSigner(caller); err != nil {
		return nil, err
	}
	tx, err := e.load(index)
	if err != nil {
		return nil, err
	}
	if tx.Executed {
		return nil, ErrTxAlreadyExecuted
	}
	threshold, err := e.state.MultisigThreshold()
	if err != nil {
		return nil, err
	}
	if tx.Confirmations < threshold {
		return nil, ErrNotEnoughConfirmations
	}
	tx.Executed = true
	if err := e.state.PutMultisigTransaction(index, tx); err != nil {
		return nil, err
	}
	ret, callErr := e.caller.Call(e.self, tx.Target, tx.Value, tx.Data)
	if callErr != nil {
		tx.Executed = false
		if err := e.state.PutMultisigTransaction(index, tx); err != nil {
			return nil, err
		}
		return nil, &ExecutionError{Index: index, Err: callErr}
	}
	e.emitter.Emit(ExecutedEvent{Index: index, Signer: caller, Target: tx.Target})
	return ret, nil
}

// AddSigner is only reachable through an executed gateway transaction.
func (e *Engine) AddSigner(caller, signer crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireSelf(caller); err != nil {
		return err
	}
	if signer.IsZero() {
		return ErrInvalidSigner
	}
	signers, err := e.state.MultisigSigners()
	if err != nil {
		return err
	}
	if indexOf(signers, signer) >= 0 {
		return ErrDuplicateSigner
	}
	if err := e.state.SetMultisigSigners(append(signers, signer)); err != nil {
		return err
	}
	e.emitter.Emit(SignerEvent{Type: EventTypeSignerAdded, Signer: signer})
	return nil
}

// RemoveSigner refuses to leave fewer signers than the threshold.
func (e *Engine) RemoveSigner(caller, signer crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireSelf(caller); err != nil {
		return err
	}
	signers, err := e.state.MultisigSigners()
	if err != nil {
		return err
	}
	idx := indexOf(signers, signer)
	if idx < 0 {
		return ErrUnknownSigner
	}
	threshold, err := e.state.MultisigThreshold()
	if err != nil {
		return err
	}
	if uint64(len(signers)-1) < threshold {
		return ErrSignersBelowThreshold
	}
	remaining := append(append([]crypto.Address(nil), signers[:idx]...), signers[idx+1:]...)
	if err := e.state.SetMultisigSigners(remaining); err != nil {
		return err
	}
	e.emitter.Emit(SignerEvent{Type: EventTypeSignerRemoved, Signer: signer})
	return nil
}

// ChangeThreshold is only reachable through an executed gateway transaction.
func (e *Engine) ChangeThreshold(caller crypto.Address, threshold uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireSelf(caller); err != nil {
		return err
	}
	if threshold == 0 {
		return ErrInvalidThreshold
	}
	signers, err := e.state.MultisigSigners()
	if err != nil {
		return err
	}
	if uint64(len(signers)) < threshold {
		return ErrSignersBelowThreshold
	}
	old, err := e.state.MultisigThreshold()
	if err != nil {
		return err
	}
	if err := e.state.SetMultisigThreshold(threshold); err != nil {
		return err
	}
	e.emitter.Emit(ThresholdChangedEvent{Old: old, New: threshold})
	return nil
}

func (e *Engine) requireSelf(caller crypto.Address) error {
	if e.self.IsZero() || caller != e.self {
		return ErrOnlySelf
	}
	return nil
}

func indexOf(list []crypto.Address, addr crypto.Address) int {
	for i, a := range list {
		if a == addr {
			return i
		}
	}
	return -1
}
