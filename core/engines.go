package core

import (
	"time"

	"eusko/core/events"
	"eusko/core/state"
	"eusko/native/governance"
	"eusko/native/ledger"
	"eusko/native/multisig"
	"eusko/native/refasset"
)

// The engines are stateless apart from their bindings, so a fresh set is
// bound to the state overlay of every call.

func bindRefAsset(m *state.Manager, emitter events.Emitter) *refasset.Engine {
	engine := refasset.NewEngine()
	engine.SetState(m)
	engine.SetEmitter(emitter)
	return engine
}

func bindLedger(m *state.Manager, emitter events.Emitter, now time.Time) *ledger.Engine {
	engine := ledger.NewEngine()
	engine.SetState(m)
	engine.SetEmitter(emitter)
	engine.SetCustody(LedgerAddress)
	engine.SetReferenceAsset(refasset.NewAccount(bindRefAsset(m, emitter), LedgerAddress))
	engine.SetNowFunc(func() int64 { return now.Unix() })
	return engine
}

func bindMultisig(m *state.Manager, emitter events.Emitter, caller multisig.Caller) *multisig.Engine {
	engine := multisig.NewEngine()
	engine.SetState(m)
	engine.SetEmitter(emitter)
	engine.SetSelf(MultisigAddress)
	engine.SetCaller(caller)
	return engine
}

func bindGovernance(m *state.Manager, emitter events.Emitter, now time.Time) *governance.Engine {
	engine := governance.NewEngine()
	engine.SetState(m)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() time.Time { return now })
	return engine
}
