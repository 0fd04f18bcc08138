package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/core/contract"
	coreerrors "eusko/core/errors"
	"eusko/core/events"
	"eusko/core/genesis"
	"eusko/core/state"
	"eusko/core/types"
	"eusko/crypto"
	"eusko/native/ledger"
	"eusko/observability"
	"eusko/storage"
)

var (
	ErrChainIDMismatch  = coreerrors.New(coreerrors.KindInvariant, "chain: chain id mismatch")
	ErrNonceMismatch    = coreerrors.New(coreerrors.KindStateConflict, "chain: nonce mismatch")
	ErrGenesisMismatch  = coreerrors.New(coreerrors.KindStateConflict, "chain: genesis does not match stored state")
	ErrNotInitialized   = coreerrors.New(coreerrors.KindInternal, "chain: database has no genesis and none was supplied")
	ErrReceiptNotFound  = coreerrors.New(coreerrors.KindNotFound, "chain: receipt not found")
	ErrInvalidSignature = coreerrors.New(coreerrors.KindAuthorization, "chain: invalid transaction signature")
)

// DefaultEventPageSize caps Events when no limit is given.
const DefaultEventPageSize = 100

// Chain is the single-node sequencer hosting the built-in contracts. Every
// transaction runs in its own state overlay and is committed in one batch
// only if the call succeeds.
type Chain struct {
	mu      sync.Mutex
	db      storage.Database
	router  *contract.Router
	hub     *events.Hub
	nowFn   func() time.Time
	logger  *slog.Logger
	chainID uint64
	genesis common.Hash
}

type Option func(*Chain)

// WithClock overrides the wall clock used to stamp transactions.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) {
		if now != nil {
			c.nowFn = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain opens the chain stored in db. An empty database is initialised
// from spec; otherwise spec, when given, must match the stored genesis.
func NewChain(db storage.Database, spec *genesis.GenesisSpec, opts ...Option) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("chain: database must not be nil")
	}
	c := &Chain{
		db:     db,
		router: NewRouter(),
		hub:    events.NewHub(),
		nowFn:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	m := state.NewManager(db)
	stored, ok, err := m.GenesisHash()
	if err != nil {
		return nil, err
	}
	switch {
	case !ok && spec == nil:
		return nil, ErrNotInitialized
	case !ok:
		if err := applyGenesis(m, spec); err != nil {
			m.Discard()
			return nil, err
		}
		if err := m.Commit(); err != nil {
			return nil, err
		}
		c.logger.Info("genesis applied", "chainId", spec.ChainID)
	case spec != nil:
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		want, err := spec.Hash()
		if err != nil {
			return nil, err
		}
		if want != stored {
			return nil, ErrGenesisMismatch
		}
	}

	if c.genesis, _, err = m.GenesisHash(); err != nil {
		return nil, err
	}
	if c.chainID, err = m.ChainID(); err != nil {
		return nil, err
	}
	height, err := m.Height()
	if err != nil {
		return nil, err
	}
	observability.Chain().SetHeight(height)
	c.publishBacking(m)
	return c, nil
}

func (c *Chain) ChainID() uint64 { return c.chainID }

func (c *Chain) GenesisHash() common.Hash { return c.genesis }

// Contracts maps contract names to their addresses.
func (c *Chain) Contracts() map[string]crypto.Address { return c.router.Addresses() }

// ApplyTransaction validates and executes tx. Envelope problems (chain id,
// signature, nonce) are returned as errors and leave no trace. A failing call
// yields a failed receipt; nothing it did is kept and the nonce is not
// consumed.
func (c *Chain) ApplyTransaction(tx *types.Transaction) (*types.Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("chain: nil transaction")
	}
	if tx.ChainID != c.chainID {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChainIDMismatch, tx.ChainID, c.chainID)
	}
	from, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	m := state.NewManager(c.db)
	nonce, err := m.Nonce(from)
	if err != nil {
		return nil, err
	}
	if tx.Nonce != nonce {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrNonceMismatch, tx.Nonce, nonce)
	}
	height, err := m.Height()
	if err != nil {
		return nil, err
	}

	now := c.nowFn()
	receipt := &types.Receipt{
		TxHash:    hash,
		Height:    height,
		From:      from,
		To:        tx.To,
		Nonce:     tx.Nonce,
		Timestamp: now.Unix(),
	}
	contractName := c.contractName(tx.To)

	buf := &events.Buffer{}
	ret, callErr := c.execute(m, from, tx.To, tx.ValueOrZero(), tx.Data, now, buf)
	if callErr != nil {
		m.Discard()
		kind := coreerrors.KindOf(callErr)
		receipt.Status = types.ReceiptStatusFailed
		receipt.Error = callErr.Error()
		receipt.ErrorKind = kind.String()
		observability.Chain().RecordTransaction(contractName, kind.String(), false, time.Since(start))
		c.logger.Info("transaction failed",
			"tx", hash.Hex(), "from", from.String(), "contract", contractName,
			"kind", kind.String(), "error", callErr.Error())
		return receipt, nil
	}

	height++
	receipt.Height = height
	receipt.Status = types.ReceiptStatusSuccess
	receipt.Return = ret
	receipt.Events = buf.Events()

	records, err := c.stage(m, receipt, now)
	if err != nil {
		m.Discard()
		return nil, err
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}

	metrics := observability.Chain()
	metrics.RecordTransaction(contractName, "", true, time.Since(start))
	metrics.SetHeight(height)
	for _, rec := range records {
		metrics.RecordEvent(rec.Type)
	}
	c.publishBacking(state.NewManager(c.db))
	c.hub.Publish(records...)
	c.logger.Debug("transaction committed",
		"tx", hash.Hex(), "height", height, "contract", contractName, "events", len(records))
	return receipt, nil
}

// stage writes the nonce, height, receipt and event records of a successful
// transaction into the overlay.
func (c *Chain) stage(m *state.Manager, receipt *types.Receipt, now time.Time) ([]events.Record, error) {
	if err := m.SetNonce(receipt.From, receipt.Nonce+1); err != nil {
		return nil, err
	}
	if err := m.SetHeight(receipt.Height); err != nil {
		return nil, err
	}
	if err := m.PutReceipt(receipt); err != nil {
		return nil, err
	}
	seq, err := m.EventCount()
	if err != nil {
		return nil, err
	}
	records := make([]events.Record, 0, len(receipt.Events))
	for i, evt := range receipt.Events {
		rec := events.NewRecord(seq+uint64(i), receipt.Height, receipt.TxHash, uint32(i), evt, now.Unix())
		if err := m.AppendEvent(rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Chain) execute(m *state.Manager, from, to crypto.Address, value *big.Int, data []byte, now time.Time, emitter events.Emitter) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	amount, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return nil, contract.ErrValueNotAccepted
	}
	env := &contract.Env{
		Caller:  from,
		Value:   amount,
		Now:     now,
		State:   m,
		Emitter: emitter,
	}
	return c.router.Execute(env, to, data)
}

// Call runs a read-only call. Writes and events are discarded.
func (c *Chain) Call(from, to crypto.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := state.NewManager(c.db)
	defer m.Discard()
	return c.execute(m, from, to, nil, data, c.nowFn(), events.NoopEmitter{})
}

// Events returns up to limit committed records starting at sequence from.
func (c *Chain) Events(from, limit uint64) ([]events.Record, error) {
	if limit == 0 {
		limit = DefaultEventPageSize
	}
	return state.NewManager(c.db).Events(from, limit)
}

// Subscribe streams records committed after the call until ctx ends.
func (c *Chain) Subscribe(ctx context.Context) <-chan events.Record {
	return c.hub.Subscribe(ctx)
}

func (c *Chain) Nonce(addr crypto.Address) (uint64, error) {
	return state.NewManager(c.db).Nonce(addr)
}

func (c *Chain) Height() (uint64, error) {
	return state.NewManager(c.db).Height()
}

func (c *Chain) Receipt(hash common.Hash) (*types.Receipt, error) {
	receipt, ok, err := state.NewManager(c.db).Receipt(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return receipt, nil
}

// LedgerSummary reports supply, reserve and custody holdings.
func (c *Chain) LedgerSummary() (ledger.Summary, error) {
	return bindLedger(state.NewManager(c.db), events.NoopEmitter{}, c.nowFn()).Summary()
}

func (c *Chain) publishBacking(m *state.Manager) {
	summary, err := bindLedger(m, events.NoopEmitter{}, c.nowFn()).Summary()
	if err != nil {
		c.logger.Warn("ledger summary unavailable", "error", err)
		return
	}
	observability.Chain().SetBacking(toFloat(summary.TotalSupply), toFloat(summary.TotalReserve), toFloat(summary.CustodyBalance))
}

func (c *Chain) contractName(addr crypto.Address) string {
	if ct, ok := c.router.Lookup(addr); ok {
		return ct.Name()
	}
	return "unknown"
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
