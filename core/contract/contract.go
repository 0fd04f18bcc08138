package contract

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	coreerrors "eusko/core/errors"
	"eusko/core/events"
	"eusko/core/state"
	"eusko/crypto"
)

// MaxCallDepth bounds nested contract calls.
const MaxCallDepth = 8

var (
	ErrUnknownContract  = coreerrors.New(coreerrors.KindNotFound, "contract: unknown contract")
	ErrUnknownMethod    = coreerrors.New(coreerrors.KindInvariant, "contract: unknown method")
	ErrInvalidInput     = coreerrors.New(coreerrors.KindInvariant, "contract: invalid call data")
	ErrValueNotAccepted = coreerrors.New(coreerrors.KindInvariant, "contract: value transfers are not accepted")
	ErrCallDepth        = coreerrors.New(coreerrors.KindInvariant, "contract: call depth exceeded")
	ErrDuplicate        = coreerrors.New(coreerrors.KindStateConflict, "contract: address already registered")
)

// Contract is a built-in program addressed by a fixed account.
type Contract interface {
	Name() string
	Run(env *Env, input []byte) ([]byte, error)
}

// Env is the execution context of one call frame.
type Env struct {
	Caller  crypto.Address
	Self    crypto.Address
	Value   *uint256.Int
	Now     time.Time
	State   *state.Manager
	Emitter events.Emitter

	router *Router
	depth  int
}

// Call performs a nested call from the current frame. from is normally the
// frame's own address.
func (e *Env) Call(from, to crypto.Address, value *uint256.Int, data []byte) ([]byte, error) {
	if e.depth+1 >= MaxCallDepth {
		return nil, ErrCallDepth
	}
	child := &Env{
		Caller:  from,
		Value:   value,
		Now:     e.Now,
		State:   e.State,
		Emitter: e.Emitter,
		router:  e.router,
		depth:   e.depth + 1,
	}
	return e.router.Execute(child, to, data)
}

// Router maps addresses to contracts.
type Router struct {
	contracts map[crypto.Address]Contract
}

func NewRouter() *Router {
	return &Router{contracts: make(map[crypto.Address]Contract)}
}

func (r *Router) Register(addr crypto.Address, c Contract) error {
	if c == nil || addr.IsZero() {
		return fmt.Errorf("contract: invalid registration")
	}
	if _, exists := r.contracts[addr]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, addr)
	}
	r.contracts[addr] = c
	return nil
}

func (r *Router) Lookup(addr crypto.Address) (Contract, bool) {
	c, ok := r.contracts[addr]
	return c, ok
}

// Addresses returns contract addresses keyed by contract name.
func (r *Router) Addresses() map[string]crypto.Address {
	out := make(map[string]crypto.Address, len(r.contracts))
	for addr, c := range r.contracts {
		out[c.Name()] = addr
	}
	return out
}

// Names returns the registered contract names in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.contracts))
	for _, c := range r.contracts {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

// Execute runs input against the contract at to. Built-in contracts never
// accept value.
func (r *Router) Execute(env *Env, to crypto.Address, input []byte) ([]byte, error) {
	c, ok := r.contracts[to]
	if !ok {
		return nil, ErrUnknownContract
	}
	if env.Value != nil && !env.Value.IsZero() {
		return nil, ErrValueNotAccepted
	}
	env.router = r
	env.Self = to
	if env.Emitter == nil {
		env.Emitter = events.NoopEmitter{}
	}
	return c.Run(env, input)
}

// Decode resolves the method selected by input and unpacks its arguments.
func Decode(parsed abi.ABI, input []byte) (*abi.Method, []interface{}, error) {
	if len(input) < 4 {
		return nil, nil, ErrInvalidInput
	}
	method, err := parsed.MethodById(input[:4])
	if err != nil {
		return nil, nil, ErrUnknownMethod
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return method, args, nil
}
