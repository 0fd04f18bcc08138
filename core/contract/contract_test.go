package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"eusko/crypto"
)

type recursiveContract struct{ calls *int }

func (recursiveContract) Name() string { return "recursive" }

func (c recursiveContract) Run(env *Env, input []byte) ([]byte, error) {
	*c.calls++
	return env.Call(env.Self, env.Self, nil, input)
}

type echoContract struct{ lastCaller *crypto.Address }

func (echoContract) Name() string { return "echo" }

func (c echoContract) Run(env *Env, input []byte) ([]byte, error) {
	*c.lastCaller = env.Caller
	return input, nil
}

func TestRouterRegistration(t *testing.T) {
	router := NewRouter()
	var caller crypto.Address
	addr := crypto.ContractAddress("echo")

	require.NoError(t, router.Register(addr, echoContract{lastCaller: &caller}))
	require.ErrorIs(t, router.Register(addr, echoContract{lastCaller: &caller}), ErrDuplicate)
	require.Error(t, router.Register(crypto.ZeroAddress, echoContract{lastCaller: &caller}))

	require.Equal(t, []string{"echo"}, router.Names())
	require.Equal(t, map[string]crypto.Address{"echo": addr}, router.Addresses())
	_, ok := router.Lookup(crypto.ContractAddress("missing"))
	require.False(t, ok)
}

func TestExecuteSetsFrame(t *testing.T) {
	router := NewRouter()
	var caller crypto.Address
	addr := crypto.ContractAddress("echo")
	require.NoError(t, router.Register(addr, echoContract{lastCaller: &caller}))

	from := crypto.ContractAddress("user")
	env := &Env{Caller: from}
	out, err := router.Execute(env, addr, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), out)
	require.Equal(t, from, caller)
	require.Equal(t, addr, env.Self)
	require.NotNil(t, env.Emitter)

	_, err = router.Execute(&Env{Caller: from}, crypto.ContractAddress("missing"), nil)
	require.ErrorIs(t, err, ErrUnknownContract)
	_, err = router.Execute(&Env{Caller: from, Value: uint256.NewInt(1)}, addr, nil)
	require.ErrorIs(t, err, ErrValueNotAccepted)
}

func TestNestedCallsAreBounded(t *testing.T) {
	router := NewRouter()
	calls := 0
	addr := crypto.ContractAddress("recursive")
	require.NoError(t, router.Register(addr, recursiveContract{calls: &calls}))

	_, err := router.Execute(&Env{}, addr, nil)
	require.ErrorIs(t, err, ErrCallDepth)
	require.Equal(t, MaxCallDepth, calls)
}

func TestArgsTypeChecks(t *testing.T) {
	addr := common.HexToAddress("0x01")
	args := Args{addr, big.NewInt(7), "label", []byte{1}, true, big.NewInt(-1), new(big.Int).Lsh(big.NewInt(1), 70)}

	got, err := args.Address(0)
	require.NoError(t, err)
	require.Equal(t, crypto.FromCommon(addr), got)
	amount, err := args.Amount(1)
	require.NoError(t, err)
	require.EqualValues(t, 7, amount.Uint64())
	label, err := args.String(2)
	require.NoError(t, err)
	require.Equal(t, "label", label)
	raw, err := args.Bytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, raw)
	flag, err := args.Bool(4)
	require.NoError(t, err)
	require.True(t, flag)

	_, err = args.Address(1)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = args.Amount(5)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = args.Uint64(6)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = args.String(10)
	require.ErrorIs(t, err, ErrInvalidInput)
}
