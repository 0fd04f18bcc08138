package common

import (
	"math/big"
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"eusko/crypto"
)

const testABI = `[{"type":"function","name":"send","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"id","type":"uint256"}],"outputs":[]}]`

func TestPackConvertsNativeTypes(t *testing.T) {
	parsed := MustParseABI("test", testABI)
	var to crypto.Address
	to[19] = 7

	data, err := Pack(parsed, "send", to, uint256.NewInt(5), uint64(9))
	require.NoError(t, err)
	require.Len(t, data, 4+3*32)

	method, err := parsed.MethodById(data[:4])
	require.NoError(t, err)
	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, to.Common(), values[0].(gethcommon.Address))
	require.Equal(t, big.NewInt(5), values[1].(*big.Int))
	require.Equal(t, big.NewInt(9), values[2].(*big.Int))
}

func TestMustParseABIPanics(t *testing.T) {
	require.Panics(t, func() { MustParseABI("test", "not json") })
}
