package refasset

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	nativecommon "eusko/native/common"
)

const (
	MethodName         = "name"
	MethodSymbol       = "symbol"
	MethodDecimals     = "decimals"
	MethodTotalSupply  = "totalSupply"
	MethodBalanceOf    = "balanceOf"
	MethodAllowance    = "allowance"
	MethodOwner        = "owner"
	MethodTransfer     = "transfer"
	MethodApprove      = "approve"
	MethodTransferFrom = "transferFrom"
	MethodMint         = "mint"
	MethodBurn         = "burn"
)

// ABIJSON is the standard fungible-token interface plus owner mint/burn.
const ABIJSON = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var contractABI = nativecommon.MustParseABI("refasset", ABIJSON)

// ABI returns the parsed call interface.
func ABI() abi.ABI { return contractABI }

// Pack encodes a call to method with native argument types.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return nativecommon.Pack(contractABI, method, args...)
}
