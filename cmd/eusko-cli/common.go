package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/cmd/internal/passphrase"
	"eusko/core"
	"eusko/core/types"
	"eusko/crypto"
	nativecommon "eusko/native/common"
	"eusko/native/governance"
	"eusko/native/ledger"
	"eusko/native/multisig"
	"eusko/native/refasset"
	"eusko/rpc/client"
)

var (
	newRPCClient   = func() *client.Client { return client.New(rpcEndpoint) }
	keyPassphrase  = passphrase.NewSource(keyPassEnv, "keystore").Get
	commandTimeout = 30 * time.Second
)

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses args and rejects positional leftovers.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return false
	}
	return true
}

func required(stderr io.Writer, values map[string]string) bool {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(values[name]) == "" {
			fmt.Fprintf(stderr, "Error: --%s is required\n", name)
			return false
		}
	}
	return true
}

func parseAddressFlag(stderr io.Writer, name, value string) (crypto.Address, bool) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --%s: %v\n", name, err)
		return crypto.Address{}, false
	}
	return addr, true
}

func parseAmountFlag(stderr io.Writer, name, value string) (*uint256.Int, bool) {
	amount, err := parseAmount(value)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --%s: %v\n", name, err)
		return nil, false
	}
	return amount, true
}

func loadSigner(path string) (*crypto.PrivateKey, error) {
	pass, err := keyPassphrase()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(strings.TrimSpace(path), pass)
	if err != nil {
		return nil, fmt.Errorf("load keystore %s: %w", path, err)
	}
	return key, nil
}

// send signs data for to with the keystore at path and reports the receipt.
// A failed receipt is an error.
func send(stderr io.Writer, keystore string, to crypto.Address, data []byte) (*types.Receipt, bool) {
	key, err := loadSigner(keystore)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, false
	}
	return sendWithKey(stderr, key, to, data)
}

func sendWithKey(stderr io.Writer, key *crypto.PrivateKey, to crypto.Address, data []byte) (*types.Receipt, bool) {
	ctx, cancel := commandContext()
	defer cancel()
	receipt, err := newRPCClient().SignAndSend(ctx, key, to, data)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, false
	}
	if !receipt.Succeeded() {
		fmt.Fprintf(stderr, "Error: transaction %s failed (%s): %s\n", receipt.TxHash.Hex(), receipt.ErrorKind, receipt.Error)
		return receipt, false
	}
	return receipt, true
}

func printReceipt(stdout io.Writer, label string, receipt *types.Receipt) {
	fmt.Fprintf(stdout, "%s: tx %s at height %d\n", label, receipt.TxHash.Hex(), receipt.Height)
	for _, evt := range receipt.Events {
		keys := make([]string, 0, len(evt.Attributes))
		for k := range evt.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+evt.Attributes[k])
		}
		fmt.Fprintf(stdout, "  %s %s\n", evt.Type, strings.Join(parts, " "))
	}
}

// view runs a read-only call against contract to.
func view(to crypto.Address, data []byte) ([]byte, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return newRPCClient().Call(ctx, crypto.Address{}, to, data)
}

func printJSON(stdout, stderr io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// contractRef pairs a built-in contract address with its call interface.
type contractRef struct {
	name string
	addr crypto.Address
	abi  abi.ABI
}

var (
	eurcContract     = contractRef{name: core.ContractRefAsset, addr: core.RefAssetAddress, abi: refasset.ABI()}
	ledgerContract   = contractRef{name: core.ContractLedger, addr: core.LedgerAddress, abi: ledger.ABI()}
	multisigContract = contractRef{name: core.ContractMultisig, addr: core.MultisigAddress, abi: multisig.ABI()}
	govContract      = contractRef{name: core.ContractGovernance, addr: core.GovernanceAddress, abi: governance.ABI()}
)

func (c contractRef) pack(method string, args ...interface{}) ([]byte, error) {
	return nativecommon.Pack(c.abi, method, args...)
}

// query packs a view call, runs it and unpacks the outputs.
func (c contractRef) query(method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.pack(method, args...)
	if err != nil {
		return nil, err
	}
	ret, err := view(c.addr, data)
	if err != nil {
		return nil, err
	}
	return c.abi.Unpack(method, ret)
}

func (c contractRef) queryBig(method string, args ...interface{}) (*big.Int, error) {
	values, err := c.query(method, args...)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s.%s: unexpected %d return values", c.name, method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unexpected return type %T", c.name, method, values[0])
	}
	return v, nil
}

func (c contractRef) queryAddresses(method string, args ...interface{}) ([]crypto.Address, error) {
	values, err := c.query(method, args...)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s.%s: unexpected %d return values", c.name, method, len(values))
	}
	raw, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unexpected return type %T", c.name, method, values[0])
	}
	out := make([]crypto.Address, len(raw))
	for i, a := range raw {
		out[i] = crypto.FromCommon(a)
	}
	return out, nil
}

func addressStrings(addrs []crypto.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

// returnedBig decodes the single uint256 a transaction returned.
func (c contractRef) returnedBig(method string, receipt *types.Receipt) (*big.Int, error) {
	values, err := c.abi.Unpack(method, receipt.Return)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s.%s: unexpected %d return values", c.name, method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unexpected return type %T", c.name, method, values[0])
	}
	return v, nil
}
