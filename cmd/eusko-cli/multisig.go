package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"eusko/crypto"
	"eusko/native/multisig"
)

func runMultisigCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, multisigUsage())
		return 1
	}
	switch args[0] {
	case "submit":
		return runMultisigSubmit(args[1:], stdout, stderr)
	case "confirm":
		return runMultisigIndexTx("confirm", multisig.MethodConfirmTransaction, args[1:], stdout, stderr)
	case "execute":
		return runMultisigIndexTx("execute", multisig.MethodExecuteTransaction, args[1:], stdout, stderr)
	case "show":
		return runMultisigShow(args[1:], stdout, stderr)
	case "signers":
		return runMultisigSigners(args[1:], stdout, stderr)
	case "add-signer":
		return runMultisigSignerChange("add-signer", multisig.MethodAddSigner, args[1:], stdout, stderr)
	case "remove-signer":
		return runMultisigSignerChange("remove-signer", multisig.MethodRemoveSigner, args[1:], stdout, stderr)
	case "threshold":
		return runMultisigThreshold(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown multisig subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, multisigUsage())
		return 1
	}
}

func multisigUsage() string {
	return `Usage: eusko-cli multisig <subcommand>
  submit        --keystore <path> --target <addr|contract> --data <0xhex> [--value <int>]
  confirm       --keystore <path> --id <n>
  execute       --keystore <path> --id <n>
  show          --id <n>
  signers
  add-signer    --keystore <path> --signer <addr>   (queues a self-call)
  remove-signer --keystore <path> --signer <addr>   (queues a self-call)
  threshold     --keystore <path> --value <n>       (queues a self-call)`
}

// resolveTarget accepts an address or the name of a built-in contract.
func resolveTarget(stderr io.Writer, raw string) (crypto.Address, bool) {
	for _, c := range []contractRef{eurcContract, ledgerContract, multisigContract, govContract} {
		if strings.EqualFold(strings.TrimSpace(raw), c.name) {
			return c.addr, true
		}
	}
	return parseAddressFlag(stderr, "target", raw)
}

func parseIndex(stderr io.Writer, raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --id %q\n", raw)
		return 0, false
	}
	return id, true
}

func runMultisigSubmit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig submit", stderr)
	keystore := fs.String("keystore", "", "signer keystore")
	target := fs.String("target", "", "target address or contract name")
	data := fs.String("data", "", "0x-prefixed call data")
	value := fs.String("value", "0", "value attached to the call")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "target": *target, "data": *data}) {
		return 1
	}
	to, ok := resolveTarget(stderr, *target)
	if !ok {
		return 1
	}
	payload, err := hexutil.Decode(strings.TrimSpace(*data))
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --data: %v\n", err)
		return 1
	}
	v, err := uint256.FromDecimal(strings.TrimSpace(*value))
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --value: %v\n", err)
		return 1
	}
	return submitMultisig(stdout, stderr, *keystore, to, v, payload)
}

func submitMultisig(stdout, stderr io.Writer, keystore string, to crypto.Address, value *uint256.Int, payload []byte) int {
	call, err := multisig.PackSubmit(to, value, payload)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, keystore, multisigContract.addr, call)
	if !ok {
		return 1
	}
	printReceipt(stdout, "submit", receipt)
	if index, err := multisigContract.returnedBig(multisig.MethodSubmitTransaction, receipt); err == nil {
		fmt.Fprintf(stdout, "index: %s\n", index.String())
	}
	return 0
}

func runMultisigIndexTx(name, method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig "+name, stderr)
	keystore := fs.String("keystore", "", "signer keystore")
	id := fs.String("id", "", "transaction index")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "id": *id}) {
		return 1
	}
	index, ok := parseIndex(stderr, *id)
	if !ok {
		return 1
	}
	call, err := multisig.PackIndexCall(method, index)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, multisigContract.addr, call)
	if !ok {
		return 1
	}
	printReceipt(stdout, name, receipt)
	return 0
}

func runMultisigSignerChange(name, method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig "+name, stderr)
	keystore := fs.String("keystore", "", "signer keystore")
	signer := fs.String("signer", "", "signer to add or remove")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "signer": *signer}) {
		return 1
	}
	addr, ok := parseAddressFlag(stderr, "signer", *signer)
	if !ok {
		return 1
	}
	payload, err := multisig.PackSignerCall(method, addr)
	if err != nil {
		return fail(stderr, err)
	}
	return submitMultisig(stdout, stderr, *keystore, multisigContract.addr, new(uint256.Int), payload)
}

func runMultisigThreshold(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig threshold", stderr)
	keystore := fs.String("keystore", "", "signer keystore")
	value := fs.Uint64("value", 0, "new threshold")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore}) {
		return 1
	}
	payload, err := multisig.PackChangeThreshold(*value)
	if err != nil {
		return fail(stderr, err)
	}
	return submitMultisig(stdout, stderr, *keystore, multisigContract.addr, new(uint256.Int), payload)
}

type multisigTxView struct {
	Index         uint64 `json:"index"`
	Target        string `json:"target"`
	Value         string `json:"value"`
	Data          string `json:"data"`
	Executed      bool   `json:"executed"`
	Confirmations uint64 `json:"confirmations"`
	Threshold     uint64 `json:"threshold"`
}

func runMultisigShow(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig show", stderr)
	id := fs.String("id", "", "transaction index")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"id": *id}) {
		return 1
	}
	index, ok := parseIndex(stderr, *id)
	if !ok {
		return 1
	}
	call, err := multisig.PackIndexCall(multisig.MethodTransactions, index)
	if err != nil {
		return fail(stderr, err)
	}
	ret, err := view(multisigContract.addr, call)
	if err != nil {
		return fail(stderr, err)
	}
	tx, err := multisig.DecodeTransaction(ret)
	if err != nil {
		return fail(stderr, err)
	}
	threshold, err := multisigContract.queryBig(multisig.MethodThreshold)
	if err != nil {
		return fail(stderr, err)
	}
	return printJSON(stdout, stderr, multisigTxView{
		Index:         index,
		Target:        tx.Target.String(),
		Value:         tx.Value.Dec(),
		Data:          hexutil.Encode(tx.Data),
		Executed:      tx.Executed,
		Confirmations: tx.Confirmations,
		Threshold:     threshold.Uint64(),
	})
}

func runMultisigSigners(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("multisig signers", stderr)
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	signers, err := multisigContract.queryAddresses(multisig.MethodGetSigners)
	if err != nil {
		return fail(stderr, err)
	}
	threshold, err := multisigContract.queryBig(multisig.MethodThreshold)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "threshold: %d of %d\n", threshold.Uint64(), len(signers))
	for _, s := range signers {
		fmt.Fprintln(stdout, s.String())
	}
	return 0
}
