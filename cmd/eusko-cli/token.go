package main

import (
	"fmt"
	"io"
	"strings"

	"eusko/native/ledger"
)

func runTokenCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
	switch args[0] {
	case "balance":
		return runTokenBalance(args[1:], stdout, stderr)
	case "transfer":
		return runTokenTransfer(args[1:], stdout, stderr)
	case "approve":
		return runTokenApprove(args[1:], stdout, stderr)
	case "allowance":
		return runTokenAllowance(args[1:], stdout, stderr)
	case "supply":
		return runTokenSupply(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown token subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
}

func tokenUsage() string {
	return `Usage: eusko-cli token <subcommand> [--asset eus|eurc]
  balance   --address <addr>
  transfer  --keystore <path> --to <addr> --amount <decimal>
  approve   --keystore <path> --spender <addr> --amount <decimal>
  allowance --owner <addr> --spender <addr>
  supply`
}

// assetContract maps --asset to the ledger token or the reference asset.
func assetContract(stderr io.Writer, asset string) (contractRef, bool) {
	switch strings.ToLower(strings.TrimSpace(asset)) {
	case "", "eus", "eusko":
		return ledgerContract, true
	case "eurc":
		return eurcContract, true
	default:
		fmt.Fprintf(stderr, "Error: unknown --asset %q (want eus or eurc)\n", asset)
		return contractRef{}, false
	}
}

func runTokenBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token balance", stderr)
	address := fs.String("address", "", "account to query")
	asset := fs.String("asset", "eus", "eus or eurc")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"address": *address}) {
		return 1
	}
	c, ok := assetContract(stderr, *asset)
	if !ok {
		return 1
	}
	addr, ok := parseAddressFlag(stderr, "address", *address)
	if !ok {
		return 1
	}
	balance, err := c.queryBig(ledger.MethodBalanceOf, addr)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, formatAmount(balance))
	return 0
}

func runTokenTransfer(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token transfer", stderr)
	keystore := fs.String("keystore", "", "sender keystore")
	to := fs.String("to", "", "recipient")
	amount := fs.String("amount", "", "amount to send")
	asset := fs.String("asset", "eus", "eus or eurc")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "to": *to, "amount": *amount}) {
		return 1
	}
	c, ok := assetContract(stderr, *asset)
	if !ok {
		return 1
	}
	recipient, ok := parseAddressFlag(stderr, "to", *to)
	if !ok {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	data, err := c.pack(ledger.MethodTransfer, recipient, value)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, c.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, "transfer", receipt)
	return 0
}

func runTokenApprove(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token approve", stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	spender := fs.String("spender", "", "spender address")
	amount := fs.String("amount", "", "allowance to set")
	asset := fs.String("asset", "eus", "eus or eurc")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "spender": *spender, "amount": *amount}) {
		return 1
	}
	c, ok := assetContract(stderr, *asset)
	if !ok {
		return 1
	}
	who, ok := parseAddressFlag(stderr, "spender", *spender)
	if !ok {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	data, err := c.pack(ledger.MethodApprove, who, value)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, c.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, "approve", receipt)
	return 0
}

func runTokenAllowance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token allowance", stderr)
	owner := fs.String("owner", "", "token owner")
	spender := fs.String("spender", "", "spender")
	asset := fs.String("asset", "eus", "eus or eurc")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"owner": *owner, "spender": *spender}) {
		return 1
	}
	c, ok := assetContract(stderr, *asset)
	if !ok {
		return 1
	}
	o, ok := parseAddressFlag(stderr, "owner", *owner)
	if !ok {
		return 1
	}
	s, ok := parseAddressFlag(stderr, "spender", *spender)
	if !ok {
		return 1
	}
	allowance, err := c.queryBig(ledger.MethodAllowance, o, s)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, formatAmount(allowance))
	return 0
}

func runTokenSupply(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token supply", stderr)
	asset := fs.String("asset", "eus", "eus or eurc")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	c, ok := assetContract(stderr, *asset)
	if !ok {
		return 1
	}
	supply, err := c.queryBig(ledger.MethodTotalSupply)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, formatAmount(supply))
	return 0
}
