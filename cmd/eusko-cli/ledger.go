package main

import (
	"fmt"
	"io"

	"eusko/native/ledger"
	"eusko/native/refasset"
)

func runLedgerCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, ledgerUsage())
		return 1
	}
	switch args[0] {
	case "mint":
		return runLedgerMint(args[1:], stdout, stderr)
	case "redeem":
		return runLedgerRedeem(args[1:], stdout, stderr)
	case "burn":
		return runLedgerBurn(args[1:], stdout, stderr)
	case "spend":
		return runLedgerSpend(args[1:], stdout, stderr)
	case "claim":
		return runLedgerClaim(args[1:], stdout, stderr)
	case "pot":
		return runLedgerPot(args[1:], stdout, stderr)
	case "merchant":
		return runRoleCommand("ledger merchant", args[1:], stdout, stderr, roleCalls{
			add:    ledger.MethodAddMerchant,
			remove: ledger.MethodRemoveMerchant,
			list:   ledger.MethodGetMerchants,
		})
	case "authorize":
		return runRoleCommand("ledger authorize", args[1:], stdout, stderr, roleCalls{
			add:    ledger.MethodAddAuthorizedAccount,
			remove: ledger.MethodRemoveAuthorizedAccount,
			list:   ledger.MethodGetAuthorizedAccounts,
		})
	case "update-reserve":
		return runLedgerUpdateReserve(args[1:], stdout, stderr)
	case "summary":
		return runLedgerSummary(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown ledger subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, ledgerUsage())
		return 1
	}
}

func ledgerUsage() string {
	return `Usage: eusko-cli ledger <subcommand>
  mint           --keystore <path> --amount <decimal> [--to <addr>]
  redeem         --keystore <path> --amount <decimal>
  burn           --keystore <path> --account <addr> --amount <decimal>
  spend          --keystore <path> --merchant <addr> --amount <decimal>
  claim          --keystore <path>
  pot            --merchant <addr>
  merchant       add|remove --keystore <path> --address <addr> | list
  authorize      add|remove --keystore <path> --address <addr> | list
  update-reserve --keystore <path> --address <addr>
  summary`
}

// runLedgerMint approves the ledger for the EURC amount and then mints.
func runLedgerMint(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger mint", stderr)
	keystore := fs.String("keystore", "", "keystore of an authorized account or the owner")
	amount := fs.String("amount", "", "EURC to deposit")
	to := fs.String("to", "", "recipient of the minted EUS (default: signer)")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "amount": *amount}) {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	key, err := loadSigner(*keystore)
	if err != nil {
		return fail(stderr, err)
	}
	recipient := key.PubKey().Address()
	if *to != "" {
		if recipient, ok = parseAddressFlag(stderr, "to", *to); !ok {
			return 1
		}
	}

	approve, err := eurcContract.pack(refasset.MethodApprove, ledgerContract.addr, value)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := sendWithKey(stderr, key, eurcContract.addr, approve)
	if !ok {
		return 1
	}
	printReceipt(stdout, "approve", receipt)

	mint, err := ledgerContract.pack(ledger.MethodMintWithEURC, recipient, value)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok = sendWithKey(stderr, key, ledgerContract.addr, mint)
	if !ok {
		return 1
	}
	printReceipt(stdout, "mint", receipt)
	return 0
}

func runLedgerRedeem(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger redeem", stderr)
	keystore := fs.String("keystore", "", "holder keystore")
	amount := fs.String("amount", "", "EUS to redeem for EURC")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "amount": *amount}) {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, "redeem", *keystore, ledger.MethodRedeem, value)
}

func runLedgerBurn(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger burn", stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	account := fs.String("account", "", "holder whose EUS is burned")
	amount := fs.String("amount", "", "EUS to burn")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "account": *account, "amount": *amount}) {
		return 1
	}
	holder, ok := parseAddressFlag(stderr, "account", *account)
	if !ok {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, "burn", *keystore, ledger.MethodBurn, holder, value)
}

func runLedgerSpend(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger spend", stderr)
	keystore := fs.String("keystore", "", "payer keystore")
	merchant := fs.String("merchant", "", "approved merchant")
	amount := fs.String("amount", "", "EUS to spend")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "merchant": *merchant, "amount": *amount}) {
		return 1
	}
	m, ok := parseAddressFlag(stderr, "merchant", *merchant)
	if !ok {
		return 1
	}
	value, ok := parseAmountFlag(stderr, "amount", *amount)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, "spend", *keystore, ledger.MethodSpend, m, value)
}

func runLedgerClaim(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger claim", stderr)
	keystore := fs.String("keystore", "", "merchant keystore")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore}) {
		return 1
	}
	data, err := ledgerContract.pack(ledger.MethodClaimFunds)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, ledgerContract.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, "claim", receipt)
	if claimed, err := ledgerContract.returnedBig(ledger.MethodClaimFunds, receipt); err == nil {
		fmt.Fprintf(stdout, "claimed: %s\n", formatAmount(claimed))
	}
	return 0
}

func runLedgerPot(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger pot", stderr)
	merchant := fs.String("merchant", "", "merchant address")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"merchant": *merchant}) {
		return 1
	}
	m, ok := parseAddressFlag(stderr, "merchant", *merchant)
	if !ok {
		return 1
	}
	pot, err := ledgerContract.queryBig(ledger.MethodMerchantBalance, m)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, formatAmount(pot))
	return 0
}

func runLedgerUpdateReserve(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger update-reserve", stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	address := fs.String("address", "", "new reserve address")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "address": *address}) {
		return 1
	}
	addr, ok := parseAddressFlag(stderr, "address", *address)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, "update-reserve", *keystore, ledger.MethodUpdateReserve, addr)
}

func runLedgerSummary(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ledger summary", stderr)
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	ctx, cancel := commandContext()
	defer cancel()
	summary, err := newRPCClient().LedgerSummary(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	return printJSON(stdout, stderr, summary)
}

func sendLedger(stdout, stderr io.Writer, label, keystore, method string, args ...interface{}) int {
	data, err := ledgerContract.pack(method, args...)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, keystore, ledgerContract.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, label, receipt)
	return 0
}

// roleCalls names the add/remove/list methods of an owner-managed role set.
type roleCalls struct {
	add, remove, list string
}

func runRoleCommand(name string, args []string, stdout, stderr io.Writer, calls roleCalls) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "Usage: eusko-cli %s add|remove --keystore <path> --address <addr> | list\n", name)
		return 1
	}
	if args[0] == "list" {
		fs := newFlagSet(name+" list", stderr)
		if !parseFlags(fs, args[1:], stderr) {
			return 1
		}
		members, err := ledgerContract.queryAddresses(calls.list)
		if err != nil {
			return fail(stderr, err)
		}
		for _, m := range members {
			fmt.Fprintln(stdout, m.String())
		}
		return 0
	}
	var method string
	switch args[0] {
	case "add":
		method = calls.add
	case "remove":
		method = calls.remove
	default:
		fmt.Fprintf(stderr, "Unknown %s subcommand: %s\n", name, args[0])
		return 1
	}
	fs := newFlagSet(name+" "+args[0], stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	address := fs.String("address", "", "account to update")
	if !parseFlags(fs, args[1:], stderr) || !required(stderr, map[string]string{"keystore": *keystore, "address": *address}) {
		return 1
	}
	addr, ok := parseAddressFlag(stderr, "address", *address)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, method, *keystore, method, addr)
}
