package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"eusko/native/ledger"
)

func runVolunteerCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, volunteerUsage())
		return 1
	}
	switch args[0] {
	case "register":
		return runVolunteerRegister(args[1:], stdout, stderr)
	case "expire":
		return runVolunteerExpire(args[1:], stdout, stderr)
	case "acts":
		return runVolunteerActs(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown volunteer subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, volunteerUsage())
		return 1
	}
}

func volunteerUsage() string {
	return `Usage: eusko-cli volunteer <subcommand>
  register --keystore <path> --volunteer <addr> --organism <addr> --description <text> --reward <decimal>
  expire   --keystore <path> --volunteer <addr>
  acts     --volunteer <addr>`
}

func runVolunteerRegister(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("volunteer register", stderr)
	keystore := fs.String("keystore", "", "keystore of an authorized account")
	volunteer := fs.String("volunteer", "", "volunteer credited with the act")
	organism := fs.String("organism", "", "organism the act was done for")
	description := fs.String("description", "", "act description")
	reward := fs.String("reward", "", "EUS reward")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{
		"keystore": *keystore, "volunteer": *volunteer, "organism": *organism, "reward": *reward,
	}) {
		return 1
	}
	v, ok := parseAddressFlag(stderr, "volunteer", *volunteer)
	if !ok {
		return 1
	}
	o, ok := parseAddressFlag(stderr, "organism", *organism)
	if !ok {
		return 1
	}
	amount, ok := parseAmountFlag(stderr, "reward", *reward)
	if !ok {
		return 1
	}
	return sendLedger(stdout, stderr, "register", *keystore, ledger.MethodRegisterAct, v, o, *description, amount)
}

func runVolunteerExpire(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("volunteer expire", stderr)
	keystore := fs.String("keystore", "", "signer keystore")
	volunteer := fs.String("volunteer", "", "volunteer whose expired acts are reversed")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "volunteer": *volunteer}) {
		return 1
	}
	v, ok := parseAddressFlag(stderr, "volunteer", *volunteer)
	if !ok {
		return 1
	}
	data, err := ledgerContract.pack(ledger.MethodRemoveExpiredActs, v)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, ledgerContract.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, "expire", receipt)
	if removed, err := ledgerContract.returnedBig(ledger.MethodRemoveExpiredActs, receipt); err == nil {
		fmt.Fprintf(stdout, "removed: %s\n", removed.String())
	}
	return 0
}

func runVolunteerActs(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("volunteer acts", stderr)
	volunteer := fs.String("volunteer", "", "volunteer to list")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"volunteer": *volunteer}) {
		return 1
	}
	v, ok := parseAddressFlag(stderr, "volunteer", *volunteer)
	if !ok {
		return 1
	}
	data, err := ledgerContract.pack(ledger.MethodGetActsByVolunteer, v)
	if err != nil {
		return fail(stderr, err)
	}
	ret, err := view(ledgerContract.addr, data)
	if err != nil {
		return fail(stderr, err)
	}
	acts, err := ledger.DecodeActs(ret)
	if err != nil {
		return fail(stderr, err)
	}
	if len(acts) == 0 {
		fmt.Fprintln(stdout, "no acts")
		return 0
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORGANISM\tREWARD\tREGISTERED\tEXPIRES\tDESCRIPTION")
	for _, act := range acts {
		registered := time.Unix(int64(act.Timestamp), 0).UTC()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			act.Organism.String(),
			formatUnits(act.Reward),
			registered.Format(time.RFC3339),
			registered.Add(ledger.ExpiryWindow).Format(time.RFC3339),
			act.Description)
	}
	if err := tw.Flush(); err != nil {
		return fail(stderr, err)
	}
	return 0
}
