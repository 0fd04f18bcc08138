package main

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"eusko/crypto"
	"eusko/native/governance"
)

func runGovCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, govUsage())
		return 1
	}
	switch args[0] {
	case "propose":
		return runGovPropose(args[1:], stdout, stderr)
	case "vote":
		return runGovVote(args[1:], stdout, stderr)
	case "execute":
		return runGovExecute(args[1:], stdout, stderr)
	case "reward":
		return runGovReward(args[1:], stdout, stderr)
	case "show":
		return runGovShow(args[1:], stdout, stderr)
	case "rate":
		return runGovRate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown gov subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, govUsage())
		return 1
	}
}

func govUsage() string {
	return `Usage: eusko-cli gov <subcommand>
  propose --keystore <path> --description <text> --rate <percent>
  vote    --keystore <path> --id <n> [--support=false]
  execute --keystore <path> --id <n>
  reward  --keystore <path> --volunteer <addr> --uri <metadata> [--data <0xhex>]
  show    --id <n>
  rate`
}

func runGovPropose(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov propose", stderr)
	keystore := fs.String("keystore", "", "proposer keystore")
	description := fs.String("description", "", "proposal description")
	rate := fs.Uint64("rate", 0, "proposed discount rate in percent")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "description": *description}) {
		return 1
	}
	data, err := govContract.pack(governance.MethodCreateProposal, *description, *rate)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, govContract.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, "propose", receipt)
	if id, err := govContract.returnedBig(governance.MethodCreateProposal, receipt); err == nil {
		fmt.Fprintf(stdout, "proposal: %s\n", id.String())
	}
	return 0
}

func runGovVote(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov vote", stderr)
	keystore := fs.String("keystore", "", "voter keystore")
	id := fs.String("id", "", "proposal id")
	support := fs.Bool("support", true, "vote for (true) or against (false)")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "id": *id}) {
		return 1
	}
	index, ok := parseIndex(stderr, *id)
	if !ok {
		return 1
	}
	return sendGov(stdout, stderr, "vote", *keystore, governance.MethodVote, index, *support)
}

func runGovExecute(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov execute", stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	id := fs.String("id", "", "proposal id")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "id": *id}) {
		return 1
	}
	index, ok := parseIndex(stderr, *id)
	if !ok {
		return 1
	}
	return sendGov(stdout, stderr, "execute", *keystore, governance.MethodExecuteProposal, index)
}

func runGovReward(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov reward", stderr)
	keystore := fs.String("keystore", "", "owner keystore")
	volunteer := fs.String("volunteer", "", "badge recipient")
	uri := fs.String("uri", "", "badge metadata URI")
	data := fs.String("data", "0x", "opaque badge data")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore, "volunteer": *volunteer, "uri": *uri}) {
		return 1
	}
	to, ok := parseAddressFlag(stderr, "volunteer", *volunteer)
	if !ok {
		return 1
	}
	payload, err := hexutil.Decode(strings.TrimSpace(*data))
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --data: %v\n", err)
		return 1
	}
	call, err := govContract.pack(governance.MethodMintReward, to, *uri, payload)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, *keystore, govContract.addr, call)
	if !ok {
		return 1
	}
	printReceipt(stdout, "reward", receipt)
	if id, err := govContract.returnedBig(governance.MethodMintReward, receipt); err == nil {
		fmt.Fprintf(stdout, "badge: %s\n", id.String())
	}
	return 0
}

type proposalView struct {
	ID           uint64 `json:"id"`
	Description  string `json:"description"`
	NewRate      string `json:"newRate"`
	VotesFor     string `json:"votesFor"`
	VotesAgainst string `json:"votesAgainst"`
	Executed     bool   `json:"executed"`
	Proposer     string `json:"proposer"`
}

func runGovShow(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov show", stderr)
	id := fs.String("id", "", "proposal id")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"id": *id}) {
		return 1
	}
	index, ok := parseIndex(stderr, *id)
	if !ok {
		return 1
	}
	values, err := govContract.query(governance.MethodProposals, index)
	if err != nil {
		return fail(stderr, err)
	}
	if len(values) != 6 {
		return fail(stderr, fmt.Errorf("unexpected proposal payload with %d fields", len(values)))
	}
	description, ok1 := values[0].(string)
	newRate, ok2 := values[1].(*big.Int)
	votesFor, ok3 := values[2].(*big.Int)
	votesAgainst, ok4 := values[3].(*big.Int)
	executed, ok5 := values[4].(bool)
	proposer, ok6 := values[5].(common.Address)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return fail(stderr, fmt.Errorf("malformed proposal payload"))
	}
	return printJSON(stdout, stderr, proposalView{
		ID:           index,
		Description:  description,
		NewRate:      newRate.String(),
		VotesFor:     votesFor.String(),
		VotesAgainst: votesAgainst.String(),
		Executed:     executed,
		Proposer:     crypto.FromCommon(proposer).String(),
	})
}

func runGovRate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gov rate", stderr)
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	rate, err := govContract.queryBig(governance.MethodDiscountRate)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "%s%%\n", rate.String())
	return 0
}

func sendGov(stdout, stderr io.Writer, label, keystore, method string, args ...interface{}) int {
	data, err := govContract.pack(method, args...)
	if err != nil {
		return fail(stderr, err)
	}
	receipt, ok := send(stderr, keystore, govContract.addr, data)
	if !ok {
		return 1
	}
	printReceipt(stdout, label, receipt)
	return 0
}
