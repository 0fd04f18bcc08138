package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	rpcEnv          = "EUSKO_RPC_URL"
	keyPassEnv      = "EUSKO_KEY_PASS"
	defaultEndpoint = "http://127.0.0.1:8545"
)

var rpcEndpoint = defaultRPCEndpoint()

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keys":
		return runKeysCommand(args[1:], stdout, stderr)
	case "token":
		return runTokenCommand(args[1:], stdout, stderr)
	case "ledger":
		return runLedgerCommand(args[1:], stdout, stderr)
	case "volunteer":
		return runVolunteerCommand(args[1:], stdout, stderr)
	case "multisig":
		return runMultisigCommand(args[1:], stdout, stderr)
	case "gov":
		return runGovCommand(args[1:], stdout, stderr)
	case "events":
		return runEventsCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(rpcEnv)); v != "" {
		return v
	}
	return defaultEndpoint
}

// applyGlobalFlags consumes --rpc wherever it appears before the command.
func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "-rpc":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--rpc requires a value")
			}
			rpcEndpoint = strings.TrimSpace(args[i+1])
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimSpace(strings.TrimPrefix(arg, "--rpc="))
		default:
			out = append(out, args[i:]...)
			return out, nil
		}
	}
	return out, nil
}

func usage() string {
	return `Usage: eusko-cli [--rpc URL] <command> [args]

Commands:
  keys       generate | address
  token      balance | transfer | approve | allowance | supply
  ledger     mint | redeem | spend | claim | pot | merchant | authorize | update-reserve | summary
  volunteer  register | expire | acts
  multisig   submit | confirm | execute | show | signers | add-signer | remove-signer | threshold
  gov        propose | vote | execute | reward | show | rate
  events     page through or follow the event log

The RPC endpoint defaults to $EUSKO_RPC_URL or ` + defaultEndpoint + `.
Keystore passphrases are read from $` + keyPassEnv + ` or prompted for.`
}
