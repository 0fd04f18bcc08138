package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"eusko/crypto"
)

func runKeysCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, keysUsage())
		return 1
	}
	switch args[0] {
	case "generate":
		return runKeysGenerate(args[1:], stdout, stderr)
	case "address":
		return runKeysAddress(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown keys subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, keysUsage())
		return 1
	}
}

func keysUsage() string {
	return "Usage: eusko-cli keys generate --out <keystore> [--force] | keys address --keystore <path>"
}

func runKeysGenerate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keys generate", stderr)
	out := fs.String("out", "", "path of the keystore file to create")
	force := fs.Bool("force", false, "overwrite an existing keystore")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"out": *out}) {
		return 1
	}
	if !*force {
		if _, err := os.Stat(*out); err == nil {
			fmt.Fprintf(stderr, "Error: %s already exists (use --force to overwrite)\n", *out)
			return 1
		} else if !errors.Is(err, os.ErrNotExist) {
			return fail(stderr, err)
		}
	}
	pass, err := keyPassphrase()
	if err != nil {
		return fail(stderr, err)
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fail(stderr, err)
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		return fail(stderr, err)
	}
	addr := key.PubKey().Address()
	fmt.Fprintf(stdout, "address: %s\nhex:     %s\nkeystore: %s\n", addr.String(), addr.Hex(), *out)
	return 0
}

func runKeysAddress(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keys address", stderr)
	keystore := fs.String("keystore", "", "path of the keystore file")
	if !parseFlags(fs, args, stderr) || !required(stderr, map[string]string{"keystore": *keystore}) {
		return 1
	}
	key, err := loadSigner(*keystore)
	if err != nil {
		return fail(stderr, err)
	}
	addr := key.PubKey().Address()
	fmt.Fprintf(stdout, "%s %s\n", addr.String(), addr.Hex())
	return 0
}
