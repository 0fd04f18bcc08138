package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eusko/core/coretest"
	"eusko/crypto"
	"eusko/rpc"
)

const testPass = "cli-test-pass"

type cliHarness struct {
	fixture   *coretest.Fixture
	keystores map[string]string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	fixture := coretest.New(t)
	node := httptest.NewServer(rpc.NewServer(fixture.Chain, rpc.ServerConfig{Network: "test"}, nil).Handler())
	t.Cleanup(node.Close)

	prevEndpoint, prevPass := rpcEndpoint, keyPassphrase
	rpcEndpoint = node.URL
	keyPassphrase = func() (string, error) { return testPass, nil }
	t.Cleanup(func() { rpcEndpoint, keyPassphrase = prevEndpoint, prevPass })

	dir := t.TempDir()
	h := &cliHarness{fixture: fixture, keystores: map[string]string{}}
	accounts := map[string]coretest.Account{
		"owner":    fixture.Owner,
		"alice":    fixture.Alice,
		"merchant": fixture.Merchant,
		"signer0":  fixture.Signers[0],
		"signer1":  fixture.Signers[1],
	}
	for name, acct := range accounts {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, crypto.SaveToKeystore(path, acct.Key, testPass))
		h.keystores[name] = path
	}
	return h
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func requireOK(t *testing.T, args ...string) string {
	t.Helper()
	code, stdout, stderr := runCLI(t, args...)
	require.Zerof(t, code, "eusko-cli %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), stdout, stderr)
	return stdout
}

func TestUsageAndUnknownCommands(t *testing.T) {
	code, _, stderr := runCLI(t)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Usage: eusko-cli")

	code, _, stderr = runCLI(t, "teleport")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Unknown command: teleport")

	code, stdout, _ := runCLI(t, "help")
	require.Zero(t, code)
	require.Contains(t, stdout, "multisig")

	code, _, stderr = runCLI(t, "ledger", "spend", "--keystore", "x")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Error: --amount is required")
}

func TestGlobalRPCFlag(t *testing.T) {
	prev := rpcEndpoint
	t.Cleanup(func() { rpcEndpoint = prev })

	rest, err := applyGlobalFlags([]string{"--rpc", "http://node:1", "token", "supply"})
	require.NoError(t, err)
	require.Equal(t, []string{"token", "supply"}, rest)
	require.Equal(t, "http://node:1", rpcEndpoint)

	rest, err = applyGlobalFlags([]string{"--rpc=http://node:2", "events"})
	require.NoError(t, err)
	require.Equal(t, []string{"events"}, rest)
	require.Equal(t, "http://node:2", rpcEndpoint)

	_, err = applyGlobalFlags([]string{"--rpc"})
	require.Error(t, err)
}

func TestKeysGenerateAndAddress(t *testing.T) {
	prev := keyPassphrase
	keyPassphrase = func() (string, error) { return testPass, nil }
	t.Cleanup(func() { keyPassphrase = prev })

	path := filepath.Join(t.TempDir(), "keys", "new.json")
	out := requireOK(t, "keys", "generate", "--out", path)
	require.Contains(t, out, "address: eus")

	code, _, stderr := runCLI(t, "keys", "generate", "--out", path)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "already exists")

	addrOut := requireOK(t, "keys", "address", "--keystore", path)
	first := strings.Fields(out)[1]
	require.True(t, strings.HasPrefix(addrOut, first))
}

func TestTokenAndLedgerCommands(t *testing.T) {
	h := newCLIHarness(t)
	alice := h.fixture.Alice.Addr.String()
	merchant := h.fixture.Merchant.Addr.String()

	require.Equal(t, "0.001000\n", requireOK(t, "token", "balance", "--asset", "eurc", "--address", alice))

	out := requireOK(t, "ledger", "mint", "--keystore", h.keystores["alice"], "--amount", "0.0001")
	require.Contains(t, out, "approve: tx 0x")
	require.Contains(t, out, "mint: tx 0x")
	require.Contains(t, out, "ledger.minted")
	require.Equal(t, "0.000100\n", requireOK(t, "token", "balance", "--address", alice))
	require.Equal(t, "0.000600\n", requireOK(t, "token", "supply"))

	requireOK(t, "ledger", "spend", "--keystore", h.keystores["alice"], "--merchant", merchant, "--amount", "0.00004")
	require.Equal(t, "0.000040\n", requireOK(t, "ledger", "pot", "--merchant", merchant))

	out = requireOK(t, "ledger", "claim", "--keystore", h.keystores["merchant"])
	require.Contains(t, out, "claimed: 0.000040")

	requireOK(t, "ledger", "redeem", "--keystore", h.keystores["alice"], "--amount", "0.00001")
	require.Equal(t, "0.000050\n", requireOK(t, "token", "balance", "--address", alice))

	out = requireOK(t, "ledger", "summary")
	require.Contains(t, out, `"backed": true`)

	code, _, stderr := runCLI(t, "ledger", "spend", "--keystore", h.keystores["alice"], "--merchant", alice, "--amount", "0.00001")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "failed")
}

func TestLedgerBurnCommand(t *testing.T) {
	h := newCLIHarness(t)
	alice := h.fixture.Alice.Addr.String()
	requireOK(t, "ledger", "mint", "--keystore", h.keystores["alice"], "--amount", "0.0001")

	code, _, stderr := runCLI(t, "ledger", "burn", "--keystore", h.keystores["owner"], "--amount", "0.00001")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--account is required")

	code, _, stderr = runCLI(t, "ledger", "burn", "--keystore", h.keystores["alice"], "--account", alice, "--amount", "0.00001")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "failed")

	out := requireOK(t, "ledger", "burn", "--keystore", h.keystores["owner"], "--account", alice, "--amount", "0.00001")
	require.Contains(t, out, "burn: tx 0x")
	require.Contains(t, out, "ledger.burned")
	require.Equal(t, "0.000090\n", requireOK(t, "token", "balance", "--address", alice))
	require.Equal(t, "0.000590\n", requireOK(t, "token", "supply"))
	require.Contains(t, requireOK(t, "ledger", "summary"), `"backed": true`)
}

func TestRoleCommands(t *testing.T) {
	h := newCLIHarness(t)
	bob := coretest.NewAccount(t).Addr.String()

	requireOK(t, "ledger", "merchant", "add", "--keystore", h.keystores["owner"], "--address", bob)
	out := requireOK(t, "ledger", "merchant", "list")
	require.Contains(t, out, bob)
	require.Contains(t, out, h.fixture.Merchant.Addr.String())

	requireOK(t, "ledger", "merchant", "remove", "--keystore", h.keystores["owner"], "--address", bob)
	require.NotContains(t, requireOK(t, "ledger", "merchant", "list"), bob)

	code, _, stderr := runCLI(t, "ledger", "authorize", "add", "--keystore", h.keystores["alice"], "--address", bob)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "failed")

	requireOK(t, "ledger", "authorize", "add", "--keystore", h.keystores["owner"], "--address", bob)
	require.Contains(t, requireOK(t, "ledger", "authorize", "list"), bob)
}

func TestVolunteerCommands(t *testing.T) {
	h := newCLIHarness(t)
	volunteer := coretest.NewAccount(t).Addr.String()

	out := requireOK(t, "volunteer", "register",
		"--keystore", h.keystores["owner"],
		"--volunteer", volunteer,
		"--organism", h.fixture.Merchant.Addr.String(),
		"--description", "Beach clean-up",
		"--reward", "0.0001")
	require.Contains(t, out, "ledger.volunteer_act_registered")

	out = requireOK(t, "volunteer", "acts", "--volunteer", volunteer)
	require.Contains(t, out, "Beach clean-up")
	require.Contains(t, out, "0.000100")

	out = requireOK(t, "volunteer", "expire", "--keystore", h.keystores["owner"], "--volunteer", volunteer)
	require.Contains(t, out, "removed: 0")

	require.Contains(t, requireOK(t, "volunteer", "acts", "--volunteer", coretest.NewAccount(t).Addr.String()), "no acts")
}

func TestMultisigCommands(t *testing.T) {
	h := newCLIHarness(t)
	carol := coretest.NewAccount(t).Addr.String()

	out := requireOK(t, "multisig", "add-signer", "--keystore", h.keystores["signer0"], "--signer", carol)
	require.Contains(t, out, "index: 0")

	code, _, stderr := runCLI(t, "multisig", "execute", "--keystore", h.keystores["signer0"], "--id", "0")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "failed")

	requireOK(t, "multisig", "confirm", "--keystore", h.keystores["signer0"], "--id", "0")
	requireOK(t, "multisig", "confirm", "--keystore", h.keystores["signer1"], "--id", "0")
	requireOK(t, "multisig", "execute", "--keystore", h.keystores["signer1"], "--id", "0")

	out = requireOK(t, "multisig", "show", "--id", "0")
	require.Contains(t, out, `"executed": true`)
	require.Contains(t, out, `"confirmations": 2`)

	out = requireOK(t, "multisig", "signers")
	require.Contains(t, out, "threshold: 2 of 3")
	require.Contains(t, out, carol)

	code, _, stderr = runCLI(t, "multisig", "submit", "--keystore", h.keystores["signer0"], "--target", "ledger", "--data", "zz")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "invalid --data")
}

func TestGovCommands(t *testing.T) {
	h := newCLIHarness(t)

	out := requireOK(t, "gov", "propose", "--keystore", h.keystores["alice"], "--description", "Raise the discount", "--rate", "10")
	require.Contains(t, out, "proposal: 0")
	requireOK(t, "gov", "vote", "--keystore", h.keystores["alice"], "--id", "0")
	requireOK(t, "gov", "vote", "--keystore", h.keystores["merchant"], "--id", "0", "--support=false")
	requireOK(t, "gov", "vote", "--keystore", h.keystores["signer0"], "--id", "0")

	code, _, stderr := runCLI(t, "gov", "execute", "--keystore", h.keystores["alice"], "--id", "0")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "failed")

	requireOK(t, "gov", "execute", "--keystore", h.keystores["owner"], "--id", "0")
	require.Equal(t, "10%\n", requireOK(t, "gov", "rate"))

	out = requireOK(t, "gov", "show", "--id", "0")
	require.Contains(t, out, `"votesFor": "2"`)
	require.Contains(t, out, `"votesAgainst": "1"`)
	require.Contains(t, out, `"executed": true`)

	out = requireOK(t, "gov", "reward", "--keystore", h.keystores["owner"], "--volunteer", h.fixture.Alice.Addr.String(), "--uri", "ipfs://badge")
	require.Contains(t, out, "badge: 1")
}

func TestEventsCommand(t *testing.T) {
	h := newCLIHarness(t)
	requireOK(t, "ledger", "mint", "--keystore", h.keystores["alice"], "--amount", "0.00002")

	out := requireOK(t, "events", "--type", "ledger.minted")
	require.Contains(t, out, "ledger.minted")
	require.Contains(t, out, "amount=20")

	out = requireOK(t, "events", "--json", "--limit", "1")
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)

	out = requireOK(t, "events", "--follow", "--max", "1", "--type", "ledger.minted")
	require.Contains(t, out, "ledger.minted")

	code, _, stderr := runCLI(t, "events", "--address", "nope")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "invalid --address")
}

func TestEventsStreamURL(t *testing.T) {
	got, err := eventsStreamURL("https://node.example/rpc/", 7, "ledger.spent", "")
	require.NoError(t, err)
	require.Equal(t, "wss://node.example/rpc/ws/events?from=7&type=ledger.spent", got)

	_, err = eventsStreamURL("ftp://node", 0, "", "")
	require.Error(t, err)
}
