package volunteering

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eusko/core"
	"eusko/core/coretest"
	"eusko/core/genesis"
	"eusko/core/types"
	"eusko/crypto"
	"eusko/gateway/middleware"
	"eusko/native/ledger"
	"eusko/rpc"
	"eusko/rpc/client"
)

const testSecret = "volunteering-secret"

func newFileStore(t *testing.T, ops ...Opportunity) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "volunteer_opportunities.json"))
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), ops...))
	return store
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func message(t *testing.T, body map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(body["message"], &msg))
	return msg
}

func decodeAct(t *testing.T, body map[string]json.RawMessage) Opportunity {
	t.Helper()
	var act Opportunity
	require.NoError(t, json.Unmarshal(body["act"], &act))
	return act
}

func token(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	tok, err := middleware.IssueToken(middleware.AuthConfig{HMACSecret: testSecret}, subject, scopes, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

type fakeLedger struct {
	merchants   map[crypto.Address]bool
	registerErr error
	registered  []Opportunity
}

func (f *fakeLedger) IsApprovedMerchant(_ context.Context, account crypto.Address) (bool, error) {
	return f.merchants[account], nil
}

func (f *fakeLedger) RegisterAct(_ context.Context, op Opportunity) (*types.Receipt, error) {
	if f.registerErr != nil {
		return &types.Receipt{Status: types.ReceiptStatusFailed}, f.registerErr
	}
	f.registered = append(f.registered, op)
	return &types.Receipt{Status: types.ReceiptStatusSuccess, Height: 1}, nil
}

type brokenStore struct{ Store }

func (brokenStore) List(context.Context) ([]Opportunity, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStore) Update(context.Context, uint64, func(*Opportunity) error) (Opportunity, error) {
	return Opportunity{}, errors.New("disk on fire")
}

func TestUnauthenticatedCatalogueEditing(t *testing.T) {
	store := newFileStore(t, sampleOpportunities()...)
	srv := httptest.NewServer(NewServer(store, nil, ServerConfig{}, nil).Handler())
	defer srv.Close()
	url := srv.URL + "/api/volunteering"

	resp, err := http.Get(url)
	require.NoError(t, err)
	var listed []Opportunity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, sampleOpportunities(), listed)

	status, body := doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 1})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "actId and newStatus are required", message(t, body))

	status, body = doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 42, "newStatus": "inProgress"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "act not found", message(t, body))

	status, _ = doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 1, "newStatus": "archived"})
	require.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 1, "newStatus": "inProgress", "volunteer": "eus1vol"})
	require.Equal(t, http.StatusOK, status)
	act := decodeAct(t, body)
	require.Equal(t, StatusInProgress, act.Status)
	require.Equal(t, "eus1vol", act.Volunteer)

	stored, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, act, stored)

	status, body = doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 1, "newStatus": "new", "volunteer": ""})
	require.Equal(t, http.StatusOK, status)
	act = decodeAct(t, body)
	require.Equal(t, StatusNew, act.Status)
	require.Empty(t, act.Volunteer)
}

func TestStorageFailuresAnswer500(t *testing.T) {
	srv := httptest.NewServer(NewServer(brokenStore{}, nil, ServerConfig{}, nil).Handler())
	defer srv.Close()

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/volunteering", "", nil)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "server error while reading acts", message(t, body))

	status, body = doJSON(t, http.MethodPut, srv.URL+"/api/volunteering", "", map[string]interface{}{"actId": 1, "newStatus": "inProgress"})
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "server error while updating acts", message(t, body))
}

func TestAuthenticatedWorkflowWithFakeLedger(t *testing.T) {
	orgKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	organism := orgKey.PubKey().Address()
	ops := []Opportunity{{ID: 1, Title: "Beach clean-up", Organism: organism.String(), Description: "Collect plastic", Reward: 50, Status: StatusNew}}
	store := newFileStore(t, ops...)
	fake := &fakeLedger{merchants: map[crypto.Address]bool{}}
	srv := httptest.NewServer(NewServer(store, fake, ServerConfig{
		Auth: middleware.AuthConfig{Enabled: true, HMACSecret: testSecret},
	}, nil).Handler())
	defer srv.Close()
	url := srv.URL + "/api/volunteering"

	status, _ := doJSON(t, http.MethodPut, url, "", map[string]interface{}{"actId": 1, "newStatus": "inProgress"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := doJSON(t, http.MethodPut, url, token(t, "eus1vol"), map[string]interface{}{"actId": 1, "newStatus": "inProgress", "volunteer": "eus1other"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "eus1vol", decodeAct(t, body).Volunteer)

	orgToken := token(t, organism.String())
	status, body = doJSON(t, http.MethodPut, url, orgToken, map[string]interface{}{"actId": 1, "newStatus": "validated"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, ErrNotApprovedMerchant.Error(), message(t, body))

	fake.merchants[organism] = true
	status, _ = doJSON(t, http.MethodPut, url, orgToken, map[string]interface{}{"actId": 1, "newStatus": "finished"})
	require.Equal(t, http.StatusConflict, status, "steps cannot be skipped")

	for _, step := range []string{"validated", "finished", "readyOnChain"} {
		status, body = doJSON(t, http.MethodPut, url, orgToken, map[string]interface{}{"actId": 1, "newStatus": step})
		require.Equal(t, http.StatusOK, status, step)
		require.EqualValues(t, step, decodeAct(t, body).Status)
	}

	status, _ = doJSON(t, http.MethodPut, url, orgToken, map[string]interface{}{"actId": 1, "newStatus": "registeredOnChain"})
	require.Equal(t, http.StatusForbidden, status)

	registerURL := url + "/1/register"
	status, _ = doJSON(t, http.MethodPost, registerURL, orgToken, nil)
	require.Equal(t, http.StatusForbidden, status, "operator scope required")

	fake.registerErr = ErrRegistrationRejected
	status, _ = doJSON(t, http.MethodPost, registerURL, token(t, "eus1op", DefaultOperatorScope), nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	current, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, StatusReadyOnChain, current.Status)

	fake.registerErr = nil
	status, body = doJSON(t, http.MethodPost, registerURL, token(t, "eus1op", DefaultOperatorScope), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, StatusRegisteredOnChain, decodeAct(t, body).Status)
	require.Len(t, fake.registered, 1)
	require.Equal(t, "eus1vol", fake.registered[0].Volunteer)

	status, _ = doJSON(t, http.MethodPost, registerURL, token(t, "eus1op", DefaultOperatorScope), nil)
	require.Equal(t, http.StatusConflict, status)
	require.Len(t, fake.registered, 1, "an act is registered once")
}

func TestRegisterThroughNode(t *testing.T) {
	fixture := coretest.New(t, func(spec *genesis.GenesisSpec) {
		spec.Ledger.InitialReserve = "100000000"
	})
	node := httptest.NewServer(rpc.NewServer(fixture.Chain, rpc.ServerConfig{Network: "test"}, nil).Handler())
	defer node.Close()
	bridge := NewChainLedger(client.New(node.URL), fixture.Owner.Key)
	require.Equal(t, fixture.Owner.Addr, bridge.Operator())

	ctx := context.Background()
	approved, err := bridge.IsApprovedMerchant(ctx, fixture.Merchant.Addr)
	require.NoError(t, err)
	require.True(t, approved)
	approved, err = bridge.IsApprovedMerchant(ctx, fixture.Alice.Addr)
	require.NoError(t, err)
	require.False(t, approved)

	volunteer := coretest.NewAccount(t)
	store := newFileStore(t, Opportunity{
		ID: 3, Title: "Library", Organism: fixture.Merchant.Addr.String(),
		Description: "Read to children", Reward: 50, Status: StatusReadyOnChain, Volunteer: volunteer.Addr.String(),
	})
	srv := httptest.NewServer(NewServer(store, bridge, ServerConfig{}, nil).Handler())
	defer srv.Close()

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/volunteering/3/register", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, StatusRegisteredOnChain, decodeAct(t, body).Status)

	query, err := ledger.Pack(ledger.MethodBalanceOf, volunteer.Addr)
	require.NoError(t, err)
	ret, err := fixture.Chain.Call(volunteer.Addr, core.LedgerAddress, query)
	require.NoError(t, err)
	values, err := ledger.Unpack(ledger.MethodBalanceOf, ret)
	require.NoError(t, err)
	require.EqualValues(t, 50_000_000, values[0].(*big.Int).Uint64())

	acts, err := ledger.Pack(ledger.MethodGetActsByVolunteer, volunteer.Addr)
	require.NoError(t, err)
	ret, err = fixture.Chain.Call(volunteer.Addr, core.LedgerAddress, acts)
	require.NoError(t, err)
	decoded, err := ledger.DecodeActs(ret)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, "Read to children", decoded[0].Description)
	require.Equal(t, fixture.Merchant.Addr, decoded[0].Organism)
}

func TestRegisterRejectedByLedger(t *testing.T) {
	fixture := coretest.New(t)
	node := httptest.NewServer(rpc.NewServer(fixture.Chain, rpc.ServerConfig{Network: "test"}, nil).Handler())
	defer node.Close()
	// The merchant is neither owner nor authorized on the ledger.
	bridge := NewChainLedger(client.New(node.URL), fixture.Merchant.Key)

	volunteer := coretest.NewAccount(t)
	receipt, err := bridge.RegisterAct(context.Background(), Opportunity{
		Organism: fixture.Merchant.Addr.String(), Volunteer: volunteer.Addr.String(),
		Description: "x", Reward: 1, Status: StatusReadyOnChain,
	})
	require.ErrorIs(t, err, ErrRegistrationRejected)
	require.NotNil(t, receipt)
	require.False(t, receipt.Succeeded())

	_, err = bridge.RegisterAct(context.Background(), Opportunity{Organism: fixture.Merchant.Addr.String()})
	require.ErrorIs(t, err, ErrMissingVolunteer)
	_, err = bridge.RegisterAct(context.Background(), Opportunity{Organism: "nope", Volunteer: volunteer.Addr.String()})
	require.ErrorIs(t, err, crypto.ErrInvalidAddress)
}

func TestRewardUnits(t *testing.T) {
	require.Equal(t, "50000000", RewardUnits(50).Dec())
	require.True(t, RewardUnits(0).IsZero())
}
