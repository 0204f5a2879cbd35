package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/engine"
	"github.com/efreitasn/notary/internal/metrics"
	"github.com/efreitasn/notary/internal/registry"
	"github.com/efreitasn/notary/internal/service"
	"github.com/efreitasn/notary/internal/store"
)

// testEnv bundles all dependencies for handler integration tests.
type testEnv struct {
	router http.Handler
	notary *engine.Notary
}

// newTestEnv deploys a notary with decimals=0 and a supply of 1,000,000
// owned by "owner", who also mints on the car and house registries.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ledger, err := engine.NewLedger(store.NewAccountStore(), "owner", 1_000_000)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	dir := registry.NewDirectory(
		registry.New("car", "owner", "https://ipfs.io/ipfs/"),
		registry.New("house", "owner", "https://ipfs.io/ipfs/"),
	)
	n := engine.NewNotary("notary", ledger, dir, store.NewOrderStore(), store.NewSettlementStore())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(nil)
	webhookSvc := service.NewWebhookService(store.NewWebhookStore(), 5*time.Second, 0)

	router := NewRouter(
		service.NewNotaryService(n, webhookSvc, m, logger, 0),
		service.NewAccountService(ledger, m, logger, 0),
		service.NewRegistryService(dir, m, logger),
		webhookSvc,
		m.Handler(),
		logger,
	)
	return &testEnv{router: router, notary: n}
}

// do sends a request as account (empty for anonymous) with an optional
// JSON body.
func (env *testEnv) do(t *testing.T, account domain.Address, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set(AccountHeader, account.String())
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// expect fails the test unless rr has the wanted status.
func expect(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
}

// decodeJSON decodes the response body into v.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error
}

// deploy reproduces the setup used across the scenarios: the buyer holds
// 10,000 and the seller holds asset 1 of car and 2 of house.
func (env *testEnv) deploy(t *testing.T) {
	t.Helper()
	expect(t, env.do(t, "owner", "POST", "/transfers", map[string]string{"to": "buyer", "amount": "10000"}), http.StatusOK)
	expect(t, env.do(t, "owner", "POST", "/registries/car/assets", map[string]any{"to": "seller", "asset_id": 1, "uri": "QmCar"}), http.StatusCreated)
	expect(t, env.do(t, "owner", "POST", "/registries/house/assets", map[string]any{"to": "seller", "asset_id": 2}), http.StatusCreated)
}

func (env *testEnv) approve(t *testing.T, reg, id, spender string) {
	t.Helper()
	rr := env.do(t, "seller", "POST", "/registries/"+reg+"/assets/"+id+"/approve", map[string]string{"spender": spender})
	expect(t, rr, http.StatusOK)
}

func (env *testEnv) balance(t *testing.T, account string) string {
	t.Helper()
	rr := env.do(t, "", "GET", "/accounts/"+account+"/balance", nil)
	expect(t, rr, http.StatusOK)
	var resp balanceResponse
	decodeJSON(t, rr, &resp)
	return resp.Balance
}

// --- Health / ledger ---

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	expect(t, env.do(t, "", "GET", "/healthz", nil), http.StatusOK)
}

func TestLedger(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "", "GET", "/ledger", nil)
	expect(t, rr, http.StatusOK)

	var resp ledgerResponse
	decodeJSON(t, rr, &resp)
	if resp.Notary != "notary" || resp.Owner != "owner" {
		t.Errorf("unexpected identities %+v", resp)
	}
	if resp.TotalSupply != "1000000" || resp.Circulating != "1000000" {
		t.Errorf("supply = %s, circulating = %s", resp.TotalSupply, resp.Circulating)
	}
	if len(resp.Registries) != 2 || resp.Registries[0] != "car" || resp.Registries[1] != "house" {
		t.Errorf("registries = %v", resp.Registries)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)

	rr := env.do(t, "", "GET", "/metrics", nil)
	expect(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "notary_assets_minted_total") {
		t.Error("expected notary_assets_minted_total in metrics output")
	}
}

// --- Transfers ---

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "owner", "POST", "/transfers", map[string]string{"to": "alice", "amount": "250"})
	expect(t, rr, http.StatusOK)
	var resp balanceResponse
	decodeJSON(t, rr, &resp)
	if resp.Account != "owner" || resp.Balance != "999750" {
		t.Errorf("unexpected response %+v", resp)
	}
	if got := env.balance(t, "alice"); got != "250" {
		t.Errorf("alice balance = %s, want 250", got)
	}
}

func TestTransfer_Errors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "", "POST", "/transfers", map[string]string{"to": "alice", "amount": "1"})
	expect(t, rr, http.StatusUnauthorized)

	rr = env.do(t, "alice", "POST", "/transfers", map[string]string{"to": "bob", "amount": "1"})
	expect(t, rr, http.StatusConflict)
	if code := errorCode(t, rr); code != "insufficient_balance" {
		t.Errorf("error = %q", code)
	}

	rr = env.do(t, "owner", "POST", "/transfers", map[string]string{"to": "", "amount": "1"})
	expect(t, rr, http.StatusBadRequest)
	if code := errorCode(t, rr); code != "invalid_account" {
		t.Errorf("error = %q", code)
	}

	rr = env.do(t, "owner", "POST", "/transfers", map[string]string{"to": "bob", "amount": "0.5"})
	expect(t, rr, http.StatusBadRequest)
	if code := errorCode(t, rr); code != "validation_error" {
		t.Errorf("error = %q", code)
	}
}

func TestContentTypeRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/transfers", strings.NewReader(`{"to":"bob","amount":"1"}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(AccountHeader, "owner")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	expect(t, rr, http.StatusBadRequest)
}

// --- Registry ---

func TestRegistryAssetLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)

	rr := env.do(t, "", "GET", "/registries/car/assets/1", nil)
	expect(t, rr, http.StatusOK)
	var asset assetResponse
	decodeJSON(t, rr, &asset)
	if asset.Owner != "seller" || asset.Approved != nil || asset.TokenURI != "https://ipfs.io/ipfs/QmCar" {
		t.Errorf("unexpected asset %+v", asset)
	}

	env.approve(t, "car", "1", "notary")
	rr = env.do(t, "", "GET", "/registries/car/assets/1", nil)
	decodeJSON(t, rr, &asset)
	if asset.Approved == nil || *asset.Approved != "notary" {
		t.Errorf("approved = %v, want notary", asset.Approved)
	}

	rr = env.do(t, "", "GET", "/registries/house/owners/seller/assets", nil)
	expect(t, rr, http.StatusOK)
	var list assetListResponse
	decodeJSON(t, rr, &list)
	if len(list.Assets) != 1 || list.Assets[0].AssetID != 2 || list.Assets[0].TokenURI != "https://ipfs.io/ipfs/2" {
		t.Errorf("unexpected assets %+v", list.Assets)
	}
}

func TestRegistryErrors(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)

	tests := []struct {
		name       string
		account    domain.Address
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"unknown registry", "", "GET", "/registries/boat/assets/1", nil, http.StatusNotFound, "registry_not_found"},
		{"unknown asset", "", "GET", "/registries/car/assets/9", nil, http.StatusNotFound, "asset_not_found"},
		{"bad asset id", "", "GET", "/registries/car/assets/x", nil, http.StatusBadRequest, "validation_error"},
		{"mint by non-minter", "seller", "POST", "/registries/car/assets", map[string]any{"to": "seller", "asset_id": 5}, http.StatusForbidden, "unauthorized"},
		{"duplicate mint", "owner", "POST", "/registries/car/assets", map[string]any{"to": "seller", "asset_id": 1}, http.StatusConflict, "asset_already_exists"},
		{"approve by non-owner", "buyer", "POST", "/registries/car/assets/1/approve", map[string]string{"spender": "notary"}, http.StatusForbidden, "not_asset_owner"},
		{"transfer by stranger", "buyer", "POST", "/registries/car/assets/1/transfer", map[string]string{"from": "seller", "to": "buyer"}, http.StatusConflict, "transfer_unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.account, tt.method, tt.path, tt.body)
			expect(t, rr, tt.wantStatus)
			if code := errorCode(t, rr); code != tt.wantCode {
				t.Errorf("error = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

// --- Orders ---

func TestListWithoutApproval(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)

	rr := env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "200"})
	expect(t, rr, http.StatusForbidden)

	var resp errorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error != "asset_not_authorized" || resp.Message != "NFT must be approved for the notary contract." {
		t.Errorf("unexpected error %+v", resp)
	}
}

func TestListAndGetOrder(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "car", "1", "notary")

	rr := env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "200"})
	expect(t, rr, http.StatusCreated)

	rr = env.do(t, "", "GET", "/orders/seller", nil)
	expect(t, rr, http.StatusOK)
	var order orderResponse
	decodeJSON(t, rr, &order)
	if order.AssetRegistry != "car" || order.Buyer != "buyer" || order.AssetID != 1 || order.Price != "200" || order.Fulfilled {
		t.Errorf("unexpected order %+v", order)
	}

	rr = env.do(t, "", "GET", "/orders/nobody", nil)
	expect(t, rr, http.StatusNotFound)
	if code := errorCode(t, rr); code != "no_active_order" {
		t.Errorf("error = %q", code)
	}
}

func TestListTwice(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "house", "2", "notary")
	env.approve(t, "car", "1", "notary")

	expect(t, env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "house", "asset_id": 2, "buyer": "buyer", "price": "500"}), http.StatusCreated)

	rr := env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "200"})
	expect(t, rr, http.StatusConflict)
	var resp errorResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "Only one active sell order can be handled at a time." {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestSettleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "car", "1", "notary")
	expect(t, env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "200"}), http.StatusCreated)

	// Settle carries no body.
	rr := env.do(t, "buyer", "POST", "/orders/seller/settle", nil)
	expect(t, rr, http.StatusOK)
	var st settlementResponse
	decodeJSON(t, rr, &st)
	if st.SettlementID == "" || st.Price != "200" || st.Seller != "seller" || st.Buyer != "buyer" {
		t.Errorf("unexpected settlement %+v", st)
	}

	if got := env.balance(t, "seller"); got != "200" {
		t.Errorf("seller balance = %s, want 200", got)
	}
	if got := env.balance(t, "buyer"); got != "9800" {
		t.Errorf("buyer balance = %s, want 9800", got)
	}

	rr = env.do(t, "", "GET", "/registries/car/assets/1", nil)
	var asset assetResponse
	decodeJSON(t, rr, &asset)
	if asset.Owner != "buyer" || asset.Approved != nil {
		t.Errorf("asset after settlement = %+v", asset)
	}

	expect(t, env.do(t, "", "GET", "/orders/seller", nil), http.StatusNotFound)

	rr = env.do(t, "", "GET", "/accounts/buyer/settlements", nil)
	expect(t, rr, http.StatusOK)
	var history settlementListResponse
	decodeJSON(t, rr, &history)
	if len(history.Settlements) != 1 || history.Settlements[0].SettlementID != st.SettlementID {
		t.Errorf("history = %+v", history)
	}

	if sum := env.notary.SumBalances(); sum != env.notary.TotalSupply() {
		t.Errorf("sum of balances %d != supply %d", sum, env.notary.TotalSupply())
	}
}

func TestSettleErrors(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "car", "1", "notary")
	expect(t, env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "20000"}), http.StatusCreated)

	expect(t, env.do(t, "", "POST", "/orders/seller/settle", nil), http.StatusUnauthorized)

	rr := env.do(t, "owner", "POST", "/orders/seller/settle", nil)
	expect(t, rr, http.StatusForbidden)

	rr = env.do(t, "buyer", "POST", "/orders/seller/settle", nil)
	expect(t, rr, http.StatusConflict)
	if code := errorCode(t, rr); code != "insufficient_balance" {
		t.Errorf("error = %q", code)
	}

	rr = env.do(t, "buyer", "POST", "/orders/nobody/settle", nil)
	expect(t, rr, http.StatusNotFound)

	if got := env.balance(t, "buyer"); got != "10000" {
		t.Errorf("buyer balance = %s, want 10000", got)
	}
}

func TestSettleAfterRevocation(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "car", "1", "notary")
	expect(t, env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "car", "asset_id": 1, "buyer": "buyer", "price": "200"}), http.StatusCreated)
	env.approve(t, "car", "1", "")

	rr := env.do(t, "buyer", "POST", "/orders/seller/settle", nil)
	expect(t, rr, http.StatusConflict)
	if code := errorCode(t, rr); code != "transfer_unauthorized" {
		t.Errorf("error = %q", code)
	}
	if got := env.balance(t, "buyer"); got != "10000" {
		t.Errorf("buyer balance = %s, want 10000", got)
	}
	expect(t, env.do(t, "", "GET", "/orders/seller", nil), http.StatusOK)
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(t)
	env.approve(t, "house", "2", "notary")
	expect(t, env.do(t, "seller", "POST", "/orders", map[string]any{"asset_registry": "house", "asset_id": 2, "buyer": "buyer", "price": "500"}), http.StatusCreated)

	rr := env.do(t, "seller", "DELETE", "/orders", nil)
	expect(t, rr, http.StatusConflict)
	var resp errorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error != "authorization_still_active" || resp.Message != "NFT approvement must be removed before cancel." {
		t.Errorf("unexpected error %+v", resp)
	}

	env.approve(t, "house", "2", "")
	rr = env.do(t, "seller", "DELETE", "/orders", nil)
	expect(t, rr, http.StatusOK)

	expect(t, env.do(t, "", "GET", "/orders/seller", nil), http.StatusNotFound)
	expect(t, env.do(t, "seller", "DELETE", "/orders", nil), http.StatusNotFound)
}

// --- Webhooks ---

func TestWebhookRoutes(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "alice", "POST", "/webhooks", map[string]any{"url": "https://example.com/hook", "events": []string{"order.settled"}})
	expect(t, rr, http.StatusCreated)
	var created webhookListResponse
	decodeJSON(t, rr, &created)
	if len(created.Webhooks) != 1 || created.Webhooks[0].Account != "alice" {
		t.Fatalf("unexpected webhooks %+v", created)
	}
	id := created.Webhooks[0].WebhookID

	rr = env.do(t, "alice", "POST", "/webhooks", map[string]any{"url": "https://example.com/hook", "events": []string{"order.settled"}})
	expect(t, rr, http.StatusOK)

	rr = env.do(t, "alice", "GET", "/webhooks", nil)
	expect(t, rr, http.StatusOK)
	var list webhookListResponse
	decodeJSON(t, rr, &list)
	if len(list.Webhooks) != 1 {
		t.Errorf("got %d webhooks, want 1", len(list.Webhooks))
	}

	expect(t, env.do(t, "", "GET", "/webhooks", nil), http.StatusBadRequest)
	expect(t, env.do(t, "bob", "DELETE", "/webhooks/"+id, nil), http.StatusNotFound)
	expect(t, env.do(t, "alice", "DELETE", "/webhooks/"+id, nil), http.StatusNoContent)

	rr = env.do(t, "alice", "POST", "/webhooks", map[string]any{"url": "http://example.com/hook", "events": []string{"order.settled"}})
	expect(t, rr, http.StatusBadRequest)
}
