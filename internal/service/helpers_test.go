package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/engine"
	"github.com/efreitasn/notary/internal/metrics"
	"github.com/efreitasn/notary/internal/registry"
	"github.com/efreitasn/notary/internal/store"
)

const (
	testOwner    domain.Address = "owner"
	testNotary   domain.Address = "notary"
	testDecimals int32          = 2
)

type testServices struct {
	notarySvc   *NotaryService
	accountSvc  *AccountService
	registrySvc *RegistryService
	webhookSvc  *WebhookService
	webhooks    *store.WebhookStore
	notary      *engine.Notary
	car         *registry.Registry
	metrics     *metrics.Metrics
}

// newTestServices wires every service over fresh stores. The owner holds
// 1,000,000.00 and mints on both registries.
func newTestServices(t *testing.T) *testServices {
	t.Helper()

	ledger, err := engine.NewLedger(store.NewAccountStore(), testOwner, 100_000_000)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	car := registry.New("car", testOwner, "https://ipfs.io/ipfs/")
	house := registry.New("house", testOwner, "https://ipfs.io/ipfs/")
	dir := registry.NewDirectory(car, house)
	n := engine.NewNotary(testNotary, ledger, dir, store.NewOrderStore(), store.NewSettlementStore())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(nil)
	ws := store.NewWebhookStore()
	webhookSvc := NewWebhookService(ws, 5*time.Second, testDecimals)

	return &testServices{
		notarySvc:   NewNotaryService(n, webhookSvc, m, logger, testDecimals),
		accountSvc:  NewAccountService(ledger, m, logger, testDecimals),
		registrySvc: NewRegistryService(dir, m, logger),
		webhookSvc:  webhookSvc,
		webhooks:    ws,
		notary:      n,
		car:         car,
		metrics:     m,
	}
}

// listable mints id to seller on the car registry and authorizes the notary.
func (ts *testServices) listable(t *testing.T, seller domain.Address, id uint64) {
	t.Helper()
	if _, err := ts.car.Mint(testOwner, seller, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ts.car.Approve(seller, testNotary, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (ts *testServices) fund(t *testing.T, to domain.Address, amount string) {
	t.Helper()
	if _, err := ts.accountSvc.Transfer(TransferRequest{Caller: testOwner, To: to.String(), Amount: amount}); err != nil {
		t.Fatalf("fund %s: %v", to, err)
	}
}
