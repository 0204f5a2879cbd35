package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/service"
)

// AccountHeader carries the caller's identity. Every state-changing
// endpoint acts on behalf of this account.
const AccountHeader = "X-Account"

// NewRouter creates a chi router with all routes registered, request logging,
// caller identification and Content-Type validation middleware. metrics may
// be nil, in which case /metrics is not served.
func NewRouter(
	notarySvc *service.NotaryService,
	accountSvc *service.AccountService,
	registrySvc *service.RegistryService,
	webhookSvc *service.WebhookService,
	metrics http.Handler,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(callerIdentity)
	r.Use(contentTypeJSON)

	accountH := NewAccountHandler(accountSvc, notarySvc, registrySvc)
	orderH := NewOrderHandler(notarySvc)
	registryH := NewRegistryHandler(registrySvc)
	webhookH := NewWebhookHandler(webhookSvc)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	// Ledger routes.
	r.Get("/ledger", accountH.Ledger)
	r.Get("/accounts/{address}/balance", accountH.GetBalance)
	r.Get("/accounts/{address}/settlements", orderH.ListSettlements)
	r.Post("/transfers", accountH.Transfer)

	// Order routes.
	r.Post("/orders", orderH.List)
	r.Delete("/orders", orderH.Cancel)
	r.Get("/orders/{seller}", orderH.GetOrder)
	r.Post("/orders/{seller}/settle", orderH.Settle)

	// Registry routes.
	r.Get("/registries", registryH.ListRegistries)
	r.Route("/registries/{registry}", func(r chi.Router) {
		r.Post("/assets", registryH.Mint)
		r.Get("/assets/{asset_id}", registryH.GetAsset)
		r.Post("/assets/{asset_id}/approve", registryH.Approve)
		r.Post("/assets/{asset_id}/transfer", registryH.Transfer)
		r.Get("/owners/{address}/assets", registryH.ListOwnerAssets)
	})

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging returns middleware that logs every request with its
// caller and outcome.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("account", r.Header.Get(AccountHeader)),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

type callerKey struct{}

// callerIdentity stores the X-Account header in the request context.
func callerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := domain.ParseAddress(r.Header.Get(AccountHeader))
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Caller returns the identity of the account making the request, or the
// zero address when none was given.
func Caller(r *http.Request) domain.Address {
	caller, _ := r.Context().Value(callerKey{}).(domain.Address)
	return caller
}

// requireCaller writes 401 and returns false when the request carries no
// account identity.
func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	caller := Caller(r)
	if caller.IsZero() {
		WriteError(w, http.StatusUnauthorized, "missing_account", AccountHeader+" header is required")
		return domain.ZeroAddress, false
	}
	return caller, true
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests that carry a body. If the Content-Type header doesn't start
// with "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
