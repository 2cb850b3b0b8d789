package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/quotekit/quotekit/internal/founding"
	"github.com/quotekit/quotekit/internal/pricing"
)

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseEnvelope(t, w)["error"].(map[string]any)
	require.True(t, ok, "expected an error object")
	return errObj["code"].(string)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// --- Mocks ---

type mockPricingService struct {
	getQuoteFn             func(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.QuoteResult, error)
	getServicePricingFn    func(ctx context.Context, serviceType string) ([]pricing.ServiceTier, error)
	getAllPricingFn        func(ctx context.Context) (map[string][]pricing.ServiceTier, error)
	getBundleDiscountFn    func(ctx context.Context, serviceTypes []string) (*pricing.BundleEstimate, error)
	getGuaranteedCeilingFn func(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.CeilingQuote, error)
}

func (m *mockPricingService) GetQuote(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.QuoteResult, error) {
	return m.getQuoteFn(ctx, serviceType, opts)
}

func (m *mockPricingService) GetServicePricing(ctx context.Context, serviceType string) ([]pricing.ServiceTier, error) {
	return m.getServicePricingFn(ctx, serviceType)
}

func (m *mockPricingService) GetAllPricing(ctx context.Context) (map[string][]pricing.ServiceTier, error) {
	return m.getAllPricingFn(ctx)
}

func (m *mockPricingService) GetBundleDiscount(ctx context.Context, serviceTypes []string) (*pricing.BundleEstimate, error) {
	return m.getBundleDiscountFn(ctx, serviceTypes)
}

func (m *mockPricingService) GetGuaranteedCeiling(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.CeilingQuote, error) {
	return m.getGuaranteedCeilingFn(ctx, serviceType, opts)
}

type mockFoundingService struct {
	calculateFn func(ctx context.Context, customerID string, amountCents int64) (founding.Discount, error)
	applyFn     func(ctx context.Context, customerID, jobID string, d founding.Discount) founding.ApplyResult
	linkFn      func(ctx context.Context, userID, email string) (bool, error)
	statusFn    func(ctx context.Context, customerID string) (*founding.Status, error)
	ledgerFn    func(ctx context.Context, customerID string) ([]founding.LedgerEntry, error)
}

func (m *mockFoundingService) CalculateFoundingDiscount(ctx context.Context, customerID string, amountCents int64) (founding.Discount, error) {
	return m.calculateFn(ctx, customerID, amountCents)
}

func (m *mockFoundingService) ApplyFoundingDiscount(ctx context.Context, customerID, jobID string, d founding.Discount) founding.ApplyResult {
	return m.applyFn(ctx, customerID, jobID, d)
}

func (m *mockFoundingService) LinkFoundingMember(ctx context.Context, userID, email string) (bool, error) {
	return m.linkFn(ctx, userID, email)
}

func (m *mockFoundingService) Status(ctx context.Context, customerID string) (*founding.Status, error) {
	return m.statusFn(ctx, customerID)
}

func (m *mockFoundingService) Ledger(ctx context.Context, customerID string) ([]founding.LedgerEntry, error) {
	return m.ledgerFn(ctx, customerID)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}
