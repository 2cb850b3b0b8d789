package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotekit/quotekit/internal/api/handler"
	"github.com/quotekit/quotekit/internal/founding"
)

var customerParams = map[string]string{"customerId": "cust-1"}

func firstJobDiscount() founding.Discount {
	return founding.Discount{
		IsFoundingMember: true,
		JobNumber:        1,
		OriginalAmount:   10000,
		CreditApplied:    2500,
		DiscountPercent:  10,
		DiscountAmount:   750,
		TotalSavings:     3250,
		FinalAmount:      6750,
	}
}

// ===== GET /v1/founding/{customerId}/discount =====

func TestFoundingDiscount_Success(t *testing.T) {
	t.Parallel()

	svc := &mockFoundingService{
		calculateFn: func(_ context.Context, customerID string, amountCents int64) (founding.Discount, error) {
			assert.Equal(t, "cust-1", customerID)
			assert.Equal(t, int64(10000), amountCents)
			return firstJobDiscount(), nil
		},
	}
	h := handler.NewFoundingHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1/discount?amountCents=10000", nil, customerParams)
	h.Discount(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["isFoundingMember"])
	assert.Equal(t, float64(2500), data["creditApplied"])
	assert.Equal(t, float64(750), data["discountAmount"])
	assert.Equal(t, float64(3250), data["totalSavings"])
	assert.Equal(t, float64(6750), data["finalAmount"])
}

func TestFoundingDiscount_BadAmount(t *testing.T) {
	t.Parallel()

	h := handler.NewFoundingHandler(&mockFoundingService{})

	for _, q := range []string{"", "?amountCents=abc", "?amountCents=-1", "?amountCents=12.5", "?amountCents=1000000000000000000"} {
		req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1/discount"+q, nil, customerParams)
		h.Discount(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w), q)
	}
}

func TestFoundingDiscount_ServiceError(t *testing.T) {
	t.Parallel()

	svc := &mockFoundingService{
		calculateFn: func(context.Context, string, int64) (founding.Discount, error) {
			return founding.Discount{}, errors.New("db down")
		},
	}
	h := handler.NewFoundingHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1/discount?amountCents=100", nil, customerParams)
	h.Discount(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ===== POST /v1/founding/{customerId}/applications =====

func TestFoundingApply_Statuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     founding.ApplyResult
		wantStatus int
	}{
		{
			name:       "applied",
			result:     founding.ApplyResult{Status: founding.StatusApplied, CreditRemaining: 0, JobsUsed: 1},
			wantStatus: http.StatusOK,
		},
		{
			name:       "already applied",
			result:     founding.ApplyResult{Status: founding.StatusAlreadyApplied},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not applicable",
			result:     founding.ApplyResult{Status: founding.StatusNotApplicable},
			wantStatus: http.StatusOK,
		},
		{
			name:       "reconciliation needed",
			result:     founding.ApplyResult{Status: founding.StatusReconciliationNeeded, Err: errors.New("deadlock detected")},
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDiscount founding.Discount
			svc := &mockFoundingService{
				applyFn: func(_ context.Context, customerID, jobID string, d founding.Discount) founding.ApplyResult {
					gotDiscount = d
					r := tt.result
					r.CustomerID, r.JobID = customerID, jobID
					return r
				},
			}
			h := handler.NewFoundingHandler(svc)

			body := mustJSON(t, map[string]any{
				"jobId": "job-1",
				"discount": map[string]any{
					"isFoundingMember": true,
					"jobNumber":        1,
					"originalAmount":   10000,
					"creditApplied":    2500,
					"discountPercent":  10,
					"discountAmount":   750,
					"totalSavings":     3250,
					"finalAmount":      6750,
				},
			})
			req, w := makeChiRequest(http.MethodPost, "/v1/founding/cust-1/applications", body, customerParams)
			h.Apply(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, firstJobDiscount(), gotDiscount)

			data := parseEnvelope(t, w)["data"].(map[string]any)
			assert.Equal(t, string(tt.result.Status), data["status"])
			assert.Equal(t, "cust-1", data["customerId"])
			assert.Equal(t, "job-1", data["jobId"])
			assert.NotContains(t, w.Body.String(), "deadlock")
		})
	}
}

func TestFoundingApply_ValidationError(t *testing.T) {
	t.Parallel()

	h := handler.NewFoundingHandler(&mockFoundingService{})

	body := []byte(`{"jobId":"","discount":{"originalAmount":100,"creditApplied":50,"discountAmount":5,"totalSavings":40,"finalAmount":60}}`)
	req, w := makeChiRequest(http.MethodPost, "/v1/founding/cust-1/applications", body, customerParams)
	h.Apply(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := parseEnvelope(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Len(t, errObj["details"], 2)
}

func TestFoundingApply_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := handler.NewFoundingHandler(&mockFoundingService{})

	req, w := makeChiRequest(http.MethodPost, "/v1/founding/cust-1/applications", []byte(`nope`), customerParams)
	h.Apply(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, w))
}

func TestFoundingApply_MissingCustomer(t *testing.T) {
	t.Parallel()

	h := handler.NewFoundingHandler(&mockFoundingService{})

	req, w := makeChiRequest(http.MethodPost, "/v1/founding//applications", []byte(`{}`), map[string]string{"customerId": " "})
	h.Apply(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

// ===== POST /v1/founding/links =====

func TestFoundingLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		linkFn     func(ctx context.Context, userID, email string) (bool, error)
		wantStatus int
		wantLinked bool
		wantCode   string
	}{
		{
			name: "linked",
			body: `{"userId":"user-1","email":"member@example.com"}`,
			linkFn: func(_ context.Context, userID, email string) (bool, error) {
				return userID == "user-1" && email == "member@example.com", nil
			},
			wantStatus: http.StatusOK,
			wantLinked: true,
		},
		{
			name:       "nothing to link",
			body:       `{"userId":"user-1","email":"member@example.com"}`,
			linkFn:     func(context.Context, string, string) (bool, error) { return false, nil },
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid email",
			body:       `{"userId":"user-1","email":"nope"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "store failure",
			body:       `{"userId":"user-1","email":"member@example.com"}`,
			linkFn:     func(context.Context, string, string) (bool, error) { return false, errors.New("tx aborted") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewFoundingHandler(&mockFoundingService{linkFn: tt.linkFn})

			req, w := makeChiRequest(http.MethodPost, "/v1/founding/links", []byte(tt.body), nil)
			h.Link(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				return
			}
			data := parseEnvelope(t, w)["data"].(map[string]any)
			assert.Equal(t, tt.wantLinked, data["linked"])
		})
	}
}

// ===== GET /v1/founding/{customerId} =====

func TestFoundingStatus_Success(t *testing.T) {
	t.Parallel()

	entryID := uuid.New()
	createdAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockFoundingService{
		statusFn: func(_ context.Context, customerID string) (*founding.Status, error) {
			return &founding.Status{
				AccountState:          founding.AccountState{CustomerID: customerID, IsFoundingMember: true, CreditRemaining: 0, JobsUsed: 1},
				Phase:                 founding.PhaseActive,
				DiscountJobsRemaining: 9,
			}, nil
		},
		ledgerFn: func(_ context.Context, customerID string) ([]founding.LedgerEntry, error) {
			return []founding.LedgerEntry{{
				ID:                entryID,
				CustomerID:        customerID,
				JobID:             "job-1",
				CreditApplied:     2500,
				DiscountPercent:   10,
				DiscountAmount:    750,
				TotalSavings:      3250,
				FoundingJobsCount: 1,
				CreatedAt:         createdAt,
			}}, nil
		},
	}
	h := handler.NewFoundingHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1", nil, customerParams)
	h.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "active", data["phase"])
	assert.Equal(t, float64(9), data["discountJobsRemaining"])

	ledger := data["ledger"].([]any)
	require.Len(t, ledger, 1)
	entry := ledger[0].(map[string]any)
	assert.Equal(t, entryID.String(), entry["id"])
	assert.Equal(t, "2026-03-01T12:00:00Z", entry["createdAt"])
}

func TestFoundingStatus_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockFoundingService{
		statusFn: func(context.Context, string) (*founding.Status, error) {
			return nil, founding.ErrCustomerNotFound
		},
	}
	h := handler.NewFoundingHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1", nil, customerParams)
	h.Status(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestFoundingStatus_LedgerError(t *testing.T) {
	t.Parallel()

	svc := &mockFoundingService{
		statusFn: func(_ context.Context, customerID string) (*founding.Status, error) {
			return &founding.Status{AccountState: founding.AccountState{CustomerID: customerID}}, nil
		},
		ledgerFn: func(context.Context, string) ([]founding.LedgerEntry, error) {
			return nil, errors.New("timeout")
		},
	}
	h := handler.NewFoundingHandler(svc)

	req, w := makeChiRequest(http.MethodGet, "/v1/founding/cust-1", nil, customerParams)
	h.Status(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
