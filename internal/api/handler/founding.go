package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quotekit/quotekit/internal/api/middleware"
	"github.com/quotekit/quotekit/internal/api/response"
	"github.com/quotekit/quotekit/internal/api/validation"
	"github.com/quotekit/quotekit/internal/founding"
)

// FoundingService is the founding-member service as seen by the HTTP layer.
type FoundingService interface {
	CalculateFoundingDiscount(ctx context.Context, customerID string, amountCents int64) (founding.Discount, error)
	ApplyFoundingDiscount(ctx context.Context, customerID, jobID string, d founding.Discount) founding.ApplyResult
	LinkFoundingMember(ctx context.Context, userID, email string) (bool, error)
	Status(ctx context.Context, customerID string) (*founding.Status, error)
	Ledger(ctx context.Context, customerID string) ([]founding.LedgerEntry, error)
}

// discountBody is the JSON form of founding.Discount. Amounts are cents.
type discountBody struct {
	IsFoundingMember bool  `json:"isFoundingMember"`
	JobNumber        int   `json:"jobNumber"`
	OriginalAmount   int64 `json:"originalAmount"`
	CreditApplied    int64 `json:"creditApplied"`
	DiscountPercent  int64 `json:"discountPercent"`
	DiscountAmount   int64 `json:"discountAmount"`
	TotalSavings     int64 `json:"totalSavings"`
	FinalAmount      int64 `json:"finalAmount"`
}

func toDiscountBody(d founding.Discount) discountBody {
	return discountBody(d)
}

func (b discountBody) discount() founding.Discount {
	return founding.Discount(b)
}

// applyRequest is the request body for POST /v1/founding/{customerId}/applications.
type applyRequest struct {
	JobID    string       `json:"jobId"`
	Discount discountBody `json:"discount"`
}

type applyResponse struct {
	Status          string `json:"status"`
	CustomerID      string `json:"customerId"`
	JobID           string `json:"jobId"`
	CreditRemaining int64  `json:"creditRemaining"`
	JobsUsed        int    `json:"jobsUsed"`
}

// linkRequest is the request body for POST /v1/founding/links.
type linkRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type linkResponse struct {
	Linked bool `json:"linked"`
}

type ledgerEntryResponse struct {
	ID                string `json:"id"`
	JobID             string `json:"jobId"`
	CreditApplied     int64  `json:"creditApplied"`
	DiscountPercent   int64  `json:"discountPercent"`
	DiscountAmount    int64  `json:"discountAmount"`
	TotalSavings      int64  `json:"totalSavings"`
	FoundingJobsCount int    `json:"foundingJobsCount"`
	CreatedAt         string `json:"createdAt"`
}

type statusResponse struct {
	CustomerID            string                `json:"customerId"`
	IsFoundingMember      bool                  `json:"isFoundingMember"`
	Phase                 string                `json:"phase"`
	CreditRemaining       int64                 `json:"creditRemaining"`
	JobsUsed              int                   `json:"jobsUsed"`
	DiscountJobsRemaining int                   `json:"discountJobsRemaining"`
	Ledger                []ledgerEntryResponse `json:"ledger"`
}

func toStatusResponse(st *founding.Status, entries []founding.LedgerEntry) statusResponse {
	ledger := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		ledger = append(ledger, ledgerEntryResponse{
			ID:                e.ID.String(),
			JobID:             e.JobID,
			CreditApplied:     e.CreditApplied,
			DiscountPercent:   e.DiscountPercent,
			DiscountAmount:    e.DiscountAmount,
			TotalSavings:      e.TotalSavings,
			FoundingJobsCount: e.FoundingJobsCount,
			CreatedAt:         e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return statusResponse{
		CustomerID:            st.CustomerID,
		IsFoundingMember:      st.IsFoundingMember,
		Phase:                 st.Phase.String(),
		CreditRemaining:       max(0, st.CreditRemaining),
		JobsUsed:              st.JobsUsed,
		DiscountJobsRemaining: st.DiscountJobsRemaining,
		Ledger:                ledger,
	}
}

// FoundingHandler handles the founding-member endpoints.
type FoundingHandler struct {
	svc FoundingService
}

// NewFoundingHandler creates a new FoundingHandler.
func NewFoundingHandler(svc FoundingService) *FoundingHandler {
	return &FoundingHandler{svc: svc}
}

func customerIDParam(w http.ResponseWriter, r *http.Request, requestID string) (string, bool) {
	customerID := strings.TrimSpace(chi.URLParam(r, "customerId"))
	if fieldErrors := validation.ValidateCustomerID(customerID); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return "", false
	}
	return customerID, true
}

// Discount handles GET /v1/founding/{customerId}/discount?amountCents=.
func (h *FoundingHandler) Discount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := customerIDParam(w, r, requestID)
	if !ok {
		return
	}

	amount, err := strconv.ParseInt(r.URL.Query().Get("amountCents"), 10, 64)
	if err != nil {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed",
			[]validation.FieldError{{Field: "amountCents", Message: "amountCents must be a non-negative integer"}},
			requestID)
		return
	}
	if errs := validation.ValidateAmountCents("amountCents", amount); len(errs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", errs, requestID)
		return
	}

	d, err := h.svc.CalculateFoundingDiscount(r.Context(), customerID, amount)
	if err != nil {
		slog.Error("failed to calculate founding discount", "error", err, "customerId", customerID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to calculate founding discount", requestID)
		return
	}

	response.Success(w, http.StatusOK, toDiscountBody(d), requestID)
}

// Apply handles POST /v1/founding/{customerId}/applications. It is called
// after payment succeeded, so bookkeeping failures answer 202 rather than an
// error status.
func (h *FoundingHandler) Apply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := customerIDParam(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)

	fieldErrors := validation.ValidateApplyDiscountRequest(validation.ApplyDiscountRequest{
		JobID:          req.JobID,
		OriginalAmount: req.Discount.OriginalAmount,
		CreditApplied:  req.Discount.CreditApplied,
		DiscountAmount: req.Discount.DiscountAmount,
		TotalSavings:   req.Discount.TotalSavings,
		FinalAmount:    req.Discount.FinalAmount,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	result := h.svc.ApplyFoundingDiscount(r.Context(), customerID, req.JobID, req.Discount.discount())

	status := http.StatusOK
	if result.NeedsReconciliation() {
		status = http.StatusAccepted
	}
	response.Success(w, status, applyResponse{
		Status:          string(result.Status),
		CustomerID:      result.CustomerID,
		JobID:           result.JobID,
		CreditRemaining: result.CreditRemaining,
		JobsUsed:        result.JobsUsed,
	}, requestID)
}

// Link handles POST /v1/founding/links.
func (h *FoundingHandler) Link(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)

	if fieldErrors := validation.ValidateLinkRequest(req.UserID, req.Email); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	linked, err := h.svc.LinkFoundingMember(r.Context(), req.UserID, req.Email)
	if err != nil {
		slog.Error("failed to link founding member", "error", err, "userId", req.UserID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to link founding member", requestID)
		return
	}

	response.Success(w, http.StatusOK, linkResponse{Linked: linked}, requestID)
}

// Status handles GET /v1/founding/{customerId}.
func (h *FoundingHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := customerIDParam(w, r, requestID)
	if !ok {
		return
	}

	st, err := h.svc.Status(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, founding.ErrCustomerNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Customer not found", requestID)
			return
		}
		slog.Error("failed to load founding status", "error", err, "customerId", customerID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to load founding status", requestID)
		return
	}

	entries, err := h.svc.Ledger(r.Context(), customerID)
	if err != nil {
		slog.Error("failed to load founding ledger", "error", err, "customerId", customerID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to load founding status", requestID)
		return
	}

	response.Success(w, http.StatusOK, toStatusResponse(st, entries), requestID)
}
