package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quotekit/quotekit/internal/api/middleware"
	"github.com/quotekit/quotekit/internal/api/response"
	"github.com/quotekit/quotekit/internal/api/validation"
	"github.com/quotekit/quotekit/internal/metrics"
	"github.com/quotekit/quotekit/internal/pricing"
	"github.com/quotekit/quotekit/internal/quotelock"
)

// PricingService is the pricing engine as seen by the HTTP layer.
type PricingService interface {
	GetQuote(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.QuoteResult, error)
	GetServicePricing(ctx context.Context, serviceType string) ([]pricing.ServiceTier, error)
	GetAllPricing(ctx context.Context) (map[string][]pricing.ServiceTier, error)
	GetBundleDiscount(ctx context.Context, serviceTypes []string) (*pricing.BundleEstimate, error)
	GetGuaranteedCeiling(ctx context.Context, serviceType string, opts pricing.QuoteOptions) (*pricing.CeilingQuote, error)
}

// CeilingStore persists issued ceilings so later amounts can be checked.
type CeilingStore interface {
	Save(ctx context.Context, lock quotelock.Lock) error
	Get(ctx context.Context, quoteID string) (*quotelock.Lock, error)
	Validate(ctx context.Context, quoteID string, amount decimal.Decimal) (*quotelock.Lock, error)
}

// quoteRequest is the request body for POST /v1/quotes and POST /v1/quotes/ceilings.
type quoteRequest struct {
	ServiceType string           `json:"serviceType"`
	Size        string           `json:"size"`
	Scope       string           `json:"scope"`
	Zip         string           `json:"zip"`
	IsRush      bool             `json:"isRush"`
	IsSeasonal  *bool            `json:"isSeasonal"`
	BundledWith []string         `json:"bundledWith"`
	Rooms       *decimal.Decimal `json:"rooms"`
	Hours       *decimal.Decimal `json:"hours"`
	Sqft        *decimal.Decimal `json:"sqft"`
}

func (q quoteRequest) options() pricing.QuoteOptions {
	return pricing.QuoteOptions{
		Size:        q.Size,
		Scope:       q.Scope,
		Zip:         q.Zip,
		IsRush:      q.IsRush,
		IsSeasonal:  q.IsSeasonal,
		BundledWith: q.BundledWith,
		Rooms:       q.Rooms,
		Hours:       q.Hours,
		Sqft:        q.Sqft,
	}
}

// ceilingCheckRequest is the request body for POST /v1/quotes/ceilings/{quoteId}/validate.
type ceilingCheckRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type ceilingResponse struct {
	QuoteID     string  `json:"quoteId"`
	ServiceType string  `json:"serviceType"`
	Ceiling     float64 `json:"ceiling"`
	ValidUntil  string  `json:"validUntil"`
	Locked      bool    `json:"locked"`
}

type ceilingCheckResponse struct {
	QuoteID  string  `json:"quoteId"`
	Amount   float64 `json:"amount"`
	Ceiling  float64 `json:"ceiling"`
	Honoured bool    `json:"honoured"`
}

func toCeilingResponse(l quotelock.Lock, locked bool) ceilingResponse {
	return ceilingResponse{
		QuoteID:     l.QuoteID,
		ServiceType: l.ServiceType,
		Ceiling:     money(l.Ceiling),
		ValidUntil:  l.ValidUntil.UTC().Format(time.RFC3339),
		Locked:      locked,
	}
}

// QuoteHandler handles quote and guaranteed-ceiling endpoints.
type QuoteHandler struct {
	svc   PricingService
	locks CeilingStore
}

// NewQuoteHandler creates a new QuoteHandler. locks may be nil, in which case
// ceilings are issued without being stored.
func NewQuoteHandler(svc PricingService, locks CeilingStore) *QuoteHandler {
	return &QuoteHandler{svc: svc, locks: locks}
}

// decodeQuoteRequest reads and validates a quote body. It writes the error
// response and returns false when the request is unusable.
func decodeQuoteRequest(w http.ResponseWriter, r *http.Request, requestID string) (quoteRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return req, false
	}

	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.Zip = strings.TrimSpace(req.Zip)

	fieldErrors := validation.ValidateQuoteRequest(validation.QuoteRequest{
		ServiceType: req.ServiceType,
		Size:        req.Size,
		Scope:       req.Scope,
		Zip:         req.Zip,
		BundledWith: req.BundledWith,
		Rooms:       req.Rooms,
		Hours:       req.Hours,
		Sqft:        req.Sqft,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return req, false
	}
	return req, true
}

// writeQuoteError maps engine errors to responses.
func writeQuoteError(w http.ResponseWriter, err error, serviceType, requestID, failMessage string) {
	switch {
	case errors.Is(err, pricing.ErrPricingNotFound):
		metrics.QuotesComputed.WithLabelValues("unknown", "not_found").Inc()
		response.Err(w, http.StatusNotFound, response.CodePricingNotFound, err.Error(), requestID)
	case errors.Is(err, pricing.ErrInvalidServiceType):
		response.Err(w, http.StatusBadRequest, response.CodeValidation, err.Error(), requestID)
	default:
		metrics.QuotesComputed.WithLabelValues(serviceType, "error").Inc()
		slog.Error("quote computation failed", "error", err, "serviceType", serviceType, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, failMessage, requestID)
	}
}

// Quote handles POST /v1/quotes.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	req, ok := decodeQuoteRequest(w, r, requestID)
	if !ok {
		return
	}

	quote, err := h.svc.GetQuote(r.Context(), req.ServiceType, req.options())
	if err != nil {
		writeQuoteError(w, err, req.ServiceType, requestID, "Failed to compute quote")
		return
	}

	metrics.QuotesComputed.WithLabelValues(req.ServiceType, "ok").Inc()
	response.Success(w, http.StatusOK, toQuoteResponse(quote), requestID)
}

// IssueCeiling handles POST /v1/quotes/ceilings.
func (h *QuoteHandler) IssueCeiling(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	req, ok := decodeQuoteRequest(w, r, requestID)
	if !ok {
		return
	}

	ceiling, err := h.svc.GetGuaranteedCeiling(r.Context(), req.ServiceType, req.options())
	if err != nil {
		writeQuoteError(w, err, req.ServiceType, requestID, "Failed to issue guaranteed ceiling")
		return
	}
	metrics.QuotesComputed.WithLabelValues(req.ServiceType, "ok").Inc()
	metrics.CeilingsIssued.Inc()

	lock := quotelock.FromQuote(ceiling)
	locked := false
	if h.locks != nil {
		if err := h.locks.Save(r.Context(), lock); err != nil {
			// The ceiling is still returned; it just cannot be looked up later.
			slog.Error("failed to store guaranteed ceiling", "error", err, "quoteId", ceiling.QuoteID, "requestId", requestID)
		} else {
			locked = true
		}
	}

	response.Success(w, http.StatusCreated, toCeilingResponse(lock, locked), requestID)
}

// GetCeiling handles GET /v1/quotes/ceilings/{quoteId}.
func (h *QuoteHandler) GetCeiling(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.locks == nil {
		response.Err(w, http.StatusServiceUnavailable, response.CodeUnavailable, "Ceiling lookup is not enabled", requestID)
		return
	}

	quoteID := chi.URLParam(r, "quoteId")
	lock, err := h.locks.Get(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, quotelock.ErrNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Ceiling quote not found or expired", requestID)
			return
		}
		slog.Error("failed to load guaranteed ceiling", "error", err, "quoteId", quoteID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to load guaranteed ceiling", requestID)
		return
	}

	response.Success(w, http.StatusOK, toCeilingResponse(*lock, true), requestID)
}

// ValidateCeiling handles POST /v1/quotes/ceilings/{quoteId}/validate.
func (h *QuoteHandler) ValidateCeiling(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.locks == nil {
		response.Err(w, http.StatusServiceUnavailable, response.CodeUnavailable, "Ceiling lookup is not enabled", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ceilingCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}
	if fieldErrors := validation.ValidateCeilingCheckRequest(req.Amount); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	quoteID := chi.URLParam(r, "quoteId")
	lock, err := h.locks.Validate(r.Context(), quoteID, *req.Amount)
	switch {
	case err == nil:
		response.Success(w, http.StatusOK, ceilingCheckResponse{
			QuoteID:  quoteID,
			Amount:   money(*req.Amount),
			Ceiling:  money(lock.Ceiling),
			Honoured: true,
		}, requestID)
	case errors.Is(err, quotelock.ErrCeilingExceeded):
		response.ErrWithDetails(w, http.StatusConflict, response.CodeCeilingExceeded, "Amount exceeds the guaranteed ceiling",
			ceilingCheckResponse{
				QuoteID: quoteID,
				Amount:  money(*req.Amount),
				Ceiling: money(lock.Ceiling),
			}, requestID)
	case errors.Is(err, quotelock.ErrNotFound):
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Ceiling quote not found or expired", requestID)
	default:
		slog.Error("failed to validate guaranteed ceiling", "error", err, "quoteId", quoteID, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to validate guaranteed ceiling", requestID)
	}
}
