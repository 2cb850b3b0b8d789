package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quotekit/quotekit/internal/api/middleware"
	"github.com/quotekit/quotekit/internal/api/response"
	"github.com/quotekit/quotekit/internal/api/validation"
)

// bundleEstimateRequest is the request body for POST /v1/bundles/estimate.
type bundleEstimateRequest struct {
	ServiceTypes []string `json:"serviceTypes"`
}

// PricingHandler handles the price listing and bundle estimate endpoints.
type PricingHandler struct {
	svc PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// ListAll handles GET /v1/pricing.
func (h *PricingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	menu, err := h.svc.GetAllPricing(r.Context())
	if err != nil {
		slog.Error("failed to list pricing", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to list pricing", requestID)
		return
	}

	data := make(map[string][]serviceTierResponse, len(menu))
	for svc, tiers := range menu {
		data[svc] = toServiceTierResponses(tiers)
	}
	response.SuccessList(w, http.StatusOK, data, len(data), requestID)
}

// ListService handles GET /v1/pricing/{serviceType}.
func (h *PricingHandler) ListService(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	serviceType := chi.URLParam(r, "serviceType")
	if !validation.ServiceTypeRegex.MatchString(serviceType) {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed",
			[]validation.FieldError{{Field: "serviceType", Message: "serviceType must be lowercase letters, digits and underscores, 2-64 characters"}},
			requestID)
		return
	}

	tiers, err := h.svc.GetServicePricing(r.Context(), serviceType)
	if err != nil {
		slog.Error("failed to list service pricing", "error", err, "serviceType", serviceType, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to list service pricing", requestID)
		return
	}

	response.SuccessList(w, http.StatusOK, toServiceTierResponses(tiers), len(tiers), requestID)
}

// EstimateBundle handles POST /v1/bundles/estimate.
func (h *PricingHandler) EstimateBundle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req bundleEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}
	for i := range req.ServiceTypes {
		req.ServiceTypes[i] = strings.TrimSpace(req.ServiceTypes[i])
	}

	if fieldErrors := validation.ValidateBundleEstimateRequest(req.ServiceTypes); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	estimate, err := h.svc.GetBundleDiscount(r.Context(), req.ServiceTypes)
	if err != nil {
		slog.Error("failed to estimate bundle", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to estimate bundle discount", requestID)
		return
	}

	response.Success(w, http.StatusOK, toBundleEstimateResponse(estimate), requestID)
}
