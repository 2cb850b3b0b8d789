package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotekit/quotekit/internal/api/response"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestNewMeta_GeneratesUUID(t *testing.T) {
	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err, "requestId should be a valid UUID")
}

func TestNewMeta_UsesProvidedRequestID(t *testing.T) {
	meta := response.NewMeta("my-custom-request-id")

	assert.Equal(t, "my-custom-request-id", meta.RequestID)
}

func TestNewMeta_TimestampIsRFC3339(t *testing.T) {
	before := time.Now().UTC().Add(-1 * time.Second)

	meta := response.NewMeta("")

	parsed, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err, "timestamp should be valid RFC3339")
	assert.False(t, parsed.Before(before), "timestamp should be recent")
}

func TestSuccess_WritesCorrectEnvelope(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	response.Success(w, http.StatusOK, map[string]string{"key": "value"}, "test-req-id")

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	env := decode(t, w)
	assert.NotNil(t, env["data"])
	assert.Nil(t, env["error"])

	meta := env["meta"].(map[string]any)
	assert.Equal(t, "test-req-id", meta["requestId"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestSuccessList_IncludesTotal(t *testing.T) {
	w := httptest.NewRecorder()

	response.SuccessList(w, http.StatusOK, []string{"a", "b"}, 2, "list-req")

	env := decode(t, w)
	assert.Len(t, env["data"], 2)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, "list-req", meta["requestId"])
}

func TestErr_WritesErrorEnvelope(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	response.Err(w, http.StatusNotFound, response.CodePricingNotFound, "no pricing found for service: x", "err-req-id")

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)

	env := decode(t, w)
	assert.Nil(t, env["data"])

	apiErr := env["error"].(map[string]any)
	assert.Equal(t, "PRICING_NOT_FOUND", apiErr["code"])
	assert.Equal(t, "no pricing found for service: x", apiErr["message"])
	_, hasDetails := apiErr["details"]
	assert.False(t, hasDetails)
}

func TestErrWithDetails_IncludesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	details := []map[string]string{{"field": "serviceType", "message": "is required"}}

	response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", details, "det-req")

	env := decode(t, w)
	apiErr := env["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])

	det := apiErr["details"].([]any)
	require.Len(t, det, 1)
	assert.Equal(t, "serviceType", det[0].(map[string]any)["field"])
}

func TestJSON_SetsContentTypeAndStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusAccepted, http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			w := httptest.NewRecorder()

			response.JSON(w, status, response.Envelope{Meta: response.NewMeta("")})

			assert.Equal(t, status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}
