package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotekit/quotekit/internal/api/middleware"
	"github.com/quotekit/quotekit/internal/servicekey"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type mockVerifier struct {
	verifyFn func(rawKey string) error
}

func (m *mockVerifier) Verify(rawKey string) error {
	return m.verifyFn(rawKey)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env["error"].(map[string]any)["code"].(string)
}

func TestServiceKey_ValidKey(t *testing.T) {
	// Arrange
	raw, hash, err := servicekey.Generate(bcrypt.MinCost)
	require.NoError(t, err)
	v, err := servicekey.NewVerifier(hash)
	require.NoError(t, err)

	handler := middleware.ServiceKey(v)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/founding/cust-1", nil)
	req.Header.Set("X-API-Key", raw)
	w := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServiceKey_Rejections(t *testing.T) {
	_, hash, err := servicekey.Generate(bcrypt.MinCost)
	require.NoError(t, err)
	v, err := servicekey.NewVerifier(hash)
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		message string
	}{
		{"missing key", "", "API key is required"},
		{"wrong key", "qk_not-the-right-key", "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.ServiceKey(v)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/v1/founding/cust-1", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestServiceKey_VerifierFailure(t *testing.T) {
	v := &mockVerifier{verifyFn: func(string) error { return errors.New("hash store unavailable") }}
	handler := middleware.ServiceKey(v)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "anything")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}
