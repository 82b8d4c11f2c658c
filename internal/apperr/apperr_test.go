package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NotFound("engine %s not found", "e1"), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", Duplicate("registration HS-ABC already exists"), http.StatusBadRequest, "DUPLICATE_KEY"},
		{"validation", Invalid("flight_hours must be >= 0"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"too large", Payload(&http.MaxBytesError{Limit: 100 << 10}), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"bad payload", Payload(errors.New("unexpected EOF")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"aggregation", Aggregation(errors.New("db down"), "saved"), http.StatusInternalServerError, "AGGREGATION_FAILURE"},
		{"wrapped", fmt.Errorf("create: %w", NotFound("x")), http.StatusNotFound, "NOT_FOUND"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Status(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestAggregationUnwrapsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Aggregation(cause, "record saved")
	assert.ErrorIs(t, err, ErrAggregation)
	assert.ErrorIs(t, err, cause)
}

func TestMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "engine e1 not found", Message(NotFound("engine %s not found", "e1"), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("pq: connection refused"), "fallback"))
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, zap.NewNop().Sugar(), Duplicate("registration %s already exists", "HS-TGA"), "create failed")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "registration HS-TGA already exists", body["message"])
	assert.Equal(t, "DUPLICATE_KEY", body["error"])
}

func TestPathUUID(t *testing.T) {
	mux := http.NewServeMux()
	var got string
	var gotErr error
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathUUID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/0b7e7c1e-8f5c-4c7a-9a41-6b0f3d1e2a11", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "0b7e7c1e-8f5c-4c7a-9a41-6b0f3d1e2a11", got)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/42", nil))
	assert.ErrorIs(t, gotErr, ErrValidation)
}
