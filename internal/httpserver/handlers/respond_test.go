package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haat/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindTokenExpired, http.StatusUnauthorized},
		{apperr.KindRevokedOrInvalid, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindInvalidTransition, http.StatusConflict},
		{apperr.KindInsufficientStock, http.StatusConflict},
		{apperr.KindDeliveryFailed, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.kind))
		})
	}
}

func TestErrorWriterHidesInternalDetail(t *testing.T) {
	write := ErrorWriter(zap.NewNop().Sugar())

	rr := httptest.NewRecorder()
	write(rr, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")

	rr = httptest.NewRecorder()
	write(rr, httptest.NewRequest(http.MethodGet, "/x", nil), apperr.NotFound("order %s not found", "HT1"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"]["code"])
	assert.Equal(t, "order HT1 not found", body["error"]["message"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ A int }
	rr := httptest.NewRecorder()
	err := decodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &v)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = decodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad")), &v)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	require.NoError(t, decodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}`)), &v))
	assert.Equal(t, 3, v.A)
}
