package vrf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
)

func TestHTTPCoordinatorRequestRandomWords(t *testing.T) {
	ctx := context.Background()
	req := RandomWordsRequest{
		KeyHash:              "0xabc",
		SubscriptionID:       7,
		RequestConfirmations: 3,
		CallbackGasLimit:     500_000,
		NumWords:             1,
	}

	t.Run("posts routing parameters and returns the request id", func(t *testing.T) {
		var got randomWordsRequestBody
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/requests", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-77"})
		}))
		defer srv.Close()

		id, err := NewHTTPCoordinator(srv.URL, "secret").RequestRandomWords(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestID("req-77"), id)
		assert.Equal(t, "0xabc", got.KeyHash)
		assert.Equal(t, uint64(7), got.SubscriptionID)
		assert.Equal(t, uint16(3), got.RequestConfirmations)
		assert.Equal(t, uint32(1), got.NumWords)
	})

	t.Run("omits the authorization header without a token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-1"})
		}))
		defer srv.Close()

		_, err := NewHTTPCoordinator(srv.URL, "").RequestRandomWords(ctx, req)
		require.NoError(t, err)
	})

	t.Run("rejection status maps to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "subscription unfunded", http.StatusPaymentRequired)
		}))
		defer srv.Close()

		_, err := NewHTTPCoordinator(srv.URL, "").RequestRandomWords(ctx, req)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
	})

	t.Run("unreachable coordinator maps to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := NewHTTPCoordinator(srv.URL, "").RequestRandomWords(ctx, req)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
	})

	t.Run("missing request id is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer srv.Close()

		_, err := NewHTTPCoordinator(srv.URL, "").RequestRandomWords(ctx, req)
		require.Error(t, err)
	})
}
