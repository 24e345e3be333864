package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostFormValue("client_secret") != "good-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-abc",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func TestTokenManagerFetchesAndCaches(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	mgr := NewTokenManager(srv.Client(), srv.URL, "client-id", "good-secret", "")

	token, err := mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)

	_, err = mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call should hit the cache")
}

func TestTokenManagerInvalidate(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	mgr := NewTokenManager(srv.Client(), srv.URL, "client-id", "good-secret", "")

	_, err := mgr.Token(context.Background())
	require.NoError(t, err)

	mgr.Invalidate()
	_, err = mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenManagerBadCredentials(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	mgr := NewTokenManager(srv.Client(), srv.URL, "client-id", "bad-secret", "")

	_, err := mgr.Token(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}
