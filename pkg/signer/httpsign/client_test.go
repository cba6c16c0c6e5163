package httpsign_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/datapackage"
	"github.com/waczpack/waczpack/pkg/signer/httpsign"
)

func TestClient_Sign(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Hash    string `json:"hash"`
			Created string `json:"created"`
		}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.NoError(t, json.NewEncoder(w).Encode(datapackage.SignedData{
			Hash:      req.Hash,
			Created:   req.Created,
			Software:  "authsign 1.0",
			Signature: "c2lnbmF0dXJl",
			PublicKey: "cHVibGlja2V5",
		}))
	}))
	t.Cleanup(srv.Close)

	c := httpsign.New(srv.URL, time.Second)

	sd, err := c.Sign(context.Background(), "sha256:abc", "2023-02-22T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", sd.Hash)
	assert.Equal(t, "2023-02-22T12:00:00Z", sd.Created)
	assert.Equal(t, "cHVibGlja2V5", sd.PublicKey)
}

func TestClient_NonOKStatusFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := httpsign.New(srv.URL, time.Second)

	_, err := c.Sign(context.Background(), "sha256:abc", "2023-02-22T12:00:00Z")
	assert.ErrorIs(t, err, httpsign.ErrSigningFailed)
}

func TestClient_FailsFastOnceCircuitOpens(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := httpsign.New(srv.URL, time.Second)

	for range 3 {
		_, err := c.Sign(context.Background(), "sha256:abc", "2023-02-22T12:00:00Z")
		assert.ErrorIs(t, err, httpsign.ErrSigningFailed)
	}

	seen := hits.Load()

	_, err := c.Sign(context.Background(), "sha256:abc", "2023-02-22T12:00:00Z")
	assert.ErrorIs(t, err, httpsign.ErrSigningFailed)
	assert.Equal(t, seen, hits.Load(), "an open circuit must not reach the endpoint")
}
