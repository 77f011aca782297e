// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon serves a single JSON-RPC method table the way bitcoind does:
// HTTP POST, basic auth, RPC errors carried in a 500 response body.
func fakeDaemon(t *testing.T, handler func(method string, params []any) (any, *Error)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
			ID     uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"result": result, "error": rpcErr, "id": req.ID}
		if rpcErr != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCookie(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".cookie")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestClient_Call(t *testing.T) {
	t.Run("returns untyped result", func(t *testing.T) {
		srv := fakeDaemon(t, func(method string, params []any) (any, *Error) {
			assert.Equal(t, "getblockchaininfo", method)
			assert.Empty(t, params)
			return map[string]any{"chain": "regtest", "blocks": 0}, nil
		})

		client, err := New(srv.URL)
		require.NoError(t, err)

		raw, err := client.Call(context.Background(), "getblockchaininfo")
		require.NoError(t, err)

		var info map[string]any
		require.NoError(t, json.Unmarshal(raw, &info))
		assert.Equal(t, "regtest", info["chain"])
	})

	t.Run("rpc error surfaces as *Error", func(t *testing.T) {
		srv := fakeDaemon(t, func(method string, params []any) (any, *Error) {
			return nil, &Error{Code: -4, Message: "Wallet file verification failed"}
		})

		client, err := New(srv.URL)
		require.NoError(t, err)

		_, err = client.Call(context.Background(), "createwallet", "default")
		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, -4, rpcErr.Code)
	})

	t.Run("connection refused", func(t *testing.T) {
		client, err := New("http://127.0.0.1:1")
		require.NoError(t, err)

		_, err = client.Call(context.Background(), "getblockchaininfo")
		require.Error(t, err)
	})
}

func TestClient_CookieAuth(t *testing.T) {
	cookiePath := writeCookie(t, "alice:secret")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": true, "error": nil, "id": 1})
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithCookieFile(cookiePath))
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "uptime")
	require.NoError(t, err)

	// The cookie is read fresh per request: rewriting it switches the
	// credentials the next call presents.
	require.NoError(t, os.WriteFile(cookiePath, []byte("bob:hunter2"), 0600))
	_, err = client.Call(context.Background(), "uptime")
	require.Error(t, err)
}

func TestWithCookieFile_MissingFile(t *testing.T) {
	_, err := New("http://127.0.0.1:18443",
		WithCookieFile(filepath.Join(t.TempDir(), ".cookie")))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestClient_ForWallet(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"result": nil, "error": nil, "id": 1})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	wallet := client.ForWallet("default")
	assert.Equal(t, srv.URL+"/wallet/default", wallet.URL())

	_, err = wallet.Call(context.Background(), "getbalance")
	require.NoError(t, err)
	assert.Equal(t, "/wallet/default", gotPath)
}

func TestClient_WalletHelpers(t *testing.T) {
	var methods []string
	srv := fakeDaemon(t, func(method string, params []any) (any, *Error) {
		methods = append(methods, method)
		if method == "createwallet" {
			require.Equal(t, []any{"default"}, params)
		}
		return nil, nil
	})

	client, err := New(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.CreateWallet(ctx, "default"))
	require.NoError(t, client.LoadWallet(ctx, "default"))
	require.NoError(t, client.Stop(ctx))
	assert.Equal(t, []string{"createwallet", "loadwallet", "stop"}, methods)
}
