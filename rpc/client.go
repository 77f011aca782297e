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

// Package rpc is a minimal JSON-RPC client for the daemon control API.
//
// The daemon speaks JSON-RPC 1.0 over per-request HTTP POST with basic
// auth. The client is deliberately untyped: Call returns the raw result so
// it works across daemon versions with incompatible response schemas.
// Wallet-scoped calls use the `/wallet/<name>` URL path.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client is a client for one daemon RPC endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	cookiePath string
	user       string
	password   string
	nextID     atomic.Uint64
}

// New creates a client for the given RPC URL, e.g. http://127.0.0.1:18443.
func New(url string, opts ...Option) (*Client, error) {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Option configures a Client.
type Option func(*Client) error

// WithCookieFile authenticates from the daemon's cookie file. The file must
// exist when the client is created; its content is re-read on every request
// because the daemon rewrites it on restart.
func WithCookieFile(path string) Option {
	return func(c *Client) error {
		if _, err := ReadCookie(path); err != nil {
			return err
		}
		c.cookiePath = path
		return nil
	}
}

// WithUserPassword authenticates with static credentials, for daemons
// configured with an auth descriptor instead of cookie auth.
func WithUserPassword(user, password string) Option {
	return func(c *Client) error {
		c.user = user
		c.password = password
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// ForWallet returns a client for the named wallet's endpoint, sharing this
// client's transport and authentication.
func (c *Client) ForWallet(name string) *Client {
	clone := &Client{
		httpClient: c.httpClient,
		url:        c.url + "/wallet/" + name,
		cookiePath: c.cookiePath,
		user:       c.user,
		password:   c.password,
	}
	return clone
}

// URL returns the endpoint URL this client talks to.
func (c *Client) URL() string {
	return c.url
}

// Error is a JSON-RPC error returned by the daemon.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Call invokes a method with positional parameters and returns the raw
// result. RPC-level failures are returned as *Error.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(request{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.addAuth(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// The daemon reports RPC errors with a 500 status but still returns a
	// well-formed JSON-RPC body, so decode before looking at the status.
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded response
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("daemon returned error %d: %s", resp.StatusCode, respBody)
		}
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if decoded.Error != nil {
		return nil, decoded.Error
	}

	return decoded.Result, nil
}

// addAuth attaches basic-auth credentials, reading the cookie file fresh
// when cookie auth is configured.
func (c *Client) addAuth(req *http.Request) error {
	if c.cookiePath != "" {
		cookie, err := ReadCookie(c.cookiePath)
		if err != nil {
			return err
		}
		req.SetBasicAuth(cookie.User, cookie.Password)
		return nil
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	return nil
}

// CreateWallet creates a wallet on the daemon.
func (c *Client) CreateWallet(ctx context.Context, name string) error {
	_, err := c.Call(ctx, "createwallet", name)
	return err
}

// LoadWallet loads an existing wallet on the daemon.
func (c *Client) LoadWallet(ctx context.Context, name string) error {
	_, err := c.Call(ctx, "loadwallet", name)
	return err
}

// Stop asks the daemon to shut down gracefully. The daemon acknowledges
// the call and then begins its shutdown; callers wait for the process to
// exit separately.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.Call(ctx, "stop")
	return err
}
