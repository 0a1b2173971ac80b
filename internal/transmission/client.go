package transmission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sessionHeader = "X-Transmission-Session-Id"

// rpcRequest and rpcResponse follow the Transmission RPC envelope.
type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
	Tag       int    `json:"tag,omitempty"`
}

type rpcResponse struct {
	Result    string              `json:"result"`
	Arguments jsoniter.RawMessage `json:"arguments,omitempty"`
	Tag       int                 `json:"tag,omitempty"`
}

// client is one connection handle to the daemon's RPC endpoint. It caches
// the CSRF session id; the Gateway discards the whole handle on transport
// errors so the next attempt starts with a fresh handshake. Concurrent
// calls share the handle, so the session id sits behind its own mutex.
type client struct {
	endpoint *url.URL
	username string
	password string
	http     *http.Client

	mu        sync.Mutex
	sessionID string
}

func (c *client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *client) setSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

func newRPCClient(host string, port int, username, password string) *client {
	return &client{
		endpoint: &url.URL{
			Scheme: "http",
			Host:   host + ":" + strconv.Itoa(port),
			Path:   "/transmission/rpc",
		},
		username: username,
		password: password,
		// Per-attempt timeouts come from the request context; the outer
		// deadline lives in the Gateway.
		http: &http.Client{},
	}
}

// roundTrip posts one RPC envelope and decodes the arguments into dest.
// A 409 carries the session id the daemon expects; the request is
// replayed once with it, per the protocol.
func (c *client) roundTrip(ctx context.Context, method string, args, dest any) error {
	payload, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("encode request: %w", err)}
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	if resp.StatusCode == http.StatusConflict {
		c.setSession(resp.Header.Get(sessionHeader))
		drain(resp)
		resp, err = c.post(ctx, payload)
		if err != nil {
			return &TransportError{Method: method, Err: err}
		}
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &ProtocolError{Method: method, Result: resp.Status}
	}
	if resp.StatusCode >= 400 {
		return &TransportError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	if envelope.Result != "success" {
		return &ProtocolError{Method: method, Result: envelope.Result}
	}
	if dest == nil || len(envelope.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Arguments, dest); err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("decode arguments: %w", err)}
	}
	return nil
}

func (c *client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := c.session(); id != "" {
		req.Header.Set(sessionHeader, id)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		_ = resp.Body.Close()
	}
}
