package transmission

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

func clientFor(t *testing.T, srv *httptest.Server, username, password string) *client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host/port: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return newRPCClient(host, port, username, password)
}

func TestRoundTripSessionHandshake(t *testing.T) {
	const sessionID = "abc123"
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get(sessionHeader) != sessionID {
			w.Header().Set(sessionHeader, sessionID)
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"result":"success","arguments":{"torrents":[{"id":1,"name":"alpha"}]}}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv, "", "")
	var payload struct {
		Torrents []torrentRecord `json:"torrents"`
	}
	if err := c.roundTrip(context.Background(), "torrent-get", nil, &payload); err != nil {
		t.Fatalf("roundTrip() = %v, want nil", err)
	}
	if requests != 2 {
		t.Fatalf("requests = %d, want 2 (409 then replay)", requests)
	}
	if len(payload.Torrents) != 1 || payload.Torrents[0].Name != "alpha" {
		t.Fatalf("torrents = %+v, want one named alpha", payload.Torrents)
	}
	if got := c.session(); got != sessionID {
		t.Fatalf("session() = %q, want %q", got, sessionID)
	}

	// The cached session id should be presented up front on later calls.
	requests = 0
	if err := c.roundTrip(context.Background(), "torrent-get", nil, &payload); err != nil {
		t.Fatalf("second roundTrip() = %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1 with cached session id", requests)
	}
}

// Two in-flight calls share one handle, the way the refresh loop fetches
// torrents and stats in parallel. The server holds both initial requests
// until both have arrived, so both hit the 409 handshake at once.
func TestRoundTripConcurrentHandshake(t *testing.T) {
	const sessionID = "race1"
	var (
		mu      sync.Mutex
		waiting int
	)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(sessionHeader) != sessionID {
			mu.Lock()
			waiting++
			if waiting == 2 {
				close(release)
			}
			mu.Unlock()
			<-release
			w.Header().Set(sessionHeader, sessionID)
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv, "", "")
	errs := make(chan error, 2)
	for _, method := range []string{"torrent-get", "session-stats"} {
		method := method
		go func() {
			errs <- c.roundTrip(context.Background(), method, nil, nil)
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("roundTrip() = %v, want nil", err)
		}
	}
	if got := c.session(); got != sessionID {
		t.Fatalf("session() = %q, want %q", got, sessionID)
	}
}

func TestRoundTripBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv, "admin", "hunter2")
	if err := c.roundTrip(context.Background(), "session-get", nil, nil); err != nil {
		t.Fatalf("roundTrip() = %v, want nil", err)
	}

	bad := clientFor(t, srv, "admin", "wrong")
	err := bad.roundTrip(context.Background(), "session-get", nil, nil)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("roundTrip() = %v, want ProtocolError for bad credentials", err)
	}
}

func TestRoundTripFailureResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":"duplicate torrent"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv, "", "")
	err := c.roundTrip(context.Background(), "torrent-add", nil, nil)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("roundTrip() = %v, want ProtocolError", err)
	}
	if protoErr.Result != "duplicate torrent" {
		t.Fatalf("Result = %q, want duplicate torrent", protoErr.Result)
	}
}

func TestRoundTripConnectionRefused(t *testing.T) {
	c := newRPCClient("127.0.0.1", 1, "", "")
	err := c.roundTrip(context.Background(), "session-get", nil, nil)
	var transErr *TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("roundTrip() = %v, want TransportError", err)
	}
}
