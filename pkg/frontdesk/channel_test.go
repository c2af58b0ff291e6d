package frontdesk

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSServer runs a websocket endpoint that hands each accepted
// connection to the given handler.
func newWSServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testIdentity() SessionIdentity {
	return SessionIdentity{UserID: "user-abc123", SessionID: "session-def456"}
}

func TestEndpointDerivedFromIdentity(t *testing.T) {
	config := &SessionConfig{WsEndpoint: "ws://example.com/ws/"}
	dc := NewDuplexChannel(config, testIdentity())

	want := "ws://example.com/ws/user-abc123/session-def456"
	if got := dc.Endpoint(); got != want {
		t.Fatalf("Endpoint() = %q, want %q", got, want)
	}
}

func TestOpenConnectsToSessionPath(t *testing.T) {
	paths := make(chan string, 1)
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		paths <- r.URL.Path
		conn.ReadMessage() // hold the connection until the client closes
		conn.Close()
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())
	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dc.Close()

	if !dc.IsConnected() {
		t.Fatal("not connected after Open")
	}
	select {
	case path := <-paths:
		if path != "/user-abc123/session-def456" {
			t.Fatalf("server saw path %q", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted")
	}
}

func TestMessagesDeliveredInWireOrder(t *testing.T) {
	const n = 20
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		for i := 0; i < n; i++ {
			payload := `{"type":"agent.transcript","text":"` + strings.Repeat("x", i+1) + `"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
		}
		conn.ReadMessage()
		conn.Close()
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	dc.AddMessageHandler(func(raw []byte) {
		mu.Lock()
		got = append(got, len(raw))
		if len(got) == n {
			close(done)
		}
		mu.Unlock()
	})

	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dc.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("received %d of %d messages", len(got), n)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < n; i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
}

func TestSendReachesServer(t *testing.T) {
	received := make(chan string, 1)
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		_, raw, err := conn.ReadMessage()
		if err == nil {
			received <- string(raw)
		}
		conn.ReadMessage()
		conn.Close()
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())
	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dc.Close()

	if err := dc.Send([]byte(`{"type":"text","text":"halo"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-received:
		if msg != `{"type":"text","text":"halo"}` {
			t.Fatalf("server received %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message")
	}
}

func TestSendWhenNotConnected(t *testing.T) {
	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: "ws://localhost:1/ws"}, testIdentity())

	err := dc.Send([]byte("x"))
	if err == nil {
		t.Fatal("expected an error")
	}
	sErr, ok := err.(*SessionError)
	if !ok || sErr.Code != ErrCodeNotConnected {
		t.Fatalf("err = %v", err)
	}
}

func TestCloseSendsSessionStop(t *testing.T) {
	received := make(chan string, 4)
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(raw)
		}
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())
	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	dc.Close()

	select {
	case msg := <-received:
		if msg != `{"type":"session.stop"}` {
			t.Fatalf("server received %q, want session.stop", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session.stop never arrived")
	}

	if dc.State() != Disconnected {
		t.Fatalf("state = %s", dc.State())
	}

	// Closing again is a no-op.
	dc.Close()
}

func TestOpenDialFailure(t *testing.T) {
	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: "ws://127.0.0.1:1/ws"}, testIdentity())

	err := dc.Open()
	if err == nil {
		t.Fatal("expected dial failure")
	}
	sErr, ok := err.(*SessionError)
	if !ok || sErr.Code != ErrCodeTransport {
		t.Fatalf("err = %v", err)
	}
	if dc.State() != ConnectionError {
		t.Fatalf("state = %s", dc.State())
	}
}

func TestRemovedStateHandlerStopsFiring(t *testing.T) {
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
		conn.Close()
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())

	var mu sync.Mutex
	var first, second int
	remove := dc.AddStateHandler(func(ConnectionState) {
		mu.Lock()
		first++
		mu.Unlock()
	})
	dc.AddStateHandler(func(ConnectionState) {
		mu.Lock()
		second++
		mu.Unlock()
	})
	remove()

	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	dc.Close()

	mu.Lock()
	defer mu.Unlock()
	if first != 0 {
		t.Fatalf("removed handler fired %d times", first)
	}
	if second == 0 {
		t.Fatal("surviving handler never fired")
	}
}

func TestStateHandlerObservesTransitions(t *testing.T) {
	_, url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
		conn.Close()
	})

	dc := NewDuplexChannel(&SessionConfig{WsEndpoint: url}, testIdentity())

	var mu sync.Mutex
	var states []ConnectionState
	remove := dc.AddStateHandler(func(state ConnectionState) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})
	defer remove()

	if err := dc.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	dc.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []ConnectionState{Connecting, Connected, Disconnected}
	if len(states) < len(want) {
		t.Fatalf("states = %v", states)
	}
	for i, s := range want {
		if states[i] != s {
			t.Fatalf("states = %v, want prefix %v", states, want)
		}
	}
}
