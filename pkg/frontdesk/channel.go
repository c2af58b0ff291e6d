package frontdesk

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// DuplexChannel is the persistent bidirectional connection to the session
// endpoint. Messages are delivered to handlers synchronously from a single
// read loop, preserving wire arrival order. The channel performs no
// automatic reconnect: a dropped connection surfaces as an error state and
// the caller decides what to do next.
type DuplexChannel struct {
	config          *SessionConfig
	identity        SessionIdentity
	conn            *websocket.Conn
	state           ConnectionState
	messageHandlers []RawMessageHandler
	stateHandlers   []StateHandler
	errorHandlers   []ErrorHandler
	closing         bool
	ctx             context.Context
	cancel          context.CancelFunc
	log             *Logger
	mu              sync.Mutex
}

func NewDuplexChannel(config *SessionConfig, identity SessionIdentity) *DuplexChannel {
	ctx, cancel := context.WithCancel(context.Background())

	return &DuplexChannel{
		config:   config,
		identity: identity,
		state:    Disconnected,
		ctx:      ctx,
		cancel:   cancel,
		log:      GetGlobalLogger().WithComponent("channel"),
	}
}

// Endpoint returns the identity-derived session address.
func (dc *DuplexChannel) Endpoint() string {
	base := strings.TrimRight(dc.config.WsEndpoint, "/")
	return base + "/" + dc.identity.UserID + "/" + dc.identity.SessionID
}

// Open dials the session endpoint and starts the read loop.
func (dc *DuplexChannel) Open() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.state == Connected || dc.state == Connecting {
		return nil
	}

	dc.setState(Connecting)

	header := make(http.Header)
	if dc.config.UseTokenAuth {
		tokenResult := GenerateSessionToken(dc.identity)
		if !tokenResult.Success {
			dc.setState(ConnectionError)
			return tokenResult.Error
		}
		header.Set("Authorization", "Bearer "+tokenResult.Data.Token)
	}
	for k, v := range dc.config.Headers {
		header.Set(k, v)
	}

	conn, _, err := websocket.DefaultDialer.Dial(dc.Endpoint(), header)
	if err != nil {
		dc.setState(ConnectionError)
		return WrapError(err, ErrCodeTransport).AddDetail("endpoint", dc.Endpoint())
	}

	dc.conn = conn
	dc.closing = false
	dc.ctx, dc.cancel = context.WithCancel(context.Background())
	dc.setState(Connected)
	go dc.readLoop(conn)
	return nil
}

func (dc *DuplexChannel) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-dc.ctx.Done():
			return
		default:
			_, raw, err := conn.ReadMessage()
			if err != nil {
				dc.mu.Lock()
				closing := dc.closing
				if closing {
					dc.setState(Disconnected)
				} else {
					dc.setState(ConnectionError)
				}
				dc.mu.Unlock()
				if !closing {
					dc.handleError(WrapError(err, ErrCodeTransport))
				}
				return
			}

			if dc.config.DebugChannel {
				dc.log.Debugf("Received %d bytes", len(raw))
			}

			// Handlers run inline so inbound ordering is preserved end
			// to end; the transcript merge depends on it.
			dc.mu.Lock()
			handlers := append([]RawMessageHandler(nil), dc.messageHandlers...)
			dc.mu.Unlock()
			for _, handler := range handlers {
				if handler != nil {
					handler(raw)
				}
			}
		}
	}
}

// Send writes one text frame. Valid only while connected.
func (dc *DuplexChannel) Send(payload []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.state != Connected {
		return NewSessionError("channel is not connected", ErrCodeNotConnected)
	}

	if err := dc.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return WrapError(err, ErrCodeTransport)
	}
	return nil
}

// Close sends session.stop best-effort and tears the connection down.
// Idempotent: closing an already-closed channel is a no-op.
func (dc *DuplexChannel) Close() {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.conn == nil {
		dc.setState(Disconnected)
		return
	}

	dc.closing = true
	if dc.state == Connected {
		if stop, err := NewCodec(dc.log).EncodeStop(); err == nil {
			_ = dc.conn.WriteMessage(websocket.TextMessage, stop)
		}
	}

	dc.cancel()
	dc.conn.Close()
	dc.conn = nil
	dc.setState(Disconnected)
}

func (dc *DuplexChannel) setState(state ConnectionState) {
	if dc.state != state {
		dc.state = state
		for _, handler := range dc.stateHandlers {
			if handler != nil {
				handler(state)
			}
		}
	}
}

func (dc *DuplexChannel) handleError(err *SessionError) {
	dc.log.LogError(err)
	dc.mu.Lock()
	handlers := append([]ErrorHandler(nil), dc.errorHandlers...)
	dc.mu.Unlock()
	for _, handler := range handlers {
		if handler != nil {
			handler(err)
		}
	}
}

// Removal nils the slot rather than splicing, so the indexes captured by
// other remove-funcs stay valid.
func (dc *DuplexChannel) AddMessageHandler(handler RawMessageHandler) func() {
	dc.mu.Lock()
	dc.messageHandlers = append(dc.messageHandlers, handler)
	idx := len(dc.messageHandlers) - 1
	dc.mu.Unlock()

	return func() {
		dc.mu.Lock()
		dc.messageHandlers[idx] = nil
		dc.mu.Unlock()
	}
}

func (dc *DuplexChannel) AddStateHandler(handler StateHandler) func() {
	dc.mu.Lock()
	dc.stateHandlers = append(dc.stateHandlers, handler)
	idx := len(dc.stateHandlers) - 1
	dc.mu.Unlock()

	return func() {
		dc.mu.Lock()
		dc.stateHandlers[idx] = nil
		dc.mu.Unlock()
	}
}

func (dc *DuplexChannel) AddErrorHandler(handler ErrorHandler) func() {
	dc.mu.Lock()
	dc.errorHandlers = append(dc.errorHandlers, handler)
	idx := len(dc.errorHandlers) - 1
	dc.mu.Unlock()

	return func() {
		dc.mu.Lock()
		dc.errorHandlers[idx] = nil
		dc.mu.Unlock()
	}
}

func (dc *DuplexChannel) State() ConnectionState {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.state
}

func (dc *DuplexChannel) IsConnected() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.state == Connected
}
