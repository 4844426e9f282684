package stomp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// Conn is one established transport connection carrying STOMP frames.
// Read is only called from a single goroutine; Write calls are serialized by
// the Manager. Close must unblock a pending Read.
type Conn interface {
	// Read returns the next frame. A nil frame with a nil error is a heartbeat.
	Read() (*frame.Frame, error)
	// Write sends f. A nil f sends a heartbeat.
	Write(f *frame.Frame) error
	Close() error
}

// Transport dials connections for a Manager.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketTransport carries one STOMP frame per WebSocket text message.
type WebSocketTransport struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewWebSocketTransport returns a transport using websocket.DefaultDialer
// with the "v12.stomp" subprotocol requested.
func NewWebSocketTransport() *WebSocketTransport {
	d := *websocket.DefaultDialer
	d.Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}
	return &WebSocketTransport{Dialer: &d}
}

func (t *WebSocketTransport) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, url, t.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

var (
	heartbeatMessage = []byte{'\n'}
	nullByte         = []byte{0}
)

func (c *wsConn) Read() (*frame.Frame, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return decodeFrame(data)
}

func (c *wsConn) Write(f *frame.Frame) error {
	if f == nil {
		return c.ws.WriteMessage(websocket.TextMessage, heartbeatMessage)
	}
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// decodeFrame parses a single WebSocket message. Leading EOLs are heartbeats;
// a missing trailing NUL is tolerated.
func decodeFrame(data []byte) (*frame.Frame, error) {
	data = bytes.TrimLeft(data, "\r\n")
	if len(data) == 0 {
		return nil, nil
	}
	if data[len(data)-1] != 0 {
		data = append(data, nullByte...)
	}
	f, err := frame.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func encodeFrame(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
