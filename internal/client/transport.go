package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Transport carries encoded messages to and from the server.
type Transport interface {
	// Send writes one encoded message.
	Send(data []byte) error
	// Receive blocks for the next batch of encoded messages.
	Receive() ([][]byte, error)
	Close() error
}

// Dial connects to address. ws:// and wss:// URLs use a websocket, tcp://
// and bare host:port use the line protocol.
func Dial(ctx context.Context, address string) (Transport, error) {
	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return dialTCP(ctx, address)
	}
	switch u.Scheme {
	case "ws", "wss":
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, address, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", address, err)
		}
		conn.SetReadLimit(maxMessageSize)
		return &wsTransport{conn: conn}, nil
	case "tcp":
		return dialTCP(ctx, u.Host)
	default:
		return nil, fmt.Errorf("unsupported address scheme %q", u.Scheme)
	}
}

type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Receive() ([][]byte, error) {
	_, frame, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		if line = bytes.TrimSpace(line); len(line) > 0 {
			out = append(out, line)
		}
	}
	return out, nil
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	t.mu.Unlock()
	return t.conn.Close()
}

type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

func dialTCP(ctx context.Context, address string) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	return &tcpTransport{conn: conn, scanner: scanner}, nil
}

func (t *tcpTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := t.conn.Write(append(append([]byte(nil), data...), '\n'))
	return err
}

func (t *tcpTransport) Receive() ([][]byte, error) {
	for t.scanner.Scan() {
		if line := bytes.TrimSpace(t.scanner.Bytes()); len(line) > 0 {
			return [][]byte{bytes.Clone(line)}, nil
		}
	}
	if err := t.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}
