package api

import (
	"bufio"
	"bytes"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
)

// TCPServer serves the game over plain TCP, one JSON message per line.
type TCPServer struct {
	engine     *game.Engine
	logger     *slog.Logger
	sendBuffer int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

func NewTCPServer(engine *game.Engine, sendBuffer int, logger *slog.Logger) *TCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPServer{
		engine:     engine,
		logger:     logger.With("transport", "tcp"),
		sendBuffer: sendBuffer,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on l until Close is called.
func (s *TCPServer) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		l.Close()
		return net.ErrClosed
	}
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

// Close stops accepting, drops every connection and waits for their
// sessions to leave the game.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	s.closing = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// track registers conn and counts it in wg. It fails once Close has started.
func (s *TCPServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *TCPServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *TCPServer) handle(conn net.Conn) {
	session := NewSession(s.engine, s.sendBuffer, s.logger.With("remote", conn.RemoteAddr().String()))
	defer conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, session)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := session.Handle(line); err != nil {
			session.logger.Error("game unavailable, closing connection", "error", err)
			break
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		session.logger.Debug("read failed", "error", err)
	}

	session.Leave()
	session.Close()
	<-writerDone
}

func (s *TCPServer) writeLoop(conn net.Conn, session *Session) {
	w := bufio.NewWriter(conn)
	write := func(message []byte) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		w.Write(message)
		w.WriteByte('\n')
		return w.Flush()
	}

	for {
		select {
		case message := <-session.Outbound():
			if err := write(message); err != nil {
				session.Close()
				conn.Close()
				return
			}
		case <-session.Done():
			for {
				select {
				case message := <-session.Outbound():
					if write(message) != nil {
						conn.Close()
						return
					}
				default:
					conn.Close()
					return
				}
			}
		}
	}
}
