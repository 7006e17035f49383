package api

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/protocol"
	"github.com/google/uuid"
)

var (
	errSessionClosed  = errors.New("session closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Session is one client connection taking part in the game. It implements
// game.Player; notifications are encoded and queued for the transport's
// writer, so a slow client never blocks the engine. A client that falls a
// whole buffer behind is disconnected.
type Session struct {
	id     string
	engine *game.Engine
	logger *slog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	name   string
	joined bool
}

func NewSession(engine *game.Engine, buffer int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	id := uuid.New().String()
	return &Session{
		id:     id,
		engine: engine,
		logger: logger.With("session_id", id),
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined
}

// Outbound returns the queue of encoded messages for the transport to write.
func (s *Session) Outbound() <-chan []byte { return s.send }

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.closed }

// Close stops the session. The transport should then tear down its connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Handle processes one inbound message. A non-nil error means the game can
// no longer continue and the connection should be closed.
func (s *Session) Handle(data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		s.logger.Warn("rejected message", "error", err)
		s.reject(err)
		return nil
	}

	switch m := msg.(type) {
	case *protocol.JoinGameRequest:
		return s.join(m.PlayerName)
	case *protocol.GuessRequest:
		return s.guess(m.Guess)
	default:
		s.reject(fmt.Errorf("%w: %s is not a request", protocol.ErrUnknownMessageType, msg.MessageType()))
		return nil
	}
}

func (s *Session) join(name string) error {
	s.mu.Lock()
	if s.joined {
		s.mu.Unlock()
		s.reject(fmt.Errorf("already joined as %q", s.Name()))
		return nil
	}
	s.name = name
	s.mu.Unlock()

	if err := s.engine.AddPlayer(s); err != nil {
		if errors.Is(err, game.ErrHalted) {
			return err
		}
		s.logger.Info("join rejected", "player", name, "error", err)
		s.reject(err)
		return nil
	}

	s.mu.Lock()
	s.joined = true
	s.mu.Unlock()
	s.logger.Info("player joined", "player", name)
	return nil
}

func (s *Session) guess(text string) error {
	if !s.Joined() {
		s.reject(errors.New("join the game before guessing"))
		return nil
	}
	g, err := game.ParseGuess(text)
	if err != nil {
		s.reject(err)
		return nil
	}

	current := s.engine.State()
	if current.Round() == 0 {
		s.reject(game.ErrNotStarted)
		return nil
	}
	pending := current.NumPlayers() - current.AddGuess(s, g).NumGuesses()
	s.enqueue(protocol.PlayerGuessedNotification{
		PlayerGuessed:        s.Name(),
		NumNotGuessedPlayers: max(pending, 0),
	})

	if err := s.engine.Guess(s, g); err != nil {
		if errors.Is(err, game.ErrNotStarted) {
			s.reject(err)
			return nil
		}
		return err
	}
	return nil
}

// Leave removes the player from the game if it joined.
func (s *Session) Leave() {
	s.mu.Lock()
	joined := s.joined
	s.joined = false
	s.mu.Unlock()

	if joined {
		s.engine.RemovePlayer(s)
		s.logger.Info("player left", "player", s.Name())
	}
}

func (s *Session) UpdateState(state *game.State) error {
	score, _ := state.Score(s)
	msg := protocol.GameStateNotification{
		NumRounds:  state.Round(),
		PlayerName: s.Name(),
		Score:      score,
	}
	if card, ok := state.CurrentCard(); ok {
		msg.CurrentCard = protocol.FromCard(card)
	}
	return s.enqueue(msg)
}

func (s *Session) PlayerJoined(name string, state *game.State) error {
	return s.enqueue(protocol.PlayerJoinedNotification{
		NewPlayerName: name,
		NumPlayers:    state.NumPlayers(),
	})
}

func (s *Session) PlayerLeft(name string, state *game.State) error {
	return s.enqueue(protocol.PlayerLeftNotification{
		PlayerName: name,
		NumPlayers: state.NumPlayers(),
	})
}

func (s *Session) reject(err error) {
	s.enqueue(protocol.ErrorNotification{Error: err.Error()})
}

func (s *Session) enqueue(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	select {
	case <-s.closed:
		return errSessionClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		s.logger.Warn("send buffer full, closing session", "player", s.Name())
		s.Close()
		return errSendBufferFull
	}
}
