package api

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/protocol"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStartedEngine(t *testing.T, cards ...game.Card) *game.Engine {
	t.Helper()
	e := game.NewEngine(game.NewFixedDeck(cards...), game.WithLogger(quietLogger()))
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	return e
}

func defaultCards() []game.Card {
	return []game.Card{
		game.MustCard(game.Diamonds, 1),
		game.MustCard(game.Hearts, 13),
		game.MustCard(game.Clubs, 2),
	}
}

// drain decodes every message currently queued on the session.
func drain(t *testing.T, s *Session) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for {
		select {
		case data := <-s.Outbound():
			m, err := protocol.Decode(data)
			if err != nil {
				t.Fatalf("session queued an undecodable message %s: %v", data, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func handle(t *testing.T, s *Session, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Handle(data); err != nil {
		t.Fatalf("handle %s: %v", msg.MessageType(), err)
	}
}

func onlyError(t *testing.T, msgs []protocol.Message) *protocol.ErrorNotification {
	t.Helper()
	if len(msgs) != 1 {
		t.Fatalf("expected one error notification, got %d messages", len(msgs))
	}
	e, ok := msgs[0].(*protocol.ErrorNotification)
	if !ok {
		t.Fatalf("expected ErrorNotification, got %T", msgs[0])
	}
	return e
}

func TestSessionJoin(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)
	s := NewSession(e, 16, quietLogger())

	handle(t, s, protocol.JoinGameRequest{PlayerName: "User_1"})

	msgs := drain(t, s)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	joined, ok := msgs[0].(*protocol.PlayerJoinedNotification)
	if !ok || joined.NewPlayerName != "User_1" || joined.NumPlayers != 1 {
		t.Fatalf("unexpected first message %#v", msgs[0])
	}
	state, ok := msgs[1].(*protocol.GameStateNotification)
	if !ok || state.NumRounds != 1 || state.PlayerName != "User_1" || state.Score != 0 {
		t.Fatalf("unexpected state message %#v", msgs[1])
	}
	if state.CurrentCard == nil || state.CurrentCard.Suit != "DIAMONDS" || state.CurrentCard.Value != 1 {
		t.Fatalf("unexpected card %#v", state.CurrentCard)
	}
	if !s.Joined() || s.Name() != "User_1" {
		t.Fatal("session not marked as joined")
	}
}

func TestSessionRejectsJoins(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)
	first := NewSession(e, 16, quietLogger())
	handle(t, first, protocol.JoinGameRequest{PlayerName: "A"})
	drain(t, first)

	t.Run("duplicate name", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		handle(t, s, protocol.JoinGameRequest{PlayerName: "A"})
		onlyError(t, drain(t, s))
		if s.Joined() {
			t.Fatal("duplicate join accepted")
		}
	})

	t.Run("blank name", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		handle(t, s, protocol.JoinGameRequest{PlayerName: "  "})
		onlyError(t, drain(t, s))
	})

	t.Run("second join", func(t *testing.T) {
		handle(t, first, protocol.JoinGameRequest{PlayerName: "Other"})
		onlyError(t, drain(t, first))
		if first.Name() != "A" {
			t.Fatalf("name changed to %q", first.Name())
		}
	})

	if n := e.State().NumPlayers(); n != 1 {
		t.Fatalf("expected 1 player, got %d", n)
	}
}

func TestSessionGuess(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)
	a := NewSession(e, 16, quietLogger())
	b := NewSession(e, 16, quietLogger())
	handle(t, a, protocol.JoinGameRequest{PlayerName: "A"})
	handle(t, b, protocol.JoinGameRequest{PlayerName: "B"})
	drain(t, a)
	drain(t, b)

	handle(t, a, protocol.GuessRequest{PlayerName: "A", Guess: "HIGH"})
	msgs := drain(t, a)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	guessed, ok := msgs[0].(*protocol.PlayerGuessedNotification)
	if !ok || guessed.PlayerGuessed != "A" || guessed.NumNotGuessedPlayers != 1 {
		t.Fatalf("unexpected message %#v", msgs[0])
	}
	if state := msgs[1].(*protocol.GameStateNotification); state.NumRounds != 1 {
		t.Fatalf("round advanced early: %d", state.NumRounds)
	}
	if msgs := drain(t, b); len(msgs) != 1 {
		t.Fatalf("B expected one state update, got %d", len(msgs))
	}

	handle(t, b, protocol.GuessRequest{PlayerName: "B", Guess: "LOW"})
	msgs = drain(t, a)
	state, ok := msgs[len(msgs)-1].(*protocol.GameStateNotification)
	if !ok || state.NumRounds != 2 || state.Score != 1 {
		t.Fatalf("unexpected state for A %#v", msgs[len(msgs)-1])
	}
	if state.CurrentCard.Suit != "HEARTS" || state.CurrentCard.Value != 13 {
		t.Fatalf("unexpected card %#v", state.CurrentCard)
	}
	msgs = drain(t, b)
	if guessed := msgs[0].(*protocol.PlayerGuessedNotification); guessed.NumNotGuessedPlayers != 0 {
		t.Fatalf("expected 0 pending, got %d", guessed.NumNotGuessedPlayers)
	}
	if state := msgs[len(msgs)-1].(*protocol.GameStateNotification); state.Score != 0 {
		t.Fatalf("B should not score, got %d", state.Score)
	}
}

func TestSessionRejectsGuesses(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)

	t.Run("before join", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		handle(t, s, protocol.GuessRequest{PlayerName: "A", Guess: "HIGH"})
		onlyError(t, drain(t, s))
	})

	t.Run("unknown guess", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		handle(t, s, protocol.JoinGameRequest{PlayerName: "A"})
		drain(t, s)
		handle(t, s, protocol.GuessRequest{PlayerName: "A", Guess: "UP"})
		onlyError(t, drain(t, s))
		if e.State().NumGuesses() != 0 {
			t.Fatal("invalid guess recorded")
		}
	})

	t.Run("not a request", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		handle(t, s, protocol.PlayerLeftNotification{PlayerName: "X"})
		onlyError(t, drain(t, s))
	})

	t.Run("malformed", func(t *testing.T) {
		s := NewSession(e, 16, quietLogger())
		if err := s.Handle([]byte("{oops")); err != nil {
			t.Fatal(err)
		}
		onlyError(t, drain(t, s))
	})
}

func TestSessionGuessBeforeStart(t *testing.T) {
	e := game.NewEngine(game.NewFixedDeck(defaultCards()...), game.WithLogger(quietLogger()))
	s := NewSession(e, 16, quietLogger())
	handle(t, s, protocol.JoinGameRequest{PlayerName: "A"})
	drain(t, s)

	handle(t, s, protocol.GuessRequest{PlayerName: "A", Guess: "LOW"})
	rejected := onlyError(t, drain(t, s))
	if rejected.Error != game.ErrNotStarted.Error() {
		t.Fatalf("unexpected error %q", rejected.Error)
	}
}

func TestSessionLeave(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)
	a := NewSession(e, 16, quietLogger())
	b := NewSession(e, 16, quietLogger())
	handle(t, a, protocol.JoinGameRequest{PlayerName: "A"})
	handle(t, b, protocol.JoinGameRequest{PlayerName: "B"})
	drain(t, a)

	b.Leave()
	b.Leave()

	msgs := drain(t, a)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if _, ok := msgs[0].(*protocol.GameStateNotification); !ok {
		t.Fatalf("expected state first, got %T", msgs[0])
	}
	left, ok := msgs[1].(*protocol.PlayerLeftNotification)
	if !ok || left.PlayerName != "B" || left.NumPlayers != 1 {
		t.Fatalf("unexpected message %#v", msgs[1])
	}
	if e.State().NumPlayers() != 1 {
		t.Fatal("B still registered")
	}
}

func TestSessionClosesWhenBufferFull(t *testing.T) {
	e := newStartedEngine(t, defaultCards()...)
	s := NewSession(e, 1, quietLogger())

	handle(t, s, protocol.JoinGameRequest{PlayerName: "A"})

	select {
	case <-s.Done():
	default:
		t.Fatal("session should close when its queue overflows")
	}
	if err := s.UpdateState(e.State()); !errors.Is(err, errSessionClosed) {
		t.Fatalf("expected errSessionClosed, got %v", err)
	}
}

func TestSessionFatalDeckError(t *testing.T) {
	e := newStartedEngine(t, game.MustCard(game.Diamonds, 1))
	s := NewSession(e, 16, quietLogger())
	handle(t, s, protocol.JoinGameRequest{PlayerName: "A"})

	data, _ := protocol.Encode(protocol.GuessRequest{PlayerName: "A", Guess: "HIGH"})
	if err := s.Handle(data); !errors.Is(err, game.ErrNoNextCard) {
		t.Fatalf("expected ErrNoNextCard, got %v", err)
	}

	late := NewSession(e, 16, quietLogger())
	data, _ = protocol.Encode(protocol.JoinGameRequest{PlayerName: "B"})
	if err := late.Handle(data); !errors.Is(err, game.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
}
