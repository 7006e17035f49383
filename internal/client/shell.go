package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/protocol"
	"github.com/pterm/pterm"
)

// Shell renders server messages and reads guesses from the user.
type Shell struct {
	in  *bufio.Scanner
	mu  sync.Mutex
	out io.Writer

	round     int
	lastScore int
	lastCard  string
}

func NewShell(in io.Reader, out io.Writer) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out}
}

// Show prints one server message. It reports whether a new round started,
// which is when the user should be asked for a guess.
func (s *Shell) Show(m protocol.Message) bool {
	switch m := m.(type) {
	case *protocol.PlayerJoinedNotification:
		s.print(pterm.Info.Sprintfln("Player %s just joined the game. There are currently %d active player(s).",
			pterm.LightCyan(m.NewPlayerName), m.NumPlayers))
	case *protocol.PlayerLeftNotification:
		s.print(pterm.Warning.Sprintfln("Player %s just left the game. There are currently %d active player(s).",
			pterm.LightCyan(m.PlayerName), m.NumPlayers))
	case *protocol.PlayerGuessedNotification:
		s.print(pterm.Info.Sprintfln("Player %s made a guess. Waiting for %d more player(s).",
			pterm.LightCyan(m.PlayerGuessed), m.NumNotGuessedPlayers))
	case *protocol.GameStateNotification:
		return s.showState(m)
	case *protocol.ErrorNotification:
		s.print(pterm.Error.Sprintfln("%s", m.Error))
	default:
		s.print(pterm.Warning.Sprintfln("Ignoring %s", m.MessageType()))
	}
	return false
}

func (s *Shell) showState(m *protocol.GameStateNotification) bool {
	if m.CurrentCard == nil || m.NumRounds <= s.round {
		return false
	}
	card := cardText(m.CurrentCard)
	if s.round > 0 {
		result := pterm.LightRed(fmt.Sprintf("Bad luck %s, your guess was incorrect.", m.PlayerName))
		if m.Score > s.lastScore {
			result = pterm.LightGreen(fmt.Sprintf("Congratulations %s, your guess was correct!", m.PlayerName))
		}
		body := pterm.Sprintfln("The previous card was %s and the new card is %s.", s.lastCard, card) +
			pterm.Sprintfln("%s", result) +
			pterm.Sprintf("You now have %d points.", m.Score)
		s.print(pterm.DefaultBox.WithTitle(pterm.LightYellow("|RESULT|")).WithTitleTopCenter().
			WithHorizontalPadding(4).Sprintln(body))
	}
	s.round = m.NumRounds
	s.lastScore = m.Score
	s.lastCard = card

	s.print(pterm.DefaultBox.WithTitle(fmt.Sprintf("Round %d", m.NumRounds)).WithTitleTopLeft().
		WithHorizontalPadding(4).
		Sprintln(pterm.Sprintf("Current card: %s\nScore: %d", pterm.BgGreen.Sprint(" "+card+" "), m.Score)))
	return true
}

// ReadGuess prompts until the user enters a valid guess. It returns io.EOF
// when the input ends.
func (s *Shell) ReadGuess() (game.Guess, error) {
	for {
		s.print(pterm.Sprintln(">>> Is the next card higher, lower or equal? (H/L/E)"))
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		if g, ok := parseInput(s.in.Text()); ok {
			return g, nil
		}
		s.print(pterm.Error.Sprintfln("Invalid input! Please try again."))
	}
}

func parseInput(text string) (game.Guess, bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "H", string(game.High):
		return game.High, true
	case "L", string(game.Low):
		return game.Low, true
	case "E", string(game.Equal):
		return game.Equal, true
	}
	return "", false
}

func (s *Shell) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, text)
}

func cardText(c *protocol.Card) string {
	if c == nil {
		return "none"
	}
	card, err := c.ToCard()
	if err != nil {
		return fmt.Sprintf("%s %d", c.Suit, c.Value)
	}
	return card.String()
}
