package game

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// State is an immutable snapshot of the game. Every transition returns a new
// snapshot and leaves its receiver untouched; the only exception is the value
// inside a Score, which IncrementScore changes in place. The engine only calls
// IncrementScore on an unpublished snapshot whose counters came from cloneScores.
type State struct {
	round   int
	card    Card
	hasCard bool

	players map[string]Player
	scores  map[Player]*Score
	guesses map[Player]Guess
}

// NewState returns the empty snapshot: round 0, no card, no players.
func NewState() *State {
	return &State{
		players: map[string]Player{},
		scores:  map[Player]*Score{},
		guesses: map[Player]Guess{},
	}
}

func (s *State) with() *State {
	next := *s
	return &next
}

// AddPlayer registers p under its name with a zero score.
func (s *State) AddPlayer(p Player) (*State, error) {
	name := p.Name()
	if _, exists := s.players[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayerName, name)
	}

	next := s.with()
	next.players = maps.Clone(s.players)
	next.players[name] = p
	next.scores = maps.Clone(s.scores)
	next.scores[p] = &Score{}
	return next, nil
}

// RemovePlayer drops p from the roster. Its score and any guess it made are
// kept until the round advances.
func (s *State) RemovePlayer(p Player) *State {
	next := s.with()
	next.players = maps.Clone(s.players)
	if current, ok := next.players[p.Name()]; ok && current == p {
		delete(next.players, p.Name())
	}
	return next
}

// AddGuess records g for p, replacing an earlier guess in the same round.
func (s *State) AddGuess(p Player, g Guess) *State {
	next := s.with()
	next.guesses = maps.Clone(s.guesses)
	next.guesses[p] = g
	return next
}

// AdvanceRound moves to the next round with card as the current card.
// Guesses are cleared; scores of players no longer in the roster are dropped.
func (s *State) AdvanceRound(card Card) *State {
	next := s.with()
	next.round = s.round + 1
	next.card = card
	next.hasCard = true
	next.guesses = map[Player]Guess{}
	next.scores = make(map[Player]*Score, len(s.players))
	for _, p := range s.players {
		if score, ok := s.scores[p]; ok {
			next.scores[p] = score
		}
	}
	return next
}

// cloneScores returns a copy of s with fresh counters holding the same values.
func (s *State) cloneScores() *State {
	next := s.with()
	next.scores = make(map[Player]*Score, len(s.scores))
	for p, score := range s.scores {
		fresh := &Score{}
		fresh.Add(score.Value())
		next.scores[p] = fresh
	}
	return next
}

// IncrementScore adds amount to p's counter and returns s itself, since the
// score mapping does not change.
func (s *State) IncrementScore(p Player, amount int) *State {
	score, ok := s.scores[p]
	if !ok {
		panic(fmt.Sprintf("game: no score for player %q", p.Name()))
	}
	score.Add(amount)
	return s
}

func (s *State) Round() int { return s.round }

// CurrentCard reports the card of the running round; ok is false before the game starts.
func (s *State) CurrentCard() (card Card, ok bool) {
	return s.card, s.hasCard
}

// Player looks up a registered player by name.
func (s *State) Player(name string) (Player, bool) {
	p, ok := s.players[name]
	return p, ok
}

// Players returns the registered players sorted by name.
func (s *State) Players() []Player {
	players := slices.Collect(maps.Values(s.players))
	slices.SortFunc(players, func(a, b Player) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return players
}

func (s *State) NumPlayers() int { return len(s.players) }

func (s *State) HasPlayer(p Player) bool {
	current, ok := s.players[p.Name()]
	return ok && current == p
}

// Score returns p's current score.
func (s *State) Score(p Player) (int, bool) {
	score, ok := s.scores[p]
	if !ok {
		return 0, false
	}
	return score.Value(), true
}

// Scores returns a copy of every tracked score, including players that left
// during the current round.
func (s *State) Scores() map[Player]int {
	out := make(map[Player]int, len(s.scores))
	for p, score := range s.scores {
		out[p] = score.Value()
	}
	return out
}

func (s *State) Guess(p Player) (Guess, bool) {
	g, ok := s.guesses[p]
	return g, ok
}

// Guesses returns a copy of the guesses made this round.
func (s *State) Guesses() map[Player]Guess {
	return maps.Clone(s.guesses)
}

func (s *State) NumGuesses() int { return len(s.guesses) }

// Pending returns the registered players that have not guessed this round, sorted by name.
func (s *State) Pending() []Player {
	var pending []Player
	for _, p := range s.Players() {
		if _, ok := s.guesses[p]; !ok {
			pending = append(pending, p)
		}
	}
	return pending
}

// EveryoneGuessed reports whether the round can resolve. Guessers are compared
// with >= because a player may guess and then leave before the round ends.
func (s *State) EveryoneGuessed() bool {
	return len(s.guesses) >= len(s.players)
}
