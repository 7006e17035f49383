package game

import (
	"errors"
	"fmt"
	"sync"
)

type event struct {
	kind    string
	name    string
	round   int
	players int
	score   int
}

// testPlayer records every notification it receives.
type testPlayer struct {
	name string
	fail bool

	mu     sync.Mutex
	events []event
}

func newTestPlayer(name string) *testPlayer {
	return &testPlayer{name: name}
}

func (p *testPlayer) Name() string { return p.name }

func (p *testPlayer) record(kind, name string, s *State) error {
	score, _ := s.Score(p)
	p.mu.Lock()
	p.events = append(p.events, event{
		kind:    kind,
		name:    name,
		round:   s.Round(),
		players: s.NumPlayers(),
		score:   score,
	})
	p.mu.Unlock()
	if p.fail {
		return errors.New("write failed")
	}
	return nil
}

func (p *testPlayer) UpdateState(s *State) error { return p.record("state", "", s) }

func (p *testPlayer) PlayerJoined(name string, s *State) error {
	return p.record("joined", name, s)
}

func (p *testPlayer) PlayerLeft(name string, s *State) error {
	return p.record("left", name, s)
}

func (p *testPlayer) Events() []event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event(nil), p.events...)
}

func (p *testPlayer) Last() event {
	events := p.Events()
	if len(events) == 0 {
		return event{}
	}
	return events[len(events)-1]
}

func (p *testPlayer) Reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

// panicObserver panics on every notification.
type panicObserver struct{}

func (panicObserver) UpdateState(*State) error          { panic("boom") }
func (panicObserver) PlayerJoined(string, *State) error { panic("boom") }
func (panicObserver) PlayerLeft(string, *State) error   { panic("boom") }

func kinds(events []event) string {
	s := ""
	for i, e := range events {
		if i > 0 {
			s += ","
		}
		s += e.kind
		if e.name != "" {
			s += ":" + e.name
		}
	}
	return s
}

func mustCards(codes ...string) []Card {
	cards := make([]Card, len(codes))
	for i, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			panic(fmt.Sprintf("bad card %q: %v", code, err))
		}
		cards[i] = c
	}
	return cards
}
