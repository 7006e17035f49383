package game

import (
	"math/rand/v2"
	"sync"
)

// Deck is a source of cards.
type Deck interface {
	HasNext() bool
	// Next returns ErrNoNextCard once the deck is exhausted.
	Next() (Card, error)
}

// FixedDeck deals a fixed sequence of cards in order.
type FixedDeck struct {
	mu    sync.Mutex
	cards []Card
}

// NewFixedDeck creates a finite deck that deals cards in the given order.
func NewFixedDeck(cards ...Card) *FixedDeck {
	return &FixedDeck{cards: append([]Card(nil), cards...)}
}

func (d *FixedDeck) HasNext() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards) > 0
}

// Next removes and returns the top card from the deck
func (d *FixedDeck) Next() (Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.cards) == 0 {
		return Card{}, ErrNoNextCard
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Remaining returns the number of cards left in the deck
func (d *FixedDeck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// RandomDeck draws uniformly, with replacement, from a set of cards. It never runs out.
type RandomDeck struct {
	mu    sync.Mutex
	cards []Card
	rng   *rand.Rand
}

// NewRandomDeck creates an infinite deck over cards, or over AllCards when cards is empty.
// A zero seed picks a random one.
func NewRandomDeck(cards []Card, seed uint64) *RandomDeck {
	if len(cards) == 0 {
		cards = AllCards()
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomDeck{
		cards: append([]Card(nil), cards...),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// HasNext always reports true.
func (d *RandomDeck) HasNext() bool { return true }

func (d *RandomDeck) Next() (Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cards[d.rng.IntN(len(d.cards))], nil
}
