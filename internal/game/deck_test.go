package game

import (
	"errors"
	"testing"
)

func TestFixedDeck(t *testing.T) {
	d := NewFixedDeck(MustCard(Diamonds, 1), MustCard(Hearts, 13))
	if d.Remaining() != 2 {
		t.Fatalf("expected 2 cards, got %d", d.Remaining())
	}

	for _, want := range []string{"D01", "H13"} {
		if !d.HasNext() {
			t.Fatal("deck exhausted early")
		}
		c, err := d.Next()
		if err != nil {
			t.Fatal(err)
		}
		if c.String() != want {
			t.Fatalf("got %s, want %s", c, want)
		}
	}

	if d.HasNext() {
		t.Fatal("expected exhausted deck")
	}
	if _, err := d.Next(); !errors.Is(err, ErrNoNextCard) {
		t.Fatalf("expected ErrNoNextCard, got %v", err)
	}
}

func TestRandomDeckNeverExhausts(t *testing.T) {
	d := NewRandomDeck(nil, 42)
	valid := map[Card]bool{}
	for _, c := range AllCards() {
		valid[c] = true
	}
	for i := 0; i < 1000; i++ {
		if !d.HasNext() {
			t.Fatal("random deck reported exhaustion")
		}
		c, err := d.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !valid[c] {
			t.Fatalf("invalid card %v", c)
		}
	}
}

func TestRandomDeckSeeded(t *testing.T) {
	a, b := NewRandomDeck(nil, 7), NewRandomDeck(nil, 7)
	for i := 0; i < 50; i++ {
		ca, _ := a.Next()
		cb, _ := b.Next()
		if ca != cb {
			t.Fatalf("draw %d differs: %v vs %v", i, ca, cb)
		}
	}
}

func TestRandomDeckSubset(t *testing.T) {
	only := MustCard(Spades, 12)
	d := NewRandomDeck([]Card{only}, 0)
	for i := 0; i < 10; i++ {
		if c, _ := d.Next(); c != only {
			t.Fatalf("got %v, want %v", c, only)
		}
	}
}
