package game

import (
	"fmt"
	"strconv"
)

type Suit int

// Suits in ascending tie-break order.
const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const (
	MinRank = 1
	MaxRank = 13
)

var suitNames = [...]string{"CLUBS", "DIAMONDS", "HEARTS", "SPADES"}
var suitCodes = [...]string{"C", "D", "H", "S"}

// Suits returns all suits in ascending order.
func Suits() []Suit {
	return []Suit{Clubs, Diamonds, Hearts, Spades}
}

func (s Suit) valid() bool {
	return s >= Clubs && s <= Spades
}

// String returns the suit name, e.g. "HEARTS".
func (s Suit) String() string {
	if !s.valid() {
		return "Suit(" + strconv.Itoa(int(s)) + ")"
	}
	return suitNames[s]
}

// Code returns the single-letter suit code used in card text.
func (s Suit) Code() string {
	if !s.valid() {
		return "?"
	}
	return suitCodes[s]
}

// ParseSuit accepts either the suit name or its single-letter code.
func ParseSuit(text string) (Suit, error) {
	for i := range suitNames {
		if text == suitNames[i] || text == suitCodes[i] {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSuit, text)
}

// Card is an immutable playing card.
type Card struct {
	suit Suit
	rank int
}

// NewCard creates a card, failing if rank is outside [MinRank, MaxRank].
func NewCard(suit Suit, rank int) (Card, error) {
	if rank < MinRank || rank > MaxRank {
		return Card{}, fmt.Errorf("%w: a card cannot have a rank of %d", ErrInvalidRank, rank)
	}
	if !suit.valid() {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidSuit, int(suit))
	}
	return Card{suit: suit, rank: rank}, nil
}

// MustCard is NewCard for constant inputs. It panics on an invalid rank.
func MustCard(suit Suit, rank int) Card {
	c, err := NewCard(suit, rank)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCard parses the text form produced by Card.String, e.g. "D01".
func ParseCard(text string) (Card, error) {
	if len(text) != 3 {
		return Card{}, fmt.Errorf("%w: malformed card %q", ErrInvalidCard, text)
	}
	suit, err := ParseSuit(text[:1])
	if err != nil {
		return Card{}, err
	}
	rank, err := strconv.Atoi(text[1:])
	if err != nil {
		return Card{}, fmt.Errorf("%w: malformed card %q", ErrInvalidCard, text)
	}
	return NewCard(suit, rank)
}

// AllCards returns the 52 distinct valid cards.
func AllCards() []Card {
	cards := make([]Card, 0, len(suitNames)*MaxRank)
	for _, suit := range Suits() {
		for rank := MinRank; rank <= MaxRank; rank++ {
			cards = append(cards, Card{suit: suit, rank: rank})
		}
	}
	return cards
}

func (c Card) Suit() Suit { return c.suit }
func (c Card) Rank() int  { return c.rank }

func (c Card) ordinal() int {
	return c.rank*4 + int(c.suit)
}

// Compare orders cards by rank, then by suit. It returns -1, 0 or +1.
func (c Card) Compare(other Card) int {
	a, b := c.ordinal(), other.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (c Card) Less(other Card) bool {
	return c.Compare(other) < 0
}

// String returns the suit code followed by the two-digit rank, e.g. "H13".
func (c Card) String() string {
	return fmt.Sprintf("%s%02d", c.suit.Code(), c.rank)
}
