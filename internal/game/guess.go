package game

import "fmt"

type Guess string

const (
	High  Guess = "HIGH"
	Low   Guess = "LOW"
	Equal Guess = "EQUAL"
)

// Points paid for a correct guess.
const (
	HighLowPoints = 1
	EqualPoints   = 25
)

func ParseGuess(text string) (Guess, error) {
	g := Guess(text)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGuess, text)
	}
	return g, nil
}

func (g Guess) Valid() bool {
	switch g {
	case High, Low, Equal:
		return true
	}
	return false
}

// Points returns the reward for g when it is correct.
func (g Guess) Points() int {
	switch g {
	case High, Low:
		return HighLowPoints
	case Equal:
		return EqualPoints
	}
	panic(fmt.Sprintf("game: unknown guess %q", string(g)))
}

// Outcome returns the guess that is correct when current is followed by next.
func Outcome(current, next Card) Guess {
	switch current.Compare(next) {
	case -1:
		return High
	case 1:
		return Low
	default:
		return Equal
	}
}
