package game

import "errors"

var (
	ErrInvalidRank         = errors.New("invalid rank")
	ErrInvalidSuit         = errors.New("invalid suit")
	ErrInvalidCard         = errors.New("invalid card")
	ErrNoNextCard          = errors.New("no next card")
	ErrInvalidPlayerName   = errors.New("invalid player name")
	ErrDuplicatePlayerName = errors.New("duplicate player name")
	ErrInvalidGuess        = errors.New("invalid guess")
	ErrNotStarted          = errors.New("game not started")
	ErrAlreadyStarted      = errors.New("game already started")
	ErrHalted              = errors.New("game halted")
)
