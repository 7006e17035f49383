package store

import "github.com/calvinwijaya/highlow-game-be/internal/db"

type (
	RoundRecord = db.RoundRecord
	PlayerStats = db.PlayerStats
)

// ErrNotFound is returned for unknown rounds and players.
var ErrNotFound = db.ErrNotFound

// Store defines the interface for round history storage
type Store interface {
	// SaveRound records the state at the start of a round
	SaveRound(r RoundRecord) error

	// GetRound retrieves one round of a game
	GetRound(gameID string, round int) (*RoundRecord, error)

	// ListRounds returns up to limit rounds of a game, newest first
	ListRounds(gameID string, limit int) ([]RoundRecord, error)

	// GetPlayerStats aggregates a player's rounds across all games
	GetPlayerStats(playerName string) (*PlayerStats, error)
}
