package store

import "github.com/calvinwijaya/highlow-game-be/internal/db"

// DatabaseStore is a database implementation of round history storage
type DatabaseStore struct {
	db *db.Database
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database) *DatabaseStore {
	return &DatabaseStore{
		db: database,
	}
}

func (s *DatabaseStore) SaveRound(r RoundRecord) error {
	return s.db.SaveRound(r)
}

func (s *DatabaseStore) GetRound(gameID string, round int) (*RoundRecord, error) {
	return s.db.GetRound(gameID, round)
}

func (s *DatabaseStore) ListRounds(gameID string, limit int) ([]RoundRecord, error) {
	return s.db.ListRounds(gameID, limit)
}

func (s *DatabaseStore) GetPlayerStats(playerName string) (*PlayerStats, error) {
	return s.db.GetPlayerStats(playerName)
}

// Close closes the underlying database
func (s *DatabaseStore) Close() error {
	return s.db.Close()
}
