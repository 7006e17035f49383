package store

import (
	"maps"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of round history storage
type MemoryStore struct {
	games map[string]map[int]RoundRecord
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]map[int]RoundRecord),
	}
}

// SaveRound saves a round to the store. Saving a round twice keeps the first copy.
func (s *MemoryStore) SaveRound(r RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rounds, exists := s.games[r.GameID]
	if !exists {
		rounds = make(map[int]RoundRecord)
		s.games[r.GameID] = rounds
	}
	if _, exists := rounds[r.Round]; exists {
		return nil
	}
	r.Scores = maps.Clone(r.Scores)
	rounds[r.Round] = r

	return nil
}

// GetRound retrieves a round by game and number
func (s *MemoryStore) GetRound(gameID string, round int) (*RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.games[gameID][round]
	if !exists {
		return nil, ErrNotFound
	}
	r.Scores = maps.Clone(r.Scores)
	return &r, nil
}

// ListRounds returns up to limit rounds of a game, newest first
func (s *MemoryStore) ListRounds(gameID string, limit int) ([]RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := make([]RoundRecord, 0, len(s.games[gameID]))
	for _, r := range s.games[gameID] {
		r.Scores = maps.Clone(r.Scores)
		rounds = append(rounds, r)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round > rounds[j].Round })

	if limit >= 0 && len(rounds) > limit {
		rounds = rounds[:limit]
	}
	return rounds, nil
}

// GetPlayerStats aggregates a player's rounds across all games
func (s *MemoryStore) GetPlayerStats(playerName string) (*PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := PlayerStats{PlayerName: playerName}
	lastRound := 0
	for _, rounds := range s.games {
		for _, r := range rounds {
			score, played := r.Scores[playerName]
			if !played {
				continue
			}
			stats.RoundsPlayed++
			if stats.RoundsPlayed == 1 || score > stats.BestScore {
				stats.BestScore = score
			}
			newer := r.StartedAt.After(stats.LastPlayed) ||
				(r.StartedAt.Equal(stats.LastPlayed) && r.Round > lastRound)
			if stats.RoundsPlayed == 1 || newer {
				stats.LastPlayed = r.StartedAt
				stats.LastScore = score
				lastRound = r.Round
			}
		}
	}

	if stats.RoundsPlayed == 0 {
		return nil, ErrNotFound
	}
	return &stats, nil
}
