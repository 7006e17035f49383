package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

// RoundRecord is the state of a game at the start of a round.
type RoundRecord struct {
	GameID      string         `json:"gameId"`
	Round       int            `json:"round"`
	Card        string         `json:"card"`
	PlayerCount int            `json:"playerCount"`
	Scores      map[string]int `json:"scores"`
	StartedAt   time.Time      `json:"startedAt"`
}

type PlayerStats struct {
	PlayerName   string    `json:"playerName"`
	RoundsPlayed int       `json:"roundsPlayed"`
	BestScore    int       `json:"bestScore"`
	LastScore    int       `json:"lastScore"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// NewDatabase opens a database with the given driver ("sqlite3" or "postgres")
// and creates the tables if needed.
func NewDatabase(driver, dsn string) (*Database, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if driver == "sqlite3" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			game_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			card TEXT NOT NULL,
			player_count INTEGER NOT NULL,
			started_at TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, round)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating rounds table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS round_scores (
			game_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (game_id, round, player_name),
			FOREIGN KEY (game_id, round) REFERENCES rounds (game_id, round)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating round_scores table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveRound stores a round and its scores. Saving a round twice keeps the first copy.
func (d *Database) SaveRound(r RoundRecord) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO rounds (game_id, round, card, player_count, started_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, round) DO NOTHING
	`, r.GameID, r.Round, r.Card, r.PlayerCount, r.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("error saving round %d: %w", r.Round, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	for name, score := range r.Scores {
		_, err := tx.Exec(
			"INSERT INTO round_scores (game_id, round, player_name, score) VALUES ($1, $2, $3, $4)",
			r.GameID, r.Round, name, score,
		)
		if err != nil {
			return fmt.Errorf("error saving score for %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// GetRound retrieves one round of a game
func (d *Database) GetRound(gameID string, round int) (*RoundRecord, error) {
	r := RoundRecord{GameID: gameID, Round: round}
	err := d.db.QueryRow(
		"SELECT card, player_count, started_at FROM rounds WHERE game_id = $1 AND round = $2",
		gameID, round,
	).Scan(&r.Card, &r.PlayerCount, &r.StartedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if r.Scores, err = d.roundScores(gameID, round); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRounds returns up to limit rounds of a game, newest first
func (d *Database) ListRounds(gameID string, limit int) ([]RoundRecord, error) {
	rows, err := d.db.Query(`
		SELECT round, card, player_count, started_at FROM rounds
		WHERE game_id = $1 ORDER BY round DESC LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []RoundRecord
	for rows.Next() {
		r := RoundRecord{GameID: gameID}
		if err := rows.Scan(&r.Round, &r.Card, &r.PlayerCount, &r.StartedAt); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range rounds {
		if rounds[i].Scores, err = d.roundScores(gameID, rounds[i].Round); err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

func (d *Database) roundScores(gameID string, round int) (map[string]int, error) {
	rows, err := d.db.Query(
		"SELECT player_name, score FROM round_scores WHERE game_id = $1 AND round = $2",
		gameID, round,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := map[string]int{}
	for rows.Next() {
		var name string
		var score int
		if err := rows.Scan(&name, &score); err != nil {
			return nil, err
		}
		scores[name] = score
	}
	return scores, rows.Err()
}

// GetPlayerStats aggregates a player's recorded rounds across all games
func (d *Database) GetPlayerStats(playerName string) (*PlayerStats, error) {
	stats := PlayerStats{PlayerName: playerName}

	err := d.db.QueryRow(
		"SELECT COUNT(*), COALESCE(MAX(score), 0) FROM round_scores WHERE player_name = $1",
		playerName,
	).Scan(&stats.RoundsPlayed, &stats.BestScore)
	if err != nil {
		return nil, fmt.Errorf("error getting rounds played: %w", err)
	}
	if stats.RoundsPlayed == 0 {
		return nil, ErrNotFound
	}

	err = d.db.QueryRow(`
		SELECT s.score, r.started_at FROM round_scores s
		JOIN rounds r ON r.game_id = s.game_id AND r.round = s.round
		WHERE s.player_name = $1
		ORDER BY r.started_at DESC, r.round DESC LIMIT 1
	`, playerName).Scan(&stats.LastScore, &stats.LastPlayed)
	if err != nil {
		return nil, fmt.Errorf("error getting last played: %w", err)
	}

	return &stats, nil
}
