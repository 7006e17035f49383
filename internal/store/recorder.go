package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
)

var errQueueFull = errors.New("history queue full")

// Recorder is a game observer that saves one RoundRecord per round. Records
// are queued and written by Run so that storage latency never holds up the
// engine.
type Recorder struct {
	store  Store
	gameID string
	queue  chan RoundRecord
	logger *slog.Logger
	now    func() time.Time

	// only touched from observer callbacks, which the engine serializes
	lastRound int
}

func NewRecorder(s Store, gameID string, buffer int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Recorder{
		store:  s,
		gameID: gameID,
		queue:  make(chan RoundRecord, buffer),
		logger: logger.With("component", "recorder", "game_id", gameID),
		now:    time.Now,
	}
}

func (r *Recorder) GameID() string { return r.gameID }

// UpdateState queues a record the first time a round is seen.
func (r *Recorder) UpdateState(state *game.State) error {
	card, ok := state.CurrentCard()
	if !ok || state.Round() <= r.lastRound {
		return nil
	}
	r.lastRound = state.Round()

	scores := make(map[string]int)
	for p, score := range state.Scores() {
		scores[p.Name()] = score
	}
	rec := RoundRecord{
		GameID:      r.gameID,
		Round:       state.Round(),
		Card:        card.String(),
		PlayerCount: state.NumPlayers(),
		Scores:      scores,
		StartedAt:   r.now(),
	}

	select {
	case r.queue <- rec:
		return nil
	default:
		return errQueueFull
	}
}

func (r *Recorder) PlayerJoined(string, *game.State) error { return nil }
func (r *Recorder) PlayerLeft(string, *game.State) error   { return nil }

// Run writes queued records until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case rec := <-r.queue:
			r.save(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-r.queue:
					r.save(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) save(rec RoundRecord) {
	if err := r.store.SaveRound(rec); err != nil {
		r.logger.Error("failed to save round", "round", rec.Round, "error", err)
		return
	}
	r.logger.Debug("round saved", "round", rec.Round, "card", rec.Card)
}
