package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/store"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	defaultRoundsLimit = 20
	maxRoundsLimit     = 500
)

// Handlers contains all the API handlers
type Handlers struct {
	engine     *game.Engine
	store      store.Store
	gameID     string
	sendBuffer int
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	origins []string
	clients map[*wsClient]struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewHandlers creates a new instance of Handlers
func NewHandlers(engine *game.Engine, history store.Store, gameID string, sendBuffer int, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		engine:     engine,
		store:      history,
		gameID:     gameID,
		sendBuffer: sendBuffer,
		logger:     logger,
		clients:    make(map[*wsClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/state", h.GetState).Methods("GET")
	r.HandleFunc("/api/rounds", h.ListRounds).Methods("GET")
	r.HandleFunc("/api/rounds/{round:[0-9]+}", h.GetRound).Methods("GET")
	r.HandleFunc("/api/players/{name}/stats", h.GetPlayerStats).Methods("GET")
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", h.WebSocketHandler)
}

// LoggingMiddleware logs every request with its duration
func LoggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("http request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start))
		})
	}
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

type cardView struct {
	Code  string `json:"code"`
	Suit  string `json:"suit"`
	Value int    `json:"value"`
}

type playerView struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Guessed bool   `json:"guessed"`
}

type stateView struct {
	GameID      string       `json:"gameId"`
	Round       int          `json:"round"`
	CurrentCard *cardView    `json:"currentCard"`
	Players     []playerView `json:"players"`
	NumPlayers  int          `json:"numPlayers"`
	NumPending  int          `json:"numPending"`
}

func newStateView(gameID string, s *game.State) stateView {
	view := stateView{
		GameID:     gameID,
		Round:      s.Round(),
		Players:    []playerView{},
		NumPlayers: s.NumPlayers(),
		NumPending: len(s.Pending()),
	}
	if card, ok := s.CurrentCard(); ok {
		view.CurrentCard = &cardView{Code: card.String(), Suit: card.Suit().String(), Value: card.Rank()}
	}
	for _, p := range s.Players() {
		score, _ := s.Score(p)
		_, guessed := s.Guess(p)
		view.Players = append(view.Players, playerView{Name: p.Name(), Score: score, Guessed: guessed})
	}
	return view
}

// GetState returns the current state of the game
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	response(w, http.StatusOK, newStateView(h.gameID, h.engine.State()))
}

// ListRounds returns the most recent rounds of the running game
func (h *Handlers) ListRounds(w http.ResponseWriter, r *http.Request) {
	limit := defaultRoundsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRoundsLimit {
			errorResponse(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxRoundsLimit))
			return
		}
		limit = n
	}

	rounds, err := h.store.ListRounds(h.gameID, limit)
	if err != nil {
		h.logger.Error("list rounds failed", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving rounds")
		return
	}
	if rounds == nil {
		rounds = []store.RoundRecord{}
	}
	response(w, http.StatusOK, rounds)
}

// GetRound returns one round of the running game
func (h *Handlers) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid round")
		return
	}

	rec, err := h.store.GetRound(h.gameID, round)
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, "Round not found")
		return
	}
	if err != nil {
		h.logger.Error("get round failed", "round", round, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving round")
		return
	}
	response(w, http.StatusOK, rec)
}

// GetPlayerStats returns player statistics
func (h *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	stats, err := h.store.GetPlayerStats(name)
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		h.logger.Error("get player stats failed", "player", name, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving player statistics")
		return
	}
	response(w, http.StatusOK, stats)
}

// Health reports whether the game is still running
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.engine.Done():
		errorResponse(w, http.StatusServiceUnavailable, h.engine.Err().Error())
	default:
		response(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"round":  h.engine.State().Round(),
		})
	}
}
