package game

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Engine coordinates one high-low game shared by every connected player.
//
// Mutating methods run under a single lock covering the whole
// read-transition-publish-notify sequence, so published snapshots form one
// total order. State may be called at any time without locking.
type Engine struct {
	mu        sync.Mutex
	deck      Deck
	observers *Registry
	logger    *slog.Logger
	started   bool

	state atomic.Pointer[State]

	haltErr  error
	done     chan struct{}
	haltOnce sync.Once
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine in round 0 that draws from deck.
func NewEngine(deck Deck, opts ...Option) *Engine {
	e := &Engine{
		deck:   deck,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.observers = NewRegistry(e.logger)
	e.state.Store(NewState())
	return e
}

// State returns the current snapshot.
func (e *Engine) State() *State {
	return e.state.Load()
}

// Done is closed once the engine halts on a fatal error.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the fatal error that halted the engine, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.haltErr
}

// Start draws the first card and opens round 1.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return err
	}
	if e.started {
		return ErrAlreadyStarted
	}

	card, err := e.draw()
	if err != nil {
		return err
	}
	e.started = true
	state := e.publish(e.State().AdvanceRound(card))
	e.logger.Info("game started", "round", state.Round(), "card", card.String())
	e.observers.NotifyState(state)
	return nil
}

// AddPlayer registers p, announces it to every observer including p, and
// sends p the full state.
func (e *Engine) AddPlayer(p Player) error {
	name := p.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidPlayerName)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return err
	}
	next, err := e.State().AddPlayer(p)
	if err != nil {
		return err
	}
	state := e.publish(next)
	e.observers.Subscribe(p)
	e.logger.Info("player joined", "player", name, "players", state.NumPlayers())

	e.observers.NotifyJoined(name, state)
	if err := e.observers.deliver(p, func(o Observer) error { return o.UpdateState(state) }); err != nil {
		e.logger.Warn("observer notification failed", "event", "state", "observer", name, "error", err)
	}
	return nil
}

// RemovePlayer unregisters p and tells the remaining observers. p must be a
// registered player.
func (e *Engine) RemovePlayer(p Player) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.State()
	if !current.HasPlayer(p) {
		panic(fmt.Sprintf("game: remove of unregistered player %q", p.Name()))
	}
	state := e.publish(current.RemovePlayer(p))
	e.observers.Unsubscribe(p)
	e.logger.Info("player left", "player", p.Name(), "players", state.NumPlayers())

	e.observers.NotifyState(state)
	e.observers.NotifyLeft(p.Name(), state)
}

// Guess records p's guess for the running round. When every player has
// guessed, the round resolves before observers are notified.
// p must be a registered player.
func (e *Engine) Guess(p Player, g Guess) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGuess, string(g))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRunning(); err != nil {
		return err
	}
	if !e.started {
		return ErrNotStarted
	}
	current := e.State()
	if !current.HasPlayer(p) {
		panic(fmt.Sprintf("game: guess from unregistered player %q", p.Name()))
	}

	next := current.AddGuess(p, g)
	if next.EveryoneGuessed() {
		resolved, err := e.resolve(next)
		if err != nil {
			return err
		}
		next = resolved
	}
	state := e.publish(next)
	e.observers.NotifyState(state)
	return nil
}

// Subscribe adds an observer that is not a player, such as a spectator.
func (e *Engine) Subscribe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers.Subscribe(o)
}

func (e *Engine) Unsubscribe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers.Unsubscribe(o)
}

// resolve draws the next card, credits correct guesses and advances the round.
func (e *Engine) resolve(state *State) (*State, error) {
	previous, _ := state.CurrentCard()
	card, err := e.draw()
	if err != nil {
		return nil, err
	}

	outcome := Outcome(previous, card)
	state = state.cloneScores()
	for p, g := range state.guesses {
		if g == outcome {
			state = state.IncrementScore(p, g.Points())
		}
	}
	next := state.AdvanceRound(card)
	e.logger.Info("round resolved",
		"round", state.Round(),
		"previous", previous.String(),
		"card", card.String(),
		"outcome", string(outcome),
		"guesses", state.NumGuesses())
	return next, nil
}

func (e *Engine) draw() (Card, error) {
	card, err := e.deck.Next()
	if err != nil {
		err = fmt.Errorf("draw card: %w", err)
		e.halt(err)
		return Card{}, err
	}
	return card, nil
}

func (e *Engine) publish(state *State) *State {
	e.state.Store(state)
	return state
}

func (e *Engine) checkRunning() error {
	if e.haltErr != nil {
		return fmt.Errorf("%w: %w", ErrHalted, e.haltErr)
	}
	return nil
}

// halt must be called with e.mu held.
func (e *Engine) halt(err error) {
	e.haltOnce.Do(func() {
		e.haltErr = err
		e.logger.Error("game halted", "error", err)
		close(e.done)
	})
}
