package game

import (
	"fmt"
	"log/slog"
)

// Observer receives game notifications. Implementations are used as map keys
// and must be comparable; pointer receivers are the usual choice.
//
// Callbacks run while the engine holds its lock. They must not call back into
// mutating Engine methods and should return quickly.
type Observer interface {
	UpdateState(state *State) error
	PlayerJoined(name string, state *State) error
	PlayerLeft(name string, state *State) error
}

// Player is an Observer taking part in the game under a unique name.
type Player interface {
	Observer
	Name() string
}

// Registry is the set of observers notified on every state change.
// It is not safe for concurrent use; Engine guards it with its own lock.
type Registry struct {
	members map[Observer]struct{}
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		members: make(map[Observer]struct{}),
		logger:  logger,
	}
}

// Subscribe adds o. Subscribing a member again is a no-op.
func (r *Registry) Subscribe(o Observer) {
	r.members[o] = struct{}{}
}

// Unsubscribe removes o. Unsubscribing a non-member is a no-op.
func (r *Registry) Unsubscribe(o Observer) {
	delete(r.members, o)
}

func (r *Registry) Contains(o Observer) bool {
	_, ok := r.members[o]
	return ok
}

func (r *Registry) Len() int {
	return len(r.members)
}

func (r *Registry) NotifyState(state *State) {
	r.each("state", func(o Observer) error { return o.UpdateState(state) })
}

func (r *Registry) NotifyJoined(name string, state *State) {
	r.each("joined", func(o Observer) error { return o.PlayerJoined(name, state) })
}

func (r *Registry) NotifyLeft(name string, state *State) {
	r.each("left", func(o Observer) error { return o.PlayerLeft(name, state) })
}

func (r *Registry) each(event string, fn func(Observer) error) {
	for o := range r.members {
		if err := r.deliver(o, fn); err != nil {
			r.logger.Warn("observer notification failed",
				"event", event,
				"observer", observerName(o),
				"error", err)
		}
	}
}

// deliver isolates one observer: a returned error or a panic is reported
// without affecting delivery to the others.
func (r *Registry) deliver(o Observer, fn func(Observer) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("observer panicked: %v", rec)
		}
	}()
	return fn(o)
}

func observerName(o Observer) string {
	if p, ok := o.(Player); ok {
		return p.Name()
	}
	return fmt.Sprintf("%T", o)
}
