package session

import "context"

// Tracker records database reachability and connection counts for one
// client. A tracker is created per request and handed to the storage layer
// explicitly.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// DBState returns the last recorded database state, "" when none.
func (t *Tracker) DBState() string {
	if value, ok := t.store.Get(KeyDBState); ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

func (t *Tracker) SetDBState(state string) {
	t.store.Set(KeyDBState, state)
}

// DBConnections returns the connection counter, 0 when absent.
func (t *Tracker) DBConnections() int {
	if value, ok := t.store.Get(KeyDBConnections); ok {
		if n, ok := value.(int); ok {
			return n
		}
	}
	return 0
}

// RecordConnection counts a successful connection open. The first
// connection of a session initialises the counter to 0; every later one
// adds one.
func (t *Tracker) RecordConnection() {
	if _, ok := t.store.Get(KeyDBConnections); !ok {
		t.store.Set(KeyDBConnections, 0)
		return
	}
	t.store.Set(KeyDBConnections, t.DBConnections()+1)
}

// AddFlash queues a message for the next rendered page.
func (t *Tracker) AddFlash(msg string) {
	flashes := t.peekFlashes()
	t.store.Set(keyFlashes, append(flashes, msg))
}

// Flashes returns and clears the queued messages.
func (t *Tracker) Flashes() []string {
	flashes := t.peekFlashes()
	if len(flashes) > 0 {
		t.store.Set(keyFlashes, []string{})
	}
	return flashes
}

func (t *Tracker) peekFlashes() []string {
	if value, ok := t.store.Get(keyFlashes); ok {
		if s, ok := value.([]string); ok {
			return s
		}
	}
	return nil
}

type trackerContextKey struct{}

// WithTracker attaches t to ctx so handlers can pass it on.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerContextKey{}, t)
}

// FromContext returns the request tracker. Requests that did not pass
// through the session middleware get a throwaway in-memory tracker.
func FromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerContextKey{}).(*Tracker); ok {
		return t
	}
	return NewTracker(MemoryStore{})
}
