package form

import (
	"sync"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Controller owns one screen's form state and notifies subscribers on every
// change. State lives with the controller, not in package-level variables, so
// its lifecycle matches the screen that created it.
type Controller struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int

	// now is injectable for deterministic past-date tests.
	now func() time.Time
}

// NewController creates a controller with an empty state for the given mode.
func NewController(mode Mode) *Controller {
	return &Controller{
		state: NewState(mode),
		subs:  map[int]func(State){},
		now:   time.Now,
	}
}

// WithClock overrides the controller's time source. Returns the controller
// for chaining during setup.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener invoked with every new snapshot. The
// returned function unsubscribes it.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// SetField validates and applies a field edit, then notifies subscribers.
func (c *Controller) SetField(f Field, raw string) {
	c.apply(func(s State, now time.Time) State {
		return SetField(s, f, raw, now)
	})
}

// SetLocation applies a resolved location selection (nil clears it).
func (c *Controller) SetLocation(loc *event.Location) {
	c.apply(func(s State, now time.Time) State {
		return SetLocation(s, loc)
	})
}

// SetGroupLinked marks the record as group-associated, waiving the inherited
// fields.
func (c *Controller) SetGroupLinked(linked bool) {
	c.apply(func(s State, now time.Time) State {
		next := s.clone()
		next.GroupLinked = linked
		return next
	})
}

// SetCurrentParticipants updates the capacity floor and re-validates the
// capacity field against it when one is set.
func (c *Controller) SetCurrentParticipants(count int) {
	c.apply(func(s State, now time.Time) State {
		next := s.clone()
		next.CurrentParticipants = count
		if raw := next.values[FieldCapacity]; raw != "" {
			next.applyOutcome(FieldCapacity, raw, ValidateCapacity(raw, count))
		}
		return next
	})
}

// Savable reports the aggregate validity of the current snapshot.
func (c *Controller) Savable() bool {
	return c.State().Savable()
}

// apply runs a reducer under the lock and notifies subscribers outside it.
func (c *Controller) apply(reduce func(State, time.Time) State) {
	c.mu.Lock()
	c.state = reduce(c.state, c.now())
	snapshot := c.state
	listeners := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
