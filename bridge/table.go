package bridge

import (
	"math"
	"sync"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// Disposer is optionally implemented by registered values that need
// cleanup when their handle is released.
type Disposer interface {
	Dispose()
}

// EventType identifies a handle lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventReleased
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle clrhost.Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// Table maps opaque handles to bridge-owned object entries. Handles are
// allocated monotonically and never reused for a different live object;
// handle 0 is reserved and always invalid. All operations are atomic
// with respect to each other.
type Table struct {
	mu        sync.RWMutex
	entries   map[clrhost.Handle]any
	next      clrhost.Handle
	closed    bool
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{
		entries: make(map[clrhost.Handle]any, 64),
	}
}

// Insert registers a value under a freshly allocated handle.
func (t *Table) Insert(value any) (clrhost.Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.InvalidState(errors.PhaseBridge, "closed")
	}
	if t.next == math.MaxInt32 {
		t.mu.Unlock()
		return 0, errors.Exhausted("handle space")
	}
	t.next++
	handle := t.next
	t.entries[handle] = value
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Value: value})
	return handle, nil
}

// Get retrieves a value by handle.
func (t *Table) Get(handle clrhost.Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[handle]
	return v, ok
}

// Remove drops a handle and returns its value. A handle that was never
// issued or was already removed reports false; the removed handle is
// never handed out again.
func (t *Table) Remove(handle clrhost.Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}
	t.mu.Lock()
	v, ok := t.entries[handle]
	if ok {
		delete(t.entries, handle)
	}
	t.mu.Unlock()
	if !ok {
		return nil, false
	}

	if d, ok := v.(Disposer); ok {
		d.Dispose()
	}
	t.notify(Event{Type: EventReleased, Handle: handle, Value: v})
	return v, true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Each iterates over all live handles.
func (t *Table) Each(fn func(clrhost.Handle, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for h, v := range t.entries {
		if !fn(h, v) {
			break
		}
	}
}

// Clear releases every live handle.
func (t *Table) Clear() {
	var handles []clrhost.Handle
	t.Each(func(h clrhost.Handle, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close releases all handles and stops accepting operations.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	entries := t.entries
	t.entries = make(map[clrhost.Handle]any)
	t.mu.Unlock()

	for _, v := range entries {
		if d, ok := v.(Disposer); ok {
			d.Dispose()
		}
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
