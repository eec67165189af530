// Package annotations records what the viewer did while serving a command:
// loads, queries, view rebuilds, reasoning passes and the errors that were
// absorbed into diagnostics instead of being returned.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Fact store
	StoreLoaded     = "store/loaded"
	StoreAsserted   = "store/asserted"
	StoreSerialized = "store/serialized"

	// Query lifecycle
	QueryInvoked  = "query/invoked"
	QueryComplete = "query/completed"

	// Derived views
	HierarchyBuilt = "view/hierarchy.built"
	CatalogBuilt   = "view/catalog.built"
	PopulatedBuilt = "view/populated.built"
	SearchIndexed  = "view/search.indexed"

	// Reasoning
	ReasoningPass     = "reasoning/pass"
	ReasoningComplete = "reasoning/complete"

	// Editing
	EditorAdded = "editor/added"

	// Errors
	ErrorParse      = "error/parse"
	ErrorView       = "error/view"
	ErrorCycle      = "error/cycle"
	ErrorLookup     = "error/lookup"
	ErrorValidation = "error/validation"
	ErrorBackend    = "error/backend"
)

// Event represents a single annotation event.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Additional event-specific data
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events. A nil *Collector discards everything.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex
}

// NewCollector creates a new annotation collector. Events are kept even
// without a handler so callers can inspect them afterwards.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: true,
		handler: handler,
		events:  make([]Event, 0, 64),
	}
}

// Add records a new event.
// Thread-safe for concurrent access.
func (c *Collector) Add(event Event) {
	if c == nil || !c.enabled {
		return
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	// Call handler outside the lock to avoid deadlocks
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event with timing information.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if c == nil || !c.enabled {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// AddError records an error event with its source
func (c *Collector) AddError(name, source string, err error) {
	now := time.Now()
	c.Add(Event{
		Name:  name,
		Start: now,
		End:   now,
		Data:  map[string]interface{}{"source": source, "error": err},
	})
}

// Events returns all collected events.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Since returns the events recorded after the first n
func (c *Collector) Since(n int) []Event {
	events := c.Events()
	if n >= len(events) {
		return nil
	}
	return events[n:]
}

// Len returns the number of collected events
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Reset clears the collector for reuse.
// Thread-safe for concurrent access.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
