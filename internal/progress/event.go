// Package progress provides the append-only event log that connects a running
// research pipeline with its observers, and the polling observer that consumes it.
package progress

import "time"

// Status is the lifecycle status carried by an event
type Status string

// Event statuses
const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the status closes a started event
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Component names the subsystem that produced an event
type Component string

// Components that emit events
const (
	ComponentOrchestrator Component = "orchestrator"
	ComponentSearch       Component = "search"
	ComponentInference    Component = "inference"
)

// Key identifies a (component, action) pair
type Key struct {
	Component Component
	Action    string
}

func (k Key) String() string {
	return string(k.Component) + "/" + k.Action
}

// Event is an immutable lifecycle record. Meta must not be mutated after Append.
type Event struct {
	Seq       int            `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Component Component      `json:"component"`
	Action    string         `json:"action"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Key returns the (component, action) pair of the event
func (e Event) Key() Key {
	return Key{Component: e.Component, Action: e.Action}
}
