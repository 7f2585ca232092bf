package progress

import "fmt"

// LifecycleError describes an event sequence that breaks the ordering rules
type LifecycleError struct {
	Index   int
	Event   Event
	Message string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("event %d (%s %s): %s", e.Index, e.Event.Key(), e.Event.Status, e.Message)
}

// CheckLifecycle verifies that timestamps are non-decreasing, that every terminal
// event closes an open started event with the same key, and that no key is started
// twice without an intervening terminal event. A key may still be open at the
// end, which is the normal state of a snapshot taken mid-run.
func CheckLifecycle(events []Event) error {
	open := make(map[Key]bool)
	for i, e := range events {
		if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
			return &LifecycleError{Index: i, Event: e, Message: "timestamp earlier than previous event"}
		}
		switch {
		case e.Status == StatusStarted:
			if open[e.Key()] {
				return &LifecycleError{Index: i, Event: e, Message: "started again before a terminal event"}
			}
			open[e.Key()] = true
		case e.Status.Terminal():
			if !open[e.Key()] {
				return &LifecycleError{Index: i, Event: e, Message: "terminal event without a started event"}
			}
			open[e.Key()] = false
		default:
			return &LifecycleError{Index: i, Event: e, Message: "unknown status"}
		}
	}
	return nil
}
