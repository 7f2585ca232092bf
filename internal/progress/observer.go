package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pipeline actions shared by emitters and observers
const (
	ActionAnalyzeQuery   = "analyze_query"
	ActionResearch       = "research"
	ActionAnalyzeContent = "analyze_content"
	ActionGenerateReport = "generate_report"

	ActionSearch = "search"
	ActionInvoke = "invoke"
)

// Meta keys set on completed events and read by observers
const (
	MetaResultCount = "result_count"
	MetaTitles      = "titles"
	MetaChars       = "chars"
	MetaQuery       = "query"
	MetaMaxResults  = "max_results"
)

// DefaultPollInterval is the reference polling interval for observers
const DefaultPollInterval = 300 * time.Millisecond

// DisplayCap is the highest percentage shown before the final result exists
const DisplayCap = 85

// StageWeight assigns completion credit to a pipeline stage
type StageWeight struct {
	Key     Key
	Partial int // Credit once started
	Full    int // Credit once completed
}

// DefaultWeights is the 20/30/30/20 scheme. Report drafting earns nothing until
// it has completed so the estimate never looks finished before the report exists.
var DefaultWeights = []StageWeight{
	{Key: Key{ComponentOrchestrator, ActionAnalyzeQuery}, Partial: 8, Full: 20},
	{Key: Key{ComponentOrchestrator, ActionResearch}, Partial: 12, Full: 30},
	{Key: Key{ComponentOrchestrator, ActionAnalyzeContent}, Partial: 12, Full: 30},
	{Key: Key{ComponentOrchestrator, ActionGenerateReport}, Partial: 0, Full: 20},
}

// Source is anything that can hand out a snapshot of events
type Source interface {
	Snapshot() []Event
}

// RunSource is a Source that can also name the run a snapshot belongs to.
// Both values must come from the same log.
type RunSource interface {
	Source
	RunSnapshot() (uuid.UUID, []Event)
}

// View is the observer's derived state after a poll
type View struct {
	Percent     int
	Latest      []Event  // Latest event per (component, action), in first-seen order
	Active      string   // Most recent pipeline stage seen
	Sources     []string // Titles reported by the search capability
	SourceCount int
	Failed      bool
	Error       string
	Changed     bool // New events were processed by this poll
	Done        bool // The final result exists
}

// Observer derives display state from event snapshots only. It never reads
// pipeline state, so it is safe to run beside the worker that produces events.
// An Observer itself is not safe for concurrent use.
type Observer struct {
	src     Source
	weights []StageWeight

	run       uuid.UUID
	first     *Event
	seen      int
	latest    map[Key]Event
	order     []Key
	started   map[Key]bool
	completed map[Key]bool

	active      string
	sources     []string
	sourceCount int
	failed      bool
	errMsg      string

	resultReady bool
	percent     int
	changed     bool
}

// NewObserver creates an observer over src using DefaultWeights
func NewObserver(src Source) *Observer {
	return NewObserverWithWeights(src, DefaultWeights)
}

// NewObserverWithWeights creates an observer with a custom weighting scheme
func NewObserverWithWeights(src Source, weights []StageWeight) *Observer {
	o := &Observer{src: src, weights: weights}
	o.reset()
	if rs, ok := src.(RunSource); ok {
		o.run, _ = rs.RunSnapshot()
	}
	return o
}

func (o *Observer) reset() {
	o.first = nil
	o.seen = 0
	o.latest = make(map[Key]Event)
	o.order = nil
	o.started = make(map[Key]bool)
	o.completed = make(map[Key]bool)
	o.active = ""
	o.sources = nil
	o.sourceCount = 0
	o.failed = false
	o.errMsg = ""
	o.resultReady = false
	o.percent = 0
}

// Poll takes a snapshot and processes only events it has not seen yet
func (o *Observer) Poll() View {
	events := o.snapshot()
	if len(events) > 0 && o.first == nil {
		first := events[0]
		o.first = &first
	}

	o.changed = len(events) > o.seen
	for _, e := range events[o.seen:] {
		o.apply(e)
	}
	o.seen = len(events)
	o.recompute()

	return o.View()
}

// snapshot reads the source and resets all derived state when the events
// belong to a different run than the ones already processed.
func (o *Observer) snapshot() []Event {
	if rs, ok := o.src.(RunSource); ok {
		id, events := rs.RunSnapshot()
		if id != o.run {
			o.reset()
			o.run = id
		}
		return events
	}

	events := o.src.Snapshot()
	if len(events) < o.seen || (o.first != nil && len(events) > 0 && !sameEvent(*o.first, events[0])) {
		o.reset()
	}
	return events
}

func sameEvent(a, b Event) bool {
	return a.Seq == b.Seq &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Key() == b.Key() &&
		a.Status == b.Status &&
		a.Message == b.Message
}

func (o *Observer) apply(e Event) {
	key := e.Key()
	if _, ok := o.latest[key]; !ok {
		o.order = append(o.order, key)
	}
	o.latest[key] = e

	switch e.Status {
	case StatusStarted:
		o.started[key] = true
	case StatusCompleted:
		o.completed[key] = true
	case StatusError:
		o.failed = true
		o.errMsg = e.Message
	}

	if e.Component == ComponentOrchestrator {
		o.active = e.Action
	}

	if key == (Key{ComponentSearch, ActionSearch}) && e.Status == StatusCompleted {
		if titles, ok := e.Meta[MetaTitles].([]string); ok {
			o.sources = append([]string(nil), titles...)
		}
		if n, ok := e.Meta[MetaResultCount].(int); ok {
			o.sourceCount = n
		}
	}
}

func (o *Observer) recompute() {
	if o.resultReady {
		o.percent = 100
		return
	}

	total := 0
	for _, w := range o.weights {
		switch {
		case o.completed[w.Key]:
			total += w.Full
		case o.started[w.Key]:
			total += w.Partial
		}
	}
	total = min(total, DisplayCap)
	o.percent = max(o.percent, total)
}

// MarkResultReady records that the pipeline produced its final result.
// The displayed estimate jumps to 100 at this point and never before.
func (o *Observer) MarkResultReady() {
	o.resultReady = true
	o.percent = 100
}

// Percent returns the displayed completion estimate
func (o *Observer) Percent() int {
	return o.percent
}

// Latest returns the latest event per key in first-seen order
func (o *Observer) Latest() []Event {
	out := make([]Event, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, o.latest[k])
	}
	return out
}

// View returns the current derived state without polling
func (o *Observer) View() View {
	return View{
		Percent:     o.percent,
		Latest:      o.Latest(),
		Active:      o.active,
		Sources:     append([]string(nil), o.sources...),
		SourceCount: o.sourceCount,
		Failed:      o.failed,
		Error:       o.errMsg,
		Changed:     o.changed,
		Done:        o.resultReady,
	}
}

// Watch polls obs every interval until done is closed, calling fn after every
// poll. Once done is closed it marks the result ready, polls one final time and
// returns that view. Cancelling ctx stops watching without marking the result ready.
func Watch(ctx context.Context, obs *Observer, interval time.Duration, done <-chan struct{}, fn func(View)) View {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if fn == nil {
		fn = func(View) {}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			obs.MarkResultReady()
			v := obs.Poll()
			fn(v)
			return v
		case <-ctx.Done():
			return obs.Poll()
		case <-ticker.C:
			fn(obs.Poll())
		}
	}
}
