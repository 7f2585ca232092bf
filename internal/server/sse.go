package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/deep-research/internal/progress"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(runID, status string) {
	s.WriteEvent("complete", map[string]string{ //nolint:errcheck
		"run_id": runID,
		"status": status,
	})
}

// ProgressUpdate is the payload of a "progress" stream event
type ProgressUpdate struct {
	Percent     int              `json:"percent"`
	Active      string           `json:"active,omitempty"`
	Sources     []string         `json:"sources,omitempty"`
	SourceCount int              `json:"source_count"`
	Done        bool             `json:"done"`
	Events      []progress.Event `json:"events"` // events appended since the previous update
}

// handleStream polls the current run's log and streams new events until the
// run finishes or the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	cur, err := s.currentRun()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	log := cur.handle.Log()
	obs := progress.NewObserver(log)
	seen := 0

	send := func(force bool) error {
		events := log.Since(seen)
		seen += len(events)
		v := obs.Poll()
		if !force && len(events) == 0 {
			return nil
		}
		if events == nil {
			events = []progress.Event{}
		}
		return sse.WriteEvent("progress", ProgressUpdate{
			Percent:     v.Percent,
			Active:      v.Active,
			Sources:     v.Sources,
			SourceCount: v.SourceCount,
			Done:        v.Done,
			Events:      events,
		})
	}

	if err := send(true); err != nil {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-cur.handle.Done():
			obs.MarkResultReady()
			if err := send(true); err != nil {
				return
			}
			res := cur.handle.Wait()
			if err := sse.WriteEvent("result", res); err != nil {
				return
			}
			if res.Error != "" {
				sse.WriteError(res.Error)
			}
			sse.WriteComplete(cur.id, string(res.Status))
			return
		case <-ticker.C:
			if err := send(false); err != nil {
				return
			}
		}
	}
}
