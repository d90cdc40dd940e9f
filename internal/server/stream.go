package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SSE event names. A stream sends progress events while the job runs and a
// single finished event when it reaches a terminal state.
const (
	eventProgress = "progress"
	eventFinished = "finished"
)

// ProgressEvent is the state and best score of a job at some moment.
type ProgressEvent struct {
	JobID     string    `json:"jobId"`
	State     JobState  `json:"state"`
	Step      int       `json:"step"`
	BestScore string    `json:"bestScore"`
	Feasible  bool      `json:"feasible"`
	Timestamp time.Time `json:"timestamp"`
}

func newProgressEvent(job Job) ProgressEvent {
	return ProgressEvent{
		JobID:     job.ID,
		State:     job.State,
		Step:      job.Step,
		BestScore: job.BestScore,
		Feasible:  job.Feasible,
		Timestamp: time.Now(),
	}
}

// Final reports whether the event is the last one of its job.
func (e ProgressEvent) Final() bool {
	return e.State != StatePending && e.State != StateRunning
}

func (e ProgressEvent) name() string {
	if e.Final() {
		return eventFinished
	}
	return eventProgress
}

type subscribers map[chan ProgressEvent]struct{}

// EventBroadcaster fans job progress out to stream subscribers. It keeps the
// last event of every job so late subscribers start from the current state.
type EventBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]subscribers
	lastEvent map[string]ProgressEvent
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]subscribers),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe returns a channel of the job's events, starting with the last one
// broadcast, if any.
func (eb *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 10)
	if eb.clients[jobID] == nil {
		eb.clients[jobID] = make(subscribers)
	}
	eb.clients[jobID][ch] = struct{}{}

	if last, ok := eb.lastEvent[jobID]; ok {
		ch <- last
	}

	slog.Debug("Stream subscribed", "job_id", jobID, "subscribers", len(eb.clients[jobID]))
	return ch
}

// Unsubscribe closes ch unless CleanupJob already did.
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients := eb.clients[jobID]
	if _, ok := clients[ch]; !ok {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, jobID)
	}
	slog.Debug("Stream unsubscribed", "job_id", jobID)
}

// Broadcast records event as the job's last event and sends it to every
// subscriber. Subscribers that fall behind miss events; they never block the
// worker.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.JobID] = event
	for ch := range eb.clients[event.JobID] {
		select {
		case ch <- event:
		default:
			slog.Warn("Stream subscriber is behind, dropping event", "job_id", event.JobID, "step", event.Step)
		}
	}
}

// CleanupJob closes every subscriber of a job and forgets its last event.
func (eb *EventBroadcaster) CleanupJob(jobID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.clients[jobID] {
		close(ch)
	}
	delete(eb.clients, jobID)
	delete(eb.lastEvent, jobID)
}

// handleJobStream handles GET /api/v1/jobs/:id/stream. The response ends
// after the finished event.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, events)

	send := func(event ProgressEvent) bool {
		if err := writeSSEEvent(w, event); err != nil {
			slog.Warn("Failed to write stream event", "job_id", jobID, "error", err)
			return false
		}
		flusher.Flush()
		return !event.Final()
	}
	if !send(newProgressEvent(job)) {
		return
	}

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream client disconnected", "job_id", jobID)
			return
		case event, ok := <-events:
			if !ok || !send(event) {
				return
			}
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event. The id is the job step, so a client can
// tell replayed events from new ones.
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Step, event.name(), data)
	return err
}
