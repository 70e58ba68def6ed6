// Package eventstest captures change notifications in tests.
package eventstest

import (
	"context"
	"sync"
)

// Recorder keeps published notifications in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

// Recorded is one notification captured by a Recorder.
type Recorded struct {
	Name    string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Name: event, Payload: payload})
}

// Names returns the recorded notification names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Name)
	}
	return names
}
