package notify

import (
	"context"
	"sync"
)

// Recorder keeps published events and sent emails in memory. Used by tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	emails []SentEmail
	// Err, when set, is returned from every call after recording.
	Err error
}

type SentEmail struct {
	To   string
	Name string
	Code string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

func (r *Recorder) SendPasswordResetCode(_ context.Context, to, name, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, SentEmail{To: to, Name: name, Code: code})
	return r.Err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *Recorder) Emails() []SentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentEmail(nil), r.emails...)
}
