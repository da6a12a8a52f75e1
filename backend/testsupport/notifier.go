package testsupport

import (
	"context"
	"sync"
)

// Notification is one call recorded by RecordingNotifier.
type Notification struct {
	Variant string
	Message string
}

// RecordingNotifier satisfies common.Notifier and keeps every call in order.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []Notification
}

func (r *RecordingNotifier) record(variant, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Notification{Variant: variant, Message: message})
}

func (r *RecordingNotifier) Success(_ context.Context, message string) { r.record("success", message) }
func (r *RecordingNotifier) Warning(_ context.Context, message string) { r.record("warning", message) }
func (r *RecordingNotifier) Info(_ context.Context, message string)    { r.record("info", message) }
func (r *RecordingNotifier) Error(_ context.Context, message string)   { r.record("error", message) }

// Calls returns a copy of the recorded notifications.
func (r *RecordingNotifier) Calls() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.calls...)
}

// Messages returns the messages recorded for variant.
func (r *RecordingNotifier) Messages(variant string) []string {
	var out []string
	for _, c := range r.Calls() {
		if c.Variant == variant {
			out = append(out, c.Message)
		}
	}
	return out
}
