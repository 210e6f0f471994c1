// Package advisory is a process-wide channel for advisory (non-fatal) messages emitted by backends,
// e.g. the notice that an operator is falling back to run on the CPU.
//
// By default messages are logged once (per category and message) with klog. The handler can be
// replaced, e.g. to intercept the messages emitted during a call, see internal/scoped.Intercept.
package advisory

import (
	"sync"

	"k8s.io/klog/v2"
)

// Category of advisory messages emitted when an operator falls back to a slower backend.
const CategoryFallback = "UserWarning"

// Handler receives every advisory message emitted.
type Handler func(category, message string)

var (
	mu      sync.Mutex
	handler Handler = Default

	muSeen sync.Mutex
	seen   = make(map[[2]string]bool)
)

// Emit sends the message to the current handler. It is safe to call from any goroutine.
func Emit(category, message string) {
	mu.Lock()
	h := handler
	mu.Unlock()
	if h != nil {
		h(category, message)
	}
}

// SetHandler replaces the process-wide handler and returns the previous one.
// A nil handler discards the messages.
func SetHandler(h Handler) (previous Handler) {
	mu.Lock()
	defer mu.Unlock()
	previous = handler
	handler = h
	return
}

// Default handler logs each distinct message only the first time it is emitted.
func Default(category, message string) {
	key := [2]string{category, message}
	muSeen.Lock()
	if seen[key] {
		muSeen.Unlock()
		return
	}
	seen[key] = true
	muSeen.Unlock()
	klog.Warningf("%s: %s", category, message)
}

// Recorder collects messages, it can be used as a Handler with Recorder.Handle.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Handle implements Handler.
func (r *Recorder) Handle(_, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of the messages recorded so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
