// Package notify holds user-facing notifications.
//
// Each flow (record entry, questions) owns one Slot. A slot shows at most one
// notification: publishing replaces whatever was there, there is no queue.
package notify

import "sync"

// Kind classifies a notification.
type Kind int

const (
	Info Kind = iota
	Success
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notification is a single message for the user.
type Notification struct {
	Kind Kind
	Text string
}

// Slot is a single-slot notification holder. It is safe for concurrent use
// because background loads may publish into it.
type Slot struct {
	mu      sync.RWMutex
	current Notification
	set     bool
	version uint64
}

// New creates an empty Slot.
func New() *Slot {
	return &Slot{}
}

// Publish replaces the current notification.
func (s *Slot) Publish(kind Kind, text string) {
	s.mu.Lock()
	s.current = Notification{Kind: kind, Text: text}
	s.set = true
	s.version++
	s.mu.Unlock()
}

// Info publishes an info notification.
func (s *Slot) Info(text string) { s.Publish(Info, text) }

// Success publishes a success notification.
func (s *Slot) Success(text string) { s.Publish(Success, text) }

// Error publishes an error notification.
func (s *Slot) Error(text string) { s.Publish(Error, text) }

// Clear empties the slot. Clearing an empty slot is a no-op.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return
	}
	s.current = Notification{}
	s.set = false
	s.version++
}

// Current returns the visible notification, if any.
func (s *Slot) Current() (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.set
}

// Version increases on every change; callers compare it to detect updates.
func (s *Slot) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
