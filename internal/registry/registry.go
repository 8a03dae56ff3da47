package registry

import (
	"sort"
	"sync"
)

// Sender delivers one outbound text message to a connected client
type Sender interface {
	SendText(text string) error
}

// Registry is the shared map from session identifier to outbound channel.
// It is the only state shared across sessions; per-session buffers are
// exclusively owned by their session.
type Registry struct {
	senders map[string]Sender
	mu      sync.RWMutex
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		senders: make(map[string]Sender),
	}
}

// Register associates a session identifier with its outbound channel.
// Re-registering an identifier replaces the previous channel.
func (r *Registry) Register(id string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[id] = sender
}

// Unregister removes a session identifier. Removing an absent identifier is
// a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, id)
}

// Send delivers text to the session's outbound channel. A vanished session
// is not an error: Send reports false and the message is discarded.
func (r *Registry) Send(id, text string) (bool, error) {
	r.mu.RLock()
	sender, exists := r.senders[id]
	r.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if err := sender.SendText(text); err != nil {
		return true, err
	}

	return true, nil
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.senders)
}

// IDs returns a sorted snapshot of registered session identifiers
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.senders))
	for id := range r.senders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
