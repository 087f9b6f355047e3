package apiclient

import "sync"

// Navigator moves the user between screens. The client uses it to send the
// user to the login screen when a session cannot be recovered.
type Navigator interface {
	// Location returns the current screen path, including any query.
	Location() string
	// Navigate replaces the current screen with target.
	Navigate(target string)
}

// MemoryNavigator records navigation in memory. It is the default when no
// navigator is configured and is handy in tests.
type MemoryNavigator struct {
	mu       sync.Mutex
	location string
	history  []string
}

// NewMemoryNavigator creates a navigator positioned at location.
func NewMemoryNavigator(location string) *MemoryNavigator {
	return &MemoryNavigator{location: location}
}

func (n *MemoryNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *MemoryNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = target
	n.history = append(n.history, target)
}

// History returns every target navigated to, oldest first.
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.history))
	copy(out, n.history)
	return out
}
