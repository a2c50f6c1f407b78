// Package notifier provides a topic-aware broadcast mechanism for SSE updates.
package notifier

import (
	"slices"
	"sync"
)

// AllTopics subscribes to every broadcast.
const AllTopics = ""

// Notifier broadcasts invalidation signals to subscribed listeners.
// It uses a simple ping mechanism - listeners receive an empty struct
// when the data behind their topic changed and should refetch.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]string
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]string),
	}
}

// Subscribe returns a channel that receives pings for topic. AllTopics
// receives every ping.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = topic
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unknown channels are
// ignored.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Broadcast pings the listeners of the given topics. With no topics every
// listener is pinged.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Broadcast(topics ...string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch, topic := range n.listeners {
		if len(topics) > 0 && topic != AllTopics && !slices.Contains(topics, topic) {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, skip (listener will catch up on the pending ping)
		}
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
