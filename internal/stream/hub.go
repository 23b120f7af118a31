package stream

import (
	"encoding/json"
	"log"
	"sync"

	"greenpulse/internal/airquality"
	"greenpulse/internal/store"
)

// Subscriber is one broadcast destination. Send should fail fast once the
// underlying connection is gone.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
}

// Envelope is the wire frame subscribers receive.
type Envelope struct {
	Type string              `json:"type"`
	Data airquality.Snapshot `json:"data"`
}

func marshalUpdate(snap airquality.Snapshot) ([]byte, error) {
	return json.Marshal(Envelope{Type: "update", Data: snap})
}

// Hub tracks connected subscribers and fans snapshots out to them.
// Delivery is best effort: a failed send unregisters the subscriber and the
// broadcast moves on to the rest.
type Hub struct {
	store *store.LatestStore

	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewHub creates a Hub publishing through the given store.
func NewHub(st *store.LatestStore) *Hub {
	return &Hub{
		store: st,
		subs:  make(map[string]Subscriber),
	}
}

// Register adds sub and immediately delivers the current snapshot when one
// exists, so late joiners do not wait for the next cycle. A failed welcome
// send removes the subscriber again.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subs[sub.ID()] = sub
	n := len(h.subs)
	h.mu.Unlock()

	log.Printf("hub: subscriber %s registered (%d active)", sub.ID(), n)

	snap, err := h.store.Current()
	if err != nil {
		// Nothing published yet; the first cycle will reach them.
		return
	}
	payload, err := marshalUpdate(snap)
	if err != nil {
		log.Printf("hub: marshal snapshot: %v", err)
		return
	}
	if err := sub.Send(payload); err != nil {
		log.Printf("hub: welcome send to %s failed: %v", sub.ID(), err)
		h.Unregister(sub.ID())
	}
}

// Unregister removes the subscriber with the given id. Unknown ids are a
// no-op, so it is safe to call on any disconnect path.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	if _, ok := h.subs[id]; ok {
		delete(h.subs, id)
		log.Printf("hub: subscriber %s removed (%d active)", id, len(h.subs))
	}
	h.mu.Unlock()
}

// Publish makes snap the current snapshot and then broadcasts it. The swap
// happens first so a subscriber connecting mid-broadcast observes the same
// data either way.
func (h *Hub) Publish(snap airquality.Snapshot) {
	h.store.Replace(snap)
	h.Broadcast(snap)
}

// Broadcast delivers snap to every subscriber registered at call time, at
// most once each. Failed sends drop that subscriber; remaining deliveries
// continue.
func (h *Hub) Broadcast(snap airquality.Snapshot) {
	payload, err := marshalUpdate(snap)
	if err != nil {
		log.Printf("hub: marshal snapshot: %v", err)
		return
	}

	// Snapshot the registry so registrations during delivery don't block
	// or race the loop.
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.Send(payload); err != nil {
			log.Printf("hub: send to %s failed, dropping subscriber: %v", sub.ID(), err)
			h.Unregister(sub.ID())
		}
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
