// Package events is the in-process change-notification bus between the
// change feed and live view subscribers. Notifications are wake-up signals,
// not payloads: a subscriber re-reads store state on every wake, so a
// capacity-one signal channel can coalesce bursts without losing updates.
package events

import (
	"fmt"
	"sync"
)

// TableKey is the kind-local key stored in table change events; Topic glues
// a kind and key back into a bus topic.
func TableKey(restaurantID string, tableID uint) string {
	return fmt.Sprintf("%s/%d", restaurantID, tableID)
}

func Topic(kind, key string) string {
	return kind + ":" + key
}

func TableTopic(restaurantID string, tableID uint) string {
	return Topic("table", TableKey(restaurantID, tableID))
}

func SessionTopic(sessionID string) string {
	return Topic("session", sessionID)
}

func OrderLogTopic(sessionID string) string {
	return Topic("orderlog", sessionID)
}

type Bus struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription delivers coalesced change signals for one topic. Close is
// idempotent and detaches the subscription from the bus.
type Subscription struct {
	bus   *Bus
	topic string
	ch    chan struct{}
	once  sync.Once
}

// C wakes whenever the topic changed since the last receive. The channel is
// never closed; callers select against their own stop channel.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if set, ok := s.bus.subs[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.bus.subs, s.topic)
			}
		}
	})
}

func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{bus: b, topic: topic, ch: make(chan struct{}, 1)}
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish signals every subscriber of the topic. A subscriber that already
// has a pending signal will re-read state after this publish anyway, so the
// send can drop instead of blocking.
func (b *Bus) Publish(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[topic] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}
