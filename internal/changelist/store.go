// Package changelist keeps a working tree's status list in sync with a
// version-control backend and relays stage/unstage requests from the view.
//
// Everything in this package runs on a single logical thread: callers must
// invoke Store and Coordinator methods, and deliver gateway completions, from
// one goroutine. Nothing here takes a lock.
package changelist

import "github.com/chmouel/lazychangelist/internal/models"

// Store holds the latest status snapshot and notifies subscribers when it is
// replaced.
type Store struct {
	current models.Snapshot
	subs    []*Subscription
	nextID  int
}

// Subscription is returned by Store.Subscribe.
type Subscription struct {
	id      int
	store   *Store
	handler func(models.Snapshot)
}

// NewStore returns a Store holding an empty snapshot.
func NewStore() *Store {
	return &Store{}
}

// Refresh installs snapshot as the current one and notifies every subscriber
// registered at the time of the call, in subscription order.
func (s *Store) Refresh(snapshot models.Snapshot) {
	s.current = snapshot
	subs := make([]*Subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.handler(snapshot)
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() models.Snapshot {
	return s.current
}

// Subscribe registers handler for change notifications.
func (s *Store) Subscribe(handler func(models.Snapshot)) *Subscription {
	s.nextID++
	sub := &Subscription{id: s.nextID, store: s, handler: handler}
	s.subs = append(s.subs, sub)
	return sub
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	return len(s.subs)
}

// Unsubscribe removes the subscription. Calling it again does nothing.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.store == nil {
		return
	}
	s := sub.store
	sub.store = nil
	for i, other := range s.subs {
		if other.id == sub.id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}
