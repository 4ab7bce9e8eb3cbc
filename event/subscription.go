// Package event implements the publish/subscribe primitives chainhead uses
// to fan block notifications out to per-subscription consumers.
package event

import "sync"

// Subscription represents a stream of events. The carrier of the events is
// whatever channel the subscriber passed to Subscribe; Subscription only
// reports delivery errors and lets the subscriber tear the stream down.
type Subscription interface {
	// Err returns a channel that is closed when the subscription ends and
	// sends at most one error if the producer fails. Err must be
	// read after Unsubscribe to release resources.
	Err() <-chan error

	// Unsubscribe cancels the sending of events to the data channel and
	// closes the error channel. It blocks until the producer, if any,
	// has acknowledged the cancellation.
	Unsubscribe()
}

// NewSubscription runs a producer function in a goroutine as a
// Subscription. The function should run until it receives an unsubscribe
// request, then return. The quit channel is closed when Unsubscribe is
// called. If the producer returns a non-nil error before Unsubscribe is
// called, that error is sent on Err; Err is closed once the producer
// returns.
func NewSubscription(producer func(<-chan struct{}) error) Subscription {
	s := &funcSub{
		quit: make(chan struct{}),
		err:  make(chan error, 1),
	}
	go func() {
		defer close(s.err)
		err := producer(s.quit)
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.unsubscribed {
			if err != nil {
				s.err <- err
			}
			s.unsubscribed = true
		}
	}()
	return s
}

type funcSub struct {
	quit         chan struct{}
	err          chan error
	mu           sync.Mutex
	unsubscribed bool
}

func (s *funcSub) Unsubscribe() {
	s.mu.Lock()
	if s.unsubscribed {
		s.mu.Unlock()
		return
	}
	s.unsubscribed = true
	s.mu.Unlock()
	close(s.quit)
	<-s.err
}

func (s *funcSub) Err() <-chan error {
	return s.err
}

// SubscriptionScope provides a facility to unsubscribe multiple
// subscriptions at once.
//
// The zero value is ready to use.
type SubscriptionScope struct {
	mu     sync.Mutex
	subs   map[*scopeSub]struct{}
	closed bool
}

type scopeSub struct {
	sc *SubscriptionScope
	s  Subscription
}

// Track starts tracking a subscription. If the scope is closed, Track
// returns nil. The returned subscription is a wrapper that removes the
// subscription from the scope when it is unsubscribed.
func (sc *SubscriptionScope) Track(s Subscription) Subscription {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return nil
	}
	if sc.subs == nil {
		sc.subs = make(map[*scopeSub]struct{})
	}
	ss := &scopeSub{sc: sc, s: s}
	sc.subs[ss] = struct{}{}
	return ss
}

// Close calls Unsubscribe on all tracked subscriptions and prevents
// further additions to the tracked set. Calls to Track after Close return
// nil.
func (sc *SubscriptionScope) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	subs := sc.subs
	sc.subs = nil
	sc.mu.Unlock()

	for ss := range subs {
		ss.s.Unsubscribe()
	}
}

// Count returns the number of tracked subscriptions.
func (sc *SubscriptionScope) Count() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.subs)
}

func (ss *scopeSub) Unsubscribe() {
	ss.s.Unsubscribe()
	ss.sc.mu.Lock()
	defer ss.sc.mu.Unlock()
	delete(ss.sc.subs, ss)
}

func (ss *scopeSub) Err() <-chan error {
	return ss.s.Err()
}
