package docstore

import (
	"context"
	"sync"
)

// Subscription is a standing live query. Every change to the watched
// collection re-delivers the complete result set; a consumer that falls
// behind only ever sees the latest snapshot.
type Subscription struct {
	updates  chan []Document
	cancel   context.CancelFunc
	finished chan struct{}

	mu  sync.Mutex
	err error
}

type loadFunc func(ctx context.Context) ([]Document, error)

// newSubscription starts the delivery loop. changes signals that the
// collection was written; a closed changes channel means the source is
// gone. release runs exactly once when the loop exits.
func newSubscription(ctx context.Context, load loadFunc, changes <-chan struct{}, release func()) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		updates:  make(chan []Document, 1),
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	go s.run(ctx, load, changes, release)
	return s
}

func (s *Subscription) run(ctx context.Context, load loadFunc, changes <-chan struct{}, release func()) {
	defer close(s.finished)
	defer close(s.updates)
	defer release()

	for {
		docs, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.fail(err)
			}
			return
		}
		if ctx.Err() != nil {
			s.drain()
			return
		}
		s.deliver(docs)

		select {
		case <-ctx.Done():
			s.drain()
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					s.drain()
					return
				}
				s.fail(ErrSubscriptionLost)
				return
			}
		}
	}
}

func (s *Subscription) deliver(docs []Document) {
	select {
	case s.updates <- docs:
	default:
		select {
		case <-s.updates:
		default:
		}
		s.updates <- docs
	}
}

func (s *Subscription) drain() {
	select {
	case <-s.updates:
	default:
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Updates is closed when the subscription ends.
func (s *Subscription) Updates() <-chan []Document {
	return s.updates
}

// Err reports why the subscription ended. It is nil while running and
// after a normal Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops deliveries and waits until the live query is released.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.finished
	return nil
}
