package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tableorder/order-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

// RetryPolicy reopens a feed whose live query failed. The zero value never
// retries: the first failure ends the feed.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

type FeedService struct {
	watcher OrderWatcher
	retry   RetryPolicy
	log     *logrus.Entry
}

func NewFeedService(watcher OrderWatcher, retry RetryPolicy, log *logrus.Entry) *FeedService {
	return &FeedService{watcher: watcher, retry: retry, log: log}
}

// Subscribe opens a live, newest-first view of the orders in scope.
func (s *FeedService) Subscribe(ctx context.Context, scope domain.Scope) (*Feed, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: exactly one of restaurant or customer", ErrValidation)
	}
	stream, err := s.watcher.WatchOrders(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to open order feed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	f := &Feed{
		updates:  make(chan []domain.Order, 1),
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	go f.run(ctx, s, scope, stream)
	return f, nil
}

// Feed delivers complete order snapshots. A slow reader only sees the
// latest one.
type Feed struct {
	updates  chan []domain.Order
	cancel   context.CancelFunc
	finished chan struct{}

	mu  sync.Mutex
	err error
}

func (f *Feed) run(ctx context.Context, s *FeedService, scope domain.Scope, stream OrderStream) {
	defer close(f.finished)
	defer close(f.updates)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			stream.Close()
			return
		case orders, ok := <-stream.Snapshots():
			if ok {
				attempt = 0
				f.deliver(orders)
				continue
			}
		}

		err := stream.Err()
		stream.Close()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}

		for {
			attempt++
			if attempt > s.retry.MaxAttempts {
				f.fail(err)
				return
			}
			s.log.WithError(err).WithField("attempt", attempt).Warn("order feed lost, reopening")

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retry.delay(attempt)):
			}

			var reopenErr error
			stream, reopenErr = s.watcher.WatchOrders(ctx, scope)
			if reopenErr == nil {
				break
			}
			err = reopenErr
		}
	}
}

func (f *Feed) deliver(orders []domain.Order) {
	select {
	case f.updates <- orders:
	default:
		select {
		case <-f.updates:
		default:
		}
		f.updates <- orders
	}
}

func (f *Feed) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Updates is closed when the feed ends.
func (f *Feed) Updates() <-chan []domain.Order {
	return f.updates
}

// Err is the terminal failure, or nil after a normal close.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops the feed and releases its live query. Safe to call more than
// once.
func (f *Feed) Close() error {
	f.cancel()
	<-f.finished
	return nil
}
