package contracttest

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

type subscription struct {
	query ethereum.FilterQuery
	ch    chan<- types.Log
	errc  chan error
	quit  chan struct{}
	once  sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { close(s.quit) })
}

func (s *subscription) Err() <-chan error { return s.errc }

func (b *Backend) SubscribeFilterLogs(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	s := &subscription{
		query: q,
		ch:    ch,
		errc:  make(chan error, 1),
		quit:  make(chan struct{}),
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s, nil
}

// Subscriptions returns how many subscriptions have been opened.
func (b *Backend) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Emit pushes l to every open subscription whose filter matches. It blocks
// until each receiver has taken the log or unsubscribed.
func (b *Backend) Emit(l types.Log) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		if !matches(s.query, l) {
			continue
		}
		select {
		case s.ch <- l:
		case <-s.quit:
		}
	}
}

// FailSubscriptions delivers err on every open subscription's error channel.
func (b *Backend) FailSubscriptions(err error) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case <-s.quit:
		case s.errc <- err:
		default:
		}
	}
}
