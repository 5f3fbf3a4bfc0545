package events

import (
	"context"
	"io"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

// Callback receives each decoded event in stream order. A non-nil error is
// a provider stream failure or a log that could not be decoded; after a
// stream failure the subscription ends.
type Callback func(Event, error)

// BlockRange bounds GetLogs. Nil ends are open.
type BlockRange struct {
	From *big.Int
	To   *big.Int
}

// Subscriber opens log subscriptions for one module address.
type Subscriber struct {
	transport contract.Transport
	address   common.Address
	set       *Set
	logger    *log.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewSubscriber binds set to the module at address. A nil logger discards.
func NewSubscriber(t contract.Transport, address common.Address, set *Set, logger *log.Logger) *Subscriber {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Subscriber{
		transport: t,
		address:   address,
		set:       set,
		logger:    logger,
		subs:      make(map[string]*Subscription),
	}
}

// Set returns the event set this subscriber validates against.
func (s *Subscriber) Set() *Set { return s.set }

func (s *Subscriber) query(name string, filter Filter) (ethereum.FilterQuery, error) {
	ev, err := s.set.Validate(name)
	if err != nil {
		return ethereum.FilterQuery{}, err
	}
	topics, err := s.set.Topics(ev, filter)
	if err != nil {
		return ethereum.FilterQuery{}, err
	}
	return ethereum.FilterQuery{Addresses: []common.Address{s.address}, Topics: topics}, nil
}

// Subscribe streams future events called name that match filter to cb.
// Validation failures are returned before anything is sent to the provider.
func (s *Subscriber) Subscribe(ctx context.Context, name string, filter Filter, cb Callback) (*Subscription, error) {
	q, err := s.query(name, filter)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, polyerr.InvalidData("callback", nil, "must not be nil")
	}

	logs := make(chan types.Log, 16)
	upstream, err := s.transport.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:       uuid.NewString(),
		Event:    name,
		upstream: upstream,
		logs:     logs,
		cb:       cb,
		decode:   s.set.Decode,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   s.logger,
		release:  s.remove,
	}

	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.mu.Unlock()

	s.logger.Debug("subscribed", "module", s.set.Module, "address", s.address.Hex(), "event", name, "id", sub.ID)
	go sub.run()
	return sub, nil
}

// GetLogs returns past events called name in r that match filter.
func (s *Subscriber) GetLogs(ctx context.Context, name string, r BlockRange, filter Filter) ([]Event, error) {
	q, err := s.query(name, filter)
	if err != nil {
		return nil, err
	}
	q.FromBlock, q.ToBlock = r.From, r.To

	logs, err := s.transport.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(logs))
	for _, l := range logs {
		ev, err := s.set.Decode(l)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// Unsubscribe stops the subscription with the given ID.
func (s *Subscriber) Unsubscribe(id string) error {
	s.mu.Lock()
	sub, ok := s.subs[id]
	s.mu.Unlock()
	if !ok {
		return polyerr.NotFound("subscription", id, "no such subscription")
	}
	sub.Unsubscribe()
	return nil
}

// UnsubscribeAll stops every subscription opened by s.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Active returns the number of open subscriptions.
func (s *Subscriber) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Subscriber) remove(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
	s.logger.Debug("unsubscribed", "module", s.set.Module, "id", id)
}

// Subscription is a live event stream. No callback starts after Unsubscribe
// returns, and Unsubscribe may be called from inside the callback.
type Subscription struct {
	ID    string
	Event string

	upstream ethereum.Subscription
	logs     chan types.Log
	cb       Callback
	decode   func(types.Log) (Event, error)
	logger   *log.Logger
	release  func(id string)

	quit chan struct{}
	done chan struct{}
	once sync.Once

	deliver    sync.Mutex
	closed     atomic.Bool
	inCallback atomic.Bool
}

// Unsubscribe stops the stream. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.quit)
		s.upstream.Unsubscribe()
		s.release(s.ID)
	})
	if !s.inCallback.Load() {
		// Wait out a callback that started before closed was set.
		s.deliver.Lock()
		s.deliver.Unlock()
	}
}

// Done is closed when the delivery goroutine exits.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) emit(ev Event, err error) bool {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	if s.closed.Load() {
		return false
	}
	s.inCallback.Store(true)
	s.cb(ev, err)
	s.inCallback.Store(false)
	return true
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case err, ok := <-s.upstream.Err():
			if ok && err != nil {
				s.logger.Warn("event stream failed", "event", s.Event, "id", s.ID, "err", err)
				s.emit(Event{}, err)
			}
			s.Unsubscribe()
			return
		case l := <-s.logs:
			ev, err := s.decode(l)
			if !s.emit(ev, err) {
				return
			}
		}
	}
}
