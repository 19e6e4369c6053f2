package lineitem

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/internal/storage"
)

// Storage slot names.
const (
	BagName  = "bag"
	CartName = "cart"
)

const DefaultPersistTimeout = 5 * time.Second

type (
	Bag  = Store[domain.BagItem]
	Cart = Store[domain.CartItem]
)

// Snapshot is a point-in-time copy of a store.
type Snapshot[T domain.Item] struct {
	Items []T
	Total decimal.Decimal
}

func (s Snapshot[T]) Count() int { return len(s.Items) }

type options struct {
	log            *zap.Logger
	persistTimeout time.Duration
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPersistTimeout bounds every storage write.
func WithPersistTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.persistTimeout = d
		}
	}
}

// Store is an ordered, persisted set of line items keyed by shoe id.
//
// Every mutation loads the persisted state first (once per store), then
// writes the full sequence back to storage and notifies subscribers before
// returning. All of it happens under one mutex, so storage sees writes in
// call order.
type Store[T domain.Item] struct {
	name           string
	storage        storage.Storage
	log            *zap.Logger
	persistTimeout time.Duration

	initOnce sync.Once

	mu      sync.Mutex
	items   []T
	subs    map[uint64]chan Snapshot[T]
	nextSub uint64
	closed  bool
}

// New creates a store persisted under name. A nil storage keeps the store in
// memory only.
func New[T domain.Item](name string, st storage.Storage, opts ...Option) *Store[T] {
	o := options{log: zap.NewNop(), persistTimeout: DefaultPersistTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:           name,
		storage:        st,
		log:            o.log.With(zap.String("store", name)),
		persistTimeout: o.persistTimeout,
		subs:           make(map[uint64]chan Snapshot[T]),
	}
}

func NewBag(st storage.Storage, opts ...Option) *Bag {
	return New[domain.BagItem](BagName, st, opts...)
}

func NewCart(st storage.Storage, opts ...Option) *Cart {
	return New[domain.CartItem](CartName, st, opts...)
}

func (s *Store[T]) Name() string { return s.name }

// Initialize loads the persisted sequence. It runs at most once; later calls
// return immediately. Missing, unreadable or corrupt state leaves the store
// empty.
func (s *Store[T]) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		items := s.load(ctx)

		s.mu.Lock()
		s.items = items
		snap := s.snapshotLocked()
		s.notifyLocked(snap)
		s.mu.Unlock()
	})
}

func (s *Store[T]) load(ctx context.Context) []T {
	if s.storage == nil {
		return nil
	}

	raw, err := s.storage.Get(ctx, s.name)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Debug("no persisted state, starting empty")
		return nil
	}
	if err != nil {
		s.log.Warn("failed to read persisted state, starting empty", zap.Error(err))
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("persisted state is corrupt, starting empty", zap.Error(err))
		return nil
	}
	s.log.Debug("loaded persisted state", zap.Int("count", len(items)))
	return items
}

// Add appends item unless an entry with the same shoe id exists, in which
// case the existing entry is kept as is. It reports whether item was inserted.
func (s *Store[T]) Add(ctx context.Context, item T) bool {
	s.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := item.Line().ShoeID
	inserted := s.indexLocked(id) < 0
	if inserted {
		s.items = append(s.items, item)
	}
	s.commitLocked(ctx)
	return inserted
}

// Remove drops every entry whose shoe id is one of shoeIDs. Unknown ids are
// ignored.
func (s *Store[T]) Remove(ctx context.Context, shoeIDs ...string) {
	s.Initialize(ctx)

	drop := make(map[string]struct{}, len(shoeIDs))
	for _, id := range shoeIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0:0]
	for _, it := range s.items {
		if _, ok := drop[it.Line().ShoeID]; !ok {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.commitLocked(ctx)
}

func (s *Store[T]) Clear(ctx context.Context) {
	s.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.commitLocked(ctx)
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Lines returns the core fields of every item in order.
func (s *Store[T]) Lines() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]domain.LineItem, len(s.items))
	for i, it := range s.items {
		lines[i] = it.Line()
	}
	return lines
}

func (s *Store[T]) Contains(shoeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(shoeID) >= 0
}

// Subscribe returns a channel primed with the current snapshot that receives
// a new snapshot after every change. Only the latest undelivered snapshot is
// kept. The channel is closed by cancel or by Close.
func (s *Store[T]) Subscribe() (<-chan Snapshot[T], func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot[T], 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close detaches every subscriber. The store keeps working afterwards but no
// longer notifies anyone.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store[T]) indexLocked(shoeID string) int {
	for i, it := range s.items {
		if it.Line().ShoeID == shoeID {
			return i
		}
	}
	return -1
}

func (s *Store[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(s.items))
	copy(items, s.items)

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Line().Price.Decimal())
	}
	return Snapshot[T]{Items: items, Total: total}
}

func (s *Store[T]) commitLocked(ctx context.Context) {
	s.persistLocked(ctx)
	s.notifyLocked(s.snapshotLocked())
}

func (s *Store[T]) persistLocked(ctx context.Context) {
	if s.storage == nil {
		return
	}

	items := s.items
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.log.Warn("failed to encode state", zap.Error(err))
		return
	}

	// Writes outlive the caller's cancellation but not the timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := s.storage.Set(ctx, s.name, string(data)); err != nil {
		s.log.Warn("failed to persist state", zap.Error(err), zap.Int("count", len(s.items)))
	}
}

func (s *Store[T]) notifyLocked(snap Snapshot[T]) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale undelivered snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
