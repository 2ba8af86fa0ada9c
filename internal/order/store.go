package order

import (
	"context"
	"sync"

	"vallet-go/internal/config"
	"vallet-go/internal/events"
	"vallet-go/internal/gateway"
	"vallet-go/internal/logger"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Store is the unique-keyed, insertion-ordered cache of orders. Mutations
// trigger the persistence hook and publish change events; lookups are safe
// under concurrent webhook dispatch.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*Order
	ids    []string

	merchant *config.Merchant
	gw       gateway.Client
	bus      *events.Bus
	persist  Persistence

	ready chan struct{}
}

// NewStore builds an empty store and, when a persistence hook is given,
// kicks off the initial load in the background. The store is usable while
// the load is pending: lookups simply return nil. Ready is closed once the
// load settles and the cache is replaced with the hydrated set.
func NewStore(m *config.Merchant, gw gateway.Client, bus *events.Bus, persist Persistence) *Store {
	s := &Store{
		orders:   make(map[string]*Order),
		merchant: m,
		gw:       gw,
		bus:      bus,
		persist:  persist,
		ready:    make(chan struct{}),
	}

	if persist == nil {
		close(s.ready)
		return s
	}

	go s.loadInitial()
	return s
}

// Ready is closed once the initial load has settled (immediately when the
// store has no persistence hook).
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) loadInitial() {
	defer close(s.ready)

	recs, err := s.persist.Load(context.Background())
	if err != nil {
		logger.L().Error("failed to load persisted orders", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.orders = make(map[string]*Order, len(recs))
	s.ids = nil
	s.mu.Unlock()

	s.Hydrate(recs)
	logger.L().Info("order store hydrated", zap.Int("count", len(recs)))
}

// NewOrder validates and constructs an order and registers it through the
// store's add path, triggering persistence and an "add" event.
func (s *Store) NewOrder(p Params) (*Order, error) {
	o, err := buildOrder(s.merchant, s.gw, p)
	if err != nil {
		return nil, err
	}
	if err := s.Add(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Add inserts the order, saves the new snapshot and publishes an "add"
// event. A duplicate order id is an explicit failure.
func (s *Store) Add(o *Order) error {
	s.mu.Lock()
	if _, exists := s.orders[o.OrderID]; exists {
		s.mu.Unlock()
		return ErrDuplicateOrder
	}
	s.orders[o.OrderID] = o
	s.ids = append(s.ids, o.OrderID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	rec := o.Record()
	s.saveAsync(snapshot, &rec, nil)
	s.bus.Publish(events.ChannelAdd, o)
	return nil
}

// Remove deletes the order, saves the new snapshot and publishes a
// "remove" event. An absent id returns false, not an error.
func (s *Store) Remove(orderID string) bool {
	s.mu.Lock()
	o, exists := s.orders[orderID]
	if !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.orders, orderID)
	s.ids = lo.Without(s.ids, orderID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	rec := o.Record()
	s.saveAsync(snapshot, nil, &rec)
	s.bus.Publish(events.ChannelRemove, o)
	return true
}

// Resolve is the non-failing lookup used by webhook dispatch. A nil result
// is legitimate, not an error.
func (s *Store) Resolve(orderID string) *Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders[orderID]
}

// Find returns the first order matching the predicate, scanning in
// insertion order.
func (s *Store) Find(match func(*Order) bool) *Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.ids {
		if o := s.orders[id]; match(o) {
			return o
		}
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Snapshot serializes every cached order in insertion order.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []Record {
	return lo.Map(s.ids, func(id string, _ int) Record {
		return s.orders[id].Record()
	})
}

// Hydrate restores previously persisted records in bulk. Records are
// trusted internal state: duplicates are silently skipped, no per-item
// persistence or "add" events fire, and a single "bulkAdd" event carries
// every restored order.
func (s *Store) Hydrate(recs []Record) []*Order {
	restored := make([]*Order, 0, len(recs))

	s.mu.Lock()
	for _, rec := range recs {
		if _, exists := s.orders[rec.OrderID]; exists {
			continue
		}
		o := s.restoreOrder(rec)
		s.orders[o.OrderID] = o
		s.ids = append(s.ids, o.OrderID)
		restored = append(restored, o)
	}
	s.mu.Unlock()

	// An empty batch (nothing persisted, or every record a duplicate) is
	// not announced.
	if len(restored) > 0 {
		s.bus.Publish(events.ChannelBulkAdd, restored)
	}
	return restored
}

func (s *Store) restoreOrder(rec Record) *Order {
	return &Order{
		OrderID:        rec.OrderID,
		ProductName:    rec.ProductName,
		Products:       append([]Product(nil), rec.Products...),
		ProductType:    rec.ProductType,
		Currency:       rec.Currency,
		Locale:         rec.Locale,
		ConversationID: rec.ConversationID,
		Buyer:          rec.Buyer,
		Created:        rec.Created,
		Refunded:       rec.Refunded,
		PaymentURL:     rec.PaymentURL,
		ValletOrderID:  rec.ValletOrderID,
		merchant:       s.merchant,
		gw:             s.gw,
	}
}

func (s *Store) saveAsync(snapshot []Record, added, removed *Record) {
	if s.persist == nil {
		return
	}
	go func() {
		if err := s.persist.Save(context.Background(), snapshot, added, removed); err != nil {
			logger.L().Error("failed to persist order snapshot", zap.Error(err))
		}
	}()
}

// OnAdd subscribes to orders registered through the normal add path.
func (s *Store) OnAdd(fn func(*Order)) {
	s.bus.Subscribe(events.ChannelAdd, func(p any) {
		if o, ok := p.(*Order); ok {
			fn(o)
		}
	})
}

// OnRemove subscribes to explicit removals.
func (s *Store) OnRemove(fn func(*Order)) {
	s.bus.Subscribe(events.ChannelRemove, func(p any) {
		if o, ok := p.(*Order); ok {
			fn(o)
		}
	})
}

// OnBulkAdd subscribes to hydration batches.
func (s *Store) OnBulkAdd(fn func([]*Order)) {
	s.bus.Subscribe(events.ChannelBulkAdd, func(p any) {
		if orders, ok := p.([]*Order); ok {
			fn(orders)
		}
	})
}
