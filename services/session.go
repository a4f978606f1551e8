package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"food-webapp/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidClientID = errors.New("invalid client id")
	// ErrCartUnavailable means the stored cart could not be read; the
	// session is not cached so the next request tries storage again.
	ErrCartUnavailable = errors.New("cart storage unavailable")
)

var clientIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidClientID reports whether id can name a client's cart slot.
func ValidClientID(id string) bool { return clientIDRe.MatchString(id) }

// Session is one mini-app client's cart. Every event runs to completion
// under the session lock before the next one for the same client starts.
type Session struct {
	mu    sync.Mutex
	id    string
	store *CartStore

	lastUsed atomic.Int64 // unix nanoseconds
	inflight atomic.Int32 // submissions waiting on the sink
}

func (s *Session) ID() string { return s.id }

func (s *Session) touch(t time.Time) { s.lastUsed.Store(t.UnixNano()) }

func (s *Session) AddItem(ctx context.Context, id models.ItemID, name string, price float64, img string) CartChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.AddItem(ctx, id, name, price, img)
	return s.store.Change()
}

func (s *Session) ChangeQuantity(ctx context.Context, id models.ItemID, delta int) (CartChange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := s.store.ChangeQuantity(ctx, id, delta)
	return s.store.Change(), found
}

func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear(ctx)
}

func (s *Session) Totals() (int, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Totals()
}

func (s *Session) Snapshot() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

func (s *Session) Change() CartChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Change()
}

// Submit validates and snapshots under the lock, then releases it while the
// sink answers, so the customer can keep editing the cart. An accepted
// order clears the cart as it is at that moment.
func (s *Session) Submit(ctx context.Context, sub *Submitter, form models.OrderForm, chatID models.ChatID) (*Receipt, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	s.mu.Lock()
	order, err := sub.Prepare(s.store, form, chatID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return sub.Dispatch(ctx, s, order)
}

// Sessions creates and caches one Session per client. Idle sessions are
// dropped by Evict; storage keeps their carts.
type Sessions struct {
	blobs  BlobStore
	prefix string
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	observers []func(clientID string, change CartChange)
}

func NewSessions(blobs BlobStore, keyPrefix string, log *zap.Logger) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{
		blobs:    blobs,
		prefix:   keyPrefix,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Subscribe registers fn for cart changes of every client.
func (ss *Sessions) Subscribe(fn func(clientID string, change CartChange)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.observers = append(ss.observers, fn)
}

// Get returns the client's session, restoring its cart from storage on
// first use. A storage read failure returns ErrCartUnavailable and caches
// nothing, so an empty cart never overwrites one that could not be read.
func (ss *Sessions) Get(ctx context.Context, clientID string) (*Session, error) {
	if !ValidClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	if s := ss.cached(clientID); s != nil {
		return s, nil
	}

	store := NewCartStore(ss.blobs, ss.Key(clientID), ss.log.With(zap.String("client_id", clientID)))
	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	// Another request may have restored the same client meanwhile.
	if s, ok := ss.sessions[clientID]; ok {
		s.touch(ss.now())
		return s, nil
	}
	store.Subscribe(func(change CartChange) {
		ss.notify(clientID, change)
	})
	s := &Session{id: clientID, store: store}
	s.touch(ss.now())
	ss.sessions[clientID] = s
	return s, nil
}

func (ss *Sessions) cached(clientID string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[clientID]
	if !ok {
		return nil
	}
	s.touch(ss.now())
	return s
}

// Len is the number of cached sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// Evict drops sessions unused for longer than idle. Sessions with an event
// running or an order waiting on the sink are kept.
func (ss *Sessions) Evict(idle time.Duration) int {
	cutoff := ss.now().Add(-idle).UnixNano()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	evicted := 0
	for id, s := range ss.sessions {
		if s.lastUsed.Load() > cutoff || s.inflight.Load() > 0 {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		delete(ss.sessions, id)
		s.mu.Unlock()
		evicted++
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done.
func (ss *Sessions) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ss.Evict(idle); n > 0 {
				ss.log.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", ss.Len()))
			}
		}
	}
}

// Key is the storage slot for a client's cart.
func (ss *Sessions) Key(clientID string) string {
	return ss.prefix + ":" + clientID
}

func (ss *Sessions) notify(clientID string, change CartChange) {
	ss.mu.Lock()
	observers := slices.Clone(ss.observers)
	ss.mu.Unlock()
	for _, fn := range observers {
		fn(clientID, change)
	}
}
