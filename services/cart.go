package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"food-webapp/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// CartChange is what observers receive after every cart mutation.
type CartChange struct {
	Lines      []models.CartLine `json:"lines"`
	TotalItems int               `json:"totalItems"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	// CheckoutEnabled drives both the checkout and the clear buttons.
	CheckoutEnabled bool `json:"checkoutEnabled"`
}

// CartStore owns one cart: it restores it from a BlobStore slot, applies
// mutations, and after each mutation writes the whole cart back and
// notifies observers. Totals are always computed from the lines.
//
// CartStore is not safe for concurrent use; callers serialize events
// (see Session).
type CartStore struct {
	blobs     BlobStore
	key       string
	log       *zap.Logger
	lines     map[models.ItemID]*models.CartLine
	observers []func(CartChange)
}

func NewCartStore(blobs BlobStore, key string, log *zap.Logger) *CartStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartStore{
		blobs: blobs,
		key:   key,
		log:   log.With(zap.String("cart_key", key)),
		lines: make(map[models.ItemID]*models.CartLine),
	}
}

// Restore loads the cart from storage. A missing or unparseable blob leaves
// the cart empty and is not an error. A failed read also leaves the cart
// empty but is returned, since the stored cart may still be intact.
func (s *CartStore) Restore(ctx context.Context) error {
	s.lines = make(map[models.ItemID]*models.CartLine)

	data, err := s.blobs.Load(ctx, s.key)
	if errors.Is(err, ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	lines, dropped, err := decodeCart(data)
	if err != nil {
		s.log.Warn("cart blob unparseable, starting empty", zap.Error(err))
		return nil
	}
	if dropped > 0 {
		s.log.Warn("dropped invalid cart lines", zap.Int("dropped", dropped))
	}
	s.lines = lines
	return nil
}

// AddItem inserts the item with quantity 1, or bumps an existing line by one.
func (s *CartStore) AddItem(ctx context.Context, id models.ItemID, name string, price float64, img string) {
	id = models.ParseItemID(string(id))
	if line, ok := s.lines[id]; ok {
		line.Qty++
	} else {
		s.lines[id] = &models.CartLine{ID: id, Name: name, Price: price, Img: img, Qty: 1}
	}
	s.commit(ctx)
}

// ChangeQuantity adds delta to the line's quantity and removes the line when
// the result drops to zero or below. Unknown ids are ignored; the return
// value reports whether the line existed.
func (s *CartStore) ChangeQuantity(ctx context.Context, id models.ItemID, delta int) bool {
	id = models.ParseItemID(string(id))
	line, ok := s.lines[id]
	if !ok {
		return false
	}
	line.Qty += delta
	if line.Qty <= 0 {
		delete(s.lines, id)
	}
	s.commit(ctx)
	return true
}

// Clear removes every line.
func (s *CartStore) Clear(ctx context.Context) {
	s.lines = make(map[models.ItemID]*models.CartLine)
	s.commit(ctx)
}

// Totals returns the item count and the price sum of the current lines.
func (s *CartStore) Totals() (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, line := range s.lines {
		count += line.Qty
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return count, total
}

// Snapshot returns a copy of the lines in display order. Later mutations do
// not affect the returned slice.
func (s *CartStore) Snapshot() []models.CartLine {
	out := make([]models.CartLine, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, *line)
	}
	sortLines(out)
	return out
}

// Len is the number of distinct lines.
func (s *CartStore) Len() int {
	return len(s.lines)
}

// Subscribe registers fn to run after each mutation.
func (s *CartStore) Subscribe(fn func(CartChange)) {
	s.observers = append(s.observers, fn)
}

// Change describes the current state the way observers see it.
func (s *CartStore) Change() CartChange {
	count, total := s.Totals()
	return CartChange{
		Lines:           s.Snapshot(),
		TotalItems:      count,
		TotalPrice:      total,
		CheckoutEnabled: count > 0,
	}
}

func (s *CartStore) commit(ctx context.Context) {
	s.persist(ctx)
	if len(s.observers) == 0 {
		return
	}
	change := s.Change()
	for _, fn := range s.observers {
		fn(change)
	}
}

// persist detaches from the caller's cancellation: a mutation already
// applied in memory must reach storage even if the request went away.
func (s *CartStore) persist(ctx context.Context) {
	data, err := encodeCart(s.lines)
	if err != nil {
		s.log.Error("encode cart", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.blobs.Save(ctx, s.key, data); err != nil {
		s.log.Error("save cart", zap.Error(err))
	}
}

// encodeCart writes the blob as {"<id>": {id,name,price,img,qty}, ...}.
func encodeCart(lines map[models.ItemID]*models.CartLine) ([]byte, error) {
	m := make(map[string]models.CartLine, len(lines))
	for id, line := range lines {
		m[string(id)] = *line
	}
	return json.Marshal(m)
}

func decodeCart(data []byte) (map[models.ItemID]*models.CartLine, int, error) {
	var raw map[string]models.CartLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}
	lines := make(map[models.ItemID]*models.CartLine, len(raw))
	dropped := 0
	for key, line := range raw {
		id := models.ParseItemID(key)
		if id == "" || line.Qty <= 0 || line.Price < 0 {
			dropped++
			continue
		}
		line.ID = id
		if prev, ok := lines[id]; ok {
			prev.Qty += line.Qty
			continue
		}
		l := line
		lines[id] = &l
	}
	return lines, dropped, nil
}

// sortLines orders integer ids numerically first, then the rest by string.
func sortLines(lines []models.CartLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, aErr := strconv.ParseInt(string(lines[i].ID), 10, 64)
		b, bErr := strconv.ParseInt(string(lines[j].ID), 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return lines[i].ID < lines[j].ID
		}
	})
}
