package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartCreator submits line inputs to the commerce platform and returns the
// reshaped response. A non-nil error means the call itself failed (transport,
// non-2xx, undecodable body).
type CartCreator interface {
	CreateCart(ctx context.Context, lines []LineInput) (CheckoutResult, error)
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the receiver for toast and panel side effects.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithCartCreator sets the upstream used by Checkout.
func WithCartCreator(c CartCreator) Option {
	return func(s *Store) {
		s.creator = c
	}
}

// WithLogger sets the logger used for storage and checkout diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the in-memory cart backed by a write-through Storage slot.
type Store struct {
	storage  Storage
	notifier Notifier
	creator  CartCreator
	logger   *zap.Logger

	lines       []Line
	open        bool
	initialized bool
}

// NewStore returns an uninitialized Store. The first call to any operation
// hydrates it from storage.
func NewStore(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage(nil)
	}
	s := &Store{
		storage:  storage,
		notifier: NopNotifier{},
		logger:   zap.NewNop(),
		lines:    []Line{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize hydrates the cart from storage once. Later calls are no-ops.
// Unreadable or corrupted storage yields an empty cart.
func (s *Store) Initialize() {
	if s.initialized {
		return
	}
	s.initialized = true

	raw, err := s.storage.Load()
	if err != nil {
		s.logger.Error("cart: failed to read storage", zap.Error(err))
		s.lines = []Line{}
		return
	}

	n := Normalize(raw)
	if inv, ok := n.(Invalid); ok {
		s.logger.Warn("cart: discarding stored cart", zap.Error(inv.Reason))
	}
	s.lines = LinesOf(n)
}

// Lines returns a copy of the current line items in display order.
func (s *Store) Lines() []Line {
	s.Initialize()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Add puts quantity units of item into the cart. If the variant is already
// present only its quantity grows; the stored metadata is kept as is.
// Items missing a variant or product id are rejected with ErrInvalidItem.
func (s *Store) Add(item Item, quantity int) error {
	s.Initialize()
	if item.VariantID == "" || item.ProductID == "" {
		return ErrInvalidItem
	}
	if quantity <= 0 {
		return nil
	}

	if idx := s.indexOf(item.VariantID); idx >= 0 {
		s.lines[idx].Quantity += quantity
		s.notifier.Success(fmt.Sprintf("Updated %s quantity", item.Title))
	} else {
		s.lines = append(s.lines, newLine(item, quantity))
		s.notifier.Success(fmt.Sprintf("Added %s to cart", item.Title))
	}

	err := s.persist()
	s.Open()
	return err
}

// Remove deletes the line for variantID. Unknown ids are ignored.
func (s *Store) Remove(variantID string) error {
	s.Initialize()
	idx := s.indexOf(variantID)
	if idx < 0 {
		return nil
	}

	target := s.lines[idx]
	s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	err := s.persist()
	s.notifier.Success(fmt.Sprintf("Removed %s from cart", target.Title))
	return err
}

// SetQuantity overwrites the quantity of an existing line. A quantity of
// zero or less removes the line. Unknown ids are ignored.
func (s *Store) SetQuantity(variantID string, quantity int) error {
	s.Initialize()
	idx := s.indexOf(variantID)
	if idx < 0 {
		return nil
	}
	if quantity <= 0 {
		return s.Remove(variantID)
	}

	s.lines[idx].Quantity = quantity
	return s.persist()
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.Initialize()
	s.lines = []Line{}
	return s.persist()
}

// Count is the total number of units across all lines.
func (s *Store) Count() int {
	s.Initialize()
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Total sums price × quantity. Lines whose price does not parse as a
// decimal contribute nothing.
func (s *Store) Total() decimal.Decimal {
	s.Initialize()
	total := decimal.Zero
	for _, l := range s.lines {
		price, err := decimal.NewFromString(strings.TrimSpace(l.Price))
		if err != nil {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Open marks the cart panel visible.
func (s *Store) Open() {
	s.open = true
	s.notifier.OpenCart()
}

// Close hides the cart panel.
func (s *Store) Close() {
	s.open = false
}

// IsOpen reports whether the cart panel is visible.
func (s *Store) IsOpen() bool {
	return s.open
}

func (s *Store) indexOf(variantID string) int {
	for i := range s.lines {
		if s.lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func (s *Store) persist() error {
	data, err := json.Marshal(s.lines)
	if err != nil {
		s.logger.Error("cart: failed to encode cart", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.storage.Save(data); err != nil {
		s.logger.Error("cart: failed to persist cart", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}
