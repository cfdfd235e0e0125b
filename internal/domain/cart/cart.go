package cart

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultSaveTimeout = 3 * time.Second

	// MaxLineQuantity caps the quantity of a single line.
	MaxLineQuantity = 999
)

var (
	ErrLineNotFound    = apperr.New(apperr.CodeNotFound, "cart line not found")
	ErrInvalidQuantity = apperr.New(apperr.CodeInvalidArgument, "quantity must be between 1 and 999")
	ErrInvalidProduct  = apperr.New(apperr.CodeInvalidArgument, "productId must be positive")
	ErrInvalidPrice    = apperr.New(apperr.CodeInvalidArgument, "unitPrice must not be negative")
)

// BlobStore persists one opaque cart blob per session. Load returns
// (nil, nil) when the session has nothing stored.
type BlobStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, blob []byte) error
}

// Cart is the ledger of one shopper session. Mutations are built on a copy
// of the lines and swapped in whole, then written through to the BlobStore.
// A failed write keeps the in-memory mutation and is reported as
// SOURCE_UNAVAILABLE.
type Cart struct {
	mu        sync.RWMutex
	sessionID string
	lines     []Line
	lastUsed  time.Time

	store       BlobStore
	newLineID   func() (string, error)
	saveTimeout time.Duration
	now         func() time.Time
	log         *logger.Logger
}

type Option func(*Cart)

// WithLineIDs replaces the UUIDv7 line id generator.
func WithLineIDs(gen func() (string, error)) Option {
	return func(c *Cart) { c.newLineID = gen }
}

// WithSaveTimeout bounds every store call, loads included.
func WithSaveTimeout(d time.Duration) Option {
	return func(c *Cart) {
		if d > 0 {
			c.saveTimeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Cart) { c.log = l.Component("cart") }
}

func withClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Open restores the cart of sessionID from store. A missing or unreadable
// blob yields an empty ledger; only a failing store is an error.
func Open(ctx context.Context, sessionID string, store BlobStore, opts ...Option) (*Cart, error) {
	c := &Cart{
		sessionID:   sessionID,
		lines:       []Line{},
		store:       store,
		newLineID:   newUUIDv7,
		saveTimeout: DefaultSaveTimeout,
		now:         time.Now,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastUsed = c.now()

	loadCtx, cancel := context.WithTimeout(ctx, c.saveTimeout)
	defer cancel()
	blob, err := store.Load(loadCtx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeSourceUnavailable, err, "loading cart failed")
	}
	lines, err := decodeLines(blob)
	if err != nil {
		ctx = c.log.WithSessionID(ctx, sessionID)
		c.log.Warn(ctx, "discarding unreadable cart", err)
		return c, nil
	}
	c.lines = lines
	return c, nil
}

func (c *Cart) SessionID() string {
	return c.sessionID
}

// AddItem merges qty into the line for (productID, v), creating it when
// absent. The returned line reflects the merged quantity.
func (c *Cart) AddItem(ctx context.Context, productID int64, unitPrice decimal.Decimal, v Variant, qty int) (Line, error) {
	switch {
	case productID <= 0:
		return Line{}, ErrInvalidProduct
	case qty < 1, qty > MaxLineQuantity:
		return Line{}, ErrInvalidQuantity
	case unitPrice.IsNegative():
		return Line{}, ErrInvalidPrice
	}
	if err := validation.Struct(v); err != nil {
		return Line{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := slices.Clone(c.lines)
	var line Line
	if i := indexOfTriple(next, productID, v); i >= 0 {
		if next[i].Quantity > MaxLineQuantity-qty {
			return Line{}, ErrInvalidQuantity
		}
		next[i].Quantity += qty
		line = next[i]
	} else {
		id, err := c.newLineID()
		if err != nil {
			return Line{}, apperr.Wrap(apperr.CodeInternal, err, "generating line id failed")
		}
		line = Line{
			LineID:    id,
			ProductID: productID,
			Size:      v.Size,
			Color:     v.Color,
			UnitPrice: unitPrice,
			Quantity:  qty,
		}
		next = append(next, line)
	}

	return line, c.commit(ctx, next)
}

// UpdateQuantity sets the quantity of lineID; qty <= 0 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, lineID string, qty int) ([]Line, error) {
	if qty <= 0 {
		return c.RemoveItem(ctx, lineID)
	}
	if qty > MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := indexOfLine(c.lines, lineID)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	next := slices.Clone(c.lines)
	next[i].Quantity = qty

	err := c.commit(ctx, next)
	return slices.Clone(c.lines), err
}

func (c *Cart) RemoveItem(ctx context.Context, lineID string) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := indexOfLine(c.lines, lineID)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	next := slices.Delete(slices.Clone(c.lines), i, i+1)

	err := c.commit(ctx, next)
	return slices.Clone(c.lines), err
}

// Clear empties the ledger. Clearing an empty cart does nothing.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		c.lastUsed = c.now()
		return nil
	}
	return c.commit(ctx, []Line{})
}

// Line returns the line with lineID.
func (c *Cart) Line(lineID string) (Line, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := indexOfLine(c.lines, lineID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the ledger in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.lines)
}

// ItemCount is the sum of line quantities.
func (c *Cart) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return itemCount(c.lines)
}

// Subtotal is the sum of unitPrice * quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return subtotal(c.lines)
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		SessionID: c.sessionID,
		Lines:     slices.Clone(c.lines),
		ItemCount: itemCount(c.lines),
		Subtotal:  subtotal(c.lines),
	}
}

// IdleSince reports when the cart was last opened or mutated.
func (c *Cart) IdleSince() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUsed
}

func (c *Cart) touch() {
	c.mu.Lock()
	c.lastUsed = c.now()
	c.mu.Unlock()
}

// commit swaps next in and writes it through. Callers hold c.mu.
func (c *Cart) commit(ctx context.Context, next []Line) error {
	c.lines = next
	c.lastUsed = c.now()

	blob, err := encodeLines(next)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "encoding cart failed")
	}

	saveCtx, cancel := context.WithTimeout(ctx, c.saveTimeout)
	defer cancel()
	if err := c.store.Save(saveCtx, c.sessionID, blob); err != nil {
		c.log.Error(c.log.WithSessionID(ctx, c.sessionID), "persisting cart", err)
		return apperr.Wrap(apperr.CodeSourceUnavailable, err, "cart changes were not saved")
	}
	return nil
}
