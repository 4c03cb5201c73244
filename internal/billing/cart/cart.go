package cart

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

// CatalogItem is the read-only menu entry a line is created from.
type CatalogItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BranchID  string          `json:"branch_id"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

// LineIDs hands out cart-local line ids. ULIDs from a monotonic entropy source keep
// ids strictly increasing even when several lines are added in the same millisecond.
type LineIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewLineIDs(now func() time.Time) *LineIDs {
	if now == nil {
		now = time.Now
	}
	return &LineIDs{entropy: ulid.Monotonic(rand.Reader, 0), now: now}
}

func (g *LineIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// Cart keeps lines in insertion order. Every operation is total: unknown line ids
// are ignored and quantities never go below zero.
type Cart struct {
	lines []domain.OrderItem
	ids   *LineIDs
}

func New(ids *LineIDs) *Cart {
	if ids == nil {
		ids = NewLineIDs(nil)
	}
	return &Cart{ids: ids}
}

// Add increments the line for the same catalog item and variation, or appends a new one.
func (c *Cart) Add(item CatalogItem, variation string) string {
	for i := range c.lines {
		if c.lines[i].CatalogItemID == item.ID && c.lines[i].Variation == variation {
			c.lines[i].Quantity++
			return c.lines[i].ID
		}
	}
	id := c.ids.Next()
	c.lines = append(c.lines, domain.OrderItem{
		ID:            id,
		CatalogItemID: item.ID,
		Name:          item.Name,
		UnitPrice:     item.Price,
		Quantity:      1,
		Variation:     variation,
	})
	return id
}

// UpdateQuantity applies delta, removing the line when the result reaches zero.
func (c *Cart) UpdateQuantity(lineID string, delta int) {
	i := c.index(lineID)
	if i < 0 {
		return
	}
	q := c.lines[i].Quantity + delta
	if q <= 0 {
		c.Remove(lineID)
		return
	}
	c.lines[i].Quantity = q
}

func (c *Cart) SetNote(lineID, note string) {
	if i := c.index(lineID); i >= 0 {
		c.lines[i].Note = note
	}
}

func (c *Cart) Remove(lineID string) {
	if i := c.index(lineID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) Len() int { return len(c.lines) }

// Lines returns a copy; callers cannot mutate the cart through it.
func (c *Cart) Lines() []domain.OrderItem {
	out := make([]domain.OrderItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) index(lineID string) int {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
