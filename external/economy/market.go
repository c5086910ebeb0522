package economy

import (
	"errors"
	"sort"
	"sync"

	"github.com/0x00ASTRA/storage"
)

// ErrNotTraded is returned for items the market has no listing for.
var ErrNotTraded = errors.New("item is not traded on the market")

const basisPointDenom = 10000

// Quote is the market's current view of one item: the listed base
// price plus the derived buy and sell prices, all in cents.
type Quote struct {
	Item storage.ItemID `json:"item"`
	Base int64          `json:"base"`
	Buy  int64          `json:"buy"`
	Sell int64          `json:"sell"`
}

// Market is a thread-safe price list. The spread is expressed in basis
// points: players buy at base plus markup (rounded up, so the house
// never loses a fraction) and sell at base minus discount (rounded
// down, same reason).
type Market struct {
	mu           sync.RWMutex
	prices       map[storage.ItemID]int64
	buyMarkupBP  int64
	sellDiscount int64
}

// NewMarket creates an empty market with the given spread in basis
// points. Negative values are clamped to zero.
func NewMarket(buyMarkupBP, sellDiscountBP int64) *Market {
	if buyMarkupBP < 0 {
		buyMarkupBP = 0
	}
	if sellDiscountBP < 0 {
		sellDiscountBP = 0
	}
	return &Market{
		prices:       make(map[storage.ItemID]int64, 16),
		buyMarkupBP:  buyMarkupBP,
		sellDiscount: sellDiscountBP,
	}
}

// SetBasePrice lists an item (or re-prices an existing listing).
func (m *Market) SetBasePrice(item storage.ItemID, base int64) error {
	if item == "" || base <= 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[item] = base
	return nil
}

// Quote returns the full quote for one item.
func (m *Market) Quote(item storage.ItemID) (Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	base, ok := m.prices[item]
	if !ok {
		return Quote{}, ErrNotTraded
	}
	return m.quoteLocked(item, base), nil
}

// BuyPrice returns the per-unit price a player pays for an item.
func (m *Market) BuyPrice(item storage.ItemID) (int64, error) {
	q, err := m.Quote(item)
	if err != nil {
		return 0, err
	}
	return q.Buy, nil
}

// SellPrice returns the per-unit price a player receives for an item.
func (m *Market) SellPrice(item storage.ItemID) (int64, error) {
	q, err := m.Quote(item)
	if err != nil {
		return 0, err
	}
	return q.Sell, nil
}

// Quotes returns all listings sorted by item ID.
func (m *Market) Quotes() []Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Quote, 0, len(m.prices))
	for item, base := range m.prices {
		out = append(out, m.quoteLocked(item, base))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// quoteLocked derives a quote from a base price. Caller must hold m.mu.
func (m *Market) quoteLocked(item storage.ItemID, base int64) Quote {
	buy := (base*(basisPointDenom+m.buyMarkupBP) + basisPointDenom - 1) / basisPointDenom
	sell := base * (basisPointDenom - m.sellDiscount) / basisPointDenom
	if sell < 0 {
		sell = 0
	}
	return Quote{Item: item, Base: base, Buy: buy, Sell: sell}
}
