package production

import (
	"errors"
	"fmt"
	"sync"

	"github.com/0x00ASTRA/storage"
)

// DefaultStackMax is the per-slot capacity used for deposits when no
// capacity resolver is configured or the resolver has no answer.
const DefaultStackMax = 64

// CapacityFunc resolves the per-slot stack capacity to request when
// depositing an item kind. Returning 0 or less falls back to
// DefaultStackMax.
type CapacityFunc func(item storage.ItemID) int

// SimpleStoreProvider is a basic implementation of StoreProvider backed
// by an in-memory registry of slot stores.
type SimpleStoreProvider struct {
	mu       sync.RWMutex
	stores   map[string]*storage.Store
	capacity CapacityFunc
}

// NewSimpleStoreProvider creates a store provider. The capacity
// resolver may be nil, in which case every deposit requests
// DefaultStackMax per slot.
func NewSimpleStoreProvider(capacity CapacityFunc) *SimpleStoreProvider {
	return &SimpleStoreProvider{
		stores:   make(map[string]*storage.Store),
		capacity: capacity,
	}
}

// AddStore registers a store under an ID. Registering an ID again
// replaces the previous store.
func (p *SimpleStoreProvider) AddStore(id string, st *storage.Store) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stores[id] = st
}

// GetStore retrieves a store by ID.
func (p *SimpleStoreProvider) GetStore(id string) (*storage.Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st, exists := p.stores[id]
	if !exists {
		return nil, fmt.Errorf("store not found: %s", id)
	}

	return st, nil
}

// ConsumeItems atomically removes recipe inputs from a store.
// Only consumes items where ItemRequirement.Consume == true.
// For non-consumed items (tools), validates existence but doesn't remove.
func (p *SimpleStoreProvider) ConsumeItems(st *storage.Store, items []ItemRequirement) error {
	if st == nil {
		return errors.New("store is nil")
	}

	// First pass: validate availability. Consumable requirements reserve
	// their quantity so duplicate requirements of the same item within
	// one recipe cannot satisfy themselves from the same stock; tool
	// requirements only check what remains unreserved.
	reserved := make(map[storage.ItemID]int, len(items))
	for _, req := range items {
		available := st.TotalQuantityOf(req.Item) - reserved[req.Item]
		if available < req.Quantity {
			return fmt.Errorf("insufficient %s: have %d, need %d", req.Item, available, req.Quantity)
		}
		if req.Consume {
			reserved[req.Item] += req.Quantity
		}
	}

	// Second pass: withdraw the consumable requirements in one batch.
	requests := make([]storage.Request, 0, len(items))
	for _, req := range items {
		if req.Consume {
			requests = append(requests, storage.Request{Item: req.Item, Qty: req.Quantity})
		}
	}
	if len(requests) == 0 {
		return nil
	}

	removed := make(map[storage.ItemID]int, len(requests))
	for _, w := range st.Retrieve(requests) {
		removed[w.Item] += w.Qty
	}

	// Validation above guarantees full delivery; a short withdrawal
	// means the store was mutated between the two passes.
	for item, want := range reserved {
		if removed[item] != want {
			return fmt.Errorf("failed to consume %s: removed %d of %d", item, removed[item], want)
		}
	}

	return nil
}

// DepositItems places produced items into a store as one batch, using
// the provider's capacity resolver for freshly claimed slots. A deposit
// that does not fully fit fails with an error describing the overflow;
// the portion that did fit stays in the store.
func (p *SimpleStoreProvider) DepositItems(st *storage.Store, items []ItemYield) error {
	if st == nil {
		return errors.New("store is nil")
	}

	batch := make([]storage.Deposit, 0, len(items))
	total := 0
	for _, yield := range items {
		if yield.Quantity <= 0 {
			continue
		}
		batch = append(batch, storage.Deposit{
			Item:     yield.Item,
			Qty:      yield.Quantity,
			StackMax: p.capacityFor(yield.Item),
		})
		total += yield.Quantity
	}
	if len(batch) == 0 {
		return nil
	}

	if rem := st.Store(batch); len(rem) > 0 {
		unplaced := 0
		for _, r := range rem {
			unplaced += r.Qty
		}
		return fmt.Errorf("store full: %d of %d items not placed", unplaced, total)
	}

	return nil
}

// capacityFor resolves the per-slot capacity for an item kind.
func (p *SimpleStoreProvider) capacityFor(item storage.ItemID) int {
	if p.capacity != nil {
		if c := p.capacity(item); c > 0 {
			return c
		}
	}
	return DefaultStackMax
}
