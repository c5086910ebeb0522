package storage

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a slot index is outside the store's
// fixed slot range.
var ErrOutOfRange = errors.New("slot index out of range")

// Store is a fixed collection of slots, each holding at most one item
// kind up to a per-slot stack capacity. The slot count is set at
// construction and never changes; slot indices are stable and only
// change contents through Store, Put, Retrieve and Take.
//
// A Store is not safe for concurrent use. Callers that share one across
// goroutines must guard every call with a single exclusive lock; each
// mutating operation runs to completion and must never be observed
// mid-transfer.
type Store struct {
	slots []Slot
}

// New creates a store with the given number of empty slots. A slot
// count of zero is legal and yields a store that rejects every deposit
// for lack of space rather than erroring.
func New(slotCount int) *Store {
	if slotCount < 0 {
		panic(fmt.Sprintf("storage: negative slot count %d", slotCount))
	}
	return &Store{slots: make([]Slot, slotCount)}
}

// SlotCount returns the fixed number of slots.
func (s *Store) SlotCount() int {
	return len(s.slots)
}

// Slot returns a copy of the slot at index. Callers never receive a
// reference into the store's backing array.
func (s *Store) Slot(index int) (Slot, error) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, fmt.Errorf("slot %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	return s.slots[index], nil
}

// Slots returns a copy of every slot in index order.
func (s *Store) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// NextAvailableSlot returns the lowest-indexed empty slot. The second
// return value is false when every slot is occupied.
func (s *Store) NextAvailableSlot() (int, bool) {
	for i := range s.slots {
		if s.slots[i].Empty() {
			return i, true
		}
	}
	return 0, false
}

// IsSlotAvailable reports whether the slot at index is empty.
func (s *Store) IsSlotAvailable(index int) (bool, error) {
	if index < 0 || index >= len(s.slots) {
		return false, fmt.Errorf("slot %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	return s.slots[index].Empty(), nil
}

// IsSlotFull reports whether the slot at index holds its full stack
// capacity. An empty slot is not full.
func (s *Store) IsSlotFull(index int) (bool, error) {
	if index < 0 || index >= len(s.slots) {
		return false, fmt.Errorf("slot %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	sl := s.slots[index]
	return !sl.Empty() && sl.Qty == sl.StackMax, nil
}

// TotalQuantityOf sums the stored quantity of an item kind across all
// slots. Absent kinds total zero.
func (s *Store) TotalQuantityOf(item ItemID) int {
	total := 0
	for i := range s.slots {
		if s.slots[i].Item == item && !s.slots[i].Empty() {
			total += s.slots[i].Qty
		}
	}
	return total
}

// Store deposits a batch of items and returns what could not be placed.
//
// Placement runs in two strict phases. First every entry, in input
// order, stacks into existing slots of its own kind (ascending index,
// never past a slot's capacity, never claiming an empty slot). Only
// after stacking has run for the whole batch does overflow begin:
// each entry still carrying quantity, again in input order, claims
// empty slots lowest index first, giving each claimed slot the entry's
// requested stack capacity. Stacking never merges into slots claimed
// during the overflow phase, so duplicate kinds within one batch end
// up in separate slots.
//
// The remainder holds one entry per input entry that could not be fully
// placed, in input order, carrying the leftover quantity and the
// capacity that was requested. A nil remainder means the whole batch
// was deposited. Entries with zero quantity are no-ops.
//
// Malformed entries are caller bugs and panic: negative quantities, and
// active entries (quantity > 0) with an empty item kind or a
// non-positive stack capacity.
func (s *Store) Store(batch []Deposit) []Deposit {
	for i, d := range batch {
		if d.Qty < 0 {
			panic(fmt.Sprintf("storage: deposit %d has negative quantity %d", i, d.Qty))
		}
		if d.Qty == 0 {
			continue
		}
		if d.Item == "" {
			panic(fmt.Sprintf("storage: deposit %d has no item kind", i))
		}
		if d.StackMax <= 0 {
			panic(fmt.Sprintf("storage: deposit %d of %s has stack capacity %d", i, d.Item, d.StackMax))
		}
	}

	// Scratch copy of in-progress quantities; the batch itself is never
	// mutated.
	remaining := make([]int, len(batch))
	for i, d := range batch {
		remaining[i] = d.Qty
	}

	// Phase 1: stacking. Runs to completion for every entry before any
	// entry may claim an empty slot.
	for i, d := range batch {
		for si := range s.slots {
			if remaining[i] == 0 {
				break
			}
			sl := &s.slots[si]
			if sl.Empty() || sl.Item != d.Item || sl.Qty >= sl.StackMax {
				continue
			}
			moved := sl.StackMax - sl.Qty
			if moved > remaining[i] {
				moved = remaining[i]
			}
			sl.Qty += moved
			remaining[i] -= moved
		}
	}

	// Phase 2: overflow into empty slots, input order, ascending index.
	for i, d := range batch {
		for remaining[i] > 0 {
			free, ok := s.NextAvailableSlot()
			if !ok {
				break
			}
			placed := d.StackMax
			if placed > remaining[i] {
				placed = remaining[i]
			}
			s.slots[free] = Slot{Item: d.Item, Qty: placed, StackMax: d.StackMax}
			remaining[i] -= placed
		}
	}

	var remainder []Deposit
	for i, d := range batch {
		if remaining[i] > 0 {
			remainder = append(remainder, Deposit{Item: d.Item, Qty: remaining[i], StackMax: d.StackMax})
		}
	}
	return remainder
}

// Put writes an item directly into one slot, replacing whatever was
// there. The prior occupant, if any, is evicted into the returned
// remainder as a single entry; putting into an empty slot returns a nil
// remainder. Put never merges with same-kind content; use Store for
// stacking behavior.
//
// Returns ErrOutOfRange for indices outside the store. A non-positive
// quantity, an empty item kind, or a quantity above the given stack
// capacity is a caller bug and panics.
func (s *Store) Put(index int, item ItemID, qty, stackMax int) ([]Deposit, error) {
	if index < 0 || index >= len(s.slots) {
		return nil, fmt.Errorf("put slot %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	if qty <= 0 {
		panic(fmt.Sprintf("storage: put quantity %d", qty))
	}
	if item == "" {
		panic("storage: put with no item kind")
	}
	if stackMax < qty {
		panic(fmt.Sprintf("storage: put quantity %d over stack capacity %d", qty, stackMax))
	}

	var evicted []Deposit
	if prior := s.slots[index]; !prior.Empty() {
		evicted = []Deposit{{Item: prior.Item, Qty: prior.Qty, StackMax: prior.StackMax}}
	}
	s.slots[index] = Slot{Item: item, Qty: qty, StackMax: stackMax}
	return evicted, nil
}

// Retrieve withdraws a batch of item requests and reports what was
// actually removed. Each request drains matching slots in ascending
// index order until satisfied or until no matching stock remains; a
// slot drained to zero is cleared immediately and becomes available.
//
// Retrieval never fails: requests beyond available stock remove
// whatever is there, and kinds with nothing removed are omitted from
// the result rather than reported as zero. Repeated kinds within one
// batch are served independently, each drawing from what the earlier
// request left behind.
//
// Negative quantities and active requests without an item kind are
// caller bugs and panic.
func (s *Store) Retrieve(batch []Request) []Withdrawal {
	for i, r := range batch {
		if r.Qty < 0 {
			panic(fmt.Sprintf("storage: request %d has negative quantity %d", i, r.Qty))
		}
		if r.Qty > 0 && r.Item == "" {
			panic(fmt.Sprintf("storage: request %d has no item kind", i))
		}
	}

	var result []Withdrawal
	for _, r := range batch {
		need := r.Qty
		removed := 0
		for si := range s.slots {
			if need == 0 {
				break
			}
			sl := &s.slots[si]
			if sl.Empty() || sl.Item != r.Item {
				continue
			}
			take := sl.Qty
			if take > need {
				take = need
			}
			sl.Qty -= take
			if sl.Qty == 0 {
				// Emptying always clears the occupant; a slot is never
				// left occupied-but-empty.
				*sl = Slot{}
			}
			need -= take
			removed += take
		}
		if removed > 0 {
			result = append(result, Withdrawal{Item: r.Item, Qty: removed})
		}
	}
	return result
}

// Take removes and returns the entire content of one slot, leaving it
// empty. Taking from a slot that is already empty returns the zero
// Slot. Returns ErrOutOfRange for indices outside the store.
func (s *Store) Take(index int) (Slot, error) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, fmt.Errorf("take slot %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	taken := s.slots[index]
	s.slots[index] = Slot{}
	return taken, nil
}
