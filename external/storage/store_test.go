package storage

import (
	"errors"
	"testing"
)

// checkInvariants verifies that every slot is either fully empty or
// occupied with a positive quantity no greater than its capacity.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	for i, sl := range s.Slots() {
		if sl.Empty() {
			if sl.Qty != 0 || sl.StackMax != 0 {
				t.Fatalf("slot %d empty but qty=%d stackMax=%d", i, sl.Qty, sl.StackMax)
			}
			continue
		}
		if sl.Qty <= 0 || sl.Qty > sl.StackMax {
			t.Fatalf("slot %d holds %s with qty=%d stackMax=%d", i, sl.Item, sl.Qty, sl.StackMax)
		}
	}
}

func TestNewStoreAllSlotsAvailable(t *testing.T) {
	s := New(4)
	if s.SlotCount() != 4 {
		t.Fatalf("expected 4 slots, got %d", s.SlotCount())
	}
	idx, ok := s.NextAvailableSlot()
	if !ok || idx != 0 {
		t.Fatalf("expected next available slot 0, got %d (ok=%v)", idx, ok)
	}
	for i := 0; i < 4; i++ {
		avail, err := s.IsSlotAvailable(i)
		if err != nil {
			t.Fatalf("unexpected error for slot %d: %v", i, err)
		}
		if !avail {
			t.Fatalf("expected slot %d available", i)
		}
		full, err := s.IsSlotFull(i)
		if err != nil {
			t.Fatalf("unexpected error for slot %d: %v", i, err)
		}
		if full {
			t.Fatalf("empty slot %d reported full", i)
		}
	}
	checkInvariants(t, s)
}

func TestZeroSlotStore(t *testing.T) {
	s := New(0)
	if _, ok := s.NextAvailableSlot(); ok {
		t.Fatal("zero-slot store reported an available slot")
	}
	rem := s.Store([]Deposit{{Item: "green_bean", Qty: 12, StackMax: 64}})
	if len(rem) != 1 || rem[0].Qty != 12 {
		t.Fatalf("expected full remainder, got %+v", rem)
	}
	if _, err := s.IsSlotAvailable(0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := s.Put(0, "green_bean", 1, 64); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange from put, got %v", err)
	}
}

func TestStoreStacksBeforeClaiming(t *testing.T) {
	s := New(3)
	if rem := s.Store([]Deposit{{Item: "roasted_bean", Qty: 40, StackMax: 64}}); rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}

	// 24 units of headroom in slot 0; this deposit must not claim a
	// fresh slot.
	if rem := s.Store([]Deposit{{Item: "roasted_bean", Qty: 20, StackMax: 64}}); rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	sl, err := s.Slot(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sl.Qty != 60 {
		t.Fatalf("expected slot 0 qty 60, got %d", sl.Qty)
	}
	if avail, _ := s.IsSlotAvailable(1); !avail {
		t.Fatal("slot 1 should still be empty after stacking deposit")
	}
	checkInvariants(t, s)
}

func TestStoreOverflowClaimsAscending(t *testing.T) {
	s := New(4)
	rem := s.Store([]Deposit{{Item: "coffee_cherry", Qty: 150, StackMax: 64}})
	if rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	want := []int{64, 64, 22, 0}
	for i, q := range want {
		sl, _ := s.Slot(i)
		if sl.Qty != q {
			t.Fatalf("slot %d: expected qty %d, got %d", i, q, sl.Qty)
		}
		if q > 0 && sl.Item != "coffee_cherry" {
			t.Fatalf("slot %d holds %s", i, sl.Item)
		}
	}
	if idx, ok := s.NextAvailableSlot(); !ok || idx != 3 {
		t.Fatalf("expected next available slot 3, got %d (ok=%v)", idx, ok)
	}
	checkInvariants(t, s)
}

func TestStorePhaseSeparation(t *testing.T) {
	// One partial stack of beans, one empty slot. The bean entry is
	// listed second but must stack during phase one, before the milk
	// entry is allowed to claim the empty slot in phase two.
	s := New(2)
	if _, err := s.Put(0, "green_bean", 50, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rem := s.Store([]Deposit{
		{Item: "milk", Qty: 10, StackMax: 16},
		{Item: "green_bean", Qty: 20, StackMax: 64},
	})
	if len(rem) != 1 {
		t.Fatalf("expected one remainder entry, got %+v", rem)
	}
	// Beans stacked 14 into slot 0 first; milk then claimed the only
	// empty slot; the 6 leftover beans had nowhere to go.
	if rem[0].Item != "green_bean" || rem[0].Qty != 6 || rem[0].StackMax != 64 {
		t.Fatalf("unexpected remainder entry %+v", rem[0])
	}
	if got := s.TotalQuantityOf("green_bean"); got != 64 {
		t.Fatalf("expected 64 beans stored, got %d", got)
	}
	if got := s.TotalQuantityOf("milk"); got != 10 {
		t.Fatalf("expected 10 milk stored, got %d", got)
	}
	checkInvariants(t, s)
}

func TestStoreDuplicateKindsClaimSeparateSlots(t *testing.T) {
	// Stacking never merges into slots claimed during the overflow
	// phase, so duplicate kinds in one batch land in separate slots.
	s := New(3)
	rem := s.Store([]Deposit{
		{Item: "ground_coffee", Qty: 10, StackMax: 64},
		{Item: "ground_coffee", Qty: 10, StackMax: 64},
	})
	if rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	s0, _ := s.Slot(0)
	s1, _ := s.Slot(1)
	if s0.Qty != 10 || s1.Qty != 10 {
		t.Fatalf("expected two separate stacks of 10, got %d and %d", s0.Qty, s1.Qty)
	}

	// A later batch stacks into both before claiming anything new.
	if rem := s.Store([]Deposit{{Item: "ground_coffee", Qty: 110, StackMax: 64}}); rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	s0, _ = s.Slot(0)
	s1, _ = s.Slot(1)
	s2, _ := s.Slot(2)
	if s0.Qty != 64 || s1.Qty != 64 || s2.Qty != 2 {
		t.Fatalf("expected 64/64/2, got %d/%d/%d", s0.Qty, s1.Qty, s2.Qty)
	}
	checkInvariants(t, s)
}

func TestStoreConservation(t *testing.T) {
	s := New(3)
	if _, err := s.Put(1, "water", 60, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch := []Deposit{
		{Item: "water", Qty: 30, StackMax: 64},
		{Item: "milk", Qty: 40, StackMax: 16},
		{Item: "cup_espresso", Qty: 5, StackMax: 8},
	}
	rem := s.Store(batch)

	// Per kind: stored quantity plus remainder equals what was asked.
	left := map[ItemID]int{}
	for _, r := range rem {
		left[r.Item] += r.Qty
	}
	for _, d := range batch {
		got := s.TotalQuantityOf(d.Item) + left[d.Item]
		want := d.Qty
		if d.Item == "water" {
			want += 60 // seeded before the batch
		}
		if got != want {
			t.Fatalf("%s: stored+remainder=%d, want %d", d.Item, got, want)
		}
	}
	checkInvariants(t, s)
}

func TestStoreZeroQuantityEntriesAreNoOps(t *testing.T) {
	s := New(2)
	rem := s.Store([]Deposit{
		{Item: "milk", Qty: 0, StackMax: 16},
		{Item: "", Qty: 0},
		{Item: "water", Qty: 3, StackMax: 64},
	})
	if rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	if got := s.TotalQuantityOf("milk"); got != 0 {
		t.Fatalf("zero-quantity deposit stored %d milk", got)
	}
	if avail, _ := s.IsSlotAvailable(1); !avail {
		t.Fatal("zero-quantity entries must not claim slots")
	}
}

func TestStoreContractViolationsPanic(t *testing.T) {
	cases := []struct {
		name  string
		batch []Deposit
	}{
		{"negative quantity", []Deposit{{Item: "milk", Qty: -1, StackMax: 16}}},
		{"missing item kind", []Deposit{{Item: "", Qty: 5, StackMax: 16}}},
		{"zero stack capacity", []Deposit{{Item: "milk", Qty: 5, StackMax: 0}}},
	}
	for _, tc := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", tc.name)
				}
			}()
			New(2).Store(tc.batch)
		}()
	}
}

func TestPutIntoEmptySlot(t *testing.T) {
	s := New(2)
	evicted, err := s.Put(1, "roasted_bean", 30, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evicted != nil {
		t.Fatalf("expected no eviction, got %+v", evicted)
	}
	sl, _ := s.Slot(1)
	if sl.Item != "roasted_bean" || sl.Qty != 30 || sl.StackMax != 64 {
		t.Fatalf("unexpected slot content %+v", sl)
	}
	checkInvariants(t, s)
}

func TestPutEvictsOccupant(t *testing.T) {
	s := New(1)
	if _, err := s.Put(0, "green_bean", 12, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evicted, err := s.Put(0, "milk", 4, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evicted) != 1 {
		t.Fatalf("expected one evicted entry, got %+v", evicted)
	}
	if e := evicted[0]; e.Item != "green_bean" || e.Qty != 12 || e.StackMax != 64 {
		t.Fatalf("unexpected eviction %+v", e)
	}
	sl, _ := s.Slot(0)
	if sl.Item != "milk" || sl.Qty != 4 {
		t.Fatalf("unexpected slot content %+v", sl)
	}
}

func TestPutSameKindReplacesWithoutMerging(t *testing.T) {
	s := New(1)
	if _, err := s.Put(0, "water", 10, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evicted, err := s.Put(0, "water", 5, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evicted) != 1 || evicted[0].Qty != 10 {
		t.Fatalf("expected the prior 10 water evicted, got %+v", evicted)
	}
	if got := s.TotalQuantityOf("water"); got != 5 {
		t.Fatalf("expected 5 water after replacement, got %d", got)
	}
}

func TestPutOutOfRange(t *testing.T) {
	s := New(2)
	if _, err := s.Put(2, "milk", 1, 16); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := s.Put(-1, "milk", 1, 16); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for negative index, got %v", err)
	}
}

func TestPutContractViolationsPanic(t *testing.T) {
	s := New(1)
	cases := []struct {
		name          string
		item          ItemID
		qty, stackMax int
	}{
		{"zero quantity", "milk", 0, 16},
		{"negative quantity", "milk", -3, 16},
		{"missing item kind", "", 1, 16},
		{"quantity over capacity", "milk", 20, 16},
	}
	for _, tc := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", tc.name)
				}
			}()
			s.Put(0, tc.item, tc.qty, tc.stackMax)
		}()
	}
}

func TestRetrieveDrainsAscendingAndClears(t *testing.T) {
	s := New(3)
	s.Store([]Deposit{{Item: "coffee_cherry", Qty: 100, StackMax: 64}}) // 64 + 36

	got := s.Retrieve([]Request{{Item: "coffee_cherry", Qty: 70}})
	if len(got) != 1 || got[0].Qty != 70 {
		t.Fatalf("expected withdrawal of 70, got %+v", got)
	}
	// Slot 0 drained to zero and cleared; slot 1 keeps the rest.
	if avail, _ := s.IsSlotAvailable(0); !avail {
		t.Fatal("slot 0 should be cleared after draining")
	}
	sl, _ := s.Slot(1)
	if sl.Qty != 30 {
		t.Fatalf("expected 30 left in slot 1, got %d", sl.Qty)
	}
	if idx, ok := s.NextAvailableSlot(); !ok || idx != 0 {
		t.Fatalf("expected slot 0 available again, got %d (ok=%v)", idx, ok)
	}
	checkInvariants(t, s)
}

func TestRetrieveUnderDelivery(t *testing.T) {
	s := New(2)
	s.Store([]Deposit{{Item: "milk", Qty: 9, StackMax: 16}})

	got := s.Retrieve([]Request{
		{Item: "milk", Qty: 50},
		{Item: "oat_milk", Qty: 3},
	})
	// Short delivery reports what was removed; absent kinds are omitted
	// entirely.
	if len(got) != 1 {
		t.Fatalf("expected one withdrawal entry, got %+v", got)
	}
	if got[0].Item != "milk" || got[0].Qty != 9 {
		t.Fatalf("unexpected withdrawal %+v", got[0])
	}
	if total := s.TotalQuantityOf("milk"); total != 0 {
		t.Fatalf("expected milk drained, have %d", total)
	}
}

func TestRetrieveRepeatedKindDrawsSequentially(t *testing.T) {
	s := New(2)
	s.Store([]Deposit{{Item: "water", Qty: 20, StackMax: 64}})

	got := s.Retrieve([]Request{
		{Item: "water", Qty: 15},
		{Item: "water", Qty: 15},
	})
	if len(got) != 2 {
		t.Fatalf("expected two withdrawal entries, got %+v", got)
	}
	if got[0].Qty != 15 || got[1].Qty != 5 {
		t.Fatalf("expected 15 then 5, got %d then %d", got[0].Qty, got[1].Qty)
	}
}

func TestRetrieveMonotonicDrain(t *testing.T) {
	s := New(4)
	s.Store([]Deposit{{Item: "roasted_bean", Qty: 130, StackMax: 64}})

	for _, req := range []int{40, 200, 10} {
		before := s.TotalQuantityOf("roasted_bean")
		s.Retrieve([]Request{{Item: "roasted_bean", Qty: req}})
		after := s.TotalQuantityOf("roasted_bean")
		want := before - req
		if want < 0 {
			want = 0
		}
		if after != want {
			t.Fatalf("retrieve %d: total went %d -> %d, want %d", req, before, after, want)
		}
		checkInvariants(t, s)
	}
}

func TestTakeEmptiesSlot(t *testing.T) {
	s := New(2)
	if _, err := s.Put(0, "cup_latte", 3, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	taken, err := s.Take(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken.Item != "cup_latte" || taken.Qty != 3 || taken.StackMax != 8 {
		t.Fatalf("unexpected taken slot %+v", taken)
	}
	if avail, _ := s.IsSlotAvailable(0); !avail {
		t.Fatal("slot 0 should be empty after take")
	}

	// Taking an empty slot is a harmless no-op.
	taken, err = s.Take(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken.Empty() {
		t.Fatalf("expected empty slot, got %+v", taken)
	}
	if _, err := s.Take(7); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestStorePerDepositCapacityWins(t *testing.T) {
	// No cross-call capacity reconciliation: whichever capacity travels
	// with the entry that claims a slot is the one that slot keeps.
	s := New(3)
	s.Store([]Deposit{{Item: "coffee_seed", Qty: 16, StackMax: 16}})
	s.Store([]Deposit{{Item: "coffee_seed", Qty: 40, StackMax: 64}})

	s0, _ := s.Slot(0)
	s1, _ := s.Slot(1)
	if s0.StackMax != 16 || s1.StackMax != 64 {
		t.Fatalf("expected capacities 16 and 64, got %d and %d", s0.StackMax, s1.StackMax)
	}
	// Stacking respects the capacity of the slot, not of the deposit.
	rem := s.Store([]Deposit{{Item: "coffee_seed", Qty: 30, StackMax: 16}})
	if rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	s1, _ = s.Slot(1)
	s2, _ := s.Slot(2)
	if s1.Qty != 64 || s2.Qty != 6 || s2.StackMax != 16 {
		t.Fatalf("expected slot1 64/64 and slot2 6/16, got %d/%d and %d/%d",
			s1.Qty, s1.StackMax, s2.Qty, s2.StackMax)
	}
	checkInvariants(t, s)
}

func TestStoreRetrieveLifecycle(t *testing.T) {
	// End-to-end walk over a three-slot store exercising stacking,
	// overflow, remainders, under-delivery and auto-clearing together.
	s := New(3)

	rem := s.Store([]Deposit{
		{Item: "coffee_cherry", Qty: 64, StackMax: 64},
		{Item: "milk", Qty: 10, StackMax: 64},
	})
	if rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	if avail, _ := s.IsSlotAvailable(2); !avail {
		t.Fatal("expected slot 2 free after first batch")
	}

	if rem := s.Store([]Deposit{{Item: "milk", Qty: 30, StackMax: 64}}); rem != nil {
		t.Fatalf("unexpected remainder %+v", rem)
	}
	if got := s.TotalQuantityOf("milk"); got != 40 {
		t.Fatalf("expected 40 milk, got %d", got)
	}

	rem = s.Store([]Deposit{
		{Item: "green_bean", Qty: 100, StackMax: 64},
		{Item: "water", Qty: 50, StackMax: 32},
	})
	if got := s.TotalQuantityOf("green_bean"); got != 64 {
		t.Fatalf("expected 64 green beans placed, got %d", got)
	}
	if got := s.TotalQuantityOf("water"); got != 0 {
		t.Fatalf("expected no water placed, got %d", got)
	}
	want := []Deposit{
		{Item: "green_bean", Qty: 36, StackMax: 64},
		{Item: "water", Qty: 50, StackMax: 32},
	}
	if len(rem) != len(want) {
		t.Fatalf("expected remainder %+v, got %+v", want, rem)
	}
	for i := range want {
		if rem[i] != want[i] {
			t.Fatalf("remainder[%d]: expected %+v, got %+v", i, want[i], rem[i])
		}
	}

	got := s.Retrieve([]Request{
		{Item: "coffee_cherry", Qty: 20},
		{Item: "milk", Qty: 15},
	})
	if len(got) != 2 || got[0].Qty != 20 || got[1].Qty != 15 {
		t.Fatalf("unexpected withdrawals %+v", got)
	}
	if s.TotalQuantityOf("coffee_cherry") != 44 || s.TotalQuantityOf("milk") != 25 {
		t.Fatalf("unexpected totals after retrieve: cherry=%d milk=%d",
			s.TotalQuantityOf("coffee_cherry"), s.TotalQuantityOf("milk"))
	}

	got = s.Retrieve([]Request{{Item: "coffee_cherry", Qty: 100}})
	if len(got) != 1 || got[0].Qty != 44 {
		t.Fatalf("expected withdrawal of the remaining 44, got %+v", got)
	}
	if s.TotalQuantityOf("coffee_cherry") != 0 {
		t.Fatal("expected cherries fully drained")
	}
	if avail, _ := s.IsSlotAvailable(0); !avail {
		t.Fatal("expected the cherry slot to be available after draining")
	}
	checkInvariants(t, s)
}

func TestIsSlotFull(t *testing.T) {
	s := New(2)
	if _, err := s.Put(0, "cup_espresso", 8, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	full, err := s.IsSlotFull(0)
	if err != nil || !full {
		t.Fatalf("expected slot 0 full, got %v (err=%v)", full, err)
	}
	s.Retrieve([]Request{{Item: "cup_espresso", Qty: 1}})
	if full, _ := s.IsSlotFull(0); full {
		t.Fatal("slot 0 no longer full after retrieve")
	}
	if _, err := s.IsSlotFull(9); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	s := New(1)
	if _, err := s.Put(0, "milk", 5, 16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sl, _ := s.Slot(0)
	sl.Qty = 999
	all := s.Slots()
	all[0].Qty = 999

	fresh, _ := s.Slot(0)
	if fresh.Qty != 5 {
		t.Fatalf("caller mutation leaked into the store: qty=%d", fresh.Qty)
	}
}
