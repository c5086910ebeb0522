package storage

// Package storage provides a fixed-capacity, slot-based item store.
// It only tracks item identifiers, per-slot quantities and per-slot
// stack capacities; item meaning lives in the host application.

// ItemID represents an application-defined identifier for an item kind.
// The store does not interpret this value.
type ItemID string

// Slot is a value snapshot of one storage cell. The zero value is an
// empty slot: no item, zero quantity, unset capacity. While a slot is
// occupied its quantity is positive and never exceeds StackMax.
type Slot struct {
	Item     ItemID `json:"item"`
	Qty      int    `json:"qty"`
	StackMax int    `json:"stackMax"`
}

// Empty reports whether the slot holds nothing. An empty slot always
// has zero quantity and an unset capacity.
func (s Slot) Empty() bool {
	return s.Item == ""
}

// Deposit is one entry of a store batch: a quantity of an item kind
// together with the stack capacity any freshly claimed slot should be
// given for it. Capacity is a property of how the item is being stored,
// not of the kind globally; the capacity travelling with the entry that
// claims an empty slot is the one that sticks.
//
// Deposit doubles as the remainder entry type: what could not be placed
// comes back as (kind, leftover quantity, requested capacity).
type Deposit struct {
	Item     ItemID `json:"item"`
	Qty      int    `json:"qty"`
	StackMax int    `json:"stackMax"`
}

// Request is one entry of a retrieve batch: how much of an item kind
// the caller wants withdrawn.
type Request struct {
	Item ItemID `json:"item"`
	Qty  int    `json:"qty"`
}

// Withdrawal is one entry of a retrieve result: how much of an item
// kind was actually removed. Kinds that yielded nothing are omitted
// from results entirely rather than reported as zero.
type Withdrawal struct {
	Item ItemID `json:"item"`
	Qty  int    `json:"qty"`
}
