package items

import "strings"

// Flavor is a bitwise set of tasting notes attached to an item. It is
// pure data: nothing in the game logic branches on it, the client
// renders it on labels and menus.
type Flavor uint16

const (
	FlavorBitter Flavor = 1 << iota
	FlavorSweet
	FlavorNutty
	FlavorFruity
	FlavorFloral
	FlavorSmoky
	FlavorEarthy
	FlavorSpicy
)

var flavorNames = []struct {
	flag Flavor
	name string
}{
	{FlavorBitter, "bitter"},
	{FlavorSweet, "sweet"},
	{FlavorNutty, "nutty"},
	{FlavorFruity, "fruity"},
	{FlavorFloral, "floral"},
	{FlavorSmoky, "smoky"},
	{FlavorEarthy, "earthy"},
	{FlavorSpicy, "spicy"},
}

// Has reports whether f contains every note in other.
func (f Flavor) Has(other Flavor) bool {
	return f&other == other
}

// With returns f plus the given notes.
func (f Flavor) With(other Flavor) Flavor {
	return f | other
}

// Without returns f minus the given notes.
func (f Flavor) Without(other Flavor) Flavor {
	return f &^ other
}

// String renders the set as "bitter|smoky", or "plain" for the empty set.
func (f Flavor) String() string {
	if f == 0 {
		return "plain"
	}
	var parts []string
	for _, fn := range flavorNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
