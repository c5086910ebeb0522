// Package items is the shared item catalog: every kind the game knows
// about, with stack capacities, base market prices and flavor notes.
package items

import "github.com/0x00ASTRA/storage"

// DefaultStackMax is the capacity used for kinds the catalog does not
// know about.
const DefaultStackMax = 64

// Item kinds.
const (
	CoffeeSeed   storage.ItemID = "coffee_seed"
	CoffeeCherry storage.ItemID = "coffee_cherry"
	GreenBean    storage.ItemID = "green_bean"
	RoastedBean  storage.ItemID = "roasted_bean"
	GroundCoffee storage.ItemID = "ground_coffee"
	MintSeed     storage.ItemID = "mint_seed"
	MintLeaf     storage.ItemID = "mint_leaf"
	Water        storage.ItemID = "water"
	Milk         storage.ItemID = "milk"
	CupEspresso  storage.ItemID = "cup_espresso"
	CupLatte     storage.ItemID = "cup_latte"
	CupMintTea   storage.ItemID = "cup_mint_tea"
	Grinder      storage.ItemID = "grinder"
)

// Item categories.
const (
	CategorySeed       = "seed"
	CategoryCrop       = "crop"
	CategoryIngredient = "ingredient"
	CategoryDrink      = "drink"
	CategoryEquipment  = "equipment"
)

// Details describes one catalog entry. BasePrice is in cents.
type Details struct {
	ID        storage.ItemID `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	StackMax  int            `json:"stack_max"`
	BasePrice int64          `json:"base_price"`
	Flavor    Flavor         `json:"flavor,omitempty"`
}

// catalog order is the display order.
var catalog = []Details{
	{ID: CoffeeSeed, Name: "Coffee Seed", Category: CategorySeed, StackMax: 32, BasePrice: 150},
	{ID: MintSeed, Name: "Mint Seed", Category: CategorySeed, StackMax: 32, BasePrice: 100},
	{ID: CoffeeCherry, Name: "Coffee Cherry", Category: CategoryCrop, StackMax: 64, BasePrice: 90, Flavor: FlavorFruity | FlavorSweet},
	{ID: MintLeaf, Name: "Mint Leaf", Category: CategoryCrop, StackMax: 64, BasePrice: 60, Flavor: FlavorFloral | FlavorSweet},
	{ID: GreenBean, Name: "Green Bean", Category: CategoryIngredient, StackMax: 64, BasePrice: 120, Flavor: FlavorEarthy},
	{ID: RoastedBean, Name: "Roasted Bean", Category: CategoryIngredient, StackMax: 64, BasePrice: 210, Flavor: FlavorBitter | FlavorNutty | FlavorSmoky},
	{ID: GroundCoffee, Name: "Ground Coffee", Category: CategoryIngredient, StackMax: 64, BasePrice: 260, Flavor: FlavorBitter | FlavorNutty},
	{ID: Water, Name: "Water", Category: CategoryIngredient, StackMax: 99, BasePrice: 5},
	{ID: Milk, Name: "Milk", Category: CategoryIngredient, StackMax: 24, BasePrice: 80, Flavor: FlavorSweet},
	{ID: CupEspresso, Name: "Espresso", Category: CategoryDrink, StackMax: 8, BasePrice: 450, Flavor: FlavorBitter | FlavorSmoky},
	{ID: CupLatte, Name: "Latte", Category: CategoryDrink, StackMax: 8, BasePrice: 550, Flavor: FlavorBitter | FlavorSweet | FlavorNutty},
	{ID: CupMintTea, Name: "Mint Tea", Category: CategoryDrink, StackMax: 8, BasePrice: 400, Flavor: FlavorSweet | FlavorFloral},
	{ID: Grinder, Name: "Burr Grinder", Category: CategoryEquipment, StackMax: 1, BasePrice: 4500},
}

var byID = func() map[storage.ItemID]Details {
	m := make(map[storage.ItemID]Details, len(catalog))
	for _, d := range catalog {
		m[d.ID] = d
	}
	return m
}()

// Lookup returns the catalog entry for an item kind.
func Lookup(id storage.ItemID) (Details, bool) {
	d, ok := byID[id]
	return d, ok
}

// StackMax returns the stack capacity for an item kind, falling back
// to DefaultStackMax for kinds the catalog does not list.
func StackMax(id storage.ItemID) int {
	if d, ok := byID[id]; ok {
		return d.StackMax
	}
	return DefaultStackMax
}

// All returns the catalog in display order.
func All() []Details {
	out := make([]Details, len(catalog))
	copy(out, catalog)
	return out
}
