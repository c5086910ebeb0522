package server

import (
	"fmt"
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
	"github.com/0x00ASTRA/production"
)

// defaultRecipes builds the bean-to-cup recipe chain.
func defaultRecipes() (*production.RecipeRegistry, error) {
	registry := production.NewRecipeRegistry()

	recipes := []*production.Recipe{
		{
			ID:       "pulp_cherries",
			Name:     "Pulp Coffee Cherries",
			Category: "processing",
			Inputs: []production.ItemRequirement{
				{Item: items.CoffeeCherry, Quantity: 6, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: items.GreenBean, Quantity: 4, Probability: 1.0},
				// Occasionally a cherry holds a viable seed
				{Item: items.CoffeeSeed, Quantity: 1, Probability: 0.35},
			},
			Duration: 60 * time.Second,
		},
		{
			ID:       "roast_beans",
			Name:     "Roast Green Beans",
			Category: "roasting",
			Inputs: []production.ItemRequirement{
				{Item: items.GreenBean, Quantity: 5, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: items.RoastedBean, Quantity: 4, Probability: 1.0},
			},
			Duration: 90 * time.Second,
		},
		{
			ID:       "grind_beans",
			Name:     "Grind Roasted Beans",
			Category: "grinding",
			Inputs: []production.ItemRequirement{
				{Item: items.RoastedBean, Quantity: 2, Consume: true},
				{Item: items.Grinder, Quantity: 1, Consume: false},
			},
			Outputs: []production.ItemYield{
				{Item: items.GroundCoffee, Quantity: 2, Probability: 1.0},
			},
			Duration: 30 * time.Second,
		},
		{
			ID:       "brew_espresso",
			Name:     "Brew Espresso",
			Category: "brewing",
			Inputs: []production.ItemRequirement{
				{Item: items.GroundCoffee, Quantity: 2, Consume: true},
				{Item: items.Water, Quantity: 1, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: items.CupEspresso, Quantity: 1, Probability: 1.0},
			},
			Duration: 45 * time.Second,
		},
		{
			ID:       "brew_latte",
			Name:     "Brew Latte",
			Category: "brewing",
			Inputs: []production.ItemRequirement{
				{Item: items.GroundCoffee, Quantity: 2, Consume: true},
				{Item: items.Water, Quantity: 1, Consume: true},
				{Item: items.Milk, Quantity: 1, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: items.CupLatte, Quantity: 1, Probability: 1.0},
			},
			Duration: 60 * time.Second,
		},
		{
			ID:       "brew_mint_tea",
			Name:     "Brew Mint Tea",
			Category: "brewing",
			Inputs: []production.ItemRequirement{
				{Item: items.MintLeaf, Quantity: 3, Consume: true},
				{Item: items.Water, Quantity: 1, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: items.CupMintTea, Quantity: 1, Probability: 1.0},
			},
			Duration: 40 * time.Second,
		},
	}

	for _, r := range recipes {
		if err := registry.Register(r); err != nil {
			return nil, fmt.Errorf("failed to register recipe %s: %w", r.ID, err)
		}
	}
	return registry, nil
}

// shopModifiers applies the configured brew speed to every job.
type shopModifiers struct {
	speed float64
}

func (m shopModifiers) GetModifiers(owner production.OwnerID, recipe production.RecipeID) production.Modifiers {
	mods := production.DefaultModifiers()
	mods.TimeSpeed = m.speed
	mods.Source = "shop_equipment"
	return mods
}
