package farm

import (
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
)

// DefaultCrops returns the standard variety table: coffee for the main
// production chain, mint as a quick starter crop. Durations are game
// pace, not botany; tune with the farm growth_scale config.
func DefaultCrops() []*Crop {
	return []*Crop{
		{
			Seed: items.CoffeeSeed,
			Name: "Coffee Tree",
			Stages: []StageSpan{
				{Name: "seedling", Duration: 45 * time.Second},
				{Name: "sapling", Duration: 60 * time.Second},
				{Name: "flowering", Duration: 75 * time.Second},
				{Name: "laden"},
			},
			Yield: Yield{Item: items.CoffeeCherry, Min: 4, Max: 9},
		},
		{
			Seed: items.MintSeed,
			Name: "Mint",
			Stages: []StageSpan{
				{Name: "seedling", Duration: 20 * time.Second},
				{Name: "sprouting", Duration: 30 * time.Second},
				{Name: "bushy"},
			},
			Yield: Yield{Item: items.MintLeaf, Min: 3, Max: 6},
		},
	}
}
