package farm

import (
	"errors"
	"testing"
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
)

// Fixed yields so harvest quantities are exact.
func testCrops() []*Crop {
	return []*Crop{
		{
			Seed: "coffee_seed",
			Name: "Coffee Tree",
			Stages: []StageSpan{
				{Name: "seedling", Duration: 40 * time.Second},
				{Name: "flowering", Duration: 60 * time.Second},
				{Name: "laden"},
			},
			Yield: Yield{Item: "coffee_cherry", Min: 6, Max: 6},
		},
		{
			Seed: "mint_seed",
			Name: "Mint",
			Stages: []StageSpan{
				{Name: "seedling", Duration: 20 * time.Second},
				{Name: "bushy"},
			},
			Yield: Yield{Item: "mint_leaf", Min: 3, Max: 3},
		},
	}
}

func TestPlantAndStageAdvance(t *testing.T) {
	f, err := NewField(4, testCrops(), 1)
	if err != nil {
		t.Fatalf("Failed to create field: %v", err)
	}

	t0 := time.Now()
	if err := f.Plant(1, "coffee_seed", t0); err != nil {
		t.Fatalf("Failed to plant: %v", err)
	}

	// Nothing happens before the first span elapses
	if ripened := f.Tick(t0.Add(39 * time.Second)); len(ripened) != 0 {
		t.Errorf("Nothing should ripen at 39s, got %v", ripened)
	}
	views := f.Plots()
	if views[1].Stage != "seedling" {
		t.Errorf("Expected seedling at 39s, got %s", views[1].Stage)
	}

	// First span done, second still running
	f.Tick(t0.Add(41 * time.Second))
	if got := f.Plots()[1].Stage; got != "flowering" {
		t.Errorf("Expected flowering at 41s, got %s", got)
	}

	// Both spans done
	ripened := f.Tick(t0.Add(101 * time.Second))
	if len(ripened) != 1 || ripened[0] != 1 {
		t.Errorf("Expected plot 1 to ripen, got %v", ripened)
	}
	view := f.Plots()[1]
	if view.Stage != "laden" || !view.Ripe {
		t.Errorf("Expected ripe laden plot, got %+v", view)
	}

	// Ripening is reported exactly once
	if ripened := f.Tick(t0.Add(200 * time.Second)); len(ripened) != 0 {
		t.Errorf("Ripening reported again: %v", ripened)
	}
}

func TestTickCrossesMultipleStages(t *testing.T) {
	f, _ := NewField(2, testCrops(), 1)
	t0 := time.Now()
	f.Plant(0, "coffee_seed", t0)

	// One late tick crosses both growth spans at once
	ripened := f.Tick(t0.Add(10 * time.Minute))
	if len(ripened) != 1 || ripened[0] != 0 {
		t.Errorf("Expected plot 0 ripe after one catch-up tick, got %v", ripened)
	}
}

func TestPlantErrors(t *testing.T) {
	f, _ := NewField(2, testCrops(), 1)
	now := time.Now()

	if err := f.Plant(-1, "coffee_seed", now); !errors.Is(err, ErrPlotOutOfRange) {
		t.Errorf("Expected ErrPlotOutOfRange, got %v", err)
	}
	if err := f.Plant(2, "coffee_seed", now); !errors.Is(err, ErrPlotOutOfRange) {
		t.Errorf("Expected ErrPlotOutOfRange, got %v", err)
	}
	if err := f.Plant(0, "tomato_seed", now); !errors.Is(err, ErrUnknownSeed) {
		t.Errorf("Expected ErrUnknownSeed, got %v", err)
	}

	if err := f.Plant(0, "coffee_seed", now); err != nil {
		t.Fatalf("Failed to plant: %v", err)
	}
	if err := f.Plant(0, "mint_seed", now); !errors.Is(err, ErrPlotOccupied) {
		t.Errorf("Expected ErrPlotOccupied, got %v", err)
	}
}

func TestHarvest(t *testing.T) {
	f, _ := NewField(2, testCrops(), 1)
	t0 := time.Now()
	f.Plant(0, "mint_seed", t0)

	// Too early
	if _, _, err := f.Harvest(0, t0.Add(10*time.Second)); !errors.Is(err, ErrNotRipe) {
		t.Errorf("Expected ErrNotRipe, got %v", err)
	}

	// Ripe, without any Tick having run
	item, qty, err := f.Harvest(0, t0.Add(25*time.Second))
	if err != nil {
		t.Fatalf("Failed to harvest: %v", err)
	}
	if item != "mint_leaf" || qty != 3 {
		t.Errorf("Expected 3 mint_leaf, got %d %s", qty, item)
	}

	// Plot is empty again and replantable
	if !f.Plots()[0].Empty {
		t.Error("Plot should be empty after harvest")
	}
	if _, _, err := f.Harvest(0, t0.Add(30*time.Second)); !errors.Is(err, ErrPlotEmpty) {
		t.Errorf("Expected ErrPlotEmpty, got %v", err)
	}
	if err := f.Plant(0, "coffee_seed", t0.Add(30*time.Second)); err != nil {
		t.Errorf("Failed to replant harvested plot: %v", err)
	}

	if _, _, err := f.Harvest(5, t0); !errors.Is(err, ErrPlotOutOfRange) {
		t.Errorf("Expected ErrPlotOutOfRange, got %v", err)
	}
}

func TestYieldWithinRange(t *testing.T) {
	crops := []*Crop{{
		Seed:   "coffee_seed",
		Name:   "Coffee Tree",
		Stages: []StageSpan{{Name: "seedling", Duration: time.Second}, {Name: "laden"}},
		Yield:  Yield{Item: "coffee_cherry", Min: 4, Max: 9},
	}}
	f, _ := NewField(1, crops, 1)
	t0 := time.Now()

	for i := 0; i < 20; i++ {
		f.Plant(0, "coffee_seed", t0)
		_, qty, err := f.Harvest(0, t0.Add(2*time.Second))
		if err != nil {
			t.Fatalf("Failed to harvest: %v", err)
		}
		if qty < 4 || qty > 9 {
			t.Fatalf("Yield %d outside [4, 9]", qty)
		}
	}
}

func TestGrowthScale(t *testing.T) {
	// Half-speed durations: the 40s seedling span takes 20s
	f, _ := NewField(1, testCrops(), 0.5)
	t0 := time.Now()
	f.Plant(0, "coffee_seed", t0)

	f.Tick(t0.Add(19 * time.Second))
	if got := f.Plots()[0].Stage; got != "seedling" {
		t.Errorf("Expected seedling at 19s with 0.5 scale, got %s", got)
	}
	f.Tick(t0.Add(21 * time.Second))
	if got := f.Plots()[0].Stage; got != "flowering" {
		t.Errorf("Expected flowering at 21s with 0.5 scale, got %s", got)
	}
}

func TestNewFieldValidation(t *testing.T) {
	if _, err := NewField(-1, testCrops(), 1); err == nil {
		t.Error("Expected error for negative plot count")
	}
	if _, err := NewField(1, []*Crop{{Seed: "", Name: "broken", Stages: []StageSpan{{Name: "x"}}, Yield: Yield{Item: "y", Min: 1, Max: 1}}}, 1); err == nil {
		t.Error("Expected error for crop without seed")
	}
	if _, err := NewField(1, []*Crop{{Seed: "s", Name: "broken", Yield: Yield{Item: "y", Min: 1, Max: 1}}}, 1); err == nil {
		t.Error("Expected error for crop without stages")
	}
	if _, err := NewField(1, []*Crop{{Seed: "s", Name: "broken", Stages: []StageSpan{{Name: "x"}}, Yield: Yield{Item: "y", Min: 5, Max: 2}}}, 1); err == nil {
		t.Error("Expected error for inverted yield range")
	}
	dup := testCrops()
	dup[1].Seed = dup[0].Seed
	if _, err := NewField(1, dup, 1); err == nil {
		t.Error("Expected error for duplicate seed kinds")
	}

	// Zero plots is a valid (if useless) field
	f, err := NewField(0, testCrops(), 1)
	if err != nil {
		t.Fatalf("Failed to create zero-plot field: %v", err)
	}
	if f.PlotCount() != 0 || len(f.Plots()) != 0 {
		t.Error("Zero-plot field should have no plots")
	}
}

func TestDefaultCrops(t *testing.T) {
	f, err := NewField(4, DefaultCrops(), 1)
	if err != nil {
		t.Fatalf("Default crops failed validation: %v", err)
	}

	coffee, ok := f.CropFor(items.CoffeeSeed)
	if !ok {
		t.Fatal("Coffee seed has no crop")
	}
	if coffee.Yield.Item != items.CoffeeCherry {
		t.Errorf("Coffee tree should yield cherries, got %s", coffee.Yield.Item)
	}
	if _, ok := f.CropFor(items.MintSeed); !ok {
		t.Error("Mint seed has no crop")
	}
}
