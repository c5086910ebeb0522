package main

import (
	"fmt"
	"log"
	"time"

	"github.com/0x00ASTRA/production"
	"github.com/0x00ASTRA/storage"
)

// Demonstrates a full bean-to-cup pipeline: pulping cherries into green
// beans, roasting, grinding, and finally a repeating espresso brew that
// runs until the grounds run out.
func main() {
	registry := production.NewRecipeRegistry()

	recipes := []*production.Recipe{
		{
			ID:       "pulp_cherries",
			Name:     "Pulp Coffee Cherries",
			Category: "processing",
			Inputs: []production.ItemRequirement{
				{Item: "coffee_cherry", Quantity: 6, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: "green_bean", Quantity: 4, Probability: 1.0},
			},
			Duration: 300 * time.Millisecond,
		},
		{
			ID:       "roast_beans",
			Name:     "Roast Green Beans",
			Category: "roasting",
			Inputs: []production.ItemRequirement{
				{Item: "green_bean", Quantity: 4, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: "roasted_bean", Quantity: 4, Probability: 1.0},
			},
			Duration: 500 * time.Millisecond,
		},
		{
			ID:       "grind_beans",
			Name:     "Grind Roasted Beans",
			Category: "grinding",
			Inputs: []production.ItemRequirement{
				{Item: "roasted_bean", Quantity: 2, Consume: true},
				{Item: "grinder", Quantity: 1, Consume: false},
			},
			Outputs: []production.ItemYield{
				{Item: "ground_coffee", Quantity: 2, Probability: 1.0},
			},
			Duration: 200 * time.Millisecond,
		},
		{
			ID:       "brew_espresso",
			Name:     "Brew Espresso",
			Category: "brewing",
			Inputs: []production.ItemRequirement{
				{Item: "ground_coffee", Quantity: 2, Consume: true},
				{Item: "water", Quantity: 1, Consume: true},
			},
			Outputs: []production.ItemYield{
				{Item: "cup_espresso", Quantity: 1, Probability: 1.0},
			},
			Duration: 250 * time.Millisecond,
		},
	}
	for _, r := range recipes {
		if err := registry.Register(r); err != nil {
			log.Fatalf("register %s: %v", r.ID, err)
		}
	}

	provider := production.NewSimpleStoreProvider(nil)
	st := storage.New(12)
	provider.AddStore("roastery", st)

	st.Store([]storage.Deposit{
		{Item: "coffee_cherry", Qty: 6, StackMax: 64},
		{Item: "grinder", Qty: 1, StackMax: 1},
		{Item: "water", Qty: 8, StackMax: 64},
	})

	eventBus := production.NewSimpleEventBus()
	done := make(chan struct{})
	eventBus.Subscribe("demo_shop", func(e production.Event) {
		switch e.Type {
		case production.EventJobStarted:
			if e.Data["isRestart"] == true {
				fmt.Printf("  [restart] %s (cycle %v done)\n", e.Job.Recipe, e.Data["cyclesCompleted"])
			}
		case production.EventJobCompleted:
			fmt.Printf("  [done] %s -> %v\n", e.Job.Recipe, e.Data["outputs"])
		case production.EventJobFailed:
			fmt.Printf("  [stopped] %s: %v\n", e.Job.Recipe, e.Data["error"])
			if e.Job.Recipe == "brew_espresso" {
				close(done)
			}
		}
	})

	mgr := production.NewManager("demo", registry, provider, eventBus, nil)

	// Drive the clock on a ticker, the way a game loop would.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	go func() {
		for now := range ticker.C {
			mgr.Update(now)
		}
	}()

	// Run the chain one stage at a time.
	stages := []string{"pulp_cherries", "roast_beans", "grind_beans"}
	for _, id := range stages {
		fmt.Printf("starting %s...\n", id)
		if _, err := mgr.StartProduction(production.RecipeID(id), "demo_shop", "roastery"); err != nil {
			log.Fatalf("start %s: %v", id, err)
		}
		waitForIdle(mgr)
	}

	// Run the grinder once more so the brewer has enough grounds.
	fmt.Println("starting grind_beans (second batch)...")
	if _, err := mgr.StartProduction("grind_beans", "demo_shop", "roastery"); err != nil {
		log.Fatalf("start grind_beans: %v", err)
	}
	waitForIdle(mgr)

	// Brew espressos until the grounds are gone.
	fmt.Println("starting repeating brew_espresso...")
	if _, err := mgr.StartRepeatingProduction("brew_espresso", "demo_shop", "roastery"); err != nil {
		log.Fatalf("start brew_espresso: %v", err)
	}
	<-done

	fmt.Println("\nfinal stock:")
	for _, item := range []storage.ItemID{"coffee_cherry", "green_bean", "roasted_bean", "ground_coffee", "cup_espresso", "water"} {
		fmt.Printf("  %-14s %d\n", item, st.TotalQuantityOf(item))
	}
}

func waitForIdle(mgr *production.Manager) {
	for mgr.JobCount() > 0 {
		time.Sleep(25 * time.Millisecond)
	}
}
