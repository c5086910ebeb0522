package server

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/internal/farm"
	"github.com/0x00ASTRA/coffee-shop-game/internal/network"
	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
	"github.com/0x00ASTRA/production"
	"github.com/0x00ASTRA/storage"
)

// maxOrderQty caps a single buy or sell order.
const maxOrderQty = 9999

// opError is a game operation failure with a machine-readable code for
// the client and a human-readable message.
type opError struct {
	Code    string
	Message string
}

func opErrorf(code, format string, args ...interface{}) *opError {
	return &opError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// mapFarmError translates farm sentinel errors into client error codes.
func mapFarmError(err error) *opError {
	code := "farm_error"
	switch {
	case errors.Is(err, farm.ErrPlotOutOfRange):
		code = "invalid_plot"
	case errors.Is(err, farm.ErrPlotOccupied):
		code = "plot_occupied"
	case errors.Is(err, farm.ErrPlotEmpty):
		code = "plot_empty"
	case errors.Is(err, farm.ErrUnknownSeed):
		code = "unknown_seed"
	case errors.Is(err, farm.ErrNotRipe):
		code = "not_ripe"
	}
	return &opError{Code: code, Message: err.Error()}
}

// shopLocked looks up a player's shop. Caller must hold gameMu.
func (s *Session) shopLocked(playerID string) (*Shop, *opError) {
	shop, ok := s.shops[playerID]
	if !ok {
		return nil, opErrorf("no_shop", "no shop for player %s", playerID)
	}
	return shop, nil
}

// shopViewLocked builds the full client-facing state of a shop.
// Caller must hold gameMu.
func (s *Session) shopViewLocked(shop *Shop) *network.ShopStateView {
	now := time.Now()

	slots := shop.Store.Slots()
	slotViews := make([]network.SlotView, len(slots))
	for i, sl := range slots {
		slotViews[i] = network.SlotView{Index: i, Empty: sl.Empty()}
		if !sl.Empty() {
			slotViews[i].Item = string(sl.Item)
			slotViews[i].Qty = sl.Qty
			slotViews[i].StackMax = sl.StackMax
		}
	}

	plots := shop.Field.Plots()
	plotViews := make([]network.PlotView, len(plots))
	for i, p := range plots {
		plotViews[i] = network.PlotView{
			Index: p.Index,
			Empty: p.Empty,
			Seed:  string(p.Seed),
			Crop:  p.Crop,
			Stage: p.Stage,
			Ripe:  p.Ripe,
		}
	}

	jobs := s.manager.GetActiveJobs(production.OwnerID(shop.OwnerID))
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartTime.Before(jobs[j].StartTime) })
	jobViews := make([]network.JobView, len(jobs))
	for i, job := range jobs {
		jobViews[i] = network.JobView{
			ID:       string(job.ID),
			Recipe:   string(job.Recipe),
			State:    job.State.String(),
			Progress: job.CalculateProgress(now),
			EndTime:  job.EndTime.Unix(),
			Repeat:   job.Repeat,
			Cycles:   job.CyclesCompleted,
		}
	}

	quotes := s.market.Quotes()
	quoteViews := make([]network.QuoteView, len(quotes))
	for i, q := range quotes {
		quoteViews[i] = network.QuoteView{Item: string(q.Item), Base: q.Base, Buy: q.Buy, Sell: q.Sell}
	}

	balance, err := s.ledger.Balance(shop.Account)
	if err != nil {
		log.Printf("Failed to read balance for %s: %v", shop.Account, err)
	}

	return &network.ShopStateView{
		ShopID:  shop.ID,
		Balance: balance,
		Slots:   slotViews,
		Plots:   plotViews,
		Jobs:    jobViews,
		Market:  quoteViews,
	}
}

// catalogView lists every known item for the client UI.
func catalogView() []network.CatalogEntry {
	all := items.All()
	entries := make([]network.CatalogEntry, len(all))
	for i, d := range all {
		entries[i] = network.CatalogEntry{
			ID:       string(d.ID),
			Name:     d.Name,
			Category: d.Category,
			StackMax: d.StackMax,
		}
		if d.Flavor != 0 {
			entries[i].Flavor = d.Flavor.String()
		}
	}
	return entries
}

// recipeViews lists every registered recipe, ordered by ID.
func (s *Session) recipeViews() []network.RecipeView {
	recipes := s.registry.GetAll()
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })

	views := make([]network.RecipeView, len(recipes))
	for i, r := range recipes {
		inputs := make([]network.IngredientView, len(r.Inputs))
		for j, in := range r.Inputs {
			inputs[j] = network.IngredientView{Item: string(in.Item), Qty: in.Quantity, Consume: in.Consume}
		}
		outputs := make([]network.IngredientView, len(r.Outputs))
		for j, out := range r.Outputs {
			outputs[j] = network.IngredientView{Item: string(out.Item), Qty: out.Quantity}
		}
		views[i] = network.RecipeView{
			ID:       string(r.ID),
			Name:     r.Name,
			Category: r.Category,
			Inputs:   inputs,
			Outputs:  outputs,
			Seconds:  r.Duration.Seconds(),
		}
	}
	return views
}

// ShopState returns the current state of a player's shop.
func (s *Session) ShopState(playerID string) (*network.ShopStateView, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, opErr
	}
	return s.shopViewLocked(shop), nil
}

// WelcomeData returns everything a freshly joined client needs: the
// item catalog, the recipe book and their shop state.
func (s *Session) WelcomeData(playerID string) ([]network.CatalogEntry, []network.RecipeView, *network.ShopStateView, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, nil, nil, opErr
	}
	return catalogView(), s.recipeViews(), s.shopViewLocked(shop), nil
}

// PlantSeed takes one seed out of storage and plants it in a plot. The
// seed goes back into storage when planting fails.
func (s *Session) PlantSeed(playerID string, plot int, seed string) (*network.ShopStateView, *opError) {
	if seed == "" {
		return nil, opErrorf("unknown_seed", "no seed given")
	}

	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, opErr
	}

	seedID := storage.ItemID(seed)
	if _, ok := shop.Field.CropFor(seedID); !ok {
		return nil, opErrorf("unknown_seed", "nothing grows from %s", seed)
	}

	wd := shop.Store.Retrieve([]storage.Request{{Item: seedID, Qty: 1}})
	if len(wd) == 0 {
		return nil, opErrorf("no_seed", "no %s in storage", seed)
	}

	if err := shop.Field.Plant(plot, seedID, time.Now()); err != nil {
		// Give the seed back; removing it just made room for it.
		shop.Store.Store([]storage.Deposit{{Item: seedID, Qty: 1, StackMax: items.StackMax(seedID)}})
		return nil, mapFarmError(err)
	}

	return s.shopViewLocked(shop), nil
}

// HarvestPlot harvests a ripe plot into storage. Yield that does not
// fit is discarded and reported.
func (s *Session) HarvestPlot(playerID string, plot int) (*network.HarvestResultPayload, *network.ShopStateView, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, nil, opErr
	}

	item, qty, err := shop.Field.Harvest(plot, time.Now())
	if err != nil {
		return nil, nil, mapFarmError(err)
	}

	remainder := shop.Store.Store([]storage.Deposit{{Item: item, Qty: qty, StackMax: items.StackMax(item)}})
	discarded := 0
	for _, r := range remainder {
		discarded += r.Qty
	}
	if discarded > 0 {
		log.Printf("Shop %s: discarded %d %s from plot %d, storage full", shop.ID, discarded, item, plot)
	}

	result := &network.HarvestResultPayload{
		Plot:      plot,
		Item:      string(item),
		Qty:       qty,
		Stored:    qty - discarded,
		Discarded: discarded,
	}
	return result, s.shopViewLocked(shop), nil
}

// StartBrew starts a production job for a player. Inputs are consumed
// up front; a repeating job restarts itself until inputs run out.
func (s *Session) StartBrew(playerID, recipe string, repeat bool) (*network.BrewStartedPayload, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, opErr
	}

	recipeID := production.RecipeID(recipe)
	if s.registry.Lookup(recipeID) == nil {
		return nil, opErrorf("unknown_recipe", "no recipe %s", recipe)
	}

	start := s.manager.StartProduction
	if repeat {
		start = s.manager.StartRepeatingProduction
	}
	jobID, err := start(recipeID, production.OwnerID(playerID), shop.ID)
	if err != nil {
		return nil, opErrorf("brew_failed", "%v", err)
	}

	payload := &network.BrewStartedPayload{
		JobID:  string(jobID),
		Recipe: recipe,
		Repeat: repeat,
	}
	if job := s.manager.GetJob(jobID); job != nil {
		payload.EndTime = job.EndTime.Unix()
	}
	return payload, nil
}

// CancelBrew cancels a player's running job, optionally refunding the
// consumed inputs to storage. A refund that does not fit leaves the
// job running.
func (s *Session) CancelBrew(playerID, jobID string, refund bool) (*network.BrewCancelledPayload, *network.ShopStateView, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, nil, opErr
	}

	id := production.JobID(jobID)
	job := s.manager.GetJob(id)
	if job == nil || job.Owner != production.OwnerID(playerID) {
		return nil, nil, opErrorf("unknown_job", "no job %s", jobID)
	}

	var err error
	if refund {
		err = s.manager.CancelProductionWithRefund(id)
	} else {
		err = s.manager.CancelProduction(id)
	}
	if err != nil {
		return nil, nil, opErrorf("cancel_failed", "%v", err)
	}

	payload := &network.BrewCancelledPayload{JobID: jobID, Refunded: refund}
	return payload, s.shopViewLocked(shop), nil
}

// BuyItems purchases items from the market into the player's storage.
// With a target slot the purchase replaces that slot's contents;
// displaced items are re-shelved where possible. Without one the
// purchase stacks normally and the player pays only for what fit.
func (s *Session) BuyItems(playerID, item string, qty int, slot *int) (*network.PurchaseResultPayload, *network.ShopStateView, *opError) {
	if qty <= 0 || qty > maxOrderQty {
		return nil, nil, opErrorf("invalid_quantity", "quantity must be between 1 and %d", maxOrderQty)
	}

	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, nil, opErr
	}

	itemID := storage.ItemID(item)
	det, ok := items.Lookup(itemID)
	if !ok {
		return nil, nil, opErrorf("unknown_item", "no such item %s", item)
	}

	unit, err := s.market.BuyPrice(itemID)
	if err != nil {
		return nil, nil, opErrorf("not_traded", "%s is not traded", item)
	}

	balance, err := s.ledger.Balance(shop.Account)
	if err != nil {
		return nil, nil, opErrorf("no_account", "%v", err)
	}
	if balance < unit*int64(qty) {
		return nil, nil, opErrorf("insufficient_funds", "need %d, have %d", unit*int64(qty), balance)
	}

	stored := qty
	var evicted []network.IngredientView
	payload := &network.PurchaseResultPayload{Item: item, Qty: qty, UnitPrice: unit}

	if slot == nil {
		remainder := shop.Store.Store([]storage.Deposit{{Item: itemID, Qty: qty, StackMax: det.StackMax}})
		for _, r := range remainder {
			stored -= r.Qty
		}
		if stored == 0 {
			return nil, nil, opErrorf("storage_full", "no room for %s", item)
		}
	} else {
		if qty > det.StackMax {
			return nil, nil, opErrorf("invalid_quantity", "%s stacks to %d per slot", item, det.StackMax)
		}
		displaced, err := shop.Store.Put(*slot, itemID, qty, det.StackMax)
		if err != nil {
			return nil, nil, opErrorf("invalid_slot", "%v", err)
		}
		payload.Slot = slot
		if len(displaced) > 0 {
			// Re-shelve what the purchase displaced; report what
			// would not fit anywhere as lost.
			for _, d := range shop.Store.Store(displaced) {
				evicted = append(evicted, network.IngredientView{Item: string(d.Item), Qty: d.Qty})
				log.Printf("Shop %s: discarded %d %s displaced from slot %d, storage full",
					shop.ID, d.Qty, d.Item, *slot)
			}
		}
	}

	cost := unit * int64(stored)
	reason := fmt.Sprintf("buy %d %s", stored, item)
	if err := s.ledger.Transfer(shop.Account, marketAccount, cost, reason); err != nil {
		// Take the goods back; the charge never landed.
		shop.Store.Retrieve([]storage.Request{{Item: itemID, Qty: stored}})
		return nil, nil, opErrorf("payment_failed", "%v", err)
	}

	balance, _ = s.ledger.Balance(shop.Account)
	payload.Stored = stored
	payload.TotalCost = cost
	payload.Evicted = evicted
	payload.Balance = balance
	return payload, s.shopViewLocked(shop), nil
}

// SellItems sells items from the player's storage to the market. When
// storage holds fewer units than requested the sale covers what was
// actually there.
func (s *Session) SellItems(playerID, item string, qty int) (*network.SaleResultPayload, *network.ShopStateView, *opError) {
	if qty <= 0 || qty > maxOrderQty {
		return nil, nil, opErrorf("invalid_quantity", "quantity must be between 1 and %d", maxOrderQty)
	}

	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, nil, opErr
	}

	itemID := storage.ItemID(item)
	unit, err := s.market.SellPrice(itemID)
	if err != nil {
		return nil, nil, opErrorf("not_traded", "%s is not traded", item)
	}

	wd := shop.Store.Retrieve([]storage.Request{{Item: itemID, Qty: qty}})
	sold := 0
	if len(wd) > 0 {
		sold = wd[0].Qty
	}
	if sold == 0 {
		return nil, nil, opErrorf("no_stock", "no %s in storage", item)
	}

	earned := unit * int64(sold)
	if earned > 0 {
		reason := fmt.Sprintf("sell %d %s", sold, item)
		if err := s.ledger.Transfer(marketAccount, shop.Account, earned, reason); err != nil {
			// Put the goods back; they were never paid for.
			shop.Store.Store([]storage.Deposit{{Item: itemID, Qty: sold, StackMax: items.StackMax(itemID)}})
			return nil, nil, opErrorf("market_illiquid", "market cannot pay for %s right now", item)
		}
	}

	balance, _ := s.ledger.Balance(shop.Account)
	payload := &network.SaleResultPayload{
		Item:        item,
		Qty:         qty,
		Sold:        sold,
		UnitPrice:   unit,
		TotalEarned: earned,
		Balance:     balance,
	}
	return payload, s.shopViewLocked(shop), nil
}

// MoveStack swaps the contents of two storage slots.
func (s *Session) MoveStack(playerID string, from, to int) (*network.ShopStateView, *opError) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	shop, opErr := s.shopLocked(playerID)
	if opErr != nil {
		return nil, opErr
	}
	if from == to {
		return nil, opErrorf("invalid_move", "source and destination are the same slot")
	}

	a, err := shop.Store.Take(from)
	if err != nil {
		return nil, opErrorf("invalid_slot", "%v", err)
	}
	b, err := shop.Store.Take(to)
	if err != nil {
		if !a.Empty() {
			_, _ = shop.Store.Put(from, a.Item, a.Qty, a.StackMax)
		}
		return nil, opErrorf("invalid_slot", "%v", err)
	}

	// Both slots are empty now, so the puts cannot displace anything.
	if !a.Empty() {
		_, _ = shop.Store.Put(to, a.Item, a.Qty, a.StackMax)
	}
	if !b.Empty() {
		_, _ = shop.Store.Put(from, b.Item, b.Qty, b.StackMax)
	}
	return s.shopViewLocked(shop), nil
}
