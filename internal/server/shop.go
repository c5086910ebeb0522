package server

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/internal/farm"
	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
	"github.com/0x00ASTRA/economy"
	"github.com/0x00ASTRA/storage"
)

// Shop is one player's premises: a slot store for stock, a farm field
// out back, and a wallet account on the shared ledger.
type Shop struct {
	ID        string
	OwnerID   string
	Account   economy.AccountID
	Store     *storage.Store
	Field     *farm.Field
	CreatedAt time.Time
}

// getOrCreateShop returns the player's shop, building it on first
// join. Shops outlive connections: a returning player gets the same
// shop back. Caller must hold s.gameMu.
func (s *Session) getOrCreateShop(playerID string) (*Shop, error) {
	if shop, ok := s.shops[playerID]; ok {
		return shop, nil
	}

	cfg := s.config.Shop
	store := storage.New(cfg.StorageSlots)

	field, err := farm.NewField(cfg.FarmPlots, s.crops, s.config.Farm.GrowthScale)
	if err != nil {
		return nil, fmt.Errorf("failed to build farm field: %w", err)
	}

	shop := &Shop{
		ID:        playerID,
		OwnerID:   playerID,
		Account:   economy.AccountID("shop:" + playerID),
		Store:     store,
		Field:     field,
		CreatedAt: time.Now(),
	}

	// Starting stock, in stable order so the slot layout is predictable
	kinds := make([]string, 0, len(cfg.StartingItems))
	for kind := range cfg.StartingItems {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	batch := make([]storage.Deposit, 0, len(kinds))
	for _, kind := range kinds {
		qty := cfg.StartingItems[kind]
		if qty <= 0 {
			continue
		}
		item := storage.ItemID(kind)
		batch = append(batch, storage.Deposit{Item: item, Qty: qty, StackMax: items.StackMax(item)})
	}
	if remainder := store.Store(batch); len(remainder) > 0 {
		log.Printf("Shop %s: starting items did not all fit: %+v", shop.ID, remainder)
	}

	if err := s.ledger.Open(shop.Account, cfg.StartingBalance); err != nil && !errors.Is(err, economy.ErrAccountExists) {
		return nil, fmt.Errorf("failed to open shop account: %w", err)
	}

	s.stores.AddStore(shop.ID, store)
	s.shops[playerID] = shop

	log.Printf("Shop %s created: %d slots, %d plots, %d cents opening balance",
		shop.ID, cfg.StorageSlots, cfg.FarmPlots, cfg.StartingBalance)
	return shop, nil
}
