package server

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/0x00ASTRA/coffee-shop-game/internal/config"
	"github.com/0x00ASTRA/coffee-shop-game/internal/farm"
	"github.com/0x00ASTRA/coffee-shop-game/internal/network"
	"github.com/0x00ASTRA/coffee-shop-game/pkg/items"
	"github.com/0x00ASTRA/coffee-shop-game/pkg/models"
	"github.com/0x00ASTRA/economy"
	"github.com/0x00ASTRA/production"
)

// marketAccount is the house side of every trade: purchases pay into
// it, sales are paid out of it.
const marketAccount economy.AccountID = "market"

// statusBroadcastPeriod is how often the session pushes its status to
// all connected players.
const statusBroadcastPeriod = 15 * time.Second

// Session represents a game session
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	mu          sync.RWMutex

	// Game state. gameMu serializes every mutation of shop state
	// (stores, fields, jobs, balances): the slot store and the farm
	// field are single-writer structures.
	gameMu   sync.Mutex
	shops    map[string]*Shop // shopID -> Shop
	ledger   *economy.Ledger
	market   *economy.Market
	registry *production.RecipeRegistry
	manager  *production.Manager
	stores   *production.SimpleStoreProvider
	events   *production.SimpleEventBus
	crops    []*farm.Crop

	status SessionStatus

	// Configuration
	config *config.Config
}

// SessionStatus represents the current state of the session
type SessionStatus struct {
	State       string `json:"state"` // "waiting", "running"
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	ServerTick  int64  `json:"server_tick"`
	Uptime      int64  `json:"uptime"` // seconds
}

// NewSession creates a new game session
func NewSession(id string, cfg *config.Config) (*Session, error) {
	log.Printf("Creating session: %s", id)

	registry, err := defaultRecipes()
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe registry: %w", err)
	}

	ledger := economy.NewLedger()
	if err := ledger.Open(marketAccount, cfg.Market.HouseFloat); err != nil {
		return nil, fmt.Errorf("failed to open market account: %w", err)
	}

	market := economy.NewMarket(
		pctToBasisPoints(cfg.Market.BuyMarkupPct),
		pctToBasisPoints(cfg.Market.SellDiscountPct),
	)
	for _, d := range items.All() {
		if err := market.SetBasePrice(d.ID, d.BasePrice); err != nil {
			return nil, fmt.Errorf("failed to list %s on market: %w", d.ID, err)
		}
	}

	stores := production.NewSimpleStoreProvider(items.StackMax)
	events := production.NewSimpleEventBus()
	manager := production.NewManager(id, registry, stores, events,
		[]production.ModifierSource{shopModifiers{speed: cfg.Shop.BrewSpeed}})

	session := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		shops:       make(map[string]*Shop),
		ledger:      ledger,
		market:      market,
		registry:    registry,
		manager:     manager,
		stores:      stores,
		events:      events,
		crops:       farm.DefaultCrops(),
		config:      cfg,
		status: SessionStatus{
			State:      "waiting",
			MaxPlayers: cfg.Session.MaxPlayers,
		},
	}

	log.Printf("Session %s created: %d recipes, %d market listings",
		id, registry.Count(), len(market.Quotes()))
	return session, nil
}

// Run drives the session: game ticks at the configured rate plus a
// periodic status broadcast. Blocks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	tickRate := s.config.Server.TickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	statusTicker := time.NewTicker(statusBroadcastPeriod)
	defer statusTicker.Stop()

	log.Printf("Session %s loop running at %d Hz", s.ID, tickRate)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Session %s loop stopped", s.ID)
			return
		case now := <-ticker.C:
			s.step(now)
		case <-statusTicker.C:
			s.BroadcastMessage(&network.ServerMessage{
				Type:    network.MsgTypeSessionStatus,
				Payload: s.GetStatus(),
			})
		}
	}
}

// step advances one game tick: production jobs complete and crops
// grow. Owners of plots that ripened get a fresh shop view pushed.
func (s *Session) step(now time.Time) {
	s.mu.Lock()
	s.status.ServerTick++
	s.mu.Unlock()

	type ripeNote struct {
		ownerID string
		view    *network.ShopStateView
	}
	var notes []ripeNote

	s.gameMu.Lock()
	s.manager.Update(now)
	for _, shop := range s.shops {
		if ripened := shop.Field.Tick(now); len(ripened) > 0 {
			notes = append(notes, ripeNote{shop.OwnerID, s.shopViewLocked(shop)})
		}
	}
	s.gameMu.Unlock()

	for _, n := range notes {
		if conn := s.connectionFor(n.ownerID); conn != nil {
			conn.SendMessage(&network.ServerMessage{
				Type:    network.MsgTypeShopState,
				Payload: n.view,
			})
		}
	}
}

// AddPlayer adds a player to the session, creating their shop on first
// join and wiring production events to their connection.
func (s *Session) AddPlayer(player *models.Player, conn *Connection) error {
	s.mu.Lock()
	if _, rejoining := s.players[player.ID]; !rejoining && len(s.players) >= s.config.Session.MaxPlayers {
		s.mu.Unlock()
		return fmt.Errorf("session %s is full (%d players)", s.ID, s.config.Session.MaxPlayers)
	}
	s.players[player.ID] = player
	s.connections[player.ID] = conn
	s.status.PlayerCount = len(s.players)
	s.status.State = "running"
	s.mu.Unlock()

	s.gameMu.Lock()
	shop, err := s.getOrCreateShop(player.ID)
	s.gameMu.Unlock()
	if err != nil {
		s.RemovePlayer(player.ID)
		return err
	}
	player.ShopID = shop.ID

	playerID := player.ID
	s.events.Subscribe(production.OwnerID(playerID), func(e production.Event) {
		s.forwardProductionEvent(playerID, e)
	})

	log.Printf("Player %s (%s) joined session %s", player.Username, player.ID, s.ID)
	return nil
}

// RemovePlayer removes a player from the session. Their shop stays:
// state survives reconnects for the life of the server.
func (s *Session) RemovePlayer(playerID string) {
	s.events.Unsubscribe(production.OwnerID(playerID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if player, exists := s.players[playerID]; exists {
		log.Printf("Player %s (%s) left session %s", player.Username, playerID, s.ID)
		delete(s.players, playerID)
		delete(s.connections, playerID)
		s.status.PlayerCount = len(s.players)
		if len(s.players) == 0 {
			s.status.State = "waiting"
		}
	}
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// GetPlayers returns all players in the session
func (s *Session) GetPlayers() []*models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*models.Player, 0, len(s.players))
	for _, player := range s.players {
		players = append(players, player)
	}
	return players
}

// connectionFor returns the live connection for a player, or nil.
func (s *Session) connectionFor(playerID string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections[playerID]
}

// BroadcastMessage sends a message to all connected players
func (s *Session) BroadcastMessage(msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		conn.SendMessage(msg)
	}
}

// BroadcastExcept sends a message to all players except the specified connection
func (s *Session) BroadcastExcept(exclude *Connection, msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		if conn != exclude {
			conn.SendMessage(msg)
		}
	}
}

// GetStatus returns the current session status
func (s *Session) GetStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	status.Uptime = int64(time.Since(s.CreatedAt).Seconds())
	return status
}

// forwardProductionEvent maps manager events onto client pushes. The
// handler runs outside gameMu, so it reads only immutable job fields
// (ID, Recipe) and the event's own data snapshot.
func (s *Session) forwardProductionEvent(playerID string, e production.Event) {
	conn := s.connectionFor(playerID)
	if conn == nil {
		return
	}

	jobID := string(e.Job.ID)
	recipeID := string(e.Job.Recipe)

	switch e.Type {
	case production.EventJobStarted:
		// The first start is answered synchronously; only repeat
		// cycles are pushed.
		if isRestart, _ := e.Data["isRestart"].(bool); !isRestart {
			return
		}
		cycles, _ := e.Data["cyclesCompleted"].(int)
		var endUnix int64
		if endTime, ok := e.Data["endTime"].(time.Time); ok {
			endUnix = endTime.Unix()
		}
		conn.SendMessage(&network.ServerMessage{
			Type: network.MsgTypeBrewStarted,
			Payload: network.BrewStartedPayload{
				JobID:   jobID,
				Recipe:  recipeID,
				EndTime: endUnix,
				Repeat:  true,
				Restart: true,
				Cycles:  cycles,
			},
		})

	case production.EventJobCompleted:
		cycles, _ := e.Data["cyclesCompleted"].(int)
		outputs, _ := e.Data["outputs"].([]production.ItemYield)
		views := make([]network.IngredientView, 0, len(outputs))
		for _, out := range outputs {
			views = append(views, network.IngredientView{Item: string(out.Item), Qty: out.Quantity})
		}
		conn.SendMessage(&network.ServerMessage{
			Type: network.MsgTypeBrewDone,
			Payload: network.BrewDonePayload{
				JobID:   jobID,
				Recipe:  recipeID,
				Outputs: views,
				Cycles:  cycles,
			},
		})

	case production.EventJobFailed:
		reason, _ := e.Data["reason"].(string)
		if reason == "" {
			reason, _ = e.Data["error"].(string)
		}
		conn.SendMessage(&network.ServerMessage{
			Type: network.MsgTypeBrewFailed,
			Payload: network.BrewFailedPayload{
				JobID:  jobID,
				Recipe: recipeID,
				Reason: reason,
			},
		})

	case production.EventJobCancelled:
		// Cancellation is answered synchronously.
	}
}

func pctToBasisPoints(pct float64) int64 {
	return int64(math.Round(pct * 100))
}
