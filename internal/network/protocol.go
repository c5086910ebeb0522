package network

import "encoding/json"

// Message types - Client → Server
const (
	MsgTypeJoin       = "join"
	MsgTypeLeave      = "leave"
	MsgTypeChat       = "chat"
	MsgTypePing       = "ping"
	MsgTypePlant      = "plant"
	MsgTypeHarvest    = "harvest"
	MsgTypeBrew       = "brew"
	MsgTypeCancelBrew = "cancel_brew"
	MsgTypeBuy        = "buy"
	MsgTypeSell       = "sell"
	MsgTypeMoveStack  = "move_stack"
)

// Message types - Server → Client
const (
	MsgTypeWelcome        = "welcome"
	MsgTypePlayerJoined   = "player_joined"
	MsgTypePlayerLeft     = "player_left"
	MsgTypeChatBroadcast  = "chat"
	MsgTypeSessionStatus  = "session_status"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
	MsgTypeHarvestResult  = "harvest_result"
	MsgTypeBrewStarted    = "brew_started"
	MsgTypeBrewDone       = "brew_done"
	MsgTypeBrewFailed     = "brew_failed"
	MsgTypeBrewCancelled  = "brew_cancelled"
	MsgTypePurchaseResult = "purchase_result"
	MsgTypeSaleResult     = "sale_result"
)

// MsgTypeShopState is both a client query (empty payload) and the
// server's reply carrying the full shop view.
const MsgTypeShopState = "shop_state"

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// JoinPayload is sent by client to join the session
type JoinPayload struct {
	// Currently empty - join happens automatically after auth
	// Future: could include shop naming, layout preferences, etc.
}

// ChatPayload is sent by client to send a chat message
type ChatPayload struct {
	Message string `json:"message"`
}

// PlantPayload sows a seed from storage into a farm plot
type PlantPayload struct {
	Plot int    `json:"plot"`
	Seed string `json:"seed"`
}

// HarvestPayload collects a ripe farm plot into storage
type HarvestPayload struct {
	Plot int `json:"plot"`
}

// BrewPayload starts a production recipe (one-shot or repeating)
type BrewPayload struct {
	Recipe string `json:"recipe"`
	Repeat bool   `json:"repeat,omitempty"`
}

// CancelBrewPayload cancels a running production job
type CancelBrewPayload struct {
	JobID  string `json:"job_id"`
	Refund bool   `json:"refund,omitempty"`
}

// BuyPayload purchases items from the market into storage.
// Slot, when set, places the whole purchase directly into that slot,
// replacing whatever was there (the evicted stack is re-stored where
// it fits).
type BuyPayload struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
	Slot *int   `json:"slot,omitempty"`
}

// SellPayload sells items from storage to the market
type SellPayload struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}

// MoveStackPayload moves the stack in one slot into another, swapping
// with the target's contents if occupied
type MoveStackPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	PlayerID      string         `json:"player_id"`
	Username      string         `json:"username"`
	SessionID     string         `json:"session_id"`
	SessionStatus SessionStatus  `json:"session_status"`
	Catalog       []CatalogEntry `json:"catalog"`
	Recipes       []RecipeView   `json:"recipes"`
	Shop          ShopStateView  `json:"shop"`
}

// PlayerJoinedPayload notifies clients when a player joins
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PlayerLeftPayload notifies clients when a player leaves
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// ChatBroadcastPayload broadcasts a chat message to all clients
type ChatBroadcastPayload struct {
	PlayerID  string `json:"player_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp
}

// SessionStatus represents the current session state
type SessionStatus struct {
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	ServerTick  int64  `json:"server_tick"`
	Uptime      int64  `json:"uptime"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CatalogEntry describes one item kind for the client UI
type CatalogEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	StackMax int    `json:"stack_max"`
	Flavor   string `json:"flavor,omitempty"` // tasting notes, e.g. "bitter|smoky"
}

// IngredientView is one item/quantity pair in a recipe view
type IngredientView struct {
	Item    string `json:"item"`
	Qty     int    `json:"qty"`
	Consume bool   `json:"consume,omitempty"` // inputs only; false = tool
}

// RecipeView describes one production recipe for the client UI
type RecipeView struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category string           `json:"category"`
	Inputs   []IngredientView `json:"inputs"`
	Outputs  []IngredientView `json:"outputs"`
	Seconds  float64          `json:"seconds"` // base duration before modifiers
}

// SlotView is the client-facing state of one storage slot
type SlotView struct {
	Index    int    `json:"index"`
	Empty    bool   `json:"empty"`
	Item     string `json:"item,omitempty"`
	Qty      int    `json:"qty,omitempty"`
	StackMax int    `json:"stack_max,omitempty"`
}

// PlotView is the client-facing state of one farm plot
type PlotView struct {
	Index int    `json:"index"`
	Empty bool   `json:"empty"`
	Seed  string `json:"seed,omitempty"`
	Crop  string `json:"crop,omitempty"`
	Stage string `json:"stage,omitempty"`
	Ripe  bool   `json:"ripe,omitempty"`
}

// JobView is the client-facing state of one production job
type JobView struct {
	ID       string  `json:"id"`
	Recipe   string  `json:"recipe"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"` // 0.0 to 1.0
	EndTime  int64   `json:"end_time"` // Unix timestamp
	Repeat   bool    `json:"repeat,omitempty"`
	Cycles   int     `json:"cycles,omitempty"`
}

// QuoteView is one market listing with derived prices in cents
type QuoteView struct {
	Item string `json:"item"`
	Base int64  `json:"base"`
	Buy  int64  `json:"buy"`
	Sell int64  `json:"sell"`
}

// ShopStateView is the full state of the requesting player's shop
type ShopStateView struct {
	ShopID  string      `json:"shop_id"`
	Balance int64       `json:"balance"` // cents
	Slots   []SlotView  `json:"slots"`
	Plots   []PlotView  `json:"plots"`
	Jobs    []JobView   `json:"jobs"`
	Market  []QuoteView `json:"market"`
}

// HarvestResultPayload reports a harvest: what the plot yielded and
// how much of it actually fit into storage
type HarvestResultPayload struct {
	Plot      int    `json:"plot"`
	Item      string `json:"item"`
	Qty       int    `json:"qty"`
	Stored    int    `json:"stored"`
	Discarded int    `json:"discarded,omitempty"`
}

// BrewStartedPayload confirms a production job has started
type BrewStartedPayload struct {
	JobID   string `json:"job_id"`
	Recipe  string `json:"recipe"`
	EndTime int64  `json:"end_time"` // Unix timestamp
	Repeat  bool   `json:"repeat,omitempty"`
	Restart bool   `json:"restart,omitempty"` // true for repeat cycles after the first
	Cycles  int    `json:"cycles,omitempty"`
}

// BrewDonePayload reports a completed production job and its outputs
type BrewDonePayload struct {
	JobID   string           `json:"job_id"`
	Recipe  string           `json:"recipe"`
	Outputs []IngredientView `json:"outputs"`
	Cycles  int              `json:"cycles,omitempty"`
}

// BrewFailedPayload reports a failed or starved production job
type BrewFailedPayload struct {
	JobID  string `json:"job_id"`
	Recipe string `json:"recipe"`
	Reason string `json:"reason"`
}

// BrewCancelledPayload confirms a cancelled production job
type BrewCancelledPayload struct {
	JobID    string `json:"job_id"`
	Refunded bool   `json:"refunded"`
}

// PurchaseResultPayload reports a market purchase. Stored can be less
// than Qty when storage ran out of room; only stored units are paid
// for. Evicted lists stacks displaced by a direct-slot purchase that
// could not be re-stored and were lost.
type PurchaseResultPayload struct {
	Item      string           `json:"item"`
	Qty       int              `json:"qty"`
	Stored    int              `json:"stored"`
	UnitPrice int64            `json:"unit_price"` // cents
	TotalCost int64            `json:"total_cost"` // cents
	Slot      *int             `json:"slot,omitempty"`
	Evicted   []IngredientView `json:"evicted,omitempty"`
	Balance   int64            `json:"balance"` // cents
}

// SaleResultPayload reports a market sale. Sold can be less than Qty
// when storage held fewer units than requested.
type SaleResultPayload struct {
	Item        string `json:"item"`
	Qty         int    `json:"qty"`
	Sold        int    `json:"sold"`
	UnitPrice   int64  `json:"unit_price"`   // cents
	TotalEarned int64  `json:"total_earned"` // cents
	Balance     int64  `json:"balance"`      // cents
}
