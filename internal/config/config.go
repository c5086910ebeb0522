package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	JWT     JWTConfig     `yaml:"jwt"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Chat    ChatConfig    `yaml:"chat"`
	Shop    ShopConfig    `yaml:"shop"`
	Market  MarketConfig  `yaml:"market"`
	Farm    FarmConfig    `yaml:"farm"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TickRate int    `yaml:"tick_rate"` // Hz
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
}

// SessionConfig holds game session settings
type SessionConfig struct {
	MaxPlayers int `yaml:"max_players"`
}

// ChatConfig holds chat system settings
type ChatConfig struct {
	MaxMessageLength int `yaml:"max_message_length"`
	RateLimit        int `yaml:"rate_limit"` // messages per minute
}

// ShopConfig holds the starting state handed to every new shop
type ShopConfig struct {
	StorageSlots    int            `yaml:"storage_slots"`
	FarmPlots       int            `yaml:"farm_plots"`
	StartingBalance int64          `yaml:"starting_balance"` // cents
	StartingItems   map[string]int `yaml:"starting_items"`   // item kind -> quantity
	BrewSpeed       float64        `yaml:"brew_speed"`       // production duration multiplier, 1.0 = normal
}

// MarketConfig holds the market spread and house account settings
type MarketConfig struct {
	BuyMarkupPct    float64 `yaml:"buy_markup_pct"`
	SellDiscountPct float64 `yaml:"sell_discount_pct"`
	HouseFloat      int64   `yaml:"house_float"` // opening balance of the market account, cents
}

// FarmConfig holds crop growth settings
type FarmConfig struct {
	GrowthScale float64 `yaml:"growth_scale"` // stage duration multiplier, 1.0 = normal
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if not provided
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 20
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Chat.MaxMessageLength == 0 {
		cfg.Chat.MaxMessageLength = 500
	}
	if cfg.Chat.RateLimit == 0 {
		cfg.Chat.RateLimit = 10
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}
	if cfg.Shop.StorageSlots == 0 {
		cfg.Shop.StorageSlots = 12
	}
	if cfg.Shop.FarmPlots == 0 {
		cfg.Shop.FarmPlots = 6
	}
	if cfg.Shop.StartingBalance == 0 {
		cfg.Shop.StartingBalance = 5000
	}
	if len(cfg.Shop.StartingItems) == 0 {
		cfg.Shop.StartingItems = map[string]int{
			"coffee_seed": 3,
			"mint_seed":   2,
			"water":       10,
			"grinder":     1,
		}
	}
	if cfg.Shop.BrewSpeed == 0 {
		cfg.Shop.BrewSpeed = 1.0
	}
	if cfg.Market.BuyMarkupPct == 0 {
		cfg.Market.BuyMarkupPct = 5
	}
	if cfg.Market.SellDiscountPct == 0 {
		cfg.Market.SellDiscountPct = 10
	}
	if cfg.Market.HouseFloat == 0 {
		cfg.Market.HouseFloat = 1000000
	}
	if cfg.Farm.GrowthScale == 0 {
		cfg.Farm.GrowthScale = 1.0
	}

	return &cfg, nil
}
