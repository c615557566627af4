package saves

import (
	"time"

	"github.com/cbodonnell/orderstone/pkg/chests"
	"github.com/cbodonnell/orderstone/pkg/economy"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/google/uuid"
)

// SchemaVersion is the version written by this package.
const SchemaVersion = 3

const (
	DefaultHealth  = 10
	DefaultHunger  = 100
	DefaultStamina = 100
	// InventorySlots is the hotbar size of a new player.
	InventorySlots = 9
	BackpackSlots  = 27

	WeatherClear = "clear"
	WeatherRain  = "rain"
)

// WorldSave is the on-disk form of one world.
type WorldSave struct {
	SchemaVersion int                      `json:"schema_version"`
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Seed          int64                    `json:"seed"`
	Created       time.Time                `json:"created"`
	LastPlayed    time.Time                `json:"last_played"`
	Blocks        map[string]string        `json:"blocks"`
	Chunks        []int                    `json:"chunks,omitempty"`
	Players       map[string]*PlayerRecord `json:"players"`
	// Host is the single-player record of saves written before multiplayer.
	Host          *PlayerRecord            `json:"host,omitempty"`
	Entities      []map[string]interface{} `json:"entities"`
	Chests        chests.Snapshot          `json:"chests"`
	WorldSettings WorldSettings            `json:"world_settings"`
}

type WorldSettings struct {
	// Time is the position in the day/night cycle, in seconds.
	Time    float64 `json:"time"`
	Day     bool    `json:"day"`
	DayNum  int     `json:"day_count"`
	Weather string  `json:"weather"`
}

type Armor struct {
	Helmet     *items.Stack `json:"helmet"`
	Chestplate *items.Stack `json:"chestplate"`
	Leggings   *items.Stack `json:"leggings"`
	Boots      *items.Stack `json:"boots"`
}

// PlayerRecord is everything kept about one player between sessions.
type PlayerRecord struct {
	Username   string             `json:"username"`
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	VelY       float64            `json:"vel_y"`
	OnGround   bool               `json:"on_ground"`
	Facing     int                `json:"facing"`
	Health     int                `json:"health"`
	MaxHealth  int                `json:"max_health"`
	Hunger     int                `json:"hunger"`
	MaxHunger  int                `json:"max_hunger"`
	Stamina    int                `json:"stamina"`
	MaxStamina int                `json:"max_stamina"`
	Inventory  []*items.Stack     `json:"inventory"`
	Backpack   []*items.Stack     `json:"backpack"`
	Selected   int                `json:"selected"`
	Armor      Armor              `json:"armor"`
	Permission permissions.Level  `json:"permission"`
	Coins      int64              `json:"coins"`
	Characters economy.Collection `json:"characters"`
	Dead       bool               `json:"dead"`
}

// NewPlayerRecord returns the record of a player who has never joined.
func NewPlayerRecord(username string, level permissions.Level) *PlayerRecord {
	return &PlayerRecord{
		Username:   username,
		Health:     DefaultHealth,
		MaxHealth:  DefaultHealth,
		Hunger:     DefaultHunger,
		MaxHunger:  DefaultHunger,
		Stamina:    DefaultStamina,
		MaxStamina: DefaultStamina,
		Inventory:  make([]*items.Stack, InventorySlots),
		Backpack:   make([]*items.Stack, BackpackSlots),
		Facing:     1,
		Permission: level,
		Characters: economy.NewCollection(),
	}
}

// NewWorldSave creates an empty save for a new world.
func NewWorldSave(name string, seed int64, now time.Time) *WorldSave {
	return &WorldSave{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New(),
		Name:          name,
		Seed:          seed,
		Created:       now.UTC(),
		LastPlayed:    now.UTC(),
		Blocks:        map[string]string{},
		Players:       map[string]*PlayerRecord{},
		Entities:      []map[string]interface{}{},
		Chests: chests.Snapshot{
			Inventories:  map[string][]*items.Stack{},
			PlayerPlaced: []string{},
		},
		WorldSettings: WorldSettings{Day: true, Weather: WeatherClear},
	}
}
