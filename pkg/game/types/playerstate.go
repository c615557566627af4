package types

import (
	"github.com/cbodonnell/orderstone/pkg/economy"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/solarlune/resolv"
)

type PlayerState struct {
	ClientID               uint32             `json:"client_id"`
	Username               string             `json:"username"`
	LastProcessedTimestamp int64              `json:"last_processed_timestamp"`
	X                      float64            `json:"x"`
	Y                      float64            `json:"y"`
	VelY                   float64            `json:"vel_y"`
	OnGround               bool               `json:"on_ground"`
	Facing                 int                `json:"facing"`
	Health                 int                `json:"health"`
	MaxHealth              int                `json:"max_health"`
	Hunger                 int                `json:"hunger"`
	MaxHunger              int                `json:"max_hunger"`
	Stamina                int                `json:"stamina"`
	MaxStamina             int                `json:"max_stamina"`
	Inventory              []*items.Stack     `json:"inventory"`
	Backpack               []*items.Stack     `json:"backpack"`
	Selected               int                `json:"selected"`
	Armor                  saves.Armor        `json:"armor"`
	Permission             permissions.Level  `json:"permission"`
	Wallet                 economy.Wallet     `json:"wallet"`
	Characters             economy.Collection `json:"characters"`
	Dead                   bool               `json:"dead"`
	// OpenChest is the chest the player is looking into, if any
	OpenChest *world.Pos `json:"open_chest,omitempty"`
	// Changed is set when the position moved since the last UDP broadcast
	Changed bool           `json:"-"`
	Object  *resolv.Object `json:"-"`
}

// NewPlayerState builds the live state of a player from a stored record.
func NewPlayerState(clientID uint32, record *saves.PlayerRecord) *PlayerState {
	p := &PlayerState{
		ClientID:   clientID,
		Username:   record.Username,
		X:          record.X,
		Y:          record.Y,
		VelY:       record.VelY,
		OnGround:   record.OnGround,
		Facing:     record.Facing,
		Health:     record.Health,
		MaxHealth:  record.MaxHealth,
		Hunger:     record.Hunger,
		MaxHunger:  record.MaxHunger,
		Stamina:    record.Stamina,
		MaxStamina: record.MaxStamina,
		Inventory:  padSlots(items.CloneSlots(record.Inventory), saves.InventorySlots),
		Backpack:   padSlots(items.CloneSlots(record.Backpack), saves.BackpackSlots),
		Selected:   record.Selected,
		Armor:      cloneArmor(record.Armor),
		Permission: record.Permission,
		Wallet:     economy.Wallet{Coins: record.Coins},
		Characters: cloneCollection(record.Characters),
		Dead:       record.Dead,
	}
	if p.Facing == 0 {
		p.Facing = 1
	}
	if p.Selected < 0 || p.Selected >= len(p.Inventory) {
		p.Selected = 0
	}
	if p.Characters.Selected == "" {
		p.Characters = economy.NewCollection()
	}
	return p
}

// Record converts the state back into its stored form.
func (p *PlayerState) Record() *saves.PlayerRecord {
	return &saves.PlayerRecord{
		Username:   p.Username,
		X:          p.X,
		Y:          p.Y,
		VelY:       p.VelY,
		OnGround:   p.OnGround,
		Facing:     p.Facing,
		Health:     p.Health,
		MaxHealth:  p.MaxHealth,
		Hunger:     p.Hunger,
		MaxHunger:  p.MaxHunger,
		Stamina:    p.Stamina,
		MaxStamina: p.MaxStamina,
		Inventory:  items.CloneSlots(p.Inventory),
		Backpack:   items.CloneSlots(p.Backpack),
		Selected:   p.Selected,
		Armor:      cloneArmor(p.Armor),
		Permission: p.Permission,
		Coins:      p.Wallet.Coins,
		Characters: cloneCollection(p.Characters),
		Dead:       p.Dead,
	}
}

// SelectedItem returns the stack in the selected inventory slot.
func (p *PlayerState) SelectedItem() *items.Stack {
	if p.Selected < 0 || p.Selected >= len(p.Inventory) {
		return nil
	}
	return p.Inventory[p.Selected]
}

// Copy returns a deep copy of the player state with an empty object reference
func (p *PlayerState) Copy() *PlayerState {
	c := *p
	c.Inventory = items.CloneSlots(p.Inventory)
	c.Backpack = items.CloneSlots(p.Backpack)
	c.Armor = cloneArmor(p.Armor)
	c.Characters = cloneCollection(p.Characters)
	if p.OpenChest != nil {
		pos := *p.OpenChest
		c.OpenChest = &pos
	}
	c.Object = nil
	return &c
}

func padSlots(slots []*items.Stack, n int) []*items.Stack {
	for len(slots) < n {
		slots = append(slots, nil)
	}
	return slots
}

func cloneArmor(a saves.Armor) saves.Armor {
	return saves.Armor{
		Helmet:     a.Helmet.Clone(),
		Chestplate: a.Chestplate.Clone(),
		Leggings:   a.Leggings.Clone(),
		Boots:      a.Boots.Clone(),
	}
}

func cloneCollection(c economy.Collection) economy.Collection {
	return economy.Collection{
		Selected: c.Selected,
		Unlocked: append([]string(nil), c.Unlocked...),
	}
}
