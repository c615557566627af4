package chests

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/world"
)

const (
	Rows  = 4
	Cols  = 6
	Slots = Rows * Cols
)

var (
	ErrNoChest     = errors.New("no chest at position")
	ErrInvalidSlot = errors.New("invalid chest slot")
	ErrSlotEmpty   = errors.New("chest slot is empty")
	ErrSlotFull    = errors.New("chest slot is occupied")
)

// Chest is the inventory of one chest block.
type Chest struct {
	Pos          world.Pos      `json:"pos"`
	Slots        []*items.Stack `json:"slots"`
	PlayerPlaced bool           `json:"player_placed"`
	LootTable    string         `json:"loot_table,omitempty"`
}

// Info summarizes a chest for clients and the status API.
type Info struct {
	Pos          world.Pos      `json:"pos"`
	PlayerPlaced bool           `json:"player_placed"`
	LootTable    string         `json:"loot_table,omitempty"`
	ItemCount    int            `json:"item_count"`
	Contents     []*items.Stack `json:"contents"`
}

// Manager holds every generated or placed chest inventory. Natural chests
// get their loot lazily the first time they are opened.
type Manager struct {
	chests map[world.Pos]*Chest
	rand   *rand.Rand
	loot   LootSource
}

type NewManagerOptions struct {
	Rand *rand.Rand
	Loot LootSource
}

func NewManager(opts NewManagerOptions) *Manager {
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Manager{
		chests: make(map[world.Pos]*Chest),
		rand:   r,
		loot:   opts.Loot,
	}
}

// SetLootSource attaches mod-registered loot.
func (m *Manager) SetLootSource(source LootSource) {
	m.loot = source
}

// Place records a chest placed by a player. It starts empty.
func (m *Manager) Place(pos world.Pos) *Chest {
	c := &Chest{Pos: pos, Slots: make([]*items.Stack, Slots), PlayerPlaced: true}
	m.chests[pos] = c
	return c
}

// Open returns the chest at pos, generating loot for a natural chest that
// has never been opened. The world must hold a chest block at pos.
func (m *Manager) Open(w *world.World, pos world.Pos) (*Chest, error) {
	if w.Get(pos) != world.Chest {
		return nil, fmt.Errorf("%w: %s", ErrNoChest, pos)
	}
	if c, ok := m.chests[pos]; ok {
		return c, nil
	}
	return m.generate(pos, TableFor(pos.X)), nil
}

func (m *Manager) generate(pos world.Pos, table string) *Chest {
	c := &Chest{Pos: pos, Slots: make([]*items.Stack, Slots), LootTable: table}
	guaranteed, random := generate(m.rand, table, m.loot)

	next := 0
	for _, s := range guaranteed {
		if next >= Slots {
			break
		}
		c.Slots[next] = s
		next++
	}
	for _, s := range random {
		empty := emptySlots(c.Slots)
		if len(empty) == 0 {
			break
		}
		c.Slots[empty[m.rand.Intn(len(empty))]] = s
	}
	m.chests[pos] = c
	return c
}

func emptySlots(slots []*items.Stack) []int {
	var out []int
	for i, s := range slots {
		if s == nil {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) get(pos world.Pos) (*Chest, error) {
	c, ok := m.chests[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoChest, pos)
	}
	return c, nil
}

// Take removes the whole stack in slot.
func (m *Manager) Take(pos world.Pos, slot int) (*items.Stack, error) {
	c, err := m.get(pos)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(c.Slots) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	s := c.Slots[slot]
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	c.Slots[slot] = nil
	return s, nil
}

// Put stores a stack into an empty slot, or merges into a stack of the same type.
func (m *Manager) Put(pos world.Pos, slot int, stack *items.Stack) error {
	c, err := m.get(pos)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= len(c.Slots) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if !stack.Valid() {
		return fmt.Errorf("invalid stack")
	}
	existing := c.Slots[slot]
	switch {
	case existing == nil:
		c.Slots[slot] = stack.Clone()
	case existing.Type == stack.Type && existing.Count+stack.Count <= items.MaxStack:
		existing.Count += stack.Count
	default:
		return fmt.Errorf("%w: %d", ErrSlotFull, slot)
	}
	return nil
}

// Remove forgets the chest at pos and returns its non-empty stacks so the
// caller can drop them.
func (m *Manager) Remove(pos world.Pos) []*items.Stack {
	c, ok := m.chests[pos]
	if !ok {
		return nil
	}
	delete(m.chests, pos)
	var out []*items.Stack
	for _, s := range c.Slots {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) IsPlayerPlaced(pos world.Pos) bool {
	c, ok := m.chests[pos]
	return ok && c.PlayerPlaced
}

func (m *Manager) Info(pos world.Pos) (Info, error) {
	c, err := m.get(pos)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Pos:          c.Pos,
		PlayerPlaced: c.PlayerPlaced,
		LootTable:    c.LootTable,
		Contents:     items.CloneSlots(c.Slots),
	}
	for _, s := range c.Slots {
		if s.Valid() {
			info.ItemCount += s.Count
		}
	}
	return info, nil
}

// Len returns the number of tracked chest inventories.
func (m *Manager) Len() int {
	return len(m.chests)
}

// Snapshot is the save-file form of the chest manager.
type Snapshot struct {
	Inventories  map[string][]*items.Stack `json:"inventories"`
	PlayerPlaced []string                  `json:"player_placed"`
	LootTables   map[string]string         `json:"loot_tables,omitempty"`
}

func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{
		Inventories:  make(map[string][]*items.Stack, len(m.chests)),
		PlayerPlaced: []string{},
		LootTables:   make(map[string]string),
	}
	for pos, c := range m.chests {
		key := pos.Key()
		s.Inventories[key] = items.CloneSlots(c.Slots)
		if c.PlayerPlaced {
			s.PlayerPlaced = append(s.PlayerPlaced, key)
		}
		if c.LootTable != "" {
			s.LootTables[key] = c.LootTable
		}
	}
	sort.Strings(s.PlayerPlaced)
	return s
}

// Restore loads a snapshot. Chests listed as player placed but without a saved
// inventory come back empty.
func (m *Manager) Restore(s Snapshot) error {
	chests := make(map[world.Pos]*Chest, len(s.Inventories))
	for key, slots := range s.Inventories {
		pos, err := world.ParseKey(key)
		if err != nil {
			return err
		}
		c := &Chest{Pos: pos, Slots: make([]*items.Stack, Slots), LootTable: s.LootTables[key]}
		for i, stack := range slots {
			if i >= Slots {
				break
			}
			if stack.Valid() {
				c.Slots[i] = stack.Clone()
			}
		}
		chests[pos] = c
	}
	for _, key := range s.PlayerPlaced {
		pos, err := world.ParseKey(key)
		if err != nil {
			return err
		}
		c, ok := chests[pos]
		if !ok {
			c = &Chest{Pos: pos, Slots: make([]*items.Stack, Slots)}
			chests[pos] = c
		}
		c.PlayerPlaced = true
	}
	m.chests = chests
	return nil
}
