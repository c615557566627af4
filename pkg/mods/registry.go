package mods

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cbodonnell/orderstone/pkg/chests"
)

var ErrDuplicateID = errors.New("duplicate id")

// Entry is a registered item, block or entity definition.
type Entry struct {
	ID    string                 `json:"id"`
	Owner string                 `json:"owner"`
	Props map[string]interface{} `json:"props,omitempty"`
}

// Asset is a texture or sound file contributed by a mod.
type Asset struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

// ItemUseFunc handles the use of a mod item. Returning true suppresses the
// built-in behaviour for that item.
type ItemUseFunc func(ctx context.Context, player string, item string) (bool, error)

type ownedLoot struct {
	owner  string
	item   string
	weight int
}

type ownedItem struct {
	owner string
	item  string
}

type itemUseHandler struct {
	owner string
	fn    ItemUseFunc
}

// Registry holds every definition contributed by loaded mods.
type Registry struct {
	lock       sync.RWMutex
	items      map[string]Entry
	blocks     map[string]Entry
	entities   map[string]Entry
	textures   map[string]Asset
	sounds     map[string]Asset
	loot       []ownedLoot
	guaranteed []ownedItem
	itemUse    map[string]itemUseHandler
}

func NewRegistry() *Registry {
	return &Registry{
		items:    make(map[string]Entry),
		blocks:   make(map[string]Entry),
		entities: make(map[string]Entry),
		textures: make(map[string]Asset),
		sounds:   make(map[string]Asset),
		itemUse:  make(map[string]itemUseHandler),
	}
}

func registerEntry(kind string, m map[string]Entry, owner, id string, props map[string]interface{}) error {
	if id == "" {
		return fmt.Errorf("%s id must not be empty", kind)
	}
	if existing, ok := m[id]; ok {
		return fmt.Errorf("%w: %s %q already registered by %s", ErrDuplicateID, kind, id, existing.Owner)
	}
	m[id] = Entry{ID: id, Owner: owner, Props: props}
	return nil
}

func (r *Registry) RegisterItem(owner, id string, props map[string]interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return registerEntry("item", r.items, owner, id, props)
}

func (r *Registry) RegisterBlock(owner, id string, props map[string]interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return registerEntry("block", r.blocks, owner, id, props)
}

func (r *Registry) RegisterEntity(owner, id string, props map[string]interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return registerEntry("entity", r.entities, owner, id, props)
}

func registerAsset(kind string, m map[string]Asset, owner, id, path string) error {
	if id == "" {
		return fmt.Errorf("%s id must not be empty", kind)
	}
	if existing, ok := m[id]; ok {
		return fmt.Errorf("%w: %s %q already registered by %s", ErrDuplicateID, kind, id, existing.Owner)
	}
	m[id] = Asset{ID: id, Owner: owner, Path: path}
	return nil
}

func (r *Registry) AddTexture(owner, id, path string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return registerAsset("texture", r.textures, owner, id, path)
}

func (r *Registry) AddSound(owner, id, path string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return registerAsset("sound", r.sounds, owner, id, path)
}

// AddChestLoot adds an item to the weighted chest pool. Weights below 1 count as 1.
func (r *Registry) AddChestLoot(owner, item string, weight int) error {
	if item == "" {
		return errors.New("loot item must not be empty")
	}
	if weight < 1 {
		weight = 1
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.loot = append(r.loot, ownedLoot{owner: owner, item: item, weight: weight})
	return nil
}

// AddGuaranteedChestItem adds an item every generated chest receives. Adding
// an item twice is a no-op.
func (r *Registry) AddGuaranteedChestItem(owner, item string) error {
	if item == "" {
		return errors.New("guaranteed item must not be empty")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, g := range r.guaranteed {
		if g.item == item {
			return nil
		}
	}
	r.guaranteed = append(r.guaranteed, ownedItem{owner: owner, item: item})
	return nil
}

func (r *Registry) SetItemUse(owner, item string, fn ItemUseFunc) error {
	if item == "" || fn == nil {
		return errors.New("item use handler needs an item and a function")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if existing, ok := r.itemUse[item]; ok {
		return fmt.Errorf("%w: item use handler for %q already registered by %s", ErrDuplicateID, item, existing.owner)
	}
	r.itemUse[item] = itemUseHandler{owner: owner, fn: fn}
	return nil
}

// ItemUse returns the handler registered for item.
func (r *Registry) ItemUse(item string) (ItemUseFunc, string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	h, ok := r.itemUse[item]
	return h.fn, h.owner, ok
}

// ChestLoot implements chests.LootSource.
func (r *Registry) ChestLoot() []chests.WeightedItem {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make([]chests.WeightedItem, 0, len(r.loot))
	for _, l := range r.loot {
		out = append(out, chests.WeightedItem{Item: l.item, Weight: l.weight})
	}
	return out
}

// GuaranteedChestItems implements chests.LootSource.
func (r *Registry) GuaranteedChestItems() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make([]string, 0, len(r.guaranteed))
	for _, g := range r.guaranteed {
		out = append(out, g.item)
	}
	return out
}

func sortedEntries(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedAssets(m map[string]Asset) []Asset {
	out := make([]Asset, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Item(id string) (Entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	e, ok := r.items[id]
	return e, ok
}

func (r *Registry) Block(id string) (Entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	e, ok := r.blocks[id]
	return e, ok
}

func (r *Registry) Items() []Entry {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedEntries(r.items)
}

func (r *Registry) Blocks() []Entry {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedEntries(r.blocks)
}

func (r *Registry) Entities() []Entry {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedEntries(r.entities)
}

func (r *Registry) Textures() []Asset {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedAssets(r.textures)
}

func (r *Registry) Sounds() []Asset {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedAssets(r.sounds)
}

// RemoveOwner drops everything registered by owner and returns the number of
// removed registrations.
func (r *Registry) RemoveOwner(owner string) int {
	r.lock.Lock()
	defer r.lock.Unlock()

	removed := 0
	for _, m := range []map[string]Entry{r.items, r.blocks, r.entities} {
		for id, e := range m {
			if e.Owner == owner {
				delete(m, id)
				removed++
			}
		}
	}
	for _, m := range []map[string]Asset{r.textures, r.sounds} {
		for id, a := range m {
			if a.Owner == owner {
				delete(m, id)
				removed++
			}
		}
	}
	for item, h := range r.itemUse {
		if h.owner == owner {
			delete(r.itemUse, item)
			removed++
		}
	}

	loot := r.loot[:0:0]
	for _, l := range r.loot {
		if l.owner == owner {
			removed++
			continue
		}
		loot = append(loot, l)
	}
	r.loot = loot

	guaranteed := r.guaranteed[:0:0]
	for _, g := range r.guaranteed {
		if g.owner == owner {
			removed++
			continue
		}
		guaranteed = append(guaranteed, g)
	}
	r.guaranteed = guaranteed
	return removed
}

var _ chests.LootSource = (*Registry)(nil)
