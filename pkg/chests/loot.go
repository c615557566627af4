package chests

import (
	"math/rand"

	"github.com/cbodonnell/orderstone/pkg/items"
)

const (
	TableVillage  = "village"
	TableFortress = "fortress"
	TableDungeon  = "dungeon"

	// fortressDistance is the |x| beyond which natural chests use fortress loot.
	fortressDistance = 20
	// modLootRolls is the number of weighted draws from mod-registered loot.
	modLootRolls = 2
)

// LootEntry is one line of a loot table.
type LootEntry struct {
	Item       string
	Min, Max   int
	Chance     float64
	Guaranteed bool
}

var LootTables = map[string][]LootEntry{
	TableVillage: {
		{Item: "sword", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "pickaxe", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "bread", Min: 1, Max: 3, Chance: 0.9},
		{Item: "carrot", Min: 2, Max: 5, Chance: 0.8},
		{Item: "coal", Min: 3, Max: 6, Chance: 0.7},
		{Item: "stone", Min: 2, Max: 4, Chance: 0.6},
		{Item: "iron", Min: 1, Max: 2, Chance: 0.5},
		{Item: "oak_planks", Min: 2, Max: 4, Chance: 0.4},
		{Item: "dirt", Min: 3, Max: 6, Chance: 0.4},
		{Item: "gold", Min: 1, Max: 1, Chance: 0.3},
		{Item: "red_brick", Min: 1, Max: 2, Chance: 0.2},
		{Item: "ladder", Min: 1, Max: 1, Chance: 0.2},
		{Item: "diamond", Min: 1, Max: 1, Chance: 0.1},
		{Item: "bed", Min: 1, Max: 1, Chance: 0.05},
	},
	TableFortress: {
		{Item: "sword", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "pickaxe", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "iron", Min: 2, Max: 4, Chance: 0.9},
		{Item: "coal", Min: 3, Max: 8, Chance: 0.8},
		{Item: "stone", Min: 3, Max: 6, Chance: 0.7},
		{Item: "gold", Min: 1, Max: 3, Chance: 0.6},
		{Item: "red_brick", Min: 2, Max: 4, Chance: 0.5},
		{Item: "oak_planks", Min: 3, Max: 6, Chance: 0.4},
		{Item: "diamond", Min: 1, Max: 2, Chance: 0.4},
		{Item: "ladder", Min: 1, Max: 2, Chance: 0.3},
		{Item: "bed", Min: 1, Max: 1, Chance: 0.2},
	},
	TableDungeon: {
		{Item: "sword", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "pickaxe", Min: 1, Max: 1, Chance: 1, Guaranteed: true},
		{Item: "diamond", Min: 2, Max: 5, Chance: 0.9},
		{Item: "gold", Min: 3, Max: 8, Chance: 0.8},
		{Item: "iron", Min: 5, Max: 10, Chance: 0.7},
		{Item: "coal", Min: 4, Max: 8, Chance: 0.6},
		{Item: "stone", Min: 3, Max: 6, Chance: 0.5},
		{Item: "red_brick", Min: 2, Max: 4, Chance: 0.4},
		{Item: "bed", Min: 1, Max: 1, Chance: 0.3},
		{Item: "ladder", Min: 1, Max: 2, Chance: 0.2},
	},
}

// WeightedItem is extra loot contributed by a mod.
type WeightedItem struct {
	Item   string
	Weight int
}

// LootSource supplies mod-registered chest loot.
type LootSource interface {
	ChestLoot() []WeightedItem
	GuaranteedChestItems() []string
}

// TableFor picks the loot table of a natural chest from its column.
func TableFor(x int) string {
	if x > fortressDistance || x < -fortressDistance {
		return TableFortress
	}
	return TableVillage
}

// generate rolls loot for one chest. Guaranteed stacks come first, in table
// order followed by mod-guaranteed items not already present.
func generate(r *rand.Rand, table string, source LootSource) (guaranteed, random []*items.Stack) {
	entries, ok := LootTables[table]
	if !ok {
		entries = LootTables[TableVillage]
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if !e.Guaranteed {
			continue
		}
		guaranteed = append(guaranteed, &items.Stack{Type: e.Item, Count: rollCount(r, e.Min, e.Max)})
		seen[e.Item] = true
	}
	for _, e := range entries {
		if e.Guaranteed {
			continue
		}
		if r.Float64() < e.Chance {
			random = append(random, &items.Stack{Type: e.Item, Count: rollCount(r, e.Min, e.Max)})
		}
	}

	if source == nil {
		return guaranteed, random
	}
	for _, item := range source.GuaranteedChestItems() {
		if seen[item] {
			continue
		}
		seen[item] = true
		guaranteed = append(guaranteed, &items.Stack{Type: item, Count: 1})
	}
	pool := source.ChestLoot()
	for i := 0; i < modLootRolls && len(pool) > 0; i++ {
		if item, ok := weightedPick(r, pool); ok {
			random = append(random, &items.Stack{Type: item, Count: 1})
		}
	}
	return guaranteed, random
}

func rollCount(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func weightedPick(r *rand.Rand, pool []WeightedItem) (string, bool) {
	total := 0
	for _, w := range pool {
		total += max(1, w.Weight)
	}
	if total == 0 {
		return "", false
	}
	n := r.Intn(total)
	for _, w := range pool {
		n -= max(1, w.Weight)
		if n < 0 {
			return w.Item, true
		}
	}
	return "", false
}
