package saves

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/google/uuid"
)

type migration func(doc map[string]interface{}) error

// migrations[v] upgrades a document from version v to v+1.
var migrations = []migration{
	migrateV0ToV1,
	migrateV1ToV2,
	migrateV2ToV3,
}

// Migrate upgrades a decoded save document in place to SchemaVersion and
// fills missing fields with defaults. It returns the version it started from.
func Migrate(doc map[string]interface{}) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("saves: %w", ErrNullDocument)
	}
	from, err := versionOf(doc)
	if err != nil {
		return 0, err
	}
	if from > SchemaVersion {
		return from, fmt.Errorf("saves: schema version %d is newer than supported version %d", from, SchemaVersion)
	}
	for v := from; v < SchemaVersion; v++ {
		if err := migrations[v](doc); err != nil {
			return from, fmt.Errorf("saves: migrate v%d to v%d: %w", v, v+1, err)
		}
		doc["schema_version"] = float64(v + 1)
	}
	fillDefaults(doc)
	return from, nil
}

func versionOf(doc map[string]interface{}) (int, error) {
	raw, ok := doc["schema_version"]
	if !ok || raw == nil {
		return 0, nil
	}
	f, ok := raw.(float64)
	if !ok || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("saves: invalid schema_version %v", raw)
	}
	return int(f), nil
}

// v0 saves keep blocks under "world", the player's items under "hotbar"
// and timestamps as unix seconds.
func migrateV0ToV1(doc map[string]interface{}) error {
	blocks := objectOrEmpty(doc["blocks"])
	if legacy, ok := doc["world"].(map[string]interface{}); ok {
		for key, block := range legacy {
			if _, exists := blocks[key]; !exists {
				blocks[key] = block
			}
		}
	}
	delete(doc, "world")
	for key, block := range blocks {
		s, ok := block.(string)
		if !ok || s == "" || s == "air" {
			delete(blocks, key)
		}
	}
	doc["blocks"] = blocks

	if player, ok := doc["player"].(map[string]interface{}); ok {
		if hotbar, ok := player["hotbar"]; ok {
			if _, has := player["inventory"]; !has {
				player["inventory"] = hotbar
			}
			delete(player, "hotbar")
		}
	}

	if _, ok := doc["world_settings"].(map[string]interface{}); !ok {
		doc["world_settings"] = map[string]interface{}{}
	}

	for _, key := range []string{"created", "last_played"} {
		if secs, ok := doc[key].(float64); ok {
			sec, frac := math.Modf(secs)
			doc[key] = time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(time.RFC3339Nano)
		}
	}
	return nil
}

// v1 saves keep chest data in two top level keys.
func migrateV1ToV2(doc map[string]interface{}) error {
	section := objectOrEmpty(doc["chests"])
	inventories := objectOrEmpty(section["inventories"])
	if legacy, ok := doc["chest_inventories"].(map[string]interface{}); ok {
		for key, slots := range legacy {
			if _, exists := inventories[key]; !exists {
				inventories[key] = slots
			}
		}
	}
	delete(doc, "chest_inventories")
	for key, slots := range inventories {
		pos, ok := normalizeKey(key)
		if !ok {
			delete(inventories, key)
			continue
		}
		delete(inventories, key)
		inventories[pos] = normalizeSlots(slots)
	}

	placed := []interface{}{}
	seen := map[string]bool{}
	add := func(entries interface{}) {
		list, _ := entries.([]interface{})
		for _, entry := range list {
			key, ok := positionKey(entry)
			if !ok || seen[key] {
				continue
			}
			seen[key] = true
			placed = append(placed, key)
		}
	}
	add(section["player_placed"])
	add(doc["player_placed_chests"])
	delete(doc, "player_placed_chests")

	section["inventories"] = inventories
	section["player_placed"] = placed
	doc["chests"] = section
	return nil
}

// v2 saves hold a single "player"; v3 keys players by username.
func migrateV2ToV3(doc map[string]interface{}) error {
	players := objectOrEmpty(doc["players"])
	if player, ok := doc["player"].(map[string]interface{}); ok {
		if name, _ := player["username"].(string); name != "" {
			if _, exists := players[name]; !exists {
				players[name] = player
			}
		}
		if _, ok := doc["host"]; !ok {
			doc["host"] = player
		}
	}
	delete(doc, "player")
	doc["players"] = players

	if id, _ := doc["id"].(string); id == "" {
		doc["id"] = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid world id %q: %v", id, err)
	}
	return nil
}

func fillDefaults(doc map[string]interface{}) {
	setDefault(doc, "name", "")
	setDefault(doc, "blocks", map[string]interface{}{})
	setDefault(doc, "players", map[string]interface{}{})
	if _, ok := doc["entities"].([]interface{}); !ok {
		doc["entities"] = []interface{}{}
	}
	for _, key := range []string{"created", "last_played"} {
		if _, ok := doc[key].(string); !ok {
			doc[key] = time.Time{}.Format(time.RFC3339)
		}
	}

	switch seed := doc["seed"].(type) {
	case float64:
		doc["seed"] = math.Trunc(seed)
	case string:
		doc["seed"] = float64(seedFromString(seed))
	default:
		doc["seed"] = float64(0)
	}

	settings := objectOrEmpty(doc["world_settings"])
	if _, ok := settings["time"].(float64); !ok {
		settings["time"] = float64(0)
	}
	if _, ok := settings["day"].(bool); !ok {
		settings["day"] = true
	}
	if n, ok := settings["day_count"].(float64); ok && n >= 0 {
		settings["day_count"] = math.Trunc(n)
	} else {
		settings["day_count"] = float64(0)
	}
	if w, _ := settings["weather"].(string); w != WeatherClear && w != WeatherRain {
		settings["weather"] = WeatherClear
	}
	doc["world_settings"] = settings

	section := objectOrEmpty(doc["chests"])
	setDefault(section, "inventories", map[string]interface{}{})
	setDefault(section, "player_placed", []interface{}{})
	doc["chests"] = section

	players := objectOrEmpty(doc["players"])
	for name, raw := range players {
		player, ok := raw.(map[string]interface{})
		if !ok {
			delete(players, name)
			continue
		}
		player["username"] = name
		fillPlayerDefaults(player)
	}
	if host, ok := doc["host"].(map[string]interface{}); ok {
		fillPlayerDefaults(host)
	} else {
		delete(doc, "host")
	}
}

func fillPlayerDefaults(player map[string]interface{}) {
	setDefault(player, "username", "")
	for _, key := range []string{"x", "y", "vel_y", "selected", "coins"} {
		if _, ok := player[key].(float64); !ok {
			player[key] = float64(0)
		}
	}
	for _, key := range []string{"selected", "coins", "health", "max_health", "hunger", "max_hunger", "stamina", "max_stamina"} {
		if f, ok := player[key].(float64); ok {
			player[key] = math.Max(0, math.Trunc(f))
		}
	}
	if _, ok := player["facing"].(float64); !ok {
		player["facing"] = float64(1)
	}
	for _, key := range []string{"on_ground", "dead"} {
		if _, ok := player[key].(bool); !ok {
			player[key] = false
		}
	}
	for stat, max := range map[string]float64{
		"health":  DefaultHealth,
		"hunger":  DefaultHunger,
		"stamina": DefaultStamina,
	} {
		maxKey := "max_" + stat
		if v, ok := player[maxKey].(float64); !ok || v < 1 {
			player[maxKey] = max
		}
		if _, ok := player[stat].(float64); !ok {
			player[stat] = player[maxKey]
		}
	}
	player["inventory"] = normalizeSlots(player["inventory"])
	player["backpack"] = normalizeSlots(player["backpack"])

	armor := objectOrEmpty(player["armor"])
	for _, piece := range []string{"helmet", "chestplate", "leggings", "boots"} {
		armor[piece] = normalizeStack(armor[piece])
	}
	player["armor"] = armor

	switch level := player["permission"].(type) {
	case string:
		if parsed, err := permissions.ParseLevel(level); err == nil {
			player["permission"] = parsed.String()
		} else {
			player["permission"] = permissions.Player.String()
		}
	case float64:
		if l := permissions.Level(int(level)); l.Valid() {
			player["permission"] = l.String()
		} else {
			player["permission"] = permissions.Player.String()
		}
	default:
		player["permission"] = permissions.Player.String()
	}
	characters := objectOrEmpty(player["characters"])
	setDefault(characters, "selected", "default")
	if _, ok := characters["unlocked"].([]interface{}); !ok {
		characters["unlocked"] = []interface{}{"default"}
	}
	player["characters"] = characters
}

// normalizeSlots accepts the slot encodings seen in old saves: null, a bare
// item name, a [type, count] pair or a {type, count} object.
func normalizeSlots(raw interface{}) []interface{} {
	list, _ := raw.([]interface{})
	out := make([]interface{}, 0, len(list))
	for _, slot := range list {
		out = append(out, normalizeStack(slot))
	}
	return out
}

func normalizeStack(raw interface{}) interface{} {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return map[string]interface{}{"type": v, "count": float64(1)}
	case []interface{}:
		if len(v) != 2 {
			return nil
		}
		name, _ := v[0].(string)
		count, _ := v[1].(float64)
		if name == "" || count < 1 {
			return nil
		}
		return map[string]interface{}{"type": name, "count": math.Trunc(count)}
	case map[string]interface{}:
		name, _ := v["type"].(string)
		if name == "" {
			name, _ = v["item"].(string)
		}
		count, ok := v["count"].(float64)
		if !ok {
			count = 1
		}
		if name == "" || count < 1 {
			return nil
		}
		return map[string]interface{}{"type": name, "count": math.Trunc(count)}
	default:
		return nil
	}
}

// positionKey converts "x,y" strings and [x, y] pairs to "x,y".
func positionKey(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return normalizeKey(v)
	case []interface{}:
		if len(v) != 2 {
			return "", false
		}
		x, ok1 := v[0].(float64)
		y, ok2 := v[1].(float64)
		if !ok1 || !ok2 {
			return "", false
		}
		return fmt.Sprintf("%d,%d", int(x), int(y)), true
	default:
		return "", false
	}
}

// normalizeKey accepts "x,y" and the "(x, y)" tuple form.
func normalizeKey(key string) (string, bool) {
	key = strings.Trim(strings.TrimSpace(key), "()")
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return "", false
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", false
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d,%d", x, y), true
}

func seedFromString(s string) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	// keep seeds representable as JSON numbers
	return int64(h.Sum64() >> 11)
}

func objectOrEmpty(raw interface{}) map[string]interface{} {
	if m, ok := raw.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func setDefault(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; !ok || m[key] == nil {
		m[key] = value
	}
}
