package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/chests"
	"github.com/cbodonnell/orderstone/pkg/economy"
	"github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/solarlune/resolv"
)

// LoadGameState builds the game state of a saved world.
func LoadGameState(save *saves.WorldSave, space *resolv.Space) (*types.GameState, error) {
	gameState := types.NewGameState(space)
	gameState.WorldID = save.ID
	gameState.WorldName = save.Name
	gameState.Seed = save.Seed
	gameState.Created = save.Created
	gameState.Entities = save.Entities
	gameState.Time = types.WorldTime{
		TimeOfDay: save.WorldSettings.Time,
		IsDay:     save.WorldSettings.Day,
		Day:       save.WorldSettings.DayNum,
		Weather:   save.WorldSettings.Weather,
	}
	if gameState.Time.Weather == "" {
		gameState.Time.Weather = saves.WeatherClear
	}

	gameState.World = world.New(world.NewWorldOptions{
		Generator: world.FlatGenerator{Seed: save.Seed},
	})
	chunks := save.Chunks
	if len(chunks) == 0 {
		chunks = chunksOf(save.Blocks)
	}
	if err := gameState.World.Load(save.Blocks, chunks); err != nil {
		return nil, fmt.Errorf("failed to load blocks: %v", err)
	}
	if err := gameState.Chests.Restore(save.Chests); err != nil {
		return nil, fmt.Errorf("failed to restore chests: %v", err)
	}

	for name, record := range save.Players {
		if record == nil {
			continue
		}
		if record.Username == "" {
			record.Username = name
		}
		gameState.Offline[strings.ToLower(record.Username)] = record
	}
	if save.Host != nil && save.Host.Username != "" {
		key := strings.ToLower(save.Host.Username)
		if _, ok := gameState.Offline[key]; !ok {
			gameState.Offline[key] = save.Host
		}
		gameState.HostName = save.Host.Username
	}
	return gameState, nil
}

// chunksOf lists the chunks that already hold blocks. Saves written before
// chunks were tracked only carry blocks.
func chunksOf(blocks map[string]string) []int {
	seen := make(map[int]bool)
	var out []int
	for key := range blocks {
		pos, err := world.ParseKey(key)
		if err != nil {
			log.Warn("Skipping malformed block key %q: %v", key, err)
			continue
		}
		c := world.ChunkOf(pos.X)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// WorldSaveFromState converts the game state into its save file form.
func WorldSaveFromState(gameState *types.GameState) *saves.WorldSave {
	save := saves.NewWorldSave(gameState.WorldName, gameState.Seed, time.Now())
	save.ID = gameState.WorldID
	save.Created = gameState.Created
	save.Blocks = gameState.World.Blocks()
	save.Chunks = gameState.World.Chunks()
	save.Chests = gameState.Chests.Snapshot()
	if gameState.Entities != nil {
		save.Entities = gameState.Entities
	}
	save.WorldSettings = saves.WorldSettings{
		Time:    gameState.Time.TimeOfDay,
		Day:     gameState.Time.IsDay,
		DayNum:  gameState.Time.Day,
		Weather: gameState.Time.Weather,
	}
	for _, record := range gameState.Records() {
		save.Players[record.Username] = record
	}
	return save
}

func PlayerSnapshotFromState(p *types.PlayerState) messages.PlayerSnapshot {
	return messages.PlayerSnapshot{
		ClientID:   p.ClientID,
		Username:   p.Username,
		Character:  p.Characters.Selected,
		X:          p.X,
		Y:          p.Y,
		VelY:       p.VelY,
		OnGround:   p.OnGround,
		Facing:     p.Facing,
		Health:     p.Health,
		MaxHealth:  p.MaxHealth,
		Dead:       p.Dead,
		Permission: p.Permission,
	}
}

// PlayerStateUpdateFromState is the compact UDP form of a player.
func PlayerStateUpdateFromState(p *types.PlayerState) *messages.PlayerState {
	return &messages.PlayerState{
		ClientID:  p.ClientID,
		Username:  p.Username,
		X:         p.X,
		Y:         p.Y,
		VelY:      p.VelY,
		OnGround:  p.OnGround,
		Facing:    int8(p.Facing),
		Health:    int16(p.Health),
		Dead:      p.Dead,
		Timestamp: p.LastProcessedTimestamp,
	}
}

func TimeSyncFromState(t types.WorldTime) messages.TimeSync {
	return messages.TimeSync{
		IsDay:     t.IsDay,
		TimeOfDay: t.TimeOfDay,
		Day:       t.Day,
		Weather:   t.Weather,
	}
}

func InventoryFromState(p *types.PlayerState) messages.ServerInventory {
	return messages.ServerInventory{
		Inventory: p.Inventory,
		Selected:  p.Selected,
		Health:    p.Health,
		Hunger:    p.Hunger,
	}
}

func CoinsFromState(p *types.PlayerState) messages.ServerCoins {
	return messages.ServerCoins{
		Coins:    p.Wallet.Coins,
		Display:  economy.FormatCoins(p.Wallet.Coins),
		Selected: p.Characters.Selected,
		Unlocked: p.Characters.Unlocked,
	}
}

func ChestContentsFromChest(c *chests.Chest) messages.ServerChestContents {
	return messages.ServerChestContents{
		X:            c.Pos.X,
		Y:            c.Pos.Y,
		Slots:        c.Slots,
		LootTable:    c.LootTable,
		PlayerPlaced: c.PlayerPlaced,
	}
}

func ChatRecordFromMessage(worldID string, m *chat.Message) *models.ChatRecord {
	return &models.ChatRecord{
		ID:        m.ID.String(),
		WorldID:   worldID,
		Kind:      string(m.Kind),
		Channel:   string(m.Channel),
		From:      m.From,
		To:        m.To,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}
