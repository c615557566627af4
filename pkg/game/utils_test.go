package game

import (
	"testing"

	"github.com/cbodonnell/orderstone/pkg/chests"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGameState(t *testing.T) {
	save := saves.NewWorldSave("Legacy World", 9, testTime)
	save.Blocks = map[string]string{"3,60": "stone", "-20,61": world.Chest}
	save.Chests = chests.Snapshot{
		Inventories: map[string][]*items.Stack{
			"-20,61": {{Type: "sword", Count: 1}},
		},
	}
	save.Host = saves.NewPlayerRecord("steve", permissions.Owner)
	save.WorldSettings = saves.WorldSettings{Time: 30, Day: false, DayNum: 4}

	gameState, err := LoadGameState(save, nil)
	require.NoError(t, err)

	assert.Equal(t, "steve", gameState.HostName)
	assert.Contains(t, gameState.Offline, "steve")
	assert.Equal(t, "stone", gameState.World.Get(world.Pos{X: 3, Y: 60}))
	assert.Equal(t, []int{-2, 0}, gameState.World.Chunks())
	assert.False(t, gameState.Time.IsDay)
	assert.Equal(t, 4, gameState.Time.Day)
	assert.Equal(t, saves.WeatherClear, gameState.Time.Weather)

	info, err := gameState.Chests.Info(world.Pos{X: -20, Y: 61})
	require.NoError(t, err)
	assert.Equal(t, 1, info.ItemCount)

	// chunks that already hold blocks are never regenerated
	assert.False(t, gameState.World.EnsureChunk(0))
	assert.True(t, gameState.World.EnsureChunk(1))
}

func TestWorldSaveFromState(t *testing.T) {
	save := saves.NewWorldSave("Round Trip", 3, testTime)
	save.Blocks = map[string]string{"1,50": "dirt"}
	save.Players["Alex"] = saves.NewPlayerRecord("Alex", permissions.Player)

	gameState, err := LoadGameState(save, nil)
	require.NoError(t, err)
	gameState.Time.Weather = saves.WeatherRain

	out := WorldSaveFromState(gameState)
	assert.Equal(t, save.ID, out.ID)
	assert.Equal(t, "Round Trip", out.Name)
	assert.Equal(t, map[string]string{"1,50": "dirt"}, out.Blocks)
	assert.Equal(t, []int{0}, out.Chunks)
	assert.Contains(t, out.Players, "Alex")
	assert.Equal(t, saves.WeatherRain, out.WorldSettings.Weather)
	assert.Equal(t, saves.SchemaVersion, out.SchemaVersion)
}
