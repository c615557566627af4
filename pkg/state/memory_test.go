package state

import (
	"context"
	"testing"

	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStateManager(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryStateManager()

	empty, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Players)

	gs := gametypes.NewGameState(nil)
	gs.WorldName = "Snapshot World"
	require.NoError(t, gs.World.Set(world.Pos{X: 1, Y: 50}, "stone"))
	record := saves.NewPlayerRecord("steve", permissions.Player)
	record.Inventory[0] = &items.Stack{Type: "apple", Count: 2}
	gs.AddPlayer(7, gametypes.NewPlayerState(7, record))
	require.NoError(t, m.Set(ctx, gs))

	// later changes by the game loop do not leak into the snapshot
	gs.Players[7].Inventory[0].Count = 1
	gs.Players[7].X = 99
	gs.RemovePlayer(7)

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Snapshot World", got.WorldName)
	assert.Equal(t, 1, got.BlockCount)
	require.Contains(t, got.Players, uint32(7))
	assert.Equal(t, 2, got.Players[7].Inventory[0].Count)
	assert.Zero(t, got.Players[7].X)
	assert.Nil(t, got.World)

	assert.Error(t, m.Set(ctx, nil))
}
