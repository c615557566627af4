package game

import (
	"fmt"
	"sort"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/world"
)

var _ mods.Host = (*GameManager)(nil)

// The mods.Host methods are only called from hooks, which run on the game loop.

func (gm *GameManager) Broadcast(text string) {
	text, err := chat.Sanitize(text)
	if err != nil {
		return
	}
	gm.publishChat(chat.System(chat.KindSystem, text, gm.now))
}

func (gm *GameManager) GiveItem(player, item string, count int) error {
	if item == "" || count <= 0 {
		return fmt.Errorf("invalid item stack %d %q", count, item)
	}
	p, ok := gm.gameState.PlayerByName(player)
	if !ok {
		return fmt.Errorf("player %s is not online", player)
	}
	if left := gm.giveItem(p, item, count); left == count {
		return fmt.Errorf("inventory of %s is full", p.Username)
	}
	gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
	return nil
}

func (gm *GameManager) Heal(player string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("invalid heal amount %d", amount)
	}
	p, ok := gm.gameState.PlayerByName(player)
	if !ok {
		return fmt.Errorf("player %s is not online", player)
	}
	if p.Dead {
		return fmt.Errorf("player %s is dead", p.Username)
	}
	gm.heal(p, amount)
	gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
	return nil
}

func (gm *GameManager) SetBlock(x, y int, block string) error {
	pos := world.Pos{X: x, Y: y}
	old := gm.gameState.World.Get(pos)
	if err := gm.gameState.World.Set(pos, block); err != nil {
		return err
	}
	if old == world.Chest && block != world.Chest {
		gm.gameState.Chests.Remove(pos)
		gm.closeChestFor(pos)
	}
	if block == world.Chest && old != world.Chest {
		gm.gameState.Chests.Place(pos)
	}

	action := messages.BlockActionPlace
	if block == "" || block == world.Air {
		action = messages.BlockActionBreak
		block = world.Air
	}
	gm.sendToAll(messages.MessageTypeServerBlockChange, messages.ServerBlockChange{
		Action: action,
		X:      x,
		Y:      y,
		Block:  block,
	})
	gm.recordBlockChange("", action, pos, block)
	return nil
}

func (gm *GameManager) GetBlock(x, y int) string {
	return gm.gameState.World.Get(world.Pos{X: x, Y: y})
}

func (gm *GameManager) Players() []string {
	names := make([]string, 0, len(gm.gameState.Players))
	for _, p := range gm.gameState.Players {
		names = append(names, p.Username)
	}
	sort.Strings(names)
	return names
}
