package game

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/game/constants"
	"github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/workers"
	"github.com/cbodonnell/orderstone/pkg/world"
)

// processClientMessages processes all pending client messages in the queue
// and updates the game state accordingly.
func (gm *GameManager) processClientMessages(ctx context.Context) {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		playerState, ok := gm.gameState.Players[message.ClientID]
		if !ok {
			log.Warn("Client %d is not in the game state", message.ClientID)
			continue
		}

		if err := gm.handleClientMessage(ctx, playerState, message); err != nil {
			log.Error("Failed to handle %s from client %d: %v", message.Type, message.ClientID, err)
		}
	}
}

func (gm *GameManager) handleClientMessage(ctx context.Context, p *types.PlayerState, message *messages.Message) error {
	switch message.Type {
	case messages.MessageTypeClientPlayerUpdate:
		update := &messages.ClientPlayerUpdate{}
		if err := message.DecodePayload(update); err != nil {
			return err
		}
		if gm.applyMovement(ctx, p, update.X, update.Y, update.VelY, update.OnGround, update.Facing, update.Timestamp) {
			gm.sendToAllExcept(p.ClientID, messages.MessageTypeServerPlayerUpdate, messages.ServerPlayerUpdate{
				Player: PlayerSnapshotFromState(p),
			})
		}
	case messages.MessageTypeClientPlayerState:
		update, err := messages.DeserializePlayerState(message.Payload)
		if err != nil {
			return fmt.Errorf("failed to deserialize player state: %v", err)
		}
		gm.applyMovement(ctx, p, update.X, update.Y, update.VelY, update.OnGround, int(update.Facing), update.Timestamp)
	case messages.MessageTypeClientBlockChange:
		change := &messages.ClientBlockChange{}
		if err := message.DecodePayload(change); err != nil {
			return err
		}
		gm.handleBlockChange(ctx, p, change)
	case messages.MessageTypeClientChat:
		clientChat := &messages.ClientChat{}
		if err := message.DecodePayload(clientChat); err != nil {
			return err
		}
		gm.handleChat(p, clientChat)
	case messages.MessageTypeClientTimeUpdate:
		update := &messages.ClientTimeUpdate{}
		if err := message.DecodePayload(update); err != nil {
			return err
		}
		gm.handleTimeUpdate(p, update)
	case messages.MessageTypeClientChestOpen,
		messages.MessageTypeClientChestClose,
		messages.MessageTypeClientChestTake,
		messages.MessageTypeClientChestPut:
		req := &messages.ClientChestSlot{}
		if err := message.DecodePayload(req); err != nil {
			return err
		}
		gm.handleChest(ctx, p, message.Type, req)
	case messages.MessageTypeClientItemUse:
		use := &messages.ClientItemUse{Slot: p.Selected}
		if len(message.Payload) > 0 {
			if err := message.DecodePayload(use); err != nil {
				return err
			}
		}
		gm.handleItemUse(ctx, p, use.Slot)
	case messages.MessageTypeClientAttack:
		gm.handleAttack(ctx, p)
	case messages.MessageTypeClientRespawn:
		gm.handleRespawn(ctx, p)
	case messages.MessageTypeClientKeyPress:
		keyPress := &messages.ClientKeyPress{}
		if err := message.DecodePayload(keyPress); err != nil {
			return err
		}
		gm.callHook(ctx, mods.HookKeyPress, p.Username, keyPress.Key)
	case messages.MessageTypeClientMouseClick:
		click := &messages.ClientMouseClick{}
		if err := message.DecodePayload(click); err != nil {
			return err
		}
		gm.callHook(ctx, mods.HookMouseClick, p.Username, click.X, click.Y, click.Button)
	case messages.MessageTypeClientPermissionRequest:
		req := &messages.ClientPermissionRequest{}
		if err := message.DecodePayload(req); err != nil {
			return err
		}
		gm.handlePermissionRequest(p, req)
	case messages.MessageTypeClientCharacterUnlock, messages.MessageTypeClientCharacterSelect:
		req := &messages.ClientCharacter{}
		if err := message.DecodePayload(req); err != nil {
			return err
		}
		gm.handleCharacter(p, message.Type, req.Name)
	default:
		return fmt.Errorf("unhandled message type: %s", message.Type)
	}
	return nil
}

// applyMovement accepts the client's position. Updates older than the last
// processed one are dropped.
func (gm *GameManager) applyMovement(ctx context.Context, p *types.PlayerState, x, y, velY float64, onGround bool, facing int, timestamp int64) bool {
	if p.Dead {
		return false
	}
	if timestamp != 0 && timestamp < p.LastProcessedTimestamp {
		log.Warn("Client %d sent an outdated player update", p.ClientID)
		return false
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}

	p.LastProcessedTimestamp = timestamp
	p.X = clamp(x, world.MinX, world.MaxX-constants.PlayerWidth)
	p.Y = clamp(y, world.MinY, world.MaxY-constants.PlayerHeight)
	p.VelY = velY
	p.OnGround = onGround
	if facing != 0 {
		p.Facing = facing
	}
	p.Changed = true
	syncPlayerObject(p)

	gm.gameState.World.EnsureAround(int(math.Floor(p.X)), constants.ChunkRadius)
	gm.callHook(ctx, mods.HookPlayerMove, p.Username, p.X, p.Y)
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (gm *GameManager) handleBlockChange(ctx context.Context, p *types.PlayerState, change *messages.ClientBlockChange) {
	if !p.Permission.CanModifyWorld() {
		gm.sendError(p.ClientID, "You do not have permission to modify the world")
		return
	}
	if p.Dead {
		return
	}
	pos := world.Pos{X: change.X, Y: change.Y}

	var block string
	switch change.Action {
	case messages.BlockActionBreak:
		old, err := gm.gameState.World.Break(pos)
		if err != nil {
			gm.sendError(p.ClientID, fmt.Sprintf("Cannot break block: %v", err))
			return
		}
		block = old
		if old == world.Chest {
			for _, stack := range gm.gameState.Chests.Remove(pos) {
				gm.giveItem(p, stack.Type, stack.Count)
			}
			gm.closeChestFor(pos)
		}
		gm.giveItem(p, old, 1)
		gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
		gm.callHook(ctx, mods.HookBlockBreak, p.Username, pos.X, pos.Y, old)
	case messages.BlockActionPlace:
		block = change.Block
		held := p.SelectedItem()
		if block == "" && held.Valid() {
			block = held.Type
		}
		if blockedByPlayer(gm.gameState.CollisionSpace, pos) {
			gm.sendError(p.ClientID, "Cannot place a block inside a player")
			return
		}
		if err := gm.gameState.World.Place(pos, block); err != nil {
			gm.sendError(p.ClientID, fmt.Sprintf("Cannot place block: %v", err))
			return
		}
		if block == world.Chest {
			gm.gameState.Chests.Place(pos)
		}
		if held.Valid() && held.Type == block {
			items.Remove(p.Inventory, p.Selected)
			gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
		}
		gm.callHook(ctx, mods.HookBlockPlace, p.Username, pos.X, pos.Y, block)
	default:
		gm.sendError(p.ClientID, fmt.Sprintf("Unknown block action %q", change.Action))
		return
	}

	gm.sendToAllExcept(p.ClientID, messages.MessageTypeServerBlockChange, messages.ServerBlockChange{
		ClientID: p.ClientID,
		Username: p.Username,
		Action:   change.Action,
		X:        pos.X,
		Y:        pos.Y,
		Block:    block,
	})
	gm.recordBlockChange(p.Username, change.Action, pos, block)
}

func (gm *GameManager) recordBlockChange(username string, action messages.BlockAction, pos world.Pos, block string) {
	if gm.blockChangeChan == nil {
		return
	}
	change := &models.BlockChange{
		WorldID:   gm.gameState.WorldID.String(),
		Username:  username,
		Action:    string(action),
		X:         pos.X,
		Y:         pos.Y,
		Block:     block,
		Timestamp: gm.now.UTC(),
	}
	select {
	case gm.blockChangeChan <- change:
	default:
		log.Warn("Dropped block change record: channel is full")
	}
}

// giveItem adds items to the hotbar, then the backpack. Whatever does not fit is lost.
func (gm *GameManager) giveItem(p *types.PlayerState, itemType string, count int) int {
	left := items.Add(p.Inventory, itemType, count)
	if left > 0 {
		left = items.Add(p.Backpack, itemType, left)
	}
	if left > 0 {
		log.Debug("%d %s did not fit into the inventory of %s", left, itemType, p.Username)
	}
	return left
}

func (gm *GameManager) handleTimeUpdate(p *types.PlayerState, update *messages.ClientTimeUpdate) {
	if !p.Permission.Has(permissions.Admin) {
		gm.sendError(p.ClientID, "Only admins can change the time")
		return
	}
	if update.Weather != "" && update.Weather != saves.WeatherClear && update.Weather != saves.WeatherRain {
		gm.sendError(p.ClientID, fmt.Sprintf("Unknown weather %q", update.Weather))
		return
	}
	if update.IsDay != nil {
		gm.setDay(*update.IsDay)
	}
	if update.Weather != "" {
		gm.gameState.Time.Weather = update.Weather
	}
	gm.sendTimeSync()
}

func (gm *GameManager) setDay(isDay bool) {
	gm.gameState.Time.IsDay = isDay
	gm.gameState.Time.TimeOfDay = 0
}

func (gm *GameManager) handleChest(ctx context.Context, p *types.PlayerState, t messages.MessageType, req *messages.ClientChestSlot) {
	pos := world.Pos{X: req.X, Y: req.Y}
	chests := gm.gameState.Chests

	if t == messages.MessageTypeClientChestOpen {
		chest, err := chests.Open(gm.gameState.World, pos)
		if err != nil {
			gm.sendError(p.ClientID, fmt.Sprintf("Cannot open chest: %v", err))
			return
		}
		p.OpenChest = &pos
		gm.sendToClient(p.ClientID, messages.MessageTypeServerChestContents, ChestContentsFromChest(chest))
		gm.callHook(ctx, mods.HookChestOpen, p.Username, pos.X, pos.Y)
		return
	}

	if p.OpenChest == nil || *p.OpenChest != pos {
		gm.sendError(p.ClientID, "That chest is not open")
		return
	}

	switch t {
	case messages.MessageTypeClientChestClose:
		p.OpenChest = nil
		gm.callHook(ctx, mods.HookChestClose, p.Username, pos.X, pos.Y)
		return
	case messages.MessageTypeClientChestTake:
		stack, err := chests.Take(pos, req.Slot)
		if err != nil {
			gm.sendError(p.ClientID, fmt.Sprintf("Cannot take item: %v", err))
			return
		}
		if left := gm.giveItem(p, stack.Type, stack.Count); left > 0 {
			if err := chests.Put(pos, req.Slot, &items.Stack{Type: stack.Type, Count: left}); err != nil {
				log.Error("Failed to return %d %s to chest %s: %v", left, stack.Type, pos, err)
			}
		}
	case messages.MessageTypeClientChestPut:
		if req.InventorySlot < 0 || req.InventorySlot >= len(p.Inventory) || !p.Inventory[req.InventorySlot].Valid() {
			gm.sendError(p.ClientID, "Nothing to put in the chest")
			return
		}
		if err := chests.Put(pos, req.Slot, p.Inventory[req.InventorySlot]); err != nil {
			gm.sendError(p.ClientID, fmt.Sprintf("Cannot put item: %v", err))
			return
		}
		p.Inventory[req.InventorySlot] = nil
	}

	gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
	gm.sendChestContents(pos)
}

// sendChestContents updates everyone looking into the chest at pos.
func (gm *GameManager) sendChestContents(pos world.Pos) {
	chest, err := gm.gameState.Chests.Open(gm.gameState.World, pos)
	if err != nil {
		return
	}
	contents := ChestContentsFromChest(chest)
	for id, other := range gm.gameState.Players {
		if other.OpenChest != nil && *other.OpenChest == pos {
			gm.sendToClient(id, messages.MessageTypeServerChestContents, contents)
		}
	}
}

func (gm *GameManager) closeChestFor(pos world.Pos) {
	for _, other := range gm.gameState.Players {
		if other.OpenChest != nil && *other.OpenChest == pos {
			other.OpenChest = nil
		}
	}
}

func (gm *GameManager) handleItemUse(ctx context.Context, p *types.PlayerState, slot int) {
	if p.Dead {
		return
	}
	if slot >= 0 && slot < len(p.Inventory) {
		p.Selected = slot
	}
	stack := p.SelectedItem()
	if !stack.Valid() {
		return
	}
	item := stack.Type

	handled := false
	if gm.mods != nil {
		// a failing handler is logged by the mod manager and counts as unhandled
		handled, _ = gm.mods.UseItem(ctx, p.Username, item)
	}
	if !handled {
		if heal, ok := items.FoodValues[item]; ok && p.Health < p.MaxHealth {
			items.Remove(p.Inventory, p.Selected)
			healed := gm.heal(p, heal)
			gm.callHook(ctx, mods.HookPlayerHeal, p.Username, healed)
		}
	}
	gm.callHook(ctx, mods.HookItemUse, p.Username, item)
	gm.sendToClient(p.ClientID, messages.MessageTypeServerInventory, InventoryFromState(p))
}

// heal restores health up to the maximum and returns the amount restored.
func (gm *GameManager) heal(p *types.PlayerState, amount int) int {
	before := p.Health
	p.Health = min(p.MaxHealth, p.Health+amount)
	p.Changed = true
	return p.Health - before
}

func (gm *GameManager) handleAttack(ctx context.Context, attacker *types.PlayerState) {
	space := gm.gameState.CollisionSpace
	if attacker.Dead || attacker.Object == nil || space == nil {
		return
	}

	hitbox := attackHitbox(attacker)
	space.Add(hitbox)
	defer space.Remove(hitbox)

	for targetID, target := range gm.gameState.Players {
		if targetID == attacker.ClientID || target.Dead || target.Object == nil {
			continue
		}
		if !hitbox.SharesCells(target.Object) || !overlaps(hitbox, target.Object) {
			continue
		}

		damage := min(constants.PlayerAttackDamage, target.Health)
		target.Health -= damage
		target.Changed = true
		log.Debug("Player %s hit %s for %d", attacker.Username, target.Username, damage)
		gm.sendToAll(messages.MessageTypeServerPlayerHit, messages.ServerPlayerHit{
			AttackerID: attacker.ClientID,
			TargetID:   targetID,
			Damage:     damage,
			Health:     target.Health,
		})
		gm.callHook(ctx, mods.HookPlayerDamage, target.Username, damage, attacker.Username)

		if target.Health > 0 {
			continue
		}
		gm.kill(ctx, target, attacker)
	}
}

func (gm *GameManager) kill(ctx context.Context, target, killer *types.PlayerState) {
	target.Dead = true
	target.OpenChest = nil
	log.Debug("Player %s killed %s", killer.Username, target.Username)
	gm.callHook(ctx, mods.HookDeath, target.Username, killer.Username)
	gm.sendToAll(messages.MessageTypeServerPlayerDeath, messages.ServerPlayerDeath{
		ClientID: target.ClientID,
		KillerID: killer.ClientID,
	})

	if err := killer.Wallet.Add(constants.PlayerKillReward); err != nil {
		log.Error("Failed to reward %s: %v", killer.Username, err)
	}
	gm.sendToClient(killer.ClientID, messages.MessageTypeServerCoins, CoinsFromState(killer))
	gm.publishChat(chat.System(chat.KindSystem, fmt.Sprintf("%s was slain by %s", target.Username, killer.Username), gm.now))
}

func (gm *GameManager) handleRespawn(ctx context.Context, p *types.PlayerState) {
	if !p.Dead {
		return
	}
	spawn := gm.generator.SpawnPoint(constants.PlayerSpawnX)
	gm.gameState.World.EnsureAround(spawn.X, constants.ChunkRadius)
	p.X, p.Y = spawnPosition(spawn)
	p.VelY = 0
	p.Health = p.MaxHealth
	p.Dead = false
	p.Changed = true
	syncPlayerObject(p)

	gm.sendToAll(messages.MessageTypeServerRespawn, messages.ServerRespawn{Player: PlayerSnapshotFromState(p)})
	gm.callHook(ctx, mods.HookRespawn, p.Username)
}

func (gm *GameManager) handlePermissionRequest(p *types.PlayerState, req *messages.ClientPermissionRequest) {
	if !p.Permission.CanGrant(req.Level) {
		gm.sendError(p.ClientID, fmt.Sprintf("You cannot grant %s", req.Level))
		return
	}

	target, online := gm.gameState.PlayerByName(req.Username)
	var current permissions.Level
	var record *saves.PlayerRecord
	if online {
		current = target.Permission
	} else {
		var ok bool
		record, ok = gm.offlineRecord(req.Username)
		if !ok {
			gm.sendError(p.ClientID, fmt.Sprintf("Unknown player %s", req.Username))
			return
		}
		current = record.Permission
	}
	if current >= p.Permission && p.Permission != permissions.Owner {
		gm.sendError(p.ClientID, fmt.Sprintf("You cannot change the permission of %s", req.Username))
		return
	}

	username := req.Username
	if online {
		target.Permission = req.Level
		username = target.Username
	} else {
		record.Permission = req.Level
		username = record.Username
		saved := *record
		gm.requestSave(workers.SaveRequest{Profiles: []*models.PlayerProfile{gm.profile(&saved)}})
	}
	log.Info("%s set the permission of %s to %s", p.Username, username, req.Level)
	gm.sendToAll(messages.MessageTypeServerPermission, messages.ServerPermission{Username: username, Level: req.Level})
	gm.sendChat(p.ClientID, chat.System(chat.KindSuccess, fmt.Sprintf("%s is now %s", username, req.Level), gm.now))
}

func (gm *GameManager) offlineRecord(username string) (*saves.PlayerRecord, bool) {
	record, ok := gm.gameState.Offline[strings.ToLower(username)]
	return record, ok
}

func (gm *GameManager) handleCharacter(p *types.PlayerState, t messages.MessageType, name string) {
	var err error
	if t == messages.MessageTypeClientCharacterUnlock {
		err = p.Characters.Unlock(name, &p.Wallet)
	} else {
		err = p.Characters.Select(name)
	}
	if err != nil {
		gm.sendError(p.ClientID, err.Error())
		return
	}
	gm.sendToClient(p.ClientID, messages.MessageTypeServerCoins, CoinsFromState(p))
	if t == messages.MessageTypeClientCharacterSelect {
		gm.sendToAllExcept(p.ClientID, messages.MessageTypeServerPlayerUpdate, messages.ServerPlayerUpdate{
			Player: PlayerSnapshotFromState(p),
		})
	}
}
