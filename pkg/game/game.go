package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/game/constants"
	"github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/cbodonnell/orderstone/pkg/workers"
	"github.com/cbodonnell/orderstone/pkg/world"
)

// finalSaveTimeout bounds how long shutdown waits for the save worker to
// accept the last save request.
const finalSaveTimeout = 5 * time.Second

type GameManager struct {
	clientMessageQueue   queue.Queue
	connectionEventQueue queue.Queue
	stateManager         state.StateManager
	serverMessageChan    chan<- workers.ServerMessage
	saveRequestChan      chan<- workers.SaveRequest
	chatRecordChan       chan<- *models.ChatRecord
	blockChangeChan      chan<- *models.BlockChange
	mods                 *mods.Manager
	gameState            *types.GameState
	generator            world.FlatGenerator
	chatLimiter          *chat.Limiter
	ownerName            string
	defaultPermission    permissions.Level
	gameLoopInterval     time.Duration
	autosaveInterval     time.Duration

	pendingChunks []generatedChunk
	lastTimeSync  time.Time
	lastAutosave  time.Time
	now           time.Time
}

type generatedChunk struct {
	chunk  int
	blocks map[string]string
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	ClientMessageQueue   queue.Queue
	ConnectionEventQueue queue.Queue
	StateManager         state.StateManager
	ServerMessageChan    chan<- workers.ServerMessage
	// SaveRequestChan is closed by the game manager when it stops
	SaveRequestChan chan<- workers.SaveRequest
	ChatRecordChan  chan<- *models.ChatRecord
	BlockChangeChan chan<- *models.BlockChange
	// Mods may be nil when mods are disabled
	Mods      *mods.Manager
	GameState *types.GameState
	// OwnerName is granted OWNER on join. When empty the world's host is the owner,
	// and the first player to join a world without a host becomes its host.
	OwnerName         string
	DefaultPermission permissions.Level
	GameLoopInterval  time.Duration
	AutosaveInterval  time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	if opts.GameLoopInterval <= 0 {
		opts.GameLoopInterval = constants.DefaultTickInterval
	}
	gm := &GameManager{
		clientMessageQueue:   opts.ClientMessageQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		stateManager:         opts.StateManager,
		serverMessageChan:    opts.ServerMessageChan,
		saveRequestChan:      opts.SaveRequestChan,
		chatRecordChan:       opts.ChatRecordChan,
		blockChangeChan:      opts.BlockChangeChan,
		mods:                 opts.Mods,
		gameState:            opts.GameState,
		generator:            world.FlatGenerator{Seed: opts.GameState.Seed},
		chatLimiter:          chat.NewLimiter(chat.DefaultRate, chat.DefaultBurst),
		ownerName:            strings.TrimSpace(opts.OwnerName),
		defaultPermission:    opts.DefaultPermission,
		gameLoopInterval:     opts.GameLoopInterval,
		autosaveInterval:     opts.AutosaveInterval,
	}
	gm.gameState.World.SetOnChunkGenerated(gm.onChunkGenerated)
	if gm.mods != nil {
		gm.mods.SetHost(gm)
		gm.gameState.Chests.SetLootSource(gm.mods.Registry())
	}
	return gm
}

// Start starts the game loop. It returns after ctx is cancelled and the
// final save has been handed to the save worker.
func (gm *GameManager) Start(ctx context.Context) error {
	if err := gm.initializeGameState(ctx); err != nil {
		return fmt.Errorf("failed to initialize game state: %v", err)
	}

	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.stop()
			return nil
		case t := <-ticker.C:
			err := gm.gameTick(ctx, t)
			if err != nil {
				log.Error("Failed to run game tick: %v", err)
			}
		}
	}
}

func (gm *GameManager) initializeGameState(ctx context.Context) error {
	now := time.Now()
	gm.now = now
	gm.lastTimeSync = now
	gm.lastAutosave = now

	spawn := gm.generator.SpawnPoint(constants.PlayerSpawnX)
	gm.gameState.World.EnsureAround(spawn.X, constants.ChunkRadius)
	gm.flushGeneratedChunks(ctx)

	gm.callHook(ctx, mods.HookGameStart, gm.gameState.WorldName)
	log.Info("World %q started with %d blocks", gm.gameState.WorldName, gm.gameState.World.Len())
	return gm.publishState(ctx)
}

// stop writes the final save and releases the save worker.
func (gm *GameManager) stop() {
	if gm.saveRequestChan == nil {
		return
	}
	req := gm.saveRequest()
	select {
	case gm.saveRequestChan <- req:
		log.Info("Final save of world %q requested", gm.gameState.WorldName)
	case <-time.After(finalSaveTimeout):
		log.Error("Failed to request final save: save worker is not accepting requests")
	}
	close(gm.saveRequestChan)
	gm.saveRequestChan = nil
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, t time.Time) error {
	gm.now = t
	gm.gameState.SetTimestamp(t.UnixMilli())
	gm.processConnectionEvents(ctx)
	gm.processClientMessages(ctx)
	gm.advanceTime(t)
	gm.flushGeneratedChunks(ctx)
	gm.broadcastPlayerStates()
	gm.callHook(ctx, mods.HookTick, gm.gameLoopInterval.Seconds())
	gm.autosave(t)

	return gm.publishState(ctx)
}

func (gm *GameManager) publishState(ctx context.Context) error {
	if gm.stateManager == nil {
		return nil
	}
	if err := gm.stateManager.Set(ctx, gm.gameState); err != nil {
		return fmt.Errorf("failed to publish game state: %v", err)
	}
	return nil
}

// processConnectionEvents processes all pending connection events in the queue,
// updates the game state, and notifies connected clients
func (gm *GameManager) processConnectionEvents(ctx context.Context) {
	pendingEvents, err := gm.connectionEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read connection events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectPlayerEvent:
			gm.handleConnectPlayer(ctx, event)
		case *types.DisconnectPlayerEvent:
			gm.handleDisconnectPlayer(event)
		default:
			log.Error("unhandled connection event type: %T", event)
		}
	}
}

// playerRecord picks the stored profile, the world's own record or a fresh
// record for a joining player, in that order. A permission granted while the
// player was offline wins over the stored profile, which may predate it.
func (gm *GameManager) playerRecord(event *types.ConnectPlayerEvent) *saves.PlayerRecord {
	key := strings.ToLower(event.Username)
	offline, hasOffline := gm.gameState.Offline[key]
	if event.Profile != nil {
		if hasOffline {
			event.Profile.Permission = offline.Permission
		}
		return event.Profile
	}
	if hasOffline {
		return offline
	}

	record := saves.NewPlayerRecord(event.Username, gm.defaultPermission)
	spawn := gm.generator.SpawnPoint(constants.PlayerSpawnX)
	record.X, record.Y = spawnPosition(spawn)
	return record
}

// spawnPosition stands a player on the ground below the air block at spawn.
func spawnPosition(spawn world.Pos) (float64, float64) {
	return float64(spawn.X) + (1-constants.PlayerWidth)/2, float64(spawn.Y+1) - constants.PlayerHeight
}

func (gm *GameManager) permissionFor(username string, stored permissions.Level) permissions.Level {
	switch {
	case gm.ownerName != "" && strings.EqualFold(username, gm.ownerName):
		return permissions.Owner
	case gm.ownerName == "" && gm.gameState.HostName == "":
		gm.gameState.HostName = username
		log.Info("Player %s is the host of world %q", username, gm.gameState.WorldName)
		return permissions.Owner
	case gm.ownerName == "" && strings.EqualFold(username, gm.gameState.HostName):
		return permissions.Owner
	case stored == permissions.Owner:
		// ownership does not carry over from another host
		return gm.defaultPermission
	}
	if !stored.Valid() {
		return gm.defaultPermission
	}
	return stored
}

func (gm *GameManager) handleConnectPlayer(ctx context.Context, event *types.ConnectPlayerEvent) {
	if _, ok := gm.gameState.Players[event.ClientID]; ok {
		log.Warn("Client %d is already in the game state", event.ClientID)
		return
	}

	record := gm.playerRecord(event)
	record.Username = event.Username
	playerState := types.NewPlayerState(event.ClientID, record)
	playerState.Permission = gm.permissionFor(event.Username, record.Permission)
	if event.Character != "" && playerState.Characters.IsUnlocked(event.Character) {
		if err := playerState.Characters.Select(event.Character); err != nil {
			log.Debug("Ignoring character %q for %s: %v", event.Character, event.Username, err)
		}
	}
	playerState.Object = newPlayerObject(playerState.X, playerState.Y)
	playerState.Changed = true
	log.Debug("Player %s joined as client %d with %s", playerState.Username, event.ClientID, playerState.Permission)

	delete(gm.gameState.Offline, strings.ToLower(event.Username))
	gm.gameState.AddPlayer(event.ClientID, playerState)
	if gm.gameState.CollisionSpace != nil {
		gm.gameState.CollisionSpace.Add(playerState.Object)
	}
	gm.gameState.World.EnsureAround(int(playerState.X), constants.ChunkRadius)

	welcome := messages.ServerWelcome{
		ClientID: event.ClientID,
		World: messages.WorldSnapshot{
			Name:   gm.gameState.WorldName,
			Seed:   gm.gameState.Seed,
			Blocks: gm.gameState.World.Blocks(),
		},
		Players:    make([]messages.PlayerSnapshot, 0, len(gm.gameState.Players)),
		Self:       PlayerSnapshotFromState(playerState),
		Inventory:  playerState.Inventory,
		Time:       TimeSyncFromState(gm.gameState.Time),
		Permission: playerState.Permission,
	}
	for id, other := range gm.gameState.Players {
		if id == event.ClientID {
			continue
		}
		welcome.Players = append(welcome.Players, PlayerSnapshotFromState(other))
	}
	gm.sendToClient(event.ClientID, messages.MessageTypeServerWelcome, welcome)
	gm.sendToClient(event.ClientID, messages.MessageTypeServerCoins, CoinsFromState(playerState))
	for _, m := range gm.gameState.Chat.Visible(gm.now) {
		if m.Channel != chat.ChannelPrivate {
			gm.sendToClient(event.ClientID, messages.MessageTypeServerChat, messages.ServerChat{Message: *m})
		}
	}

	gm.sendToAllExcept(event.ClientID, messages.MessageTypeServerPlayerJoined, messages.ServerPlayerJoined{
		Player: PlayerSnapshotFromState(playerState),
	})
	gm.publishChat(chat.System(chat.KindSystem, fmt.Sprintf("%s joined the game", playerState.Username), gm.now))
}

func (gm *GameManager) handleDisconnectPlayer(event *types.DisconnectPlayerEvent) {
	playerState, ok := gm.gameState.Players[event.ClientID]
	if !ok {
		log.Warn("Client %d disconnected but is not in the game state", event.ClientID)
		return
	}

	record := playerState.Record()
	gm.gameState.Offline[strings.ToLower(playerState.Username)] = record
	gm.requestSave(workers.SaveRequest{
		Profiles: []*models.PlayerProfile{gm.profile(record)},
	})

	if gm.gameState.CollisionSpace != nil && playerState.Object != nil {
		gm.gameState.CollisionSpace.Remove(playerState.Object)
	}
	gm.gameState.RemovePlayer(event.ClientID)
	gm.chatLimiter.Forget(playerState.Username)

	gm.sendToAll(messages.MessageTypeServerPlayerLeft, messages.ServerPlayerLeft{
		ClientID: event.ClientID,
		Username: playerState.Username,
	})
	gm.publishChat(chat.System(chat.KindSystem, fmt.Sprintf("%s left the game", playerState.Username), gm.now))
}

// advanceTime moves the day/night cycle forward by one tick.
func (gm *GameManager) advanceTime(t time.Time) {
	worldTime := &gm.gameState.Time
	worldTime.TimeOfDay += gm.gameLoopInterval.Seconds()
	if dayLength := constants.DayLength.Seconds(); worldTime.TimeOfDay >= dayLength {
		worldTime.TimeOfDay -= dayLength
		worldTime.IsDay = !worldTime.IsDay
		if worldTime.IsDay {
			worldTime.Day++
		}
		log.Debug("Day %d, is day: %v", worldTime.Day, worldTime.IsDay)
	}

	if t.Sub(gm.lastTimeSync) >= constants.TimeSyncInterval {
		gm.lastTimeSync = t
		gm.sendTimeSync()
	}
}

func (gm *GameManager) sendTimeSync() {
	gm.sendToAll(messages.MessageTypeServerTimeSync, TimeSyncFromState(gm.gameState.Time))
}

// broadcastPlayerStates sends the players that moved since the last tick over UDP.
func (gm *GameManager) broadcastPlayerStates() {
	states := &messages.PlayerStates{Timestamp: gm.gameState.Timestamp}
	for _, p := range gm.gameState.Players {
		if !p.Changed {
			continue
		}
		p.Changed = false
		states.Players = append(states.Players, PlayerStateUpdateFromState(p))
	}
	if len(states.Players) == 0 {
		return
	}

	gm.dispatch(workers.ServerMessage{
		Delivery:   workers.DeliveryAll,
		Unreliable: true,
		Message: &messages.Message{
			Type:    messages.MessageTypeServerPlayerStates,
			Payload: messages.SerializePlayerStates(states),
		},
	})
}

func (gm *GameManager) autosave(t time.Time) {
	if gm.autosaveInterval <= 0 || t.Sub(gm.lastAutosave) < gm.autosaveInterval {
		return
	}
	gm.lastAutosave = t
	gm.requestSave(gm.saveRequest())
}

func (gm *GameManager) saveRequest() workers.SaveRequest {
	req := workers.SaveRequest{World: WorldSaveFromState(gm.gameState)}
	for _, p := range gm.gameState.Players {
		req.Profiles = append(req.Profiles, gm.profile(p.Record()))
	}
	return req
}

func (gm *GameManager) profile(record *saves.PlayerRecord) *models.PlayerProfile {
	return &models.PlayerProfile{
		WorldID:   gm.gameState.WorldID.String(),
		Username:  record.Username,
		Record:    record,
		UpdatedAt: gm.now.UTC(),
	}
}

func (gm *GameManager) requestSave(req workers.SaveRequest) {
	if gm.saveRequestChan == nil {
		return
	}
	select {
	case gm.saveRequestChan <- req:
	default:
		log.Warn("Save request dropped: save worker is busy")
	}
}

func (gm *GameManager) onChunkGenerated(chunk int, blocks map[world.Pos]string) {
	generated := generatedChunk{chunk: chunk, blocks: make(map[string]string, len(blocks))}
	for pos, block := range blocks {
		generated.blocks[pos.Key()] = block
	}
	gm.pendingChunks = append(gm.pendingChunks, generated)
}

// flushGeneratedChunks announces chunks generated since the last flush.
func (gm *GameManager) flushGeneratedChunks(ctx context.Context) {
	pending := gm.pendingChunks
	gm.pendingChunks = nil
	for _, generated := range pending {
		log.Debug("Generated chunk %d with %d blocks", generated.chunk, len(generated.blocks))
		gm.sendToAll(messages.MessageTypeServerChunk, messages.ServerChunk{
			Chunk:  generated.chunk,
			Blocks: generated.blocks,
		})
		gm.callHook(ctx, mods.HookWorldGenerate, generated.chunk, len(generated.blocks))
	}
}

func (gm *GameManager) callHook(ctx context.Context, hook mods.Hook, args ...interface{}) {
	if gm.mods == nil {
		return
	}
	gm.mods.Call(ctx, hook, args...)
}

func (gm *GameManager) dispatch(msg workers.ServerMessage) {
	if gm.serverMessageChan == nil {
		return
	}
	select {
	case gm.serverMessageChan <- msg:
	default:
		log.Warn("Dropped %s message: server message channel is full", msg.Message.Type)
	}
}

func (gm *GameManager) send(delivery workers.Delivery, clientID uint32, t messages.MessageType, payload interface{}) {
	msg, err := messages.NewMessage(t, 0, payload)
	if err != nil {
		log.Error("Failed to build %s message: %v", t, err)
		return
	}
	gm.dispatch(workers.ServerMessage{Delivery: delivery, ClientID: clientID, Message: msg})
}

func (gm *GameManager) sendToAll(t messages.MessageType, payload interface{}) {
	gm.send(workers.DeliveryAll, 0, t, payload)
}

func (gm *GameManager) sendToAllExcept(clientID uint32, t messages.MessageType, payload interface{}) {
	gm.send(workers.DeliveryAllExcept, clientID, t, payload)
}

func (gm *GameManager) sendToClient(clientID uint32, t messages.MessageType, payload interface{}) {
	gm.send(workers.DeliveryClient, clientID, t, payload)
}

func (gm *GameManager) sendError(clientID uint32, text string) {
	gm.sendToClient(clientID, messages.MessageTypeServerError, messages.ServerError{Message: text})
}
