package types

import (
	"strings"
	"time"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/chests"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/google/uuid"
	"github.com/solarlune/resolv"
)

const (
	CollisionSpaceTagPlayer string = "player"
	CollisionSpaceTagBlock  string = "block"
	CollisionSpaceTagHitbox string = "hitbox"
)

// WorldTime is the day/night cycle and weather of a world.
type WorldTime struct {
	// TimeOfDay is the game time since the last day/night toggle, in seconds
	TimeOfDay float64 `json:"time"`
	IsDay     bool    `json:"is_day"`
	Day       int     `json:"day"`
	Weather   string  `json:"weather"`
}

type GameState struct {
	// Timestamp is the time at which the game state was generated
	Timestamp int64 `json:"timestamp"`
	// Players maps client IDs to player states
	Players map[uint32]*PlayerState `json:"players"`
	// Offline holds the stored records of players who are not connected
	Offline map[string]*saves.PlayerRecord `json:"-"`
	// HostName is the username of the world's owner
	HostName  string    `json:"host"`
	WorldID   uuid.UUID `json:"world_id"`
	WorldName string    `json:"world_name"`
	Seed      int64     `json:"seed"`
	Created   time.Time `json:"created"`
	Time      WorldTime `json:"time"`
	// BlockCount and ChestCount are filled in copies, which carry no world
	BlockCount int                      `json:"blocks"`
	ChestCount int                      `json:"chests"`
	Entities   []map[string]interface{} `json:"-"`

	World  *world.World    `json:"-"`
	Chests *chests.Manager `json:"-"`
	Chat   *chat.History   `json:"-"`
	// CollisionSpace is a resolv.Space used for collision detection
	CollisionSpace *resolv.Space `json:"-"`
}

func NewGameState(collisionSpace *resolv.Space) *GameState {
	return &GameState{
		Timestamp:      0,
		Players:        make(map[uint32]*PlayerState),
		Offline:        make(map[string]*saves.PlayerRecord),
		Time:           WorldTime{IsDay: true, Weather: saves.WeatherClear},
		World:          world.New(world.NewWorldOptions{}),
		Chests:         chests.NewManager(chests.NewManagerOptions{}),
		Chat:           chat.NewHistory(chat.DefaultHistory),
		CollisionSpace: collisionSpace,
	}
}

// Copy returns a snapshot for readers outside the game loop. The world,
// chest, chat and collision references are left empty.
func (g *GameState) Copy() *GameState {
	newGameState := &GameState{
		Timestamp: g.Timestamp,
		Players:   make(map[uint32]*PlayerState, len(g.Players)),
		Offline:   make(map[string]*saves.PlayerRecord, len(g.Offline)),
		HostName:  g.HostName,
		WorldID:   g.WorldID,
		WorldName: g.WorldName,
		Seed:      g.Seed,
		Created:   g.Created,
		Time:      g.Time,
	}
	for id, player := range g.Players {
		newGameState.Players[id] = player.Copy()
	}
	for name, record := range g.Offline {
		newGameState.Offline[name] = record
	}
	if g.World != nil {
		newGameState.BlockCount = g.World.Len()
	} else {
		newGameState.BlockCount = g.BlockCount
	}
	if g.Chests != nil {
		newGameState.ChestCount = g.Chests.Len()
	} else {
		newGameState.ChestCount = g.ChestCount
	}
	return newGameState
}

func (g *GameState) SetTimestamp(timestamp int64) {
	g.Timestamp = timestamp
}

func (g *GameState) AddPlayer(id uint32, state *PlayerState) {
	g.Players[id] = state
}

func (g *GameState) RemovePlayer(id uint32) {
	delete(g.Players, id)
}

// PlayerByName finds a connected player, ignoring case.
func (g *GameState) PlayerByName(username string) (*PlayerState, bool) {
	for _, p := range g.Players {
		if strings.EqualFold(p.Username, username) {
			return p, true
		}
	}
	return nil, false
}

// Records returns the stored form of every known player, online or not.
func (g *GameState) Records() map[string]*saves.PlayerRecord {
	out := make(map[string]*saves.PlayerRecord, len(g.Offline)+len(g.Players))
	for name, record := range g.Offline {
		out[name] = record
	}
	for _, p := range g.Players {
		out[p.Username] = p.Record()
	}
	return out
}
