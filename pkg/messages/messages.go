package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
)

const (
	// MaxLineSize is the longest JSON line accepted on a TCP connection
	MaxLineSize = 1 << 20
	// UDPMessageBufferSize represents the maximum size of a UDP datagram
	UDPMessageBufferSize = 4096
)

// MessageType names a message on the wire
type MessageType string

// Client to server
const (
	MessageTypeClientJoin              MessageType = "join"
	MessageTypeClientPlayerUpdate      MessageType = "player_update"
	MessageTypeClientBlockChange       MessageType = "block_change"
	MessageTypeClientChat              MessageType = "chat"
	MessageTypeClientTimeUpdate        MessageType = "time_update"
	MessageTypeClientChestOpen         MessageType = "chest_open"
	MessageTypeClientChestClose        MessageType = "chest_close"
	MessageTypeClientChestTake         MessageType = "chest_take"
	MessageTypeClientChestPut          MessageType = "chest_put"
	MessageTypeClientItemUse           MessageType = "item_use"
	MessageTypeClientAttack            MessageType = "attack"
	MessageTypeClientRespawn           MessageType = "respawn"
	MessageTypeClientKeyPress          MessageType = "key_press"
	MessageTypeClientMouseClick        MessageType = "mouse_click"
	MessageTypeClientPermissionRequest MessageType = "permission_request"
	MessageTypeClientCharacterUnlock   MessageType = "character_unlock"
	MessageTypeClientCharacterSelect   MessageType = "character_select"
	MessageTypeClientPing              MessageType = "ping"
	// MessageTypeClientPlayerState is the UDP flatbuffers position update
	MessageTypeClientPlayerState MessageType = "player_state"
)

// Server to client
const (
	MessageTypeServerWelcome       MessageType = "welcome"
	MessageTypeServerPlayerJoined  MessageType = "player_joined"
	MessageTypeServerPlayerLeft    MessageType = "player_left"
	MessageTypeServerPlayerUpdate  MessageType = "player_update"
	MessageTypeServerBlockChange   MessageType = "block_change"
	MessageTypeServerChat          MessageType = "chat"
	MessageTypeServerTimeSync      MessageType = "time_sync"
	MessageTypeServerChestContents MessageType = "chest_contents"
	MessageTypeServerPlayerHit     MessageType = "player_hit"
	MessageTypeServerPlayerDeath   MessageType = "player_death"
	MessageTypeServerRespawn       MessageType = "respawn"
	MessageTypeServerCoins         MessageType = "coins"
	MessageTypeServerInventory     MessageType = "inventory"
	MessageTypeServerPermission    MessageType = "permission"
	MessageTypeServerError         MessageType = "error"
	MessageTypeServerPong          MessageType = "pong"
	MessageTypeServerChunk         MessageType = "chunk"
	// MessageTypeServerPlayerStates is the UDP flatbuffers position broadcast
	MessageTypeServerPlayerStates MessageType = "player_states"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type     MessageType     `json:"type"`
	ClientID uint32          `json:"client_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a message with a JSON encoded payload.
func NewMessage(t MessageType, clientID uint32, payload interface{}) (*Message, error) {
	msg := &Message{
		Type:     t,
		ClientID: clientID,
	}
	if payload == nil {
		return msg, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", t, err)
	}
	msg.Payload = b
	return msg, nil
}

// DecodePayload unmarshals the message payload into v.
func (m *Message) DecodePayload(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("message %s has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
	}
	return nil
}

type ClientJoin struct {
	Username  string `json:"username"`
	Character string `json:"character,omitempty"`
	Version   string `json:"version,omitempty"`
}

// PlayerSnapshot is the public view of a player.
type PlayerSnapshot struct {
	ClientID   uint32            `json:"client_id"`
	Username   string            `json:"username"`
	Character  string            `json:"character"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	VelY       float64           `json:"vel_y"`
	OnGround   bool              `json:"on_ground"`
	Facing     int               `json:"facing"`
	Health     int               `json:"health"`
	MaxHealth  int               `json:"max_health"`
	Dead       bool              `json:"dead"`
	Permission permissions.Level `json:"permission"`
}

type TimeSync struct {
	IsDay     bool    `json:"is_day"`
	TimeOfDay float64 `json:"time"`
	Day       int     `json:"day"`
	Weather   string  `json:"weather"`
}

type WorldSnapshot struct {
	Name   string            `json:"name"`
	Seed   int64             `json:"seed"`
	Blocks map[string]string `json:"blocks"`
}

type ServerWelcome struct {
	ClientID   uint32            `json:"client_id"`
	World      WorldSnapshot     `json:"world"`
	Players    []PlayerSnapshot  `json:"players"`
	Self       PlayerSnapshot    `json:"self"`
	Inventory  []*items.Stack    `json:"inventory"`
	Time       TimeSync          `json:"time"`
	Permission permissions.Level `json:"permission"`
}

type ServerPlayerJoined struct {
	Player PlayerSnapshot `json:"player"`
}

// ServerChunk carries the blocks of a freshly generated chunk.
type ServerChunk struct {
	Chunk  int               `json:"chunk"`
	Blocks map[string]string `json:"blocks"`
}

type ServerPlayerLeft struct {
	ClientID uint32 `json:"client_id"`
	Username string `json:"username"`
}

type ClientPlayerUpdate struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelY      float64 `json:"vel_y"`
	OnGround  bool    `json:"on_ground"`
	Facing    int     `json:"facing"`
	Timestamp int64   `json:"timestamp"`
}

type ServerPlayerUpdate struct {
	Player PlayerSnapshot `json:"player"`
}

// BlockAction is "break" or "place".
type BlockAction string

const (
	BlockActionBreak BlockAction = "break"
	BlockActionPlace BlockAction = "place"
)

type ClientBlockChange struct {
	Action BlockAction `json:"action"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Block  string      `json:"block,omitempty"`
}

type ServerBlockChange struct {
	ClientID uint32      `json:"client_id"`
	Username string      `json:"username"`
	Action   BlockAction `json:"action"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Block    string      `json:"block"`
}

type ClientChat struct {
	Text    string       `json:"text"`
	Channel chat.Channel `json:"channel,omitempty"`
}

type ServerChat struct {
	Message chat.Message `json:"message"`
}

type ClientTimeUpdate struct {
	IsDay   *bool  `json:"is_day,omitempty"`
	Weather string `json:"weather,omitempty"`
}

type ChestPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ClientChestSlot struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Slot int `json:"slot"`
	// InventorySlot is the source slot for chest_put
	InventorySlot int `json:"inventory_slot,omitempty"`
}

type ServerChestContents struct {
	X            int            `json:"x"`
	Y            int            `json:"y"`
	Slots        []*items.Stack `json:"slots"`
	LootTable    string         `json:"loot_table,omitempty"`
	PlayerPlaced bool           `json:"player_placed"`
}

type ClientItemUse struct {
	Slot int `json:"slot"`
}

type ServerInventory struct {
	Inventory []*items.Stack `json:"inventory"`
	Selected  int            `json:"selected"`
	Health    int            `json:"health"`
	Hunger    int            `json:"hunger"`
}

type ClientKeyPress struct {
	Key string `json:"key"`
}

type ClientMouseClick struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button"`
}

type ServerPlayerHit struct {
	AttackerID uint32 `json:"attacker_id"`
	TargetID   uint32 `json:"target_id"`
	Damage     int    `json:"damage"`
	Health     int    `json:"health"`
}

type ServerPlayerDeath struct {
	ClientID uint32 `json:"client_id"`
	KillerID uint32 `json:"killer_id,omitempty"`
}

type ServerRespawn struct {
	Player PlayerSnapshot `json:"player"`
}

type ClientPermissionRequest struct {
	Username string            `json:"username"`
	Level    permissions.Level `json:"level"`
}

type ServerPermission struct {
	Username string            `json:"username"`
	Level    permissions.Level `json:"level"`
}

type ClientCharacter struct {
	Name string `json:"name"`
}

type ServerCoins struct {
	Coins    int64    `json:"coins"`
	Display  string   `json:"display"`
	Selected string   `json:"selected"`
	Unlocked []string `json:"unlocked"`
}

type ServerError struct {
	Message string `json:"message"`
}

type ClientPing struct {
	Timestamp int64 `json:"timestamp"`
}

type ServerPong struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	Timestamp       int64 `json:"timestamp"`
}

// PlayerState is the compact position update exchanged over UDP.
type PlayerState struct {
	ClientID  uint32
	Username  string
	X         float64
	Y         float64
	VelY      float64
	OnGround  bool
	Facing    int8
	Health    int16
	Dead      bool
	Timestamp int64
}

// PlayerStates is the per-tick UDP broadcast of every changed player.
type PlayerStates struct {
	Timestamp int64
	Players   []*PlayerState
}
