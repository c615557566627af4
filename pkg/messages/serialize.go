package messages

import (
	"fmt"
	"sync"

	messagefb "github.com/cbodonnell/orderstone/flatbuffers/message"
	playerstatefb "github.com/cbodonnell/orderstone/flatbuffers/playerstate"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func getEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		// nil writer is valid when only EncodeAll is used
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	return encoder
}

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(UDPMessageBufferSize*64))
	})
	return decoder
}

// SerializeMessage encodes a message as a zstd compressed flatbuffer, the
// format used for UDP datagrams.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return getEncoder().EncodeAll(b, make([]byte, 0, len(b))), nil
}

// DeserializeMessage reverses SerializeMessage.
func DeserializeMessage(data []byte) (*Message, error) {
	b, err := getDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	builder := flatbuffers.NewBuilder(len(m.Payload) + 64)

	messageType := builder.CreateString(string(m.Type))
	var payload flatbuffers.UOffsetT
	if len(m.Payload) > 0 {
		payload = builder.CreateByteVector(m.Payload)
	}

	messagefb.MessageStart(builder)
	messagefb.MessageAddClientId(builder, m.ClientID)
	messagefb.MessageAddType(builder, messageType)
	if len(m.Payload) > 0 {
		messagefb.MessageAddPayload(builder, payload)
	}
	messageOffset := messagefb.MessageEnd(builder)
	builder.Finish(messageOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (m *Message, err error) {
	// malformed buffers make the generated accessors index out of range
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed message: %v", r)
		}
	}()
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("message too short: %d bytes", len(b))
	}

	messageFlatbuffer := messagefb.GetRootAsMessage(b, 0)
	message := &Message{
		ClientID: messageFlatbuffer.ClientId(),
		Type:     MessageType(messageFlatbuffer.Type()),
	}
	if payload := messageFlatbuffer.PayloadBytes(); len(payload) > 0 {
		message.Payload = append([]byte(nil), payload...)
	}
	if message.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}

	return message, nil
}

func serializePlayerStateFlatbuffer(builder *flatbuffers.Builder, state *PlayerState) flatbuffers.UOffsetT {
	username := builder.CreateString(state.Username)

	playerstatefb.PlayerStateStart(builder)
	playerstatefb.PlayerStateAddClientId(builder, state.ClientID)
	playerstatefb.PlayerStateAddUsername(builder, username)
	playerstatefb.PlayerStateAddX(builder, state.X)
	playerstatefb.PlayerStateAddY(builder, state.Y)
	playerstatefb.PlayerStateAddVelY(builder, state.VelY)
	playerstatefb.PlayerStateAddOnGround(builder, state.OnGround)
	playerstatefb.PlayerStateAddFacing(builder, state.Facing)
	playerstatefb.PlayerStateAddHealth(builder, state.Health)
	playerstatefb.PlayerStateAddDead(builder, state.Dead)
	playerstatefb.PlayerStateAddTimestamp(builder, state.Timestamp)
	return playerstatefb.PlayerStateEnd(builder)
}

func playerStateFromFlatbuffer(fb *playerstatefb.PlayerState) *PlayerState {
	return &PlayerState{
		ClientID:  fb.ClientId(),
		Username:  string(fb.Username()),
		X:         fb.X(),
		Y:         fb.Y(),
		VelY:      fb.VelY(),
		OnGround:  fb.OnGround(),
		Facing:    fb.Facing(),
		Health:    fb.Health(),
		Dead:      fb.Dead(),
		Timestamp: fb.Timestamp(),
	}
}

// SerializePlayerState encodes a single player state, the payload of a
// client player_state datagram.
func SerializePlayerState(state *PlayerState) []byte {
	builder := flatbuffers.NewBuilder(128)
	builder.Finish(serializePlayerStateFlatbuffer(builder, state))
	return builder.FinishedBytes()
}

func DeserializePlayerState(b []byte) (state *PlayerState, err error) {
	defer func() {
		if r := recover(); r != nil {
			state, err = nil, fmt.Errorf("malformed player state: %v", r)
		}
	}()
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("player state too short: %d bytes", len(b))
	}
	return playerStateFromFlatbuffer(playerstatefb.GetRootAsPlayerState(b, 0)), nil
}

// SerializePlayerStates encodes the per-tick position broadcast.
func SerializePlayerStates(states *PlayerStates) []byte {
	builder := flatbuffers.NewBuilder(128 * (len(states.Players) + 1))

	offsets := make([]flatbuffers.UOffsetT, 0, len(states.Players))
	for _, p := range states.Players {
		offsets = append(offsets, serializePlayerStateFlatbuffer(builder, p))
	}
	playerstatefb.PlayerStatesStartPlayersVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	players := builder.EndVector(len(offsets))

	playerstatefb.PlayerStatesStart(builder)
	playerstatefb.PlayerStatesAddTimestamp(builder, states.Timestamp)
	playerstatefb.PlayerStatesAddPlayers(builder, players)
	builder.Finish(playerstatefb.PlayerStatesEnd(builder))
	return builder.FinishedBytes()
}

func DeserializePlayerStates(b []byte) (states *PlayerStates, err error) {
	defer func() {
		if r := recover(); r != nil {
			states, err = nil, fmt.Errorf("malformed player states: %v", r)
		}
	}()
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("player states too short: %d bytes", len(b))
	}

	fb := playerstatefb.GetRootAsPlayerStates(b, 0)
	states = &PlayerStates{
		Timestamp: fb.Timestamp(),
		Players:   make([]*PlayerState, 0, fb.PlayersLength()),
	}
	for i := 0; i < fb.PlayersLength(); i++ {
		p := &playerstatefb.PlayerState{}
		if !fb.Players(p, i) {
			return nil, fmt.Errorf("failed to get player state at index %d", i)
		}
		states.Players = append(states.Players, playerStateFromFlatbuffer(p))
	}
	return states, nil
}
