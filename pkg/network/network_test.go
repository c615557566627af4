package network

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	authproviders "github.com/cbodonnell/orderstone/pkg/auth/providers"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNetworkManager(maxPlayers int) *NetworkManager {
	return NewNetworkManager(NewNetworkManagerOptions{
		AuthProvider:  authproviders.NewNameProvider(),
		ClientManager: NewClientManager(NewClientManagerOptions{MaxPlayers: maxPlayers}),
		MessageQueue:  queue.NewInMemoryQueue(16),
	})
}

func writeLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func TestHandleTCPConnection_requiresJoin(t *testing.T) {
	n := newTestNetworkManager(4)
	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		HandleTCPConnection(context.Background(), server, n.ControlHandlers())
		close(done)
	}()

	writeLine(t, client, `{"type":"chat","payload":{"text":"hi"}}`)

	reader := messages.NewLineReader(client)
	msg, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, messages.MessageTypeServerError, msg.Type)

	_, err = reader.Read()
	assert.ErrorIs(t, err, io.EOF)
	<-done
	assert.Equal(t, 0, n.ClientManager.Count())
}

func TestHandleTCPConnection_rejectsInvalidName(t *testing.T) {
	n := newTestNetworkManager(4)
	server, client := net.Pipe()
	defer client.Close()

	go HandleTCPConnection(context.Background(), server, n.ControlHandlers())

	writeLine(t, client, `{"type":"join","payload":{"username":"x"}}`)

	msg, err := messages.NewLineReader(client).Read()
	require.NoError(t, err)
	assert.Equal(t, messages.MessageTypeServerError, msg.Type)
	serverError := messages.ServerError{}
	require.NoError(t, msg.DecodePayload(&serverError))
	assert.Contains(t, serverError.Message, "username")
}

func TestHandleTCPConnection_join(t *testing.T) {
	n := newTestNetworkManager(4)
	server, client := net.Pipe()

	go HandleTCPConnection(context.Background(), server, n.ControlHandlers())

	writeLine(t, client, `{"type":"join","payload":{"username":"steve","character":"miner"}}`)
	event := <-n.ClientManager.GetClientEventChan()
	require.Equal(t, ClientEventTypeConnect, event.Type)
	assert.Equal(t, ClientConnectData{Username: "steve", Character: "miner"}, event.Data)

	// the claimed client id is replaced by the assigned one
	writeLine(t, client, `{"type":"chat","client_id":99,"payload":{"text":"hello"}}`)
	writeLine(t, client, `{"type":"ping","payload":{"timestamp":5}}`)

	msg, err := messages.NewLineReader(client).Read()
	require.NoError(t, err)
	require.Equal(t, messages.MessageTypeServerPong, msg.Type)
	pong := messages.ServerPong{}
	require.NoError(t, msg.DecodePayload(&pong))
	assert.Equal(t, int64(5), pong.ClientTimestamp)

	queued, err := n.MessageQueue.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, queued, 1)
	chat := queued[0].(*messages.Message)
	assert.Equal(t, messages.MessageTypeClientChat, chat.Type)
	assert.Equal(t, event.ClientID, chat.ClientID)

	require.NoError(t, client.Close())
	event = <-n.ClientManager.GetClientEventChan()
	assert.Equal(t, ClientEventTypeDisconnect, event.Type)
	assert.Eventually(t, func() bool { return n.ClientManager.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSendReliableMessageToAllExcept(t *testing.T) {
	n := newTestNetworkManager(4)
	steveConn, alexConn := &fakeConn{}, &fakeConn{}

	steve, err := n.ClientManager.ConnectClient(steveConn, ConnectionTypeTCP, "steve", "")
	require.NoError(t, err)
	_, err = n.ClientManager.ConnectClient(alexConn, ConnectionTypeWebSocket, "alex", "")
	require.NoError(t, err)

	msg, err := messages.NewMessage(messages.MessageTypeServerPlayerUpdate, 0, messages.ServerPlayerUpdate{})
	require.NoError(t, err)
	n.SendReliableMessageToAllExcept(context.Background(), steve, msg)

	assert.Empty(t, steveConn.types())
	assert.Equal(t, []messages.MessageType{messages.MessageTypeServerPlayerUpdate}, alexConn.types())

	n.SendReliableMessageToAll(context.Background(), msg)
	assert.Len(t, steveConn.types(), 1)
	assert.Len(t, alexConn.types(), 2)
}

func TestSendUnreliableMessageToAll(t *testing.T) {
	n := newTestNetworkManager(4)
	tcp, ws := &fakeConn{}, &fakeConn{}

	_, err := n.ClientManager.ConnectClient(tcp, ConnectionTypeTCP, "steve", "")
	require.NoError(t, err)
	_, err = n.ClientManager.ConnectClient(ws, ConnectionTypeWebSocket, "alex", "")
	require.NoError(t, err)

	msg := &messages.Message{
		Type:    messages.MessageTypeServerPlayerStates,
		Payload: messages.SerializePlayerStates(&messages.PlayerStates{Timestamp: 1}),
	}
	// the TCP client has no UDP address yet and is skipped
	n.SendUnreliableMessageToAll(context.Background(), msg)

	assert.Empty(t, tcp.binary)
	require.Len(t, ws.binary, 1)
	got, err := messages.DeserializeMessage(ws.binary[0])
	require.NoError(t, err)
	assert.Equal(t, messages.MessageTypeServerPlayerStates, got.Type)
}

func TestHandleGameMessage(t *testing.T) {
	n := newTestNetworkManager(4)
	id, err := n.ClientManager.ConnectClient(&fakeConn{}, ConnectionTypeTCP, "steve", "")
	require.NoError(t, err)

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 40000}
	state := &messages.Message{
		Type:     messages.MessageTypeClientPlayerState,
		ClientID: id,
		Payload:  messages.SerializePlayerState(&messages.PlayerState{ClientID: id, X: 1}),
	}
	n.handleGameMessage(context.Background(), addr, state)
	// unknown clients are dropped
	n.handleGameMessage(context.Background(), addr, &messages.Message{Type: messages.MessageTypeClientPlayerState, ClientID: id + 1})

	queued, err := n.MessageQueue.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{state}, queued)
}
