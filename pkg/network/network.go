package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	authproviders "github.com/cbodonnell/orderstone/pkg/auth/providers"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"golang.org/x/sync/errgroup"
)

var errNoUDPAddress = errors.New("client has no UDP address")

type NetworkManager struct {
	AuthProvider  authproviders.AuthProvider
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	TCPServer     *TCPServer
	UDPServer     *UDPServer
	// WSServer is nil when WebSocket clients are disabled
	WSServer *WSServer
}

type NewNetworkManagerOptions struct {
	AuthProvider  authproviders.AuthProvider
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	TCPPort       int
	UDPPort       int
	// WSPort 0 disables the WebSocket server
	WSPort      int
	WSServerTLS *TLSConfig
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	n := &NetworkManager{
		AuthProvider:  options.AuthProvider,
		ClientManager: options.ClientManager,
		MessageQueue:  options.MessageQueue,
		TCPServer: NewTCPServer(NewTCPServerOptions{
			Port: options.TCPPort,
		}),
		UDPServer: NewUDPServer(NewUDPServerOptions{
			Port: options.UDPPort,
		}),
	}
	if options.WSPort > 0 {
		n.WSServer = NewWSServer(NewWSServerOptions{
			Port: options.WSPort,
			TLS:  options.WSServerTLS,
		})
	}
	return n
}

// ControlHandlers returns the handlers shared by the TCP and WebSocket servers.
func (n *NetworkManager) ControlHandlers() ControlHandlers {
	return ControlHandlers{
		Join:       n.handleJoin,
		Message:    n.handleControlMessage,
		Disconnect: n.handleControlDisconnect,
	}
}

// Start runs every transport until ctx is cancelled or one of them fails.
func (n *NetworkManager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	handlers := n.ControlHandlers()
	g.Go(func() error {
		return n.TCPServer.Start(ctx, handlers)
	})
	g.Go(func() error {
		return n.UDPServer.Start(ctx, n.handleGameMessage)
	})
	if n.WSServer != nil {
		g.Go(func() error {
			return n.WSServer.Start(ctx, handlers)
		})
	}
	return g.Wait()
}

func (n *NetworkManager) handleControlDisconnect(clientID uint32) {
	n.ClientManager.DisconnectClient(clientID)
	log.Info("Client %d disconnected", clientID)
}

func (n *NetworkManager) handleControlMessage(ctx context.Context, clientID uint32, message *messages.Message) {
	switch message.Type {
	case messages.MessageTypeClientPing:
		if err := n.handleClientPing(ctx, message); err != nil {
			log.Error("Failed to handle client ping: %v", err)
		}
	default:
		if err := n.MessageQueue.Enqueue(message); err != nil {
			log.Error("Failed to enqueue message from client %d: %v", clientID, err)
		}
	}
}

// handleJoin admits a client from its join message.
func (n *NetworkManager) handleJoin(ctx context.Context, conn ControlConn, connType ConnectionType, message *messages.Message) (uint32, error) {
	clientJoin := &messages.ClientJoin{}
	if err := message.DecodePayload(clientJoin); err != nil {
		return 0, err
	}

	token, err := n.AuthProvider.VerifyToken(ctx, clientJoin.Username)
	if err != nil {
		return 0, fmt.Errorf("failed to verify username: %v", err)
	}

	character := strings.TrimSpace(clientJoin.Character)
	clientID, err := n.ClientManager.ConnectClient(conn, connType, token.UID, character)
	if err != nil {
		return 0, fmt.Errorf("failed to connect client: %v", err)
	}

	log.Info("Client %d joined as %s over %s", clientID, token.UID, connType)
	return clientID, nil
}

func (n *NetworkManager) handleClientPing(ctx context.Context, message *messages.Message) error {
	clientPing := &messages.ClientPing{}
	if len(message.Payload) > 0 {
		if err := message.DecodePayload(clientPing); err != nil {
			return err
		}
	}

	msg, err := messages.NewMessage(messages.MessageTypeServerPong, 0, messages.ServerPong{
		ClientTimestamp: clientPing.Timestamp,
		Timestamp:       time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := n.SendReliableMessageToClient(ctx, message.ClientID, msg); err != nil {
		return fmt.Errorf("failed to send pong: %v", err)
	}

	return nil
}

func (n *NetworkManager) handleGameMessage(ctx context.Context, addr *net.UDPAddr, message *messages.Message) {
	if message.ClientID == 0 {
		log.Warn("Received UDP message from unknown client, ignoring")
		return
	}

	if !n.ClientManager.Exists(message.ClientID) {
		log.Warn("Received UDP message from %d, but client is not connected", message.ClientID)
		return
	}

	switch message.Type {
	case messages.MessageTypeClientPing:
		if err := n.handleUDPPing(ctx, message.ClientID, addr); err != nil {
			log.Error("Failed to handle client ping: %v", err)
		}
	case messages.MessageTypeClientPlayerState:
		if err := n.MessageQueue.Enqueue(message); err != nil {
			log.Error("Failed to enqueue message: %v", err)
		}
	default:
		log.Warn("Unexpected UDP message type %s from client %d", message.Type, message.ClientID)
	}
}

func (n *NetworkManager) handleUDPPing(ctx context.Context, clientID uint32, addr *net.UDPAddr) error {
	if err := n.ClientManager.SetUDPAddress(clientID, addr); err != nil {
		return err
	}

	m := &messages.Message{
		ClientID: 0,
		Type:     messages.MessageTypeServerPong,
	}
	if err := n.SendUnreliableMessageToClient(ctx, clientID, m); err != nil {
		return fmt.Errorf("failed to write pong message to client: %v", err)
	}

	return nil
}

func (n *NetworkManager) SendUnreliableMessageToAll(ctx context.Context, msg *messages.Message) {
	for _, client := range n.ClientManager.GetClients() {
		if err := n.sendUnreliableMessageToClient(ctx, client, msg); err != nil {
			if errors.Is(err, errNoUDPAddress) {
				log.Trace("Client %d does not have a UDP address", client.ID)
				continue
			}
			log.Error("Failed to send unreliable message to client %d: %v", client.ID, err)
		}
	}
}

func (n *NetworkManager) sendUnreliableMessageToClient(ctx context.Context, client *Client, msg *messages.Message) error {
	switch client.ConnectionType {
	case ConnectionTypeTCP:
		if client.UDPAddress == nil {
			return errNoUDPAddress
		}
		udpConn := n.UDPServer.GetUDPConn()
		if udpConn == nil {
			return fmt.Errorf("UDP server is not running")
		}
		if err := WriteMessageToUDP(udpConn, client.UDPAddress, msg); err != nil {
			return fmt.Errorf("failed to write message to UDP connection for client %d: %v", client.ID, err)
		}
	case ConnectionTypeWebSocket:
		b, err := messages.SerializeMessage(msg)
		if err != nil {
			return err
		}
		if err := client.Conn.WriteBinary(ctx, b); err != nil {
			return fmt.Errorf("failed to write message to WebSocket connection for client %d: %v", client.ID, err)
		}
	default:
		return fmt.Errorf("unknown connection type for client %d: %v", client.ID, client.ConnectionType)
	}

	return nil
}

func (n *NetworkManager) SendUnreliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %d: %v", clientID, err)
	}

	if err := n.sendUnreliableMessageToClient(ctx, client, msg); err != nil {
		return fmt.Errorf("failed to send unreliable message to client %d: %v", clientID, err)
	}

	return nil
}

func (n *NetworkManager) SendReliableMessageToAll(ctx context.Context, msg *messages.Message) {
	n.SendReliableMessageToAllExcept(ctx, 0, msg)
}

// SendReliableMessageToAllExcept skips the client with the given ID, usually
// the one that caused the message.
func (n *NetworkManager) SendReliableMessageToAllExcept(ctx context.Context, exceptID uint32, msg *messages.Message) {
	for _, client := range n.ClientManager.GetClients() {
		if client.ID == exceptID {
			continue
		}
		if err := client.Conn.WriteMessage(ctx, msg); err != nil {
			log.Error("Failed to send reliable message to client %d: %v", client.ID, err)
		}
	}
}

func (n *NetworkManager) SendReliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %d: %v", clientID, err)
	}

	if err := client.Conn.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reliable message to client %d: %v", clientID, err)
	}

	return nil
}
