package network

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sort"
	"strings"
	"sync"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
	// ClientEventChannelSize represents the size of the client event channel
	ClientEventChannelSize = 1024
	// DefaultMaxPlayers is used when no limit is configured
	DefaultMaxPlayers = 10
)

var (
	ErrServerFull       = errors.New("server is full")
	ErrAlreadyConnected = errors.New("player is already connected")
	ErrClientNotFound   = errors.New("client not found")
)

// ConnectionType is the transport a client joined with.
type ConnectionType int

const (
	ConnectionTypeTCP ConnectionType = iota
	ConnectionTypeWebSocket
)

func (t ConnectionType) String() string {
	switch t {
	case ConnectionTypeTCP:
		return "tcp"
	case ConnectionTypeWebSocket:
		return "websocket"
	default:
		return "unknown"
	}
}

// Client represents a connected client
type Client struct {
	ID             uint32
	Username       string
	Character      string
	ConnectionType ConnectionType
	Conn           ControlConn
	UDPAddress     *net.UDPAddr
}

// ClientEvent represents an event that happened to a client
type ClientEvent struct {
	ClientID uint32
	Type     ClientEventType
	Data     interface{}
}

// ClientEventType represents the type of a client event
type ClientEventType int

const (
	ClientEventTypeConnect ClientEventType = iota
	ClientEventTypeDisconnect
)

type ClientConnectData struct {
	Username  string
	Character string
}

type ClientDisconnectData struct {
	Username string
}

// ClientManager manages connected clients
type ClientManager struct {
	clients         map[uint32]*Client
	clientsLock     sync.RWMutex
	maxPlayers      int
	clientEventChan chan ClientEvent
}

type NewClientManagerOptions struct {
	MaxPlayers int
}

// NewClientManager creates a new ClientManager
func NewClientManager(opts NewClientManagerOptions) *ClientManager {
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	return &ClientManager{
		clients:         make(map[uint32]*Client),
		maxPlayers:      opts.MaxPlayers,
		clientEventChan: make(chan ClientEvent, ClientEventChannelSize),
	}
}

// GetClientEventChan returns a one-way channel for receiving client events
func (cm *ClientManager) GetClientEventChan() <-chan ClientEvent {
	return cm.clientEventChan
}

func (cm *ClientManager) MaxPlayers() int {
	return cm.maxPlayers
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

func copyClient(client *Client) *Client {
	c := *client
	if client.UDPAddress != nil {
		c.UDPAddress = &net.UDPAddr{
			IP:   client.UDPAddress.IP,
			Port: client.UDPAddress.Port,
			Zone: client.UDPAddress.Zone,
		}
	}
	return &c
}

// GetClients returns a slice with a copy of all connected clients, ordered by ID.
// The copies share the underlying connection.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, copyClient(client))
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}

// GetClient returns a copy of a connected client.
func (cm *ClientManager) GetClient(clientID uint32) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
	}
	return copyClient(client), nil
}

// Usernames lists the connected players, sorted.
func (cm *ClientManager) Usernames() []string {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	names := make([]string, 0, len(cm.clients))
	for _, client := range cm.clients {
		names = append(names, client.Username)
	}
	sort.Strings(names)
	return names
}

// ConnectClient adds a new client to the manager and returns its ID.
// Usernames are unique regardless of case.
func (cm *ClientManager) ConnectClient(conn ControlConn, connType ConnectionType, username, character string) (uint32, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if len(cm.clients) >= cm.maxPlayers {
		return 0, fmt.Errorf("%w (%d/%d)", ErrServerFull, len(cm.clients), cm.maxPlayers)
	}
	for _, client := range cm.clients {
		if strings.EqualFold(client.Username, username) {
			return 0, fmt.Errorf("%w: %s", ErrAlreadyConnected, username)
		}
	}

	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	cm.clients[clientID] = &Client{
		ID:             clientID,
		Username:       username,
		Character:      character,
		ConnectionType: connType,
		Conn:           conn,
	}

	cm.clientEventChan <- ClientEvent{
		ClientID: clientID,
		Type:     ClientEventTypeConnect,
		Data: ClientConnectData{
			Username:  username,
			Character: character,
		},
	}

	return clientID, nil
}

// DisconnectClient removes a client from the manager
func (cm *ClientManager) DisconnectClient(clientID uint32) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return
	}

	cm.clientEventChan <- ClientEvent{
		ClientID: client.ID,
		Type:     ClientEventTypeDisconnect,
		Data:     ClientDisconnectData{Username: client.Username},
	}

	delete(cm.clients, clientID)
}

// SetUDPAddress sets the UDP address of a client
func (cm *ClientManager) SetUDPAddress(clientID uint32, addr *net.UDPAddr) error {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
	}
	// Don't update the UDP address if it's already set to the same value
	if client.UDPAddress != nil && client.UDPAddress.String() == addr.String() {
		return nil
	}
	client.UDPAddress = addr
	return nil
}

func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// generateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
