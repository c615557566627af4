package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/cbodonnell/orderstone/pkg/version"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultServerHostname = "localhost"
	DefaultServerTCPPort  = 25565
	DefaultServerUDPPort  = 25567
	DefaultJoinTimeout    = 5 * time.Second
	DefaultPingInterval   = 5 * time.Second
)

// JoinError is the server's reason for refusing a join.
type JoinError struct {
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

// NetworkManager is the client side of a LAN session: the reliable TCP
// stream plus the UDP position channel.
type NetworkManager struct {
	tcpClient    *TCPClient
	udpClient    *UDPClient
	messageQueue queue.Queue
	joinTimeout  time.Duration
	pingInterval time.Duration

	lock     sync.RWMutex
	clientID uint32
	ping     time.Duration
}

type NewNetworkManagerOptions struct {
	ServerHostname string
	TCPPort        int
	// UDPPort 0 keeps the session on TCP only
	UDPPort int
	// MessageQueue receives every server message except pongs
	MessageQueue queue.Queue
	JoinTimeout  time.Duration
	PingInterval time.Duration
}

// NewNetworkManager creates a new network manager.
func NewNetworkManager(opts NewNetworkManagerOptions) *NetworkManager {
	if opts.ServerHostname == "" {
		opts.ServerHostname = DefaultServerHostname
	}
	if opts.TCPPort == 0 {
		opts.TCPPort = DefaultServerTCPPort
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	m := &NetworkManager{
		tcpClient:    NewTCPClient(net.JoinHostPort(opts.ServerHostname, strconv.Itoa(opts.TCPPort))),
		messageQueue: opts.MessageQueue,
		joinTimeout:  opts.JoinTimeout,
		pingInterval: opts.PingInterval,
	}
	if opts.UDPPort > 0 {
		m.udpClient = NewUDPClient(net.JoinHostPort(opts.ServerHostname, strconv.Itoa(opts.UDPPort)))
	}
	return m
}

func (m *NetworkManager) ClientID() uint32 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.clientID
}

// Ping is the last measured TCP round trip.
func (m *NetworkManager) Ping() time.Duration {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.ping
}

// Join connects and performs the join handshake. The server answers with
// either a welcome or an error, which is returned as a *JoinError.
func (m *NetworkManager) Join(ctx context.Context, username, character string) (*messages.ServerWelcome, error) {
	ctx, cancel := context.WithTimeout(ctx, m.joinTimeout)
	defer cancel()

	if err := m.tcpClient.Connect(ctx); err != nil {
		return nil, err
	}
	join, err := messages.NewMessage(messages.MessageTypeClientJoin, 0, messages.ClientJoin{
		Username:  username,
		Character: character,
		Version:   version.Get(),
	})
	if err != nil {
		return nil, err
	}
	if err := m.tcpClient.SendMessage(join); err != nil {
		m.tcpClient.Close()
		return nil, fmt.Errorf("failed to send join: %v", err)
	}

	type result struct {
		msg *messages.Message
		err error
	}
	reply := make(chan result, 1)
	go func() {
		msg, err := m.tcpClient.ReceiveMessage()
		reply <- result{msg: msg, err: err}
	}()

	var first result
	select {
	case first = <-reply:
	case <-ctx.Done():
		m.tcpClient.Close()
		return nil, fmt.Errorf("timed out waiting for welcome: %v", ctx.Err())
	}
	if first.err != nil {
		m.tcpClient.Close()
		return nil, fmt.Errorf("failed to read welcome: %v", first.err)
	}

	switch first.msg.Type {
	case messages.MessageTypeServerWelcome:
	case messages.MessageTypeServerError:
		serverError := &messages.ServerError{}
		if err := first.msg.DecodePayload(serverError); err != nil {
			serverError.Message = "unknown reason"
		}
		m.tcpClient.Close()
		return nil, &JoinError{Reason: serverError.Message}
	default:
		m.tcpClient.Close()
		return nil, fmt.Errorf("expected welcome, got %s", first.msg.Type)
	}

	welcome := &messages.ServerWelcome{}
	if err := first.msg.DecodePayload(welcome); err != nil {
		m.tcpClient.Close()
		return nil, err
	}
	m.lock.Lock()
	m.clientID = welcome.ClientID
	m.lock.Unlock()
	log.Info("Joined as %s with client ID %d", username, welcome.ClientID)

	if m.udpClient != nil {
		if err := m.udpClient.Connect(ctx); err != nil {
			log.Warn("UDP unavailable, positions will not stream: %v", err)
			m.udpClient = nil
		} else if err := m.pingUDP(); err != nil {
			log.Warn("Failed to register UDP address: %v", err)
		}
	}
	return welcome, nil
}

// Run pumps server messages into the queue until ctx is cancelled or the
// server closes the connection.
func (m *NetworkManager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		m.Close()
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return m.receiveTCP(ctx)
	})
	if m.udpClient != nil {
		g.Go(func() error {
			return m.receiveUDP(ctx)
		})
	}
	g.Go(func() error {
		ticker := time.NewTicker(m.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := m.SendPing(); err != nil {
					log.Debug("Failed to send ping: %v", err)
				}
			}
		}
	})
	return g.Wait()
}

func (m *NetworkManager) receiveTCP(ctx context.Context) error {
	for {
		msg, err := m.tcpClient.ReceiveMessage()
		if err != nil {
			if errors.Is(err, messages.ErrMalformed) {
				log.Warn("Ignoring malformed message: %v", err)
				continue
			}
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, ErrNotConnected) {
				log.Info("Disconnected from server")
				return nil
			}
			return err
		}
		m.handleMessage(msg)
	}
}

func (m *NetworkManager) receiveUDP(ctx context.Context) error {
	for {
		msg, err := m.udpClient.ReceiveMessage()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) || errors.Is(err, ErrNotConnected) {
				return nil
			}
			log.Debug("Failed to receive UDP message: %v", err)
			continue
		}
		m.handleMessage(msg)
	}
}

func (m *NetworkManager) handleMessage(msg *messages.Message) {
	if msg.Type == messages.MessageTypeServerPong {
		m.handlePong(msg)
		return
	}
	if m.messageQueue == nil {
		return
	}
	if err := m.messageQueue.Enqueue(msg); err != nil {
		log.Error("Failed to enqueue %s message: %v", msg.Type, err)
	}
}

func (m *NetworkManager) handlePong(msg *messages.Message) {
	// UDP pongs only acknowledge the address and carry no payload
	if len(msg.Payload) == 0 {
		return
	}
	pong := &messages.ServerPong{}
	if err := msg.DecodePayload(pong); err != nil {
		log.Debug("Failed to decode pong: %v", err)
		return
	}
	rtt := time.Since(time.UnixMilli(pong.ClientTimestamp))
	m.lock.Lock()
	m.ping = rtt
	m.lock.Unlock()
	log.Trace("Ping %s", rtt)
}

func (m *NetworkManager) pingUDP() error {
	return m.udpClient.SendMessage(&messages.Message{
		ClientID: m.ClientID(),
		Type:     messages.MessageTypeClientPing,
	})
}

// SendPing measures the round trip over TCP.
func (m *NetworkManager) SendPing() error {
	msg, err := messages.NewMessage(messages.MessageTypeClientPing, m.ClientID(), messages.ClientPing{
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return m.SendReliableMessage(msg)
}

// SendChat sends a chat line; slash commands are parsed by the server.
func (m *NetworkManager) SendChat(text string) error {
	msg, err := messages.NewMessage(messages.MessageTypeClientChat, m.ClientID(), messages.ClientChat{
		Text:    text,
		Channel: chat.ChannelWorld,
	})
	if err != nil {
		return err
	}
	return m.SendReliableMessage(msg)
}

func (m *NetworkManager) SendReliableMessage(msg *messages.Message) error {
	return m.tcpClient.SendMessage(msg)
}

// SendUnreliableMessage falls back to TCP when UDP is not available.
func (m *NetworkManager) SendUnreliableMessage(msg *messages.Message) error {
	if m.udpClient == nil {
		return m.tcpClient.SendMessage(msg)
	}
	return m.udpClient.SendMessage(msg)
}

func (m *NetworkManager) Close() error {
	var errs []error
	if err := m.tcpClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if m.udpClient != nil {
		if err := m.udpClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
