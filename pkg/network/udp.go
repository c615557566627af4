package network

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
)

// GameMessageHandler receives each decoded UDP datagram.
type GameMessageHandler func(ctx context.Context, addr *net.UDPAddr, message *messages.Message)

// UDPServer represents a UDP server.
type UDPServer struct {
	port     int
	conn     *net.UDPConn
	connLock sync.RWMutex
}

type NewUDPServerOptions struct {
	Port int
}

// NewUDPServer creates a new UDP server.
func NewUDPServer(opts NewUDPServerOptions) *UDPServer {
	return &UDPServer{
		port: opts.Port,
	}
}

// GetUDPConn returns the listening connection, or nil before Start.
func (s *UDPServer) GetUDPConn() *net.UDPConn {
	s.connLock.RLock()
	defer s.connLock.RUnlock()
	return s.conn
}

// Start starts the UDP server and blocks until ctx is cancelled.
func (s *UDPServer) Start(ctx context.Context, handler GameMessageHandler) error {
	udpAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %v", err)
	}
	defer udpConn.Close()

	log.Info("UDP server listening on %s", udpConn.LocalAddr().String())

	s.connLock.Lock()
	s.conn = udpConn
	s.connLock.Unlock()
	defer func() {
		s.connLock.Lock()
		s.conn = nil
		s.connLock.Unlock()
	}()

	go func() {
		<-ctx.Done()
		udpConn.Close()
	}()

	for {
		message, addr, err := ReadMessageFromUDP(udpConn)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("UDP server closed")
				return nil
			}
			log.Error("Failed to read message from UDP connection: %v", err)
			continue
		}

		log.Trace("Received UDP message of type %s from %d", message.Type, message.ClientID)
		handler(ctx, addr, message)
	}
}

// WriteMessageToUDP writes a Message to a UDP connection
func WriteMessageToUDP(conn *net.UDPConn, addr *net.UDPAddr, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	_, err = conn.WriteToUDP(b, addr)
	if err != nil {
		return fmt.Errorf("failed to write message to UDP connection: %v", err)
	}

	return nil
}

// ReadMessageFromUDP reads a Message from a UDP connection
func ReadMessageFromUDP(conn *net.UDPConn) (*messages.Message, *net.UDPAddr, error) {
	buf := make([]byte, messages.UDPMessageBufferSize)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from UDP connection: %v", err)
	}

	msg, err := messages.DeserializeMessage(buf[:n])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, addr, nil
}
