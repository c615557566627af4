package network

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/cbodonnell/orderstone/pkg/messages"
)

// UDPClient carries the zstd compressed flatbuffers datagrams.
type UDPClient struct {
	serverAddr string

	lock sync.Mutex
	conn *net.UDPConn
}

// NewUDPClient creates a new UDP client.
func NewUDPClient(serverAddr string) *UDPClient {
	return &UDPClient{
		serverAddr: serverAddr,
	}
}

// Connect binds a local socket to the server's game port.
func (c *UDPClient) Connect(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn != nil {
		return nil
	}
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "udp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	c.conn = conn.(*net.UDPConn)
	return nil
}

func (c *UDPClient) getConn() *net.UDPConn {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn
}

// SendMessage sends a message to the UDP server.
func (c *UDPClient) SendMessage(msg *messages.Message) error {
	conn := c.getConn()
	if conn == nil {
		return ErrNotConnected
	}
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("failed to write message to UDP connection: %v", err)
	}
	return nil
}

// ReceiveMessage blocks for the next datagram from the server.
func (c *UDPClient) ReceiveMessage() (*messages.Message, error) {
	conn := c.getConn()
	if conn == nil {
		return nil, ErrNotConnected
	}
	buf := make([]byte, messages.UDPMessageBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read message from UDP connection: %w", err)
	}
	msg, err := messages.DeserializeMessage(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}
	return msg, nil
}

func (c *UDPClient) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
