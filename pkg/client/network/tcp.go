package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cbodonnell/orderstone/pkg/messages"
)

const writeTimeout = 5 * time.Second

// ErrNotConnected is returned when sending before Connect succeeded.
var ErrNotConnected = errors.New("not connected")

// TCPClient carries the reliable newline delimited JSON stream.
type TCPClient struct {
	serverAddr string

	lock      sync.Mutex
	writeLock sync.Mutex
	conn      net.Conn
	reader    *messages.LineReader
}

// NewTCPClient creates a new TCP client.
func NewTCPClient(serverAddr string) *TCPClient {
	return &TCPClient{
		serverAddr: serverAddr,
	}
}

// Connect dials the server. It is a no-op once connected.
func (c *TCPClient) Connect(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn != nil {
		return nil
	}
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	c.attach(conn)
	return nil
}

func (c *TCPClient) attach(conn net.Conn) {
	c.conn = conn
	c.reader = messages.NewLineReader(conn)
}

func (c *TCPClient) getConn() (net.Conn, *messages.LineReader) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn, c.reader
}

// SendMessage writes one message line to the server.
func (c *TCPClient) SendMessage(msg *messages.Message) error {
	conn, _ := c.getConn()
	if conn == nil {
		return ErrNotConnected
	}
	b, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("failed to write message to TCP connection: %v", err)
	}
	return nil
}

// ReceiveMessage blocks for the next message. It returns io.EOF once the
// server closed the connection.
func (c *TCPClient) ReceiveMessage() (*messages.Message, error) {
	_, reader := c.getConn()
	if reader == nil {
		return nil, ErrNotConnected
	}
	msg, err := reader.Read()
	if err != nil {
		if errors.Is(err, messages.ErrMalformed) || errors.Is(err, io.EOF) {
			return nil, err
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read message from TCP connection: %v", err)
	}
	return msg, nil
}

func (c *TCPClient) LocalAddr() net.Addr {
	conn, _ := c.getConn()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

func (c *TCPClient) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}
