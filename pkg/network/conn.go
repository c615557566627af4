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
	"nhooyr.io/websocket"
)

// ErrConnectionClosed is returned when the peer has gone away.
var ErrConnectionClosed = errors.New("connection closed")

const writeTimeout = 5 * time.Second

// ControlConn is the reliable, ordered channel to one client. Writes are
// serialized so concurrent senders never interleave lines or frames.
type ControlConn interface {
	WriteMessage(ctx context.Context, msg *messages.Message) error
	// WriteBinary sends a pre-serialized datagram where the transport allows it.
	WriteBinary(ctx context.Context, b []byte) error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	conn      net.Conn
	writeLock sync.Mutex
}

func NewTCPConn(conn net.Conn) ControlConn {
	return &tcpConn{conn: conn}
}

func (c *tcpConn) WriteMessage(_ context.Context, msg *messages.Message) error {
	return writeMessageToTCP(c, msg)
}

func (c *tcpConn) WriteBinary(_ context.Context, _ []byte) error {
	return fmt.Errorf("binary frames are not supported over TCP")
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// writeMessageToTCP writes a Message as one JSON line
func writeMessageToTCP(c *tcpConn, msg *messages.Message) error {
	b, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.conn.Write(b); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			return ErrConnectionClosed
		}
		return fmt.Errorf("failed to write message to TCP connection: %v", err)
	}

	return nil
}

type wsConn struct {
	conn       *websocket.Conn
	remoteAddr string
	writeLock  sync.Mutex
}

func NewWSConn(conn *websocket.Conn, remoteAddr string) ControlConn {
	return &wsConn{conn: conn, remoteAddr: remoteAddr}
}

func (c *wsConn) WriteMessage(ctx context.Context, msg *messages.Message) error {
	b, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	return c.write(ctx, websocket.MessageText, b)
}

func (c *wsConn) WriteBinary(ctx context.Context, b []byte) error {
	return c.write(ctx, websocket.MessageBinary, b)
}

func (c *wsConn) write(ctx context.Context, typ websocket.MessageType, b []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, typ, b); err != nil {
		if websocket.CloseStatus(err) != -1 {
			return ErrConnectionClosed
		}
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}
