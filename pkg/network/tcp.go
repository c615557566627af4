package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
)

// TCPServer accepts newline delimited JSON control connections.
type TCPServer struct {
	port int
}

type NewTCPServerOptions struct {
	Port int
}

// NewTCPServer creates a new TCP server.
func NewTCPServer(opts NewTCPServerOptions) *TCPServer {
	return &TCPServer{
		port: opts.Port,
	}
}

// Start starts the TCP server and blocks until ctx is cancelled.
func (s *TCPServer) Start(ctx context.Context, handlers ControlHandlers) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve TCP address: %v", err)
	}

	tcpListener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on TCP address: %v", err)
	}
	defer tcpListener.Close()

	log.Info("TCP server listening on %s", tcpListener.Addr().String())

	go func() {
		<-ctx.Done()
		tcpListener.Close()
	}()

	for {
		conn, err := tcpListener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("TCP server closed")
				return nil
			}
			log.Error("Failed to accept TCP connection: %v", err)
			continue
		}

		log.Debug("New TCP connection from %s", conn.RemoteAddr().String())
		go HandleTCPConnection(ctx, conn, handlers)
	}
}

// HandleTCPConnection serves one TCP control connection.
func HandleTCPConnection(ctx context.Context, conn net.Conn, handlers ControlHandlers) {
	reader := messages.NewLineReader(conn)
	read := func() (*messages.Message, error) {
		msg, err := reader.Read()
		if err != nil {
			return nil, ReadError(err)
		}
		return msg, nil
	}
	serveControl(ctx, NewTCPConn(conn), ConnectionTypeTCP, read, handlers)
}

// ReadError maps end-of-stream style errors to ErrConnectionClosed.
func ReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrConnectionClosed
	}
	return err
}
