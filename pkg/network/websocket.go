package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"nhooyr.io/websocket"
)

// WSServer represents a WebSocket server.
type WSServer struct {
	port int
	tls  *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port int
	TLS  *TLSConfig
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port: opts.Port,
		tls:  opts.TLS,
	}
}

// Handler returns the HTTP handler that upgrades requests and serves them
// as control connections.
func (s *WSServer) Handler(ctx context.Context, handlers ControlHandlers) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		conn.SetReadLimit(messages.MaxLineSize)
		log.Debug("New WebSocket connection from %s", r.RemoteAddr)
		HandleWSConnection(ctx, conn, r.RemoteAddr, handlers)
	})
}

// Start starts the WebSocket server and blocks until ctx is cancelled.
func (s *WSServer) Start(ctx context.Context, handlers ControlHandlers) error {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(ctx, handlers),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return nil
		}
		return fmt.Errorf("websocket server error: %v", err)
	}
	return nil
}

// HandleWSConnection serves one WebSocket control connection. Text frames
// carry JSON messages; binary frames carry the compressed UDP envelope.
func HandleWSConnection(ctx context.Context, conn *websocket.Conn, remoteAddr string, handlers ControlHandlers) {
	read := func() (*messages.Message, error) {
		return ReadMessageFromWS(ctx, conn)
	}
	serveControl(ctx, NewWSConn(conn, remoteAddr), ConnectionTypeWebSocket, read, handlers)
}

// ReadMessageFromWS reads a Message from a WebSocket connection
func ReadMessageFromWS(ctx context.Context, conn *websocket.Conn) (*messages.Message, error) {
	typ, b, err := conn.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
			return nil, ErrConnectionClosed
		}
		return nil, ReadError(err)
	}

	if typ == websocket.MessageBinary {
		msg, err := messages.DeserializeMessage(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", messages.ErrMalformed, err)
		}
		return msg, nil
	}
	return messages.Decode(b)
}
