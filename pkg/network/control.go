package network

import (
	"context"
	"errors"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
)

// JoinHandler admits a client from its join message and returns the assigned ID.
type JoinHandler func(ctx context.Context, conn ControlConn, connType ConnectionType, message *messages.Message) (uint32, error)

// ControlMessageHandler receives every message after a successful join.
type ControlMessageHandler func(ctx context.Context, clientID uint32, message *messages.Message)

// ControlDisconnectHandler runs once when a joined client goes away.
type ControlDisconnectHandler func(clientID uint32)

type ControlHandlers struct {
	Join       JoinHandler
	Message    ControlMessageHandler
	Disconnect ControlDisconnectHandler
}

type readFunc func() (*messages.Message, error)

// serveControl runs the join handshake and then pumps messages until the
// connection closes or ctx is cancelled. The first message must be a join;
// anything else is answered with an error message and the connection is closed.
func serveControl(ctx context.Context, conn ControlConn, connType ConnectionType, read readFunc, handlers ControlHandlers) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	first, err := read()
	if err != nil {
		log.Debug("Connection from %s closed before joining: %v", conn.RemoteAddr(), err)
		return
	}
	if first.Type != messages.MessageTypeClientJoin {
		log.Warn("Connection from %s sent %s before joining", conn.RemoteAddr(), first.Type)
		sendError(ctx, conn, "the first message must be a join")
		return
	}

	clientID, err := handlers.Join(ctx, conn, connType, first)
	if err != nil {
		log.Warn("Rejected join from %s: %v", conn.RemoteAddr(), err)
		sendError(ctx, conn, err.Error())
		return
	}
	defer handlers.Disconnect(clientID)

	for {
		message, err := read()
		if err != nil {
			if errors.Is(err, messages.ErrMalformed) {
				log.Warn("Ignoring malformed message from client %d: %v", clientID, err)
				continue
			}
			if errors.Is(err, ErrConnectionClosed) || ctx.Err() != nil {
				log.Debug("Connection closed for client %d", clientID)
			} else {
				log.Error("Error reading message from client %d: %v", clientID, err)
			}
			return
		}

		if message.Type == messages.MessageTypeClientJoin {
			log.Warn("Client %d sent a second join, ignoring", clientID)
			continue
		}
		// never trust the id a client claims
		message.ClientID = clientID
		handlers.Message(ctx, clientID, message)
	}
}

func sendError(ctx context.Context, conn ControlConn, text string) {
	msg, err := messages.NewMessage(messages.MessageTypeServerError, 0, messages.ServerError{Message: text})
	if err != nil {
		log.Error("Failed to build error message: %v", err)
		return
	}
	if err := conn.WriteMessage(ctx, msg); err != nil {
		log.Debug("Failed to send error message to %s: %v", conn.RemoteAddr(), err)
	}
}
