package workers

import (
	"context"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
)

// Delivery selects the recipients of a server message.
type Delivery int

const (
	DeliveryAll Delivery = iota
	DeliveryAllExcept
	DeliveryClient
)

type ServerMessage struct {
	Delivery Delivery
	// ClientID is the recipient for DeliveryClient and the excluded client
	// for DeliveryAllExcept
	ClientID uint32
	// Unreliable messages go over UDP, or binary frames for WebSocket clients
	Unreliable bool
	Message    *messages.Message
}

// MessageSender delivers messages to connected clients.
type MessageSender interface {
	SendReliableMessageToAll(ctx context.Context, msg *messages.Message)
	SendReliableMessageToAllExcept(ctx context.Context, exceptID uint32, msg *messages.Message)
	SendReliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error
	SendUnreliableMessageToAll(ctx context.Context, msg *messages.Message)
	SendUnreliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error
}

type ServerMessageWorker struct {
	sender            MessageSender
	serverMessageChan <-chan ServerMessage
}

type NewServerMessageWorkerOptions struct {
	Sender            MessageSender
	ServerMessageChan <-chan ServerMessage
}

func NewServerMessageWorker(opts NewServerMessageWorkerOptions) *ServerMessageWorker {
	return &ServerMessageWorker{
		sender:            opts.Sender,
		serverMessageChan: opts.ServerMessageChan,
	}
}

func (w *ServerMessageWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.serverMessageChan:
			if !ok {
				return
			}
			w.deliver(ctx, msg)
		}
	}
}

func (w *ServerMessageWorker) deliver(ctx context.Context, msg ServerMessage) {
	if msg.Message == nil {
		log.Error("Server message without a message body")
		return
	}
	switch msg.Delivery {
	case DeliveryAll:
		if msg.Unreliable {
			w.sender.SendUnreliableMessageToAll(ctx, msg.Message)
		} else {
			w.sender.SendReliableMessageToAll(ctx, msg.Message)
		}
	case DeliveryAllExcept:
		if msg.Unreliable {
			log.Warn("Unreliable delivery to all except a client is not supported, sending %s reliably", msg.Message.Type)
		}
		w.sender.SendReliableMessageToAllExcept(ctx, msg.ClientID, msg.Message)
	case DeliveryClient:
		var err error
		if msg.Unreliable {
			err = w.sender.SendUnreliableMessageToClient(ctx, msg.ClientID, msg.Message)
		} else {
			err = w.sender.SendReliableMessageToClient(ctx, msg.ClientID, msg.Message)
		}
		if err != nil {
			log.Debug("Failed to send %s to client %d: %v", msg.Message.Type, msg.ClientID, err)
		}
	default:
		log.Error("Unknown server message delivery: %v", msg.Delivery)
	}
}
