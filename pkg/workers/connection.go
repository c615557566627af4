package workers

import (
	"context"
	"time"

	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/network"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/cbodonnell/orderstone/pkg/repositories"
)

const profileLoadTimeout = 5 * time.Second

type ConnectionEventWorker struct {
	clientEventChan      <-chan network.ClientEvent
	repository           repositories.Repository
	connectionEventQueue queue.Queue
	worldID              string
}

type NewConnectionEventWorkerOptions struct {
	ClientEventChan      <-chan network.ClientEvent
	Repository           repositories.Repository
	ConnectionEventQueue queue.Queue
	// WorldID scopes the player profiles that are loaded
	WorldID string
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker processes client events like connect and disconnect
// and writes connection events to a queue for the game loop to process.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		clientEventChan:      opts.ClientEventChan,
		repository:           opts.Repository,
		connectionEventQueue: opts.ConnectionEventQueue,
		worldID:              opts.WorldID,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.clientEventChan:
			if !ok {
				return
			}
			switch event.Type {
			case network.ClientEventTypeConnect:
				w.handleClientConnect(ctx, event)
			case network.ClientEventTypeDisconnect:
				w.handleClientDisconnect(event)
			default:
				log.Error("Unknown client event type: %v", event.Type)
			}
		}
	}
}

func (w *ConnectionEventWorker) handleClientConnect(ctx context.Context, event network.ClientEvent) {
	data, ok := event.Data.(network.ClientConnectData)
	if !ok {
		log.Error("Failed to cast client connect data")
		return
	}

	connect := &gametypes.ConnectPlayerEvent{
		ClientID:  event.ClientID,
		Username:  data.Username,
		Character: data.Character,
	}

	if w.repository != nil {
		ctx, cancel := context.WithTimeout(ctx, profileLoadTimeout)
		profile, err := w.repository.LoadPlayerProfile(ctx, w.worldID, data.Username)
		cancel()
		if err == nil {
			connect.Profile = profile.Record
		} else if !repositories.IsNotFound(err) {
			log.Error("Failed to load profile for %s: %v", data.Username, err)
		} else {
			log.Debug("No stored profile for %s", data.Username)
		}
	}

	if err := w.connectionEventQueue.Enqueue(connect); err != nil {
		log.Error("Failed to enqueue connect player event: %v", err)
	}
}

func (w *ConnectionEventWorker) handleClientDisconnect(event network.ClientEvent) {
	disconnect := &gametypes.DisconnectPlayerEvent{
		ClientID: event.ClientID,
	}
	if data, ok := event.Data.(network.ClientDisconnectData); ok {
		disconnect.Username = data.Username
	}
	if err := w.connectionEventQueue.Enqueue(disconnect); err != nil {
		log.Error("Failed to enqueue disconnect player event: %v", err)
	}
}
